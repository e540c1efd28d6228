package envelope

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
)

// ImportBaseKey wraps a secret into a non-exportable base key.
//
// By default the key is bound to PBKDF2 and may only derive other keys.
// Text secrets are encoded as UTF-8; a *JSONWebKey is imported in jwk format.
// The key is always imported as non-extractable. Engine errors (malformed
// material, unsupported algorithm) are returned unchanged.
func (e *Envelope) ImportBaseKey(ctx context.Context, secret Secret, opts ...ImportOption) (Key, error) {
	ic := importConfig{
		algorithm: PBKDF2,
		usages:    []Usage{UsageDeriveKey},
		format:    FormatRaw,
	}
	for _, opt := range opts {
		opt(&ic)
	}
	if ic.algorithm == nil {
		return nil, fmt.Errorf("%w: import algorithm is nil", ErrInvalidArgument)
	}

	format, material, err := resolveImport(secret, ic.format)
	if err != nil {
		return nil, err
	}

	var key Key
	err = e.run(ctx, "Import", func(ctx context.Context) error {
		k, err := e.engine.ImportKey(ctx, format, material, ic.algorithm, false, slices.Clone(ic.usages))
		if err != nil {
			return err
		}
		key = k
		return nil
	},
		algorithmAttr(attrAlgorithm, ic.algorithm),
		attribute.String("envelope.format", string(format)),
	)
	if err != nil {
		return nil, err
	}
	return key, nil
}
