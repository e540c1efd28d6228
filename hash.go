package envelope

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// Hash returns the digest of data. A nil alg selects the configured default
// (SHA-256). Text is hashed as its UTF-8 encoding.
func (e *Envelope) Hash(ctx context.Context, data Data, alg DigestAlgorithm) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: data is nil", ErrInvalidArgument)
	}
	if alg == nil {
		alg = e.cfg.digest
	}

	input, err := toBytes(data)
	if err != nil {
		return nil, err
	}
	var digest []byte
	err = e.run(ctx, "Hash", func(ctx context.Context) error {
		d, err := e.engine.Digest(ctx, alg, input)
		if err != nil {
			return err
		}
		digest = d
		return nil
	},
		algorithmAttr(attrAlgorithm, alg),
		attribute.Int(attrSize, len(input)),
	)
	if err != nil {
		return nil, err
	}
	return digest, nil
}
