package envelope

import (
	"context"
	"fmt"
)

// DeriveKey derives a non-exportable working key from base.
//
// in is either a Salt, which selects PBKDF2 with SHA-256 and the configured
// iteration count, or a full DeriveAlgorithm used verbatim. target is either
// an Iterations count (the PBKDF2 count for a Salt; the derived key is then
// AES-GCM 256) or a full DerivedKeyAlgorithm used verbatim. A nil target
// behaves like the default Iterations.
//
// The derived key permits exactly usages, encrypt and decrypt when none are
// given. Engine errors (e.g. base lacks the deriveKey usage) are returned
// unchanged.
func (e *Envelope) DeriveKey(ctx context.Context, base Key, in DeriveInput, target TargetInput, usages ...Usage) (Key, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: base key is nil", ErrInvalidArgument)
	}

	alg, err := e.cfg.resolveDerive(in, target)
	if err != nil {
		return nil, err
	}
	forAlg, err := e.cfg.resolveTarget(target)
	if err != nil {
		return nil, err
	}

	if len(usages) == 0 {
		usages = []Usage{UsageEncrypt, UsageDecrypt}
	} else {
		usages = append([]Usage(nil), usages...)
	}

	var key Key
	err = e.run(ctx, "Derive", func(ctx context.Context) error {
		k, err := e.engine.DeriveKey(ctx, alg, base, forAlg, false, usages)
		if err != nil {
			return err
		}
		key = k
		return nil
	},
		algorithmAttr(attrAlgorithm, alg),
		algorithmAttr(attrTarget, forAlg),
		keyAttr(base),
	)
	if err != nil {
		return nil, err
	}
	return key, nil
}
