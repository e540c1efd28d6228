package envelope

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// Sealed pairs a ciphertext with the nonce needed to decrypt it.
// Nonce is nil when the cipher descriptor carries no IV.
type Sealed struct {
	Ciphertext []byte
	Nonce      Nonce
}

// Encrypt encrypts data under key.
//
// With a nil alg, AES-GCM is used with a fresh nonce. The returned Sealed
// carries the IV of the descriptor actually used, so a caller-supplied
// descriptor yields its own IV back. Reusing a nonce with the same key for two
// plaintexts breaks AES-GCM; Envelope does not detect it.
func (e *Envelope) Encrypt(ctx context.Context, data Data, key Key, alg CipherAlgorithm) (Sealed, error) {
	if key == nil {
		return Sealed{}, fmt.Errorf("%w: key is nil", ErrInvalidArgument)
	}
	if data == nil {
		return Sealed{}, fmt.Errorf("%w: data is nil", ErrInvalidArgument)
	}
	plaintext, err := toBytes(data)
	if err != nil {
		return Sealed{}, err
	}

	if alg == nil {
		nonce, err := e.Nonce(ctx)
		if err != nil {
			return Sealed{}, err
		}
		alg = AesGcmParams{IV: nonce}
	}

	var out Sealed
	err = e.run(ctx, "Encrypt", func(ctx context.Context) error {
		ciphertext, err := e.engine.Encrypt(ctx, alg, key, plaintext)
		if err != nil {
			return err
		}
		out = Sealed{Ciphertext: ciphertext, Nonce: NonceOf(alg)}
		return nil
	},
		algorithmAttr(attrAlgorithm, alg),
		keyAttr(key),
		attribute.Int(attrSize, len(plaintext)),
	)
	if err != nil {
		return Sealed{}, err
	}
	return out, nil
}

// Decrypt decrypts ciphertext under key.
//
// in is either the Nonce returned by a default Encrypt or the full
// CipherAlgorithm used to encrypt; it is required. A wrong key, nonce or a
// tampered ciphertext fails with the engine's authentication error
// (ErrDecryptionFailed for the software engine). Failures are not retried.
func (e *Envelope) Decrypt(ctx context.Context, ciphertext []byte, key Key, in CipherInput) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: key is nil", ErrInvalidArgument)
	}
	alg, err := resolveCipher(in)
	if err != nil {
		return nil, err
	}

	var plaintext []byte
	err = e.run(ctx, "Decrypt", func(ctx context.Context) error {
		p, err := e.engine.Decrypt(ctx, alg, key, ciphertext)
		if err != nil {
			return err
		}
		plaintext = p
		return nil
	},
		algorithmAttr(attrAlgorithm, alg),
		keyAttr(key),
		attribute.Int(attrSize, len(ciphertext)),
	)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// Seal encrypts data with the default cipher and frames nonce and ciphertext
// into a single blob that Open accepts.
func (e *Envelope) Seal(ctx context.Context, data Data, key Key) ([]byte, error) {
	s, err := e.Encrypt(ctx, data, key, nil)
	if err != nil {
		return nil, err
	}
	return s.MarshalBinary()
}

// Open parses a blob produced by Seal and decrypts it under key.
func (e *Envelope) Open(ctx context.Context, blob []byte, key Key) ([]byte, error) {
	s, err := UnmarshalSealed(blob)
	if err != nil {
		return nil, err
	}
	return e.Decrypt(ctx, s.Ciphertext, key, s.Nonce)
}
