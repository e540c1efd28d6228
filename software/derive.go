package software

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudflare/circl/dh/x25519"
	"github.com/rbaliyan/envelope"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// kdfKeyBits is the size of the material behind a derived PBKDF2 or HKDF key.
const kdfKeyBits = 256

// DeriveKey derives a new key from base.
//
// Pbkdf2Params requires a PBKDF2 base key, HkdfParams an HKDF base key,
// Argon2Params an Argon2id base key and EcdhParams an X25519 private key.
// The base key must permit deriveKey. Bare names are rejected since they
// carry no salt.
func (e *Engine) DeriveKey(ctx context.Context, alg envelope.DeriveAlgorithm, base envelope.Key, target envelope.DerivedKeyAlgorithm, extractable bool, usages []envelope.Usage) (envelope.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if alg == nil || target == nil {
		return nil, fmt.Errorf("%w: derive and target algorithms are required", envelope.ErrInvalidArgument)
	}
	bk, err := own(base)
	if err != nil {
		return nil, err
	}

	name := canonical(alg.AlgorithmName())
	if bk.alg.Name != name {
		return nil, fmt.Errorf("%w: %s base key cannot derive with %s", envelope.ErrInvalidUsage, bk.alg.Name, name)
	}
	if !bk.permits(envelope.UsageDeriveKey) {
		return nil, fmt.Errorf("%w: base key does not permit deriveKey", envelope.ErrInvalidUsage)
	}

	targetName, bits, err := targetLength(target)
	if err != nil {
		return nil, err
	}
	// Usages are validated before the potentially slow derivation.
	if err := checkUsages(targetName, kindSecret, usages); err != nil {
		return nil, err
	}

	var derived []byte
	switch p := alg.(type) {
	case envelope.Pbkdf2Params:
		derived, err = derivePBKDF2(bk, p, bits/8)
	case envelope.HkdfParams:
		derived, err = deriveHKDF(bk, p, bits/8)
	case envelope.Argon2Params:
		derived, err = deriveArgon2(bk, p, bits/8)
	case envelope.EcdhParams:
		derived, err = deriveX25519(bk, p, bits/8)
	default:
		return nil, fmt.Errorf("%w: %s derivation needs its parameters", envelope.ErrInvalidParameters, name)
	}
	if err != nil {
		return nil, err
	}
	defer clear(derived)

	return importSecret(target, targetName, derived, extractable, usages)
}

// targetLength resolves the algorithm and bit length of a derived key.
func targetLength(target envelope.DerivedKeyAlgorithm) (envelope.Name, int, error) {
	name := canonical(target.AlgorithmName())
	switch p := target.(type) {
	case envelope.AesKeyParams:
		switch name {
		case envelope.AESGCM, envelope.AESCBC, envelope.AESCTR:
			switch p.Length {
			case 128, 192, 256:
				return name, p.Length, nil
			}
			return "", 0, fmt.Errorf("%w: AES key length %d", envelope.ErrInvalidParameters, p.Length)
		case envelope.ChaCha20Poly1305:
			if p.Length != 0 && p.Length != chachaKeySize*8 {
				return "", 0, fmt.Errorf("%w: ChaCha20-Poly1305 key length %d", envelope.ErrInvalidParameters, p.Length)
			}
			return name, chachaKeySize * 8, nil
		}
	case envelope.HmacImportParams:
		_, h, err := hashFunc(p.Hash)
		if err != nil {
			return "", 0, err
		}
		bits := p.Length
		if bits == 0 {
			bits = h().BlockSize() * 8
		}
		if bits <= 0 || bits%8 != 0 {
			return "", 0, fmt.Errorf("%w: HMAC key length %d", envelope.ErrInvalidParameters, p.Length)
		}
		return envelope.HMAC, bits, nil
	case envelope.Pbkdf2Params, envelope.HkdfParams:
		return name, kdfKeyBits, nil
	case envelope.Name:
		switch name {
		case envelope.PBKDF2, envelope.HKDF:
			return name, kdfKeyBits, nil
		case envelope.ChaCha20Poly1305:
			return name, chachaKeySize * 8, nil
		case envelope.AESGCM, envelope.AESCBC, envelope.AESCTR, envelope.HMAC:
			return "", 0, fmt.Errorf("%w: %s target needs a length", envelope.ErrInvalidParameters, name)
		}
	}
	return "", 0, fmt.Errorf("%w: cannot derive %q keys", envelope.ErrUnsupportedAlgorithm, target.AlgorithmName())
}

func derivePBKDF2(base *key, p envelope.Pbkdf2Params, size int) ([]byte, error) {
	if p.Iterations <= 0 {
		return nil, fmt.Errorf("%w: PBKDF2 iterations must be positive, got %d", envelope.ErrInvalidParameters, p.Iterations)
	}
	_, h, err := hashFunc(p.Hash)
	if err != nil {
		return nil, err
	}

	var out []byte
	err = base.withSecret(func(password []byte) error {
		out = pbkdf2.Key(password, p.Salt, p.Iterations, size, h)
		return nil
	})
	return out, err
}

func deriveHKDF(base *key, p envelope.HkdfParams, size int) ([]byte, error) {
	_, h, err := hashFunc(p.Hash)
	if err != nil {
		return nil, err
	}

	out := make([]byte, size)
	err = base.withSecret(func(ikm []byte) error {
		if _, err := io.ReadFull(hkdf.New(h, ikm, p.Salt, p.Info), out); err != nil {
			return fmt.Errorf("%w: %v", envelope.ErrInvalidParameters, err)
		}
		return nil
	})
	if err != nil {
		clear(out)
		return nil, err
	}
	return out, nil
}

func deriveArgon2(base *key, p envelope.Argon2Params, size int) ([]byte, error) {
	if p.Time == 0 || p.Threads == 0 {
		return nil, fmt.Errorf("%w: Argon2id needs positive time and threads", envelope.ErrInvalidParameters)
	}
	if p.Memory < 8*uint32(p.Threads) {
		return nil, fmt.Errorf("%w: Argon2id memory %d KiB below 8 KiB per thread", envelope.ErrInvalidParameters, p.Memory)
	}

	var out []byte
	err := base.withSecret(func(password []byte) error {
		out = argon2.IDKey(password, p.Salt, p.Time, p.Memory, p.Threads, uint32(size))
		return nil
	})
	return out, err
}

func deriveX25519(base *key, p envelope.EcdhParams, size int) ([]byte, error) {
	if base.kind != kindPrivate {
		return nil, fmt.Errorf("%w: X25519 derivation needs a private base key", envelope.ErrInvalidUsage)
	}
	if p.Public == nil {
		return nil, fmt.Errorf("%w: X25519 derivation needs a peer public key", envelope.ErrInvalidParameters)
	}
	peer, err := own(p.Public)
	if err != nil {
		return nil, err
	}
	if peer.alg.Name != envelope.X25519 || len(peer.public) != x25519.Size {
		return nil, fmt.Errorf("%w: peer key is not an X25519 key", envelope.ErrInvalidParameters)
	}
	if size > x25519.Size {
		return nil, fmt.Errorf("%w: X25519 yields %d bits, %d requested", envelope.ErrInvalidParameters, x25519.Size*8, size*8)
	}

	var shared x25519.Key
	defer clear(shared[:])
	err = base.withSecret(func(scalar []byte) error {
		var priv, pub x25519.Key
		defer clear(priv[:])
		copy(priv[:], scalar)
		copy(pub[:], peer.public)
		if !x25519.Shared(&shared, &priv, &pub) {
			return fmt.Errorf("%w: low order X25519 public key", envelope.ErrInvalidKeyMaterial)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, shared[:size])
	return out, nil
}
