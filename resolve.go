package envelope

import "fmt"

// Secret is raw secret material for ImportBaseKey: Text (a password),
// Binary, or *JSONWebKey.
type Secret interface {
	secret()
}

func (Text) secret()   {}
func (Binary) secret() {}

// DeriveInput is the second argument of DeriveKey: a Salt for the default
// PBKDF2 stretching, or a full DeriveAlgorithm.
type DeriveInput interface {
	deriveInput()
}

// TargetInput is the third argument of DeriveKey: an Iterations count for the
// default PBKDF2 stretching (the target is then the default cipher), or a full
// DerivedKeyAlgorithm.
type TargetInput interface {
	targetInput()
}

// CipherInput is the last argument of Decrypt: the Nonce returned by Encrypt
// for the default cipher, or the full CipherAlgorithm used to encrypt.
type CipherInput interface {
	cipherInput()
}

// Salt diversifies PBKDF2 output for identical secrets.
type Salt []byte

func (Salt) deriveInput() {}

// Iterations is a PBKDF2 iteration count.
type Iterations int

func (Iterations) targetInput() {}

// Nonce is the IV of a default AES-GCM encryption.
type Nonce []byte

func (Nonce) cipherInput() {}

// resolveImport picks the key format and coerces the secret into engine material.
func resolveImport(s Secret, format KeyFormat) (KeyFormat, KeyMaterial, error) {
	switch v := s.(type) {
	case *JSONWebKey:
		if v == nil {
			return "", nil, fmt.Errorf("%w: nil JSON web key", ErrInvalidArgument)
		}
		return FormatJWK, v, nil
	case Text:
		return rawFormat(format), Binary(v), nil
	case Binary:
		return rawFormat(format), v, nil
	case nil:
		return "", nil, fmt.Errorf("%w: secret is nil", ErrInvalidArgument)
	}
	return "", nil, fmt.Errorf("%w: unknown secret type %T", ErrInvalidArgument, s)
}

// rawFormat applies the raw default to binary secrets. Any explicit format is
// passed through; the engine rejects material it cannot describe.
func rawFormat(format KeyFormat) KeyFormat {
	if format == "" {
		return FormatRaw
	}
	return format
}

// resolveDerive turns the DeriveKey arguments into the stretching descriptor.
func (c *config) resolveDerive(in DeriveInput, target TargetInput) (DeriveAlgorithm, error) {
	switch v := in.(type) {
	case Salt:
		iterations := c.iterations
		if n, ok := target.(Iterations); ok {
			iterations = int(n)
		}
		return Pbkdf2Params{
			Hash:       c.hash,
			Salt:       v,
			Iterations: iterations,
		}, nil
	case DeriveAlgorithm:
		return v, nil
	case nil:
		return nil, fmt.Errorf("%w: derive algorithm or salt is nil", ErrInvalidArgument)
	}
	return nil, fmt.Errorf("%w: unknown derive input %T", ErrInvalidArgument, in)
}

// resolveTarget turns the third DeriveKey argument into the derived key descriptor.
func (c *config) resolveTarget(target TargetInput) (DerivedKeyAlgorithm, error) {
	switch v := target.(type) {
	case Iterations, nil:
		return AesKeyParams{Name: c.cipher, Length: c.keyLength}, nil
	case DerivedKeyAlgorithm:
		return v, nil
	}
	return nil, fmt.Errorf("%w: unknown derive target %T", ErrInvalidArgument, target)
}

// resolveCipher turns the Decrypt argument into a cipher descriptor. A nonce is
// wrapped as the IV of the default AES-GCM descriptor.
func resolveCipher(in CipherInput) (CipherAlgorithm, error) {
	switch v := in.(type) {
	case Nonce:
		return AesGcmParams{IV: v}, nil
	case CipherAlgorithm:
		return v, nil
	case nil:
		return nil, fmt.Errorf("%w: nonce or cipher algorithm is required to decrypt", ErrInvalidArgument)
	}
	return nil, fmt.Errorf("%w: unknown cipher input %T", ErrInvalidArgument, in)
}
