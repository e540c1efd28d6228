package envelope

import (
	"context"
	"slices"
)

// Engine performs the cryptographic primitives. Envelope never inspects key
// material; it resolves descriptors and delegates every transform to an Engine.
//
// Engine errors are authoritative: Envelope returns them unchanged.
// Implementations must be safe for concurrent use.
type Engine interface {
	// ImportKey wraps material into a key handle bound to alg.
	ImportKey(ctx context.Context, format KeyFormat, material KeyMaterial, alg ImportAlgorithm, extractable bool, usages []Usage) (Key, error)

	// DeriveKey stretches base into a new key usable as target.
	DeriveKey(ctx context.Context, alg DeriveAlgorithm, base Key, target DerivedKeyAlgorithm, extractable bool, usages []Usage) (Key, error)

	// Encrypt transforms plaintext under key.
	Encrypt(ctx context.Context, alg CipherAlgorithm, key Key, plaintext []byte) ([]byte, error)

	// Decrypt reverses Encrypt. Authentication failures return ErrDecryptionFailed.
	Decrypt(ctx context.Context, alg CipherAlgorithm, key Key, ciphertext []byte) ([]byte, error)

	// Digest hashes data.
	Digest(ctx context.Context, alg DigestAlgorithm, data []byte) ([]byte, error)

	// RandomBytes returns size bytes from a cryptographically secure source.
	RandomBytes(ctx context.Context, size int) ([]byte, error)
}

// Key is an opaque handle to key material held by an Engine.
// Handles are immutable; dropping the last reference releases them.
type Key interface {
	// ID identifies the handle in logs and traces. It is not a lookup key.
	ID() string

	// Algorithm reports the algorithm the key is bound to.
	Algorithm() KeyAlgorithm

	// Extractable reports whether the material may leave the engine.
	// It is false for every key created through Envelope.
	Extractable() bool

	// Usages lists the operations the key permits.
	Usages() []Usage
}

// KeyAlgorithm describes the algorithm a key handle is bound to.
// Length is in bits and zero when not applicable; Hash is empty when the
// algorithm is not hash-bound.
type KeyAlgorithm struct {
	Name   Name
	Length int
	Hash   Name
}

// Usage is an operation a key permits.
type Usage string

// Key usages.
const (
	UsageEncrypt    Usage = "encrypt"
	UsageDecrypt    Usage = "decrypt"
	UsageDeriveKey  Usage = "deriveKey"
	UsageDeriveBits Usage = "deriveBits"
	UsageWrapKey    Usage = "wrapKey"
	UsageUnwrapKey  Usage = "unwrapKey"
	UsageSign       Usage = "sign"
	UsageVerify     Usage = "verify"
)

// HasUsage reports whether k permits u.
func HasUsage(k Key, u Usage) bool {
	return k != nil && slices.Contains(k.Usages(), u)
}

// KeyFormat is the encoding of imported key material.
type KeyFormat string

// Key formats.
const (
	FormatRaw   KeyFormat = "raw"
	FormatJWK   KeyFormat = "jwk"
	FormatSPKI  KeyFormat = "spki"
	FormatPKCS8 KeyFormat = "pkcs8"
)

// KeyMaterial is what an Engine imports: Binary for raw, spki and pkcs8
// formats, *JSONWebKey for jwk.
type KeyMaterial interface {
	keyMaterial()
}

func (Binary) keyMaterial() {}

// JSONWebKey is structured key material (RFC 7517). Binary members are
// base64url encoded without padding, as in the JSON form.
type JSONWebKey struct {
	Kty    string   `json:"kty"`
	Alg    string   `json:"alg,omitempty"`
	Use    string   `json:"use,omitempty"`
	KeyOps []string `json:"key_ops,omitempty"`
	Ext    *bool    `json:"ext,omitempty"`

	// oct
	K string `json:"k,omitempty"`

	// OKP
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`

	// RSA; D is also the OKP private scalar.
	N  string `json:"n,omitempty"`
	E  string `json:"e,omitempty"`
	D  string `json:"d,omitempty"`
	P  string `json:"p,omitempty"`
	Q  string `json:"q,omitempty"`
	DP string `json:"dp,omitempty"`
	DQ string `json:"dq,omitempty"`
	QI string `json:"qi,omitempty"`
}

func (*JSONWebKey) keyMaterial() {}
func (*JSONWebKey) secret()      {}
