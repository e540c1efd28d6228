package software

import (
	"fmt"
	"slices"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
	"github.com/rbaliyan/envelope"
)

type keyKind int

const (
	kindSecret keyKind = iota
	kindPrivate
	kindPublic
)

// key is the software engine's key handle.
type key struct {
	id          string
	alg         envelope.KeyAlgorithm
	kind        keyKind
	extractable bool
	usages      []envelope.Usage

	// sealed holds secret bytes, an X25519 scalar or a PKCS#8 RSA key.
	// It is nil when the material is empty.
	sealed *memguard.Enclave

	// public holds the X25519 public key or the PKIX-encoded RSA public key.
	public []byte
}

// Compile-time interface check.
var _ envelope.Key = (*key)(nil)

// newKey seals material in an enclave. material is copied first so the
// caller's buffer is left intact.
func newKey(alg envelope.KeyAlgorithm, kind keyKind, material []byte, extractable bool, usages []envelope.Usage) *key {
	k := &key{
		id:          uuid.NewString(),
		alg:         alg,
		kind:        kind,
		extractable: extractable,
		usages:      slices.Clone(usages),
	}
	if len(material) > 0 {
		// NewEnclave wipes its input.
		k.sealed = memguard.NewEnclave(slices.Clone(material))
	}
	return k
}

func (k *key) ID() string                       { return k.id }
func (k *key) Algorithm() envelope.KeyAlgorithm { return k.alg }
func (k *key) Extractable() bool                { return k.extractable }
func (k *key) Usages() []envelope.Usage         { return slices.Clone(k.usages) }

func (k *key) String() string {
	return fmt.Sprintf("key(%s %s %v)", k.id, k.alg.Name, k.usages)
}

// withSecret opens the enclave for the duration of fn. The slice passed to fn
// is destroyed when fn returns and must not be retained.
func (k *key) withSecret(fn func(secret []byte) error) error {
	if k.sealed == nil {
		return fn(nil)
	}
	buf, err := k.sealed.Open()
	if err != nil {
		return fmt.Errorf("software: failed to open key enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

func (k *key) permits(u envelope.Usage) bool {
	return slices.Contains(k.usages, u)
}

// allowedUsages lists the usages legal for each algorithm and key kind.
func allowedUsages(name envelope.Name, kind keyKind) []envelope.Usage {
	switch name {
	case envelope.PBKDF2, envelope.HKDF, envelope.Argon2id:
		return []envelope.Usage{envelope.UsageDeriveKey, envelope.UsageDeriveBits}
	case envelope.AESGCM, envelope.AESCBC, envelope.AESCTR, envelope.ChaCha20Poly1305:
		return []envelope.Usage{envelope.UsageEncrypt, envelope.UsageDecrypt, envelope.UsageWrapKey, envelope.UsageUnwrapKey}
	case envelope.HMAC:
		return []envelope.Usage{envelope.UsageSign, envelope.UsageVerify}
	case envelope.X25519:
		if kind == kindPrivate {
			return []envelope.Usage{envelope.UsageDeriveKey, envelope.UsageDeriveBits}
		}
		return nil
	case envelope.RSAOAEP:
		if kind == kindPrivate {
			return []envelope.Usage{envelope.UsageDecrypt, envelope.UsageUnwrapKey}
		}
		return []envelope.Usage{envelope.UsageEncrypt, envelope.UsageWrapKey}
	}
	return nil
}

// checkUsages validates a requested usage set for a new key.
// Secret and private keys need at least one usage.
func checkUsages(name envelope.Name, kind keyKind, usages []envelope.Usage) error {
	allowed := allowedUsages(name, kind)
	for _, u := range usages {
		if !slices.Contains(allowed, u) {
			return fmt.Errorf("%w: %q is not a usage of %s keys", envelope.ErrInvalidUsage, u, name)
		}
	}
	if len(usages) == 0 && kind != kindPublic {
		return fmt.Errorf("%w: %s keys need at least one usage", envelope.ErrInvalidUsage, name)
	}
	return nil
}
