package envelope

// Name identifies an algorithm by name only, with no parameters.
// It is legal in every descriptor family; engines fill defaults for it or
// reject it when the algorithm requires parameters.
type Name string

// Algorithm names understood by the software engine.
const (
	PBKDF2           Name = "PBKDF2"
	HKDF             Name = "HKDF"
	Argon2id         Name = "Argon2id"
	X25519           Name = "X25519"
	AESGCM           Name = "AES-GCM"
	AESCBC           Name = "AES-CBC"
	AESCTR           Name = "AES-CTR"
	ChaCha20Poly1305 Name = "ChaCha20-Poly1305"
	RSAOAEP          Name = "RSA-OAEP"
	HMAC             Name = "HMAC"

	SHA1       Name = "SHA-1"
	SHA256     Name = "SHA-256"
	SHA384     Name = "SHA-384"
	SHA512     Name = "SHA-512"
	SHA3_256   Name = "SHA3-256"
	SHA3_384   Name = "SHA3-384"
	SHA3_512   Name = "SHA3-512"
	BLAKE2b256 Name = "BLAKE2b-256"
	BLAKE2b512 Name = "BLAKE2b-512"
)

// Algorithm is implemented by every descriptor.
type Algorithm interface {
	AlgorithmName() Name
}

// ImportAlgorithm describes how raw material is interpreted on import.
type ImportAlgorithm interface {
	Algorithm
	importAlgorithm()
}

// DeriveAlgorithm describes how a base key is stretched.
type DeriveAlgorithm interface {
	Algorithm
	DeriveInput
	deriveAlgorithm()
}

// DerivedKeyAlgorithm describes what the derived key will be used for.
type DerivedKeyAlgorithm interface {
	Algorithm
	TargetInput
	derivedKeyAlgorithm()
}

// CipherAlgorithm describes how data is transformed on encrypt and decrypt.
type CipherAlgorithm interface {
	Algorithm
	CipherInput
	cipherAlgorithm()
}

// DigestAlgorithm names a hash function.
type DigestAlgorithm interface {
	Algorithm
	digestAlgorithm()
}

// AlgorithmName returns n.
func (n Name) AlgorithmName() Name { return n }

func (Name) importAlgorithm()     {}
func (Name) deriveAlgorithm()     {}
func (Name) deriveInput()         {}
func (Name) derivedKeyAlgorithm() {}
func (Name) targetInput()         {}
func (Name) cipherAlgorithm()     {}
func (Name) cipherInput()         {}
func (Name) digestAlgorithm()     {}

// Pbkdf2Params stretches a password-like base key with PBKDF2.
// As a derived key target it yields a new PBKDF2 base key.
type Pbkdf2Params struct {
	Hash       Name
	Salt       []byte
	Iterations int
}

func (Pbkdf2Params) AlgorithmName() Name  { return PBKDF2 }
func (Pbkdf2Params) deriveAlgorithm()     {}
func (Pbkdf2Params) deriveInput()         {}
func (Pbkdf2Params) derivedKeyAlgorithm() {}
func (Pbkdf2Params) targetInput()         {}

// HkdfParams expands a high-entropy base key with HKDF.
// As a derived key target it yields a new HKDF base key.
type HkdfParams struct {
	Hash Name
	Salt []byte
	Info []byte
}

func (HkdfParams) AlgorithmName() Name  { return HKDF }
func (HkdfParams) deriveAlgorithm()     {}
func (HkdfParams) deriveInput()         {}
func (HkdfParams) derivedKeyAlgorithm() {}
func (HkdfParams) targetInput()         {}

// Argon2Params stretches a password-like base key with Argon2id.
// Memory is in KiB.
type Argon2Params struct {
	Salt    []byte
	Time    uint32
	Memory  uint32
	Threads uint8
}

func (Argon2Params) AlgorithmName() Name { return Argon2id }
func (Argon2Params) deriveAlgorithm()    {}
func (Argon2Params) deriveInput()        {}

// EcdhParams agrees on a shared secret between the base key (a private key)
// and Public, the peer's public key.
type EcdhParams struct {
	Public Key
}

func (EcdhParams) AlgorithmName() Name { return X25519 }
func (EcdhParams) deriveAlgorithm()    {}
func (EcdhParams) deriveInput()        {}

// AesKeyParams names an AES variant and its key length in bits.
// On import the length is taken from the material.
type AesKeyParams struct {
	Name   Name
	Length int
}

func (p AesKeyParams) AlgorithmName() Name { return p.Name }
func (AesKeyParams) importAlgorithm()      {}
func (AesKeyParams) derivedKeyAlgorithm()  {}
func (AesKeyParams) targetInput()          {}

// HmacImportParams describes an HMAC key. Length is in bits; zero means the
// block size of Hash.
type HmacImportParams struct {
	Hash   Name
	Length int
}

func (HmacImportParams) AlgorithmName() Name  { return HMAC }
func (HmacImportParams) importAlgorithm()     {}
func (HmacImportParams) derivedKeyAlgorithm() {}
func (HmacImportParams) targetInput()         {}

// RsaHashedImportParams imports an RSA key bound to Hash.
type RsaHashedImportParams struct {
	Name Name
	Hash Name
}

func (p RsaHashedImportParams) AlgorithmName() Name { return p.Name }
func (RsaHashedImportParams) importAlgorithm()      {}

// AesGcmParams encrypts with AES-GCM. IV must be unique per key.
// TagLength is in bits; zero means 128.
type AesGcmParams struct {
	IV             []byte
	AdditionalData []byte
	TagLength      int
}

func (AesGcmParams) AlgorithmName() Name { return AESGCM }
func (AesGcmParams) cipherAlgorithm()    {}
func (AesGcmParams) cipherInput()        {}
func (p AesGcmParams) nonce() []byte     { return p.IV }

// AesCbcParams encrypts with AES-CBC and PKCS#7 padding. It is not
// authenticated.
type AesCbcParams struct {
	IV []byte
}

func (AesCbcParams) AlgorithmName() Name { return AESCBC }
func (AesCbcParams) cipherAlgorithm()    {}
func (AesCbcParams) cipherInput()        {}
func (p AesCbcParams) nonce() []byte     { return p.IV }

// AesCtrParams encrypts with AES-CTR. Counter is the initial 16-byte counter
// block; Length is the number of its rightmost bits used as the counter.
type AesCtrParams struct {
	Counter []byte
	Length  int
}

func (AesCtrParams) AlgorithmName() Name { return AESCTR }
func (AesCtrParams) cipherAlgorithm()    {}
func (AesCtrParams) cipherInput()        {}

// ChaCha20Poly1305Params encrypts with ChaCha20-Poly1305 (12-byte nonce) or
// XChaCha20-Poly1305 (24-byte nonce).
type ChaCha20Poly1305Params struct {
	Nonce          []byte
	AdditionalData []byte
}

func (ChaCha20Poly1305Params) AlgorithmName() Name { return ChaCha20Poly1305 }
func (ChaCha20Poly1305Params) cipherAlgorithm()    {}
func (ChaCha20Poly1305Params) cipherInput()        {}
func (p ChaCha20Poly1305Params) nonce() []byte     { return p.Nonce }

// RsaOaepParams encrypts with RSA-OAEP using the hash bound to the key.
type RsaOaepParams struct {
	Label []byte
}

func (RsaOaepParams) AlgorithmName() Name { return RSAOAEP }
func (RsaOaepParams) cipherAlgorithm()    {}
func (RsaOaepParams) cipherInput()        {}

// nonceCarrier is implemented by cipher descriptors that carry an IV.
type nonceCarrier interface {
	nonce() []byte
}

// NonceOf returns the IV carried by alg, or nil when the descriptor has none.
func NonceOf(alg CipherAlgorithm) []byte {
	if c, ok := alg.(nonceCarrier); ok {
		return c.nonce()
	}
	return nil
}
