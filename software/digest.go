package software

import (
	"context"
	"crypto/sha1" //nolint:gosec // SHA-1 digests remain available on request
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"github.com/rbaliyan/envelope"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

func blake2b256() hash.Hash {
	h, _ := blake2b.New256(nil) // only fails for keys over 64 bytes
	return h
}

func blake2b512() hash.Hash {
	h, _ := blake2b.New512(nil)
	return h
}

var hashes = map[envelope.Name]func() hash.Hash{
	envelope.SHA1:       sha1.New,
	envelope.SHA256:     sha256.New,
	envelope.SHA384:     sha512.New384,
	envelope.SHA512:     sha512.New,
	envelope.SHA3_256:   sha3.New256,
	envelope.SHA3_384:   sha3.New384,
	envelope.SHA3_512:   sha3.New512,
	envelope.BLAKE2b256: blake2b256,
	envelope.BLAKE2b512: blake2b512,
}

var knownNames = []envelope.Name{
	envelope.PBKDF2, envelope.HKDF, envelope.Argon2id, envelope.X25519,
	envelope.AESGCM, envelope.AESCBC, envelope.AESCTR,
	envelope.ChaCha20Poly1305, envelope.RSAOAEP, envelope.HMAC,
	envelope.SHA1, envelope.SHA256, envelope.SHA384, envelope.SHA512,
	envelope.SHA3_256, envelope.SHA3_384, envelope.SHA3_512,
	envelope.BLAKE2b256, envelope.BLAKE2b512,
}

// canonical matches algorithm names case-insensitively.
func canonical(n envelope.Name) envelope.Name {
	for _, known := range knownNames {
		if strings.EqualFold(string(n), string(known)) {
			return known
		}
	}
	return n
}

// hashFunc returns the constructor for the named hash.
func hashFunc(n envelope.Name) (envelope.Name, func() hash.Hash, error) {
	if n == "" {
		return "", nil, fmt.Errorf("%w: hash is required", envelope.ErrInvalidParameters)
	}
	name := canonical(n)
	h, ok := hashes[name]
	if !ok {
		return "", nil, fmt.Errorf("%w: hash %q", envelope.ErrUnsupportedAlgorithm, n)
	}
	return name, h, nil
}

// Digest hashes data with the named algorithm.
func (e *Engine) Digest(ctx context.Context, alg envelope.DigestAlgorithm, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if alg == nil {
		return nil, fmt.Errorf("%w: digest algorithm is nil", envelope.ErrInvalidArgument)
	}

	_, newHash, err := hashFunc(alg.AlgorithmName())
	if err != nil {
		return nil, err
	}
	h := newHash()
	h.Write(data)
	return h.Sum(nil), nil
}
