package software

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"github.com/rbaliyan/envelope"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	chachaKeySize = chacha20poly1305.KeySize
	gcmTagBits    = 128
)

// Encrypt encrypts plaintext under k.
//
// AES-GCM, AES-CBC, AES-CTR and ChaCha20-Poly1305 need their parameter
// structs; RSA-OAEP also accepts the bare name. The key must be bound to the
// same algorithm and permit encrypt.
func (e *Engine) Encrypt(ctx context.Context, alg envelope.CipherAlgorithm, k envelope.Key, plaintext []byte) ([]byte, error) {
	return e.transform(ctx, alg, k, plaintext, envelope.UsageEncrypt)
}

// Decrypt reverses Encrypt. Authentication and padding failures return
// envelope.ErrDecryptionFailed.
func (e *Engine) Decrypt(ctx context.Context, alg envelope.CipherAlgorithm, k envelope.Key, ciphertext []byte) ([]byte, error) {
	return e.transform(ctx, alg, k, ciphertext, envelope.UsageDecrypt)
}

func (e *Engine) transform(ctx context.Context, alg envelope.CipherAlgorithm, k envelope.Key, in []byte, usage envelope.Usage) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if alg == nil {
		return nil, fmt.Errorf("%w: cipher algorithm is nil", envelope.ErrInvalidArgument)
	}
	sk, err := own(k)
	if err != nil {
		return nil, err
	}

	name := canonical(alg.AlgorithmName())
	if sk.alg.Name != name {
		return nil, fmt.Errorf("%w: %s key cannot be used with %s", envelope.ErrInvalidUsage, sk.alg.Name, name)
	}
	if !sk.permits(usage) {
		return nil, fmt.Errorf("%w: key does not permit %s", envelope.ErrInvalidUsage, usage)
	}
	seal := usage == envelope.UsageEncrypt

	var out []byte
	switch p := alg.(type) {
	case envelope.AesGcmParams:
		err = sk.withSecret(func(secret []byte) error {
			out, err = aesGCM(secret, p, in, seal)
			return err
		})
	case envelope.AesCbcParams:
		err = sk.withSecret(func(secret []byte) error {
			out, err = aesCBC(secret, p, in, seal)
			return err
		})
	case envelope.AesCtrParams:
		err = sk.withSecret(func(secret []byte) error {
			out, err = aesCTR(secret, p, in)
			return err
		})
	case envelope.ChaCha20Poly1305Params:
		err = sk.withSecret(func(secret []byte) error {
			out, err = chacha(secret, p, in, seal)
			return err
		})
	case envelope.RsaOaepParams:
		out, err = e.rsaOAEP(sk, p.Label, in, seal)
	case envelope.Name:
		if name != envelope.RSAOAEP {
			return nil, fmt.Errorf("%w: %s needs its parameters", envelope.ErrInvalidParameters, name)
		}
		out, err = e.rsaOAEP(sk, nil, in, seal)
	default:
		return nil, fmt.Errorf("%w: cipher %T", envelope.ErrUnsupportedAlgorithm, alg)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func aesGCM(secret []byte, p envelope.AesGcmParams, in []byte, seal bool) ([]byte, error) {
	if p.TagLength != 0 && p.TagLength != gcmTagBits {
		return nil, fmt.Errorf("%w: AES-GCM tag length %d", envelope.ErrUnsupportedAlgorithm, p.TagLength)
	}
	if len(p.IV) == 0 {
		return nil, fmt.Errorf("%w: AES-GCM needs an IV", envelope.ErrInvalidParameters)
	}
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, len(p.IV))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidParameters, err)
	}
	return aeadTransform(aead, p.IV, p.AdditionalData, in, seal)
}

func chacha(secret []byte, p envelope.ChaCha20Poly1305Params, in []byte, seal bool) ([]byte, error) {
	var (
		aead cipher.AEAD
		err  error
	)
	switch len(p.Nonce) {
	case chacha20poly1305.NonceSize:
		aead, err = chacha20poly1305.New(secret)
	case chacha20poly1305.NonceSizeX:
		aead, err = chacha20poly1305.NewX(secret)
	default:
		return nil, fmt.Errorf("%w: ChaCha20-Poly1305 nonce of %d bytes", envelope.ErrInvalidParameters, len(p.Nonce))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
	}
	return aeadTransform(aead, p.Nonce, p.AdditionalData, in, seal)
}

func aeadTransform(aead cipher.AEAD, nonce, ad, in []byte, seal bool) ([]byte, error) {
	if seal {
		return aead.Seal(nil, nonce, in, ad), nil
	}
	if len(in) < aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", envelope.ErrDecryptionFailed)
	}
	out, err := aead.Open(nil, nonce, in, ad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", envelope.ErrDecryptionFailed, err)
	}
	return out, nil
}

func aesCBC(secret []byte, p envelope.AesCbcParams, in []byte, seal bool) ([]byte, error) {
	if len(p.IV) != aes.BlockSize {
		return nil, fmt.Errorf("%w: AES-CBC IV of %d bytes", envelope.ErrInvalidParameters, len(p.IV))
	}
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
	}

	if seal {
		pad := aes.BlockSize - len(in)%aes.BlockSize
		out := make([]byte, len(in)+pad)
		copy(out, in)
		copy(out[len(in):], bytes.Repeat([]byte{byte(pad)}, pad))
		cipher.NewCBCEncrypter(block, p.IV).CryptBlocks(out, out)
		return out, nil
	}

	if len(in) == 0 || len(in)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: AES-CBC ciphertext of %d bytes", envelope.ErrDecryptionFailed, len(in))
	}
	out := make([]byte, len(in))
	cipher.NewCBCDecrypter(block, p.IV).CryptBlocks(out, in)
	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, fmt.Errorf("%w: bad padding", envelope.ErrDecryptionFailed)
	}
	for _, b := range out[len(out)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("%w: bad padding", envelope.ErrDecryptionFailed)
		}
	}
	return out[:len(out)-pad], nil
}

// aesCTR runs AES in counter mode. Only the rightmost p.Length bits of the
// counter block are incremented; input that would wrap them is refused.
func aesCTR(secret []byte, p envelope.AesCtrParams, in []byte) ([]byte, error) {
	if len(p.Counter) != aes.BlockSize {
		return nil, fmt.Errorf("%w: AES-CTR counter of %d bytes", envelope.ErrInvalidParameters, len(p.Counter))
	}
	if p.Length < 1 || p.Length > aes.BlockSize*8 {
		return nil, fmt.Errorf("%w: AES-CTR counter length %d", envelope.ErrInvalidParameters, p.Length)
	}
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
	}

	blocks := (len(in) + aes.BlockSize - 1) / aes.BlockSize
	if p.Length < 63 && uint64(blocks) > uint64(1)<<p.Length {
		return nil, fmt.Errorf("%w: input exceeds the %d-bit counter", envelope.ErrInvalidParameters, p.Length)
	}

	ctr := bytes.Clone(p.Counter)
	stream := make([]byte, aes.BlockSize)
	out := make([]byte, len(in))
	for off := 0; off < len(in); off += aes.BlockSize {
		block.Encrypt(stream, ctr)
		end := min(off+aes.BlockSize, len(in))
		for i := off; i < end; i++ {
			out[i] = in[i] ^ stream[i-off]
		}
		incrementCounter(ctr, p.Length)
	}
	return out, nil
}

// incrementCounter adds one to the rightmost bits of ctr, wrapping within
// them and leaving the remaining bits untouched.
func incrementCounter(ctr []byte, bits int) {
	for i := len(ctr) - 1; i >= 0 && bits > 0; i-- {
		mask := byte(0xff)
		if bits < 8 {
			mask = byte(1<<bits) - 1
		}
		v := (ctr[i] & mask) + 1
		ctr[i] = ctr[i]&^mask | v&mask
		if v&mask != 0 {
			return
		}
		bits -= 8
	}
}

func (e *Engine) rsaOAEP(k *key, label, in []byte, seal bool) ([]byte, error) {
	_, h, err := hashFunc(k.alg.Hash)
	if err != nil {
		return nil, err
	}

	if seal {
		parsed, err := x509.ParsePKIXPublicKey(k.public)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
		}
		pub, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA public key", envelope.ErrInvalidKeyMaterial)
		}
		out, err := rsa.EncryptOAEP(h(), e.rand, pub, in, label)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidParameters, err)
		}
		return out, nil
	}

	var out []byte
	err = k.withSecret(func(der []byte) error {
		parsed, err := x509.ParsePKCS8PrivateKey(der)
		if err != nil {
			return fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
		}
		priv, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return fmt.Errorf("%w: not an RSA private key", envelope.ErrInvalidKeyMaterial)
		}
		if out, err = rsa.DecryptOAEP(h(), nil, priv, in, label); err != nil {
			return fmt.Errorf("%w: %v", envelope.ErrDecryptionFailed, err)
		}
		return nil
	})
	return out, err
}
