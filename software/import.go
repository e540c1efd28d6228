package software

import (
	"context"
	"crypto/ecdh"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"math/big"
	"slices"

	"github.com/cloudflare/circl/dh/x25519"
	"github.com/rbaliyan/envelope"
)

// ImportKey wraps material into a key handle.
//
// Supported combinations:
//   - raw or jwk (kty "oct"): PBKDF2, HKDF, Argon2id, AES-GCM, AES-CBC,
//     AES-CTR, ChaCha20-Poly1305, HMAC.
//   - raw (public only), spki, pkcs8 or jwk (kty "OKP", crv "X25519"): X25519.
//   - spki, pkcs8 or jwk (kty "RSA"): RSA-OAEP, bound to the hash of
//     RsaHashedImportParams.
func (e *Engine) ImportKey(ctx context.Context, format envelope.KeyFormat, material envelope.KeyMaterial, alg envelope.ImportAlgorithm, extractable bool, usages []envelope.Usage) (envelope.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if alg == nil {
		return nil, fmt.Errorf("%w: import algorithm is nil", envelope.ErrInvalidArgument)
	}
	if jwk, ok := material.(*envelope.JSONWebKey); ok {
		if err := checkJWK(jwk, extractable, usages); err != nil {
			return nil, err
		}
	}

	name := canonical(alg.AlgorithmName())
	switch name {
	case envelope.PBKDF2, envelope.HKDF, envelope.Argon2id, envelope.AESGCM,
		envelope.AESCBC, envelope.AESCTR, envelope.ChaCha20Poly1305, envelope.HMAC:
		secret, err := secretMaterial(format, material)
		if err != nil {
			return nil, err
		}
		return importSecret(alg, name, secret, extractable, usages)
	case envelope.X25519:
		return importX25519(format, material, extractable, usages)
	case envelope.RSAOAEP:
		return importRSA(alg, format, material, extractable, usages)
	}
	return nil, fmt.Errorf("%w: cannot import %q keys", envelope.ErrUnsupportedAlgorithm, alg.AlgorithmName())
}

// importSecret builds a symmetric key handle. It is shared by ImportKey and
// DeriveKey, which imports the derived bits the same way.
func importSecret(alg envelope.Algorithm, name envelope.Name, secret []byte, extractable bool, usages []envelope.Usage) (*key, error) {
	if err := checkUsages(name, kindSecret, usages); err != nil {
		return nil, err
	}

	ka := envelope.KeyAlgorithm{Name: name}
	switch name {
	case envelope.PBKDF2, envelope.HKDF, envelope.Argon2id:
		if extractable {
			return nil, fmt.Errorf("%w: %s keys cannot be extractable", envelope.ErrInvalidArgument, name)
		}
	case envelope.AESGCM, envelope.AESCBC, envelope.AESCTR:
		switch len(secret) {
		case 16, 24, 32:
		default:
			return nil, fmt.Errorf("%w: AES key of %d bytes", envelope.ErrInvalidKeyMaterial, len(secret))
		}
		ka.Length = len(secret) * 8
	case envelope.ChaCha20Poly1305:
		if len(secret) != chachaKeySize {
			return nil, fmt.Errorf("%w: ChaCha20-Poly1305 key of %d bytes", envelope.ErrInvalidKeyMaterial, len(secret))
		}
		ka.Length = chachaKeySize * 8
	case envelope.HMAC:
		p, ok := alg.(envelope.HmacImportParams)
		if !ok {
			return nil, fmt.Errorf("%w: HMAC requires HmacImportParams with a hash", envelope.ErrInvalidParameters)
		}
		hashName, _, err := hashFunc(p.Hash)
		if err != nil {
			return nil, err
		}
		if len(secret) == 0 {
			return nil, fmt.Errorf("%w: empty HMAC key", envelope.ErrInvalidKeyMaterial)
		}
		if p.Length != 0 && p.Length != len(secret)*8 {
			return nil, fmt.Errorf("%w: HMAC length %d does not match %d-bit key", envelope.ErrInvalidKeyMaterial, p.Length, len(secret)*8)
		}
		ka.Hash = hashName
		ka.Length = len(secret) * 8
	}

	return newKey(ka, kindSecret, secret, extractable, usages), nil
}

// secretMaterial extracts symmetric key bytes from raw or oct JWK material.
func secretMaterial(format envelope.KeyFormat, material envelope.KeyMaterial) ([]byte, error) {
	switch format {
	case envelope.FormatRaw:
		b, ok := material.(envelope.Binary)
		if !ok {
			return nil, fmt.Errorf("%w: raw format needs binary material, got %T", envelope.ErrInvalidKeyMaterial, material)
		}
		return b, nil
	case envelope.FormatJWK:
		jwk, ok := material.(*envelope.JSONWebKey)
		if !ok || jwk == nil {
			return nil, fmt.Errorf("%w: jwk format needs a JSON web key, got %T", envelope.ErrInvalidKeyMaterial, material)
		}
		if jwk.Kty != "oct" {
			return nil, fmt.Errorf("%w: secret keys need kty \"oct\", got %q", envelope.ErrInvalidKeyMaterial, jwk.Kty)
		}
		return decodeMember("k", jwk.K)
	}
	return nil, fmt.Errorf("%w: %s format for secret keys", envelope.ErrUnsupportedAlgorithm, format)
}

func importX25519(format envelope.KeyFormat, material envelope.KeyMaterial, extractable bool, usages []envelope.Usage) (*key, error) {
	var (
		kind   keyKind
		scalar []byte
		public []byte
	)

	switch format {
	case envelope.FormatRaw:
		b, ok := material.(envelope.Binary)
		if !ok {
			return nil, fmt.Errorf("%w: raw format needs binary material, got %T", envelope.ErrInvalidKeyMaterial, material)
		}
		kind, public = kindPublic, b
	case envelope.FormatSPKI, envelope.FormatPKCS8:
		b, ok := material.(envelope.Binary)
		if !ok {
			return nil, fmt.Errorf("%w: %s format needs binary material, got %T", envelope.ErrInvalidKeyMaterial, format, material)
		}
		var err error
		kind, scalar, public, err = parseX25519DER(format, b)
		if err != nil {
			return nil, err
		}
	case envelope.FormatJWK:
		jwk, ok := material.(*envelope.JSONWebKey)
		if !ok || jwk == nil {
			return nil, fmt.Errorf("%w: jwk format needs a JSON web key, got %T", envelope.ErrInvalidKeyMaterial, material)
		}
		if jwk.Kty != "OKP" || jwk.Crv != "X25519" {
			return nil, fmt.Errorf("%w: X25519 keys need kty \"OKP\" and crv \"X25519\"", envelope.ErrInvalidKeyMaterial)
		}
		var err error
		if public, err = decodeMember("x", jwk.X); err != nil {
			return nil, err
		}
		kind = kindPublic
		if jwk.D != "" {
			if scalar, err = decodeMember("d", jwk.D); err != nil {
				return nil, err
			}
			kind = kindPrivate
		}
	default:
		return nil, fmt.Errorf("%w: %s format for X25519 keys", envelope.ErrUnsupportedAlgorithm, format)
	}

	if len(public) != x25519.Size {
		return nil, fmt.Errorf("%w: X25519 public key of %d bytes", envelope.ErrInvalidKeyMaterial, len(public))
	}
	if kind == kindPrivate {
		if len(scalar) != x25519.Size {
			return nil, fmt.Errorf("%w: X25519 private key of %d bytes", envelope.ErrInvalidKeyMaterial, len(scalar))
		}
		var priv, pub x25519.Key
		copy(priv[:], scalar)
		x25519.KeyGen(&pub, &priv)
		clear(priv[:])
		if !slices.Equal(pub[:], public) {
			return nil, fmt.Errorf("%w: X25519 public key does not match private key", envelope.ErrInvalidKeyMaterial)
		}
	}

	if err := checkUsages(envelope.X25519, kind, usages); err != nil {
		return nil, err
	}
	k := newKey(envelope.KeyAlgorithm{Name: envelope.X25519}, kind, scalar, extractable, usages)
	k.public = slices.Clone(public)
	return k, nil
}

// parseX25519DER reads an X25519 key from PKIX or PKCS#8 DER.
func parseX25519DER(format envelope.KeyFormat, der []byte) (keyKind, []byte, []byte, error) {
	if format == envelope.FormatSPKI {
		pub, err := x509.ParsePKIXPublicKey(der)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
		}
		ep, ok := pub.(*ecdh.PublicKey)
		if !ok || ep.Curve() != ecdh.X25519() {
			return 0, nil, nil, fmt.Errorf("%w: not an X25519 public key", envelope.ErrInvalidKeyMaterial)
		}
		return kindPublic, nil, ep.Bytes(), nil
	}

	priv, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
	}
	ep, ok := priv.(*ecdh.PrivateKey)
	if !ok || ep.Curve() != ecdh.X25519() {
		return 0, nil, nil, fmt.Errorf("%w: not an X25519 private key", envelope.ErrInvalidKeyMaterial)
	}
	return kindPrivate, ep.Bytes(), ep.PublicKey().Bytes(), nil
}

func importRSA(alg envelope.ImportAlgorithm, format envelope.KeyFormat, material envelope.KeyMaterial, extractable bool, usages []envelope.Usage) (*key, error) {
	p, ok := alg.(envelope.RsaHashedImportParams)
	if !ok {
		return nil, fmt.Errorf("%w: RSA-OAEP requires RsaHashedImportParams with a hash", envelope.ErrInvalidParameters)
	}
	hashName, _, err := hashFunc(p.Hash)
	if err != nil {
		return nil, err
	}

	var (
		pub  *rsa.PublicKey
		priv *rsa.PrivateKey
	)
	switch format {
	case envelope.FormatSPKI, envelope.FormatPKCS8:
		der, ok := material.(envelope.Binary)
		if !ok {
			return nil, fmt.Errorf("%w: %s format needs binary material, got %T", envelope.ErrInvalidKeyMaterial, format, material)
		}
		if format == envelope.FormatSPKI {
			parsed, err := x509.ParsePKIXPublicKey(der)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
			}
			if pub, ok = parsed.(*rsa.PublicKey); !ok {
				return nil, fmt.Errorf("%w: not an RSA public key", envelope.ErrInvalidKeyMaterial)
			}
		} else {
			parsed, err := x509.ParsePKCS8PrivateKey(der)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
			}
			if priv, ok = parsed.(*rsa.PrivateKey); !ok {
				return nil, fmt.Errorf("%w: not an RSA private key", envelope.ErrInvalidKeyMaterial)
			}
		}
	case envelope.FormatJWK:
		jwk, ok := material.(*envelope.JSONWebKey)
		if !ok || jwk == nil {
			return nil, fmt.Errorf("%w: jwk format needs a JSON web key, got %T", envelope.ErrInvalidKeyMaterial, material)
		}
		if pub, priv, err = rsaFromJWK(jwk); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s format for RSA keys", envelope.ErrUnsupportedAlgorithm, format)
	}

	kind := kindPublic
	if priv != nil {
		kind = kindPrivate
		pub = &priv.PublicKey
	}
	if err := checkUsages(envelope.RSAOAEP, kind, usages); err != nil {
		return nil, err
	}

	ka := envelope.KeyAlgorithm{Name: envelope.RSAOAEP, Length: pub.N.BitLen(), Hash: hashName}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
	}

	var sealed []byte
	if priv != nil {
		if sealed, err = x509.MarshalPKCS8PrivateKey(priv); err != nil {
			return nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
		}
	}
	k := newKey(ka, kind, sealed, extractable, usages)
	clear(sealed)
	k.public = pubDER
	return k, nil
}

func rsaFromJWK(jwk *envelope.JSONWebKey) (*rsa.PublicKey, *rsa.PrivateKey, error) {
	if jwk.Kty != "RSA" {
		return nil, nil, fmt.Errorf("%w: RSA keys need kty \"RSA\", got %q", envelope.ErrInvalidKeyMaterial, jwk.Kty)
	}
	n, err := decodeInt("n", jwk.N)
	if err != nil {
		return nil, nil, err
	}
	e, err := decodeInt("e", jwk.E)
	if err != nil {
		return nil, nil, err
	}
	if !e.IsInt64() || e.Int64() > 1<<31-1 {
		return nil, nil, fmt.Errorf("%w: RSA exponent too large", envelope.ErrInvalidKeyMaterial)
	}
	pub := &rsa.PublicKey{N: n, E: int(e.Int64())}
	if jwk.D == "" {
		return pub, nil, nil
	}

	priv := &rsa.PrivateKey{PublicKey: *pub}
	if priv.D, err = decodeInt("d", jwk.D); err != nil {
		return nil, nil, err
	}
	p, err := decodeInt("p", jwk.P)
	if err != nil {
		return nil, nil, err
	}
	q, err := decodeInt("q", jwk.Q)
	if err != nil {
		return nil, nil, err
	}
	priv.Primes = []*big.Int{p, q}
	if err := priv.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", envelope.ErrInvalidKeyMaterial, err)
	}
	priv.Precompute()
	return pub, priv, nil
}

// checkJWK applies the constraints a JWK places on its own import.
func checkJWK(jwk *envelope.JSONWebKey, extractable bool, usages []envelope.Usage) error {
	if jwk == nil {
		return fmt.Errorf("%w: nil JSON web key", envelope.ErrInvalidKeyMaterial)
	}
	if jwk.Ext != nil && !*jwk.Ext && extractable {
		return fmt.Errorf("%w: JWK is not extractable", envelope.ErrInvalidKeyMaterial)
	}
	if len(jwk.KeyOps) > 0 {
		for _, u := range usages {
			if !slices.Contains(jwk.KeyOps, string(u)) {
				return fmt.Errorf("%w: %q not in JWK key_ops", envelope.ErrInvalidUsage, u)
			}
		}
	}
	return nil
}

func decodeMember(name, v string) ([]byte, error) {
	if v == "" {
		return nil, fmt.Errorf("%w: JWK member %q is missing", envelope.ErrInvalidKeyMaterial, name)
	}
	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: JWK member %q: %v", envelope.ErrInvalidKeyMaterial, name, err)
	}
	return b, nil
}

func decodeInt(name, v string) (*big.Int, error) {
	b, err := decodeMember(name, v)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
