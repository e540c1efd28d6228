package envelope_test

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/rbaliyan/envelope"
	"github.com/rbaliyan/envelope/software"
)

// Low iteration count keeps PBKDF2 fast in tests.
const testIterations = 1000

func newEnvelope(t testing.TB) *envelope.Envelope {
	t.Helper()
	env, err := envelope.New(software.New(), envelope.WithIterations(testIterations))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return env
}

func deriveTestKey(t testing.TB, env *envelope.Envelope, secret envelope.Secret) envelope.Key {
	t.Helper()
	ctx := context.Background()
	base, err := env.ImportBaseKey(ctx, secret)
	if err != nil {
		t.Fatalf("ImportBaseKey: %v", err)
	}
	salt, err := env.Salt(ctx)
	if err != nil {
		t.Fatalf("Salt: %v", err)
	}
	key, err := env.DeriveKey(ctx, base, salt, nil)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	return key
}

func TestImportBaseKeyProperties(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	for _, secret := range []envelope.Secret{
		envelope.Text("any raw key"),
		envelope.Text(""),
		envelope.Binary{0, 1, 2, 3},
	} {
		base, err := env.ImportBaseKey(ctx, secret)
		if err != nil {
			t.Fatalf("ImportBaseKey(%v): %v", secret, err)
		}
		if base.Extractable() {
			t.Errorf("ImportBaseKey(%v): base key is extractable", secret)
		}
		if !slices.Equal(base.Usages(), []envelope.Usage{envelope.UsageDeriveKey}) {
			t.Errorf("ImportBaseKey(%v): usages %v, want [deriveKey]", secret, base.Usages())
		}
		if base.Algorithm().Name != envelope.PBKDF2 {
			t.Errorf("ImportBaseKey(%v): algorithm %q, want PBKDF2", secret, base.Algorithm().Name)
		}
	}
}

func TestImportBaseKeyFormatMismatch(t *testing.T) {
	env := newEnvelope(t)

	_, err := env.ImportBaseKey(context.Background(), envelope.Binary("raw bytes"), envelope.WithFormat(envelope.FormatJWK))
	if !envelope.IsInvalidKeyMaterial(err) {
		t.Errorf("ImportBaseKey(binary as jwk): got %v, want ErrInvalidKeyMaterial", err)
	}
}

func TestDeriveKeyDefaults(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	base, err := env.ImportBaseKey(ctx, envelope.Text("any raw key"))
	if err != nil {
		t.Fatalf("ImportBaseKey: %v", err)
	}
	salt, err := env.Salt(ctx)
	if err != nil {
		t.Fatalf("Salt: %v", err)
	}
	if len(salt) != envelope.DefaultSaltSize {
		t.Fatalf("salt length: got %d, want %d", len(salt), envelope.DefaultSaltSize)
	}

	key, err := env.DeriveKey(ctx, base, salt, nil)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}

	want := envelope.KeyAlgorithm{Name: envelope.AESGCM, Length: 256}
	if key.Algorithm() != want {
		t.Errorf("algorithm: got %+v, want %+v", key.Algorithm(), want)
	}
	if key.Extractable() {
		t.Error("derived key is extractable")
	}
	if !slices.Equal(key.Usages(), []envelope.Usage{envelope.UsageEncrypt, envelope.UsageDecrypt}) {
		t.Errorf("usages: got %v, want [encrypt decrypt]", key.Usages())
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()
	salt := envelope.Salt("saltsalt")
	nonce := envelope.Nonce(bytes.Repeat([]byte{7}, envelope.DefaultNonceSize))

	encryptWith := func() []byte {
		base, err := env.ImportBaseKey(ctx, envelope.Text("password"))
		if err != nil {
			t.Fatalf("ImportBaseKey: %v", err)
		}
		key, err := env.DeriveKey(ctx, base, salt, envelope.Iterations(testIterations))
		if err != nil {
			t.Fatalf("DeriveKey: %v", err)
		}
		s, err := env.Encrypt(ctx, envelope.Text("payload"), key, envelope.AesGcmParams{IV: nonce})
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		return s.Ciphertext
	}

	if !bytes.Equal(encryptWith(), encryptWith()) {
		t.Error("same secret, salt and nonce produced different ciphertexts")
	}
}

func TestRoundTrip(t *testing.T) {
	env := newEnvelope(t)
	key := deriveTestKey(t, env, envelope.Text("correct horse battery staple"))
	ctx := context.Background()

	for _, data := range []envelope.Data{
		envelope.Text(""),
		envelope.Text("hello"),
		envelope.Text("ünïcödé ✓"),
		envelope.Binary{0, 0xff, 0x10},
		envelope.Binary(bytes.Repeat([]byte{0xAB}, 64*1024)),
	} {
		sealed, err := env.Encrypt(ctx, data, key, nil)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if len(sealed.Nonce) != envelope.DefaultNonceSize {
			t.Errorf("nonce length: got %d, want %d", len(sealed.Nonce), envelope.DefaultNonceSize)
		}

		got, err := env.Decrypt(ctx, sealed.Ciphertext, key, sealed.Nonce)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(got, envelope.ToBytes(data)) {
			t.Errorf("Decrypt: got %q, want %q", got, envelope.ToBytes(data))
		}
	}
}

func TestDecryptWithDescriptor(t *testing.T) {
	env := newEnvelope(t)
	key := deriveTestKey(t, env, envelope.Text("pw"))
	ctx := context.Background()

	alg := envelope.AesGcmParams{IV: make([]byte, 12), AdditionalData: []byte("header")}
	sealed, err := env.Encrypt(ctx, envelope.Text("x"), key, alg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !bytes.Equal(sealed.Nonce, alg.IV) {
		t.Errorf("nonce: got %x, want caller IV", sealed.Nonce)
	}

	got, err := env.Decrypt(ctx, sealed.Ciphertext, key, alg)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != "x" {
		t.Errorf("Decrypt: got %q", got)
	}

	// Without the additional data authentication must fail.
	if _, err := env.Decrypt(ctx, sealed.Ciphertext, key, sealed.Nonce); !envelope.IsDecryptionFailed(err) {
		t.Errorf("Decrypt without AAD: got %v, want ErrDecryptionFailed", err)
	}
}

func TestTamperDetection(t *testing.T) {
	env := newEnvelope(t)
	key := deriveTestKey(t, env, envelope.Text("pw"))
	ctx := context.Background()

	sealed, err := env.Encrypt(ctx, envelope.Text("attack at dawn"), key, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	otherNonce, err := env.Nonce(ctx)
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if _, err := env.Decrypt(ctx, sealed.Ciphertext, key, otherNonce); !envelope.IsDecryptionFailed(err) {
		t.Errorf("wrong nonce: got %v, want ErrDecryptionFailed", err)
	}

	for i := range sealed.Ciphertext {
		tampered := bytes.Clone(sealed.Ciphertext)
		tampered[i] ^= 0x01
		if _, err := env.Decrypt(ctx, tampered, key, sealed.Nonce); !envelope.IsDecryptionFailed(err) {
			t.Fatalf("flipped byte %d: got %v, want ErrDecryptionFailed", i, err)
		}
	}

	if _, err := env.Decrypt(ctx, sealed.Ciphertext[:4], key, sealed.Nonce); !envelope.IsDecryptionFailed(err) {
		t.Errorf("truncated: got %v, want ErrDecryptionFailed", err)
	}
}

func TestKeyIsolation(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	base, err := env.ImportBaseKey(ctx, envelope.Text("shared secret"))
	if err != nil {
		t.Fatalf("ImportBaseKey: %v", err)
	}
	k1, err := env.DeriveKey(ctx, base, envelope.Salt("salt-one"), nil)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, err := env.DeriveKey(ctx, base, envelope.Salt("salt-two"), nil)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}

	s1, err := env.Encrypt(ctx, envelope.Text("one"), k1, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	s2, err := env.Encrypt(ctx, envelope.Text("two"), k2, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := env.Decrypt(ctx, s1.Ciphertext, k2, s1.Nonce); !envelope.IsDecryptionFailed(err) {
		t.Errorf("k2 opened k1 ciphertext: %v", err)
	}
	if _, err := env.Decrypt(ctx, s2.Ciphertext, k1, s2.Nonce); !envelope.IsDecryptionFailed(err) {
		t.Errorf("k1 opened k2 ciphertext: %v", err)
	}
}

func TestBaseKeyCannotEncrypt(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	base, err := env.ImportBaseKey(ctx, envelope.Text("pw"))
	if err != nil {
		t.Fatalf("ImportBaseKey: %v", err)
	}
	if _, err := env.Encrypt(ctx, envelope.Text("x"), base, nil); !envelope.IsInvalidUsage(err) {
		t.Errorf("Encrypt with base key: got %v, want ErrInvalidUsage", err)
	}

	key := deriveTestKey(t, env, envelope.Text("pw"))
	if _, err := env.DeriveKey(ctx, key, envelope.Salt("s"), nil); !envelope.IsInvalidUsage(err) {
		t.Errorf("DeriveKey from working key: got %v, want ErrInvalidUsage", err)
	}
}

func TestDerivedKeyUsagesEnforced(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	base, err := env.ImportBaseKey(ctx, envelope.Text("pw"))
	if err != nil {
		t.Fatalf("ImportBaseKey: %v", err)
	}
	encOnly, err := env.DeriveKey(ctx, base, envelope.Salt("s"), nil, envelope.UsageEncrypt)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	sealed, err := env.Encrypt(ctx, envelope.Text("x"), encOnly, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := env.Decrypt(ctx, sealed.Ciphertext, encOnly, sealed.Nonce); !envelope.IsInvalidUsage(err) {
		t.Errorf("Decrypt with encrypt-only key: got %v, want ErrInvalidUsage", err)
	}
}

func TestSealOpen(t *testing.T) {
	env := newEnvelope(t)
	key := deriveTestKey(t, env, envelope.Text("pw"))
	ctx := context.Background()

	blob, err := env.Seal(ctx, envelope.Text("framed"), key)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	got, err := env.Open(ctx, blob, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(got) != "framed" {
		t.Errorf("Open: got %q", got)
	}

	blob[len(blob)-1] ^= 0xFF
	if _, err := env.Open(ctx, blob, key); !envelope.IsDecryptionFailed(err) {
		t.Errorf("Open tampered: got %v, want ErrDecryptionFailed", err)
	}
	if _, err := env.Open(ctx, []byte("garbage"), key); !envelope.IsInvalidFormat(err) {
		t.Errorf("Open garbage: got %v, want ErrInvalidFormat", err)
	}
}

func TestHashProperties(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	a1, err := env.Hash(ctx, envelope.Text("abc"), nil)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	a2, err := env.Hash(ctx, envelope.Binary("abc"), envelope.SHA256)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !bytes.Equal(a1, a2) {
		t.Error("equal inputs produced different digests")
	}
	if got := fmt.Sprintf("%x", a1); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("SHA-256(abc): got %s", got)
	}

	b, err := env.Hash(ctx, envelope.Text("abd"), nil)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if bytes.Equal(a1, b) {
		t.Error("single byte change produced the same digest")
	}

	seen := map[string]envelope.Name{}
	for _, alg := range []envelope.Name{
		envelope.SHA1, envelope.SHA256, envelope.SHA384, envelope.SHA512,
		envelope.SHA3_256, envelope.SHA3_512, envelope.BLAKE2b256, envelope.BLAKE2b512,
	} {
		d, err := env.Hash(ctx, envelope.Text("abc"), alg)
		if err != nil {
			t.Fatalf("Hash(%s): %v", alg, err)
		}
		if prev, ok := seen[string(d)]; ok {
			t.Errorf("%s and %s produced the same digest", prev, alg)
		}
		seen[string(d)] = alg
	}

	if _, err := env.Hash(ctx, envelope.Text("abc"), envelope.Name("MD5")); !envelope.IsUnsupportedAlgorithm(err) {
		t.Errorf("Hash(MD5): got %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestRandomBytesSizes(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	b, err := env.RandomBytes(ctx, 69)
	if err != nil {
		t.Fatalf("RandomBytes: %v", err)
	}
	if len(b) != 69 {
		t.Errorf("RandomBytes(69): got %d bytes", len(b))
	}

	nonce, err := env.Nonce(ctx)
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if len(nonce) != 16 {
		t.Errorf("Nonce: got %d bytes, want 16", len(nonce))
	}

	salt, err := env.Salt(ctx)
	if err != nil {
		t.Fatalf("Salt: %v", err)
	}
	if len(salt) != 8 {
		t.Errorf("Salt: got %d bytes, want 8", len(salt))
	}

	other, err := env.Nonce(ctx)
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if bytes.Equal(nonce, other) {
		t.Error("two nonces are equal")
	}
}

func TestCoercion(t *testing.T) {
	for _, s := range []string{"", "plain", "ünïcödé", "日本語", "emoji 🔐"} {
		if got := envelope.ToText(envelope.Binary(envelope.ToBytes(envelope.Text(s)))); got != s {
			t.Errorf("ToText(ToBytes(%q)): got %q", s, got)
		}
	}
}

func TestConcurrentOperations(t *testing.T) {
	env := newEnvelope(t)
	key := deriveTestKey(t, env, envelope.Text("pw"))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("message-%d", i)
			sealed, err := env.Encrypt(ctx, envelope.Text(msg), key, nil)
			if err != nil {
				errs <- err
				return
			}
			got, err := env.Decrypt(ctx, sealed.Ciphertext, key, sealed.Nonce)
			if err != nil {
				errs <- err
				return
			}
			if string(got) != msg {
				errs <- fmt.Errorf("got %q, want %q", got, msg)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestJWKBaseKey(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	jwk := &envelope.JSONWebKey{
		Kty:    "oct",
		K:      "GawgguFyGrWKav7AX4VKUg",
		KeyOps: []string{"deriveKey"},
	}
	base, err := env.ImportBaseKey(ctx, jwk, envelope.WithImportAlgorithm(envelope.HKDF))
	if err != nil {
		t.Fatalf("ImportBaseKey: %v", err)
	}

	key, err := env.DeriveKey(ctx, base,
		envelope.HkdfParams{Hash: envelope.SHA256, Salt: []byte("salt"), Info: []byte("ctx")},
		envelope.AesKeyParams{Name: envelope.AESGCM, Length: 128},
	)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if key.Algorithm().Length != 128 {
		t.Errorf("length: got %d, want 128", key.Algorithm().Length)
	}

	sealed, err := env.Encrypt(ctx, envelope.Text("jwk"), key, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := env.Decrypt(ctx, sealed.Ciphertext, key, sealed.Nonce); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	restricted := &envelope.JSONWebKey{Kty: "oct", K: jwk.K, KeyOps: []string{"encrypt"}}
	if _, err := env.ImportBaseKey(ctx, restricted); !envelope.IsInvalidUsage(err) {
		t.Errorf("ImportBaseKey with key_ops=[encrypt]: got %v, want ErrInvalidUsage", err)
	}
}

func TestChainedDerivation(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	base, err := env.ImportBaseKey(ctx, envelope.Text("master"))
	if err != nil {
		t.Fatalf("ImportBaseKey: %v", err)
	}
	intermediate, err := env.DeriveKey(ctx, base,
		envelope.Pbkdf2Params{Hash: envelope.SHA512, Salt: []byte("stage-1"), Iterations: testIterations},
		envelope.HKDF,
		envelope.UsageDeriveKey,
	)
	if err != nil {
		t.Fatalf("DeriveKey(stage 1): %v", err)
	}
	if intermediate.Algorithm().Name != envelope.HKDF {
		t.Fatalf("intermediate algorithm: got %q, want HKDF", intermediate.Algorithm().Name)
	}

	key, err := env.DeriveKey(ctx, intermediate,
		envelope.HkdfParams{Hash: envelope.SHA256, Info: []byte("stage-2")},
		envelope.AesKeyParams{Name: envelope.ChaCha20Poly1305},
	)
	if err != nil {
		t.Fatalf("DeriveKey(stage 2): %v", err)
	}

	alg := envelope.ChaCha20Poly1305Params{Nonce: make([]byte, 24)}
	sealed, err := env.Encrypt(ctx, envelope.Text("xchacha"), key, alg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := env.Decrypt(ctx, sealed.Ciphertext, key, alg)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != "xchacha" {
		t.Errorf("Decrypt: got %q", got)
	}
}

func TestArgon2idDerivation(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	base, err := env.ImportBaseKey(ctx, envelope.Text("correct horse"), envelope.WithImportAlgorithm(envelope.Argon2id))
	if err != nil {
		t.Fatalf("ImportBaseKey: %v", err)
	}
	if base.Algorithm().Name != envelope.Argon2id {
		t.Fatalf("base algorithm: got %q, want Argon2id", base.Algorithm().Name)
	}

	params := envelope.Argon2Params{Salt: []byte("argon-salt"), Time: 1, Memory: 64, Threads: 1}
	target := envelope.AesKeyParams{Name: envelope.AESGCM, Length: 256}
	k1, err := env.DeriveKey(ctx, base, params, target)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, err := env.DeriveKey(ctx, base, params, target)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}

	sealed, err := env.Encrypt(ctx, envelope.Text("memory hard"), k1, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := env.Decrypt(ctx, sealed.Ciphertext, k2, sealed.Nonce)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != "memory hard" {
		t.Errorf("Decrypt: got %q", got)
	}

	if _, err := env.DeriveKey(ctx, base, envelope.Salt("salt"), nil); !envelope.IsInvalidUsage(err) {
		t.Errorf("PBKDF2 shorthand on an Argon2id base: got %v, want ErrInvalidUsage", err)
	}
}

func TestX25519Agreement(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	importPair := func() (envelope.Key, envelope.Key) {
		priv, err := ecdh.X25519().GenerateKey(rand.Reader)
		if err != nil {
			t.Fatalf("GenerateKey: %v", err)
		}
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
		}
		privKey, err := env.ImportBaseKey(ctx, envelope.Binary(der),
			envelope.WithFormat(envelope.FormatPKCS8),
			envelope.WithImportAlgorithm(envelope.X25519),
		)
		if err != nil {
			t.Fatalf("ImportBaseKey(private): %v", err)
		}
		pubKey, err := env.ImportBaseKey(ctx, envelope.Binary(priv.PublicKey().Bytes()),
			envelope.WithImportAlgorithm(envelope.X25519),
			envelope.WithKeyUsages(),
		)
		if err != nil {
			t.Fatalf("ImportBaseKey(public): %v", err)
		}
		return privKey, pubKey
	}

	alicePriv, alicePub := importPair()
	bobPriv, bobPub := importPair()
	target := envelope.AesKeyParams{Name: envelope.AESGCM, Length: 256}

	aliceKey, err := env.DeriveKey(ctx, alicePriv, envelope.EcdhParams{Public: bobPub}, target)
	if err != nil {
		t.Fatalf("DeriveKey(alice): %v", err)
	}
	bobKey, err := env.DeriveKey(ctx, bobPriv, envelope.EcdhParams{Public: alicePub}, target)
	if err != nil {
		t.Fatalf("DeriveKey(bob): %v", err)
	}

	sealed, err := env.Encrypt(ctx, envelope.Text("hi bob"), aliceKey, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := env.Decrypt(ctx, sealed.Ciphertext, bobKey, sealed.Nonce)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != "hi bob" {
		t.Errorf("Decrypt: got %q", got)
	}
}

func TestAESCTRWithoutNonce(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	key, err := env.ImportBaseKey(ctx, envelope.Binary(bytes.Repeat([]byte{1}, 32)),
		envelope.WithImportAlgorithm(envelope.AESCTR),
		envelope.WithKeyUsages(envelope.UsageEncrypt, envelope.UsageDecrypt),
	)
	if err != nil {
		t.Fatalf("ImportBaseKey: %v", err)
	}

	alg := envelope.AesCtrParams{Counter: make([]byte, 16), Length: 64}
	sealed, err := env.Encrypt(ctx, envelope.Text("counter mode"), key, alg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed.Nonce != nil {
		t.Errorf("nonce: got %x, want nil for AES-CTR", sealed.Nonce)
	}
	got, err := env.Decrypt(ctx, sealed.Ciphertext, key, alg)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != "counter mode" {
		t.Errorf("Decrypt: got %q", got)
	}
}

func TestRSAOAEP(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}

	alg := envelope.RsaHashedImportParams{Name: envelope.RSAOAEP, Hash: envelope.SHA256}
	pub, err := env.ImportBaseKey(ctx, envelope.Binary(pubDER),
		envelope.WithFormat(envelope.FormatSPKI),
		envelope.WithImportAlgorithm(alg),
		envelope.WithKeyUsages(envelope.UsageEncrypt),
	)
	if err != nil {
		t.Fatalf("ImportBaseKey(public): %v", err)
	}
	private, err := env.ImportBaseKey(ctx, envelope.Binary(privDER),
		envelope.WithFormat(envelope.FormatPKCS8),
		envelope.WithImportAlgorithm(alg),
		envelope.WithKeyUsages(envelope.UsageDecrypt),
	)
	if err != nil {
		t.Fatalf("ImportBaseKey(private): %v", err)
	}

	sealed, err := env.Encrypt(ctx, envelope.Text("wrapped"), pub, envelope.RsaOaepParams{})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed.Nonce != nil {
		t.Errorf("nonce: got %x, want nil for RSA-OAEP", sealed.Nonce)
	}
	got, err := env.Decrypt(ctx, sealed.Ciphertext, private, envelope.RsaOaepParams{})
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != "wrapped" {
		t.Errorf("Decrypt: got %q", got)
	}
}

func TestForeignKeyRejected(t *testing.T) {
	env := newEnvelope(t)
	ctx := context.Background()

	if _, err := env.Encrypt(ctx, envelope.Text("x"), foreignKey{}, nil); !envelope.IsInvalidArgument(err) {
		t.Errorf("Encrypt with foreign key: got %v, want ErrInvalidArgument", err)
	}
}

type foreignKey struct{}

func (foreignKey) ID() string                       { return "foreign" }
func (foreignKey) Algorithm() envelope.KeyAlgorithm { return envelope.KeyAlgorithm{Name: envelope.AESGCM} }
func (foreignKey) Extractable() bool                { return false }
func (foreignKey) Usages() []envelope.Usage         { return nil }
