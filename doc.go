// Package envelope derives working keys from arbitrary secrets and performs
// envelope encryption with them.
//
// A secret (a password, raw bytes or a JSON web key) is imported as a
// non-exportable base key that can only derive other keys. Working keys are
// derived from the base key with PBKDF2 by default and used for authenticated
// encryption with AES-GCM. Every Encrypt returns the nonce it used next to the
// ciphertext; Decrypt requires it back.
//
// The cryptographic primitives are performed by an [Engine] passed to [New].
// The software subpackage provides one backed by the Go standard library,
// golang.org/x/crypto and circl, with key material sealed by memguard.
//
// Basic usage:
//
//	env, err := envelope.New(software.New())
//	if err != nil {
//	    return err
//	}
//
//	base, err := env.ImportBaseKey(ctx, envelope.Text("correct horse battery staple"))
//	if err != nil {
//	    return err
//	}
//
//	salt, err := env.Salt(ctx)
//	if err != nil {
//	    return err
//	}
//	key, err := env.DeriveKey(ctx, base, salt, nil)
//	if err != nil {
//	    return err
//	}
//
//	sealed, err := env.Encrypt(ctx, envelope.Text("hello"), key, nil)
//	if err != nil {
//	    return err
//	}
//	plaintext, err := env.Decrypt(ctx, sealed.Ciphertext, key, sealed.Nonce)
//
// # Call shapes
//
// DeriveKey and Decrypt accept either shorthand values or full descriptors:
//
//   - DeriveKey(ctx, base, Salt, Iterations) stretches with PBKDF2/SHA-256 and
//     yields an AES-GCM 256 key.
//   - DeriveKey(ctx, base, DeriveAlgorithm, DerivedKeyAlgorithm) uses both
//     descriptors verbatim.
//   - Decrypt(ctx, ct, key, Nonce) decrypts default AES-GCM; pass the full
//     CipherAlgorithm for anything else.
//
// # Nonces
//
// A nonce must never be reused with the same key for two plaintexts under
// AES-GCM or ChaCha20-Poly1305. Envelope generates a fresh 16-byte nonce for
// every default Encrypt but does not detect reuse of caller-supplied ones.
// Use [Envelope.Seal] and [Envelope.Open] to keep nonce and ciphertext in one blob.
package envelope
