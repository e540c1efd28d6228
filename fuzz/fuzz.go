//go:build gofuzz

// Package fuzz holds OSS-Fuzz entry points for envelope and its software engine.
package fuzz

import (
	"bytes"
	"context"

	fuzzheaders "github.com/AdaLogics/go-fuzz-headers"
	"github.com/AdamKorcz/go-118-fuzz-build/testing"
	"github.com/rbaliyan/envelope"
	"github.com/rbaliyan/envelope/software"
)

func newEnvelope() *envelope.Envelope {
	env, err := envelope.New(software.New(), envelope.WithIterations(1))
	if err != nil {
		panic(err)
	}
	return env
}

func aesKey(env *envelope.Envelope, material []byte) (envelope.Key, error) {
	k := make([]byte, 32)
	copy(k, material)
	return env.ImportBaseKey(context.Background(), envelope.Binary(k),
		envelope.WithImportAlgorithm(envelope.AESGCM),
		envelope.WithKeyUsages(envelope.UsageEncrypt, envelope.UsageDecrypt),
	)
}

// FuzzOpen feeds arbitrary blobs to Open. Anything but a clean error is a bug.
func FuzzOpen(data []byte) int {
	c := fuzzheaders.NewConsumer(data)
	material, err := c.GetBytes()
	if err != nil {
		return 0
	}
	blob, err := c.GetBytes()
	if err != nil {
		return 0
	}

	env := newEnvelope()
	key, err := aesKey(env, material)
	if err != nil {
		panic(err)
	}
	if _, err := env.Open(context.Background(), blob, key); err != nil {
		return 0
	}
	return 1
}

// FuzzImportJWK imports generated JSON web keys under every secret algorithm.
func FuzzImportJWK(data []byte) int {
	c := fuzzheaders.NewConsumer(data)
	jwk := &envelope.JSONWebKey{}
	if err := c.GenerateStruct(jwk); err != nil {
		return 0
	}

	env := newEnvelope()
	ok := 0
	for _, alg := range []envelope.Name{envelope.PBKDF2, envelope.HKDF, envelope.AESGCM, envelope.X25519} {
		if _, err := env.ImportBaseKey(context.Background(), jwk, envelope.WithImportAlgorithm(alg)); err == nil {
			ok = 1
		}
	}
	return ok
}

// FuzzSealRoundTrip checks Seal and Open agree for arbitrary plaintexts and keys.
func FuzzSealRoundTrip(f *testing.F) {
	f.Fuzz(func(t *testing.T, material, plaintext []byte) {
		env := newEnvelope()
		key, err := aesKey(env, material)
		if err != nil {
			t.Fatalf("ImportBaseKey: %v", err)
		}

		blob, err := env.Seal(context.Background(), envelope.Binary(plaintext), key)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}
		got, err := env.Open(context.Background(), blob, key)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("Open: got %x, want %x", got, plaintext)
		}
	})
}
