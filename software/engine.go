// Package software provides an in-process envelope.Engine.
//
// Primitives come from the Go standard library, golang.org/x/crypto
// (PBKDF2, HKDF, Argon2id, ChaCha20-Poly1305, SHA-3, BLAKE2b) and
// github.com/cloudflare/circl (X25519). Secret key material is sealed in a
// memguard enclave for the lifetime of the handle and only opened for the
// duration of a primitive call.
//
// Handles are plain values owned by the caller. The engine keeps no registry,
// so dropping the last reference to a handle releases it.
package software

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/rbaliyan/envelope"
)

// Engine implements envelope.Engine in software.
// It is safe for concurrent use.
type Engine struct {
	rand io.Reader
}

// Compile-time interface check.
var _ envelope.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for RandomBytes and RSA-OAEP padding.
// Default: crypto/rand.Reader. Intended for deterministic tests.
func WithRand(r io.Reader) Option {
	return func(e *Engine) {
		if r != nil {
			e.rand = r
		}
	}
}

// New creates a software engine.
func New(opts ...Option) *Engine {
	e := &Engine{rand: rand.Reader}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RandomBytes returns size bytes read from the engine's random source.
func (e *Engine) RandomBytes(ctx context.Context, size int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size <= 0 || size > envelope.MaxRandomBytes {
		return nil, fmt.Errorf("%w: random size %d out of range (0, %d]", envelope.ErrInvalidArgument, size, envelope.MaxRandomBytes)
	}

	b := make([]byte, size)
	if _, err := io.ReadFull(e.rand, b); err != nil {
		return nil, fmt.Errorf("software: failed to read random bytes: %w", err)
	}
	return b, nil
}

// own returns the engine representation of k.
func own(k envelope.Key) (*key, error) {
	sk, ok := k.(*key)
	if !ok || sk == nil {
		return nil, fmt.Errorf("%w: key %T was not created by the software engine", envelope.ErrInvalidArgument, k)
	}
	return sk, nil
}
