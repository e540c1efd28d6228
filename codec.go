package envelope

import (
	"context"
	"fmt"

	"github.com/rbaliyan/config/codec"
)

// Codec wraps an inner codec with envelope encryption.
// On Encode, the inner codec serializes the value, then the result is sealed
// under the codec's key with a fresh nonce.
// On Decode, the blob is opened, then the inner codec deserializes the plaintext.
//
// Codec is safe for concurrent use if the Envelope's engine and the inner codec
// are safe for concurrent use.
type Codec struct {
	inner codec.Codec
	env   *Envelope
	key   Key
	name  string
}

// Compile-time interface check.
var _ codec.Codec = (*Codec)(nil)

// NewCodec creates an encrypting codec that wraps the given inner codec.
// key must permit encrypt and decrypt under the default cipher, such as a key
// returned by DeriveKey with a Salt.
// The codec name is "envelope:<inner>", e.g. "envelope:json".
// Returns an error if inner, env or key is nil.
func NewCodec(inner codec.Codec, env *Envelope, key Key) (*Codec, error) {
	if inner == nil {
		return nil, fmt.Errorf("envelope: NewCodec inner codec is nil")
	}
	if env == nil {
		return nil, fmt.Errorf("envelope: NewCodec envelope is nil")
	}
	if key == nil {
		return nil, fmt.Errorf("envelope: NewCodec key is nil")
	}
	return &Codec{
		inner: inner,
		env:   env,
		key:   key,
		name:  "envelope:" + inner.Name(),
	}, nil
}

// Name returns the codec name, e.g. "envelope:json".
func (c *Codec) Name() string {
	return c.name
}

// Encode serializes the value using the inner codec, then seals the result.
func (c *Codec) Encode(v any) ([]byte, error) {
	plaintext, err := c.inner.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("envelope: inner encode failed: %w", err)
	}

	blob, err := c.env.Seal(context.Background(), Binary(plaintext), c.key)
	if err != nil {
		return nil, fmt.Errorf("envelope: seal failed: %w", err)
	}
	return blob, nil
}

// Decode opens the blob, then deserializes the plaintext using the inner codec.
func (c *Codec) Decode(data []byte, v any) error {
	plaintext, err := c.env.Open(context.Background(), data, c.key)
	if err != nil {
		return fmt.Errorf("envelope: open failed: %w", err)
	}

	if err := c.inner.Decode(plaintext, v); err != nil {
		return fmt.Errorf("envelope: inner decode failed: %w", err)
	}
	return nil
}
