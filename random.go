package envelope

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// RandomBytes returns size cryptographically random bytes from the engine.
// size must be in (0, MaxRandomBytes].
func (e *Envelope) RandomBytes(ctx context.Context, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: random size must be positive, got %d", ErrInvalidArgument, size)
	}
	if size > MaxRandomBytes {
		return nil, fmt.Errorf("%w: random size %d exceeds %d", ErrInvalidArgument, size, MaxRandomBytes)
	}

	var out []byte
	err := e.run(ctx, "Random", func(ctx context.Context) error {
		b, err := e.engine.RandomBytes(ctx, size)
		if err != nil {
			return err
		}
		if len(b) != size {
			return fmt.Errorf("envelope: engine returned %d random bytes, want %d", len(b), size)
		}
		out = b
		return nil
	}, attribute.Int(attrSize, size))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Nonce returns a fresh nonce of the configured size (16 bytes by default).
func (e *Envelope) Nonce(ctx context.Context) (Nonce, error) {
	b, err := e.RandomBytes(ctx, e.cfg.nonceSize)
	if err != nil {
		return nil, err
	}
	return Nonce(b), nil
}

// Salt returns a fresh salt of the configured size (8 bytes by default).
func (e *Envelope) Salt(ctx context.Context) (Salt, error) {
	b, err := e.RandomBytes(ctx, e.cfg.saltSize)
	if err != nil {
		return nil, err
	}
	return Salt(b), nil
}
