package envelope

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// Envelope resolves loosely specified key-derivation and encryption calls into
// fully specified descriptors and delegates them to an Engine.
//
// Envelope holds no keys, nonces or salts between calls. It is safe for
// concurrent use if the Engine is.
type Envelope struct {
	engine Engine
	cfg    *config
	tel    *telemetry
}

// New creates an Envelope backed by engine.
// Returns an error if engine is nil or an option is invalid.
func New(engine Engine, opts ...Option) (*Envelope, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: New engine is nil", ErrInvalidArgument)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}

	tel, err := newTelemetry(cfg)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		engine: engine,
		cfg:    cfg,
		tel:    tel,
	}, nil
}

// Engine returns the engine e delegates to.
func (e *Envelope) Engine() Engine {
	return e.engine
}

// run executes fn inside an instrumented span after checking ctx.
func (e *Envelope) run(ctx context.Context, op string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, done := e.tel.start(ctx, op, attrs...)
	err := fn(ctx)
	done(err)
	return err
}
