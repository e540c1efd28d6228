package envelope

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultIterations is the PBKDF2 iteration count used when DeriveKey is
	// given a Salt without an Iterations count.
	DefaultIterations = 50000

	// DefaultNonceSize is the nonce size in bytes: 128 bits, so random
	// collisions are negligible for the cipher modes in scope.
	DefaultNonceSize = 16

	// DefaultSaltSize is the salt size in bytes: 64 bits, enough to defeat
	// precomputation without excessive storage cost.
	DefaultSaltSize = 8

	// DefaultKeyLength is the length in bits of keys derived for the default cipher.
	DefaultKeyLength = 256

	// MaxRandomBytes is the largest random request served in one call.
	MaxRandomBytes = 65536
)

// config holds the defaults Envelope fills into partially specified calls.
type config struct {
	iterations int
	hash       Name
	digest     Name
	cipher     Name
	keyLength  int
	nonceSize  int
	saltSize   int

	logger         logrus.FieldLogger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	err error // deferred validation error from options
}

func defaultConfig() *config {
	return &config{
		iterations:     DefaultIterations,
		hash:           SHA256,
		digest:         SHA256,
		cipher:         AESGCM,
		keyLength:      DefaultKeyLength,
		nonceSize:      DefaultNonceSize,
		saltSize:       DefaultSaltSize,
		logger:         discardLogger(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Option configures an Envelope.
type Option func(*config)

// WithIterations sets the PBKDF2 iteration count used for Salt-only derivations.
// Default: 50000.
func WithIterations(n int) Option {
	return func(c *config) {
		if c.err != nil {
			return
		}
		if n <= 0 {
			c.err = fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidArgument, n)
			return
		}
		c.iterations = n
	}
}

// WithHash sets the PBKDF2 hash for Salt-only derivations and the default
// digest for Hash. Default: SHA-256.
func WithHash(h Name) Option {
	return func(c *config) {
		if c.err != nil {
			return
		}
		if h == "" {
			c.err = fmt.Errorf("%w: hash name must not be empty", ErrInvalidArgument)
			return
		}
		c.hash = h
		c.digest = h
	}
}

// WithNonceSize sets the size of nonces generated for default encryptions.
// Default: 16 bytes.
func WithNonceSize(n int) Option {
	return func(c *config) {
		if c.err != nil {
			return
		}
		if n <= 0 || n > MaxRandomBytes {
			c.err = fmt.Errorf("%w: nonce size %d", ErrInvalidArgument, n)
			return
		}
		c.nonceSize = n
	}
}

// WithSaltSize sets the size of salts returned by Salt. Default: 8 bytes.
func WithSaltSize(n int) Option {
	return func(c *config) {
		if c.err != nil {
			return
		}
		if n <= 0 || n > MaxRandomBytes {
			c.err = fmt.Errorf("%w: salt size %d", ErrInvalidArgument, n)
			return
		}
		c.saltSize = n
	}
}

// WithLogger sets the logger. By default nothing is logged.
// Secrets, salts and nonces are never logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracerProvider sets the tracer provider. Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		if tp != nil {
			c.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets the meter provider. Default: the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		if mp != nil {
			c.meterProvider = mp
		}
	}
}

// importConfig holds per-call options for ImportBaseKey.
type importConfig struct {
	algorithm ImportAlgorithm
	usages    []Usage
	format    KeyFormat
}

// ImportOption configures ImportBaseKey.
type ImportOption func(*importConfig)

// WithImportAlgorithm sets the algorithm the base key is bound to.
// Default: PBKDF2.
func WithImportAlgorithm(alg ImportAlgorithm) ImportOption {
	return func(c *importConfig) {
		c.algorithm = alg
	}
}

// WithKeyUsages sets the usages of the imported key. Default: deriveKey.
func WithKeyUsages(usages ...Usage) ImportOption {
	return func(c *importConfig) {
		c.usages = usages
	}
}

// WithFormat sets the format of binary secrets. Default: raw.
// JSON web keys always use the jwk format.
func WithFormat(f KeyFormat) ImportOption {
	return func(c *importConfig) {
		c.format = f
	}
}
