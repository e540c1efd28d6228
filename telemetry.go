package envelope

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rbaliyan/envelope"

// Attribute keys shared by spans, metrics and log entries.
const (
	attrOp        = "envelope.op"
	attrOutcome   = "envelope.outcome"
	attrAlgorithm = "envelope.algorithm"
	attrTarget    = "envelope.target"
	attrKeyID     = "envelope.key_id"
	attrSize      = "envelope.size"
)

type telemetry struct {
	tracer   trace.Tracer
	ops      metric.Int64Counter
	duration metric.Float64Histogram
	logger   logrus.FieldLogger
}

func newTelemetry(c *config) (*telemetry, error) {
	meter := c.meterProvider.Meter(instrumentationName)

	ops, err := meter.Int64Counter("envelope.operations",
		metric.WithDescription("Number of envelope operations by outcome."),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("envelope: failed to create operations counter: %w", err)
	}

	duration, err := meter.Float64Histogram("envelope.operation.duration",
		metric.WithDescription("Duration of envelope operations, engine time included."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("envelope: failed to create duration histogram: %w", err)
	}

	return &telemetry{
		tracer:   c.tracerProvider.Tracer(instrumentationName),
		ops:      ops,
		duration: duration,
		logger:   c.logger,
	}, nil
}

// start opens a span for op. The returned function records the outcome on the
// span, the metrics and the log, then ends the span.
func (t *telemetry) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := t.tracer.Start(ctx, "envelope."+op, trace.WithAttributes(attrs...))
	begin := time.Now()

	return ctx, func(err error) {
		defer span.End()

		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		set := metric.WithAttributes(
			attribute.String(attrOp, op),
			attribute.String(attrOutcome, outcome),
		)
		t.ops.Add(ctx, 1, set)
		t.duration.Record(ctx, time.Since(begin).Seconds(), set)

		fields := logrus.Fields{attrOp: op, attrOutcome: outcome}
		for _, a := range attrs {
			fields[string(a.Key)] = a.Value.Emit()
		}
		entry := t.logger.WithFields(fields)
		if err != nil {
			entry.WithError(err).Debug("envelope operation failed")
			return
		}
		entry.Debug("envelope operation")
	}
}

func algorithmAttr(key string, alg Algorithm) attribute.KeyValue {
	if alg == nil {
		return attribute.String(key, "")
	}
	return attribute.String(key, string(alg.AlgorithmName()))
}

func keyAttr(k Key) attribute.KeyValue {
	if k == nil {
		return attribute.String(attrKeyID, "")
	}
	return attribute.String(attrKeyID, k.ID())
}
