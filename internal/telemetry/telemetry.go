// Package telemetry reports product analytics events and captured errors.
// Handlers and services depend on Sink only; the concrete sinks are chosen once at startup.
package telemetry

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"hosting-storefront/internal/config"
)

type Sink interface {
	Track(ctx context.Context, event string, userID string, props map[string]any)
	CaptureError(ctx context.Context, err error, props map[string]any)
	Close() error
}

type Nop struct{}

func (Nop) Track(context.Context, string, string, map[string]any) {}
func (Nop) CaptureError(context.Context, error, map[string]any)   {}
func (Nop) Close() error                                          { return nil }

// Multi fans out to every sink in order.
type Multi []Sink

func (m Multi) Track(ctx context.Context, event string, userID string, props map[string]any) {
	for _, s := range m {
		s.Track(ctx, event, userID, props)
	}
}

func (m Multi) CaptureError(ctx context.Context, err error, props map[string]any) {
	for _, s := range m {
		s.CaptureError(ctx, err, props)
	}
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the sink set implied by which settings are present.
func New(cfg *config.Config, log *zap.Logger) Sink {
	var sinks Multi

	if cfg.Telemetry.LogEvents {
		sinks = append(sinks, NewLogSink(log))
	}
	if cfg.Telemetry.Metrics {
		sinks = append(sinks, NewPrometheusSink(nil))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sinks = append(sinks, NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log))
	}

	switch len(sinks) {
	case 0:
		return Nop{}
	case 1:
		return sinks[0]
	default:
		return sinks
	}
}
