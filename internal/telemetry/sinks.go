package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"hosting-storefront/internal/apperr"
)

type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("telemetry")}
}

func (s *LogSink) Track(_ context.Context, event string, userID string, props map[string]any) {
	s.log.Info("event", zap.String("event", event), zap.String("user_id", userID), zap.Any("props", props))
}

func (s *LogSink) CaptureError(_ context.Context, err error, props map[string]any) {
	s.log.Error("captured error", zap.Error(err), zap.Any("props", props))
}

func (s *LogSink) Close() error {
	return nil
}

type PrometheusSink struct {
	events *prometheus.CounterVec
	errors *prometheus.CounterVec
}

// NewPrometheusSink registers its counters with reg, or the default registry when reg is nil.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusSink{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_events_total",
			Help: "Total number of tracked storefront events.",
		}, []string{"event"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_errors_total",
			Help: "Total number of captured errors by kind.",
		}, []string{"kind"}),
	}
}

func (s *PrometheusSink) Track(_ context.Context, event string, _ string, _ map[string]any) {
	s.events.WithLabelValues(event).Inc()
}

func (s *PrometheusSink) CaptureError(_ context.Context, err error, _ map[string]any) {
	s.errors.WithLabelValues(string(apperr.From(err).Kind)).Inc()
}

func (s *PrometheusSink) Close() error {
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaEvent struct {
	Type   string         `json:"type"`
	Event  string         `json:"event,omitempty"`
	UserID string         `json:"user_id,omitempty"`
	Error  string         `json:"error,omitempty"`
	Props  map[string]any `json:"props,omitempty"`
	At     time.Time      `json:"at"`
}

// KafkaSink publishes one JSON message per event, keyed by user id.
type KafkaSink struct {
	writer messageWriter
	log    *zap.Logger
}

func NewKafkaSink(brokers []string, topic string, log *zap.Logger) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn("kafka publish failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
	return &KafkaSink{writer: w, log: log}
}

func (s *KafkaSink) Track(ctx context.Context, event string, userID string, props map[string]any) {
	s.publish(ctx, userID, kafkaEvent{Type: "track", Event: event, UserID: userID, Props: props, At: time.Now().UTC()})
}

func (s *KafkaSink) CaptureError(ctx context.Context, err error, props map[string]any) {
	s.publish(ctx, "", kafkaEvent{Type: "error", Error: err.Error(), Props: props, At: time.Now().UTC()})
}

func (s *KafkaSink) publish(ctx context.Context, key string, ev kafkaEvent) {
	value, err := json.Marshal(ev)
	if err != nil {
		s.log.Warn("encode telemetry event", zap.Error(err))
		return
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		s.log.Warn("kafka publish failed", zap.Error(err))
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
