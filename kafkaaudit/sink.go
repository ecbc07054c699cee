// Package kafkaaudit publishes session audit events to a Kafka topic.
//
// Events are JSON-encoded and keyed by account ID so every event for one
// account lands on the same partition in order. Plug a [Sink] into the engine
// with Builder.WithAuditSink; the engine's dispatcher already runs delivery off
// the request path.
package kafkaaudit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/MrEthical07/sessionauth"
)

// MessageWriter is the subset of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink writes audit events to Kafka.
type Sink struct {
	writer  MessageWriter
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the logger used for delivery failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWriteTimeout bounds each publish. Defaults to 5s.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewWriter builds a kafka-go writer for brokers and topic with hash
// partitioning on the message key.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// New returns a Sink writing through w.
func New(w MessageWriter, opts ...Option) *Sink {
	s := &Sink{writer: w, logger: zap.NewNop(), timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Emit publishes event. Failures are logged and dropped; audit delivery never
// fails an authentication call.
func (s *Sink) Emit(ctx context.Context, event sessionauth.AuditEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("encode audit event", zap.String("event_type", event.EventType), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.AccountID),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.logger.Warn("publish audit event",
			zap.String("event_type", event.EventType),
			zap.String("account_id", event.AccountID),
			zap.Error(err),
		)
	}
}

// Close flushes and closes the underlying writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}
