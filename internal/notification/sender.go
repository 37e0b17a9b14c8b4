package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// DatabaseSender stores messages in the recipient's inbox table.
type DatabaseSender struct {
	repo Repository
}

func NewDatabaseSender(repo Repository) *DatabaseSender {
	return &DatabaseSender{repo: repo}
}

func (s *DatabaseSender) Send(ctx context.Context, msg Message) error {
	return s.repo.Insert(ctx, msg)
}

// LogSender writes messages to the log. Useful for local development.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "notification").Logger()}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info().
		Str("kind", string(msg.Kind)).
		Str("recipient", msg.Recipient).
		RawJSON("payload", msg.Payload).
		Msg("notification")
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes messages as JSON, keyed by recipient so that one
// user's notifications stay ordered within a partition.
type KafkaSender struct {
	writer messageWriter
}

// NewKafkaSender creates a sender writing to topic. The pool retries failed
// sends, so the writer itself makes a single attempt.
func NewKafkaSender(brokers []string, topic string, logger zerolog.Logger) *KafkaSender {
	errLogger := logger.With().Str("component", "kafka").Logger()
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  1,
			Logger:       kafka.LoggerFunc(func(string, ...any) {}),
			ErrorLogger: kafka.LoggerFunc(func(format string, args ...any) {
				errLogger.Error().Msgf(format, args...)
			}),
		},
	}
}

func (s *KafkaSender) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode kafka message failed: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Recipient),
		Value:   value,
		Time:    msg.CreatedAt,
		Headers: []kafka.Header{{Key: "kind", Value: []byte(msg.Kind)}},
	})
	if err != nil {
		return fmt.Errorf("publish %s notification failed: %w", msg.Kind, err)
	}
	return nil
}

// Close flushes pending writes.
func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
