package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// QueueConfig holds the internal queue connection settings.
type QueueConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Queue delivers documents to the internal Kafka topic.
type Queue struct {
	writer kafkaWriter
	logger *slog.Logger
}

// NewQueue builds a queue sink. A nil logger falls back to slog.Default.
func NewQueue(cfg QueueConfig, logger *slog.Logger) *Queue {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
	return newQueue(writer, logger)
}

func newQueue(writer kafkaWriter, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{writer: writer, logger: logger.With("component", "queue")}
}

// Deliver publishes the payload keyed by its file name.
func (q *Queue) Deliver(ctx context.Context, fileName string, payload []byte) error {
	err := q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fileName),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publishing %s to queue: %w", fileName, err)
	}
	q.logger.Info("document sent to queue", "file_name", fileName, "size", len(payload))
	return nil
}

// Close flushes and closes the underlying writer.
func (q *Queue) Close() error {
	return q.writer.Close()
}
