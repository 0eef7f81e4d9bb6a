package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/station-idw/internal/config"
	"github.com/couchcryptid/station-idw/internal/domain"
)

// Writer produces estimate messages to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured estimate topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: cfg.PublishTimeout,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one estimate and writes it to the topic, keyed by run ID.
func (w *Writer) Publish(ctx context.Context, estimate domain.Estimate) error {
	msg, err := serializeToMessage(estimate)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write estimate to %s: %w", w.writer.Topic, err)
	}
	w.logger.Debug("estimate written", "topic", w.writer.Topic, "key", estimate.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Estimate into a Kafka message.
func serializeToMessage(estimate domain.Estimate) (kafkago.Message, error) {
	data, err := json.Marshal(estimate)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize estimate: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(estimate.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "target", Value: []byte(estimate.TargetName)},
			{Key: "computed_at", Value: []byte(estimate.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
