package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/pandemic-map-etl/internal/config"
	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Header keys set on every published record.
const (
	HeaderDataset     = "dataset"
	HeaderMetric      = "metric"
	HeaderProcessedAt = "processed_at"
)

// Writer produces aggregated series to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchBytes:   16 << 20,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the records in a single WriteMessages
// call.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.SeriesRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d series: %w", len(msgs), err)
	}
	w.logger.Debug("series batch written", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// MessageKey identifies one series across tables. The hash balancer keeps
// every republish of the same series on one partition.
func MessageKey(r domain.SeriesRecord) string {
	return string(r.Dataset) + "/" + string(r.Metric) + "/" + r.Entity
}

// serializeToMessage marshals a SeriesRecord into a Kafka message.
func serializeToMessage(r domain.SeriesRecord) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize series %s: %w", r.Entity, err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(r)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderDataset, Value: []byte(r.Dataset)},
			{Key: HeaderMetric, Value: []byte(r.Metric)},
			{Key: HeaderProcessedAt, Value: []byte(r.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}

// DecodeMessage parses a message produced by Writer.
func DecodeMessage(msg kafkago.Message) (domain.SeriesRecord, error) {
	var r domain.SeriesRecord
	if err := json.Unmarshal(msg.Value, &r); err != nil {
		return domain.SeriesRecord{}, fmt.Errorf("decode series %q: %w", msg.Key, err)
	}
	return r, nil
}
