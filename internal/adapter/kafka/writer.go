package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/config"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// monthlyRecord is the JSON value of a published row.
type monthlyRecord struct {
	Region   string  `json:"uf"`
	Year     string  `json:"ano"`
	Month    string  `json:"mes"`
	Rainfall float64 `json:"chuva"`
	Cases    float64 `json:"dengue"`
}

// Writer publishes joined rows to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer    *kafkago.Writer
	batchSize int
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 100
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    batchSize,
	}
	return &Writer{writer: w, batchSize: batchSize, logger: logger}
}

// Load publishes every row of out, keyed by region-month so that reruns of
// the same key land on the same partition.
func (w *Writer) Load(ctx context.Context, out domain.Output) error {
	if len(out.Rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(out.Rows))
	for i, row := range out.Rows {
		msg, err := serializeToMessage(row, out.RunID, out.ProcessedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	for lo := 0; lo < len(msgs); lo += w.batchSize {
		hi := min(lo+w.batchSize, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[lo:hi]...); err != nil {
			return fmt.Errorf("publish rows: %w", err)
		}
	}
	w.logger.Info("rows published", "topic", w.writer.Topic, "rows", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one joined row into a Kafka message.
func serializeToMessage(row domain.OutputRow, runID string, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(monthlyRecord{
		Region:   row.Key.Region,
		Year:     row.Key.Year,
		Month:    row.Key.Month,
		Rainfall: row.Rainfall,
		Cases:    row.Cases,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize row %s: %w", row.Key, err)
	}
	return kafkago.Message{
		Key:   []byte(row.Key.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
