package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/covid19-data-etl/internal/adapter/file"
	"github.com/couchcryptid/covid19-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageKey keys every document so a compacted topic keeps only the latest.
const messageKey = "tochigi"

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes documents to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes the document and publishes it as a single message.
func (w *Writer) Load(ctx context.Context, doc domain.Document) error {
	msg, err := serializeToMessage(ctx, doc)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish document: %w", err)
	}
	w.logger.Info("document published", "bytes", len(msg.Value), "last_update", doc.LastUpdate)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage renders the document into a Kafka message, using the
// same JSON encoding as the file sink.
func serializeToMessage(ctx context.Context, doc domain.Document) (kafkago.Message, error) {
	data, err := file.Encode(doc)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize document: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "last_update", Value: []byte(doc.LastUpdate)},
	}
	if id, ok := domain.RunIDFromContext(ctx); ok {
		headers = append(headers, kafkago.Header{Key: "run_id", Value: []byte(id)})
	}
	return kafkago.Message{
		Key:     []byte(messageKey),
		Value:   data,
		Headers: headers,
	}, nil
}
