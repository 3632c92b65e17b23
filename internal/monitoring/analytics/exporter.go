package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"card-assistant/internal/models"
)

// Exporter delivers a drained batch of events downstream.
type Exporter interface {
	Name() string
	Export(ctx context.Context, events []models.AnalyticsEvent) error
}

// MessageWriter is the subset of *kafka.Writer used by KafkaExporter.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaExporter publishes each event as a JSON message keyed by client id.
type KafkaExporter struct {
	writer MessageWriter
}

// NewKafkaExporter creates an exporter writing to topic on brokers.
func NewKafkaExporter(brokers []string, topic string) *KafkaExporter {
	return NewKafkaExporterWithWriter(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
}

func NewKafkaExporterWithWriter(w MessageWriter) *KafkaExporter {
	return &KafkaExporter{writer: w}
}

func (e *KafkaExporter) Name() string { return "kafka" }

func (e *KafkaExporter) Export(ctx context.Context, events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", event.Event, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(event.ClientID),
			Value: data,
			Time:  event.RecordedAt,
		})
	}

	return e.writer.WriteMessages(ctx, msgs...)
}

func (e *KafkaExporter) Close() error {
	return e.writer.Close()
}

// RedisExporter appends JSON-encoded events to a Redis list.
type RedisExporter struct {
	client  redis.Cmdable
	listKey string
}

func NewRedisExporter(client redis.Cmdable, listKey string) *RedisExporter {
	return &RedisExporter{client: client, listKey: listKey}
}

func (e *RedisExporter) Name() string { return "redis" }

func (e *RedisExporter) Export(ctx context.Context, events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(events))
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", event.Event, err)
		}
		values = append(values, data)
	}

	return e.client.RPush(ctx, e.listKey, values...).Err()
}
