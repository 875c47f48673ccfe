package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/marian-search/marian/pkg/config"
	"github.com/marian-search/marian/pkg/resilience"
	"github.com/segmentio/kafka-go"
)

// Event is the unit of data published to Kafka. Key is used for partition
// hashing and Value is JSON-serialised.
type Event struct {
	Key   string
	Value any
}

// Producer publishes JSON-encoded events to a Kafka topic. Writes run
// through a circuit breaker so a broker outage fails fast instead of
// piling up blocked analytics-collector goroutines against a dead writer.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
	cb     *resilience.CircuitBreaker
}

// NewProducer creates a Producer for one of Marian's known logical topics,
// resolved against cfg.Topics.
func NewProducer(cfg config.KafkaConfig, topic Topic) *Producer {
	topicName := topic.resolve(cfg.Topics)
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topicName,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &Producer{
		writer: w,
		logger: slog.Default().With("component", "kafka-producer", "topic", topicName),
		cb:     resilience.NewCircuitBreaker("kafka-producer:"+topicName, resilience.CircuitBreakerConfig{}),
	}
}

// Publish serialises a single event and writes it to Kafka synchronously.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return fmt.Errorf("marshaling event value: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
	}

	if err := p.cb.Execute(func() error { return p.writer.WriteMessages(ctx, msg) }); err != nil {
		p.logger.Error("failed to publish message",
			"key", event.Key,
			"error", err,
		)
		return fmt.Errorf("publishing to kafka: %w", err)
	}
	p.logger.Debug("message published",
		"key", event.Key,
		"value_size", len(value),
	)
	return nil
}

// PublishBatch writes multiple events to Kafka in a single write call.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event.Value)
		if err != nil {
			return fmt.Errorf("marshaling event value: %w", err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.Key),
			Value: value,
		})
	}
	if err := p.cb.Execute(func() error { return p.writer.WriteMessages(ctx, messages...) }); err != nil {
		p.logger.Error("failed to publish batch",
			"count", len(messages),
			"error", err,
		)
		return fmt.Errorf("publishing batch to kafka: %w", err)
	}
	p.logger.Debug("batch published", "count", len(messages))
	return nil
}

// CircuitState reports the current state of the producer's publish circuit
// breaker, for exposing via pkg/metrics.CircuitBreakerState.
func (p *Producer) CircuitState() resilience.State {
	return p.cb.GetState()
}

// Close flushes pending writes and closes the underlying Kafka writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
