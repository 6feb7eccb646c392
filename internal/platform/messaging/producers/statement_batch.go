package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/statement-reconciliation/internal/config"
)

type StatementBatchProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// Creates a new intake producer and ensures the statement topic exists
func NewStatementBatchProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*StatementBatchProducer, error) {
	if cfg.StatementTopic == "" {
		return nil, fmt.Errorf("kafka statement topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for statement batch producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.StatementTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure statement topic %s exists for statement batch producer: %w", cfg.StatementTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.StatementTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Using async for high throughput
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.StatementTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.StatementTopic, "count", len(messages))
			}
		},
	}

	return &StatementBatchProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.StatementTopic,
	}, nil
}

func (p *StatementBatchProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for statement batch producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via statement batch producer",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via statement batch producer: %w", p.topic, err)
	}

	p.logger.Debug("Published message via statement batch producer",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *StatementBatchProducer) Close() error {
	p.logger.Info("Closing statement batch Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close statement batch kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
