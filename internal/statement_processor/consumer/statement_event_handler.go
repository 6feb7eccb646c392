package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/platform/messaging/producers"
	"github.com/statement-reconciliation/internal/statement_processor/service"
)

// StatementEventHandler handles incoming statement batch messages from Kafka
type StatementEventHandler struct {
	ingestionService service.IngestionService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

// NewStatementEventHandler creates a new handler
func NewStatementEventHandler(
	logger *slog.Logger,
	ingestionService service.IngestionService,
	producer producers.DeadLetterPublisher,
) *StatementEventHandler {
	return &StatementEventHandler{
		ingestionService: ingestionService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage processes Kafka messages
func (h *StatementEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var batch shared.StatementBatch
	if err := json.Unmarshal(value, &batch); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal statement batch from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if batch.CorrelationID != "" {
		logger = h.logger.With("correlation_id", batch.CorrelationID)
	}

	logger.Info("Received statement batch for processing",
		"batch_id", batch.BatchID.String(),
		"account_ref", batch.AccountRef.String(),
		"movement_count", len(batch.Movements),
		"source", batch.Source,
	)

	if err := h.ingestionService.ProcessBatch(ctx, &batch); err != nil {
		logger.Error("Failed to process statement batch",
			"batch_id", batch.BatchID.String(),
			"account_ref", batch.AccountRef.String(),
			"error", err,
		)
		return fmt.Errorf("processing batch %s failed: %w", batch.BatchID.String(), err)
	}

	logger.Info("Successfully processed statement batch", "batch_id", batch.BatchID.String())
	return nil // Success, commit offset
}
