package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/platform/messaging/producers"
)

// StatementServiceImpl implements the StatementService interface
type StatementServiceImpl struct {
	producer producers.MessagePublisher
	logger   *slog.Logger
}

// NewStatementService creates a new statement intake service
func NewStatementService(logger *slog.Logger, producer producers.MessagePublisher) StatementService {
	return &StatementServiceImpl{
		producer: producer,
		logger:   logger,
	}
}

// SubmitStatement validates the batch, assigns it an ID and publishes it for
// asynchronous ingestion by the statement processor.
func (s *StatementServiceImpl) SubmitStatement(ctx context.Context, batch *shared.StatementBatch) (uuid.UUID, error) {
	if err := batch.Validate(); err != nil {
		return uuid.Nil, err
	}

	if batch.BatchID == uuid.Nil {
		batch.BatchID = uuid.New()
	}
	if batch.ReceivedAt.IsZero() {
		batch.ReceivedAt = time.Now().UTC()
	}

	key := batch.AccountRef.String() // Partition by account so batches for one account stay ordered
	if err := s.producer.Publish(ctx, key, batch); err != nil {
		s.logger.Error("Failed to publish statement batch",
			"batch_id", batch.BatchID,
			"account_ref", batch.AccountRef,
			"movement_count", len(batch.Movements),
			"error", err,
		)
		return uuid.Nil, err
	}

	s.logger.Info("Statement batch published",
		"batch_id", batch.BatchID,
		"account_ref", batch.AccountRef,
		"source", batch.Source,
		"movement_count", len(batch.Movements),
	)

	return batch.BatchID, nil
}
