package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/statement_processor/service"
)

type MovementRecorderImpl struct {
	movementRepo movement.Repository
	logger       *slog.Logger
}

func NewMovementRecorder(movementRepo movement.Repository, logger *slog.Logger) service.MovementRecorder {
	return &MovementRecorderImpl{
		movementRepo: movementRepo,
		logger:       logger,
	}
}

// Record persists one statement record as an unmatched movement. Validation
// failures and duplicate document references come back as skip diagnostics;
// only infrastructure errors are returned for retry. Duplicate detection
// relies on the unique index on (account_ref, external_doc_ref), so
// concurrent workers ingesting the same record cannot both succeed.
func (r *MovementRecorderImpl) Record(ctx context.Context, batch *shared.StatementBatch, record shared.NormalizedMovement) (*movement.Movement, *service.SkipDiagnostic, error) {
	logger := r.logger
	if batch.CorrelationID != "" {
		logger = r.logger.With("correlation_id", batch.CorrelationID)
	}

	mov, err := movement.NewMovement(
		batch.AccountRef,
		record.Date,
		record.Description,
		record.Amount,
		record.Direction,
		record.ExternalDocRef,
	)
	if err != nil {
		logger.Info("Skipping invalid statement record",
			"batch_id", batch.BatchID.String(),
			"external_doc_ref", record.ExternalDocRef,
			"reason", err.Error(),
		)
		return nil, &service.SkipDiagnostic{Category: shared.SkipReasonInvalidRecord, Detail: err.Error()}, nil
	}

	if record.ExternalDocRef != "" {
		existing, err := r.movementRepo.GetByExternalDocRef(ctx, batch.AccountRef, record.ExternalDocRef)
		if err != nil {
			return nil, nil, fmt.Errorf("duplicate check for document reference %s failed: %w", record.ExternalDocRef, err)
		}
		if existing != nil {
			logger.Info("Skipping already ingested statement record",
				"batch_id", batch.BatchID.String(),
				"external_doc_ref", record.ExternalDocRef,
				"existing_movement_id", existing.ID.String(),
			)
			return nil, duplicateSkip(record.ExternalDocRef), nil
		}
	}

	if err := r.movementRepo.Create(ctx, mov); err != nil {
		var duplicate movement.ErrDuplicateMovement
		if errors.As(err, &duplicate) {
			// Lost a race with a concurrent ingestion of the same record
			logger.Info("Skipping concurrently ingested statement record",
				"batch_id", batch.BatchID.String(),
				"external_doc_ref", record.ExternalDocRef,
			)
			return nil, duplicateSkip(record.ExternalDocRef), nil
		}
		return nil, nil, fmt.Errorf("persisting movement failed: %w", err)
	}

	return mov, nil, nil
}

func duplicateSkip(externalDocRef string) *service.SkipDiagnostic {
	return &service.SkipDiagnostic{
		Category: shared.SkipReasonDuplicateMovement,
		Detail:   "duplicate document reference: " + externalDocRef,
	}
}
