package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/matching"
)

type IngestionServiceImpl struct {
	txRunner      TxRunner
	recorder      MovementRecorder
	suggester     MatchSuggester
	auditRecorder AuditRecorder
	logger        *slog.Logger
}

func NewIngestionService(
	txRunner TxRunner,
	recorder MovementRecorder,
	suggester MatchSuggester,
	auditRecorder AuditRecorder,
	logger *slog.Logger,
) IngestionService {
	return &IngestionServiceImpl{
		txRunner:      txRunner,
		recorder:      recorder,
		suggester:     suggester,
		auditRecorder: auditRecorder,
		logger:        logger,
	}
}

// ProcessBatch ingests every record of a statement batch and then runs
// suggestion generation for the batch's account. A record that fails
// validation or duplicates an earlier ingestion is skipped with a diagnostic;
// it never aborts the rest of the batch.
func (s *IngestionServiceImpl) ProcessBatch(ctx context.Context, batch *shared.StatementBatch) error {
	logger := s.logger
	if batch.CorrelationID != "" {
		logger = s.logger.With("correlation_id", batch.CorrelationID)
	}

	logger.Info("Processing statement batch",
		"batch_id", batch.BatchID.String(),
		"account_ref", batch.AccountRef.String(),
		"movement_count", len(batch.Movements),
	)

	// 1. Batch-level validation. A malformed batch is not retriable.
	if err := batch.Validate(); err != nil {
		logger.Error("Statement batch validation failed", "batch_id", batch.BatchID.String(), "error", err)
		skip := SkipDiagnostic{Category: shared.SkipReasonInvalidRecord, Detail: err.Error()}
		if recordErr := s.auditRecorder.RecordSkip(ctx, batch.AccountRef, batch.BatchID, batch.CorrelationID, skip); recordErr != nil {
			logger.Error("Failed to record batch skip diagnostic", "batch_id", batch.BatchID.String(), "error", recordErr)
		}
		return nil // Acknowledge the message; redelivery cannot fix it
	}

	// 2. Persist each record, collecting skips as diagnostics
	ingested := 0
	skipped := 0
	for _, record := range batch.Movements {
		mov, skip, err := s.recorder.Record(ctx, batch, record)
		if err != nil {
			logger.Error("Failed to record movement",
				"batch_id", batch.BatchID.String(),
				"external_doc_ref", record.ExternalDocRef,
				"error", err,
			)
			return fmt.Errorf("recording movement in batch %s failed: %w", batch.BatchID.String(), err)
		}
		if skip != nil {
			skipped++
			if recordErr := s.auditRecorder.RecordSkip(ctx, batch.AccountRef, batch.BatchID, batch.CorrelationID, *skip); recordErr != nil {
				logger.Error("Failed to record skip diagnostic", "batch_id", batch.BatchID.String(), "reason", skip.Detail, "error", recordErr)
			}
			continue
		}
		ingested++
		logger.Debug("Ingested movement", "movement_id", mov.ID.String(), "external_doc_ref", mov.ExternalDocRef)
	}

	logger.Info("Statement batch ingested",
		"batch_id", batch.BatchID.String(),
		"ingested", ingested,
		"skipped", skipped,
	)

	// 3. Generate and apply suggestions for the account
	if err := s.suggestMatches(ctx, batch, logger); err != nil {
		return err
	}

	return nil
}

// suggestMatches scores the account's unmatched debits and applies the top
// suggestion per movement. Each suggestion commits in its own transaction;
// losing a race for a movement is logged, not retried, because the movement
// is no longer unmatched.
func (s *IngestionServiceImpl) suggestMatches(ctx context.Context, batch *shared.StatementBatch, logger *slog.Logger) error {
	candidates, generationSkips, err := s.suggester.GenerateSuggestions(ctx, batch.AccountRef)
	if err != nil {
		logger.Error("Failed to generate suggestions", "account_ref", batch.AccountRef.String(), "error", err)
		return fmt.Errorf("generating suggestions for account %s failed: %w", batch.AccountRef.String(), err)
	}

	for _, skip := range generationSkips {
		diagnostic := SkipDiagnostic{Category: shared.SkipReasonInvalidRecord, Detail: skip.Reason}
		if recordErr := s.auditRecorder.RecordSkip(ctx, batch.AccountRef, skip.MovementID, batch.CorrelationID, diagnostic); recordErr != nil {
			logger.Error("Failed to record generation skip diagnostic", "reason", skip.Reason, "error", recordErr)
		}
	}

	proposed := 0
	for _, candidate := range matching.TopCandidatePerMovement(candidates) {
		var mov *movement.Movement
		err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
			var applyErr error
			mov, applyErr = s.suggester.ApplySuggestion(ctx, tx, candidate, batch.CorrelationID)
			return applyErr
		})
		if err != nil {
			var invalid movement.ErrInvalidTransition
			var concurrent movement.ErrConcurrentModification
			if errors.As(err, &invalid) || errors.As(err, &concurrent) {
				// Another worker or a user transition got there first
				logger.Info("Skipping suggestion, movement no longer unmatched",
					"movement_id", candidate.MovementID.String(),
					"obligation_id", candidate.ObligationID.String(),
				)
				continue
			}
			logger.Error("Failed to apply suggestion",
				"movement_id", candidate.MovementID.String(),
				"obligation_id", candidate.ObligationID.String(),
				"error", err,
			)
			continue
		}

		proposed++
		if recordErr := s.auditRecorder.RecordProposal(ctx, mov, batch.CorrelationID); recordErr != nil {
			logger.Error("Failed to record proposal audit entry", "movement_id", mov.ID.String(), "error", recordErr)
		}
	}

	logger.Info("Suggestion generation completed",
		"account_ref", batch.AccountRef.String(),
		"candidates", len(candidates),
		"proposed", proposed,
	)
	return nil
}
