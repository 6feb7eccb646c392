package components

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/statement-reconciliation/internal/domain/audit"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/statement_processor/service"
)

type AuditRecorderImpl struct {
	auditRepo audit.Repository
	logger    *slog.Logger
}

func NewAuditRecorder(auditRepo audit.Repository, logger *slog.Logger) service.AuditRecorder {
	return &AuditRecorderImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// RecordSkip writes an ingestion diagnostic to the audit trail
func (r *AuditRecorderImpl) RecordSkip(ctx context.Context, accountRef, movementID uuid.UUID, correlationID string, skip service.SkipDiagnostic) error {
	entry := &audit.Entry{
		EventID:       uuid.New(),
		MovementID:    movementID,
		AccountRef:    accountRef,
		SkipCategory:  skip.Category,
		SkipReason:    skip.Detail,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
	return r.auditRepo.Create(ctx, entry)
}

// RecordProposal writes the audit entry for an applied suggestion
func (r *AuditRecorderImpl) RecordProposal(ctx context.Context, mov *movement.Movement, correlationID string) error {
	entry := &audit.Entry{
		EventID:       uuid.New(),
		MovementID:    mov.ID,
		AccountRef:    mov.AccountRef,
		ObligationID:  mov.LinkedObligationID,
		Action:        shared.ActionProposed,
		Score:         mov.MatchScore,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
	return r.auditRepo.Create(ctx, entry)
}
