package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/matching"
)

// IngestionService defines the interface for processing statement batches.
type IngestionService interface {
	ProcessBatch(ctx context.Context, batch *shared.StatementBatch) error
}

// TxRunner abstracts transactional execution for suggestion transitions
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// SkipDiagnostic describes why a statement record was deliberately not
// ingested: a category for filtering the audit trail plus free-text detail.
type SkipDiagnostic struct {
	Category shared.SkipReason
	Detail   string
}

// MovementRecorder persists one statement record as an unmatched movement.
// A non-nil skip diagnostic means the record was deliberately not persisted
// (validation failure or duplicate document reference); an error means the
// attempt should be retried.
type MovementRecorder interface {
	Record(ctx context.Context, batch *shared.StatementBatch, record shared.NormalizedMovement) (*movement.Movement, *SkipDiagnostic, error)
}

// MatchSuggester scores freshly ingested movements against open obligations
// and applies the winning suggestions
type MatchSuggester interface {
	GenerateSuggestions(ctx context.Context, accountRef uuid.UUID) ([]matching.Candidate, []matching.SkippedRecord, error)
	ApplySuggestion(ctx context.Context, tx pgx.Tx, candidate matching.Candidate, correlationID string) (*movement.Movement, error)
}

// AuditRecorder writes ingestion diagnostics and applied suggestions to the
// audit trail
type AuditRecorder interface {
	RecordSkip(ctx context.Context, accountRef, movementID uuid.UUID, correlationID string, skip SkipDiagnostic) error
	RecordProposal(ctx context.Context, mov *movement.Movement, correlationID string) error
}
