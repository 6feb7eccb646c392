package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/statement-reconciliation/internal/domain/audit"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/obligation"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/matching"
)

// TxRunner abstracts transactional execution. Implemented by persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// StatementService defines the interface for statement intake operations
type StatementService interface {
	// SubmitStatement assigns a batch ID and publishes the normalized batch
	// for asynchronous ingestion. Returns the batch ID.
	SubmitStatement(ctx context.Context, batch *shared.StatementBatch) (uuid.UUID, error)
}

// MovementService defines read operations over ingested movements
type MovementService interface {
	// GetMovementByID retrieves a movement by its ID.
	// Returns nil if the movement is not found.
	GetMovementByID(ctx context.Context, id uuid.UUID) (*movement.Movement, error)

	// GetMovementsByAccountRef retrieves a paginated list of movements for an account.
	// Returns movements, total count, and any error.
	GetMovementsByAccountRef(ctx context.Context, accountRef uuid.UUID, page, perPage int) ([]*movement.Movement, int64, error)

	// GetAuditTrail retrieves the paginated audit trail of a movement, newest first
	GetAuditTrail(ctx context.Context, movementID uuid.UUID, page, perPage int) ([]*audit.Entry, int64, error)
}

// ObligationService defines read operations over open payable obligations
type ObligationService interface {
	// ListOpenObligations returns obligations still available for matching
	ListOpenObligations(ctx context.Context) ([]*obligation.Obligation, error)
}

// ReconciliationService applies link transitions and generates match candidates
type ReconciliationService interface {
	// GenerateCandidates scores unmatched debits against open obligations.
	// Returns ranked candidates above the threshold plus skipped-record diagnostics.
	GenerateCandidates(ctx context.Context, accountRef uuid.UUID) ([]matching.Candidate, []matching.SkippedRecord, error)

	// Propose links a movement to an obligation as a suggestion.
	// Returns ErrInvalidTransition unless the movement is unmatched.
	Propose(ctx context.Context, movementID, obligationID uuid.UUID, correlationID string) (*movement.Movement, error)

	// Accept confirms a link. From suggested state the obligation ID is
	// optional and defaults to the suggested obligation; from unmatched it is
	// required (manual link). Returns ErrInvalidTransition from confirmed.
	Accept(ctx context.Context, movementID uuid.UUID, obligationID *uuid.UUID, correlationID string) (*movement.Movement, error)

	// Reject dismisses a suggestion, returning the movement to unmatched
	Reject(ctx context.Context, movementID uuid.UUID, correlationID string) (*movement.Movement, error)

	// Unlink reverses a confirmed link, returning the movement to unmatched
	Unlink(ctx context.Context, movementID uuid.UUID, correlationID string) (*movement.Movement, error)
}
