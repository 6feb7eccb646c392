package movement

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/statement-reconciliation/internal/domain/shared"
)

// Repository defines movement persistence operations
type Repository interface {
	Create(ctx context.Context, mov *Movement) error
	GetByID(ctx context.Context, id uuid.UUID) (*Movement, error)
	GetByExternalDocRef(ctx context.Context, accountRef uuid.UUID, externalDocRef string) (*Movement, error)
	GetByAccountRef(ctx context.Context, accountRef uuid.UUID, limit, offset int) ([]*Movement, error)
	CountByAccountRef(ctx context.Context, accountRef uuid.UUID) (int64, error)

	// ListUnmatchedDebits returns the movements eligible for candidate
	// generation: direction DEBIT, status UNMATCHED.
	ListUnmatchedDebits(ctx context.Context, accountRef uuid.UUID) ([]*Movement, error)

	// Update persists reconciliation state using optimistic locking
	Update(ctx context.Context, mov *Movement) error

	// LockForUpdate acquires a pessimistic row lock for transition processing
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Movement, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrInvalidTransition indicates a state-machine operation applied from a
// state that does not permit it. It is a caller logic error, never retried.
type ErrInvalidTransition struct {
	MovementID uuid.UUID
	Operation  string
	Current    shared.MovementStatus
}

func (e ErrInvalidTransition) Error() string {
	return "invalid transition " + e.Operation + " for movement " + e.MovementID.String() + " in state " + string(e.Current)
}

// ErrMovementNotFound indicates missing movement
type ErrMovementNotFound struct {
	MovementID uuid.UUID
}

func (e ErrMovementNotFound) Error() string {
	return "movement not found: " + e.MovementID.String()
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	MovementID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for movement: " + e.MovementID.String()
}

// ErrDuplicateMovement indicates the bank document reference was already ingested
type ErrDuplicateMovement struct {
	AccountRef     uuid.UUID
	ExternalDocRef string
}

func (e ErrDuplicateMovement) Error() string {
	return "movement with document reference already ingested: " + e.ExternalDocRef + " on account " + e.AccountRef.String()
}
