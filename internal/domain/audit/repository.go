package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines audit trail persistence operations
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByMovementID(ctx context.Context, movementID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByMovementID(ctx context.Context, movementID uuid.UUID) (int64, error)
}

// ErrEntryNotFound indicates missing audit entry
type ErrEntryNotFound struct {
	EventID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "audit entry not found: " + e.EventID.String()
}

// ErrDuplicateEntry indicates an audit entry already exists for the event
type ErrDuplicateEntry struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "audit entry already exists for event: " + e.EventID.String()
}
