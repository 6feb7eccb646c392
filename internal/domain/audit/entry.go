package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/statement-reconciliation/internal/domain/shared"
)

// Entry records one applied reconciliation transition, or an ingestion
// diagnostic, in the audit trail. Entries are append-only.
type Entry struct {
	EventID       uuid.UUID                   `json:"event_id" bson:"event_id"`
	MovementID    uuid.UUID                   `json:"movement_id" bson:"movement_id"`
	AccountRef    uuid.UUID                   `json:"account_ref" bson:"account_ref"`
	ObligationID  *uuid.UUID                  `json:"obligation_id,omitempty" bson:"obligation_id,omitempty"`
	Action        shared.ReconciliationAction `json:"action,omitempty" bson:"action,omitempty"`
	Score         *int                        `json:"score,omitempty" bson:"score,omitempty"`
	SkipCategory  shared.SkipReason           `json:"skip_category,omitempty" bson:"skip_category,omitempty"`
	SkipReason    string                      `json:"skip_reason,omitempty" bson:"skip_reason,omitempty"`
	CorrelationID string                      `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time                   `json:"created_at" bson:"created_at"`
}
