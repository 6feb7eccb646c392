package shared

import (
	"time"

	"github.com/google/uuid"
)

// ReconciliationEvent is the outbox payload published to Kafka whenever a
// movement transition is applied. Consumers downstream (payables, reporting)
// react to confirmed and unlinked links; proposals and rejections are
// published for audit symmetry.
type ReconciliationEvent struct {
	EventID       uuid.UUID            `json:"event_id"`
	MovementID    uuid.UUID            `json:"movement_id"`
	ObligationID  *uuid.UUID           `json:"obligation_id,omitempty"`
	Action        ReconciliationAction `json:"action"`
	Score         *int                 `json:"score,omitempty"`
	CorrelationID string               `json:"correlation_id,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}
