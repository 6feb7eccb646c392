package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyBatch       = errors.New("statement batch contains no movements")
	ErrInvalidDirection = errors.New("invalid movement direction")
)

// StatementBatch defines a Kafka message carrying normalized bank movements.
// Bank-file parsing happens upstream; by the time a batch reaches this
// service every record is already in the shape below.
type StatementBatch struct {
	BatchID       uuid.UUID            `json:"batch_id"`
	AccountRef    uuid.UUID            `json:"account_ref"`
	Source        string               `json:"source,omitempty"`
	CorrelationID string               `json:"correlation_id"`
	Movements     []NormalizedMovement `json:"movements"`
	ReceivedAt    time.Time            `json:"received_at"`
}

// NormalizedMovement is one statement line inside a batch, prior to
// persistence and identifier assignment.
type NormalizedMovement struct {
	ExternalDocRef string          `json:"external_doc_ref,omitempty"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Direction      Direction       `json:"direction"`
}

// Validate checks batch-level requirements before any record is processed
func (b *StatementBatch) Validate() error {
	if len(b.Movements) == 0 {
		return ErrEmptyBatch
	}
	if b.AccountRef == uuid.Nil {
		return errors.New("statement batch requires an account reference")
	}
	return nil
}
