package obligation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrNonPositiveAmount = errors.New("obligation amount must be positive")
	ErrEmptyCreditorName = errors.New("creditor name cannot be empty")
	ErrMissingDueDate    = errors.New("obligation requires a due date")
)

// Obligation represents an open payable the organization owes to a creditor.
// Its own payment lifecycle belongs to the payables subsystem; this engine
// only reads obligations.
type Obligation struct {
	ID           uuid.UUID       `json:"id"`
	DueDate      time.Time       `json:"due_date"`
	CreditorName string          `json:"creditor_name"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewObligation creates an obligation, rejecting non-positive amounts at the
// boundary so the scoring function never has to divide by zero.
func NewObligation(dueDate time.Time, creditorName string, amount decimal.Decimal, description string) (*Obligation, error) {
	if dueDate.IsZero() {
		return nil, ErrMissingDueDate
	}
	if creditorName == "" {
		return nil, ErrEmptyCreditorName
	}
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}

	return &Obligation{
		ID:           uuid.New(),
		DueDate:      dueDate,
		CreditorName: creditorName,
		Amount:       amount,
		Description:  description,
		CreatedAt:    time.Now(),
	}, nil
}

// Repository defines obligation read operations. The engine never mutates
// obligations.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Obligation, error)
	ListOpen(ctx context.Context) ([]*Obligation, error)
}

// ErrObligationNotFound indicates missing obligation
type ErrObligationNotFound struct {
	ObligationID uuid.UUID
}

func (e ErrObligationNotFound) Error() string {
	return "obligation not found: " + e.ObligationID.String()
}
