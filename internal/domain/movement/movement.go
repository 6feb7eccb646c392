package movement

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/statement-reconciliation/internal/domain/shared"
)

// Common errors
var (
	ErrNegativeAmount       = errors.New("movement amount must not be negative")
	ErrEmptyDescription     = errors.New("movement description cannot be empty")
	ErrMissingAccountRef    = errors.New("movement requires an account reference")
	ErrMissingDate          = errors.New("movement requires a posting date")
	ErrInvalidDirection     = errors.New("movement direction must be DEBIT or CREDIT")
	ErrScoreOutOfRange      = errors.New("match score must be between 0 and 100")
	ErrObligationIDRequired = errors.New("obligation id is required when confirming an unmatched movement")
)

// Movement represents a single bank-statement line item on one account.
// Its reconciliation state is only ever mutated through the transition
// methods below; all other fields are immutable after construction.
type Movement struct {
	ID                 uuid.UUID             `json:"id"`
	AccountRef         uuid.UUID             `json:"account_ref"`
	Date               time.Time             `json:"date"`
	Description        string                `json:"description"`
	Amount             decimal.Decimal       `json:"amount"` // Non-negative magnitude; sign lives in Direction
	Direction          shared.Direction      `json:"direction"`
	ExternalDocRef     string                `json:"external_doc_ref,omitempty"`
	Status             shared.MovementStatus `json:"status"`
	LinkedObligationID *uuid.UUID            `json:"linked_obligation_id,omitempty"`
	MatchScore         *int                  `json:"match_score,omitempty"`
	Version            int                   `json:"version"` // For optimistic locking
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// NewMovement creates an unmatched movement, validating required fields at
// the model boundary so the matching and store layers stay total over any
// constructed value.
func NewMovement(accountRef uuid.UUID, date time.Time, description string, amount decimal.Decimal, direction shared.Direction, externalDocRef string) (*Movement, error) {
	if accountRef == uuid.Nil {
		return nil, ErrMissingAccountRef
	}
	if date.IsZero() {
		return nil, ErrMissingDate
	}
	if description == "" {
		return nil, ErrEmptyDescription
	}
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if direction != shared.DirectionDebit && direction != shared.DirectionCredit {
		return nil, ErrInvalidDirection
	}

	return &Movement{
		ID:             uuid.New(),
		AccountRef:     accountRef,
		Date:           date,
		Description:    description,
		Amount:         amount,
		Direction:      direction,
		ExternalDocRef: externalDocRef,
		Status:         shared.MovementStatusUnmatched,
		Version:        1,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}, nil
}

// Validate re-checks boundary invariants on a movement that may not have been
// built through NewMovement (e.g. decoded from an external snapshot).
func (m *Movement) Validate() error {
	if m.AccountRef == uuid.Nil {
		return ErrMissingAccountRef
	}
	if m.Date.IsZero() {
		return ErrMissingDate
	}
	if m.Description == "" {
		return ErrEmptyDescription
	}
	if m.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if m.Direction != shared.DirectionDebit && m.Direction != shared.DirectionCredit {
		return ErrInvalidDirection
	}
	return nil
}

// Propose records a candidate pairing as a suggestion. Valid only from
// UNMATCHED; it never auto-confirms.
func (m *Movement) Propose(obligationID uuid.UUID, score int) error {
	if m.Status != shared.MovementStatusUnmatched {
		return ErrInvalidTransition{MovementID: m.ID, Operation: "propose", Current: m.Status}
	}
	if score < 0 || score > 100 {
		return ErrScoreOutOfRange
	}

	m.Status = shared.MovementStatusSuggested
	m.LinkedObligationID = &obligationID
	m.MatchScore = &score
	m.touch()
	return nil
}

// Accept confirms a link. From UNMATCHED an obligation id is required (a
// manual link without prior suggestion) and the match score stays unset.
// From SUGGESTED the id is optional and defaults to the suggested
// obligation; passing a different id is an explicit manual override, which
// clears the stored score since the link no longer derives from the
// suggestion.
func (m *Movement) Accept(obligationID *uuid.UUID) error {
	switch m.Status {
	case shared.MovementStatusUnmatched:
		if obligationID == nil || *obligationID == uuid.Nil {
			return ErrObligationIDRequired
		}
		id := *obligationID
		m.LinkedObligationID = &id
		m.MatchScore = nil
	case shared.MovementStatusSuggested:
		if obligationID != nil && *obligationID != uuid.Nil && *obligationID != *m.LinkedObligationID {
			id := *obligationID
			m.LinkedObligationID = &id
			m.MatchScore = nil
		}
	default:
		return ErrInvalidTransition{MovementID: m.ID, Operation: "accept", Current: m.Status}
	}

	m.Status = shared.MovementStatusConfirmed
	m.touch()
	return nil
}

// Reject discards a suggestion, returning the movement to UNMATCHED. The
// engine keeps no rejection ledger; re-running generation over unchanged
// inputs will reproduce the suggestion.
func (m *Movement) Reject() error {
	if m.Status != shared.MovementStatusSuggested {
		return ErrInvalidTransition{MovementID: m.ID, Operation: "reject", Current: m.Status}
	}

	m.clearLink()
	return nil
}

// Unlink undoes a confirmed link. This is the only path out of CONFIRMED;
// re-linking requires a fresh Propose or Accept afterwards.
func (m *Movement) Unlink() error {
	if m.Status != shared.MovementStatusConfirmed {
		return ErrInvalidTransition{MovementID: m.ID, Operation: "unlink", Current: m.Status}
	}

	m.clearLink()
	return nil
}

// CheckInvariant verifies the state/link coupling: a movement is UNMATCHED
// iff it carries neither an obligation link nor a match score.
func (m *Movement) CheckInvariant() bool {
	if m.Status == shared.MovementStatusUnmatched {
		return m.LinkedObligationID == nil && m.MatchScore == nil
	}
	return m.LinkedObligationID != nil
}

func (m *Movement) clearLink() {
	m.Status = shared.MovementStatusUnmatched
	m.LinkedObligationID = nil
	m.MatchScore = nil
	m.touch()
}

func (m *Movement) touch() {
	m.UpdatedAt = time.Now()
	m.Version++
}
