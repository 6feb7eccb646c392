package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmitStatementRequest represents a normalized bank statement batch submission
type SubmitStatementRequest struct {
	AccountRef string                  `json:"account_ref" binding:"required,uuid"`
	Source     string                  `json:"source,omitempty"`
	Movements  []SubmitMovementRequest `json:"movements" binding:"required,min=1,dive"`
}

// SubmitMovementRequest represents one statement line in a batch submission
type SubmitMovementRequest struct {
	ExternalDocRef string          `json:"external_doc_ref,omitempty"`
	Date           time.Time       `json:"date" binding:"required"`
	Description    string          `json:"description" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Direction      string          `json:"direction" binding:"required,oneof=DEBIT CREDIT"`
}

// ProposeRequest represents a request to suggest a link to an obligation
type ProposeRequest struct {
	ObligationID string `json:"obligation_id" binding:"required,uuid"`
}

// AcceptRequest represents a request to confirm a link. The obligation ID is
// required when confirming from UNMATCHED and optional from SUGGESTED.
type AcceptRequest struct {
	ObligationID string `json:"obligation_id,omitempty" binding:"omitempty,uuid"`
}

// MovementResponse represents a bank movement in API responses
type MovementResponse struct {
	ID                 string `json:"id"`
	AccountRef         string `json:"account_ref"`
	Date               string `json:"date"`
	Description        string `json:"description"`
	Amount             string `json:"amount"`
	Direction          string `json:"direction"`
	ExternalDocRef     string `json:"external_doc_ref,omitempty"`
	Status             string `json:"status"`
	LinkedObligationID string `json:"linked_obligation_id,omitempty"`
	MatchScore         *int   `json:"match_score,omitempty"`
	Version            int    `json:"version"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

// ObligationResponse represents a payable obligation in API responses
type ObligationResponse struct {
	ID           string `json:"id"`
	DueDate      string `json:"due_date"`
	CreditorName string `json:"creditor_name"`
	Amount       string `json:"amount"`
	Description  string `json:"description,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// CandidateResponse represents a ranked match candidate in API responses
type CandidateResponse struct {
	MovementID   string   `json:"movement_id"`
	ObligationID string   `json:"obligation_id"`
	Score        int      `json:"score"`
	Reasons      []string `json:"reasons"`
}

// SkippedRecordResponse reports an input record excluded from candidate generation
type SkippedRecordResponse struct {
	MovementID   string `json:"movement_id,omitempty"`
	ObligationID string `json:"obligation_id,omitempty"`
	Reason       string `json:"reason"`
}

// CandidateListResponse carries candidates alongside the records skipped
// while generating them
type CandidateListResponse struct {
	Candidates []CandidateResponse     `json:"candidates"`
	Skipped    []SkippedRecordResponse `json:"skipped,omitempty"`
}

// AuditEntryResponse represents one audit trail entry in API responses
type AuditEntryResponse struct {
	EventID       string `json:"event_id"`
	MovementID    string `json:"movement_id"`
	AccountRef    string `json:"account_ref"`
	ObligationID  string `json:"obligation_id,omitempty"`
	Action        string `json:"action,omitempty"`
	Score         *int   `json:"score,omitempty"`
	SkipCategory  string `json:"skip_category,omitempty"`
	SkipReason    string `json:"skip_reason,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
