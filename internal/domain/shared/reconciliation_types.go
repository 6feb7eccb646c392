package shared

// Direction defines which way money moved on the bank account
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"  // Money leaving the account
	DirectionCredit Direction = "CREDIT" // Money entering the account
)

// MovementStatus defines the reconciliation lifecycle of a bank movement
type MovementStatus string

const (
	MovementStatusUnmatched MovementStatus = "UNMATCHED"
	MovementStatusSuggested MovementStatus = "SUGGESTED"
	MovementStatusConfirmed MovementStatus = "CONFIRMED"
)

// ReconciliationAction defines the transition operations applied to a movement
type ReconciliationAction string

const (
	ActionProposed  ReconciliationAction = "PROPOSED"
	ActionConfirmed ReconciliationAction = "CONFIRMED"
	ActionRejected  ReconciliationAction = "REJECTED"
	ActionUnlinked  ReconciliationAction = "UNLINKED"
)

// SkipReason defines ingestion skip categories recorded as diagnostics
type SkipReason string

const (
	SkipReasonInvalidRecord     SkipReason = "INVALID_RECORD"
	SkipReasonDuplicateMovement SkipReason = "DUPLICATE_MOVEMENT"
)

// OutboxStatus defines reconciliation event publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
