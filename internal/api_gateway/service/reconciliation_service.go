package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/statement-reconciliation/internal/domain/audit"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/obligation"
	"github.com/statement-reconciliation/internal/domain/outbox"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/matching"
)

// ReconciliationServiceImpl implements the ReconciliationService interface.
// Every transition runs inside a database transaction: the movement row is
// locked, the state machine applied, and the outbox event written atomically.
// Racing operations on the same movement serialize on the row lock; the loser
// observes the post-transition state and gets ErrInvalidTransition.
type ReconciliationServiceImpl struct {
	txRunner       TxRunner
	movementRepo   movement.Repository
	obligationRepo obligation.Repository
	outboxRepo     outbox.Repository
	auditRepo      audit.Repository
	matchingCfg    matching.Config
	logger         *slog.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	logger *slog.Logger,
	txRunner TxRunner,
	movementRepo movement.Repository,
	obligationRepo obligation.Repository,
	outboxRepo outbox.Repository,
	auditRepo audit.Repository,
	matchingCfg matching.Config,
) ReconciliationService {
	return &ReconciliationServiceImpl{
		txRunner:       txRunner,
		movementRepo:   movementRepo,
		obligationRepo: obligationRepo,
		outboxRepo:     outboxRepo,
		auditRepo:      auditRepo,
		matchingCfg:    matchingCfg,
		logger:         logger,
	}
}

// GenerateCandidates scores unmatched debits against open obligations
func (s *ReconciliationServiceImpl) GenerateCandidates(ctx context.Context, accountRef uuid.UUID) ([]matching.Candidate, []matching.SkippedRecord, error) {
	movements, err := s.movementRepo.ListUnmatchedDebits(ctx, accountRef)
	if err != nil {
		s.logger.Error("Failed to list unmatched debits for candidate generation", "account_ref", accountRef.String(), "error", err)
		return nil, nil, err
	}

	obligations, err := s.obligationRepo.ListOpen(ctx)
	if err != nil {
		s.logger.Error("Failed to list open obligations for candidate generation", "error", err)
		return nil, nil, err
	}

	candidates, skipped := matching.GenerateCandidates(movements, obligations, s.matchingCfg)

	s.logger.Info("Generated match candidates",
		"account_ref", accountRef.String(),
		"movements", len(movements),
		"obligations", len(obligations),
		"candidates", len(candidates),
		"skipped", len(skipped),
	)

	return candidates, skipped, nil
}

// Propose links a movement to an obligation as a suggestion, scoring the pair
func (s *ReconciliationServiceImpl) Propose(ctx context.Context, movementID, obligationID uuid.UUID, correlationID string) (*movement.Movement, error) {
	obl, err := s.obligationRepo.GetByID(ctx, obligationID)
	if err != nil {
		return nil, err
	}

	var mov *movement.Movement
	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		movementRepo := s.movementRepo.WithTx(tx)

		locked, err := movementRepo.LockForUpdate(ctx, movementID)
		if err != nil {
			return err
		}

		score, _ := matching.Score(locked, obl)
		if err := locked.Propose(obligationID, score); err != nil {
			return err
		}

		if err := movementRepo.Update(ctx, locked); err != nil {
			return err
		}

		mov = locked
		return s.createOutboxEvent(ctx, tx, mov, shared.ActionProposed, correlationID)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, mov, shared.ActionProposed, correlationID)
	return mov, nil
}

// Accept confirms a link, from suggested state or as a manual link from unmatched
func (s *ReconciliationServiceImpl) Accept(ctx context.Context, movementID uuid.UUID, obligationID *uuid.UUID, correlationID string) (*movement.Movement, error) {
	if obligationID != nil {
		// Reject unknown obligations before touching the movement
		if _, err := s.obligationRepo.GetByID(ctx, *obligationID); err != nil {
			return nil, err
		}
	}

	var mov *movement.Movement
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		movementRepo := s.movementRepo.WithTx(tx)

		locked, err := movementRepo.LockForUpdate(ctx, movementID)
		if err != nil {
			return err
		}

		if err := locked.Accept(obligationID); err != nil {
			return err
		}

		if err := movementRepo.Update(ctx, locked); err != nil {
			return err
		}

		mov = locked
		return s.createOutboxEvent(ctx, tx, mov, shared.ActionConfirmed, correlationID)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, mov, shared.ActionConfirmed, correlationID)
	return mov, nil
}

// Reject dismisses a suggestion, returning the movement to unmatched
func (s *ReconciliationServiceImpl) Reject(ctx context.Context, movementID uuid.UUID, correlationID string) (*movement.Movement, error) {
	return s.applyUnlinking(ctx, movementID, shared.ActionRejected, correlationID, func(m *movement.Movement) error {
		return m.Reject()
	})
}

// Unlink reverses a confirmed link, returning the movement to unmatched
func (s *ReconciliationServiceImpl) Unlink(ctx context.Context, movementID uuid.UUID, correlationID string) (*movement.Movement, error) {
	return s.applyUnlinking(ctx, movementID, shared.ActionUnlinked, correlationID, func(m *movement.Movement) error {
		return m.Unlink()
	})
}

// applyUnlinking handles the two transitions that clear a link. The released
// obligation is captured before the transition so the event still names it.
func (s *ReconciliationServiceImpl) applyUnlinking(
	ctx context.Context,
	movementID uuid.UUID,
	action shared.ReconciliationAction,
	correlationID string,
	transition func(*movement.Movement) error,
) (*movement.Movement, error) {
	var mov *movement.Movement
	var released *uuid.UUID

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		movementRepo := s.movementRepo.WithTx(tx)

		locked, err := movementRepo.LockForUpdate(ctx, movementID)
		if err != nil {
			return err
		}

		released = locked.LinkedObligationID
		if err := transition(locked); err != nil {
			return err
		}

		if err := movementRepo.Update(ctx, locked); err != nil {
			return err
		}

		mov = locked
		event := &shared.ReconciliationEvent{
			EventID:       uuid.New(),
			MovementID:    mov.ID,
			ObligationID:  released,
			Action:        action,
			CorrelationID: correlationID,
			OccurredAt:    time.Now().UTC(),
		}
		return s.writeOutboxMessage(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.writeAuditEntry(ctx, &audit.Entry{
		EventID:       uuid.New(),
		MovementID:    mov.ID,
		AccountRef:    mov.AccountRef,
		ObligationID:  released,
		Action:        action,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	})
	return mov, nil
}

// createOutboxEvent builds the event from the movement's post-transition state
func (s *ReconciliationServiceImpl) createOutboxEvent(ctx context.Context, tx pgx.Tx, mov *movement.Movement, action shared.ReconciliationAction, correlationID string) error {
	event := &shared.ReconciliationEvent{
		EventID:       uuid.New(),
		MovementID:    mov.ID,
		ObligationID:  mov.LinkedObligationID,
		Action:        action,
		Score:         mov.MatchScore,
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
	}
	return s.writeOutboxMessage(ctx, tx, event)
}

func (s *ReconciliationServiceImpl) writeOutboxMessage(ctx context.Context, tx pgx.Tx, event *shared.ReconciliationEvent) error {
	message, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, message)
}

// recordAudit writes the audit entry for a linking transition after commit
func (s *ReconciliationServiceImpl) recordAudit(ctx context.Context, mov *movement.Movement, action shared.ReconciliationAction, correlationID string) {
	s.writeAuditEntry(ctx, &audit.Entry{
		EventID:       uuid.New(),
		MovementID:    mov.ID,
		AccountRef:    mov.AccountRef,
		ObligationID:  mov.LinkedObligationID,
		Action:        action,
		Score:         mov.MatchScore,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	})
}

// writeAuditEntry is best effort: the transition is already committed, so an
// audit failure is logged rather than surfaced to the caller.
func (s *ReconciliationServiceImpl) writeAuditEntry(ctx context.Context, entry *audit.Entry) {
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to write audit entry",
			"movement_id", entry.MovementID.String(),
			"action", string(entry.Action),
			"error", err,
		)
	}
}
