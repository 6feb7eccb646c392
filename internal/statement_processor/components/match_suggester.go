package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/obligation"
	"github.com/statement-reconciliation/internal/domain/outbox"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/matching"
	"github.com/statement-reconciliation/internal/statement_processor/service"
)

type MatchSuggesterImpl struct {
	movementRepo   movement.Repository
	obligationRepo obligation.Repository
	outboxRepo     outbox.Repository
	matchingCfg    matching.Config
	logger         *slog.Logger
}

func NewMatchSuggester(
	movementRepo movement.Repository,
	obligationRepo obligation.Repository,
	outboxRepo outbox.Repository,
	matchingCfg matching.Config,
	logger *slog.Logger,
) service.MatchSuggester {
	return &MatchSuggesterImpl{
		movementRepo:   movementRepo,
		obligationRepo: obligationRepo,
		outboxRepo:     outboxRepo,
		matchingCfg:    matchingCfg,
		logger:         logger,
	}
}

// GenerateSuggestions scores the account's unmatched debits against all open
// obligations
func (m *MatchSuggesterImpl) GenerateSuggestions(ctx context.Context, accountRef uuid.UUID) ([]matching.Candidate, []matching.SkippedRecord, error) {
	movements, err := m.movementRepo.ListUnmatchedDebits(ctx, accountRef)
	if err != nil {
		return nil, nil, fmt.Errorf("listing unmatched debits for account %s failed: %w", accountRef.String(), err)
	}

	obligations, err := m.obligationRepo.ListOpen(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing open obligations failed: %w", err)
	}

	candidates, skipped := matching.GenerateCandidates(movements, obligations, m.matchingCfg)
	return candidates, skipped, nil
}

// ApplySuggestion locks the movement, applies the propose transition and
// writes the outbox event, all on the supplied transaction
func (m *MatchSuggesterImpl) ApplySuggestion(ctx context.Context, tx pgx.Tx, candidate matching.Candidate, correlationID string) (*movement.Movement, error) {
	movementRepo := m.movementRepo.WithTx(tx)

	mov, err := movementRepo.LockForUpdate(ctx, candidate.MovementID)
	if err != nil {
		return nil, err
	}

	if err := mov.Propose(candidate.ObligationID, candidate.Score); err != nil {
		return nil, err
	}

	if err := movementRepo.Update(ctx, mov); err != nil {
		return nil, err
	}

	event := &shared.ReconciliationEvent{
		EventID:       uuid.New(),
		MovementID:    mov.ID,
		ObligationID:  mov.LinkedObligationID,
		Action:        shared.ActionProposed,
		Score:         mov.MatchScore,
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
	}
	message, err := outbox.NewMessage(event)
	if err != nil {
		return nil, err
	}
	if err := m.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		return nil, err
	}

	return mov, nil
}
