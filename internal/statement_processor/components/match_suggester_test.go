package components

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/obligation"
	"github.com/statement-reconciliation/internal/domain/outbox"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObligationRepository struct {
	mock.Mock
}

func (m *MockObligationRepository) GetByID(ctx context.Context, id uuid.UUID) (*obligation.Obligation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*obligation.Obligation), args.Error(1)
}

func (m *MockObligationRepository) ListOpen(ctx context.Context) ([]*obligation.Obligation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*obligation.Obligation), args.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

func unmatchedDebit(accountRef uuid.UUID) *movement.Movement {
	return &movement.Movement{
		ID:          uuid.New(),
		AccountRef:  accountRef,
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "wire transfer acme supplies invoice 1042",
		Amount:      decimal.NewFromFloat(2500.00),
		Direction:   shared.DirectionDebit,
		Status:      shared.MovementStatusUnmatched,
		Version:     1,
	}
}

func openObligation() *obligation.Obligation {
	return &obligation.Obligation{
		ID:           uuid.New(),
		CreditorName: "Acme Supplies",
		Amount:       decimal.NewFromFloat(2500.00),
		DueDate:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestMatchSuggester_GenerateSuggestions(t *testing.T) {
	ctx := context.Background()
	cfg := matching.Config{MinScore: 70}

	t.Run("Success", func(t *testing.T) {
		mockMovementRepo := new(MockMovementRepository)
		mockObligationRepo := new(MockObligationRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		suggester := NewMatchSuggester(mockMovementRepo, mockObligationRepo, mockOutboxRepo, cfg, componentLogger())

		accountRef := uuid.New()
		mov := unmatchedDebit(accountRef)
		obl := openObligation()

		mockMovementRepo.On("ListUnmatchedDebits", ctx, accountRef).Return([]*movement.Movement{mov}, nil).Once()
		mockObligationRepo.On("ListOpen", ctx).Return([]*obligation.Obligation{obl}, nil).Once()

		candidates, skipped, err := suggester.GenerateSuggestions(ctx, accountRef)

		require.NoError(t, err)
		assert.Empty(t, skipped)
		require.Len(t, candidates, 1)
		assert.Equal(t, mov.ID, candidates[0].MovementID)
		assert.Equal(t, obl.ID, candidates[0].ObligationID)
		// Identical amount (40) + same day (30) + partial creditor overlap (10)
		assert.Equal(t, 80, candidates[0].Score)
	})

	t.Run("BelowThresholdYieldsNoCandidates", func(t *testing.T) {
		mockMovementRepo := new(MockMovementRepository)
		mockObligationRepo := new(MockObligationRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		suggester := NewMatchSuggester(mockMovementRepo, mockObligationRepo, mockOutboxRepo, cfg, componentLogger())

		accountRef := uuid.New()
		mov := unmatchedDebit(accountRef)
		obl := openObligation()
		obl.Amount = decimal.NewFromFloat(9000.00)
		obl.DueDate = obl.DueDate.AddDate(0, 2, 0)
		obl.CreditorName = "Globex"

		mockMovementRepo.On("ListUnmatchedDebits", ctx, accountRef).Return([]*movement.Movement{mov}, nil).Once()
		mockObligationRepo.On("ListOpen", ctx).Return([]*obligation.Obligation{obl}, nil).Once()

		candidates, skipped, err := suggester.GenerateSuggestions(ctx, accountRef)

		require.NoError(t, err)
		assert.Empty(t, candidates)
		assert.Empty(t, skipped)
	})

	t.Run("IncompleteObligationIsSkippedWithDiagnostic", func(t *testing.T) {
		mockMovementRepo := new(MockMovementRepository)
		mockObligationRepo := new(MockObligationRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		suggester := NewMatchSuggester(mockMovementRepo, mockObligationRepo, mockOutboxRepo, cfg, componentLogger())

		accountRef := uuid.New()
		mov := unmatchedDebit(accountRef)
		obl := openObligation()
		obl.CreditorName = ""

		mockMovementRepo.On("ListUnmatchedDebits", ctx, accountRef).Return([]*movement.Movement{mov}, nil).Once()
		mockObligationRepo.On("ListOpen", ctx).Return([]*obligation.Obligation{obl}, nil).Once()

		candidates, skipped, err := suggester.GenerateSuggestions(ctx, accountRef)

		require.NoError(t, err)
		assert.Empty(t, candidates)
		require.Len(t, skipped, 1)
		assert.Equal(t, obl.ID, skipped[0].ObligationID)
		assert.Contains(t, skipped[0].Reason, "missing required fields")
	})

	t.Run("MovementListError", func(t *testing.T) {
		mockMovementRepo := new(MockMovementRepository)
		mockObligationRepo := new(MockObligationRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		suggester := NewMatchSuggester(mockMovementRepo, mockObligationRepo, mockOutboxRepo, cfg, componentLogger())

		accountRef := uuid.New()
		mockMovementRepo.On("ListUnmatchedDebits", ctx, accountRef).Return(nil, errors.New("postgres unavailable")).Once()

		candidates, skipped, err := suggester.GenerateSuggestions(ctx, accountRef)

		assert.Error(t, err)
		assert.Nil(t, candidates)
		assert.Nil(t, skipped)
		mockObligationRepo.AssertNotCalled(t, "ListOpen", mock.Anything)
	})
}

func TestMatchSuggester_ApplySuggestion(t *testing.T) {
	ctx := context.Background()
	cfg := matching.Config{MinScore: 70}

	t.Run("Success", func(t *testing.T) {
		mockMovementRepo := new(MockMovementRepository)
		mockObligationRepo := new(MockObligationRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		suggester := NewMatchSuggester(mockMovementRepo, mockObligationRepo, mockOutboxRepo, cfg, componentLogger())

		accountRef := uuid.New()
		mov := unmatchedDebit(accountRef)
		obligationID := uuid.New()
		candidate := matching.Candidate{MovementID: mov.ID, ObligationID: obligationID, Score: 80}

		mockMovementRepo.On("LockForUpdate", ctx, mov.ID).Return(mov, nil).Once()
		mockMovementRepo.On("Update", ctx, mock.MatchedBy(func(updated *movement.Movement) bool {
			return updated.Status == shared.MovementStatusSuggested &&
				updated.LinkedObligationID != nil && *updated.LinkedObligationID == obligationID &&
				updated.MatchScore != nil && *updated.MatchScore == 80
		})).Return(nil).Once()
		mockOutboxRepo.On("Create", ctx, mock.MatchedBy(func(message *outbox.Message) bool {
			event, err := message.GetEvent()
			return err == nil &&
				event.MovementID == mov.ID &&
				event.Action == shared.ActionProposed &&
				event.CorrelationID == "corr1"
		})).Return(nil).Once()

		applied, err := suggester.ApplySuggestion(ctx, nil, candidate, "corr1")

		require.NoError(t, err)
		require.NotNil(t, applied)
		assert.Equal(t, shared.MovementStatusSuggested, applied.Status)
		mockMovementRepo.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("AlreadyLinkedMovementFailsTransition", func(t *testing.T) {
		mockMovementRepo := new(MockMovementRepository)
		mockObligationRepo := new(MockObligationRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		suggester := NewMatchSuggester(mockMovementRepo, mockObligationRepo, mockOutboxRepo, cfg, componentLogger())

		accountRef := uuid.New()
		mov := unmatchedDebit(accountRef)
		linked := uuid.New()
		score := 90
		mov.Status = shared.MovementStatusConfirmed
		mov.LinkedObligationID = &linked
		mov.MatchScore = &score

		candidate := matching.Candidate{MovementID: mov.ID, ObligationID: uuid.New(), Score: 80}
		mockMovementRepo.On("LockForUpdate", ctx, mov.ID).Return(mov, nil).Once()

		applied, err := suggester.ApplySuggestion(ctx, nil, candidate, "corr1")

		assert.Nil(t, applied)
		var invalid movement.ErrInvalidTransition
		assert.ErrorAs(t, err, &invalid)
		mockMovementRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		mockOutboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("LockError", func(t *testing.T) {
		mockMovementRepo := new(MockMovementRepository)
		mockObligationRepo := new(MockObligationRepository)
		mockOutboxRepo := new(MockOutboxRepository)
		suggester := NewMatchSuggester(mockMovementRepo, mockObligationRepo, mockOutboxRepo, cfg, componentLogger())

		candidate := matching.Candidate{MovementID: uuid.New(), ObligationID: uuid.New(), Score: 80}
		mockMovementRepo.On("LockForUpdate", ctx, candidate.MovementID).
			Return(nil, movement.ErrMovementNotFound{MovementID: candidate.MovementID}).Once()

		applied, err := suggester.ApplySuggestion(ctx, nil, candidate, "corr1")

		assert.Nil(t, applied)
		var notFound movement.ErrMovementNotFound
		assert.ErrorAs(t, err, &notFound)
	})
}
