package components

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/statement-reconciliation/internal/domain/audit"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/statement-reconciliation/internal/statement_processor/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) GetByMovementID(ctx context.Context, movementID uuid.UUID, limit, offset int) ([]*audit.Entry, error) {
	args := m.Called(ctx, movementID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

func (m *MockAuditRepository) CountByMovementID(ctx context.Context, movementID uuid.UUID) (int64, error) {
	args := m.Called(ctx, movementID)
	return args.Get(0).(int64), args.Error(1)
}

func TestAuditRecorder_RecordSkip(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockAuditRepo := new(MockAuditRepository)
		recorder := NewAuditRecorder(mockAuditRepo, componentLogger())

		accountRef := uuid.New()
		movementID := uuid.New()

		mockAuditRepo.On("Create", ctx, mock.MatchedBy(func(entry *audit.Entry) bool {
			return entry.MovementID == movementID &&
				entry.AccountRef == accountRef &&
				entry.SkipCategory == shared.SkipReasonDuplicateMovement &&
				entry.SkipReason == "duplicate document reference: DOC-0001" &&
				entry.CorrelationID == "corr1" &&
				entry.EventID != uuid.Nil &&
				!entry.CreatedAt.IsZero()
		})).Return(nil).Once()

		err := recorder.RecordSkip(ctx, accountRef, movementID, "corr1", service.SkipDiagnostic{
			Category: shared.SkipReasonDuplicateMovement,
			Detail:   "duplicate document reference: DOC-0001",
		})

		assert.NoError(t, err)
		mockAuditRepo.AssertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		mockAuditRepo := new(MockAuditRepository)
		recorder := NewAuditRecorder(mockAuditRepo, componentLogger())

		mockAuditRepo.On("Create", ctx, mock.AnythingOfType("*audit.Entry")).
			Return(errors.New("mongo unavailable")).Once()

		err := recorder.RecordSkip(ctx, uuid.New(), uuid.New(), "corr1", service.SkipDiagnostic{
			Category: shared.SkipReasonInvalidRecord,
			Detail:   "some reason",
		})

		assert.Error(t, err)
	})
}

func TestAuditRecorder_RecordProposal(t *testing.T) {
	ctx := context.Background()

	mockAuditRepo := new(MockAuditRepository)
	recorder := NewAuditRecorder(mockAuditRepo, componentLogger())

	accountRef := uuid.New()
	obligationID := uuid.New()
	score := 80
	mov := &movement.Movement{
		ID:                 uuid.New(),
		AccountRef:         accountRef,
		Amount:             decimal.NewFromFloat(2500.00),
		Direction:          shared.DirectionDebit,
		Status:             shared.MovementStatusSuggested,
		LinkedObligationID: &obligationID,
		MatchScore:         &score,
	}

	mockAuditRepo.On("Create", ctx, mock.MatchedBy(func(entry *audit.Entry) bool {
		return entry.MovementID == mov.ID &&
			entry.AccountRef == accountRef &&
			entry.Action == shared.ActionProposed &&
			entry.ObligationID != nil && *entry.ObligationID == obligationID &&
			entry.Score != nil && *entry.Score == 80 &&
			entry.CorrelationID == "corr1"
	})).Return(nil).Once()

	err := recorder.RecordProposal(ctx, mov, "corr1")

	assert.NoError(t, err)
	mockAuditRepo.AssertExpectations(t)
}
