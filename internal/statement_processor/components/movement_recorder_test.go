package components

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMovementRepository for component tests
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, mov *movement.Movement) error {
	args := m.Called(ctx, mov)
	return args.Error(0)
}

func (m *MockMovementRepository) GetByID(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockMovementRepository) GetByExternalDocRef(ctx context.Context, accountRef uuid.UUID, externalDocRef string) (*movement.Movement, error) {
	args := m.Called(ctx, accountRef, externalDocRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockMovementRepository) GetByAccountRef(ctx context.Context, accountRef uuid.UUID, limit, offset int) ([]*movement.Movement, error) {
	args := m.Called(ctx, accountRef, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*movement.Movement), args.Error(1)
}

func (m *MockMovementRepository) CountByAccountRef(ctx context.Context, accountRef uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountRef)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMovementRepository) ListUnmatchedDebits(ctx context.Context, accountRef uuid.UUID) ([]*movement.Movement, error) {
	args := m.Called(ctx, accountRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*movement.Movement), args.Error(1)
}

func (m *MockMovementRepository) Update(ctx context.Context, mov *movement.Movement) error {
	args := m.Called(ctx, mov)
	return args.Error(0)
}

func (m *MockMovementRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockMovementRepository) WithTx(tx pgx.Tx) movement.Repository {
	return m
}

func componentLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func recorderBatch(accountRef uuid.UUID) *shared.StatementBatch {
	return &shared.StatementBatch{
		BatchID:       uuid.New(),
		AccountRef:    accountRef,
		CorrelationID: "corr1",
		Movements: []shared.NormalizedMovement{
			{
				ExternalDocRef: "DOC-0001",
				Date:           time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
				Description:    "wire transfer acme supplies",
				Amount:         decimal.NewFromFloat(2500.00),
				Direction:      shared.DirectionDebit,
			},
		},
	}
}

func TestMovementRecorder_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockMovementRepository)
		recorder := NewMovementRecorder(mockRepo, componentLogger())

		accountRef := uuid.New()
		batch := recorderBatch(accountRef)

		mockRepo.On("GetByExternalDocRef", ctx, accountRef, "DOC-0001").Return(nil, nil).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(mov *movement.Movement) bool {
			return mov.AccountRef == accountRef &&
				mov.ExternalDocRef == "DOC-0001" &&
				mov.Status == shared.MovementStatusUnmatched
		})).Return(nil).Once()

		mov, skip, err := recorder.Record(ctx, batch, batch.Movements[0])

		assert.NoError(t, err)
		assert.Nil(t, skip)
		require.NotNil(t, mov)
		assert.True(t, mov.CheckInvariant())
		mockRepo.AssertExpectations(t)
	})

	t.Run("ZeroAmountRecordIsIngested", func(t *testing.T) {
		mockRepo := new(MockMovementRepository)
		recorder := NewMovementRecorder(mockRepo, componentLogger())

		accountRef := uuid.New()
		batch := recorderBatch(accountRef)
		record := batch.Movements[0]
		record.Amount = decimal.Zero

		mockRepo.On("GetByExternalDocRef", ctx, accountRef, "DOC-0001").Return(nil, nil).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(mov *movement.Movement) bool {
			return mov.Amount.IsZero()
		})).Return(nil).Once()

		mov, skip, err := recorder.Record(ctx, batch, record)

		assert.NoError(t, err)
		assert.Nil(t, skip)
		require.NotNil(t, mov)
		mockRepo.AssertExpectations(t)
	})

	t.Run("InvalidRecordIsSkipped", func(t *testing.T) {
		mockRepo := new(MockMovementRepository)
		recorder := NewMovementRecorder(mockRepo, componentLogger())

		accountRef := uuid.New()
		batch := recorderBatch(accountRef)
		record := batch.Movements[0]
		record.Direction = shared.Direction("TRANSFER")

		mov, skip, err := recorder.Record(ctx, batch, record)

		assert.NoError(t, err)
		assert.Nil(t, mov)
		require.NotNil(t, skip)
		assert.Equal(t, shared.SkipReasonInvalidRecord, skip.Category)
		assert.NotEmpty(t, skip.Detail)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("DuplicateDocRefIsSkipped", func(t *testing.T) {
		mockRepo := new(MockMovementRepository)
		recorder := NewMovementRecorder(mockRepo, componentLogger())

		accountRef := uuid.New()
		batch := recorderBatch(accountRef)
		existing := &movement.Movement{ID: uuid.New(), AccountRef: accountRef, ExternalDocRef: "DOC-0001"}

		mockRepo.On("GetByExternalDocRef", ctx, accountRef, "DOC-0001").Return(existing, nil).Once()

		mov, skip, err := recorder.Record(ctx, batch, batch.Movements[0])

		assert.NoError(t, err)
		assert.Nil(t, mov)
		require.NotNil(t, skip)
		assert.Equal(t, shared.SkipReasonDuplicateMovement, skip.Category)
		assert.Contains(t, skip.Detail, "duplicate document reference")
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ConcurrentDuplicateIsSkipped", func(t *testing.T) {
		mockRepo := new(MockMovementRepository)
		recorder := NewMovementRecorder(mockRepo, componentLogger())

		accountRef := uuid.New()
		batch := recorderBatch(accountRef)

		mockRepo.On("GetByExternalDocRef", ctx, accountRef, "DOC-0001").Return(nil, nil).Once()
		mockRepo.On("Create", ctx, mock.AnythingOfType("*movement.Movement")).
			Return(movement.ErrDuplicateMovement{AccountRef: accountRef, ExternalDocRef: "DOC-0001"}).Once()

		mov, skip, err := recorder.Record(ctx, batch, batch.Movements[0])

		assert.NoError(t, err)
		assert.Nil(t, mov)
		require.NotNil(t, skip)
		assert.Equal(t, shared.SkipReasonDuplicateMovement, skip.Category)
		assert.Contains(t, skip.Detail, "duplicate document reference")
	})

	t.Run("RepositoryErrorIsReturned", func(t *testing.T) {
		mockRepo := new(MockMovementRepository)
		recorder := NewMovementRecorder(mockRepo, componentLogger())

		accountRef := uuid.New()
		batch := recorderBatch(accountRef)
		dbErr := errors.New("postgres unavailable")

		mockRepo.On("GetByExternalDocRef", ctx, accountRef, "DOC-0001").Return(nil, dbErr).Once()

		mov, skip, err := recorder.Record(ctx, batch, batch.Movements[0])

		assert.Error(t, err)
		assert.Nil(t, mov)
		assert.Nil(t, skip)
	})

	t.Run("NoDocRefSkipsDuplicateCheck", func(t *testing.T) {
		mockRepo := new(MockMovementRepository)
		recorder := NewMovementRecorder(mockRepo, componentLogger())

		accountRef := uuid.New()
		batch := recorderBatch(accountRef)
		record := batch.Movements[0]
		record.ExternalDocRef = ""

		mockRepo.On("Create", ctx, mock.AnythingOfType("*movement.Movement")).Return(nil).Once()

		mov, skip, err := recorder.Record(ctx, batch, record)

		assert.NoError(t, err)
		assert.Nil(t, skip)
		assert.NotNil(t, mov)
		mockRepo.AssertNotCalled(t, "GetByExternalDocRef", mock.Anything, mock.Anything, mock.Anything)
	})
}
