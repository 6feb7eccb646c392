package movement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/statement-reconciliation/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnmatched(t *testing.T) *Movement {
	t.Helper()
	mov, err := NewMovement(
		uuid.New(),
		time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC),
		"PIX FORNECEDOR ABC LTDA",
		decimal.RequireFromString("2500.00"),
		shared.DirectionDebit,
		"DOC-0042",
	)
	require.NoError(t, err)
	return mov
}

// assertInvariant checks the state/link coupling after every transition.
func assertInvariant(t *testing.T, m *Movement) {
	t.Helper()
	require.True(t, m.CheckInvariant(),
		"status %s with link=%v score=%v violates the unmatched invariant", m.Status, m.LinkedObligationID, m.MatchScore)
}

func TestNewMovement(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		mov := newUnmatched(t)

		assert.NotEqual(t, uuid.Nil, mov.ID)
		assert.Equal(t, shared.MovementStatusUnmatched, mov.Status)
		assert.Nil(t, mov.LinkedObligationID)
		assert.Nil(t, mov.MatchScore)
		assert.Equal(t, 1, mov.Version)
		assertInvariant(t, mov)
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		now := time.Now()
		ref := uuid.New()

		tests := []struct {
			name    string
			build   func() (*Movement, error)
			wantErr error
		}{
			{"missing account ref", func() (*Movement, error) {
				return NewMovement(uuid.Nil, now, "x", decimal.NewFromInt(1), shared.DirectionDebit, "")
			}, ErrMissingAccountRef},
			{"zero date", func() (*Movement, error) {
				return NewMovement(ref, time.Time{}, "x", decimal.NewFromInt(1), shared.DirectionDebit, "")
			}, ErrMissingDate},
			{"empty description", func() (*Movement, error) {
				return NewMovement(ref, now, "", decimal.NewFromInt(1), shared.DirectionDebit, "")
			}, ErrEmptyDescription},
			{"negative amount", func() (*Movement, error) {
				return NewMovement(ref, now, "x", decimal.NewFromInt(-1), shared.DirectionDebit, "")
			}, ErrNegativeAmount},
			{"bad direction", func() (*Movement, error) {
				return NewMovement(ref, now, "x", decimal.NewFromInt(1), shared.Direction("SIDEWAYS"), "")
			}, ErrInvalidDirection},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := tt.build()
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})
}

func TestMovement_Propose(t *testing.T) {
	t.Run("FromUnmatched", func(t *testing.T) {
		mov := newUnmatched(t)
		oblID := uuid.New()

		require.NoError(t, mov.Propose(oblID, 83))

		assert.Equal(t, shared.MovementStatusSuggested, mov.Status)
		require.NotNil(t, mov.LinkedObligationID)
		assert.Equal(t, oblID, *mov.LinkedObligationID)
		require.NotNil(t, mov.MatchScore)
		assert.Equal(t, 83, *mov.MatchScore)
		assert.Equal(t, 2, mov.Version)
		assertInvariant(t, mov)
	})

	t.Run("ScoreOutOfRange", func(t *testing.T) {
		mov := newUnmatched(t)
		assert.ErrorIs(t, mov.Propose(uuid.New(), 101), ErrScoreOutOfRange)
		assert.ErrorIs(t, mov.Propose(uuid.New(), -1), ErrScoreOutOfRange)
		assert.Equal(t, shared.MovementStatusUnmatched, mov.Status)
		assertInvariant(t, mov)
	})

	t.Run("FromSuggestedFails", func(t *testing.T) {
		mov := newUnmatched(t)
		require.NoError(t, mov.Propose(uuid.New(), 80))

		err := mov.Propose(uuid.New(), 90)

		var invalid ErrInvalidTransition
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "propose", invalid.Operation)
		assert.Equal(t, shared.MovementStatusSuggested, invalid.Current)
		assertInvariant(t, mov)
	})
}

func TestMovement_Accept(t *testing.T) {
	t.Run("FromSuggestedDefaultsToLinkedObligation", func(t *testing.T) {
		mov := newUnmatched(t)
		oblID := uuid.New()
		require.NoError(t, mov.Propose(oblID, 95))

		require.NoError(t, mov.Accept(nil))

		assert.Equal(t, shared.MovementStatusConfirmed, mov.Status)
		assert.Equal(t, oblID, *mov.LinkedObligationID)
		require.NotNil(t, mov.MatchScore, "score carried over for audit")
		assert.Equal(t, 95, *mov.MatchScore)
		assertInvariant(t, mov)
	})

	t.Run("FromSuggestedWithOverrideClearsScore", func(t *testing.T) {
		mov := newUnmatched(t)
		require.NoError(t, mov.Propose(uuid.New(), 95))
		override := uuid.New()

		require.NoError(t, mov.Accept(&override))

		assert.Equal(t, shared.MovementStatusConfirmed, mov.Status)
		assert.Equal(t, override, *mov.LinkedObligationID)
		assert.Nil(t, mov.MatchScore, "score no longer derives from the suggestion")
		assertInvariant(t, mov)
	})

	t.Run("FromUnmatchedRequiresObligation", func(t *testing.T) {
		mov := newUnmatched(t)
		assert.ErrorIs(t, mov.Accept(nil), ErrObligationIDRequired)
		assert.Equal(t, shared.MovementStatusUnmatched, mov.Status)
		assertInvariant(t, mov)
	})

	t.Run("ManualLinkFromUnmatched", func(t *testing.T) {
		mov := newUnmatched(t)
		oblID := uuid.New()

		require.NoError(t, mov.Accept(&oblID))

		assert.Equal(t, shared.MovementStatusConfirmed, mov.Status)
		assert.Equal(t, oblID, *mov.LinkedObligationID)
		assert.Nil(t, mov.MatchScore, "manual links carry no score")
		assertInvariant(t, mov)
	})

	t.Run("DoubleAcceptFails", func(t *testing.T) {
		mov := newUnmatched(t)
		require.NoError(t, mov.Propose(uuid.New(), 95))
		require.NoError(t, mov.Accept(nil))

		err := mov.Accept(nil)

		var invalid ErrInvalidTransition
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "accept", invalid.Operation)
		assert.Equal(t, shared.MovementStatusConfirmed, invalid.Current)
		assert.Equal(t, mov.ID, invalid.MovementID)
		assertInvariant(t, mov)
	})
}

func TestMovement_Reject(t *testing.T) {
	t.Run("FromSuggested", func(t *testing.T) {
		mov := newUnmatched(t)
		require.NoError(t, mov.Propose(uuid.New(), 80))

		require.NoError(t, mov.Reject())

		assert.Equal(t, shared.MovementStatusUnmatched, mov.Status)
		assert.Nil(t, mov.LinkedObligationID)
		assert.Nil(t, mov.MatchScore)
		assertInvariant(t, mov)
	})

	t.Run("FromUnmatchedFails", func(t *testing.T) {
		mov := newUnmatched(t)

		err := mov.Reject()

		var invalid ErrInvalidTransition
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "reject", invalid.Operation)
		assert.Equal(t, shared.MovementStatusUnmatched, invalid.Current)
	})

	t.Run("FromConfirmedFails", func(t *testing.T) {
		mov := newUnmatched(t)
		oblID := uuid.New()
		require.NoError(t, mov.Accept(&oblID))

		var invalid ErrInvalidTransition
		require.ErrorAs(t, mov.Reject(), &invalid)
	})
}

func TestMovement_Unlink(t *testing.T) {
	t.Run("RoundTripRestoresUnmatchedState", func(t *testing.T) {
		mov := newUnmatched(t)
		before := *mov
		oblID := uuid.New()

		require.NoError(t, mov.Accept(&oblID))
		require.NoError(t, mov.Unlink())

		assert.Equal(t, shared.MovementStatusUnmatched, mov.Status)
		assert.Nil(t, mov.LinkedObligationID)
		assert.Nil(t, mov.MatchScore)
		// Identity and immutable fields are untouched; only the audit
		// fields (version, updated_at) advance.
		assert.Equal(t, before.ID, mov.ID)
		assert.Equal(t, before.AccountRef, mov.AccountRef)
		assert.True(t, before.Amount.Equal(mov.Amount))
		assert.Equal(t, before.Description, mov.Description)
		assert.Equal(t, before.Direction, mov.Direction)
		assert.Equal(t, before.ExternalDocRef, mov.ExternalDocRef)
		assert.Equal(t, before.Version+2, mov.Version)
		assertInvariant(t, mov)
	})

	t.Run("FromSuggestedFails", func(t *testing.T) {
		mov := newUnmatched(t)
		require.NoError(t, mov.Propose(uuid.New(), 75))

		var invalid ErrInvalidTransition
		require.ErrorAs(t, mov.Unlink(), &invalid)
		assert.Equal(t, "unlink", invalid.Operation)
	})

	t.Run("FromUnmatchedFails", func(t *testing.T) {
		mov := newUnmatched(t)

		var invalid ErrInvalidTransition
		require.ErrorAs(t, mov.Unlink(), &invalid)
	})
}

func TestErrInvalidTransition_Message(t *testing.T) {
	id := uuid.New()
	err := ErrInvalidTransition{MovementID: id, Operation: "accept", Current: shared.MovementStatusConfirmed}

	assert.Contains(t, err.Error(), "accept")
	assert.Contains(t, err.Error(), id.String())
	assert.Contains(t, err.Error(), "CONFIRMED")
}
