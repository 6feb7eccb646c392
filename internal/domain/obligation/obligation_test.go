package obligation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObligation(t *testing.T) {
	due := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)

	t.Run("SuccessfulCreation", func(t *testing.T) {
		obl, err := NewObligation(due, "Fornecedor ABC Ltda", decimal.RequireFromString("2500.00"), "september invoice")

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, obl.ID)
		assert.Equal(t, "Fornecedor ABC Ltda", obl.CreditorName)
		assert.True(t, obl.Amount.Equal(decimal.RequireFromString("2500.00")))
	})

	t.Run("RejectsZeroAmount", func(t *testing.T) {
		_, err := NewObligation(due, "Fornecedor ABC Ltda", decimal.Zero, "")
		assert.ErrorIs(t, err, ErrNonPositiveAmount)
	})

	t.Run("RejectsNegativeAmount", func(t *testing.T) {
		_, err := NewObligation(due, "Fornecedor ABC Ltda", decimal.NewFromInt(-10), "")
		assert.ErrorIs(t, err, ErrNonPositiveAmount)
	})

	t.Run("RejectsEmptyCreditor", func(t *testing.T) {
		_, err := NewObligation(due, "", decimal.NewFromInt(10), "")
		assert.ErrorIs(t, err, ErrEmptyCreditorName)
	})

	t.Run("RejectsZeroDueDate", func(t *testing.T) {
		_, err := NewObligation(time.Time{}, "Fornecedor ABC Ltda", decimal.NewFromInt(10), "")
		assert.ErrorIs(t, err, ErrMissingDueDate)
	})
}
