// Package matching implements the compatibility scoring between bank
// movements and payable obligations, and the generation of ranked match
// candidates. Everything in this package is pure: no clocks, no randomness,
// no shared state.
package matching

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/obligation"
)

// Sub-score weights. Amount dominates because two near-identical amounts
// are far stronger evidence of a payment than a nearby date.
const (
	amountWeight = 40
	dateWeight   = 30
	textWeight   = 30
)

// Reason strings emitted per tier hit. These are part of the API surface:
// callers display them verbatim and tests lock them in.
const (
	ReasonIdenticalAmount      = "identical amount"
	ReasonAmountWithin2Pct     = "amount within 2%"
	ReasonAmountWithin5Pct     = "amount within 5%"
	ReasonAmountWithin10Pct    = "amount within 10%"
	ReasonObligationZeroAmount = "obligation amount is not positive"
	ReasonSameDay              = "due date matches exactly"
	ReasonWithin2Days          = "due date within 2 days"
	ReasonWithin5Days          = "due date within 5 days"
	ReasonWithin10Days         = "due date within 10 days"
	ReasonTextCloseMatch       = "description closely matches creditor"
	ReasonTextPartialMatch     = "description partially matches creditor"
	ReasonWeakMatch            = "weak overall match"
)

var (
	deltaIdentical = decimal.Zero
	delta2Pct      = decimal.NewFromFloat(0.02)
	delta5Pct      = decimal.NewFromFloat(0.05)
	delta10Pct     = decimal.NewFromFloat(0.10)
)

// Score computes the 0-100 compatibility score between one movement and one
// obligation, along with the human-readable reasons for each contributing
// tier. Both arguments are read-only; the function is deterministic.
func Score(mov *movement.Movement, obl *obligation.Obligation) (int, []string) {
	var reasons []string

	amountSub, amountReason := amountSubScore(mov.Amount, obl.Amount)
	if amountReason != "" {
		reasons = append(reasons, amountReason)
	}

	dateSub, dateReason := dateSubScore(mov.Date, obl.DueDate)
	if dateReason != "" {
		reasons = append(reasons, dateReason)
	}

	textSub, textReason := textSubScore(mov.Description, obl.CreditorName)
	if textReason != "" {
		reasons = append(reasons, textReason)
	}

	total := amountSub + dateSub + textSub
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonWeakMatch)
	}

	return total, reasons
}

// amountSubScore applies the relative-difference step function. An
// obligation amount that is not strictly positive cannot anchor a ratio, so
// the tier contributes nothing rather than faulting.
func amountSubScore(movementAmount, obligationAmount decimal.Decimal) (int, string) {
	if !obligationAmount.IsPositive() {
		return 0, ReasonObligationZeroAmount
	}

	delta := movementAmount.Sub(obligationAmount).Abs().Div(obligationAmount)

	switch {
	case delta.Equal(deltaIdentical):
		return amountWeight, ReasonIdenticalAmount
	case delta.LessThanOrEqual(delta2Pct):
		return 35, ReasonAmountWithin2Pct
	case delta.LessThanOrEqual(delta5Pct):
		return 25, ReasonAmountWithin5Pct
	case delta.LessThanOrEqual(delta10Pct):
		return 15, ReasonAmountWithin10Pct
	default:
		return 0, ""
	}
}

// dateSubScore applies the day-gap step function, direction-agnostic.
func dateSubScore(movementDate, dueDate time.Time) (int, string) {
	gap := daysApart(movementDate, dueDate)

	switch {
	case gap == 0:
		return dateWeight, ReasonSameDay
	case gap <= 2:
		return 25, ReasonWithin2Days
	case gap <= 5:
		return 20, ReasonWithin5Days
	case gap <= 10:
		return 10, ReasonWithin10Days
	default:
		return 0, ""
	}
}

// textSubScore measures how much of the bank narrative overlaps the creditor
// name using asymmetric substring containment. This deliberately stays a
// containment measure rather than an edit-distance metric: changing it would
// silently shift every score.
func textSubScore(description, creditorName string) (int, string) {
	ratio := containmentRatio(tokenize(description), tokenize(creditorName))
	sub := int(math.Round(ratio * textWeight))
	if sub == 0 {
		return 0, ""
	}
	if ratio >= 0.7 {
		return sub, ReasonTextCloseMatch
	}
	return sub, ReasonTextPartialMatch
}

// tokenize lower-cases, splits on whitespace and discards tokens too short
// to carry signal (bank narratives are full of "DE", "SA", "01" noise).
func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// containmentRatio counts token pairs where one token contains the other,
// consuming each right-hand token at most once, normalized by the larger
// token set. Both sets empty compares as fully similar; exactly one empty
// as fully dissimilar.
func containmentRatio(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	used := make([]bool, len(b))
	common := 0
	for _, ta := range a {
		for i, tb := range b {
			if used[i] {
				continue
			}
			if strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				used[i] = true
				common++
				break
			}
		}
	}

	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(common) / float64(larger)
}

// daysApart returns the absolute calendar-day distance between two
// timestamps, ignoring time-of-day and zone offsets.
func daysApart(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(ad.Sub(bd).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
