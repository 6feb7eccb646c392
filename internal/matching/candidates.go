package matching

import (
	"sort"

	"github.com/google/uuid"
	"github.com/statement-reconciliation/internal/domain/movement"
	"github.com/statement-reconciliation/internal/domain/obligation"
	"github.com/statement-reconciliation/internal/domain/shared"
)

// DefaultMinScore is the suggestion threshold: candidates scoring below it
// are never surfaced. Policy constant, overridable via Config.
const DefaultMinScore = 70

// Config carries generation policy. The zero value means defaults.
type Config struct {
	MinScore int
}

func (c Config) minScore() int {
	if c.MinScore <= 0 {
		return DefaultMinScore
	}
	return c.MinScore
}

// Candidate is a scored, unconfirmed proposed pairing between one movement
// and one obligation. Candidates are derived, never persisted; they are
// recomputed on demand from current state.
type Candidate struct {
	MovementID   uuid.UUID `json:"movement_id"`
	ObligationID uuid.UUID `json:"obligation_id"`
	Score        int       `json:"score"`
	Reasons      []string  `json:"reasons"`
}

// SkippedRecord reports an input record that failed boundary validation and
// was excluded from generation. A bad record never aborts the batch.
type SkippedRecord struct {
	MovementID   uuid.UUID `json:"movement_id,omitempty"`
	ObligationID uuid.UUID `json:"obligation_id,omitempty"`
	Reason       string    `json:"reason"`
}

// GenerateCandidates enumerates all eligible (movement, obligation) pairs,
// scores each, filters by the threshold and returns the ranked result. Only
// unmatched debits generate candidates; credits and linked movements are
// hard-filtered, not merely penalized. Obligations are not filtered by any
// obligation-side status; their lifecycle is the caller's concern.
//
// The result is fully materialized and deterministic: descending score,
// ties broken by ascending (movement_id, obligation_id).
func GenerateCandidates(movements []*movement.Movement, obligations []*obligation.Obligation, cfg Config) ([]Candidate, []SkippedRecord) {
	var candidates []Candidate
	var skipped []SkippedRecord

	threshold := cfg.minScore()

	eligible := make([]*movement.Movement, 0, len(movements))
	for _, mov := range movements {
		if err := mov.Validate(); err != nil {
			skipped = append(skipped, SkippedRecord{MovementID: mov.ID, Reason: err.Error()})
			continue
		}
		if mov.Direction != shared.DirectionDebit || mov.Status != shared.MovementStatusUnmatched {
			continue
		}
		eligible = append(eligible, mov)
	}

	scorable := make([]*obligation.Obligation, 0, len(obligations))
	for _, obl := range obligations {
		if obl.CreditorName == "" || obl.DueDate.IsZero() {
			skipped = append(skipped, SkippedRecord{ObligationID: obl.ID, Reason: "obligation missing required fields"})
			continue
		}
		scorable = append(scorable, obl)
	}

	for _, mov := range eligible {
		for _, obl := range scorable {
			score, reasons := Score(mov, obl)
			if score < threshold {
				continue
			}
			candidates = append(candidates, Candidate{
				MovementID:   mov.ID,
				ObligationID: obl.ID,
				Score:        score,
				Reasons:      reasons,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		mi, mj := candidates[i].MovementID.String(), candidates[j].MovementID.String()
		if mi != mj {
			return mi < mj
		}
		return candidates[i].ObligationID.String() < candidates[j].ObligationID.String()
	})

	return candidates, skipped
}

// TopCandidatePerMovement reduces a ranked candidate list to the best
// candidate for each movement, preserving the overall ranking. Used by the
// statement processor to auto-propose after ingestion.
func TopCandidatePerMovement(candidates []Candidate) []Candidate {
	seen := make(map[uuid.UUID]bool, len(candidates))
	top := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.MovementID] {
			continue
		}
		seen[c.MovementID] = true
		top = append(top, c)
	}
	return top
}
