// Package cumulative implements an additive reputation engine: every rating
// moves the ratee's score by +1, 0 or -1.
package cumulative

import (
	"maps"
	"math"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
)

// Engine keeps one saturating int32 accumulator per account.
// It is not safe for concurrent use.
type Engine[A comparable] struct {
	scores map[A]int32
}

var (
	_ reputation.Port[string, reputation.Feedback, int32] = (*Engine[string])(nil)
	_ reputation.Savepointer[string]                      = (*Engine[string])(nil)
)

// New returns an engine with no history.
func New[A comparable]() *Engine[A] {
	return &Engine[A]{scores: make(map[A]int32)}
}

// Rate adds the feedback delta to ratee. The accumulator saturates at the
// int32 bounds instead of wrapping. Only undeclared feedback values fail.
func (e *Engine[A]) Rate(_, ratee A, feedback reputation.Feedback) error {
	if err := feedback.Check(); err != nil {
		return err
	}
	e.scores[ratee] = saturatingAdd(e.scores[ratee], feedback.Delta())
	return nil
}

// Reputation returns the accumulator, 0 for accounts with no history.
func (e *Engine[A]) Reputation(account A) int32 {
	return e.scores[account]
}

// Scores returns a copy of every account's accumulator.
func (e *Engine[A]) Scores() map[A]int32 {
	return maps.Clone(e.scores)
}

// Savepoint captures the accumulators of accounts.
func (e *Engine[A]) Savepoint(accounts ...A) func() {
	type saved struct {
		score   int32
		present bool
	}
	snapshot := make(map[A]saved, len(accounts))
	for _, account := range accounts {
		score, ok := e.scores[account]
		snapshot[account] = saved{score: score, present: ok}
	}
	return func() {
		for account, s := range snapshot {
			if s.present {
				e.scores[account] = s.score
			} else {
				delete(e.scores, account)
			}
		}
	}
}

func saturatingAdd(score, delta int32) int32 {
	sum := int64(score) + int64(delta)
	switch {
	case sum > math.MaxInt32:
		return math.MaxInt32
	case sum < math.MinInt32:
		return math.MinInt32
	}
	return int32(sum)
}
