// Package beta implements a beta-estimator reputation engine. Each account's
// score is the posterior mean (p+1)/(p+n+2) of its positive and negative
// rating counts.
package beta

import (
	"fmt"
	"math"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
)

type counts struct {
	positive uint32
	negative uint32
}

// Engine stores counts and the last computed score per account.
// It is not safe for concurrent use.
type Engine[A comparable] struct {
	counts map[A]counts
	scores map[A]Fraction
}

var (
	_ reputation.Port[string, reputation.Feedback, Fraction] = (*Engine[string])(nil)
	_ reputation.Savepointer[string]                         = (*Engine[string])(nil)
)

// New returns an engine with no history.
func New[A comparable]() *Engine[A] {
	return &Engine[A]{
		counts: make(map[A]counts),
		scores: make(map[A]Fraction),
	}
}

// Rate increments the ratee's positive or negative count (neutral touches
// neither) and stores the recomputed score. A count already at its maximum
// fails the call without mutating anything.
func (e *Engine[A]) Rate(_, ratee A, feedback reputation.Feedback) error {
	if err := feedback.Check(); err != nil {
		return err
	}
	c := e.counts[ratee]
	switch feedback {
	case reputation.Positive:
		if c.positive == math.MaxUint32 {
			return overflow(ratee, "positive")
		}
		c.positive++
	case reputation.Negative:
		if c.negative == math.MaxUint32 {
			return overflow(ratee, "negative")
		}
		c.negative++
	}
	e.counts[ratee] = c
	e.scores[ratee] = score(c)
	return nil
}

// Reputation returns the last computed score, Prior with no history.
func (e *Engine[A]) Reputation(account A) Fraction {
	if s, ok := e.scores[account]; ok {
		return s
	}
	return Prior
}

// Counts returns the raw positive and negative counts of account.
func (e *Engine[A]) Counts(account A) (positive, negative uint32) {
	c := e.counts[account]
	return c.positive, c.negative
}

// Savepoint captures the counts and score of accounts.
func (e *Engine[A]) Savepoint(accounts ...A) func() {
	type saved struct {
		counts  counts
		score   Fraction
		present bool
	}
	snapshot := make(map[A]saved, len(accounts))
	for _, account := range accounts {
		c, ok := e.counts[account]
		snapshot[account] = saved{counts: c, score: e.scores[account], present: ok}
	}
	return func() {
		for account, s := range snapshot {
			if !s.present {
				delete(e.counts, account)
				delete(e.scores, account)
				continue
			}
			e.counts[account] = s.counts
			e.scores[account] = s.score
		}
	}
}

func score(c counts) Fraction {
	p, n := uint64(c.positive), uint64(c.negative)
	return Fraction{Num: p + 1, Den: p + n + 2}
}

func overflow[A comparable](account A, counter string) error {
	return apperrors.WithMetadata(
		apperrors.CodeReputationCounterOverflow,
		fmt.Sprintf("%s count for %v is saturated", counter, account),
		map[string]string{"Account": fmt.Sprint(account)},
	)
}
