package beta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
)

func rateAll(t *testing.T, engine *Engine[string], ratee string, feedback ...reputation.Feedback) {
	t.Helper()
	for _, fb := range feedback {
		require.NoError(t, engine.Rate("rater", ratee, fb))
	}
}

func TestPriorIsOneHalf(t *testing.T) {
	engine := New[string]()
	require.Equal(t, Fraction{Num: 1, Den: 2}, engine.Reputation("nobody"))
	p, n := engine.Counts("nobody")
	require.Zero(t, p)
	require.Zero(t, n)
}

func TestThreePositiveOneNegativeScoresFourSixths(t *testing.T) {
	engine := New[string]()
	rateAll(t, engine, "y", reputation.Positive, reputation.Negative, reputation.Positive, reputation.Positive)

	got := engine.Reputation("y")
	require.Equal(t, Fraction{Num: 4, Den: 6}, got)
	require.True(t, got.Equal(Fraction{Num: 2, Den: 3}))

	p, n := engine.Counts("y")
	require.Equal(t, uint32(3), p)
	require.Equal(t, uint32(1), n)
}

func TestNeutralIncrementsNeither(t *testing.T) {
	engine := New[string]()
	rateAll(t, engine, "y", reputation.Neutral, reputation.Neutral)

	p, n := engine.Counts("y")
	require.Zero(t, p)
	require.Zero(t, n)
	require.Equal(t, Prior, engine.Reputation("y"))
}

func TestOverflowFailsWithoutMutation(t *testing.T) {
	engine := New[string]()
	engine.counts["y"] = counts{positive: math.MaxUint32, negative: 5}
	engine.scores["y"] = score(engine.counts["y"])
	before := engine.Reputation("y")

	err := engine.Rate("rater", "y", reputation.Positive)
	require.True(t, apperrors.IsCode(err, apperrors.CodeReputationCounterOverflow))
	require.Equal(t, before, engine.Reputation("y"))

	require.NoError(t, engine.Rate("rater", "y", reputation.Negative))
	p, n := engine.Counts("y")
	require.Equal(t, uint32(math.MaxUint32), p)
	require.Equal(t, uint32(6), n)
}

func TestScoreStaysWithinUnitInterval(t *testing.T) {
	engine := New[string]()
	engine.counts["y"] = counts{positive: math.MaxUint32 - 1, negative: math.MaxUint32 - 1}
	rateAll(t, engine, "y", reputation.Positive, reputation.Negative)

	got := engine.Reputation("y")
	require.LessOrEqual(t, got.Num, got.Den)
	require.InDelta(t, 0.5, got.Float64(), 1e-9)
}

func TestSavepointRestores(t *testing.T) {
	engine := New[string]()
	rateAll(t, engine, "a", reputation.Positive)

	restore := engine.Savepoint("a", "b")
	rateAll(t, engine, "a", reputation.Negative)
	rateAll(t, engine, "b", reputation.Positive)
	restore()

	require.Equal(t, Fraction{Num: 2, Den: 3}, engine.Reputation("a"))
	require.Equal(t, Prior, engine.Reputation("b"))
	p, _ := engine.Counts("b")
	require.Zero(t, p)
}

func TestRejectsUndeclaredFeedback(t *testing.T) {
	engine := New[string]()
	err := engine.Rate("a", "b", reputation.Feedback(5))
	require.True(t, apperrors.IsCode(err, apperrors.CodeFeedbackInvalid))
}
