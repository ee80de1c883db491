package cumulative

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
)

func TestReputationDefaultsToZero(t *testing.T) {
	engine := New[string]()
	require.Equal(t, int32(0), engine.Reputation("nobody"))
	require.Empty(t, engine.Scores())
}

func TestThreePositiveOneNegativeScoresTwo(t *testing.T) {
	engine := New[string]()
	for _, fb := range []reputation.Feedback{reputation.Positive, reputation.Positive, reputation.Negative, reputation.Positive} {
		require.NoError(t, engine.Rate("rater", "x", fb))
	}
	require.Equal(t, int32(2), engine.Reputation("x"))
	require.Equal(t, int32(0), engine.Reputation("rater"))
}

func TestNeutralLeavesScore(t *testing.T) {
	engine := New[string]()
	require.NoError(t, engine.Rate("a", "b", reputation.Positive))
	require.NoError(t, engine.Rate("a", "b", reputation.Neutral))
	require.Equal(t, int32(1), engine.Reputation("b"))
}

func TestSaturatesAtBounds(t *testing.T) {
	engine := New[string]()
	engine.scores["hi"] = math.MaxInt32
	engine.scores["lo"] = math.MinInt32

	require.NoError(t, engine.Rate("a", "hi", reputation.Positive))
	require.NoError(t, engine.Rate("a", "lo", reputation.Negative))
	require.Equal(t, int32(math.MaxInt32), engine.Reputation("hi"))
	require.Equal(t, int32(math.MinInt32), engine.Reputation("lo"))

	require.NoError(t, engine.Rate("a", "hi", reputation.Negative))
	require.Equal(t, int32(math.MaxInt32-1), engine.Reputation("hi"))
}

func TestRejectsUndeclaredFeedback(t *testing.T) {
	engine := New[string]()
	err := engine.Rate("a", "b", reputation.Feedback(9))
	require.True(t, apperrors.IsCode(err, apperrors.CodeFeedbackInvalid))
	require.Empty(t, engine.Scores())
}

func TestSavepointRestores(t *testing.T) {
	engine := New[string]()
	require.NoError(t, engine.Rate("a", "b", reputation.Positive))

	restore := engine.Savepoint("a", "b")
	require.NoError(t, engine.Rate("b", "a", reputation.Negative))
	require.NoError(t, engine.Rate("a", "b", reputation.Positive))
	restore()

	require.Equal(t, map[string]int32{"b": 1}, engine.Scores())
}

func TestScoresIsACopy(t *testing.T) {
	engine := New[string]()
	require.NoError(t, engine.Rate("a", "b", reputation.Positive))
	scores := engine.Scores()
	scores["b"] = 100
	require.Equal(t, int32(1), engine.Reputation("b"))
}
