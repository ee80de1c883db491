package reputation

import (
	"fmt"
	"strings"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
)

// Feedback is the three-valued rating used by the bundled engines.
type Feedback uint8

const (
	Positive Feedback = iota
	Neutral
	Negative
)

var feedbackLabels = [...]string{
	Positive: "positive",
	Neutral:  "neutral",
	Negative: "negative",
}

// Valid reports whether f is a declared feedback value.
func (f Feedback) Valid() bool {
	return int(f) < len(feedbackLabels)
}

func (f Feedback) String() string {
	if !f.Valid() {
		return fmt.Sprintf("feedback(%d)", uint8(f))
	}
	return feedbackLabels[f]
}

// ParseFeedback accepts a case-insensitive label.
func ParseFeedback(label string) (Feedback, error) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	for i, candidate := range feedbackLabels {
		if candidate == normalized {
			return Feedback(i), nil
		}
	}
	return 0, apperrors.WithMetadata(
		apperrors.CodeFeedbackInvalid,
		fmt.Sprintf("unknown feedback %q", label),
		map[string]string{"Feedback": label},
	)
}

// MarshalText encodes the feedback label.
func (f Feedback) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, f.invalid()
	}
	return []byte(feedbackLabels[f]), nil
}

// UnmarshalText decodes a feedback label.
func (f *Feedback) UnmarshalText(text []byte) error {
	parsed, err := ParseFeedback(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Delta is the signed contribution of f to an additive score.
func (f Feedback) Delta() int32 {
	switch f {
	case Positive:
		return 1
	case Negative:
		return -1
	default:
		return 0
	}
}

func (f Feedback) invalid() error {
	return apperrors.WithMetadata(
		apperrors.CodeFeedbackInvalid,
		fmt.Sprintf("invalid feedback value %d", uint8(f)),
		map[string]string{"Feedback": f.String()},
	)
}

// Check returns a FEEDBACK_INVALID error for undeclared values.
func (f Feedback) Check() error {
	if !f.Valid() {
		return f.invalid()
	}
	return nil
}
