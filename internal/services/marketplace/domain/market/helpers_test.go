package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation/cumulative"
)

const (
	alice listing.AccountID = "alice"
	bob   listing.AccountID = "bob"
	carol listing.AccountID = "carol"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

type rateCall struct {
	Rater, Ratee listing.AccountID
	Feedback     reputation.Feedback
}

// recordingPort wraps the cumulative engine and records every Rate call.
type recordingPort struct {
	*cumulative.Engine[listing.AccountID]
	calls []rateCall
	err   error
}

func newRecordingPort() *recordingPort {
	return &recordingPort{Engine: cumulative.New[listing.AccountID]()}
}

func (p *recordingPort) Rate(rater, ratee listing.AccountID, feedback reputation.Feedback) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, rateCall{Rater: rater, Ratee: ratee, Feedback: feedback})
	return p.Engine.Rate(rater, ratee, feedback)
}

// memJournal is an in-memory journal that can be told to fail.
type memJournal struct {
	events []event.Event
	err    error
}

func (j *memJournal) AppendEvents(_ context.Context, events []event.Event) ([]event.Event, error) {
	if j.err != nil {
		return nil, j.err
	}
	prev := ""
	if n := len(j.events); n > 0 {
		prev = j.events[n-1].ChainHash
	}
	sealed, err := event.Seal(events, uint64(len(j.events)), prev)
	if err != nil {
		return nil, err
	}
	j.events = append(j.events, sealed...)
	return sealed, nil
}

func (j *memJournal) ListEvents(_ context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if afterSeq >= uint64(len(j.events)) {
		return nil, nil
	}
	end := min(afterSeq+uint64(limit), uint64(len(j.events)))
	return append([]event.Event(nil), j.events[afterSeq:end]...), nil
}

type capturePublisher struct {
	events []event.Event
}

func (p *capturePublisher) Publish(evt event.Event) { p.events = append(p.events, evt) }

func (p *capturePublisher) types() []event.Type {
	out := make([]event.Type, len(p.events))
	for i, evt := range p.events {
		out[i] = evt.Type
	}
	return out
}

type outcome struct {
	op  string
	err error
}

type captureRecorder struct {
	outcomes []outcome
}

func (r *captureRecorder) ObserveOperation(op string, err error) {
	r.outcomes = append(r.outcomes, outcome{op: op, err: err})
}

var errJournalDown = errors.New("journal down")

func newMarket(t *testing.T, port *recordingPort, opts ...Option) *Market[reputation.Feedback, int32] {
	t.Helper()
	m, err := New[reputation.Feedback, int32](port, append([]Option{WithClock(fixedNow)}, opts...)...)
	require.NoError(t, err)
	return m
}

// requireConsistent checks that every id has both a listing and a status or
// neither, and a buyer exactly when the status is past Active.
func requireConsistent[F, S any](t *testing.T, m *Market[F, S]) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	reg := m.registry
	require.Len(t, reg.statuses, len(reg.listings))
	for id := range reg.listings {
		status, ok := reg.statuses[id]
		require.True(t, ok, "listing %d has no status", id)
		_, hasBuyer := reg.buyers[id]
		require.Equal(t, status != listing.StatusActive, hasBuyer, "listing %d buyer/status mismatch", id)
	}
	for id := range reg.buyers {
		_, ok := reg.listings[id]
		require.True(t, ok, "buyer recorded for missing listing %d", id)
	}
}
