package market

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
)

const defaultReplayPageSize = 200

// ErrEventSourceRequired indicates a missing event source.
var ErrEventSourceRequired = errors.New("event source is required")

// EventSource pages journaled events in sequence order.
type EventSource interface {
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
}

// ReplayOptions configures Replay.
type ReplayOptions struct {
	PageSize int
	// VerifyChain recomputes content and chain hashes for every event.
	VerifyChain bool
}

// ReplayResult reports how far a replay got.
type ReplayResult struct {
	LastSeq uint64
	Applied int
}

// Replay folds every event after the market's last sequence through the same
// path live calls use, so listings, the allocator and the reputation engine
// end up exactly as they were when the events were committed. Nothing is
// journaled or published. Sequence gaps and hash mismatches abort the replay.
func (m *Market[F, S]) Replay(ctx context.Context, source EventSource, opts ReplayOptions) (ReplayResult, error) {
	if source == nil {
		return ReplayResult{}, ErrEventSourceRequired
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultReplayPageSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := ReplayResult{LastSeq: m.lastSeq}
	prevHash := ""
	for {
		events, err := source.ListEvents(ctx, result.LastSeq, pageSize)
		if err != nil {
			return result, fmt.Errorf("list events after %d: %w", result.LastSeq, err)
		}
		if len(events) == 0 {
			break
		}
		for _, evt := range events {
			expected := result.LastSeq + 1
			if evt.Seq != expected {
				return result, fmt.Errorf("event sequence gap: expected %d got %d", expected, evt.Seq)
			}
			if opts.VerifyChain {
				if result.Applied == 0 && evt.Seq > 1 {
					prevHash = evt.PrevHash
				}
				if err := event.VerifyChain([]event.Event{evt}, prevHash); err != nil {
					return result, err
				}
				prevHash = evt.ChainHash
			}
			if err := m.apply(evt); err != nil {
				return result, fmt.Errorf("apply event %d (%s): %w", evt.Seq, evt.Type, err)
			}
			m.lastSeq = evt.Seq
			result.LastSeq = evt.Seq
			result.Applied++
		}
	}

	m.opts.logger.Info("market replayed",
		zap.Int("applied", result.Applied),
		zap.Uint64("last_seq", result.LastSeq),
		zap.Int("listings", m.registry.Len()))
	return result, nil
}
