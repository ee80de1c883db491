// Package storage defines persistence contracts for the marketplace journal
// and the read-side projections derived from it.
package storage

import (
	"context"
	"errors"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
)

// ErrEventsRequired indicates an empty append batch.
var ErrEventsRequired = errors.New("events are required")

// EventJournal appends accepted events. Implementations assign Seq, Hash,
// PrevHash and ChainHash and persist the whole batch atomically.
type EventJournal interface {
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
}

// EventStore reads the journal back in sequence order.
type EventStore interface {
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
	LatestSeq(ctx context.Context) (uint64, error)
}

// RatingSummary counts the ratings an account has received by feedback label.
// Ratings whose feedback is not a bundled feedback value are counted in Other.
type RatingSummary struct {
	Account  listing.AccountID
	Positive uint64
	Neutral  uint64
	Negative uint64
	Other    uint64
}

// ProjectionReader exposes the tables kept in step with the journal. The
// listing, buyer and status tables are for external readers; the service
// itself answers those queries from the replayed market.
type ProjectionReader interface {
	NextID(ctx context.Context) (listing.ID, error)
	RatingSummary(ctx context.Context, account listing.AccountID) (RatingSummary, error)
}
