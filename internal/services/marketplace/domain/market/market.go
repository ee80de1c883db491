package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
)

const tracerName = "marketplace/market"

// Journal durably appends accepted events, assigning sequence and hashes.
type Journal interface {
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
}

// Publisher receives committed events in commit order.
type Publisher interface {
	Publish(evt event.Event)
}

// OutcomeRecorder observes the result of every mutation.
type OutcomeRecorder interface {
	ObserveOperation(operation string, err error)
}

type options struct {
	journal   Journal
	publisher Publisher
	recorder  OutcomeRecorder
	logger    *zap.Logger
	now       func() time.Time
	tracer    trace.Tracer
}

// Option configures a Market.
type Option func(*options)

// WithJournal appends every accepted decision before it becomes visible.
func WithJournal(j Journal) Option { return func(o *options) { o.journal = j } }

// WithPublisher delivers committed events to subscribers.
func WithPublisher(p Publisher) Option { return func(o *options) { o.publisher = p } }

// WithOutcomeRecorder reports per-operation outcomes, e.g. to metrics.
func WithOutcomeRecorder(r OutcomeRecorder) Option { return func(o *options) { o.recorder = r } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// Market is the listing state machine. It is safe for concurrent use; all
// operations and queries run one at a time in a single global order.
type Market[F any, S any] struct {
	mu       sync.Mutex
	registry *Registry
	alloc    Allocator
	port     reputation.Port[listing.AccountID, F, S]
	lastSeq  uint64
	opts     options
}

// New returns an empty market delegating ratings to port.
func New[F any, S any](port reputation.Port[listing.AccountID, F, S], opts ...Option) (*Market[F, S], error) {
	if port == nil {
		return nil, errors.New("reputation port is required")
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return &Market[F, S]{registry: NewRegistry(), port: port, opts: o}, nil
}

// PostListing stores a new Active listing for seller and returns its id.
func (m *Market[F, S]) PostListing(ctx context.Context, seller listing.AccountID, price, description uint32) (listing.ID, error) {
	events, err := m.execute(ctx, Command[F]{Type: CommandPost, Actor: seller, Price: price, Description: description})
	if err != nil {
		return 0, err
	}
	var p PostedPayload
	if err := events[0].Decode(&p); err != nil {
		return 0, err
	}
	return p.ListingID, nil
}

// CancelListing withdraws an Active listing. Only its seller may cancel.
func (m *Market[F, S]) CancelListing(ctx context.Context, caller listing.AccountID, id listing.ID) error {
	_, err := m.execute(ctx, Command[F]{Type: CommandCancel, Actor: caller, ListingID: id})
	return err
}

// Buy records caller as the buyer of an Active listing.
func (m *Market[F, S]) Buy(ctx context.Context, caller listing.AccountID, id listing.ID) error {
	_, err := m.execute(ctx, Command[F]{Type: CommandBuy, Actor: caller, ListingID: id})
	return err
}

// Review records the caller's feedback about the other party of a sale and
// rates them through the reputation port. The second review settles the
// listing, removing every record of it.
func (m *Market[F, S]) Review(ctx context.Context, caller listing.AccountID, id listing.ID, feedback F) error {
	_, err := m.execute(ctx, Command[F]{Type: CommandReview, Actor: caller, ListingID: id, Feedback: feedback})
	return err
}

// NextID returns the id the next posted listing will receive.
func (m *Market[F, S]) NextID() (listing.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alloc.Peek()
}

// Listing returns a live listing.
func (m *Market[F, S]) Listing(id listing.ID) (listing.Listing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Get(id)
}

// Buyer returns the buyer of a sold listing.
func (m *Market[F, S]) Buyer(id listing.ID) (listing.AccountID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.GetBuyer(id)
}

// Status returns the status of a live listing. Settled and cancelled
// listings have none.
func (m *Market[F, S]) Status(id listing.ID) (listing.Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.GetStatus(id)
}

// Reputation reads account's score from the engine.
func (m *Market[F, S]) Reputation(account listing.AccountID) S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port.Reputation(account)
}

// LastSeq returns the journal sequence of the last applied event.
func (m *Market[F, S]) LastSeq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSeq
}

func (m *Market[F, S]) execute(ctx context.Context, cmd Command[F]) (committed []event.Event, err error) {
	op := cmd.Type.Operation()
	ctx, span := m.opts.tracer.Start(ctx, "market."+op, trace.WithAttributes(
		attribute.String("marketplace.caller", string(cmd.Actor)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if m.opts.recorder != nil {
			m.opts.recorder.ObserveOperation(op, err)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.registry.state(cmd.ListingID, &m.alloc)
	target := cmd.ListingID
	if cmd.Type == CommandPost {
		target = state.NextID
	}
	span.SetAttributes(attribute.Int64("marketplace.listing_id", int64(target)))

	decision := Decide(state, cmd, m.opts.now)
	if decision.Rejected() {
		return nil, decision.Err()
	}

	restore := m.savepoint(target, decision.Events)
	for _, evt := range decision.Events {
		if err := m.apply(evt); err != nil {
			restore()
			return nil, err
		}
	}

	committed = decision.Events
	if m.opts.journal != nil {
		stored, err := m.opts.journal.AppendEvents(ctx, decision.Events)
		if err != nil {
			restore()
			m.opts.logger.Warn("journal append failed; call rolled back",
				zap.String("operation", op), zap.Uint32("listing_id", uint32(target)), zap.Error(err))
			if _, ok := m.port.(reputation.Savepointer[listing.AccountID]); !ok && cmd.Type == CommandReview {
				m.opts.logger.Error("reputation engine cannot roll back; rating persists without a journal entry",
					zap.Uint32("listing_id", uint32(target)))
			}
			return nil, fmt.Errorf("append events: %w", err)
		}
		committed = stored
		if n := len(stored); n > 0 {
			m.lastSeq = stored[n-1].Seq
		}
	}

	m.opts.logger.Debug("operation committed",
		zap.String("operation", op),
		zap.String("caller", string(cmd.Actor)),
		zap.Uint32("listing_id", uint32(target)),
		zap.Int("events", len(committed)))
	if m.opts.publisher != nil {
		for _, evt := range committed {
			m.opts.publisher.Publish(evt)
		}
	}
	return committed, nil
}

// apply routes rating events to the port and folds everything else.
func (m *Market[F, S]) apply(evt event.Event) error {
	if evt.Type != event.TypeReputationRated {
		return Fold(m.registry, &m.alloc, evt)
	}
	var p RatedPayload
	if err := evt.Decode(&p); err != nil {
		return err
	}
	var feedback F
	if err := json.Unmarshal(p.Feedback, &feedback); err != nil {
		return apperrors.Wrap(apperrors.CodeFeedbackInvalid, "decode feedback", err)
	}
	return m.port.Rate(p.Rater, p.Ratee, feedback)
}

// savepoint captures everything a decision can touch and returns a function
// restoring it in reverse order.
func (m *Market[F, S]) savepoint(id listing.ID, events []event.Event) func() {
	restores := []func(){m.alloc.savepoint(), m.registry.savepoint(id)}

	var accounts []listing.AccountID
	for _, evt := range events {
		if evt.Type != event.TypeReputationRated {
			continue
		}
		var p RatedPayload
		if err := evt.Decode(&p); err == nil {
			accounts = append(accounts, p.Rater, p.Ratee)
		}
	}
	if sp, ok := m.port.(reputation.Savepointer[listing.AccountID]); ok && len(accounts) > 0 {
		restores = append(restores, sp.Savepoint(accounts...))
	}

	return func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}
}
