// Package eventbus fans committed marketplace events out to in-process
// subscribers over asaskevich/EventBus.
//
// Every event is published twice: on its own type topic (for example
// "listing.sold") and on TopicAll. Synchronous handlers run inside the
// market's critical section and must not call back into the market;
// SubscribeAsync handlers run on their own goroutine, one event at a time.
package eventbus

import (
	"fmt"

	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
)

// TopicAll receives every committed event.
const TopicAll = "marketplace.events"

// Handler receives one committed event.
type Handler func(evt event.Event)

// Bus publishes committed events to subscribers.
type Bus struct {
	bus    evbus.Bus
	logger *zap.Logger
}

// New returns an empty bus.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{bus: evbus.New(), logger: logger}
}

// Publish delivers evt on its type topic and on TopicAll.
func (b *Bus) Publish(evt event.Event) {
	b.bus.Publish(string(evt.Type), evt)
	b.bus.Publish(TopicAll, evt)
}

// Subscribe registers a synchronous handler for topic.
func (b *Bus) Subscribe(topic string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	if err := b.bus.Subscribe(topic, handler); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// SubscribeAsync registers a handler that runs off the publishing goroutine.
// Events on one subscription are delivered in commit order.
func (b *Bus) SubscribeAsync(topic string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	if err := b.bus.SubscribeAsync(topic, handler, true); err != nil {
		return fmt.Errorf("subscribe async %s: %w", topic, err)
	}
	return nil
}

// Unsubscribe removes a handler previously passed to Subscribe or SubscribeAsync.
func (b *Bus) Unsubscribe(topic string, handler Handler) error {
	if err := b.bus.Unsubscribe(topic, handler); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", topic, err)
	}
	return nil
}

// HasSubscribers reports whether topic has any handler.
func (b *Bus) HasSubscribers(topic string) bool {
	return b.bus.HasCallback(topic)
}

// WaitAsync blocks until every async handler has drained.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}

// LogEvents subscribes a debug logger to TopicAll.
func (b *Bus) LogEvents() error {
	return b.SubscribeAsync(TopicAll, func(evt event.Event) {
		b.logger.Debug("event committed",
			zap.Uint64("seq", evt.Seq),
			zap.String("type", string(evt.Type)),
			zap.String("actor", evt.ActorID),
			zap.String("entity", evt.EntityType+"/"+evt.EntityID))
	})
}
