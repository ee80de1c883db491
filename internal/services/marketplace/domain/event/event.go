package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type names a marketplace fact.
type Type string

const (
	TypeListingPosted    Type = "listing.posted"
	TypeListingCancelled Type = "listing.cancelled"
	TypeListingSold      Type = "listing.sold"
	TypeListingReviewed  Type = "listing.reviewed"
	TypeListingSettled   Type = "listing.settled"
	TypeReputationRated  Type = "reputation.rated"
)

// Entity types carried by envelopes.
const (
	EntityListing = "listing"
	EntityAccount = "account"
)

var knownTypes = map[Type]struct{}{
	TypeListingPosted:    {},
	TypeListingCancelled: {},
	TypeListingSold:      {},
	TypeListingReviewed:  {},
	TypeListingSettled:   {},
	TypeReputationRated:  {},
}

// Known reports whether t is a registered event type.
func (t Type) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Event is an immutable marketplace fact.
type Event struct {
	Seq         uint64
	Hash        string
	PrevHash    string
	ChainHash   string
	Timestamp   time.Time
	Type        Type
	ActorID     string
	EntityType  string
	EntityID    string
	PayloadJSON []byte
}

// New builds an unsequenced envelope with a JSON payload.
func New(t Type, actorID, entityType, entityID string, payload any, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return Event{
		Timestamp:   at.UTC(),
		Type:        t,
		ActorID:     actorID,
		EntityType:  entityType,
		EntityID:    entityID,
		PayloadJSON: data,
	}, nil
}

// Validate checks the fields a decider is responsible for.
func (e Event) Validate() error {
	if !e.Type.Known() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if strings.TrimSpace(e.EntityType) == "" || strings.TrimSpace(e.EntityID) == "" {
		return fmt.Errorf("event %s: entity is required", e.Type)
	}
	if !json.Valid(e.PayloadJSON) {
		return fmt.Errorf("event %s: payload is not valid json", e.Type)
	}
	return nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.PayloadJSON, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
