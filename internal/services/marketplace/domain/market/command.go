package market

import (
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
)

// CommandType names a requested mutation.
type CommandType string

const (
	CommandPost   CommandType = "listing.post"
	CommandCancel CommandType = "listing.cancel"
	CommandBuy    CommandType = "listing.buy"
	CommandReview CommandType = "listing.review"
)

// Operation returns the short label used in errors and metrics.
func (t CommandType) Operation() string {
	switch t {
	case CommandPost:
		return OperationPost
	case CommandCancel:
		return OperationCancel
	case CommandBuy:
		return OperationBuy
	case CommandReview:
		return OperationReview
	default:
		return string(t)
	}
}

// Operation labels.
const (
	OperationPost   = "post_listing"
	OperationCancel = "cancel_listing"
	OperationBuy    = "buy"
	OperationReview = "review"
)

// Command is a mutation requested by Actor. Only the fields relevant to Type
// are read.
type Command[F any] struct {
	Type        CommandType
	Actor       listing.AccountID
	ListingID   listing.ID
	Price       uint32
	Description uint32
	Feedback    F
}

// State is the slice of market state a single command can observe.
type State struct {
	ListingID    listing.ID
	Exists       bool
	Listing      listing.Listing
	Status       listing.Status
	Buyer        listing.AccountID
	HasBuyer     bool
	NextID       listing.ID
	IDsExhausted bool
}

// Decision is the pure outcome of deciding a command.
type Decision struct {
	Events     []event.Event
	Rejections []*apperrors.Error
}

// Accept returns a decision that emits events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision carrying rejections.
func Reject(rejections ...*apperrors.Error) Decision {
	return Decision{Rejections: append([]*apperrors.Error(nil), rejections...)}
}

// Rejected reports whether the command was declined.
func (d Decision) Rejected() bool {
	return len(d.Rejections) > 0
}

// Err returns the first rejection, or nil.
func (d Decision) Err() error {
	if len(d.Rejections) == 0 {
		return nil
	}
	return d.Rejections[0]
}
