package market

import (
	"fmt"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
)

// Fold applies a listing event to the registry and allocator.
// reputation.rated events are not folded here; Market routes them to the Port.
func Fold(reg *Registry, alloc *Allocator, evt event.Event) error {
	switch evt.Type {
	case event.TypeListingPosted:
		var p PostedPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		id, err := alloc.Next()
		if err != nil {
			return err
		}
		if id != p.ListingID {
			return fmt.Errorf("posted listing %d but allocator issued %d", p.ListingID, id)
		}
		reg.Insert(id, p.Listing)
		reg.SetStatus(id, listing.StatusActive)

	case event.TypeListingCancelled:
		var p CancelledPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		reg.removeAll(p.ListingID)

	case event.TypeListingSold:
		var p SoldPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		if !reg.Exists(p.ListingID) {
			return fmt.Errorf("sold listing %d does not exist", p.ListingID)
		}
		reg.InsertBuyer(p.ListingID, p.Buyer)
		reg.SetStatus(p.ListingID, listing.StatusSold)

	case event.TypeListingReviewed:
		var p ReviewedPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		current, ok := reg.GetStatus(p.ListingID)
		if !ok {
			return fmt.Errorf("reviewed listing %d does not exist", p.ListingID)
		}
		if p.Status < current {
			return fmt.Errorf("listing %d cannot move from %s back to %s", p.ListingID, current, p.Status)
		}
		reg.SetStatus(p.ListingID, p.Status)

	case event.TypeListingSettled:
		var p SettledPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		reg.removeAll(p.ListingID)

	default:
		return fmt.Errorf("fold: unsupported event type %q", evt.Type)
	}
	return nil
}
