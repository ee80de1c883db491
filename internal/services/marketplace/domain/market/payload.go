package market

import (
	"encoding/json"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
)

// PostedPayload is the body of listing.posted.
type PostedPayload struct {
	Seller    listing.AccountID `json:"seller"`
	ListingID listing.ID        `json:"listing_id"`
	Listing   listing.Listing   `json:"listing"`
}

// CancelledPayload is the body of listing.cancelled.
type CancelledPayload struct {
	ListingID listing.ID `json:"listing_id"`
}

// SoldPayload is the body of listing.sold.
type SoldPayload struct {
	Buyer     listing.AccountID `json:"buyer"`
	ListingID listing.ID        `json:"listing_id"`
}

// ReviewedPayload is the body of listing.reviewed, emitted for the first
// review of a sale.
type ReviewedPayload struct {
	ListingID listing.ID        `json:"listing_id"`
	Reviewer  listing.AccountID `json:"reviewer"`
	Reviewee  listing.AccountID `json:"reviewee"`
	Role      listing.Role      `json:"role"`
	Status    listing.Status    `json:"status"`
}

// SettledPayload is the body of listing.settled, emitted for the second review.
type SettledPayload struct {
	ListingID listing.ID        `json:"listing_id"`
	Reviewer  listing.AccountID `json:"reviewer"`
	Reviewee  listing.AccountID `json:"reviewee"`
	Role      listing.Role      `json:"role"`
}

// RatedPayload is the body of reputation.rated. Feedback holds the engine's
// feedback value in its JSON form.
type RatedPayload struct {
	Rater     listing.AccountID `json:"rater"`
	Ratee     listing.AccountID `json:"ratee"`
	Feedback  json.RawMessage   `json:"feedback"`
	ListingID listing.ID        `json:"listing_id"`
}
