package market

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
)

// Decide validates cmd against state and returns the events it produces.
// It performs no mutation.
func Decide[F any](state State, cmd Command[F], now func() time.Time) Decision {
	if now == nil {
		now = time.Now
	}
	if cmd.Actor.IsZero() {
		return Reject(apperrors.New(apperrors.CodeCallerRequired, "caller is required"))
	}

	switch cmd.Type {
	case CommandPost:
		return decidePost(state, cmd, now())
	case CommandCancel:
		return decideCancel(state, cmd, now())
	case CommandBuy:
		return decideBuy(state, cmd, now())
	case CommandReview:
		return decideReview(state, cmd, now())
	default:
		return Reject(apperrors.New(apperrors.CodeUnknown, fmt.Sprintf("unsupported command %q", cmd.Type)))
	}
}

func decidePost[F any](state State, cmd Command[F], at time.Time) Decision {
	if state.IDsExhausted {
		return Reject(apperrors.New(apperrors.CodeListingIDExhausted, "listing id space exhausted"))
	}
	posted := listing.Listing{Seller: cmd.Actor, Price: cmd.Price, Description: cmd.Description}
	return Accept(listingEvent(event.TypeListingPosted, cmd.Actor, state.NextID, PostedPayload{
		Seller:    cmd.Actor,
		ListingID: state.NextID,
		Listing:   posted,
	}, at))
}

func decideCancel[F any](state State, cmd Command[F], at time.Time) Decision {
	if !state.Exists {
		return Reject(notFound(cmd.ListingID))
	}
	if state.Status != listing.StatusActive {
		return Reject(invalidState(state, cmd.Type))
	}
	if cmd.Actor != state.Listing.Seller {
		return Reject(unauthorized(state.ListingID, cmd.Type, "only the seller can cancel a listing"))
	}
	return Accept(listingEvent(event.TypeListingCancelled, cmd.Actor, state.ListingID, CancelledPayload{
		ListingID: state.ListingID,
	}, at))
}

func decideBuy[F any](state State, cmd Command[F], at time.Time) Decision {
	if !state.Exists {
		return Reject(notFound(cmd.ListingID))
	}
	if state.Status != listing.StatusActive {
		return Reject(invalidState(state, cmd.Type))
	}
	if cmd.Actor == state.Listing.Seller {
		return Reject(unauthorized(state.ListingID, cmd.Type, "cannot buy own listing"))
	}
	return Accept(listingEvent(event.TypeListingSold, cmd.Actor, state.ListingID, SoldPayload{
		Buyer:     cmd.Actor,
		ListingID: state.ListingID,
	}, at))
}

func decideReview[F any](state State, cmd Command[F], at time.Time) Decision {
	if !state.Exists {
		return Reject(notFound(cmd.ListingID))
	}

	var role listing.Role
	var reviewee listing.AccountID
	switch {
	case cmd.Actor == state.Listing.Seller:
		role, reviewee = listing.RoleSeller, state.Buyer
	case state.HasBuyer && cmd.Actor == state.Buyer:
		role, reviewee = listing.RoleBuyer, state.Listing.Seller
	default:
		return Reject(apperrors.WithMetadata(
			apperrors.CodeListingNotInvolved,
			fmt.Sprintf("%s is not a party to listing %d", cmd.Actor, state.ListingID),
			listingMeta(state.ListingID, nil),
		))
	}

	settles := false
	switch state.Status {
	case listing.StatusActive:
		return Reject(invalidState(state, cmd.Type))
	case listing.StatusSold:
	case listing.StatusSellerReviewed:
		if role == listing.RoleSeller {
			return Reject(alreadyReviewed(state.ListingID))
		}
		settles = true
	case listing.StatusBuyerReviewed:
		if role == listing.RoleBuyer {
			return Reject(alreadyReviewed(state.ListingID))
		}
		settles = true
	default:
		return Reject(invalidState(state, cmd.Type))
	}

	feedback, err := json.Marshal(cmd.Feedback)
	if err != nil {
		return Reject(apperrors.Wrap(apperrors.CodeFeedbackInvalid, "encode feedback", err))
	}

	var transition event.Event
	if settles {
		transition = listingEvent(event.TypeListingSettled, cmd.Actor, state.ListingID, SettledPayload{
			ListingID: state.ListingID,
			Reviewer:  cmd.Actor,
			Reviewee:  reviewee,
			Role:      role,
		}, at)
	} else {
		transition = listingEvent(event.TypeListingReviewed, cmd.Actor, state.ListingID, ReviewedPayload{
			ListingID: state.ListingID,
			Reviewer:  cmd.Actor,
			Reviewee:  reviewee,
			Role:      role,
			Status:    role.ReviewedStatus(),
		}, at)
	}
	rated := mustEvent(event.New(event.TypeReputationRated, string(cmd.Actor), event.EntityAccount, string(reviewee), RatedPayload{
		Rater:     cmd.Actor,
		Ratee:     reviewee,
		Feedback:  feedback,
		ListingID: state.ListingID,
	}, at))
	return Accept(transition, rated)
}

func listingEvent(t event.Type, actor listing.AccountID, id listing.ID, payload any, at time.Time) event.Event {
	return mustEvent(event.New(t, string(actor), event.EntityListing, id.String(), payload, at))
}

// mustEvent panics on payload encoding failures, which cannot happen for the
// fixed payload structs above.
func mustEvent(evt event.Event, err error) event.Event {
	if err != nil {
		panic(err)
	}
	return evt
}

func listingMeta(id listing.ID, extra map[string]string) map[string]string {
	meta := map[string]string{"ListingID": id.String()}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}

func notFound(id listing.ID) *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeNotFound, fmt.Sprintf("listing %d not found", id), listingMeta(id, nil))
}

func invalidState(state State, cmd CommandType) *apperrors.Error {
	return apperrors.WithMetadata(
		apperrors.CodeListingInvalidState,
		fmt.Sprintf("listing %d is %s; %s not allowed", state.ListingID, state.Status, cmd.Operation()),
		listingMeta(state.ListingID, map[string]string{"Status": state.Status.String(), "Operation": cmd.Operation()}),
	)
}

func unauthorized(id listing.ID, cmd CommandType, message string) *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeListingUnauthorized, message, listingMeta(id, map[string]string{"Operation": cmd.Operation()}))
}

func alreadyReviewed(id listing.ID) *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeListingAlreadyReviewed, fmt.Sprintf("listing %d already reviewed by caller", id), listingMeta(id, nil))
}
