// Package marketplace exposes the listing state machine over gRPC.
package marketplace

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
	"github.com/joshorndorff/marketplace/internal/platform/requestctx"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/storage"
)

// Market is the subset of market.Market the service drives.
type Market[S any] interface {
	PostListing(ctx context.Context, seller listing.AccountID, price, description uint32) (listing.ID, error)
	CancelListing(ctx context.Context, caller listing.AccountID, id listing.ID) error
	Buy(ctx context.Context, caller listing.AccountID, id listing.ID) error
	Review(ctx context.Context, caller listing.AccountID, id listing.ID, feedback reputation.Feedback) error
	NextID() (listing.ID, error)
	Listing(id listing.ID) (listing.Listing, bool)
	Buyer(id listing.ID) (listing.AccountID, bool)
	Status(id listing.ID) (listing.Status, bool)
	Reputation(account listing.AccountID) S
}

// Ratings counts the feedback an account has received from the journal.
type Ratings interface {
	RatingSummary(ctx context.Context, account listing.AccountID) (storage.RatingSummary, error)
}

// ScoreEncoder renders an engine score as response fields.
type ScoreEncoder[S any] func(score S) map[string]any

// Service implements MarketplaceServer on top of a market.
type Service[S any] struct {
	market  Market[S]
	encode  ScoreEncoder[S]
	ratings Ratings
}

// NewService returns a service for market. encode renders reputation scores.
func NewService[S any](market Market[S], encode ScoreEncoder[S]) *Service[S] {
	return &Service[S]{market: market, encode: encode}
}

// WithRatings attaches per-label rating counts to GetReputation responses.
func (s *Service[S]) WithRatings(ratings Ratings) *Service[S] {
	s.ratings = ratings
	return s
}

var _ MarketplaceServer = (*Service[int32])(nil)

// PostListing posts a listing for the authenticated caller.
func (s *Service[S]) PostListing(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(in); err != nil {
		return nil, err
	}
	price, err := uint32Field(in, FieldPrice)
	if err != nil {
		return nil, err
	}
	description, err := uint32Field(in, FieldDescription)
	if err != nil {
		return nil, err
	}
	id, err := s.market.PostListing(ctx, caller(ctx), price, description)
	if err != nil {
		return nil, apperrors.HandleError(err, "")
	}
	return response(map[string]any{FieldListingID: uint32(id)})
}

// CancelListing withdraws one of the caller's active listings.
func (s *Service[S]) CancelListing(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(in); err != nil {
		return nil, err
	}
	id, err := listingIDField(in)
	if err != nil {
		return nil, err
	}
	if err := s.market.CancelListing(ctx, caller(ctx), id); err != nil {
		return nil, apperrors.HandleError(err, "")
	}
	return &structpb.Struct{}, nil
}

// Buy records the caller as buyer of an active listing.
func (s *Service[S]) Buy(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(in); err != nil {
		return nil, err
	}
	id, err := listingIDField(in)
	if err != nil {
		return nil, err
	}
	if err := s.market.Buy(ctx, caller(ctx), id); err != nil {
		return nil, apperrors.HandleError(err, "")
	}
	return &structpb.Struct{}, nil
}

// Review leaves the caller's feedback about the other party of a sale.
func (s *Service[S]) Review(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(in); err != nil {
		return nil, err
	}
	id, err := listingIDField(in)
	if err != nil {
		return nil, err
	}
	label, err := stringField(in, FieldFeedback)
	if err != nil {
		return nil, err
	}
	feedback, err := reputation.ParseFeedback(label)
	if err != nil {
		return nil, apperrors.HandleError(err, "")
	}
	if err := s.market.Review(ctx, caller(ctx), id, feedback); err != nil {
		return nil, apperrors.HandleError(err, "")
	}
	return &structpb.Struct{}, nil
}

// GetNextId returns the id the next posted listing will receive.
func (s *Service[S]) GetNextId(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(in); err != nil {
		return nil, err
	}
	next, err := s.market.NextID()
	if err != nil {
		return nil, apperrors.HandleError(err, "")
	}
	return response(map[string]any{FieldNextID: uint32(next)})
}

// GetListing returns a live listing with its status and buyer.
func (s *Service[S]) GetListing(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(in); err != nil {
		return nil, err
	}
	id, err := listingIDField(in)
	if err != nil {
		return nil, err
	}
	record, ok := s.market.Listing(id)
	if !ok {
		return nil, apperrors.HandleError(apperrors.WithMetadata(apperrors.CodeNotFound, "listing not found", map[string]string{
			"ListingID": id.String(),
		}), "")
	}
	fields := map[string]any{
		FieldListingID:   uint32(id),
		FieldSeller:      string(record.Seller),
		FieldPrice:       record.Price,
		FieldDescription: record.Description,
	}
	if st, ok := s.market.Status(id); ok {
		fields[FieldStatus] = st.String()
	}
	if buyer, ok := s.market.Buyer(id); ok {
		fields[FieldBuyer] = string(buyer)
	}
	return response(fields)
}

// GetReputation returns an account's score as rendered by the score encoder,
// plus the rating counts when a journal is attached.
func (s *Service[S]) GetReputation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(in); err != nil {
		return nil, err
	}
	account, err := stringField(in, FieldAccount)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{FieldAccount: account}
	for key, value := range s.encode(s.market.Reputation(listing.AccountID(account))) {
		fields[key] = value
	}
	if s.ratings != nil {
		summary, err := s.ratings.RatingSummary(ctx, listing.AccountID(account))
		if err != nil {
			return nil, apperrors.HandleError(err, "")
		}
		fields[FieldRatings] = ratingFields(summary)
	}
	return response(fields)
}

func (s *Service[S]) ready(in *structpb.Struct) error {
	if in == nil {
		return status.Error(codes.InvalidArgument, "request is required")
	}
	if s == nil || s.market == nil || s.encode == nil {
		return status.Error(codes.Internal, "marketplace service is not configured")
	}
	return nil
}

func caller(ctx context.Context) listing.AccountID {
	return listing.AccountID(requestctx.AccountIDFromContext(ctx))
}

func response(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
