package marketplace

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
)

// Client calls the marketplace service over a connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// ListingView is a listing as returned by GetListing.
type ListingView struct {
	ID       listing.ID
	Listing  listing.Listing
	Status   string
	Buyer    listing.AccountID
	HasBuyer bool
}

// Invoke performs one unary call with Struct messages.
func (c *Client) Invoke(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// PostListing posts a listing and returns its id.
func (c *Client) PostListing(ctx context.Context, price, description uint32, opts ...grpc.CallOption) (listing.ID, error) {
	out, err := c.Invoke(ctx, PostListingMethod, map[string]any{
		FieldPrice:       price,
		FieldDescription: description,
	}, opts...)
	if err != nil {
		return 0, err
	}
	id, err := listingIDField(out)
	if err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return id, nil
}

// CancelListing withdraws a listing.
func (c *Client) CancelListing(ctx context.Context, id listing.ID, opts ...grpc.CallOption) error {
	_, err := c.Invoke(ctx, CancelListingMethod, map[string]any{FieldListingID: uint32(id)}, opts...)
	return err
}

// Buy buys a listing.
func (c *Client) Buy(ctx context.Context, id listing.ID, opts ...grpc.CallOption) error {
	_, err := c.Invoke(ctx, BuyMethod, map[string]any{FieldListingID: uint32(id)}, opts...)
	return err
}

// Review reviews the other party of a sale.
func (c *Client) Review(ctx context.Context, id listing.ID, feedback reputation.Feedback, opts ...grpc.CallOption) error {
	_, err := c.Invoke(ctx, ReviewMethod, map[string]any{
		FieldListingID: uint32(id),
		FieldFeedback:  feedback.String(),
	}, opts...)
	return err
}

// NextID returns the id the next listing will receive.
func (c *Client) NextID(ctx context.Context, opts ...grpc.CallOption) (listing.ID, error) {
	out, err := c.Invoke(ctx, GetNextIDMethod, nil, opts...)
	if err != nil {
		return 0, err
	}
	next, err := uint32Field(out, FieldNextID)
	if err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return listing.ID(next), nil
}

// GetListing fetches a live listing.
func (c *Client) GetListing(ctx context.Context, id listing.ID, opts ...grpc.CallOption) (ListingView, error) {
	out, err := c.Invoke(ctx, GetListingMethod, map[string]any{FieldListingID: uint32(id)}, opts...)
	if err != nil {
		return ListingView{}, err
	}
	view := ListingView{ID: id}
	seller, err := stringField(out, FieldSeller)
	if err != nil {
		return ListingView{}, fmt.Errorf("decode response: %w", err)
	}
	view.Listing.Seller = listing.AccountID(seller)
	if view.Listing.Price, err = uint32Field(out, FieldPrice); err != nil {
		return ListingView{}, fmt.Errorf("decode response: %w", err)
	}
	if view.Listing.Description, err = uint32Field(out, FieldDescription); err != nil {
		return ListingView{}, fmt.Errorf("decode response: %w", err)
	}
	view.Status = out.GetFields()[FieldStatus].GetStringValue()
	if buyer := out.GetFields()[FieldBuyer].GetStringValue(); buyer != "" {
		view.Buyer = listing.AccountID(buyer)
		view.HasBuyer = true
	}
	return view, nil
}

// Reputation returns the score fields for account.
func (c *Client) Reputation(ctx context.Context, account listing.AccountID, opts ...grpc.CallOption) (map[string]any, error) {
	out, err := c.Invoke(ctx, GetReputationMethod, map[string]any{FieldAccount: string(account)}, opts...)
	if err != nil {
		return nil, err
	}
	fields := out.AsMap()
	delete(fields, FieldAccount)
	return fields, nil
}
