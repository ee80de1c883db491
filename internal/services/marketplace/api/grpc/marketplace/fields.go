package marketplace

import (
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation/beta"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/storage"
)

// Request and response field names.
const (
	FieldListingID   = "listing_id"
	FieldNextID      = "next_id"
	FieldSeller      = "seller"
	FieldBuyer       = "buyer"
	FieldPrice       = "price"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldFeedback    = "feedback"
	FieldAccount     = "account"
	FieldScore       = "score"
	FieldPerbill     = "perbill"
	FieldNumerator   = "numerator"
	FieldDenominator = "denominator"
	FieldRatings     = "ratings"
	FieldPositive    = "positive"
	FieldNeutral     = "neutral"
	FieldNegative    = "negative"
	FieldOther       = "other"
)

func uint32Field(in *structpb.Struct, name string) (uint32, error) {
	value, ok := in.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	number, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
	n := number.NumberValue
	if n < 0 || n > math.MaxUint32 || n != math.Trunc(n) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer in [0, %d]", name, uint32(math.MaxUint32))
	}
	return uint32(n), nil
}

func listingIDField(in *structpb.Struct) (listing.ID, error) {
	n, err := uint32Field(in, FieldListingID)
	return listing.ID(n), err
}

func stringField(in *structpb.Struct, name string) (string, error) {
	value, ok := in.GetFields()[name]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	text, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok || text.StringValue == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a non-empty string", name)
	}
	return text.StringValue, nil
}

// CumulativeScore renders a cumulative engine score.
func CumulativeScore(score int32) map[string]any {
	return map[string]any{FieldScore: score}
}

// BetaScore renders a beta engine score as the exact fraction, its float
// value and its perbill approximation.
func BetaScore(score beta.Fraction) map[string]any {
	return map[string]any{
		FieldScore:       score.Float64(),
		FieldNumerator:   score.Num,
		FieldDenominator: score.Den,
		FieldPerbill:     score.Perbill(),
	}
}

func ratingFields(summary storage.RatingSummary) map[string]any {
	return map[string]any{
		FieldPositive: summary.Positive,
		FieldNeutral:  summary.Neutral,
		FieldNegative: summary.Negative,
		FieldOther:    summary.Other,
	}
}
