package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeCallerRequired              = "CALLER_REQUIRED"
	CodeNotFound                    = "NOT_FOUND"
	CodeListingInvalidState         = "LISTING_INVALID_STATE"
	CodeListingUnauthorized         = "LISTING_UNAUTHORIZED"
	CodeListingNotInvolved          = "LISTING_NOT_INVOLVED"
	CodeListingAlreadyReviewed      = "LISTING_ALREADY_REVIEWED"
	CodeListingIDExhausted          = "LISTING_ID_EXHAUSTED"
	CodeFeedbackInvalid             = "FEEDBACK_INVALID"
	CodeReputationCounterOverflow   = "REPUTATION_COUNTER_OVERFLOW"
	CodeReputationEngineUnsupported = "REPUTATION_ENGINE_UNSUPPORTED"
)

var enUS = map[Code]string{
	CodeCallerRequired:              "You must be signed in to do that.",
	CodeNotFound:                    "Listing {{.ListingID}} does not exist.",
	CodeListingInvalidState:         "Listing {{.ListingID}} is {{.Status}} and cannot be used for {{.Operation}}.",
	CodeListingUnauthorized:         "You are not allowed to {{.Operation}} listing {{.ListingID}}.",
	CodeListingNotInvolved:          "You were not involved in listing {{.ListingID}}.",
	CodeListingAlreadyReviewed:      "You have already reviewed listing {{.ListingID}}.",
	CodeListingIDExhausted:          "No more listings can be posted.",
	CodeFeedbackInvalid:             "Feedback {{.Feedback}} is not recognized.",
	CodeReputationCounterOverflow:   "Reputation for {{.Account}} can no longer be updated.",
	CodeReputationEngineUnsupported: "Reputation engine {{.Engine}} is not supported.",
}
