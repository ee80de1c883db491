// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Caller errors
	CodeCallerRequired Code = "CALLER_REQUIRED"

	// Listing errors
	CodeNotFound               Code = "NOT_FOUND"
	CodeListingInvalidState    Code = "LISTING_INVALID_STATE"
	CodeListingUnauthorized    Code = "LISTING_UNAUTHORIZED"
	CodeListingNotInvolved     Code = "LISTING_NOT_INVOLVED"
	CodeListingAlreadyReviewed Code = "LISTING_ALREADY_REVIEWED"
	CodeListingIDExhausted     Code = "LISTING_ID_EXHAUSTED"

	// Reputation errors
	CodeFeedbackInvalid             Code = "FEEDBACK_INVALID"
	CodeReputationCounterOverflow   Code = "REPUTATION_COUNTER_OVERFLOW"
	CodeReputationEngineUnsupported Code = "REPUTATION_ENGINE_UNSUPPORTED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeFeedbackInvalid:
		return codes.InvalidArgument

	// Unauthenticated - no verified caller
	case CodeCallerRequired:
		return codes.Unauthenticated

	// PermissionDenied - caller holds no right over the listing
	case CodeListingUnauthorized,
		CodeListingNotInvolved:
		return codes.PermissionDenied

	// FailedPrecondition - state doesn't allow operation
	case CodeListingInvalidState,
		CodeListingAlreadyReviewed:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
