// Package reputation defines the narrow boundary between the marketplace and
// whatever engine turns reviews into a trust score.
//
// The marketplace only ever calls Rate after a completed review and exposes
// Reputation for reads. Engines decide what feedback means and how scores are
// shaped; swapping engines never touches marketplace logic.
package reputation

// Port is implemented by reputation engines.
//
// Rate records feedback from rater about ratee. It must not fail for feedback
// produced by a conforming caller; errors are engine faults such as counter
// overflow, and a failing Rate must leave the engine unchanged.
//
// Reputation returns the current score of account, or the engine's defined
// default when the account has no history.
type Port[A comparable, F any, S any] interface {
	Rate(rater, ratee A, feedback F) error
	Reputation(account A) S
}

// Savepointer is implemented by engines that can undo mutations made after a
// savepoint. The marketplace uses it to keep a call atomic when a step after
// Rate fails.
type Savepointer[A comparable] interface {
	// Savepoint captures the state of accounts. The returned function restores
	// it and may be called at most once.
	Savepoint(accounts ...A) (restore func())
}
