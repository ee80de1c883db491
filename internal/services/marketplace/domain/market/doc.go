// Package market owns the listing lifecycle: it allocates listing ids, keeps
// the listing, buyer and status tables, and advances each listing through
// Active, Sold, one review, and settlement.
//
// Writes follow a decide/fold split. Decide is a pure function from a
// per-listing State and a Command to a Decision; Fold applies accepted events
// to the in-memory tables. Market serializes every call behind one mutex,
// forwards reputation.rated events to the reputation Port, appends to an
// optional journal, and only then publishes. Any failure along the way
// restores every entry the call touched, so each operation is all or nothing.
//
// The same fold drives Replay, which rebuilds tables, the id allocator and the
// reputation engine from a journal on startup.
package market
