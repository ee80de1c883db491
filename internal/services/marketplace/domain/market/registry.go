package market

import "github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"

// Registry holds the listing, buyer and status tables. It is a plain
// key-value store; Market enforces every invariant across the three tables.
type Registry struct {
	listings map[listing.ID]listing.Listing
	buyers   map[listing.ID]listing.AccountID
	statuses map[listing.ID]listing.Status
}

// NewRegistry returns empty tables.
func NewRegistry() *Registry {
	return &Registry{
		listings: make(map[listing.ID]listing.Listing),
		buyers:   make(map[listing.ID]listing.AccountID),
		statuses: make(map[listing.ID]listing.Status),
	}
}

func (r *Registry) Insert(id listing.ID, l listing.Listing) { r.listings[id] = l }

func (r *Registry) Get(id listing.ID) (listing.Listing, bool) {
	l, ok := r.listings[id]
	return l, ok
}

func (r *Registry) Exists(id listing.ID) bool {
	_, ok := r.listings[id]
	return ok
}

func (r *Registry) Remove(id listing.ID) { delete(r.listings, id) }

func (r *Registry) InsertBuyer(id listing.ID, buyer listing.AccountID) { r.buyers[id] = buyer }

func (r *Registry) GetBuyer(id listing.ID) (listing.AccountID, bool) {
	b, ok := r.buyers[id]
	return b, ok
}

func (r *Registry) RemoveBuyer(id listing.ID) { delete(r.buyers, id) }

func (r *Registry) SetStatus(id listing.ID, s listing.Status) { r.statuses[id] = s }

func (r *Registry) GetStatus(id listing.ID) (listing.Status, bool) {
	s, ok := r.statuses[id]
	return s, ok
}

func (r *Registry) RemoveStatus(id listing.ID) { delete(r.statuses, id) }

// Len returns the number of live listings.
func (r *Registry) Len() int { return len(r.listings) }

// removeAll drops every record for id.
func (r *Registry) removeAll(id listing.ID) {
	r.Remove(id)
	r.RemoveBuyer(id)
	r.RemoveStatus(id)
}

// savepoint captures all three entries for id.
func (r *Registry) savepoint(id listing.ID) func() {
	l, hasListing := r.listings[id]
	b, hasBuyer := r.buyers[id]
	s, hasStatus := r.statuses[id]
	return func() {
		r.removeAll(id)
		if hasListing {
			r.listings[id] = l
		}
		if hasBuyer {
			r.buyers[id] = b
		}
		if hasStatus {
			r.statuses[id] = s
		}
	}
}

// state loads the per-listing view Decide works on.
func (r *Registry) state(id listing.ID, alloc *Allocator) State {
	st := State{ListingID: id}
	st.Listing, st.Exists = r.Get(id)
	st.Status, _ = r.GetStatus(id)
	st.Buyer, st.HasBuyer = r.GetBuyer(id)
	next, err := alloc.Peek()
	st.NextID, st.IDsExhausted = next, err != nil
	return st
}
