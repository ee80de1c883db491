package market

import (
	"math"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
)

// Allocator hands out listing ids 0, 1, 2, ... and never reuses one.
// The final uint32 value is never issued: reaching it is exhaustion.
type Allocator struct {
	counter uint32
}

// Peek returns the id the next call to Next will issue.
func (a *Allocator) Peek() (listing.ID, error) {
	if a.counter == math.MaxUint32 {
		return 0, errIDsExhausted()
	}
	return listing.ID(a.counter), nil
}

// Next issues an id and advances the counter by one.
func (a *Allocator) Next() (listing.ID, error) {
	id, err := a.Peek()
	if err != nil {
		return 0, err
	}
	a.counter++
	return id, nil
}

func (a *Allocator) savepoint() func() {
	counter := a.counter
	return func() { a.counter = counter }
}

func errIDsExhausted() error {
	return apperrors.New(apperrors.CodeListingIDExhausted, "listing id space exhausted")
}
