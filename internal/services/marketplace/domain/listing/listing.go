package listing

import (
	"strconv"
	"strings"
)

// ID identifies a listing. IDs are allocated sequentially and never reused.
type ID uint32

// String renders the id in base 10.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses a base-10 listing id.
func ParseID(value string) (ID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, err
	}
	return ID(n), nil
}

// AccountID is an opaque account identity.
type AccountID string

// IsZero reports whether the account is blank.
func (a AccountID) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

// Listing is immutable once posted. Price and Description are opaque numbers;
// Description is typically a content hash.
type Listing struct {
	Seller      AccountID `json:"seller"`
	Price       uint32    `json:"price"`
	Description uint32    `json:"description"`
}
