package listing

import "fmt"

// Status is the lifecycle position of a live listing. A settled or cancelled
// listing has no status at all.
type Status uint8

const (
	StatusActive Status = iota
	StatusSold
	StatusSellerReviewed
	StatusBuyerReviewed
)

var statusLabels = [...]string{
	StatusActive:         "active",
	StatusSold:           "sold",
	StatusSellerReviewed: "seller_reviewed",
	StatusBuyerReviewed:  "buyer_reviewed",
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	return int(s) < len(statusLabels)
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("status(%d)", uint8(s))
	}
	return statusLabels[s]
}

// MarshalText encodes the status label.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return []byte(statusLabels[s]), nil
}

// UnmarshalText decodes a status label.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus maps a label back to its status.
func ParseStatus(label string) (Status, error) {
	for i, candidate := range statusLabels {
		if candidate == label {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", label)
}

// Reviewed reports whether either party has already left a review.
func (s Status) Reviewed() bool {
	return s == StatusSellerReviewed || s == StatusBuyerReviewed
}

// Role is the part an account plays in a sold listing.
type Role uint8

const (
	RoleSeller Role = iota
	RoleBuyer
)

func (r Role) String() string {
	switch r {
	case RoleSeller:
		return "seller"
	case RoleBuyer:
		return "buyer"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// MarshalText encodes the role label.
func (r Role) MarshalText() ([]byte, error) {
	if r > RoleBuyer {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role label.
func (r *Role) UnmarshalText(text []byte) error {
	switch string(text) {
	case "seller":
		*r = RoleSeller
	case "buyer":
		*r = RoleBuyer
	default:
		return fmt.Errorf("unknown role %q", text)
	}
	return nil
}

// ReviewedStatus is the status reached when this role reviews first.
func (r Role) ReviewedStatus() Status {
	if r == RoleSeller {
		return StatusSellerReviewed
	}
	return StatusBuyerReviewed
}
