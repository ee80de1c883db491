package beta

import (
	"fmt"
	"math/bits"
)

// Fraction is an unreduced ratio in [0, 1].
type Fraction struct {
	Num uint64 `json:"num"`
	Den uint64 `json:"den"`
}

// Prior is the score of an account with no history.
var Prior = Fraction{Num: 1, Den: 2}

// Equal compares by value, so 4/6 equals 2/3.
func (f Fraction) Equal(other Fraction) bool {
	hi1, lo1 := bits.Mul64(f.Num, other.Den)
	hi2, lo2 := bits.Mul64(other.Num, f.Den)
	return hi1 == hi2 && lo1 == lo2
}

// Float64 approximates the ratio.
func (f Fraction) Float64() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den)
}

// Perbill scales the ratio to parts per billion, rounding down.
func (f Fraction) Perbill() uint32 {
	if f.Den == 0 {
		return 0
	}
	if f.Num >= f.Den {
		return 1_000_000_000
	}
	hi, lo := bits.Mul64(f.Num, 1_000_000_000)
	q, _ := bits.Div64(hi, lo, f.Den)
	return uint32(q)
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}
