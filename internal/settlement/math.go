package settlement

import (
	"math"

	"github.com/holiman/uint256"
)

// MaxStoredAmount is the largest amount the database can persist; amount
// columns are signed 64-bit integers.
const MaxStoredAmount uint64 = math.MaxInt64

// mulDiv returns floor(a*b/d) computed in 256 bits. ok is false when d is
// zero or the quotient does not fit in 64 bits.
func mulDiv(a, b, d uint64) (uint64, bool) {
	if d == 0 {
		return 0, false
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := product.Div(product, uint256.NewInt(d))
	if !quotient.IsUint64() {
		return 0, false
	}
	return quotient.Uint64(), true
}

// checkedAdd returns a+b and false on overflow
func checkedAdd(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum >= a
}

// checkedSub returns a-b and false on underflow
func checkedSub(a, b uint64) (uint64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}
