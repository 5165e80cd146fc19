package settlement

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// DefaultOdds is reported when both pools are empty. It is a convention, not a measurement.
const DefaultOdds uint16 = 5000

// CalculateOdds returns the implied YES probability in basis points
func CalculateOdds(yesPool, noPool uint64) uint16 {
	if yesPool == 0 && noPool == 0 {
		return DefaultOdds
	}
	// yes+no may exceed 64 bits
	total := new(uint256.Int).Add(uint256.NewInt(yesPool), uint256.NewInt(noPool))
	odds := new(uint256.Int).Mul(uint256.NewInt(yesPool), uint256.NewInt(BasisPoints))
	odds.Div(odds, total)
	return uint16(odds.Uint64())
}

// NoOdds returns the complementary NO probability in basis points
func NoOdds(yesOdds uint16) uint16 {
	return BasisPoints - yesOdds
}

// OddsPercent renders basis points as a percentage, e.g. 5000 -> "50.00"
func OddsPercent(bps uint16) string {
	return decimal.New(int64(bps), -2).StringFixed(2)
}

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL = 1_000_000_000

// LamportsToSOL renders a lamport amount in SOL with nine decimals
func LamportsToSOL(lamports uint64) string {
	return decimal.NewFromUint64(lamports).Shift(-9).StringFixed(9)
}
