package settlement

import (
	"time"

	"market-settlement/internal/models"
)

// The functions in this file are the only writers of a market's pool ledger.
// Each one validates against a copy and assigns the copy back only when every
// check passed, so a rejected call leaves the market untouched.

// WagerResult describes what ApplyWager did to the market
type WagerResult struct {
	Sequence  uint64
	OddsAfter uint16
}

// ApplyWager credits fees.PoolAmount to side and accumulates volume, bet
// count and fees. firstForBettor increments the unique bettor counter.
func ApplyWager(m *models.Market, side models.BetSide, fees FeeSplit, firstForBettor bool) (WagerResult, error) {
	if !side.Valid() {
		return WagerResult{}, ErrInvalidSide
	}
	next := *m

	var ok bool
	if side == models.BetSideYes {
		next.YesPool, ok = checkedAdd(next.YesPool, fees.PoolAmount)
	} else {
		next.NoPool, ok = checkedAdd(next.NoPool, fees.PoolAmount)
	}
	if !ok {
		return WagerResult{}, ErrPoolOverflow
	}
	if _, ok = next.PoolTotal(); !ok {
		return WagerResult{}, ErrPoolOverflow
	}
	if next.TotalVolume, ok = checkedAdd(next.TotalVolume, fees.Amount); !ok {
		return WagerResult{}, ErrTotalVolumeOverflow
	}
	if next.TotalBets, ok = checkedAdd(next.TotalBets, 1); !ok {
		return WagerResult{}, ErrTotalBetsOverflow
	}
	if next.TotalPlatformFees, ok = checkedAdd(next.TotalPlatformFees, fees.PlatformFee); !ok {
		return WagerResult{}, ErrFeeOverflow
	}
	if next.TotalCreatorFees, ok = checkedAdd(next.TotalCreatorFees, fees.CreatorFee); !ok {
		return WagerResult{}, ErrFeeOverflow
	}
	if firstForBettor && next.UniqueBettors < ^uint32(0) {
		next.UniqueBettors++
	}

	result := WagerResult{
		Sequence:  m.TotalBets,
		OddsAfter: CalculateOdds(next.YesPool, next.NoPool),
	}
	*m = next
	return result, nil
}

// Resolve moves an active market past its end date to RESOLVED with outcome
// and marks its fees as distributed. The caller moves the fee funds in the
// same transaction.
func Resolve(m *models.Market, outcome models.BetSide, now time.Time) error {
	if !outcome.Valid() {
		return ErrInvalidSide
	}
	switch m.Status {
	case models.MarketStatusActive:
	case models.MarketStatusResolved:
		return ErrMarketAlreadyResolved
	default:
		return ErrMarketNotActive
	}
	if now.Before(m.EndDate) {
		return ErrMarketNotEnded
	}

	resolvedAt := now
	m.Status = models.MarketStatusResolved
	m.ResolvedOutcome = &outcome
	m.ResolvedAt = &resolvedAt
	m.FeesDistributed = true
	return nil
}

// Cancel moves an active market past its end date to CANCELLED
func Cancel(m *models.Market, now time.Time) error {
	if m.Status != models.MarketStatusActive {
		return ErrCannotCancelResolvedMarket
	}
	if now.Before(m.EndDate) {
		return ErrCannotCancelBeforeEndDate
	}

	cancelledAt := now
	m.Status = models.MarketStatusCancelled
	m.CancelledAt = &cancelledAt
	return nil
}

// RecordClaim adds amount to the market's total_claimed. A total beyond the
// claimable base afterwards is an accounting bug and reported as
// ErrConservationViolated.
func RecordClaim(m *models.Market, amount uint64) error {
	base, err := ClaimableBase(m)
	if err != nil {
		return err
	}
	total, ok := checkedAdd(m.TotalClaimed, amount)
	if !ok {
		return ErrTotalClaimedOverflow
	}
	if total > base {
		return ErrConservationViolated
	}
	m.TotalClaimed = total
	return nil
}

// ClaimableBase is the most that may ever be claimed from m. For a resolved
// market it is the pool total. A cancelled market never distributed its fees,
// so they are refundable too.
func ClaimableBase(m *models.Market) (uint64, error) {
	total, ok := m.PoolTotal()
	if !ok {
		return 0, ErrPoolOverflow
	}
	if m.Status != models.MarketStatusCancelled {
		return total, nil
	}
	if total, ok = checkedAdd(total, m.TotalPlatformFees); !ok {
		return 0, ErrPoolOverflow
	}
	if total, ok = checkedAdd(total, m.TotalCreatorFees); !ok {
		return 0, ErrPoolOverflow
	}
	return total, nil
}

// CheckPoolIdentity verifies yes_pool + no_pool + fees == total_volume, which
// holds for every market that has not paid out its fees.
func CheckPoolIdentity(m *models.Market) error {
	total, ok := m.PoolTotal()
	if !ok {
		return ErrPoolOverflow
	}
	if total, ok = checkedAdd(total, m.TotalPlatformFees); !ok {
		return ErrPoolOverflow
	}
	if total, ok = checkedAdd(total, m.TotalCreatorFees); !ok {
		return ErrPoolOverflow
	}
	if total != m.TotalVolume {
		return ErrConservationViolated
	}
	return nil
}
