package settlement

import (
	"market-settlement/internal/models"
)

// Claim is the result of a payout or refund computation.
// Actual is what gets transferred; it never exceeds Computed.
type Claim struct {
	Computed uint64
	Actual   uint64
}

// ComputePayout returns the winnings of a position contributing poolAmount
// to the winning pool: its stake plus its pro-rata share of the losing pool,
// capped by what is left of totalPool after totalClaimed.
func ComputePayout(poolAmount, winningPool, losingPool, totalPool, totalClaimed uint64) (Claim, error) {
	if winningPool == 0 {
		return Claim{}, ErrNoWinnersCannotClaim
	}
	share, ok := mulDiv(poolAmount, losingPool, winningPool)
	if !ok {
		return Claim{}, ErrPayoutCalculationOverflow
	}
	computed, ok := checkedAdd(poolAmount, share)
	if !ok {
		return Claim{}, ErrPayoutCalculationOverflow
	}
	remaining, ok := checkedSub(totalPool, totalClaimed)
	if !ok {
		return Claim{}, ErrTotalClaimedOverflow
	}
	return Claim{Computed: computed, Actual: min(computed, remaining)}, nil
}

// PositionPayout computes the payout of p against resolved market m
func PositionPayout(m *models.Market, p *models.Position) (Claim, error) {
	if m.Status != models.MarketStatusResolved || m.ResolvedOutcome == nil {
		return Claim{}, ErrMarketNotResolved
	}
	outcome := *m.ResolvedOutcome
	if p.Side != outcome {
		return Claim{}, ErrBetLost
	}
	total, ok := m.PoolTotal()
	if !ok {
		return Claim{}, ErrPoolOverflow
	}
	return ComputePayout(p.PoolAmount, m.PoolFor(outcome), m.PoolFor(outcome.Opposite()), total, m.TotalClaimed)
}

// ComputeRefund returns the refund of a position with gross stake gross,
// capped by what is left of the claimable base of cancelled market m.
func ComputeRefund(m *models.Market, gross uint64) (Claim, error) {
	if m.Status != models.MarketStatusCancelled {
		return Claim{}, ErrMarketNotCancelled
	}
	base, err := ClaimableBase(m)
	if err != nil {
		return Claim{}, err
	}
	remaining, ok := checkedSub(base, m.TotalClaimed)
	if !ok {
		return Claim{}, ErrTotalClaimedOverflow
	}
	return Claim{Computed: gross, Actual: min(gross, remaining)}, nil
}

// QuotePayout projects the payout of a new wager on side as if the market
// resolved in its favour right after it was placed.
func QuotePayout(m *models.Market, side models.BetSide, fees FeeSplit) (Claim, error) {
	next := *m
	if _, err := ApplyWager(&next, side, fees, false); err != nil {
		return Claim{}, err
	}
	total, ok := next.PoolTotal()
	if !ok {
		return Claim{}, ErrPoolOverflow
	}
	return ComputePayout(fees.PoolAmount, next.PoolFor(side), next.PoolFor(side.Opposite()), total, 0)
}
