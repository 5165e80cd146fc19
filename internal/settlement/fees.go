package settlement

// BasisPoints is the denominator of every rate: 10000 bps = 100%
const BasisPoints = 10000

// FeeSplit is the division of a gross wager into pool and fee parts.
// Amount == PoolAmount + PlatformFee + CreatorFee always holds.
type FeeSplit struct {
	Amount      uint64
	PoolAmount  uint64
	PlatformFee uint64
	CreatorFee  uint64
}

// TotalFees returns PlatformFee + CreatorFee
func (f FeeSplit) TotalFees() uint64 {
	return f.PlatformFee + f.CreatorFee
}

// CalculateFees splits amount into the part entering the pool and the two
// extracted fees. Fees are floored at basis-point granularity.
func CalculateFees(amount uint64, platformFeeBps, creatorFeeBps uint16) (FeeSplit, error) {
	if amount == 0 {
		return FeeSplit{}, ErrInvalidAmount
	}
	if uint32(platformFeeBps)+uint32(creatorFeeBps) > BasisPoints {
		return FeeSplit{}, ErrInvalidFeeRate
	}

	platformFee, ok := mulDiv(amount, uint64(platformFeeBps), BasisPoints)
	if !ok {
		return FeeSplit{}, ErrFeeOverflow
	}
	creatorFee, ok := mulDiv(amount, uint64(creatorFeeBps), BasisPoints)
	if !ok {
		return FeeSplit{}, ErrFeeOverflow
	}

	// platformFee + creatorFee <= amount because the rates sum to at most 100%
	return FeeSplit{
		Amount:      amount,
		PoolAmount:  amount - platformFee - creatorFee,
		PlatformFee: platformFee,
		CreatorFee:  creatorFee,
	}, nil
}
