package settlement

import (
	"math"
	"testing"
	"time"

	"market-settlement/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyWager(t *testing.T) {
	m := newTestMarket()
	fees, err := CalculateFees(1000, 200, 100)
	require.NoError(t, err)

	res, err := ApplyWager(m, models.BetSideYes, fees, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.Sequence)
	assert.Equal(t, uint16(10000), res.OddsAfter)
	assert.Equal(t, uint64(970), m.YesPool)
	assert.Equal(t, uint64(1000), m.TotalVolume)
	assert.Equal(t, uint64(1), m.TotalBets)
	assert.Equal(t, uint32(1), m.UniqueBettors)

	res, err = ApplyWager(m, models.BetSideNo, fees, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Sequence)
	assert.Equal(t, uint16(5000), res.OddsAfter)
	assert.Equal(t, uint32(1), m.UniqueBettors)
}

func TestApplyWagerOverflowLeavesMarketUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		market models.Market
		want   error
	}{
		{"yes pool", models.Market{YesPool: math.MaxUint64}, ErrPoolOverflow},
		{"pool total", models.Market{NoPool: math.MaxUint64}, ErrPoolOverflow},
		{"volume", models.Market{TotalVolume: math.MaxUint64}, ErrTotalVolumeOverflow},
		{"bets", models.Market{TotalBets: math.MaxUint64}, ErrTotalBetsOverflow},
		{"platform fees", models.Market{TotalPlatformFees: math.MaxUint64}, ErrFeeOverflow},
		{"creator fees", models.Market{TotalCreatorFees: math.MaxUint64}, ErrFeeOverflow},
	}

	fees := FeeSplit{Amount: 100, PoolAmount: 97, PlatformFee: 2, CreatorFee: 1}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.market
			before := m
			_, err := ApplyWager(&m, models.BetSideYes, fees, true)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, KindArithmetic, KindOf(err))
			assert.Equal(t, before, m)
		})
	}
}

func TestResolve(t *testing.T) {
	m := newTestMarket()
	assert.ErrorIs(t, Resolve(m, models.BetSideYes, testEndDate.Add(-time.Second)), ErrMarketNotEnded)
	assert.Equal(t, models.MarketStatusActive, m.Status)

	require.NoError(t, Resolve(m, models.BetSideNo, testEndDate))
	assert.Equal(t, models.MarketStatusResolved, m.Status)
	require.NotNil(t, m.ResolvedOutcome)
	assert.Equal(t, models.BetSideNo, *m.ResolvedOutcome)
	assert.True(t, m.FeesDistributed)
	assert.Equal(t, uint64(0), m.TotalClaimed)

	assert.ErrorIs(t, Resolve(m, models.BetSideYes, testEndDate), ErrMarketAlreadyResolved)

	cancelled := newTestMarket()
	require.NoError(t, Cancel(cancelled, testEndDate))
	assert.ErrorIs(t, Resolve(cancelled, models.BetSideYes, testEndDate), ErrMarketNotActive)
}

func TestCancel(t *testing.T) {
	m := newTestMarket()
	assert.ErrorIs(t, Cancel(m, testEndDate.Add(-time.Minute)), ErrCannotCancelBeforeEndDate)

	require.NoError(t, Cancel(m, testEndDate))
	assert.Equal(t, models.MarketStatusCancelled, m.Status)
	assert.NotNil(t, m.CancelledAt)

	assert.ErrorIs(t, Cancel(m, testEndDate), ErrCannotCancelResolvedMarket)
}

func TestRecordClaimDetectsConservationViolation(t *testing.T) {
	m := newTestMarket()
	m.YesPool = 100
	m.NoPool = 100
	require.NoError(t, Resolve(m, models.BetSideYes, testEndDate))

	require.NoError(t, RecordClaim(m, 150))
	err := RecordClaim(m, 51)
	assert.ErrorIs(t, err, ErrConservationViolated)
	assert.Equal(t, KindFatal, KindOf(err))
	assert.Equal(t, uint64(150), m.TotalClaimed)
}

func TestErrorHelpers(t *testing.T) {
	assert.Equal(t, "BetLost", CodeOf(ErrBetLost))
	assert.Equal(t, KindState, KindOf(ErrBetLost))
	assert.Equal(t, Kind(""), KindOf(assert.AnError))
	assert.Equal(t, "", CodeOf(nil))
}
