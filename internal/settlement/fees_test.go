package settlement

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFees(t *testing.T) {
	tests := []struct {
		name        string
		amount      uint64
		platformBps uint16
		creatorBps  uint16
		want        FeeSplit
	}{
		{
			name:        "default rates",
			amount:      1000,
			platformBps: 200,
			creatorBps:  100,
			want:        FeeSplit{Amount: 1000, PoolAmount: 970, PlatformFee: 20, CreatorFee: 10},
		},
		{
			name:        "fees floor to zero",
			amount:      33,
			platformBps: 200,
			creatorBps:  100,
			want:        FeeSplit{Amount: 33, PoolAmount: 33},
		},
		{
			name:   "no fees",
			amount: 500,
			want:   FeeSplit{Amount: 500, PoolAmount: 500},
		},
		{
			name:        "all fees",
			amount:      1000,
			platformBps: 6000,
			creatorBps:  4000,
			want:        FeeSplit{Amount: 1000, PlatformFee: 600, CreatorFee: 400},
		},
		{
			name:        "max amount does not overflow",
			amount:      math.MaxUint64,
			platformBps: 200,
			creatorBps:  100,
			want: FeeSplit{
				Amount:      math.MaxUint64,
				PlatformFee: 368934881474191032,
				CreatorFee:  184467440737095516,
				PoolAmount:  math.MaxUint64 - 368934881474191032 - 184467440737095516,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateFees(tt.amount, tt.platformBps, tt.creatorBps)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Amount, got.PoolAmount+got.TotalFees())
		})
	}
}

func TestCalculateFeesRejectsInvalidInput(t *testing.T) {
	_, err := CalculateFees(0, 200, 100)
	assert.True(t, errors.Is(err, ErrInvalidAmount))
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = CalculateFees(1000, 10001, 0)
	assert.ErrorIs(t, err, ErrInvalidFeeRate)

	_, err = CalculateFees(1000, 6000, 4001)
	assert.ErrorIs(t, err, ErrInvalidFeeRate)
}

func TestFeeIdentityAcrossAmounts(t *testing.T) {
	for amount := uint64(1); amount < 5000; amount += 7 {
		split, err := CalculateFees(amount, 250, 75)
		require.NoError(t, err)
		require.Equal(t, amount, split.PoolAmount+split.PlatformFee+split.CreatorFee, "amount %d", amount)
	}
}
