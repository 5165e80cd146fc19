package settlement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateOdds(t *testing.T) {
	tests := []struct {
		yes, no uint64
		want    uint16
	}{
		{0, 0, 5000},
		{100, 100, 5000},
		{300, 100, 7500},
		{0, 100, 0},
		{100, 0, 10000},
		{1, 2, 3333},
		{math.MaxUint64, math.MaxUint64, 5000},
		{math.MaxUint64, 1, 9999},
	}

	for _, tt := range tests {
		got := CalculateOdds(tt.yes, tt.no)
		assert.Equal(t, tt.want, got, "yes=%d no=%d", tt.yes, tt.no)
		assert.LessOrEqual(t, got, uint16(BasisPoints))
	}
}

func TestNoOdds(t *testing.T) {
	assert.Equal(t, uint16(2500), NoOdds(7500))
	assert.Equal(t, uint16(5000), NoOdds(DefaultOdds))
	assert.Equal(t, uint16(10000), NoOdds(0))
}

func TestDisplayHelpers(t *testing.T) {
	assert.Equal(t, "75.00", OddsPercent(7500))
	assert.Equal(t, "33.33", OddsPercent(3333))
	assert.Equal(t, "1.500000000", LamportsToSOL(1_500_000_000))
	assert.Equal(t, "0.000000001", LamportsToSOL(1))
}
