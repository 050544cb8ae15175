package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewAvgPriceFirstReceipt(t *testing.T) {
	avg, err := NewAvgPrice(0, decimal.Zero, 10, d("5.00"))
	require.NoError(t, err)
	require.True(t, avg.Equal(d("5.00")), "got %s", avg)
}

func TestNewAvgPriceWeighted(t *testing.T) {
	avg, err := NewAvgPrice(10, d("5.00"), 10, d("7.00"))
	require.NoError(t, err)
	require.True(t, avg.Equal(d("6.00")), "got %s", avg)
}

func TestNewAvgPriceRejectsZeroIncoming(t *testing.T) {
	_, err := NewAvgPrice(10, d("5.00"), 0, d("7.00"))
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewAvgPrice(10, d("5.00"), -3, d("7.00"))
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestNewAvgPriceRejectsNegativeCost(t *testing.T) {
	_, err := NewAvgPrice(10, d("5.00"), 5, d("-1.00"))
	require.ErrorIs(t, err, ErrInvalidCost)
}

func TestNewAvgPriceRoundsHalfToEven(t *testing.T) {
	// (1*1.00 + 1*1.05) / 2 = 1.025 -> 1.02 under banker's rounding.
	avg, err := NewAvgPrice(1, d("1.00"), 1, d("1.05"))
	require.NoError(t, err)
	require.True(t, avg.Equal(d("1.02")), "got %s", avg)

	// (1*1.00 + 1*1.07) / 2 = 1.035 -> 1.04.
	avg, err = NewAvgPrice(1, d("1.00"), 1, d("1.07"))
	require.NoError(t, err)
	require.True(t, avg.Equal(d("1.04")), "got %s", avg)
}

func TestNewAvgPriceRoundsOnceAtTheEnd(t *testing.T) {
	// A third at 10.00 over three units keeps full precision until the final
	// rounding step.
	avg, err := NewAvgPrice(2, decimal.Zero, 1, d("10.00"))
	require.NoError(t, err)
	require.True(t, avg.Equal(d("3.33")), "got %s", avg)
}
