package liqmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/orca-client/types"
)

func TestAmountsForLiquidityRegimes(t *testing.T) {
	liquidity := big.NewInt(1_000_000_000_000)

	// Current tick inside the range: both tokens present.
	amountA, amountB, err := AmountsForLiquidity(liquidity, -1000, 1000, 0)
	require.NoError(t, err)
	assert.Greater(t, amountA, uint64(0))
	assert.Greater(t, amountB, uint64(0))

	// Below the range: all token A.
	amountA, amountB, err = AmountsForLiquidity(liquidity, -1000, 1000, -2000)
	require.NoError(t, err)
	assert.Greater(t, amountA, uint64(0))
	assert.Equal(t, uint64(0), amountB)

	// Above the range: all token B.
	amountA, amountB, err = AmountsForLiquidity(liquidity, -1000, 1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), amountA)
	assert.Greater(t, amountB, uint64(0))
}

func TestAmountsForLiquidityContinuity(t *testing.T) {
	liquidity := big.NewInt(1_000_000_000_000)

	// Outside the range the amounts are identical to the clamped edge value.
	atEdgeA, atEdgeB, err := AmountsForLiquidity(liquidity, -1000, 1000, 1000)
	require.NoError(t, err)
	outsideA, outsideB, err := AmountsForLiquidity(liquidity, -1000, 1000, 1500)
	require.NoError(t, err)
	assert.Equal(t, atEdgeA, outsideA)
	assert.Equal(t, atEdgeB, outsideB)

	// Approaching the edge from inside converges to the edge value.
	insideA, insideB, err := AmountsForLiquidity(liquidity, -1000, 1000, 999)
	require.NoError(t, err)
	total := float64(atEdgeB)
	assert.InDelta(t, float64(atEdgeA), float64(insideA), total*0.002)
	assert.InDelta(t, float64(atEdgeB), float64(insideB), total*0.002)
}

func TestAmountsForLiquidityZero(t *testing.T) {
	amountA, amountB, err := AmountsForLiquidity(new(big.Int), -1000, 1000, 0)
	require.NoError(t, err)
	assert.Zero(t, amountA)
	assert.Zero(t, amountB)

	amountA, amountB, err = AmountsForLiquidity(nil, -1000, 1000, 0)
	require.NoError(t, err)
	assert.Zero(t, amountA)
	assert.Zero(t, amountB)
}

func TestAmountsForLiquidityInvalidInput(t *testing.T) {
	liquidity := big.NewInt(1)

	_, _, err := AmountsForLiquidity(liquidity, 1000, -1000, 0)
	assert.ErrorIs(t, err, types.ErrInvalidRange)

	_, _, err = AmountsForLiquidity(liquidity, -1000, 1000, MaxTick+1)
	assert.ErrorIs(t, err, types.ErrOutOfRange)
}

func TestLiquidityForAmountsInverse(t *testing.T) {
	amountA := uint64(1_000_000)
	amountB := uint64(1_000_000)

	liquidity, err := LiquidityForAmounts(amountA, amountB, -1000, 1000, 0)
	require.NoError(t, err)
	require.Positive(t, liquidity.Sign())

	// The amounts implied by the computed liquidity never exceed the
	// deposits, and the binding side is nearly fully used.
	gotA, gotB, err := AmountsForLiquidity(liquidity, -1000, 1000, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, gotA, amountA)
	assert.LessOrEqual(t, gotB, amountB)
	assert.Greater(t, gotA+gotB, uint64(0))

	used := float64(gotA)
	if gotB > gotA {
		used = float64(gotB)
	}
	assert.InDelta(t, 1_000_000, used, 1_000_000*0.001)
}

func TestLiquidityForAmountsOneSided(t *testing.T) {
	// Below the range only token A contributes.
	liquidity, err := LiquidityForAmounts(1_000_000, 0, -1000, 1000, -2000)
	require.NoError(t, err)
	assert.Positive(t, liquidity.Sign())

	// Above the range only token B contributes.
	liquidity, err = LiquidityForAmounts(0, 1_000_000, -1000, 1000, 2000)
	require.NoError(t, err)
	assert.Positive(t, liquidity.Sign())

	// No deposit, no liquidity.
	liquidity, err = LiquidityForAmounts(0, 0, -1000, 1000, 0)
	require.NoError(t, err)
	assert.Zero(t, liquidity.Sign())
}
