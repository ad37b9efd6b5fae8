package liqmath

import (
	"math"
	"math/big"

	"github.com/rovshanmuradov/orca-client/types"
)

// AmountsForLiquidity converts a liquidity value over [lowerTick, upperTick]
// into the token amounts it represents at the current tick. Three regimes:
// below the range the position is all token A, above it all token B, inside
// it a split. The current sqrt price is clamped to the range bounds, which
// makes the result continuous across the range edges.
func AmountsForLiquidity(liquidity *big.Int, lowerTick, upperTick, currentTick int32) (amountA, amountB uint64, err error) {
	if err := ValidateTickRange(lowerTick, upperTick, 0); err != nil {
		return 0, 0, err
	}
	if currentTick < MinTick || currentTick > MaxTick {
		return 0, 0, types.ErrOutOfRange
	}
	if liquidity == nil || liquidity.Sign() == 0 {
		return 0, 0, nil
	}

	l, _ := new(big.Float).SetInt(liquidity).Float64()
	sqrtLower := TickToSqrtPrice(lowerTick)
	sqrtUpper := TickToSqrtPrice(upperTick)

	sqrtCur := TickToSqrtPrice(currentTick)
	if sqrtCur < sqrtLower {
		sqrtCur = sqrtLower
	}
	if sqrtCur > sqrtUpper {
		sqrtCur = sqrtUpper
	}

	// amountA = L * (sqrtUpper - sqrtCur) / (sqrtCur * sqrtUpper)
	// amountB = L * (sqrtCur - sqrtLower)
	amountA = uint64(math.Floor(l * (sqrtUpper - sqrtCur) / (sqrtCur * sqrtUpper)))
	amountB = uint64(math.Floor(l * (sqrtCur - sqrtLower)))
	return amountA, amountB, nil
}

// LiquidityForAmounts inverts AmountsForLiquidity: given the token amounts a
// caller wants to deposit over a range, it returns the largest liquidity
// value both amounts can cover at the current tick.
func LiquidityForAmounts(amountA, amountB uint64, lowerTick, upperTick, currentTick int32) (*big.Int, error) {
	if err := ValidateTickRange(lowerTick, upperTick, 0); err != nil {
		return nil, err
	}

	sqrtLower := TickToSqrtPrice(lowerTick)
	sqrtUpper := TickToSqrtPrice(upperTick)
	sqrtCur := TickToSqrtPrice(currentTick)
	if sqrtCur < sqrtLower {
		sqrtCur = sqrtLower
	}
	if sqrtCur > sqrtUpper {
		sqrtCur = sqrtUpper
	}

	liqA := math.Inf(1)
	if sqrtCur < sqrtUpper {
		liqA = float64(amountA) * sqrtCur * sqrtUpper / (sqrtUpper - sqrtCur)
	}
	liqB := math.Inf(1)
	if sqrtCur > sqrtLower {
		liqB = float64(amountB) / (sqrtCur - sqrtLower)
	}

	liq := math.Min(liqA, liqB)
	if math.IsInf(liq, 1) || liq <= 0 {
		return new(big.Int), nil
	}
	out, _ := big.NewFloat(math.Floor(liq)).Int(nil)
	return out, nil
}
