package types

import "math"

// MinAmountOut applies a slippage tolerance (fraction) to an expected swap
// output and returns the lowest acceptable fill.
func MinAmountOut(expected uint64, tolerance float64) uint64 {
	return uint64(math.Floor(float64(expected) * (1.0 - tolerance)))
}

// MaxAmountIn applies a slippage tolerance to an expected deposit and returns
// the highest acceptable amount, used as the bound on liquidity removal and
// on the pay side of a buy.
func MaxAmountIn(expected uint64, tolerance float64) uint64 {
	return uint64(math.Ceil(float64(expected) * (1.0 + tolerance)))
}
