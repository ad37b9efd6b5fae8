// Package liqmath is the stateless numeric core of the client: tick/price
// conversion, token-amount/liquidity conversion over a tick range, and quote
// functions for all three pool variants. No I/O, fully deterministic.
package liqmath

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/orca-client/types"
)

// Tick domain of concentrated-liquidity pools. A tick t maps to the price
// 1.0001^t.
const (
	MinTick int32 = -443636
	MaxTick int32 = 443636

	tickBase = 1.0001
)

// TickToPrice converts a tick index to the pool price of token A in token B.
// Ticks outside [MinTick, MaxTick] fail with ErrOutOfRange.
func TickToPrice(tick int32) (decimal.Decimal, error) {
	if tick < MinTick || tick > MaxTick {
		return decimal.Zero, types.ErrOutOfRange
	}
	return decimal.NewFromFloat(math.Pow(tickBase, float64(tick))), nil
}

// TickToSqrtPrice returns sqrt(1.0001^tick) without range checking; callers
// validate ticks first.
func TickToSqrtPrice(tick int32) float64 {
	return math.Pow(tickBase, float64(tick)/2)
}

// PriceToTick converts a price back to the nearest tick aligned to the
// pool's tick spacing. It inverts TickToPrice within rounding: an already
// spacing-aligned tick round-trips exactly.
func PriceToTick(price decimal.Decimal, tickSpacing uint16) (int32, error) {
	if tickSpacing == 0 {
		return 0, types.ErrOutOfRange
	}
	p, _ := price.Float64()
	if p <= 0 {
		return 0, types.ErrOutOfRange
	}

	raw := math.Log(p) / math.Log(tickBase)
	spacing := float64(tickSpacing)
	tick := int32(math.Round(raw/spacing) * spacing)

	if tick < MinTick || tick > MaxTick {
		return 0, types.ErrOutOfRange
	}
	return tick, nil
}

// AlignTick rounds a tick to the nearest multiple of the pool's tick
// spacing.
func AlignTick(tick int32, tickSpacing uint16) int32 {
	spacing := float64(tickSpacing)
	return int32(math.Round(float64(tick)/spacing) * spacing)
}

// ValidateTickRange enforces the position-range invariants: both ticks in
// domain, aligned to spacing, and lower strictly below upper.
func ValidateTickRange(lower, upper int32, tickSpacing uint16) error {
	if lower < MinTick || upper > MaxTick {
		return types.ErrOutOfRange
	}
	if lower >= upper {
		return types.ErrInvalidRange
	}
	if tickSpacing > 0 {
		s := int32(tickSpacing)
		if lower%s != 0 || upper%s != 0 {
			return types.ErrInvalidRange
		}
	}
	return nil
}
