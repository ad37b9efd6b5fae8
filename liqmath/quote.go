package liqmath

import (
	"fmt"
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/orca-client/types"
)

// QuoteSwap prices an exact-in swap against a snapshot, dispatching on the
// pool variant. It returns the expected output, the fee charged on the input
// and the price impact in percent. The snapshot is not modified.
func QuoteSwap(snapshot *types.PoolSnapshot, inputMint solana.PublicKey, inputAmount uint64) (output, feeAmount uint64, priceImpact float64, err error) {
	if inputAmount == 0 {
		return 0, 0, 0, types.ErrZeroOutput
	}

	var aToB bool
	switch {
	case inputMint.Equals(snapshot.TokenMintA):
		aToB = true
	case inputMint.Equals(snapshot.TokenMintB):
		aToB = false
	default:
		return 0, 0, 0, fmt.Errorf("mint %s is not traded by pool %s", inputMint, snapshot.Address)
	}

	feeFactor := 1.0 - snapshot.FeeFraction()
	feeAmount = inputAmount - uint64(float64(inputAmount)*feeFactor)

	switch snapshot.Variant {
	case types.VariantWhirlpool:
		output, priceImpact, err = whirlpoolOut(snapshot, inputAmount, aToB, feeFactor)
	case types.VariantStable:
		output, priceImpact, err = stableOut(snapshot, inputAmount, aToB, feeFactor)
	default:
		output, priceImpact, err = constantProductOut(snapshot, inputAmount, aToB, feeFactor)
	}
	if err != nil {
		return 0, 0, 0, err
	}
	if output == 0 {
		return 0, 0, 0, types.ErrZeroOutput
	}
	return output, feeAmount, priceImpact, nil
}

// constantProductOut prices against x*y=k reserves:
// out = y * a * f / (x + a * f).
func constantProductOut(s *types.PoolSnapshot, amount uint64, aToB bool, feeFactor float64) (uint64, float64, error) {
	inReserve, outReserve := s.BaseReserve, s.QuoteReserve
	if !aToB {
		inReserve, outReserve = outReserve, inReserve
	}
	if inReserve == 0 || outReserve == 0 {
		return 0, 0, types.ErrInsufficientLiquidity
	}

	x := new(big.Float).SetUint64(inReserve)
	y := new(big.Float).SetUint64(outReserve)
	a := new(big.Float).SetUint64(amount)
	a.Mul(a, big.NewFloat(feeFactor))

	numerator := new(big.Float).Mul(y, a)
	denominator := new(big.Float).Add(x, a)
	out, _ := new(big.Float).Quo(numerator, denominator).Uint64()

	if out >= outReserve {
		return 0, 0, types.ErrInsufficientLiquidity
	}

	// Impact relative to the zero-size spot fill at current reserves.
	spotOut := float64(amount) * float64(outReserve) / float64(inReserve)
	impact := 0.0
	if spotOut > 0 {
		impact = (spotOut - float64(out)) / spotOut * 100
	}
	return out, impact, nil
}

// whirlpoolOut prices within the active tick-spacing window of a
// concentrated pool. The quote moves the sqrt price against the in-range
// liquidity; a move that would leave the window crosses into tick state the
// snapshot does not carry, so it fails with ErrInsufficientLiquidity rather
// than guessing.
func whirlpoolOut(s *types.PoolSnapshot, amount uint64, aToB bool, feeFactor float64) (uint64, float64, error) {
	if s.Liquidity == nil || s.Liquidity.Sign() == 0 {
		return 0, 0, types.ErrInsufficientLiquidity
	}
	liq, _ := new(big.Float).SetInt(s.Liquidity).Float64()

	sqrtCur := sqrtPriceFromX64(s.SqrtPriceX64)
	if sqrtCur <= 0 {
		return 0, 0, types.ErrInsufficientLiquidity
	}

	windowLower, windowUpper := activeWindow(s.CurrentTick, s.TickSpacing)
	sqrtMin := TickToSqrtPrice(windowLower)
	sqrtMax := TickToSqrtPrice(windowUpper)

	in := float64(amount) * feeFactor

	var sqrtNew, out float64
	if aToB {
		// Selling A pushes the price down: sqrtNew = L*sqrtCur / (L + in*sqrtCur).
		sqrtNew = liq * sqrtCur / (liq + in*sqrtCur)
		if sqrtNew < sqrtMin {
			return 0, 0, types.ErrInsufficientLiquidity
		}
		out = liq * (sqrtCur - sqrtNew)
	} else {
		// Selling B pushes the price up: sqrtNew = sqrtCur + in/L.
		sqrtNew = sqrtCur + in/liq
		if sqrtNew > sqrtMax {
			return 0, 0, types.ErrInsufficientLiquidity
		}
		out = liq * (sqrtNew - sqrtCur) / (sqrtCur * sqrtNew)
	}

	impact := math.Abs(sqrtNew*sqrtNew-sqrtCur*sqrtCur) / (sqrtCur * sqrtCur) * 100
	return uint64(math.Floor(out)), impact, nil
}

// activeWindow returns the tick-spacing-aligned window containing the
// current tick.
func activeWindow(currentTick int32, spacing uint16) (int32, int32) {
	s := int32(spacing)
	if s == 0 {
		s = 1
	}
	lower := int32(math.Floor(float64(currentTick)/float64(s))) * s
	return lower, lower + s
}

func sqrtPriceFromX64(x *big.Int) float64 {
	if x == nil {
		return 0
	}
	f, _ := new(big.Float).SetMantExp(new(big.Float).SetInt(x), -64).Float64()
	return f
}

// SqrtPriceToX64 converts a float sqrt price into the on-chain Q64.64
// representation.
func SqrtPriceToX64(sqrtPrice float64) *big.Int {
	f := new(big.Float).SetMantExp(big.NewFloat(sqrtPrice), 64)
	out, _ := f.Int(nil)
	return out
}
