package liqmath

import (
	"math"

	"github.com/rovshanmuradov/orca-client/types"
)

// Stable-swap pricing: Curve's amplified invariant over two coins,
//
//	A*n^n*sum(x) + D = A*n^n*D + D^(n+1) / (n^n * prod(x))
//
// solved iteratively for D and, per quote, for the post-trade output reserve.
const (
	stableIterations = 256
	defaultAmp       = 100
)

// stableOut prices an exact-in swap against the stable-swap invariant.
func stableOut(s *types.PoolSnapshot, amount uint64, aToB bool, feeFactor float64) (uint64, float64, error) {
	inReserve, outReserve := s.BaseReserve, s.QuoteReserve
	if !aToB {
		inReserve, outReserve = outReserve, inReserve
	}
	if inReserve == 0 || outReserve == 0 {
		return 0, 0, types.ErrInsufficientLiquidity
	}

	amp := float64(s.AmpFactor)
	if amp == 0 {
		amp = defaultAmp
	}

	x := float64(inReserve)
	y := float64(outReserve)
	d := stableD(x, y, amp)

	newX := x + float64(amount)*feeFactor
	newY := stableY(newX, d, amp)
	if math.IsNaN(newY) || newY <= 0 || newY >= y {
		return 0, 0, types.ErrInsufficientLiquidity
	}

	out := math.Floor(y - newY)
	if out >= y {
		return 0, 0, types.ErrInsufficientLiquidity
	}

	// Near the peg the spot rate is ~1:1; impact is the deviation from it.
	spotOut := float64(amount)
	impact := 0.0
	if spotOut > 0 && out < spotOut {
		impact = (spotOut - out) / spotOut * 100
	}
	return uint64(out), impact, nil
}

// stableD solves the invariant for D given both reserves, by Newton
// iteration (converges quadratically for well-formed pools).
func stableD(x, y, amp float64) float64 {
	sum := x + y
	if sum == 0 {
		return 0
	}
	const n = 2.0
	ann := amp * n * n

	d := sum
	for i := 0; i < stableIterations; i++ {
		dp := d * d * d / (n * n * x * y)
		prev := d
		d = (ann*sum + dp*n) * d / ((ann-1)*d + (n+1)*dp)
		if math.Abs(d-prev) <= 1 {
			break
		}
	}
	return d
}

// stableY solves the invariant for the output-side reserve given the new
// input-side reserve and D.
func stableY(x, d, amp float64) float64 {
	const n = 2.0
	ann := amp * n * n

	c := d * d * d / (n * n * x * ann)
	b := x + d/ann - d

	y := d
	for i := 0; i < stableIterations; i++ {
		prev := y
		y = (y*y + c) / (2*y + b)
		if math.Abs(y-prev) <= 1 {
			break
		}
	}
	return y
}
