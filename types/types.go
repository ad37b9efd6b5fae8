// Package types holds the value objects shared by every component of the
// client: pool snapshots, quotes, positions, analytics series and the
// error taxonomy.
package types

import (
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// PoolVariant identifies the pricing curve of a pool.
type PoolVariant string

const (
	// VariantWhirlpool is a concentrated-liquidity pool (tick based).
	VariantWhirlpool PoolVariant = "whirlpool"
	// VariantStandard is a legacy constant-product pool.
	VariantStandard PoolVariant = "standard"
	// VariantStable is a stable-swap pool (amplified invariant).
	VariantStable PoolVariant = "stable"
)

// PoolSnapshot is a typed, immutable view of a pool account at one point in
// time. A new poll always produces a new snapshot; existing snapshots are
// never mutated.
type PoolSnapshot struct {
	Address    solana.PublicKey
	TokenMintA solana.PublicKey
	TokenMintB solana.PublicKey
	Variant    PoolVariant

	// Whirlpool fields.
	Liquidity    *big.Int // u128, active liquidity
	SqrtPriceX64 *big.Int // u128, Q64.64 sqrt price
	CurrentTick  int32
	TickSpacing  uint16

	// Standard/stable fields.
	BaseReserve  uint64
	QuoteReserve uint64
	AmpFactor    uint64 // stable-swap amplification, 0 otherwise

	// FeeRate is expressed in hundredths of a basis point (1e-6).
	FeeRate uint32

	FeeGrowthGlobalA *big.Int // u128 accumulator
	FeeGrowthGlobalB *big.Int // u128 accumulator

	Timestamp time.Time
}

// Price returns the pool price of token A denominated in token B.
func (s *PoolSnapshot) Price() decimal.Decimal {
	switch s.Variant {
	case VariantWhirlpool:
		if s.SqrtPriceX64 == nil || s.SqrtPriceX64.Sign() == 0 {
			return decimal.Zero
		}
		// price = sqrtPriceX64^2 / 2^128
		sq := new(big.Float).SetInt(new(big.Int).Mul(s.SqrtPriceX64, s.SqrtPriceX64))
		f, _ := new(big.Float).SetMantExp(sq, -128).Float64()
		return decimal.NewFromFloat(f)
	default:
		if s.BaseReserve == 0 {
			return decimal.Zero
		}
		return decimal.NewFromUint64(s.QuoteReserve).
			Div(decimal.NewFromUint64(s.BaseReserve))
	}
}

// FeeFraction returns the trade fee as a fraction (e.g. 0.003).
func (s *PoolSnapshot) FeeFraction() float64 {
	return float64(s.FeeRate) / 1_000_000
}

// LiquidityPosition is a caller's claim on a tick range of a concentrated
// pool. Lower tick is strictly below upper tick and both are aligned to the
// pool's tick spacing.
type LiquidityPosition struct {
	PoolAddress          solana.PublicKey
	Owner                solana.PublicKey
	PositionMint         solana.PublicKey
	PositionTokenAccount solana.PublicKey
	LowerTick            int32
	UpperTick            int32
	Liquidity            *big.Int
	TokenAmountA         uint64 // derived at current price
	TokenAmountB         uint64 // derived at current price
	FeesOwedA            uint64
	FeesOwedB            uint64
}

// TradeQuote is the result of pricing a swap against one pool snapshot.
// Quotes are value objects: every execution retry derives a fresh one.
type TradeQuote struct {
	PoolAddress    solana.PublicKey
	InputMint      solana.PublicKey
	OutputMint     solana.PublicKey
	InputAmount    uint64
	ExpectedOutput uint64
	MinOutput      uint64
	FeeAmount      uint64
	PriceImpact    float64 // percent, display only
	Timestamp      time.Time
}

// TradeConfig bounds a swap execution.
type TradeConfig struct {
	// SlippageTolerance is a fraction, e.g. 0.005 for 0.5%.
	SlippageTolerance float64
	// MaxIterations is the re-quote budget, >= 1.
	MaxIterations int
}

// LiquidityConfig bounds an add/remove-liquidity execution.
type LiquidityConfig struct {
	SlippageTolerance float64
	MaxIterations     int
}

const (
	DefaultSlippageTolerance = 0.005
	DefaultMaxIterations     = 3
)

// DefaultTradeConfig returns the execution defaults used when the caller
// passes no config.
func DefaultTradeConfig() TradeConfig {
	return TradeConfig{
		SlippageTolerance: DefaultSlippageTolerance,
		MaxIterations:     DefaultMaxIterations,
	}
}

// DefaultLiquidityConfig returns the liquidity-change defaults.
func DefaultLiquidityConfig() LiquidityConfig {
	return LiquidityConfig{
		SlippageTolerance: DefaultSlippageTolerance,
		MaxIterations:     DefaultMaxIterations,
	}
}

// PriceSample is one point of the per-pool price series.
type PriceSample struct {
	PoolAddress solana.PublicKey
	Price       decimal.Decimal
	Timestamp   time.Time
}

// Kline is one completed OHLC bar over a fixed interval.
type Kline struct {
	PoolAddress solana.PublicKey
	Start       time.Time
	Interval    time.Duration
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	SampleCount int
}

// PoolHealth summarizes pool liquidity, activity and fee accrual into a
// composite score in [0, 100].
type PoolHealth struct {
	PoolAddress solana.PublicKey
	Liquidity   *big.Int
	Volume24h   uint64
	FeeGrowth   *big.Int
	HealthScore float64
}

// PriceUpdateEvent is emitted when a monitored pool moves past the
// configured threshold. Events are delivered, not stored.
type PriceUpdateEvent struct {
	PoolAddress   solana.PublicKey
	OldPrice      decimal.Decimal
	NewPrice      decimal.Decimal
	PercentChange float64
	Timestamp     time.Time
}
