package metrics

import (
	"math/big"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/orca-client/types"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// reserveSnapshot builds a standard-pool snapshot whose price is
// quoteReserve/baseReserve.
func reserveSnapshot(pool solana.PublicKey, baseReserve, quoteReserve uint64, at time.Time) *types.PoolSnapshot {
	return &types.PoolSnapshot{
		Address:          pool,
		Variant:          types.VariantStandard,
		BaseReserve:      baseReserve,
		QuoteReserve:     quoteReserve,
		FeeGrowthGlobalA: new(big.Int),
		FeeGrowthGlobalB: new(big.Int),
		Timestamp:        at,
	}
}

func TestRecordAndPriceHistory(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	pool := solana.NewWallet().PublicKey()

	for i := 0; i < 5; i++ {
		registry.Record(reserveSnapshot(pool, 1000, uint64(100_000+i*1000), baseTime.Add(time.Duration(i)*10*time.Second)))
	}

	history := registry.PriceHistory(pool, 3)
	require.Len(t, history, 3)
	// Oldest first, most recent 3 of the 5.
	assert.Equal(t, baseTime.Add(20*time.Second), history[0].Timestamp)
	assert.Equal(t, baseTime.Add(40*time.Second), history[2].Timestamp)
	assert.True(t, history[2].Price.GreaterThan(history[0].Price))

	// Limit beyond the buffer size returns everything.
	assert.Len(t, registry.PriceHistory(pool, 100), 5)
	// Unknown pool yields nothing.
	assert.Empty(t, registry.PriceHistory(solana.NewWallet().PublicKey(), 10))
}

func TestRecordDiscardsOutOfOrder(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	pool := solana.NewWallet().PublicKey()

	registry.Record(reserveSnapshot(pool, 1000, 100_000, baseTime))
	registry.Record(reserveSnapshot(pool, 1000, 101_000, baseTime.Add(10*time.Second)))

	// Same timestamp and an earlier one are both discarded.
	registry.Record(reserveSnapshot(pool, 1000, 102_000, baseTime.Add(10*time.Second)))
	registry.Record(reserveSnapshot(pool, 1000, 103_000, baseTime.Add(5*time.Second)))

	history := registry.PriceHistory(pool, 10)
	require.Len(t, history, 2)
	assert.True(t, history[1].Price.Equal(decimal.NewFromInt(101)))
}

func TestMovingAverageExactOnIdenticalSamples(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	pool := solana.NewWallet().PublicKey()

	for i := 0; i < 4; i++ {
		registry.Record(reserveSnapshot(pool, 1000, 250_000, baseTime.Add(time.Duration(i)*10*time.Second)))
	}

	avg, err := registry.MovingAverage(pool, 4)
	require.NoError(t, err)
	assert.True(t, avg.Equal(decimal.NewFromInt(250)), "got %s", avg)
}

func TestMovingAverageInsufficientSamples(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	pool := solana.NewWallet().PublicKey()

	registry.Record(reserveSnapshot(pool, 1000, 100_000, baseTime))

	_, err := registry.MovingAverage(pool, 2)
	assert.ErrorIs(t, err, types.ErrInsufficientSamples)

	_, err = registry.MovingAverage(solana.NewWallet().PublicKey(), 1)
	assert.ErrorIs(t, err, types.ErrInsufficientSamples)

	_, err = registry.MovingAverage(pool, 0)
	assert.ErrorIs(t, err, types.ErrInsufficientSamples)
}

func TestMovingAverageUsesMostRecentWindow(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	pool := solana.NewWallet().PublicKey()

	prices := []uint64{100_000, 200_000, 300_000, 400_000}
	for i, q := range prices {
		registry.Record(reserveSnapshot(pool, 1000, q, baseTime.Add(time.Duration(i)*10*time.Second)))
	}

	avg, err := registry.MovingAverage(pool, 2)
	require.NoError(t, err)
	// (300 + 400) / 2
	assert.True(t, avg.Equal(decimal.NewFromInt(350)), "got %s", avg)
}

func TestKlinesDeterministicBuckets(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	pool := solana.NewWallet().PublicKey()

	// Two samples in the first minute, a gap, then one sample ten
	// minutes later.
	registry.Record(reserveSnapshot(pool, 1000, 100_000, baseTime))
	registry.Record(reserveSnapshot(pool, 1000, 110_000, baseTime.Add(30*time.Second)))
	registry.Record(reserveSnapshot(pool, 1000, 90_000, baseTime.Add(10*time.Minute)))

	bars := registry.Klines(pool, time.Minute, 10)
	require.Len(t, bars, 2, "empty buckets must be omitted")

	first := bars[0]
	assert.Equal(t, baseTime, first.Start)
	assert.Equal(t, time.Minute, first.Interval)
	assert.True(t, first.Open.Equal(decimal.NewFromInt(100)))
	assert.True(t, first.High.Equal(decimal.NewFromInt(110)))
	assert.True(t, first.Low.Equal(decimal.NewFromInt(100)))
	assert.True(t, first.Close.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, 2, first.SampleCount)

	second := bars[1]
	assert.Equal(t, baseTime.Add(10*time.Minute), second.Start)
	assert.True(t, second.Open.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, 1, second.SampleCount)

	// Re-querying is a pure function of the buffer.
	again := registry.Klines(pool, time.Minute, 10)
	assert.Equal(t, bars, again)

	// Count trims from the oldest side.
	latest := registry.Klines(pool, time.Minute, 1)
	require.Len(t, latest, 1)
	assert.Equal(t, second.Start, latest[0].Start)
}

func TestPoolHealthScoring(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	pool := solana.NewWallet().PublicKey()

	// Reserve swings imply traded volume.
	reserves := []uint64{1_000_000, 1_050_000, 980_000, 1_020_000}
	for i, r := range reserves {
		snapshot := reserveSnapshot(pool, r, 2_000_000, baseTime.Add(time.Duration(i)*time.Hour))
		snapshot.FeeGrowthGlobalA = big.NewInt(int64(i) * 1_000_000)
		registry.Record(snapshot)
	}

	health, err := registry.PoolHealth(pool)
	require.NoError(t, err)

	assert.Equal(t, pool, health.PoolAddress)
	// |Δ| per step: 50k + 70k + 40k.
	assert.Equal(t, uint64(160_000), health.Volume24h)
	assert.Equal(t, int64(3_000_000), health.FeeGrowth.Int64())
	assert.GreaterOrEqual(t, health.HealthScore, 0.0)
	assert.LessOrEqual(t, health.HealthScore, 100.0)
	assert.Greater(t, health.HealthScore, 0.0)
}

func TestPoolHealthMonotoneInVolume(t *testing.T) {
	quiet := NewRegistry(zap.NewNop())
	busy := NewRegistry(zap.NewNop())
	pool := solana.NewWallet().PublicKey()

	for i := 0; i < 3; i++ {
		at := baseTime.Add(time.Duration(i) * time.Hour)
		quiet.Record(reserveSnapshot(pool, 1_000_000, 2_000_000, at))
		busy.Record(reserveSnapshot(pool, 1_000_000+uint64(i)*200_000, 2_000_000, at))
	}

	quietHealth, err := quiet.PoolHealth(pool)
	require.NoError(t, err)
	busyHealth, err := busy.PoolHealth(pool)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, busyHealth.HealthScore, quietHealth.HealthScore)
	assert.Greater(t, busyHealth.Volume24h, quietHealth.Volume24h)
}

func TestPoolHealthNoSamples(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	_, err := registry.PoolHealth(solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, types.ErrInsufficientSamples)
}

func TestRecordCapsBuffer(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	registry.maxSamples = 10
	pool := solana.NewWallet().PublicKey()

	for i := 0; i < 25; i++ {
		registry.Record(reserveSnapshot(pool, 1000, uint64(100_000+i), baseTime.Add(time.Duration(i)*time.Second)))
	}

	history := registry.PriceHistory(pool, 100)
	require.Len(t, history, 10)
	assert.Equal(t, baseTime.Add(24*time.Second), history[9].Timestamp)
	assert.Equal(t, baseTime.Add(15*time.Second), history[0].Timestamp)
}
