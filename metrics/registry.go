// Package metrics derives time-series analytics from a stream of pool
// snapshots: price history, moving averages, kline bars and a composite
// pool health score.
package metrics

import (
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/orca-client/types"
)

// DefaultMaxSamples bounds the per-pool buffer. At the default 10s poll
// interval this holds a bit over a day of samples.
const DefaultMaxSamples = 10000

// healthWindow is the lookback for volume and fee-growth aggregation.
const healthWindow = 24 * time.Hour

// entry is one recorded snapshot reduced to what the aggregations need.
type entry struct {
	sample      types.PriceSample
	liquidity   *big.Int
	feeGrowth   *big.Int // sum of both global fee-growth accumulators
	baseReserve uint64
	sqrtPrice   *big.Int
	volumeDelta uint64 // traded volume inferred against the previous entry
}

// poolSeries is a single pool's append-only sample buffer. The monitor
// loop is the sole writer; readers copy under the read lock.
type poolSeries struct {
	entries []entry
}

// Registry holds per-pool sample buffers and answers history, average,
// kline and health queries over them.
type Registry struct {
	mu         sync.RWMutex
	pools      map[solana.PublicKey]*poolSeries
	maxSamples int
	logger     *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		pools:      make(map[solana.PublicKey]*poolSeries),
		maxSamples: DefaultMaxSamples,
		logger:     logger,
	}
}

// Record appends a price sample derived from the snapshot. Samples with a
// timestamp at or before the last recorded one are discarded; the buffer
// stays strictly monotonic.
func (r *Registry) Record(snapshot *types.PoolSnapshot) {
	if snapshot == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	series := r.pools[snapshot.Address]
	if series == nil {
		series = &poolSeries{}
		r.pools[snapshot.Address] = series
	}

	if n := len(series.entries); n > 0 {
		last := series.entries[n-1].sample.Timestamp
		if !snapshot.Timestamp.After(last) {
			r.logger.Debug("discarding out-of-order sample",
				zap.String("pool", snapshot.Address.String()),
				zap.Time("timestamp", snapshot.Timestamp),
				zap.Time("last", last))
			return
		}
	}

	e := entry{
		sample: types.PriceSample{
			PoolAddress: snapshot.Address,
			Price:       snapshot.Price(),
			Timestamp:   snapshot.Timestamp,
		},
		liquidity:   snapshot.Liquidity,
		feeGrowth:   sumFeeGrowth(snapshot),
		baseReserve: snapshot.BaseReserve,
		sqrtPrice:   snapshot.SqrtPriceX64,
	}
	if n := len(series.entries); n > 0 {
		e.volumeDelta = volumeDelta(&series.entries[n-1], &e)
	}
	series.entries = append(series.entries, e)

	if len(series.entries) > r.maxSamples {
		trimmed := make([]entry, r.maxSamples)
		copy(trimmed, series.entries[len(series.entries)-r.maxSamples:])
		series.entries = trimmed
	}
}

// PriceHistory returns up to limit of the most recent samples, oldest
// first. An unknown pool yields an empty slice.
func (r *Registry) PriceHistory(pool solana.PublicKey, limit int) []types.PriceSample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	series := r.pools[pool]
	if series == nil || limit <= 0 {
		return nil
	}

	start := 0
	if len(series.entries) > limit {
		start = len(series.entries) - limit
	}
	out := make([]types.PriceSample, 0, len(series.entries)-start)
	for _, e := range series.entries[start:] {
		out = append(out, e.sample)
	}
	return out
}

// MovingAverage returns the arithmetic mean of the most recent window
// samples. Fails with ErrInsufficientSamples when fewer exist.
func (r *Registry) MovingAverage(pool solana.PublicKey, window int) (decimal.Decimal, error) {
	if window <= 0 {
		return decimal.Zero, types.ErrInsufficientSamples
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	series := r.pools[pool]
	if series == nil || len(series.entries) < window {
		return decimal.Zero, types.ErrInsufficientSamples
	}

	sum := decimal.Zero
	for _, e := range series.entries[len(series.entries)-window:] {
		sum = sum.Add(e.sample.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(window))), nil
}

// Klines partitions the sample buffer into fixed-width buckets aligned to
// interval boundaries counted from the first sample and returns the most
// recent count non-empty bars, oldest first. Empty buckets are omitted,
// never synthesized.
func (r *Registry) Klines(pool solana.PublicKey, interval time.Duration, count int) []types.Kline {
	if interval <= 0 || count <= 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	series := r.pools[pool]
	if series == nil || len(series.entries) == 0 {
		return nil
	}

	origin := series.entries[0].sample.Timestamp
	var bars []types.Kline
	for _, e := range series.entries {
		bucket := e.sample.Timestamp.Sub(origin) / interval
		start := origin.Add(bucket * interval)

		if n := len(bars); n > 0 && bars[n-1].Start.Equal(start) {
			bar := &bars[n-1]
			bar.Close = e.sample.Price
			if e.sample.Price.GreaterThan(bar.High) {
				bar.High = e.sample.Price
			}
			if e.sample.Price.LessThan(bar.Low) {
				bar.Low = e.sample.Price
			}
			bar.SampleCount++
			continue
		}

		bars = append(bars, types.Kline{
			PoolAddress: pool,
			Start:       start,
			Interval:    interval,
			Open:        e.sample.Price,
			High:        e.sample.Price,
			Low:         e.sample.Price,
			Close:       e.sample.Price,
			SampleCount: 1,
		})
	}

	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars
}

// PoolHealth aggregates the last 24 hours of samples into liquidity,
// volume and fee-growth figures and scores them.
//
// The score weights normalized liquidity at 0.5, normalized 24h volume at
// 0.3 and normalized fee growth at 0.2. Each input is compressed with
// log1p and capped, so the score is monotone in every input and bounded
// to [0, 100].
func (r *Registry) PoolHealth(pool solana.PublicKey) (*types.PoolHealth, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	series := r.pools[pool]
	if series == nil || len(series.entries) == 0 {
		return nil, types.ErrInsufficientSamples
	}

	latest := &series.entries[len(series.entries)-1]
	cutoff := latest.sample.Timestamp.Add(-healthWindow)

	var volume uint64
	var oldest *entry
	for i := range series.entries {
		e := &series.entries[i]
		if e.sample.Timestamp.Before(cutoff) {
			continue
		}
		if oldest == nil {
			oldest = e
		} else {
			volume += e.volumeDelta
		}
	}

	feeGrowth := new(big.Int)
	if oldest != nil && oldest.feeGrowth != nil && latest.feeGrowth != nil {
		feeGrowth.Sub(latest.feeGrowth, oldest.feeGrowth)
		if feeGrowth.Sign() < 0 {
			feeGrowth.SetInt64(0)
		}
	}

	liquidity := new(big.Int)
	if latest.liquidity != nil {
		liquidity.Set(latest.liquidity)
	} else if latest.baseReserve > 0 {
		liquidity.SetUint64(latest.baseReserve)
	}

	return &types.PoolHealth{
		PoolAddress: pool,
		Liquidity:   liquidity,
		Volume24h:   volume,
		FeeGrowth:   feeGrowth,
		HealthScore: healthScore(liquidity, volume, feeGrowth),
	}, nil
}

func healthScore(liquidity *big.Int, volume uint64, feeGrowth *big.Int) float64 {
	liqF, _ := new(big.Float).SetInt(liquidity).Float64()
	feeF, _ := new(big.Float).SetInt(feeGrowth).Float64()

	liqScore := math.Min(math.Log1p(liqF/1e6), 10)
	volScore := math.Min(math.Log1p(float64(volume)/1e3), 10)
	feeScore := math.Min(math.Log1p(feeF/1e6), 10)

	score := (liqScore*0.5 + volScore*0.3 + feeScore*0.2) * 10
	return math.Min(math.Max(score, 0), 100)
}

func sumFeeGrowth(snapshot *types.PoolSnapshot) *big.Int {
	sum := new(big.Int)
	if snapshot.FeeGrowthGlobalA != nil {
		sum.Add(sum, snapshot.FeeGrowthGlobalA)
	}
	if snapshot.FeeGrowthGlobalB != nil {
		sum.Add(sum, snapshot.FeeGrowthGlobalB)
	}
	return sum
}

// volumeDelta infers traded volume between two consecutive snapshots. For
// reserve-based pools it is the base-reserve movement; for concentrated
// pools it is the quote-token flow implied by the sqrt-price move at the
// pool's liquidity.
func volumeDelta(prev, cur *entry) uint64 {
	if prev.baseReserve > 0 && cur.baseReserve > 0 {
		if cur.baseReserve >= prev.baseReserve {
			return cur.baseReserve - prev.baseReserve
		}
		return prev.baseReserve - cur.baseReserve
	}

	if prev.sqrtPrice != nil && cur.sqrtPrice != nil && cur.liquidity != nil {
		diff := new(big.Int).Sub(cur.sqrtPrice, prev.sqrtPrice)
		diff.Abs(diff)
		diff.Mul(diff, cur.liquidity)
		diff.Rsh(diff, 64)
		if diff.IsUint64() {
			return diff.Uint64()
		}
		return ^uint64(0)
	}
	return 0
}
