// Package monitor runs a per-pool polling loop that feeds the metrics
// registry and fires threshold-crossing price change events.
package monitor

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/orca-client/metrics"
	"github.com/rovshanmuradov/orca-client/types"
)

// DefaultPollInterval is the gap between snapshot fetches.
const DefaultPollInterval = 10 * time.Second

// maxConsecutiveErrors stops a pool's loop after this many failed polls
// in a row. Any successful poll resets the count.
const maxConsecutiveErrors = 5

// SnapshotFetcher yields the current state of a pool.
type SnapshotFetcher interface {
	PoolSnapshot(ctx context.Context, pool solana.PublicKey) (*types.PoolSnapshot, error)
}

// Callback receives threshold-crossing price events. It runs on the
// polling goroutine; panics are recovered and logged.
type Callback func(types.PriceUpdateEvent)

// Monitor starts independent polling loops, one per watched pool.
type Monitor struct {
	fetcher  SnapshotFetcher
	registry *metrics.Registry
	interval time.Duration
	logger   *zap.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithPollInterval overrides the default poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// New creates a Monitor recording into registry.
func New(fetcher SnapshotFetcher, registry *metrics.Registry, logger *zap.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		fetcher:  fetcher,
		registry: registry,
		interval: DefaultPollInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle controls one running poll loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown requests a cooperative stop and waits for the in-flight poll
// cycle to finish. No callbacks fire after it returns.
func (h *Handle) Shutdown() {
	h.cancel()
	<-h.done
}

// Done is closed when the loop has exited, whether by Shutdown, context
// cancellation or the consecutive-error limit.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start launches a polling loop for pool. The callback fires whenever
// the price has moved at least thresholdPercent (absolute percent) since
// the last notification; the first poll only establishes the baseline.
func (m *Monitor) Start(ctx context.Context, pool solana.PublicKey, thresholdPercent float64, callback Callback) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		m.run(ctx, pool, thresholdPercent, callback)
	}()
	return h
}

func (m *Monitor) run(ctx context.Context, pool solana.PublicKey, thresholdPercent float64, callback Callback) {
	log := m.logger.With(zap.String("pool", pool.String()))
	log.Info("price monitor started",
		zap.Duration("interval", m.interval),
		zap.Float64("threshold_percent", thresholdPercent))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var lastNotified decimal.Decimal
	hasBaseline := false
	errCount := 0

	for {
		snapshot, err := m.fetcher.PoolSnapshot(ctx, pool)
		if ctx.Err() != nil {
			log.Info("price monitor stopped")
			return
		}
		if err != nil {
			errCount++
			log.Warn("poll failed",
				zap.Error(err),
				zap.Int("consecutive_errors", errCount))
			if errCount >= maxConsecutiveErrors {
				log.Error("too many consecutive poll failures, stopping monitor")
				return
			}
		} else {
			errCount = 0
			m.registry.Record(snapshot)

			price := snapshot.Price()
			if !hasBaseline {
				// An empty pool prices at zero; a zero baseline would
				// mute every later change, so wait for liquidity.
				if !price.IsZero() {
					lastNotified = price
					hasBaseline = true
				}
			} else if change := percentChange(lastNotified, price); change >= thresholdPercent || change <= -thresholdPercent {
				event := types.PriceUpdateEvent{
					PoolAddress:   pool,
					OldPrice:      lastNotified,
					NewPrice:      price,
					PercentChange: change,
					Timestamp:     snapshot.Timestamp,
				}
				m.invoke(log, callback, event)
				lastNotified = price
			}
		}

		select {
		case <-ctx.Done():
			log.Info("price monitor stopped")
			return
		case <-ticker.C:
		}
	}
}

// invoke runs the callback, containing any panic so a misbehaving
// consumer cannot kill the loop.
func (m *Monitor) invoke(log *zap.Logger, callback Callback, event types.PriceUpdateEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("price callback panicked", zap.Any("panic", r))
		}
	}()
	log.Info("price change detected",
		zap.String("old_price", event.OldPrice.String()),
		zap.String("new_price", event.NewPrice.String()),
		zap.Float64("percent_change", event.PercentChange))
	callback(event)
}

func percentChange(old, cur decimal.Decimal) float64 {
	if old.IsZero() {
		return 0
	}
	change, _ := cur.Sub(old).Div(old).Mul(decimal.NewFromInt(100)).Float64()
	return change
}
