// Package orcaclient is a client library for trading against and
// monitoring AMM liquidity pools. It wraps the execution engine, the
// metrics registry and the price monitor behind one facade; all durable
// state lives on the ledger.
package orcaclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/orca-client/engine"
	"github.com/rovshanmuradov/orca-client/liqmath"
	"github.com/rovshanmuradov/orca-client/logger"
	"github.com/rovshanmuradov/orca-client/metrics"
	"github.com/rovshanmuradov/orca-client/monitor"
	"github.com/rovshanmuradov/orca-client/poolstate"
	"github.com/rovshanmuradov/orca-client/transport"
	"github.com/rovshanmuradov/orca-client/types"
)

// positionFetchConcurrency caps parallel position-account lookups.
const positionFetchConcurrency = 8

// Client is the top-level entry point. Safe for concurrent use.
type Client struct {
	transport        transport.Transport
	engine           *engine.Engine
	registry         *metrics.Registry
	monitor          *monitor.Monitor
	log              *logger.Logger
	whirlpoolProgram solana.PublicKey
}

// Options tunes client construction.
type Options struct {
	// PollInterval overrides the monitor's default poll cadence.
	PollInterval time.Duration
	// WhirlpoolProgram overrides the concentrated-liquidity program the
	// client trades against and scans for pools. Zero means mainnet.
	WhirlpoolProgram solana.PublicKey
	// EngineOptions are passed through to the execution engine.
	EngineOptions []engine.Option
}

// New builds a client over the given transport.
func New(tp transport.Transport, log *logger.Logger, opts *Options) (*Client, error) {
	if tp == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if log == nil {
		var err error
		log, err = logger.New(nil)
		if err != nil {
			return nil, err
		}
	}

	program := poolstate.WhirlpoolProgramID
	if opts != nil && !opts.WhirlpoolProgram.IsZero() {
		program = opts.WhirlpoolProgram
	}

	c := &Client{
		transport:        tp,
		registry:         metrics.NewRegistry(log.Logger),
		log:              log,
		whirlpoolProgram: program,
	}
	c.engine = engine.New(c, tp, program, log, optsEngine(opts)...)

	var monitorOpts []monitor.Option
	if opts != nil && opts.PollInterval > 0 {
		monitorOpts = append(monitorOpts, monitor.WithPollInterval(opts.PollInterval))
	}
	c.monitor = monitor.New(c, c.registry, log.Logger.Named("monitor"), monitorOpts...)

	return c, nil
}

func optsEngine(opts *Options) []engine.Option {
	if opts == nil {
		return nil
	}
	return opts.EngineOptions
}

// Connect dials an RPC endpoint and builds a client over it.
func Connect(endpoint string, log *logger.Logger, opts *Options) (*Client, error) {
	if log == nil {
		var err error
		log, err = logger.New(nil)
		if err != nil {
			return nil, err
		}
	}
	tp := transport.NewRPCTransport(endpoint, log.Logger)
	return New(tp, log, opts)
}

// Close flushes the logger.
func (c *Client) Close() error {
	return c.log.Sync()
}

// GetPoolState fetches and decodes the current state of a pool. Standard
// and stable pools need a second read for their vault reserves; the
// returned snapshot carries everything the quote path needs.
func (c *Client) GetPoolState(ctx context.Context, pool solana.PublicKey) (*types.PoolSnapshot, error) {
	data, err := c.transport.FetchAccount(ctx, pool)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if len(data) != poolstate.TokenSwapAccountLen {
		return poolstate.DecodeWhirlpool(data, pool, now)
	}

	state, err := poolstate.DecodeTokenSwap(data)
	if err != nil {
		return nil, err
	}

	vaults, err := c.transport.FetchAccounts(ctx, []solana.PublicKey{state.VaultA, state.VaultB})
	if err != nil {
		return nil, err
	}
	if len(vaults) != 2 || vaults[0] == nil || vaults[1] == nil {
		return nil, fmt.Errorf("pool vault account missing: %w", types.ErrNotFound)
	}
	baseReserve, err := poolstate.DecodeTokenAmount(vaults[0])
	if err != nil {
		return nil, err
	}
	quoteReserve, err := poolstate.DecodeTokenAmount(vaults[1])
	if err != nil {
		return nil, err
	}

	return state.Snapshot(pool, baseReserve, quoteReserve, now), nil
}

// PoolSnapshot implements the snapshot source the engine and monitor poll.
func (c *Client) PoolSnapshot(ctx context.Context, pool solana.PublicKey) (*types.PoolSnapshot, error) {
	return c.GetPoolState(ctx, pool)
}

// QuoteSwap prices an input amount against the pool's current state
// without executing anything.
func (c *Client) QuoteSwap(ctx context.Context, pool, inputMint solana.PublicKey, amount uint64) (*types.TradeQuote, error) {
	snapshot, err := c.GetPoolState(ctx, pool)
	if err != nil {
		return nil, err
	}
	return c.engine.Quote(snapshot, inputMint, amount, types.DefaultSlippageTolerance)
}

// Swap executes a slippage-bounded swap of amount input tokens. The pool
// is resolved from the mint pair; cfg may be nil for defaults.
func (c *Client) Swap(ctx context.Context, key solana.PrivateKey, inputMint, outputMint solana.PublicKey, amount uint64, cfg *types.TradeConfig) (solana.Signature, error) {
	pools, err := c.FindPoolsForPair(ctx, inputMint, outputMint)
	if err != nil {
		return solana.Signature{}, err
	}
	if len(pools) == 0 {
		return solana.Signature{}, fmt.Errorf("no pool for mint pair: %w", types.ErrNotFound)
	}
	return c.engine.Swap(ctx, key, pools[0], inputMint, outputMint, amount, cfg)
}

// SwapInPool executes a swap against an explicit pool.
func (c *Client) SwapInPool(ctx context.Context, key solana.PrivateKey, pool, inputMint, outputMint solana.PublicKey, amount uint64, cfg *types.TradeConfig) (solana.Signature, error) {
	return c.engine.Swap(ctx, key, pool, inputMint, outputMint, amount, cfg)
}

// AddLiquidity opens a position over the tick range and deposits tokens.
func (c *Client) AddLiquidity(ctx context.Context, key solana.PrivateKey, snapshot *types.PoolSnapshot, amountA, amountB uint64, lowerTick, upperTick int32, cfg *types.LiquidityConfig) (solana.Signature, error) {
	return c.engine.AddLiquidity(ctx, key, snapshot, amountA, amountB, lowerTick, upperTick, cfg)
}

// RemoveLiquidity withdraws and closes a position.
func (c *Client) RemoveLiquidity(ctx context.Context, key solana.PrivateKey, position *types.LiquidityPosition, cfg *types.LiquidityConfig) (solana.Signature, error) {
	return c.engine.RemoveLiquidity(ctx, key, position, cfg)
}

// GetLiquidityPositions scans the owner's token accounts for position
// NFTs and decodes the backing position accounts. Token amounts at the
// current price are derived from each position's pool snapshot.
func (c *Client) GetLiquidityPositions(ctx context.Context, owner solana.PublicKey) ([]*types.LiquidityPosition, error) {
	defer c.log.TrackPerformance("get_liquidity_positions")()

	tokenAccounts, err := c.transport.FetchTokenAccountsByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(positionFetchConcurrency)

	results := make([]*types.LiquidityPosition, len(tokenAccounts))
	for i, ta := range tokenAccounts {
		amount, err := poolstate.DecodeTokenAmount(ta.Data)
		if err != nil || amount != 1 {
			continue
		}
		mint, err := poolstate.DecodeTokenAccountMint(ta.Data)
		if err != nil {
			continue
		}

		i, ta, mint := i, ta, mint
		g.Go(func() error {
			position, err := c.fetchPosition(ctx, owner, ta.Address, mint)
			if err != nil {
				return err
			}
			results[i] = position
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	positions := make([]*types.LiquidityPosition, 0, len(results))
	for _, p := range results {
		if p != nil {
			positions = append(positions, p)
		}
	}
	return positions, nil
}

// fetchPosition resolves a candidate position mint to its position
// account. A mint that is not a position derives to a missing account,
// which is skipped, not an error.
func (c *Client) fetchPosition(ctx context.Context, owner, tokenAccount, mint solana.PublicKey) (*types.LiquidityPosition, error) {
	address, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("position"), mint.Bytes()},
		c.whirlpoolProgram,
	)
	if err != nil {
		return nil, nil
	}

	data, err := c.transport.FetchAccount(ctx, address)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	position, err := poolstate.DecodePosition(data, owner, tokenAccount)
	if err != nil {
		return nil, nil
	}

	snapshot, err := c.GetPoolState(ctx, position.PoolAddress)
	if err != nil {
		if isNotFound(err) {
			return position, nil
		}
		return nil, err
	}
	amountA, amountB, err := liqmath.AmountsForLiquidity(position.Liquidity, position.LowerTick, position.UpperTick, snapshot.CurrentTick)
	if err == nil {
		position.TokenAmountA = amountA
		position.TokenAmountB = amountB
	}
	return position, nil
}

// FindPoolsForPair scans the whirlpool program and the legacy swap
// programs for pools trading the mint pair, in either orientation.
func (c *Client) FindPoolsForPair(ctx context.Context, mintA, mintB solana.PublicKey) ([]solana.PublicKey, error) {
	matches := func(a, b solana.PublicKey) bool {
		return (a.Equals(mintA) && b.Equals(mintB)) || (a.Equals(mintB) && b.Equals(mintA))
	}

	accounts, err := c.transport.FetchProgramAccounts(ctx, c.whirlpoolProgram, poolstate.WhirlpoolAccountSize)
	if err != nil {
		return nil, err
	}

	var pools []solana.PublicKey
	for _, account := range accounts {
		snapshot, err := poolstate.DecodeWhirlpool(account.Data, account.Address, time.Time{})
		if err != nil {
			c.log.Debug("skipping undecodable pool account",
				zap.String("address", account.Address.String()),
				zap.Error(err))
			continue
		}
		if matches(snapshot.TokenMintA, snapshot.TokenMintB) {
			pools = append(pools, account.Address)
		}
	}

	for _, program := range []solana.PublicKey{poolstate.StandardSwapProgramID, poolstate.StableSwapProgramID} {
		accounts, err := c.transport.FetchProgramAccounts(ctx, program, poolstate.TokenSwapAccountLen)
		if err != nil {
			return nil, err
		}
		for _, account := range accounts {
			state, err := poolstate.DecodeTokenSwap(account.Data)
			if err != nil {
				c.log.Debug("skipping undecodable pool account",
					zap.String("address", account.Address.String()),
					zap.Error(err))
				continue
			}
			if matches(state.MintA, state.MintB) {
				pools = append(pools, account.Address)
			}
		}
	}
	return pools, nil
}

// DerivePrice returns the pool price denominated in baseMint: how many
// units of the counterpart token one unit of baseMint buys.
func (c *Client) DerivePrice(ctx context.Context, pool, baseMint solana.PublicKey) (decimal.Decimal, error) {
	snapshot, err := c.GetPoolState(ctx, pool)
	if err != nil {
		return decimal.Zero, err
	}
	price := snapshot.Price()
	switch {
	case baseMint.Equals(snapshot.TokenMintA):
		return price, nil
	case baseMint.Equals(snapshot.TokenMintB):
		if price.IsZero() {
			return decimal.Zero, types.ErrInsufficientLiquidity
		}
		return decimal.NewFromInt(1).Div(price), nil
	default:
		return decimal.Zero, fmt.Errorf("mint %s is not traded by pool %s", baseMint, pool)
	}
}

// MonitorPriceChanges starts a polling loop that records every snapshot
// into the metrics registry and invokes callback when the price moves at
// least thresholdPercent since the last notification.
func (c *Client) MonitorPriceChanges(ctx context.Context, pool solana.PublicKey, thresholdPercent float64, callback monitor.Callback) *monitor.Handle {
	c.log.WithPool(pool.String()).Info("price watch requested",
		zap.Float64("threshold_percent", thresholdPercent))
	return c.monitor.Start(ctx, pool, thresholdPercent, callback)
}

// GetPriceHistory returns up to limit recorded samples, oldest first.
func (c *Client) GetPriceHistory(pool solana.PublicKey, limit int) []types.PriceSample {
	return c.registry.PriceHistory(pool, limit)
}

// CalculateMovingAverage averages the most recent window samples.
func (c *Client) CalculateMovingAverage(pool solana.PublicKey, window int) (decimal.Decimal, error) {
	return c.registry.MovingAverage(pool, window)
}

// GetKlineData returns up to count OHLC bars of the given interval.
func (c *Client) GetKlineData(pool solana.PublicKey, interval time.Duration, count int) []types.Kline {
	return c.registry.Klines(pool, interval, count)
}

// MonitorPoolHealth scores the pool from its recorded sample window.
func (c *Client) MonitorPoolHealth(pool solana.PublicKey) (*types.PoolHealth, error) {
	return c.registry.PoolHealth(pool)
}

// Metrics exposes the underlying registry, mainly for callers that feed
// it snapshots from their own polling.
func (c *Client) Metrics() *metrics.Registry {
	return c.registry
}

func isNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
