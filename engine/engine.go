// Package engine turns trade and liquidity intents into ledger
// transactions. Every operation runs an explicit state machine
// (Quoting → Building → Submitting → Confirmed | Retrying | Failed) with a
// bounded re-quote budget: a fresh snapshot is fetched on every iteration
// and a stale quote is never reused.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/orca-client/logger"
	"github.com/rovshanmuradov/orca-client/transport"
	"github.com/rovshanmuradov/orca-client/types"
)

// State is one phase of an execution.
type State string

const (
	StateQuoting    State = "quoting"
	StateBuilding   State = "building"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
	StateRetrying   State = "retrying"
	StateFailed     State = "failed"
)

// SnapshotFetcher supplies fresh pool state. Injectable so retries can be
// driven deterministically in tests.
type SnapshotFetcher interface {
	PoolSnapshot(ctx context.Context, pool solana.PublicKey) (*types.PoolSnapshot, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithTransitionHook registers an observer called on every state change.
func WithTransitionHook(hook func(op string, s State)) Option {
	return func(e *Engine) { e.hook = hook }
}

// WithRetryDelay overrides the initial pause before a re-quote.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) { e.retryDelay = d }
}

// Engine executes swaps and liquidity changes. Each call owns its state
// machine instance; concurrent calls share nothing mutable, so an Engine is
// safe for concurrent use.
type Engine struct {
	fetcher    SnapshotFetcher
	transport  transport.Transport
	programID  solana.PublicKey
	retryDelay time.Duration
	hook       func(op string, s State)
	logger     *logger.Logger
}

// New creates an execution engine bound to a snapshot source and transport.
func New(fetcher SnapshotFetcher, tp transport.Transport, programID solana.PublicKey, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		fetcher:    fetcher,
		transport:  tp,
		programID:  programID,
		retryDelay: 250 * time.Millisecond,
		logger:     log.Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) transition(op string, s State) {
	if e.hook != nil {
		e.hook(op, s)
	}
	e.logger.Debug("state transition", zap.String("operation", op), zap.String("state", string(s)))
}

// retryable reports whether a failed iteration is worth a re-quote: either
// the chain rejected our slippage bound, or the quote itself could not be
// satisfied at the observed price. Everything else fails immediately.
func retryable(err error) bool {
	return types.IsSlippageRejection(err) || errors.Is(err, types.ErrInsufficientLiquidity)
}

// execute drives the bounded iteration loop around one attempt function.
// The attempt re-derives its quote from a fresh snapshot every pass.
func (e *Engine) execute(ctx context.Context, op string, maxIterations int, tolerance float64, attempt func(ctx context.Context) (solana.Signature, error)) (solana.Signature, error) {
	if maxIterations < 1 {
		maxIterations = 1
	}

	pause := backoff.NewExponentialBackOff()
	pause.InitialInterval = e.retryDelay
	pause.MaxInterval = e.retryDelay * 10

	// One correlation id spans every iteration of this execution.
	opLogger := e.logger.WithOperation(op)
	defer e.logger.TrackPerformance(op)()

	var lastErr error
	for iteration := 1; iteration <= maxIterations; iteration++ {
		sig, err := attempt(ctx)
		if err == nil {
			e.transition(op, StateConfirmed)
			e.logger.WithTransaction(sig.String()).Info("operation confirmed",
				zap.String("operation", op),
				zap.Int("iteration", iteration))
			return sig, nil
		}

		lastErr = err
		if !retryable(err) {
			e.transition(op, StateFailed)
			return solana.Signature{}, err
		}

		if iteration < maxIterations {
			e.transition(op, StateRetrying)
			opLogger.Warn("stale price, re-quoting",
				zap.Int("iteration", iteration),
				zap.Error(err))
			if err := sleepCtx(ctx, pause.NextBackOff()); err != nil {
				e.transition(op, StateFailed)
				return solana.Signature{}, err
			}
		}
	}

	e.transition(op, StateFailed)
	if errors.Is(lastErr, types.ErrInsufficientLiquidity) {
		return solana.Signature{}, lastErr
	}
	return solana.Signature{}, &types.SlippageExceededError{
		SlippageTolerance: tolerance,
		Attempts:          maxIterations,
		LastErr:           lastErr,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// signAndSubmit signs a built transaction, preflights it, and broadcasts.
// A simulation rejection never reaches the network.
func (e *Engine) signAndSubmit(ctx context.Context, op string, tx *solana.Transaction, signers ...solana.PrivateKey) (solana.Signature, error) {
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, err
	}

	if err := e.transport.SimulateTransaction(ctx, tx); err != nil {
		return solana.Signature{}, err
	}

	e.transition(op, StateSubmitting)
	return e.transport.SubmitTransaction(ctx, tx)
}
