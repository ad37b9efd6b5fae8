package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Domain errors are detected before any network interaction and are never
// retried. Transport errors pass through opaque and are never retried by the
// engines either; retry policy for those belongs to the transport itself.
var (
	// ErrOutOfRange: tick or price conversion outside the valid domain.
	ErrOutOfRange = errors.New("value out of range")
	// ErrInsufficientLiquidity: the pool cannot satisfy the quoted input.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrZeroOutput: the trade rounds to nothing at the current price.
	ErrZeroOutput = errors.New("trade output rounds to zero")
	// ErrInvalidRange: malformed tick bounds (lower >= upper or unaligned).
	ErrInvalidRange = errors.New("invalid tick range")
	// ErrInsufficientSamples: analytics requested before enough data exists.
	ErrInsufficientSamples = errors.New("insufficient samples")
	// ErrSlippageExceeded: the re-quote budget was exhausted without a fill.
	ErrSlippageExceeded = errors.New("slippage exceeded")
	// ErrNotFound: account or pool missing on chain.
	ErrNotFound = errors.New("account not found")
	// ErrTransport: opaque failure from the transport collaborator.
	ErrTransport = errors.New("transport error")
)

// Program error code emitted on-chain when a slippage bound is violated.
const (
	slippageExceededCode    = "0x1774"
	slippageExceededCodeInt = 6004
)

// SlippageExceededError is returned when every iteration of an execution was
// rejected for a stale price and the retry budget ran out.
type SlippageExceededError struct {
	SlippageTolerance float64
	Attempts          int
	LastErr           error
}

func (e *SlippageExceededError) Error() string {
	return fmt.Sprintf("slippage exceeded after %d attempts (tolerance %.4f%%): %v",
		e.Attempts, e.SlippageTolerance*100, e.LastErr)
}

func (e *SlippageExceededError) Unwrap() error { return ErrSlippageExceeded }

// IsSlippageRejection reports whether a submission failure is attributable to
// a stale price, i.e. the on-chain program rejected the configured bound.
// Only these failures are worth a re-quote.
func IsSlippageRejection(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "ExceededSlippage") ||
		strings.Contains(msg, slippageExceededCode) ||
		strings.Contains(msg, strconv.Itoa(slippageExceededCodeInt))
}
