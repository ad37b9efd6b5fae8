package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/orca-client/liqmath"
	"github.com/rovshanmuradov/orca-client/types"
)

// Swap executes a slippage-bounded exact-in swap on one pool. Each
// iteration re-quotes from a fresh snapshot and applies the configured
// tolerance to derive the on-chain minimum output; a slippage rejection
// within the budget triggers a re-quote, anything else fails immediately.
func (e *Engine) Swap(ctx context.Context, key solana.PrivateKey, pool, inputMint, outputMint solana.PublicKey, amount uint64, cfg *types.TradeConfig) (solana.Signature, error) {
	config := types.DefaultTradeConfig()
	if cfg != nil {
		config = *cfg
	}
	if amount == 0 {
		return solana.Signature{}, types.ErrZeroOutput
	}

	owner := key.PublicKey()
	const op = "swap"

	return e.execute(ctx, op, config.MaxIterations, config.SlippageTolerance, func(ctx context.Context) (solana.Signature, error) {
		e.transition(op, StateQuoting)
		snapshot, err := e.fetcher.PoolSnapshot(ctx, pool)
		if err != nil {
			return solana.Signature{}, err
		}

		quote, err := e.Quote(snapshot, inputMint, amount, config.SlippageTolerance)
		if err != nil {
			return solana.Signature{}, err
		}

		e.transition(op, StateBuilding)
		tx, err := e.buildSwapTransaction(ctx, owner, snapshot, quote)
		if err != nil {
			return solana.Signature{}, err
		}

		return e.signAndSubmit(ctx, op, tx, key)
	})
}

// Quote prices a swap against a snapshot and applies a slippage tolerance
// to produce the minimum acceptable fill.
func (e *Engine) Quote(snapshot *types.PoolSnapshot, inputMint solana.PublicKey, amount uint64, tolerance float64) (*types.TradeQuote, error) {
	output, feeAmount, impact, err := liqmath.QuoteSwap(snapshot, inputMint, amount)
	if err != nil {
		return nil, err
	}

	outputMint := snapshot.TokenMintB
	if inputMint.Equals(snapshot.TokenMintB) {
		outputMint = snapshot.TokenMintA
	}

	return &types.TradeQuote{
		PoolAddress:    snapshot.Address,
		InputMint:      inputMint,
		OutputMint:     outputMint,
		InputAmount:    amount,
		ExpectedOutput: output,
		MinOutput:      types.MinAmountOut(output, tolerance),
		FeeAmount:      feeAmount,
		PriceImpact:    impact,
		Timestamp:      time.Now(),
	}, nil
}

func (e *Engine) buildSwapTransaction(ctx context.Context, owner solana.PublicKey, snapshot *types.PoolSnapshot, quote *types.TradeQuote) (*solana.Transaction, error) {
	userIn, _, err := solana.FindAssociatedTokenAddress(owner, quote.InputMint)
	if err != nil {
		return nil, fmt.Errorf("derive input token account: %w", err)
	}
	userOut, _, err := solana.FindAssociatedTokenAddress(owner, quote.OutputMint)
	if err != nil {
		return nil, fmt.Errorf("derive output token account: %w", err)
	}
	vaultIn, _, err := solana.FindAssociatedTokenAddress(snapshot.Address, quote.InputMint)
	if err != nil {
		return nil, fmt.Errorf("derive input vault: %w", err)
	}
	vaultOut, _, err := solana.FindAssociatedTokenAddress(snapshot.Address, quote.OutputMint)
	if err != nil {
		return nil, fmt.Errorf("derive output vault: %w", err)
	}

	blockhash, err := e.transport.RecentBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	ix := e.buildSwapInstruction(owner, snapshot.Address, userIn, userOut, vaultIn, vaultOut, quote.InputAmount, quote.MinOutput)
	return solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(owner))
}
