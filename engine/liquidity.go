package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/orca-client/liqmath"
	"github.com/rovshanmuradov/orca-client/types"
)

// AddLiquidity opens a position over [lowerTick, upperTick] and deposits up
// to amountA/amountB. Tick bounds are validated before any network call;
// per iteration the deposit split is re-derived from a fresh snapshot and
// the tolerance caps how much more than the expected split the program may
// take.
func (e *Engine) AddLiquidity(ctx context.Context, key solana.PrivateKey, snapshot *types.PoolSnapshot, amountA, amountB uint64, lowerTick, upperTick int32, cfg *types.LiquidityConfig) (solana.Signature, error) {
	config := types.DefaultLiquidityConfig()
	if cfg != nil {
		config = *cfg
	}

	if err := liqmath.ValidateTickRange(lowerTick, upperTick, snapshot.TickSpacing); err != nil {
		return solana.Signature{}, err
	}
	if amountA == 0 && amountB == 0 {
		return solana.Signature{}, types.ErrZeroOutput
	}

	owner := key.PublicKey()
	pool := snapshot.Address
	const op = "add_liquidity"

	return e.execute(ctx, op, config.MaxIterations, config.SlippageTolerance, func(ctx context.Context) (solana.Signature, error) {
		e.transition(op, StateQuoting)
		fresh, err := e.fetcher.PoolSnapshot(ctx, pool)
		if err != nil {
			return solana.Signature{}, err
		}

		liquidity, err := liqmath.LiquidityForAmounts(amountA, amountB, lowerTick, upperTick, fresh.CurrentTick)
		if err != nil {
			return solana.Signature{}, err
		}
		if liquidity.Sign() == 0 {
			return solana.Signature{}, types.ErrZeroOutput
		}

		needA, needB, err := liqmath.AmountsForLiquidity(liquidity, lowerTick, upperTick, fresh.CurrentTick)
		if err != nil {
			return solana.Signature{}, err
		}

		maxA := types.MaxAmountIn(needA, config.SlippageTolerance)
		maxB := types.MaxAmountIn(needB, config.SlippageTolerance)

		e.transition(op, StateBuilding)
		positionMint, err := solana.NewRandomPrivateKey()
		if err != nil {
			return solana.Signature{}, fmt.Errorf("generate position mint: %w", err)
		}
		tx, err := e.buildAddLiquidityTransaction(ctx, owner, fresh, positionMint.PublicKey(), lowerTick, upperTick, maxA, maxB)
		if err != nil {
			return solana.Signature{}, err
		}

		return e.signAndSubmit(ctx, op, tx, key, positionMint)
	})
}

// RemoveLiquidity withdraws the whole position and closes it. The
// tolerance sets the floor on the token amounts accepted back.
func (e *Engine) RemoveLiquidity(ctx context.Context, key solana.PrivateKey, position *types.LiquidityPosition, cfg *types.LiquidityConfig) (solana.Signature, error) {
	config := types.DefaultLiquidityConfig()
	if cfg != nil {
		config = *cfg
	}

	if position.LowerTick >= position.UpperTick {
		return solana.Signature{}, types.ErrInvalidRange
	}
	if position.Liquidity == nil || position.Liquidity.Sign() == 0 {
		return solana.Signature{}, types.ErrZeroOutput
	}

	owner := key.PublicKey()
	const op = "remove_liquidity"

	return e.execute(ctx, op, config.MaxIterations, config.SlippageTolerance, func(ctx context.Context) (solana.Signature, error) {
		e.transition(op, StateQuoting)
		fresh, err := e.fetcher.PoolSnapshot(ctx, position.PoolAddress)
		if err != nil {
			return solana.Signature{}, err
		}

		outA, outB, err := liqmath.AmountsForLiquidity(position.Liquidity, position.LowerTick, position.UpperTick, fresh.CurrentTick)
		if err != nil {
			return solana.Signature{}, err
		}
		if outA == 0 && outB == 0 {
			return solana.Signature{}, types.ErrZeroOutput
		}
		minA := types.MinAmountOut(outA, config.SlippageTolerance)
		minB := types.MinAmountOut(outB, config.SlippageTolerance)

		e.transition(op, StateBuilding)
		tx, err := e.buildRemoveLiquidityTransaction(ctx, owner, position, minA, minB)
		if err != nil {
			return solana.Signature{}, err
		}

		return e.signAndSubmit(ctx, op, tx, key)
	})
}

func (e *Engine) buildAddLiquidityTransaction(ctx context.Context, owner solana.PublicKey, snapshot *types.PoolSnapshot, positionMint solana.PublicKey, lowerTick, upperTick int32, maxA, maxB uint64) (*solana.Transaction, error) {
	positionTokenAccount, _, err := solana.FindAssociatedTokenAddress(owner, positionMint)
	if err != nil {
		return nil, fmt.Errorf("derive position token account: %w", err)
	}
	userA, _, err := solana.FindAssociatedTokenAddress(owner, snapshot.TokenMintA)
	if err != nil {
		return nil, fmt.Errorf("derive token account A: %w", err)
	}
	userB, _, err := solana.FindAssociatedTokenAddress(owner, snapshot.TokenMintB)
	if err != nil {
		return nil, fmt.Errorf("derive token account B: %w", err)
	}
	vaultA, _, err := solana.FindAssociatedTokenAddress(snapshot.Address, snapshot.TokenMintA)
	if err != nil {
		return nil, fmt.Errorf("derive vault A: %w", err)
	}
	vaultB, _, err := solana.FindAssociatedTokenAddress(snapshot.Address, snapshot.TokenMintB)
	if err != nil {
		return nil, fmt.Errorf("derive vault B: %w", err)
	}

	blockhash, err := e.transport.RecentBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		e.buildOpenPositionInstruction(owner, snapshot.Address, positionMint, positionTokenAccount, lowerTick, upperTick),
		e.buildIncreaseLiquidityInstruction(owner, snapshot.Address, positionTokenAccount, userA, userB, vaultA, vaultB, positionMint, maxA, maxB),
	}
	return solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(owner))
}

func (e *Engine) buildRemoveLiquidityTransaction(ctx context.Context, owner solana.PublicKey, position *types.LiquidityPosition, minA, minB uint64) (*solana.Transaction, error) {
	blockhash, err := e.transport.RecentBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		e.buildDecreaseLiquidityInstruction(owner, position.PoolAddress, position.PositionTokenAccount, position.PositionMint, clampUint64(position.Liquidity), minA, minB),
		e.buildClosePositionInstruction(owner, position.PoolAddress, position.PositionTokenAccount, position.PositionMint),
	}
	return solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(owner))
}

func clampUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() <= 0 {
		return 0
	}
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}
