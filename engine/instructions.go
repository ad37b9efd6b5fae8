package engine

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Whirlpool instruction discriminators.
const (
	ixSwap              byte = 0x01
	ixOpenPosition      byte = 0x08
	ixIncreaseLiquidity byte = 0x09
	ixDecreaseLiquidity byte = 0x0A
	ixClosePosition     byte = 0x0B
)

// buildSwapInstruction encodes the whirlpool swap: discriminator, input
// amount, minimum acceptable output.
func (e *Engine) buildSwapInstruction(owner, pool, userIn, userOut, vaultIn, vaultOut solana.PublicKey, amountIn, minAmountOut uint64) solana.Instruction {
	data := make([]byte, 1+8+8)
	data[0] = ixSwap
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)

	accounts := []*solana.AccountMeta{
		{PublicKey: e.programID, IsWritable: false, IsSigner: false},
		{PublicKey: owner, IsWritable: false, IsSigner: true},
		{PublicKey: pool, IsWritable: true, IsSigner: false},
		{PublicKey: userIn, IsWritable: true, IsSigner: false},
		{PublicKey: userOut, IsWritable: true, IsSigner: false},
		{PublicKey: vaultIn, IsWritable: true, IsSigner: false},
		{PublicKey: vaultOut, IsWritable: true, IsSigner: false},
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
	}
	return solana.NewInstruction(e.programID, accounts, data)
}

// buildOpenPositionInstruction opens a position over a tick range, minting
// the position NFT to the owner.
func (e *Engine) buildOpenPositionInstruction(owner, pool, positionMint, positionTokenAccount solana.PublicKey, lowerTick, upperTick int32) solana.Instruction {
	data := make([]byte, 1+4+4)
	data[0] = ixOpenPosition
	binary.LittleEndian.PutUint32(data[1:5], uint32(lowerTick))
	binary.LittleEndian.PutUint32(data[5:9], uint32(upperTick))

	accounts := []*solana.AccountMeta{
		{PublicKey: e.programID, IsWritable: false, IsSigner: false},
		{PublicKey: owner, IsWritable: false, IsSigner: true},
		{PublicKey: positionMint, IsWritable: true, IsSigner: true},
		{PublicKey: positionTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: pool, IsWritable: true, IsSigner: false},
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: solana.SysVarRentPubkey, IsWritable: false, IsSigner: false},
	}
	return solana.NewInstruction(e.programID, accounts, data)
}

// buildIncreaseLiquidityInstruction deposits bounded token amounts into an
// open position.
func (e *Engine) buildIncreaseLiquidityInstruction(owner, pool, positionTokenAccount, userA, userB, vaultA, vaultB, positionMint solana.PublicKey, maxAmountA, maxAmountB uint64) solana.Instruction {
	data := make([]byte, 1+8+8)
	data[0] = ixIncreaseLiquidity
	binary.LittleEndian.PutUint64(data[1:9], maxAmountA)
	binary.LittleEndian.PutUint64(data[9:17], maxAmountB)

	accounts := []*solana.AccountMeta{
		{PublicKey: e.programID, IsWritable: false, IsSigner: false},
		{PublicKey: owner, IsWritable: false, IsSigner: true},
		{PublicKey: positionTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: pool, IsWritable: true, IsSigner: false},
		{PublicKey: userA, IsWritable: true, IsSigner: false},
		{PublicKey: userB, IsWritable: true, IsSigner: false},
		{PublicKey: vaultA, IsWritable: true, IsSigner: false},
		{PublicKey: vaultB, IsWritable: true, IsSigner: false},
		{PublicKey: positionMint, IsWritable: true, IsSigner: false},
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false},
	}
	return solana.NewInstruction(e.programID, accounts, data)
}

// buildDecreaseLiquidityInstruction withdraws a liquidity amount from a
// position.
func (e *Engine) buildDecreaseLiquidityInstruction(owner, pool, positionTokenAccount, positionMint solana.PublicKey, liquidity, minAmountA, minAmountB uint64) solana.Instruction {
	data := make([]byte, 1+8+8+8)
	data[0] = ixDecreaseLiquidity
	binary.LittleEndian.PutUint64(data[1:9], liquidity)
	binary.LittleEndian.PutUint64(data[9:17], minAmountA)
	binary.LittleEndian.PutUint64(data[17:25], minAmountB)

	accounts := []*solana.AccountMeta{
		{PublicKey: e.programID, IsWritable: false, IsSigner: false},
		{PublicKey: owner, IsWritable: false, IsSigner: true},
		{PublicKey: positionTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: pool, IsWritable: true, IsSigner: false},
		{PublicKey: positionMint, IsWritable: true, IsSigner: false},
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
	}
	return solana.NewInstruction(e.programID, accounts, data)
}

// buildClosePositionInstruction burns the position NFT once its liquidity
// is zero.
func (e *Engine) buildClosePositionInstruction(owner, pool, positionTokenAccount, positionMint solana.PublicKey) solana.Instruction {
	data := []byte{ixClosePosition}

	accounts := []*solana.AccountMeta{
		{PublicKey: e.programID, IsWritable: false, IsSigner: false},
		{PublicKey: owner, IsWritable: false, IsSigner: true},
		{PublicKey: positionTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: pool, IsWritable: true, IsSigner: false},
		{PublicKey: positionMint, IsWritable: true, IsSigner: false},
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
	}
	return solana.NewInstruction(e.programID, accounts, data)
}
