package poolstate

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/orca-client/types"
)

// Whirlpool position account layout offsets.
const (
	positionWhirlpoolOffset = 8
	positionMintOffset      = 40
	positionLiquidityOffset = 72
	positionLowerTickOffset = 88
	positionUpperTickOffset = 92
	positionFeeOwedAOffset  = 112
	positionFeeOwedBOffset  = 136

	// PositionAccountMinLen matches the smallest valid position account.
	PositionAccountMinLen = 216
)

// DecodePosition parses a whirlpool position account. Token amounts at the
// current price are not stored on chain; the caller derives them from the
// pool snapshot afterwards.
func DecodePosition(data []byte, owner, tokenAccount solana.PublicKey) (*types.LiquidityPosition, error) {
	if len(data) < PositionAccountMinLen {
		return nil, fmt.Errorf("position account too short: %d bytes", len(data))
	}

	return &types.LiquidityPosition{
		PoolAddress:          readPubkey(data, positionWhirlpoolOffset),
		Owner:                owner,
		PositionMint:         readPubkey(data, positionMintOffset),
		PositionTokenAccount: tokenAccount,
		Liquidity:            readU128(data, positionLiquidityOffset),
		LowerTick:            int32(binary.LittleEndian.Uint32(data[positionLowerTickOffset:])),
		UpperTick:            int32(binary.LittleEndian.Uint32(data[positionUpperTickOffset:])),
		FeesOwedA:            binary.LittleEndian.Uint64(data[positionFeeOwedAOffset:]),
		FeesOwedB:            binary.LittleEndian.Uint64(data[positionFeeOwedBOffset:]),
	}, nil
}
