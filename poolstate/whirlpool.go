// Package poolstate decodes raw pool account bytes into typed snapshots.
// Everything here is a pure function over a byte slice; fetching the bytes
// is the transport's job.
package poolstate

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/orca-client/types"
)

// Whirlpool account layout offsets (concentrated-liquidity pools).
const (
	whirlpoolDiscriminatorLen = 8

	whirlpoolTickSpacingOffset      = 41
	whirlpoolFeeRateOffset          = 45
	whirlpoolLiquidityOffset        = 49
	whirlpoolSqrtPriceOffset        = 65
	whirlpoolCurrentTickOffset      = 81
	whirlpoolTokenMintAOffset       = 101
	whirlpoolTokenVaultAOffset      = 133
	whirlpoolFeeGrowthGlobalAOffset = 165
	whirlpoolTokenMintBOffset       = 181
	whirlpoolTokenVaultBOffset      = 213
	whirlpoolFeeGrowthGlobalBOffset = 245

	// WhirlpoolAccountMinLen is the smallest account that still carries
	// every field the snapshot needs.
	WhirlpoolAccountMinLen = whirlpoolFeeGrowthGlobalBOffset + 16
)

// DecodeWhirlpool parses a whirlpool account into an immutable snapshot
// stamped with the supplied observation time.
func DecodeWhirlpool(data []byte, address solana.PublicKey, now time.Time) (*types.PoolSnapshot, error) {
	if len(data) < WhirlpoolAccountMinLen {
		return nil, fmt.Errorf("whirlpool account %s too short: %d bytes", address, len(data))
	}

	return &types.PoolSnapshot{
		Address:          address,
		Variant:          types.VariantWhirlpool,
		TokenMintA:       readPubkey(data, whirlpoolTokenMintAOffset),
		TokenMintB:       readPubkey(data, whirlpoolTokenMintBOffset),
		TickSpacing:      binary.LittleEndian.Uint16(data[whirlpoolTickSpacingOffset:]),
		FeeRate:          uint32(binary.LittleEndian.Uint16(data[whirlpoolFeeRateOffset:])),
		Liquidity:        readU128(data, whirlpoolLiquidityOffset),
		SqrtPriceX64:     readU128(data, whirlpoolSqrtPriceOffset),
		CurrentTick:      int32(binary.LittleEndian.Uint32(data[whirlpoolCurrentTickOffset:])),
		FeeGrowthGlobalA: readU128(data, whirlpoolFeeGrowthGlobalAOffset),
		FeeGrowthGlobalB: readU128(data, whirlpoolFeeGrowthGlobalBOffset),
		Timestamp:        now,
	}, nil
}

// WhirlpoolVaults returns the pool's token vault addresses, needed when
// building swap instructions.
func WhirlpoolVaults(data []byte) (vaultA, vaultB solana.PublicKey, err error) {
	if len(data) < WhirlpoolAccountMinLen {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("whirlpool account too short: %d bytes", len(data))
	}
	return readPubkey(data, whirlpoolTokenVaultAOffset), readPubkey(data, whirlpoolTokenVaultBOffset), nil
}

func readPubkey(data []byte, offset int) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[offset : offset+32])
}

// readU128 reads a little-endian u128 into a big.Int.
func readU128(data []byte, offset int) *big.Int {
	lo := binary.LittleEndian.Uint64(data[offset:])
	hi := binary.LittleEndian.Uint64(data[offset+8:])
	v := new(big.Int).SetUint64(hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(lo))
}
