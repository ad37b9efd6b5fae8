package poolstate

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/orca-client/types"
)

// Legacy token-swap account layout offsets (standard and stable pools).
const (
	tokenSwapVersionOffset     = 0
	tokenSwapInitializedOffset = 1
	tokenSwapVaultAOffset      = 35
	tokenSwapVaultBOffset      = 67
	tokenSwapPoolMintOffset    = 99
	tokenSwapMintAOffset       = 131
	tokenSwapMintBOffset       = 163
	tokenSwapFeeAccountOffset  = 195
	tokenSwapTradeFeeNumOffset = 227
	tokenSwapTradeFeeDenOffset = 235
	tokenSwapCurveTypeOffset   = 291
	tokenSwapCurveParamsOffset = 292

	// TokenSwapAccountLen is the serialized size of a token-swap account.
	TokenSwapAccountLen = 324
)

// Curve types stored in the token-swap account.
const (
	curveConstantProduct uint8 = 0
	curveStable          uint8 = 2
)

// TokenSwapState is the decoded static portion of a standard or stable pool.
// Reserves live in the two vault token accounts and are supplied separately
// when assembling a snapshot.
type TokenSwapState struct {
	Version     uint8
	Initialized bool
	VaultA      solana.PublicKey
	VaultB      solana.PublicKey
	PoolMint    solana.PublicKey
	MintA       solana.PublicKey
	MintB       solana.PublicKey
	FeeAccount  solana.PublicKey
	TradeFeeNum uint64
	TradeFeeDen uint64
	CurveType   uint8
	AmpFactor   uint64 // stable curves only
}

// DecodeTokenSwap parses a legacy token-swap pool account.
func DecodeTokenSwap(data []byte) (*TokenSwapState, error) {
	if len(data) < TokenSwapAccountLen {
		return nil, fmt.Errorf("token-swap account too short: %d bytes", len(data))
	}

	s := &TokenSwapState{
		Version:     data[tokenSwapVersionOffset],
		Initialized: data[tokenSwapInitializedOffset] == 1,
		VaultA:      readPubkey(data, tokenSwapVaultAOffset),
		VaultB:      readPubkey(data, tokenSwapVaultBOffset),
		PoolMint:    readPubkey(data, tokenSwapPoolMintOffset),
		MintA:       readPubkey(data, tokenSwapMintAOffset),
		MintB:       readPubkey(data, tokenSwapMintBOffset),
		FeeAccount:  readPubkey(data, tokenSwapFeeAccountOffset),
		TradeFeeNum: binary.LittleEndian.Uint64(data[tokenSwapTradeFeeNumOffset:]),
		TradeFeeDen: binary.LittleEndian.Uint64(data[tokenSwapTradeFeeDenOffset:]),
		CurveType:   data[tokenSwapCurveTypeOffset],
	}
	if !s.Initialized {
		return nil, fmt.Errorf("token-swap account not initialized")
	}
	if s.CurveType == curveStable {
		s.AmpFactor = binary.LittleEndian.Uint64(data[tokenSwapCurveParamsOffset:])
	}
	return s, nil
}

// Snapshot combines the decoded pool state with the vault reserves observed
// at the same poll.
func (s *TokenSwapState) Snapshot(address solana.PublicKey, baseReserve, quoteReserve uint64, now time.Time) *types.PoolSnapshot {
	variant := types.VariantStandard
	if s.CurveType == curveStable {
		variant = types.VariantStable
	}

	var feeRate uint32
	if s.TradeFeeDen > 0 {
		feeRate = uint32(s.TradeFeeNum * 1_000_000 / s.TradeFeeDen)
	}

	return &types.PoolSnapshot{
		Address:          address,
		Variant:          variant,
		TokenMintA:       s.MintA,
		TokenMintB:       s.MintB,
		BaseReserve:      baseReserve,
		QuoteReserve:     quoteReserve,
		AmpFactor:        s.AmpFactor,
		FeeRate:          feeRate,
		FeeGrowthGlobalA: new(big.Int),
		FeeGrowthGlobalB: new(big.Int),
		Timestamp:        now,
	}
}

// SPL token account layout.
const (
	tokenAccountAmountOffset = 64
	tokenAccountAmountSize   = 8
)

// DecodeTokenAmount extracts the raw balance from an SPL token account,
// used to read pool vault reserves.
func DecodeTokenAmount(data []byte) (uint64, error) {
	if len(data) < tokenAccountAmountOffset+tokenAccountAmountSize {
		return 0, fmt.Errorf("token account too short: %d bytes", len(data))
	}
	return binary.LittleEndian.Uint64(data[tokenAccountAmountOffset:]), nil
}

// DecodeTokenAccountMint extracts the mint an SPL token account holds.
func DecodeTokenAccountMint(data []byte) (solana.PublicKey, error) {
	if len(data) < solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("token account too short: %d bytes", len(data))
	}
	return readPubkey(data, 0), nil
}
