package orcaclient

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/orca-client/poolstate"
	"github.com/rovshanmuradov/orca-client/transport"
	"github.com/rovshanmuradov/orca-client/types"
)

// memTransport serves accounts from a map.
type memTransport struct {
	accounts map[solana.PublicKey][]byte
	program  map[solana.PublicKey][]transport.ProgramAccount
	owned    []transport.ProgramAccount
}

var _ transport.Transport = (*memTransport)(nil)

func (m *memTransport) FetchAccount(_ context.Context, address solana.PublicKey) ([]byte, error) {
	data, ok := m.accounts[address]
	if !ok {
		return nil, types.ErrNotFound
	}
	return data, nil
}

func (m *memTransport) FetchAccounts(_ context.Context, addresses []solana.PublicKey) ([][]byte, error) {
	out := make([][]byte, len(addresses))
	for i, a := range addresses {
		out[i] = m.accounts[a]
	}
	return out, nil
}

func (m *memTransport) FetchProgramAccounts(_ context.Context, program solana.PublicKey, _ uint64) ([]transport.ProgramAccount, error) {
	return m.program[program], nil
}

func (m *memTransport) FetchTokenAccountsByOwner(context.Context, solana.PublicKey) ([]transport.ProgramAccount, error) {
	return m.owned, nil
}

func (m *memTransport) SubmitTransaction(context.Context, *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func (m *memTransport) SimulateTransaction(context.Context, *solana.Transaction) error {
	return nil
}

func (m *memTransport) RecentBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

// whirlpool account layout positions used to synthesize test fixtures.
func whirlpoolAccountBytes(mintA, mintB solana.PublicKey, liquidity int64, tick int32) []byte {
	data := make([]byte, poolstate.WhirlpoolAccountSize)
	binary.LittleEndian.PutUint16(data[41:], 64)   // tick spacing
	binary.LittleEndian.PutUint16(data[45:], 3000) // fee rate
	binary.LittleEndian.PutUint64(data[49:], uint64(liquidity))
	binary.LittleEndian.PutUint64(data[73:], 1) // sqrt price high half: 2^64, price 1.0
	binary.LittleEndian.PutUint32(data[81:], uint32(tick))
	copy(data[101:], mintA[:])
	copy(data[181:], mintB[:])
	return data
}

func tokenSwapAccountBytes(mintA, mintB, vaultA, vaultB solana.PublicKey) []byte {
	data := make([]byte, poolstate.TokenSwapAccountLen)
	data[0] = 1
	data[1] = 1 // initialized
	copy(data[35:], vaultA[:])
	copy(data[67:], vaultB[:])
	copy(data[131:], mintA[:])
	copy(data[163:], mintB[:])
	binary.LittleEndian.PutUint64(data[227:], 25)    // trade fee numerator
	binary.LittleEndian.PutUint64(data[235:], 10000) // trade fee denominator
	return data
}

func tokenAccountBytes(amount uint64) []byte {
	data := make([]byte, 165)
	binary.LittleEndian.PutUint64(data[64:], amount)
	return data
}

func newTestClient(t *testing.T, tp transport.Transport) *Client {
	t.Helper()
	client, err := New(tp, nil, nil)
	require.NoError(t, err)
	return client
}

func TestGetPoolStateWhirlpool(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()

	tp := &memTransport{accounts: map[solana.PublicKey][]byte{
		pool: whirlpoolAccountBytes(mintA, mintB, 1_000_000, 128),
	}}
	client := newTestClient(t, tp)

	snapshot, err := client.GetPoolState(context.Background(), pool)
	require.NoError(t, err)

	assert.Equal(t, types.VariantWhirlpool, snapshot.Variant)
	assert.Equal(t, mintA, snapshot.TokenMintA)
	assert.Equal(t, mintB, snapshot.TokenMintB)
	assert.Equal(t, int32(128), snapshot.CurrentTick)
	assert.Equal(t, uint16(64), snapshot.TickSpacing)
	assert.Equal(t, int64(1_000_000), snapshot.Liquidity.Int64())
}

func TestGetPoolStateTokenSwap(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	vaultA := solana.NewWallet().PublicKey()
	vaultB := solana.NewWallet().PublicKey()

	tp := &memTransport{accounts: map[solana.PublicKey][]byte{
		pool:   tokenSwapAccountBytes(mintA, mintB, vaultA, vaultB),
		vaultA: tokenAccountBytes(1_000_000),
		vaultB: tokenAccountBytes(2_000_000),
	}}
	client := newTestClient(t, tp)

	snapshot, err := client.GetPoolState(context.Background(), pool)
	require.NoError(t, err)

	assert.Equal(t, types.VariantStandard, snapshot.Variant)
	assert.Equal(t, uint64(1_000_000), snapshot.BaseReserve)
	assert.Equal(t, uint64(2_000_000), snapshot.QuoteReserve)
	assert.Equal(t, uint32(2500), snapshot.FeeRate)
}

func TestGetPoolStateMissingVault(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	vaultA := solana.NewWallet().PublicKey()
	vaultB := solana.NewWallet().PublicKey()

	tp := &memTransport{accounts: map[solana.PublicKey][]byte{
		pool: tokenSwapAccountBytes(
			solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(),
			vaultA, vaultB),
		// vaults intentionally absent
	}}
	client := newTestClient(t, tp)

	_, err := client.GetPoolState(context.Background(), pool)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetPoolStateNotFound(t *testing.T) {
	client := newTestClient(t, &memTransport{})
	_, err := client.GetPoolState(context.Background(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestQuoteSwapThroughClient(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	vaultA := solana.NewWallet().PublicKey()
	vaultB := solana.NewWallet().PublicKey()

	tp := &memTransport{accounts: map[solana.PublicKey][]byte{
		pool:   tokenSwapAccountBytes(mintA, mintB, vaultA, vaultB),
		vaultA: tokenAccountBytes(1_000_000),
		vaultB: tokenAccountBytes(2_000_000),
	}}
	client := newTestClient(t, tp)

	quote, err := client.QuoteSwap(context.Background(), pool, mintA, 10_000)
	require.NoError(t, err)

	assert.Equal(t, mintA, quote.InputMint)
	assert.Equal(t, mintB, quote.OutputMint)
	assert.Less(t, quote.ExpectedOutput, uint64(20_000))
	assert.Greater(t, quote.ExpectedOutput, uint64(0))
	assert.Greater(t, quote.PriceImpact, 0.0)
}

func TestDerivePrice(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	vaultA := solana.NewWallet().PublicKey()
	vaultB := solana.NewWallet().PublicKey()

	tp := &memTransport{accounts: map[solana.PublicKey][]byte{
		pool:   tokenSwapAccountBytes(mintA, mintB, vaultA, vaultB),
		vaultA: tokenAccountBytes(1_000_000),
		vaultB: tokenAccountBytes(2_000_000),
	}}
	client := newTestClient(t, tp)

	priceA, err := client.DerivePrice(context.Background(), pool, mintA)
	require.NoError(t, err)
	assert.True(t, priceA.Equal(decimal.NewFromInt(2)), "got %s", priceA)

	priceB, err := client.DerivePrice(context.Background(), pool, mintB)
	require.NoError(t, err)
	assert.True(t, priceB.Equal(decimal.NewFromFloat(0.5)), "got %s", priceB)

	_, err = client.DerivePrice(context.Background(), pool, solana.NewWallet().PublicKey())
	assert.Error(t, err)
}

func TestFindPoolsForPair(t *testing.T) {
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	match := solana.NewWallet().PublicKey()
	noMatch := solana.NewWallet().PublicKey()
	legacy := solana.NewWallet().PublicKey()

	tp := &memTransport{program: map[solana.PublicKey][]transport.ProgramAccount{
		poolstate.WhirlpoolProgramID: {
			{Address: match, Data: whirlpoolAccountBytes(mintA, mintB, 1, 0)},
			{Address: noMatch, Data: whirlpoolAccountBytes(mintA, other, 1, 0)},
		},
		poolstate.StandardSwapProgramID: {
			{Address: legacy, Data: tokenSwapAccountBytes(mintB, mintA,
				solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())},
		},
	}}
	client := newTestClient(t, tp)

	pools, err := client.FindPoolsForPair(context.Background(), mintA, mintB)
	require.NoError(t, err)
	assert.ElementsMatch(t, []solana.PublicKey{match, legacy}, pools)

	// Reversed orientation matches the same pools.
	pools, err = client.FindPoolsForPair(context.Background(), mintB, mintA)
	require.NoError(t, err)
	require.Len(t, pools, 2)
}

func TestFindPoolsForPairCustomProgram(t *testing.T) {
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	program := solana.NewWallet().PublicKey()
	match := solana.NewWallet().PublicKey()

	tp := &memTransport{program: map[solana.PublicKey][]transport.ProgramAccount{
		program: {{Address: match, Data: whirlpoolAccountBytes(mintA, mintB, 1, 0)}},
	}}
	client, err := New(tp, nil, &Options{WhirlpoolProgram: program})
	require.NoError(t, err)

	pools, err := client.FindPoolsForPair(context.Background(), mintA, mintB)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, match, pools[0])
}

func TestGetLiquidityPositionsSkipsNonPositions(t *testing.T) {
	// A fungible balance (amount != 1) is not a position NFT.
	tp := &memTransport{owned: []transport.ProgramAccount{
		{Address: solana.NewWallet().PublicKey(), Data: tokenAccountBytes(500)},
		{Address: solana.NewWallet().PublicKey(), Data: tokenAccountBytes(1)},
	}}
	client := newTestClient(t, tp)

	positions, err := client.GetLiquidityPositions(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	// The NFT candidate derives to a missing position account and is
	// skipped quietly.
	assert.Empty(t, positions)
}
