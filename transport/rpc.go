package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/orca-client/types"
)

const rpcCallTimeout = 5 * time.Second

// RPCTransport implements Transport over a JSON-RPC node.
type RPCTransport struct {
	client *rpc.Client
	logger *zap.Logger
}

// NewRPCTransport creates a transport bound to one RPC endpoint.
func NewRPCTransport(endpoint string, logger *zap.Logger) *RPCTransport {
	return &RPCTransport{
		client: rpc.New(endpoint),
		logger: logger.Named("transport"),
	}
}

// FetchAccount returns the raw binary data of one account.
func (t *RPCTransport) FetchAccount(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	cctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	info, err := t.client.GetAccountInfo(cctx, address)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("account %s: %w", address, types.ErrNotFound)
		}
		t.logger.Error("GetAccountInfo failed", zap.String("account", address.String()), zap.Error(err))
		return nil, fmt.Errorf("get account %s: %w: %w", address, types.ErrTransport, err)
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("account %s: %w", address, types.ErrNotFound)
	}
	return info.Value.Data.GetBinary(), nil
}

// FetchAccounts batch-reads several accounts in one RPC round trip.
func (t *RPCTransport) FetchAccounts(ctx context.Context, addresses []solana.PublicKey) ([][]byte, error) {
	cctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	resp, err := t.client.GetMultipleAccounts(cctx, addresses...)
	if err != nil {
		t.logger.Error("GetMultipleAccounts failed", zap.Error(err))
		return nil, fmt.Errorf("get multiple accounts: %w: %w", types.ErrTransport, err)
	}

	data := make([][]byte, len(addresses))
	for i, info := range resp.Value {
		if info != nil {
			data[i] = info.Data.GetBinary()
		}
	}
	return data, nil
}

// FetchProgramAccounts scans accounts owned by a program.
func (t *RPCTransport) FetchProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64) ([]ProgramAccount, error) {
	cctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	opts := &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
	}
	if dataSize > 0 {
		opts.Filters = []rpc.RPCFilter{{DataSize: dataSize}}
	}

	resp, err := t.client.GetProgramAccountsWithOpts(cctx, program, opts)
	if err != nil {
		t.logger.Error("GetProgramAccounts failed", zap.String("program", program.String()), zap.Error(err))
		return nil, fmt.Errorf("get program accounts for %s: %w: %w", program, types.ErrTransport, err)
	}

	accounts := make([]ProgramAccount, 0, len(resp))
	for _, entry := range resp {
		if entry.Account == nil {
			continue
		}
		accounts = append(accounts, ProgramAccount{
			Address: entry.Pubkey,
			Data:    entry.Account.Data.GetBinary(),
		})
	}
	return accounts, nil
}

// FetchTokenAccountsByOwner lists the SPL token accounts of an owner.
func (t *RPCTransport) FetchTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) ([]ProgramAccount, error) {
	cctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	resp, err := t.client.GetTokenAccountsByOwner(cctx, owner,
		&rpc.GetTokenAccountsConfig{ProgramId: solana.TokenProgramID.ToPointer()},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingBase64},
	)
	if err != nil {
		t.logger.Error("GetTokenAccountsByOwner failed", zap.String("owner", owner.String()), zap.Error(err))
		return nil, fmt.Errorf("get token accounts for %s: %w: %w", owner, types.ErrTransport, err)
	}

	accounts := make([]ProgramAccount, 0, len(resp.Value))
	for _, entry := range resp.Value {
		accounts = append(accounts, ProgramAccount{
			Address: entry.Pubkey,
			Data:    entry.Account.Data.GetBinary(),
		})
	}
	return accounts, nil
}

// SubmitTransaction broadcasts a signed transaction and returns its
// signature. Rejections surface verbatim for the engine to classify.
func (t *RPCTransport) SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := t.client.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

// SimulateTransaction preflights a signed transaction and surfaces the
// program error it would fail with, if any.
func (t *RPCTransport) SimulateTransaction(ctx context.Context, tx *solana.Transaction) error {
	cctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	resp, err := t.client.SimulateTransaction(cctx, tx)
	if err != nil {
		return fmt.Errorf("simulate transaction: %w: %w", types.ErrTransport, err)
	}
	if resp.Value != nil && resp.Value.Err != nil {
		return fmt.Errorf("simulation rejected: %v", resp.Value.Err)
	}
	return nil
}

// RecentBlockhash returns the latest confirmed blockhash.
func (t *RPCTransport) RecentBlockhash(ctx context.Context) (solana.Hash, error) {
	cctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	resp, err := t.client.GetLatestBlockhash(cctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w: %w", types.ErrTransport, err)
	}
	return resp.Value.Blockhash, nil
}
