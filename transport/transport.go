// Package transport defines the boundary to the external ledger
// collaborators: account fetching, transaction submission and signing. The
// engines depend only on these interfaces; the RPC adapter in this package
// is one implementation.
package transport

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// AccountFetcher reads raw account state from the ledger.
type AccountFetcher interface {
	// FetchAccount returns the raw bytes of one account. A missing account
	// is types.ErrNotFound; anything else is wrapped in types.ErrTransport.
	FetchAccount(ctx context.Context, address solana.PublicKey) ([]byte, error)

	// FetchAccounts batch-reads several accounts; missing entries are nil.
	FetchAccounts(ctx context.Context, addresses []solana.PublicKey) ([][]byte, error)

	// FetchProgramAccounts returns every account owned by a program,
	// optionally filtered by data length (0 for no filter).
	FetchProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64) ([]ProgramAccount, error)

	// FetchTokenAccountsByOwner returns the owner's SPL token accounts.
	FetchTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) ([]ProgramAccount, error)
}

// Submitter signs-adjacent side of the boundary: broadcasting a fully signed
// transaction. Rejection reasons come back as errors verbatim; the engines
// decide what is retryable.
type Submitter interface {
	SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)

	// SimulateTransaction runs the signed transaction against current chain
	// state without broadcasting it. A non-nil error is the rejection the
	// broadcast would have produced.
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) error

	// RecentBlockhash returns a blockhash usable for a new transaction.
	RecentBlockhash(ctx context.Context) (solana.Hash, error)
}

// Transport is the full collaborator contract the client wires in.
type Transport interface {
	AccountFetcher
	Submitter
}

// ProgramAccount pairs an account address with its raw data.
type ProgramAccount struct {
	Address solana.PublicKey
	Data    []byte
}
