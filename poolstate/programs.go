package poolstate

import "github.com/gagliardetto/solana-go"

// On-chain programs the client trades against.
var (
	// WhirlpoolProgramID owns concentrated-liquidity pools.
	WhirlpoolProgramID = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")
	// StableSwapProgramID owns stable pools (shared with standard v2).
	StableSwapProgramID = solana.MustPublicKeyFromBase58("9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP")
	// StandardSwapProgramID owns legacy constant-product pools.
	StandardSwapProgramID = solana.MustPublicKeyFromBase58("DjVE6JNiYqPL2QXyCUUh8rNjHrbz9hXHNYt99MQ59qw1")
)

// WhirlpoolAccountSize is the full serialized size of a whirlpool account,
// usable as a program-account scan filter.
const WhirlpoolAccountSize = 653
