package domain

import "github.com/gagliardetto/solana-go"

// ResolvedRoute is the outcome of one route search. It is handed from the
// quoting call to instruction building so the validator scan runs only once.
type ResolvedRoute struct {
	InAmount uint64

	// WithdrawQuote is the quote chosen from the source pool. For prefund
	// routes it is the prefund-transformed, pre-repay quote.
	WithdrawQuote WithdrawStakeQuote

	// BridgeQuote is the stake actually offered to the destination pool.
	// It equals WithdrawQuote for plain routes and is the post-repay quote
	// for prefund routes.
	BridgeQuote WithdrawStakeQuote

	DepositQuote DepositStakeQuote

	Prefund              bool
	PrefundSplitLamports uint64
}

func (r *ResolvedRoute) Voter() solana.PublicKey {
	return r.WithdrawQuote.Voter
}
