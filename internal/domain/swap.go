package domain

import (
	"github.com/gagliardetto/solana-go"
)

type QuoteRequest struct {
	InputMint solana.PublicKey

	OutputMint solana.PublicKey

	Amount uint64

	// Prefund borrows the bridge stake account's rent-exempt reserve and
	// repays it through an instant unstake.
	Prefund bool
}

type SwapAccountsRequest struct {
	QuoteRequest

	UserWallet solana.PublicKey

	// SrcTokenAccount and DestTokenAccount default to the user's associated
	// token accounts when zero.
	SrcTokenAccount solana.PublicKey

	DestTokenAccount solana.PublicKey

	BridgeStakeSeed uint32

	// ManualConcat lays each leg out behind its own prefix. Not valid with
	// Prefund.
	ManualConcat bool
}

type SwapAccountsResponse struct {
	Quote Quote

	Route *ResolvedRoute

	ProgramID solana.PublicKey

	Accounts solana.AccountMetaSlice

	Data []byte
}
