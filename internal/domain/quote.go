package domain

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// StakeAccountRentExemptLamports is the minimum balance of a stake account
// (200 bytes of account data). It doubles as the reserve lent to the bridge
// stake account by the prefund flow.
const StakeAccountRentExemptLamports uint64 = 2_282_880

// WithdrawStakeQuote is the result of withdrawing a stake account from a pool.
type WithdrawStakeQuote struct {
	// LamportsOut is the total balance of the resulting stake account,
	// rent-exempt reserve included.
	LamportsOut uint64
	// LamportsStaked is the delegated portion of LamportsOut.
	LamportsStaked uint64
	// FeeAmount is denominated in the withdrawal input unit (pool tokens).
	FeeAmount uint64
	// Voter is the vote account the stake was split from.
	Voter solana.PublicKey
}

func (q WithdrawStakeQuote) IsZeroOut() bool {
	return q.LamportsOut == 0
}

func (q WithdrawStakeQuote) IsRentExempt() bool {
	return q.LamportsOut >= StakeAccountRentExemptLamports
}

// DepositStakeQuote is the result of depositing a stake account into a pool.
type DepositStakeQuote struct {
	TokensOut uint64
	// FeeAmount is denominated in destination pool tokens.
	FeeAmount uint64
	Voter     solana.PublicKey
}

func (q DepositStakeQuote) IsZeroOut() bool {
	return q.TokensOut == 0
}

// DepositSolQuote is the result of depositing lamports into a pool.
type DepositSolQuote struct {
	InAmount  uint64
	OutAmount uint64
	FeeAmount uint64
}

func (q DepositSolQuote) IsZeroOut() bool {
	return q.OutAmount == 0
}

// Quote is the aggregator-facing result of a composed swap. Only the integer
// fields are settlement relevant; FeePct is for display and ranking.
type Quote struct {
	InAmount  uint64
	OutAmount uint64
	FeeAmount uint64
	FeePct    decimal.Decimal
	// FeePctKnown is false when FeePct could not be computed and holds the
	// zero fallback.
	FeePctKnown bool
	FeeMint     solana.PublicKey
}
