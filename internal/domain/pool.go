package domain

import (
	"iter"

	"github.com/gagliardetto/solana-go"
)

type PoolType uint8

const (
	PoolTypeSplStakePool PoolType = iota
	PoolTypeUnstake
)

func (p PoolType) String() string {
	switch p {
	case PoolTypeSplStakePool:
		return "SplStakePool"
	case PoolTypeUnstake:
		return "Unstake"
	default:
		return "UNKNOWN"
	}
}

// BaseStakePool identifies a pool to the registry and the HTTP layer.
type BaseStakePool interface {
	Label() string
	Type() PoolType
	MainStateKey() solana.PublicKey
	StakingProgramID() solana.PublicKey
	// StakeTokenMint is the LST minted and burned by the pool.
	StakeTokenMint() solana.PublicKey
}

// WithdrawStakeBase is the primitive a withdrawal candidate enumeration is
// built from.
//
// GetQuoteForValidatorUnchecked returns a zero-valued quote for any business
// rule rejection (stale pool, inactive validator, preferred validator mismatch,
// arithmetic overflow). An error is reserved for contract violations such as
// an out-of-bounds index.
type WithdrawStakeBase interface {
	CanAcceptStakeWithdrawals() bool
	IsValidatorIndexOutOfBounds(idx int) bool
	GetQuoteForValidatorUnchecked(idx int, withdrawAmount uint64) (WithdrawStakeQuote, error)
}

// WithdrawStakeQuoteIterator lets a pool replace the default index based
// enumeration. Implementations must be finite and deterministic in order.
type WithdrawStakeQuoteIterator interface {
	WithdrawStakeQuotes(withdrawAmount uint64) iter.Seq2[WithdrawStakeQuote, error]
}

type WithdrawStake interface {
	BaseStakePool
	WithdrawStakeBase
	// WithdrawStakeIxAccounts returns the pool specific accounts of the
	// withdraw-stake leg for the chosen quote.
	WithdrawStakeIxAccounts(quote WithdrawStakeQuote) (solana.AccountMetaSlice, error)
}

// DepositStake is the destination side of a stake-bridged swap.
//
// GetDepositStakeQuoteUnchecked is a pure function of the withdraw quote. It
// returns a zero-valued quote for any business rule rejection (validator not
// accepted, deposit cap, pool not updated this epoch, arithmetic overflow).
type DepositStake interface {
	BaseStakePool
	CanAcceptStakeDeposits() bool
	GetDepositStakeQuoteUnchecked(withdrawQuote WithdrawStakeQuote) (DepositStakeQuote, error)
	DepositStakeIxAccounts(quote DepositStakeQuote) (solana.AccountMetaSlice, error)
}

type DepositSol interface {
	BaseStakePool
	CanAcceptSolDeposits() bool
	GetDepositSolQuoteUnchecked(lamports uint64) (DepositSolQuote, error)
	DepositSolIxAccounts() (solana.AccountMetaSlice, error)
}

// PrefundRepayParams describes how the rent-exempt reserve lent to the bridge
// stake account is paid back within the same swap.
type PrefundRepayParams interface {
	// PrefundSplitLamports is the amount split off the bridge stake to repay
	// the prefunder. An error aborts the whole route search.
	PrefundSplitLamports() (uint64, error)
	ProtocolFeeDest() solana.PublicKey
	PrefundIxAccounts() (solana.AccountMetaSlice, error)
}
