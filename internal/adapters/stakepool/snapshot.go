package stakepool

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var ErrInvalidSnapshot = errors.New("invalid stake pool snapshot")

// MinimumActiveStakeLamports must stay delegated on a validator stake account
// on top of its rent-exempt reserve.
const MinimumActiveStakeLamports uint64 = 1_000_000

type Fee struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

func (f Fee) validate() error {
	if f.Denominator == 0 {
		if f.Numerator != 0 {
			return fmt.Errorf("fee %d/0", f.Numerator)
		}
		return nil
	}
	if f.Numerator > f.Denominator {
		return fmt.Errorf("fee %d/%d above 100%%", f.Numerator, f.Denominator)
	}
	return nil
}

type ValidatorStatus uint8

const (
	ValidatorStatusActive ValidatorStatus = iota
	ValidatorStatusDeactivatingTransient
	ValidatorStatusReadyForRemoval
	ValidatorStatusDeactivatingValidator
	ValidatorStatusDeactivatingAll
)

type ValidatorStakeInfo struct {
	VoteAccount            solana.PublicKey `json:"voteAccount"`
	ActiveStakeLamports    uint64           `json:"activeStakeLamports"`
	TransientStakeLamports uint64           `json:"transientStakeLamports"`
	Status                 ValidatorStatus  `json:"status"`
}

// Snapshot is the decoded state of an SPL-style stake pool at some slot.
// Snapshots are values: a newer state replaces the old snapshot as a whole.
type Snapshot struct {
	Label             string           `json:"label"`
	Address           solana.PublicKey `json:"address"`
	ProgramID         solana.PublicKey `json:"programId"`
	PoolMint          solana.PublicKey `json:"poolMint"`
	ValidatorList     solana.PublicKey `json:"validatorList"`
	ReserveStake      solana.PublicKey `json:"reserveStake"`
	ManagerFeeAccount solana.PublicKey `json:"managerFeeAccount"`

	TotalLamports   uint64 `json:"totalLamports"`
	PoolTokenSupply uint64 `json:"poolTokenSupply"`
	LastUpdateEpoch uint64 `json:"lastUpdateEpoch"`
	// CurrentEpoch is not part of on-chain pool state. The registry stamps it
	// from the cluster clock.
	CurrentEpoch uint64 `json:"currentEpoch"`

	StakeWithdrawalFee Fee `json:"stakeWithdrawalFee"`
	StakeDepositFee    Fee `json:"stakeDepositFee"`
	SolDepositFee      Fee `json:"solDepositFee"`

	PreferredDepositValidator  *solana.PublicKey `json:"preferredDepositValidator,omitempty"`
	PreferredWithdrawValidator *solana.PublicKey `json:"preferredWithdrawValidator,omitempty"`

	Validators []ValidatorStakeInfo `json:"validators"`
}

func (s *Snapshot) Validate() error {
	if s.Address.IsZero() {
		return fmt.Errorf("%w: missing address", ErrInvalidSnapshot)
	}
	if s.PoolMint.IsZero() {
		return fmt.Errorf("%w: missing pool mint", ErrInvalidSnapshot)
	}
	for name, fee := range map[string]Fee{
		"stake withdrawal": s.StakeWithdrawalFee,
		"stake deposit":    s.StakeDepositFee,
		"sol deposit":      s.SolDepositFee,
	} {
		if err := fee.validate(); err != nil {
			return fmt.Errorf("%w: %s %v", ErrInvalidSnapshot, name, err)
		}
	}
	seen := make(map[solana.PublicKey]struct{}, len(s.Validators))
	for _, v := range s.Validators {
		if _, dup := seen[v.VoteAccount]; dup {
			return fmt.Errorf("%w: duplicate validator %s", ErrInvalidSnapshot, v.VoteAccount)
		}
		seen[v.VoteAccount] = struct{}{}
	}
	return nil
}
