// Package stakepool prices withdrawals and deposits against a snapshot of an
// SPL-style stake pool.
package stakepool

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/domain"
)

var (
	ErrValidatorIndexOutOfBounds = errors.New("validator index out of bounds")
	ErrValidatorNotFound         = errors.New("validator not in pool")
)

const (
	withdrawAuthoritySeed = "withdraw"
	depositAuthoritySeed  = "deposit"
)

// Pool is immutable. WithEpoch and the registry produce new values instead
// of updating a pool in place.
type Pool struct {
	snap              Snapshot
	withdrawAuthority solana.PublicKey
	depositAuthority  solana.PublicKey
	validatorIndex    map[solana.PublicKey]int

	// set while the cluster epoch is unknown
	epochUnknown bool
}

var (
	_ domain.WithdrawStake = (*Pool)(nil)
	_ domain.DepositStake  = (*Pool)(nil)
	_ domain.DepositSol    = (*Pool)(nil)
)

func New(snap Snapshot) (*Pool, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if snap.ProgramID.IsZero() {
		snap.ProgramID = common.SplStakePoolProgramID
	}
	withdrawAuthority, _, err := solana.FindProgramAddress(
		[][]byte{snap.Address[:], []byte(withdrawAuthoritySeed)},
		snap.ProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive withdraw authority: %w", err)
	}
	depositAuthority, _, err := solana.FindProgramAddress(
		[][]byte{snap.Address[:], []byte(depositAuthoritySeed)},
		snap.ProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive deposit authority: %w", err)
	}

	snap.Validators = append([]ValidatorStakeInfo(nil), snap.Validators...)
	index := make(map[solana.PublicKey]int, len(snap.Validators))
	for i, v := range snap.Validators {
		index[v.VoteAccount] = i
	}

	return &Pool{
		snap:              snap,
		withdrawAuthority: withdrawAuthority,
		depositAuthority:  depositAuthority,
		validatorIndex:    index,
	}, nil
}

// WithEpoch returns a copy of p observed at epoch.
func (p *Pool) WithEpoch(epoch uint64) *Pool {
	next := *p
	next.snap.CurrentEpoch = epoch
	next.epochUnknown = false
	return &next
}

// WithUnknownEpoch returns a copy of p that refuses every operation until
// WithEpoch is applied.
func (p *Pool) WithUnknownEpoch() *Pool {
	next := *p
	next.epochUnknown = true
	return &next
}

func (p *Pool) Snapshot() Snapshot {
	snap := p.snap
	snap.Validators = append([]ValidatorStakeInfo(nil), p.snap.Validators...)
	return snap
}

func (p *Pool) Label() string {
	if p.snap.Label != "" {
		return p.snap.Label
	}
	return p.snap.Address.String()
}

func (p *Pool) Type() domain.PoolType              { return domain.PoolTypeSplStakePool }
func (p *Pool) MainStateKey() solana.PublicKey     { return p.snap.Address }
func (p *Pool) StakingProgramID() solana.PublicKey { return p.snap.ProgramID }
func (p *Pool) StakeTokenMint() solana.PublicKey   { return p.snap.PoolMint }

// isUpdatedThisEpoch gates every operation: the pool program rejects
// withdrawals and deposits until the epoch update has run. Without a known
// epoch freshness cannot be shown, so the pool is closed.
func (p *Pool) isUpdatedThisEpoch() bool {
	return !p.epochUnknown && p.snap.LastUpdateEpoch >= p.snap.CurrentEpoch
}

func (p *Pool) CanAcceptStakeWithdrawals() bool { return p.isUpdatedThisEpoch() }
func (p *Pool) CanAcceptStakeDeposits() bool    { return p.isUpdatedThisEpoch() }
func (p *Pool) CanAcceptSolDeposits() bool      { return p.isUpdatedThisEpoch() }

func (p *Pool) IsValidatorIndexOutOfBounds(idx int) bool {
	return idx < 0 || idx >= len(p.snap.Validators)
}

func (p *Pool) GetQuoteForValidatorUnchecked(idx int, withdrawAmount uint64) (domain.WithdrawStakeQuote, error) {
	if p.IsValidatorIndexOutOfBounds(idx) {
		return domain.WithdrawStakeQuote{}, fmt.Errorf("%w: %d of %d", ErrValidatorIndexOutOfBounds, idx, len(p.snap.Validators))
	}
	v := p.snap.Validators[idx]
	if v.Status != ValidatorStatusActive {
		return domain.WithdrawStakeQuote{}, nil
	}

	lamports, fee, ok := p.withdrawLamports(withdrawAmount)
	if !ok || lamports == 0 || lamports > withdrawableLamports(v) {
		return domain.WithdrawStakeQuote{}, nil
	}

	if preferred := p.snap.PreferredWithdrawValidator; preferred != nil && *preferred != v.VoteAccount {
		if pi, found := p.validatorIndex[*preferred]; found && withdrawableLamports(p.snap.Validators[pi]) >= lamports {
			return domain.WithdrawStakeQuote{}, nil
		}
	}

	return domain.WithdrawStakeQuote{
		LamportsOut:    lamports,
		LamportsStaked: common.SaturatingSub(lamports, domain.StakeAccountRentExemptLamports),
		FeeAmount:      fee,
		Voter:          v.VoteAccount,
	}, nil
}

// withdrawLamports converts pool tokens to lamports after the withdrawal fee,
// which is charged in pool tokens and rounded up.
func (p *Pool) withdrawLamports(poolTokens uint64) (lamports, fee uint64, ok bool) {
	fee, ok = chargeFeeCeil(poolTokens, p.snap.StakeWithdrawalFee)
	if !ok || fee >= poolTokens {
		return 0, 0, false
	}
	if p.snap.PoolTokenSupply == 0 {
		return 0, 0, false
	}
	lamports, ok = common.MulDiv(poolTokens-fee, p.snap.TotalLamports, p.snap.PoolTokenSupply)
	return lamports, fee, ok
}

// withdrawableLamports is how much can be split off v without taking it below
// the minimum delegation.
func withdrawableLamports(v ValidatorStakeInfo) uint64 {
	return common.SaturatingSub(v.ActiveStakeLamports, MinimumActiveStakeLamports+domain.StakeAccountRentExemptLamports)
}

func (p *Pool) GetDepositStakeQuoteUnchecked(wsq domain.WithdrawStakeQuote) (domain.DepositStakeQuote, error) {
	idx, found := p.validatorIndex[wsq.Voter]
	if !found || p.snap.Validators[idx].Status != ValidatorStatusActive {
		return domain.DepositStakeQuote{}, nil
	}
	if preferred := p.snap.PreferredDepositValidator; preferred != nil && *preferred != wsq.Voter {
		return domain.DepositStakeQuote{}, nil
	}

	out, fee, ok := p.mint(wsq.LamportsOut, p.snap.StakeDepositFee)
	if !ok {
		return domain.DepositStakeQuote{}, nil
	}
	return domain.DepositStakeQuote{
		TokensOut: out,
		FeeAmount: fee,
		Voter:     wsq.Voter,
	}, nil
}

func (p *Pool) GetDepositSolQuoteUnchecked(lamports uint64) (domain.DepositSolQuote, error) {
	out, fee, ok := p.mint(lamports, p.snap.SolDepositFee)
	if !ok {
		return domain.DepositSolQuote{}, nil
	}
	return domain.DepositSolQuote{
		InAmount:  lamports,
		OutAmount: out,
		FeeAmount: fee,
	}, nil
}

// mint converts deposited lamports to pool tokens and takes the deposit fee
// out of the minted amount, rounding the fee down.
func (p *Pool) mint(lamports uint64, depositFee Fee) (out, fee uint64, ok bool) {
	minted := lamports
	if p.snap.TotalLamports != 0 && p.snap.PoolTokenSupply != 0 {
		minted, ok = common.MulDiv(lamports, p.snap.PoolTokenSupply, p.snap.TotalLamports)
		if !ok {
			return 0, 0, false
		}
	}
	fee, ok = chargeFeeFloor(minted, depositFee)
	if !ok {
		return 0, 0, false
	}
	return minted - fee, fee, true
}

func chargeFeeCeil(amount uint64, fee Fee) (uint64, bool) {
	if fee.Denominator == 0 || fee.Numerator == 0 {
		return 0, true
	}
	return common.MulDivCeil(amount, fee.Numerator, fee.Denominator)
}

func chargeFeeFloor(amount uint64, fee Fee) (uint64, bool) {
	if fee.Denominator == 0 || fee.Numerator == 0 {
		return 0, true
	}
	return common.MulDiv(amount, fee.Numerator, fee.Denominator)
}
