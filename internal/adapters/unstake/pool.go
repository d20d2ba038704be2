// Package unstake models an instant-unstake liquidity pool that lends the
// bridge stake account its rent-exempt reserve on prefund routes.
package unstake

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/domain"
)

var (
	ErrFeeTooHigh             = errors.New("unstake fee too high")
	ErrMath                   = errors.New("unstake math error")
	ErrInsufficientLiquidity  = errors.New("unstake pool has insufficient liquidity")
	ErrInvalidUnstakeSnapshot = errors.New("invalid unstake pool snapshot")
)

type Fee struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

type Snapshot struct {
	Label           string           `json:"label"`
	Address         solana.PublicKey `json:"address"`
	ProgramID       solana.PublicKey `json:"programId"`
	FeeAccount      solana.PublicKey `json:"feeAccount"`
	PoolSolReserves solana.PublicKey `json:"poolSolReserves"`
	ProtocolFeeDest solana.PublicKey `json:"protocolFeeDest"`
	// SolReservesLamports is the liquidity available to pay out unstakes.
	SolReservesLamports uint64 `json:"solReservesLamports"`
	Fee                 Fee    `json:"fee"`
}

func (s *Snapshot) Validate() error {
	if s.Address.IsZero() {
		return fmt.Errorf("%w: missing address", ErrInvalidUnstakeSnapshot)
	}
	if s.Fee.Denominator == 0 {
		return fmt.Errorf("%w: zero fee denominator", ErrInvalidUnstakeSnapshot)
	}
	return nil
}

type Pool struct {
	snap Snapshot
}

var _ domain.PrefundRepayParams = (*Pool)(nil)

func New(snap Snapshot) (*Pool, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if snap.ProgramID.IsZero() {
		snap.ProgramID = common.UnstakeProgramID
	}
	return &Pool{snap: snap}, nil
}

func (p *Pool) Snapshot() Snapshot { return p.snap }

func (p *Pool) Label() string {
	if p.snap.Label != "" {
		return p.snap.Label
	}
	return p.snap.Address.String()
}

func (p *Pool) Type() domain.PoolType { return domain.PoolTypeUnstake }

func (p *Pool) MainStateKey() solana.PublicKey { return p.snap.Address }

func (p *Pool) ProtocolFeeDest() solana.PublicKey { return p.snap.ProtocolFeeDest }

// PrefundSplitLamports is the smallest stake that, once instantly unstaked
// at the pool's flat fee, pays back the rent-exempt reserve in full:
// ceil(reserve * denom / (denom - num)).
func (p *Pool) PrefundSplitLamports() (uint64, error) {
	fee := p.snap.Fee
	if fee.Numerator >= fee.Denominator {
		return 0, fmt.Errorf("%w: %d/%d", ErrFeeTooHigh, fee.Numerator, fee.Denominator)
	}
	if p.snap.SolReservesLamports < domain.StakeAccountRentExemptLamports {
		return 0, fmt.Errorf("%w: %d lamports", ErrInsufficientLiquidity, p.snap.SolReservesLamports)
	}
	split, ok := common.MulDivCeil(domain.StakeAccountRentExemptLamports, fee.Denominator, fee.Denominator-fee.Numerator)
	if !ok {
		return 0, ErrMath
	}
	return split, nil
}

func (p *Pool) PrefundIxAccounts() (solana.AccountMetaSlice, error) {
	return solana.AccountMetaSlice{
		solana.Meta(p.snap.ProgramID),
		solana.Meta(p.snap.Address).WRITE(),
		solana.Meta(p.snap.PoolSolReserves).WRITE(),
		solana.Meta(p.snap.FeeAccount),
		solana.Meta(p.snap.ProtocolFeeDest).WRITE(),
	}, nil
}
