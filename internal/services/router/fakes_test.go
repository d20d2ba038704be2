package router

import (
	"errors"
	"iter"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/lst-route-engine/internal/domain"
)

var (
	voter1 = solana.PublicKey{1}
	voter2 = solana.PublicKey{2}
	voter3 = solana.PublicKey{3}
	voter4 = solana.PublicKey{4}

	srcMint  = solana.PublicKey{0xaa}
	destMint = solana.PublicKey{0xbb}

	errBrokenState = errors.New("broken validator list")
)

type fakeWithdrawPool struct {
	canWithdraw bool
	quotes      []domain.WithdrawStakeQuote
	// errAt makes GetQuoteForValidatorUnchecked fail at that index, -1 disables
	errAt int
	calls int
}

func newFakeWithdrawPool(quotes ...domain.WithdrawStakeQuote) *fakeWithdrawPool {
	return &fakeWithdrawPool{canWithdraw: true, quotes: quotes, errAt: -1}
}

func (p *fakeWithdrawPool) Label() string                      { return "fake-withdraw" }
func (p *fakeWithdrawPool) Type() domain.PoolType              { return domain.PoolTypeSplStakePool }
func (p *fakeWithdrawPool) MainStateKey() solana.PublicKey     { return solana.PublicKey{0x10} }
func (p *fakeWithdrawPool) StakingProgramID() solana.PublicKey { return solana.PublicKey{0x11} }
func (p *fakeWithdrawPool) StakeTokenMint() solana.PublicKey   { return srcMint }
func (p *fakeWithdrawPool) CanAcceptStakeWithdrawals() bool    { return p.canWithdraw }

func (p *fakeWithdrawPool) IsValidatorIndexOutOfBounds(idx int) bool {
	return idx < 0 || idx >= len(p.quotes)
}

func (p *fakeWithdrawPool) GetQuoteForValidatorUnchecked(idx int, _ uint64) (domain.WithdrawStakeQuote, error) {
	p.calls++
	if idx == p.errAt {
		return domain.WithdrawStakeQuote{}, errBrokenState
	}
	return p.quotes[idx], nil
}

func (p *fakeWithdrawPool) WithdrawStakeIxAccounts(domain.WithdrawStakeQuote) (solana.AccountMetaSlice, error) {
	return nil, nil
}

// fakeSingleCandidatePool enumerates candidates itself, like pools that only
// ever withdraw from one stake account.
type fakeSingleCandidatePool struct {
	*fakeWithdrawPool
	quote domain.WithdrawStakeQuote
}

func (p *fakeSingleCandidatePool) WithdrawStakeQuotes(uint64) iter.Seq2[domain.WithdrawStakeQuote, error] {
	return func(yield func(domain.WithdrawStakeQuote, error) bool) {
		yield(p.quote, nil)
	}
}

type fakeDepositPool struct {
	canDeposit bool
	accept     map[solana.PublicKey]domain.DepositStakeQuote
	err        error
	seen       []domain.WithdrawStakeQuote
}

func newFakeDepositPool(accepted ...domain.DepositStakeQuote) *fakeDepositPool {
	accept := make(map[solana.PublicKey]domain.DepositStakeQuote, len(accepted))
	for _, q := range accepted {
		accept[q.Voter] = q
	}
	return &fakeDepositPool{canDeposit: true, accept: accept}
}

func (p *fakeDepositPool) Label() string                      { return "fake-deposit" }
func (p *fakeDepositPool) Type() domain.PoolType              { return domain.PoolTypeSplStakePool }
func (p *fakeDepositPool) MainStateKey() solana.PublicKey     { return solana.PublicKey{0x20} }
func (p *fakeDepositPool) StakingProgramID() solana.PublicKey { return solana.PublicKey{0x21} }
func (p *fakeDepositPool) StakeTokenMint() solana.PublicKey   { return destMint }
func (p *fakeDepositPool) CanAcceptStakeDeposits() bool       { return p.canDeposit }

func (p *fakeDepositPool) GetDepositStakeQuoteUnchecked(wsq domain.WithdrawStakeQuote) (domain.DepositStakeQuote, error) {
	p.seen = append(p.seen, wsq)
	if p.err != nil {
		return domain.DepositStakeQuote{}, p.err
	}
	return p.accept[wsq.Voter], nil
}

func (p *fakeDepositPool) DepositStakeIxAccounts(domain.DepositStakeQuote) (solana.AccountMetaSlice, error) {
	return nil, nil
}

type fakeSolPool struct {
	canDeposit bool
	quote      domain.DepositSolQuote
}

func (p *fakeSolPool) Label() string                      { return "fake-sol" }
func (p *fakeSolPool) Type() domain.PoolType              { return domain.PoolTypeSplStakePool }
func (p *fakeSolPool) MainStateKey() solana.PublicKey     { return solana.PublicKey{0x30} }
func (p *fakeSolPool) StakingProgramID() solana.PublicKey { return solana.PublicKey{0x31} }
func (p *fakeSolPool) StakeTokenMint() solana.PublicKey   { return destMint }
func (p *fakeSolPool) CanAcceptSolDeposits() bool         { return p.canDeposit }

func (p *fakeSolPool) GetDepositSolQuoteUnchecked(uint64) (domain.DepositSolQuote, error) {
	return p.quote, nil
}

func (p *fakeSolPool) DepositSolIxAccounts() (solana.AccountMetaSlice, error) {
	return nil, nil
}

type fakePrefundParams struct {
	split uint64
	err   error
}

func (p fakePrefundParams) PrefundSplitLamports() (uint64, error) { return p.split, p.err }
func (p fakePrefundParams) ProtocolFeeDest() solana.PublicKey     { return solana.PublicKey{0x40} }
func (p fakePrefundParams) PrefundIxAccounts() (solana.AccountMetaSlice, error) {
	return nil, nil
}

func stakeQuote(voter solana.PublicKey, out uint64) domain.WithdrawStakeQuote {
	return domain.WithdrawStakeQuote{
		LamportsOut:    out,
		LamportsStaked: out - domain.StakeAccountRentExemptLamports,
		FeeAmount:      out / 100,
		Voter:          voter,
	}
}
