package stakepool

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/lst-route-engine/internal/domain"
)

type validatorStakeKey struct {
	program solana.PublicKey
	pool    solana.PublicKey
	vote    solana.PublicKey
}

var (
	validatorStakeCache   = make(map[validatorStakeKey]solana.PublicKey)
	validatorStakeCacheMu sync.RWMutex
)

// ValidatorStakeAddress derives the pool's stake account for vote.
func ValidatorStakeAddress(programID, pool, vote solana.PublicKey) (solana.PublicKey, error) {
	key := validatorStakeKey{program: programID, pool: pool, vote: vote}

	validatorStakeCacheMu.RLock()
	if cached, ok := validatorStakeCache[key]; ok {
		validatorStakeCacheMu.RUnlock()
		return cached, nil
	}
	validatorStakeCacheMu.RUnlock()

	pda, _, err := solana.FindProgramAddress([][]byte{vote[:], pool[:]}, programID)
	if err != nil {
		return solana.PublicKey{}, err
	}

	validatorStakeCacheMu.Lock()
	validatorStakeCache[key] = pda
	validatorStakeCacheMu.Unlock()

	return pda, nil
}

func (p *Pool) validatorStake(vote solana.PublicKey) (solana.PublicKey, error) {
	if _, found := p.validatorIndex[vote]; !found {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrValidatorNotFound, vote)
	}
	return ValidatorStakeAddress(p.snap.ProgramID, p.snap.Address, vote)
}

// WithdrawStakeIxAccounts lists the pool accounts of a withdraw-stake leg.
// The bridge stake, user authority, token accounts and sysvars are supplied
// by the router instruction.
func (p *Pool) WithdrawStakeIxAccounts(quote domain.WithdrawStakeQuote) (solana.AccountMetaSlice, error) {
	validatorStake, err := p.validatorStake(quote.Voter)
	if err != nil {
		return nil, err
	}
	return solana.AccountMetaSlice{
		solana.Meta(p.snap.ProgramID),
		solana.Meta(p.snap.Address).WRITE(),
		solana.Meta(p.snap.ValidatorList).WRITE(),
		solana.Meta(p.withdrawAuthority),
		solana.Meta(validatorStake).WRITE(),
		solana.Meta(p.snap.ManagerFeeAccount).WRITE(),
		solana.Meta(p.snap.PoolMint).WRITE(),
	}, nil
}

func (p *Pool) DepositStakeIxAccounts(quote domain.DepositStakeQuote) (solana.AccountMetaSlice, error) {
	validatorStake, err := p.validatorStake(quote.Voter)
	if err != nil {
		return nil, err
	}
	return solana.AccountMetaSlice{
		solana.Meta(p.snap.ProgramID),
		solana.Meta(p.snap.Address).WRITE(),
		solana.Meta(p.snap.ValidatorList).WRITE(),
		solana.Meta(p.depositAuthority),
		solana.Meta(p.withdrawAuthority),
		solana.Meta(validatorStake).WRITE(),
		solana.Meta(p.snap.ReserveStake).WRITE(),
		solana.Meta(p.snap.ManagerFeeAccount).WRITE(),
	}, nil
}

func (p *Pool) DepositSolIxAccounts() (solana.AccountMetaSlice, error) {
	return solana.AccountMetaSlice{
		solana.Meta(p.snap.ProgramID),
		solana.Meta(p.snap.Address).WRITE(),
		solana.Meta(p.withdrawAuthority),
		solana.Meta(p.snap.ReserveStake).WRITE(),
		solana.Meta(p.snap.ManagerFeeAccount).WRITE(),
		solana.Meta(p.snap.PoolMint).WRITE(),
	}, nil
}
