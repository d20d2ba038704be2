package builder

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/domain"
)

var (
	ErrNilRoute          = errors.New("missing resolved route")
	ErrRouteNotPrefund   = errors.New("route was not quoted with prefund")
	ErrRouteIsPrefund    = errors.New("route was quoted with prefund")
	ErrInvalidUserWallet = errors.New("invalid user wallet address")
)

// SwapParams identifies the user side of a stake-bridged swap.
type SwapParams struct {
	ProgramID        solana.PublicKey
	User             solana.PublicKey
	SrcTokenAccount  solana.PublicKey
	DestTokenAccount solana.PublicKey
	DestMint         solana.PublicKey
	BridgeStakeSeed  uint32
}

func (p SwapParams) validate() error {
	if p.User.IsZero() {
		return ErrInvalidUserWallet
	}
	return nil
}

func (p SwapParams) bridgeStake() (solana.PublicKey, error) {
	bridge, err := GetBridgeStakeAddress(p.ProgramID, p.User, p.BridgeStakeSeed)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive bridge stake: %w", err)
	}
	return bridge, nil
}

func (p SwapParams) destFeeTokenAccount() (solana.PublicKey, error) {
	fee, err := GetFeeTokenAccountAddress(p.ProgramID, p.DestMint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive fee token account: %w", err)
	}
	return fee, nil
}

func (p SwapParams) swapViaStakePrefix() (solana.AccountMetaSlice, error) {
	bridge, err := p.bridgeStake()
	if err != nil {
		return nil, err
	}
	feeAccount, err := p.destFeeTokenAccount()
	if err != nil {
		return nil, err
	}
	return solana.AccountMetaSlice{
		solana.Meta(p.User).SIGNER().WRITE(),
		solana.Meta(p.SrcTokenAccount).WRITE(),
		solana.Meta(p.DestTokenAccount).WRITE(),
		solana.Meta(bridge).WRITE(),
		solana.Meta(feeAccount).WRITE(),
		solana.Meta(p.DestMint).WRITE(),
		solana.Meta(common.StakeProgramID),
		solana.Meta(common.SystemProgramID),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
	}, nil
}

// SwapViaStakeAccounts lays out the accounts of a plain swap-via-stake
// instruction for a route returned by Router.QuotePoolPair.
func SwapViaStakeAccounts(
	params SwapParams,
	route *domain.ResolvedRoute,
	withdrawFrom domain.WithdrawStake,
	depositTo domain.DepositStake,
) (solana.AccountMetaSlice, error) {
	if route == nil {
		return nil, ErrNilRoute
	}
	if route.Prefund {
		return nil, ErrRouteIsPrefund
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	prefix, err := params.swapViaStakePrefix()
	if err != nil {
		return nil, err
	}
	withdraw, deposit, err := legAccounts(route, withdrawFrom, depositTo)
	if err != nil {
		return nil, err
	}
	return concatMetas(prefix, withdraw, deposit), nil
}

// PrefundSwapViaStakeAccounts is SwapViaStakeAccounts for a route returned by
// Router.QuotePrefundPoolPair.
func PrefundSwapViaStakeAccounts(
	params SwapParams,
	route *domain.ResolvedRoute,
	withdrawFrom domain.WithdrawStake,
	depositTo domain.DepositStake,
	prefund domain.PrefundRepayParams,
) (solana.AccountMetaSlice, error) {
	if route == nil {
		return nil, ErrNilRoute
	}
	if !route.Prefund {
		return nil, ErrRouteNotPrefund
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	prefix, err := params.swapViaStakePrefix()
	if err != nil {
		return nil, err
	}
	bridge, err := params.bridgeStake()
	if err != nil {
		return nil, err
	}
	slumdog, err := GetSlumdogStakeAddress(params.ProgramID, bridge)
	if err != nil {
		return nil, fmt.Errorf("derive slumdog stake: %w", err)
	}
	prefundAccounts, err := prefund.PrefundIxAccounts()
	if err != nil {
		return nil, fmt.Errorf("prefund accounts: %w", err)
	}
	withdraw, deposit, err := legAccounts(route, withdrawFrom, depositTo)
	if err != nil {
		return nil, err
	}

	return concatMetas(
		prefix,
		solana.AccountMetaSlice{solana.Meta(slumdog).WRITE()},
		prefundAccounts,
		withdraw,
		deposit,
	), nil
}

// ManualConcatAccounts lays out the withdraw-stake and deposit-stake legs
// each behind its own prefix, for clients that assemble the swap from
// separately built legs. Prefund routes need the slumdog and unstake accounts
// and are rejected.
func ManualConcatAccounts(
	params SwapParams,
	route *domain.ResolvedRoute,
	withdrawFrom domain.WithdrawStake,
	depositTo domain.DepositStake,
) (solana.AccountMetaSlice, error) {
	if route == nil {
		return nil, ErrNilRoute
	}
	if route.Prefund {
		return nil, ErrRouteIsPrefund
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	bridge, err := params.bridgeStake()
	if err != nil {
		return nil, err
	}
	feeAccount, err := params.destFeeTokenAccount()
	if err != nil {
		return nil, err
	}
	withdraw, deposit, err := legAccounts(route, withdrawFrom, depositTo)
	if err != nil {
		return nil, err
	}

	withdrawPrefix := solana.AccountMetaSlice{
		solana.Meta(params.User).SIGNER().WRITE(),
		solana.Meta(params.SrcTokenAccount).WRITE(),
		solana.Meta(bridge).WRITE(),
		solana.Meta(common.StakeProgramID),
		solana.Meta(common.SystemProgramID),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
	}
	depositPrefix := solana.AccountMetaSlice{
		solana.Meta(params.User).SIGNER().WRITE(),
		solana.Meta(params.DestTokenAccount).WRITE(),
		solana.Meta(bridge).WRITE(),
		solana.Meta(feeAccount).WRITE(),
		solana.Meta(params.DestMint).WRITE(),
		solana.Meta(common.StakeProgramID),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
	}
	return concatMetas(withdrawPrefix, withdraw, depositPrefix, deposit), nil
}

// DepositSolAccounts lays out a SOL deposit into depositTo.
func DepositSolAccounts(params SwapParams, depositTo domain.DepositSol) (solana.AccountMetaSlice, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	feeAccount, err := params.destFeeTokenAccount()
	if err != nil {
		return nil, err
	}
	pool, err := depositTo.DepositSolIxAccounts()
	if err != nil {
		return nil, fmt.Errorf("deposit sol accounts: %w", err)
	}
	prefix := solana.AccountMetaSlice{
		solana.Meta(params.User).SIGNER().WRITE(),
		solana.Meta(params.SrcTokenAccount).WRITE(),
		solana.Meta(params.DestTokenAccount).WRITE(),
		solana.Meta(feeAccount).WRITE(),
		solana.Meta(params.DestMint).WRITE(),
		solana.Meta(common.SystemProgramID),
		solana.Meta(common.TokenProgramID),
	}
	return concatMetas(prefix, pool), nil
}

func legAccounts(
	route *domain.ResolvedRoute,
	withdrawFrom domain.WithdrawStake,
	depositTo domain.DepositStake,
) (solana.AccountMetaSlice, solana.AccountMetaSlice, error) {
	withdraw, err := withdrawFrom.WithdrawStakeIxAccounts(route.WithdrawQuote)
	if err != nil {
		return nil, nil, fmt.Errorf("withdraw stake accounts (%s): %w", withdrawFrom.Label(), err)
	}
	deposit, err := depositTo.DepositStakeIxAccounts(route.DepositQuote)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit stake accounts (%s): %w", depositTo.Label(), err)
	}
	return withdraw, deposit, nil
}

func concatMetas(parts ...solana.AccountMetaSlice) solana.AccountMetaSlice {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(solana.AccountMetaSlice, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
