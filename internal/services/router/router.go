package router

import (
	"fmt"
	"time"

	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/domain"
	"github.com/hxuan190/lst-route-engine/internal/metrics"
)

const (
	RouteStake        = "stake"
	RouteStakePrefund = "stake_prefund"
	RouteDepositSol   = "deposit_sol"
)

// Router composes one withdraw-stake leg with one deposit-stake leg.
// It holds no pool state and is safe for concurrent use.
type Router struct {
	globalFee GlobalFee
}

func NewRouter(globalFee GlobalFee) *Router {
	return &Router{globalFee: globalFee}
}

func (r *Router) GlobalFee() GlobalFee {
	return r.globalFee
}

// QuotePoolPair finds the first route from withdrawFrom to depositTo for
// inAmount source tokens and prices it.
func (r *Router) QuotePoolPair(
	inAmount uint64,
	withdrawFrom domain.WithdrawStake,
	depositTo domain.DepositStake,
) (domain.Quote, *domain.ResolvedRoute, error) {
	start := time.Now()
	defer func() {
		metrics.QuoteDuration.WithLabelValues(RouteStake).Observe(time.Since(start).Seconds())
	}()

	if !depositTo.CanAcceptStakeDeposits() {
		return domain.Quote{}, nil, ErrCannotAcceptStakeDeposits
	}

	wsq, dsq, err := FirstAvailQuote(inAmount, withdrawFrom, depositTo)
	if err != nil {
		return domain.Quote{}, nil, err
	}

	quote, err := ComposeQuote(r.globalFee, inAmount, wsq, dsq, depositTo.StakeTokenMint())
	if err != nil {
		return domain.Quote{}, nil, err
	}

	return quote, &domain.ResolvedRoute{
		InAmount:      inAmount,
		WithdrawQuote: wsq,
		BridgeQuote:   wsq,
		DepositQuote:  dsq,
	}, nil
}

// QuotePrefundPoolPair is QuotePoolPair for the prefund flow, where the bridge
// stake account's rent-exempt reserve is borrowed and repaid through params.
func (r *Router) QuotePrefundPoolPair(
	inAmount uint64,
	withdrawFrom domain.WithdrawStake,
	depositTo domain.DepositStake,
	params domain.PrefundRepayParams,
) (domain.Quote, *domain.ResolvedRoute, error) {
	start := time.Now()
	defer func() {
		metrics.QuoteDuration.WithLabelValues(RouteStakePrefund).Observe(time.Since(start).Seconds())
	}()

	if !depositTo.CanAcceptStakeDeposits() {
		return domain.Quote{}, nil, ErrCannotAcceptStakeDeposits
	}
	// a stale source is fatal before the unstake pool is asked for the split
	if !withdrawFrom.CanAcceptStakeWithdrawals() {
		return domain.Quote{}, nil, ErrCannotAcceptStakeWithdrawals
	}

	splitLamports, err := params.PrefundSplitLamports()
	if err != nil {
		return domain.Quote{}, nil, fmt.Errorf("prefund split lamports: %w", err)
	}

	candidate, err := FirstAvailPrefundQuote(inAmount, splitLamports, withdrawFrom, depositTo)
	if err != nil {
		return domain.Quote{}, nil, err
	}

	quote, err := ComposePrefundQuote(r.globalFee, inAmount, candidate.Withdraw, candidate.Deposit, splitLamports, depositTo.StakeTokenMint())
	if err != nil {
		return domain.Quote{}, nil, err
	}

	return quote, &domain.ResolvedRoute{
		InAmount:             inAmount,
		WithdrawQuote:        candidate.Withdraw,
		BridgeQuote:          candidate.Bridge,
		DepositQuote:         candidate.Deposit,
		Prefund:              true,
		PrefundSplitLamports: splitLamports,
	}, nil
}

// QuoteDepositSol prices a direct SOL deposit into depositTo. The global fee
// is not charged on this route.
func (r *Router) QuoteDepositSol(lamports uint64, depositTo domain.DepositSol) (domain.Quote, error) {
	start := time.Now()
	defer func() {
		metrics.QuoteDuration.WithLabelValues(RouteDepositSol).Observe(time.Since(start).Seconds())
	}()

	if !depositTo.CanAcceptSolDeposits() {
		return domain.Quote{}, ErrCannotAcceptSolDeposits
	}

	dsq, err := depositTo.GetDepositSolQuoteUnchecked(lamports)
	if err != nil {
		return domain.Quote{}, err
	}
	if dsq.IsZeroOut() {
		return domain.Quote{}, ErrNoRouteFound
	}

	beforeFees, ok := common.CheckedAdd(dsq.OutAmount, dsq.FeeAmount)
	if !ok {
		return domain.Quote{}, ErrMath
	}
	feePct, known := feePercentage(dsq.FeeAmount, beforeFees)

	return domain.Quote{
		InAmount:    lamports,
		OutAmount:   dsq.OutAmount,
		FeeAmount:   dsq.FeeAmount,
		FeePct:      feePct,
		FeePctKnown: known,
		FeeMint:     depositTo.StakeTokenMint(),
	}, nil
}
