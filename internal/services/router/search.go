package router

import (
	"errors"
	"fmt"
	"iter"

	"github.com/hxuan190/lst-route-engine/internal/domain"
	"github.com/hxuan190/lst-route-engine/internal/metrics"
)

var (
	ErrNoRouteFound                 = errors.New("no route found")
	ErrCannotAcceptStakeWithdrawals = errors.New("pool cannot accept stake withdrawals")
	ErrCannotAcceptStakeDeposits    = errors.New("pool cannot accept stake deposits")
	ErrCannotAcceptSolDeposits      = errors.New("pool cannot accept sol deposits")
)

const (
	searchKindPlain   = "plain"
	searchKindPrefund = "prefund"
)

// DepositStakeQuoter is the part of domain.DepositStake the search needs.
type DepositStakeQuoter interface {
	GetDepositStakeQuoteUnchecked(withdrawQuote domain.WithdrawStakeQuote) (domain.DepositStakeQuote, error)
}

// WithdrawStakeQuotes lazily enumerates one withdraw quote per validator of
// w, in validator list order. Pools implementing
// domain.WithdrawStakeQuoteIterator supply their own enumeration.
// Enumeration stops after the first error.
func WithdrawStakeQuotes(w domain.WithdrawStakeBase, withdrawAmount uint64) iter.Seq2[domain.WithdrawStakeQuote, error] {
	if custom, ok := w.(domain.WithdrawStakeQuoteIterator); ok {
		return custom.WithdrawStakeQuotes(withdrawAmount)
	}
	return func(yield func(domain.WithdrawStakeQuote, error) bool) {
		for idx := 0; !w.IsValidatorIndexOutOfBounds(idx); idx++ {
			quote, err := w.GetQuoteForValidatorUnchecked(idx, withdrawAmount)
			if !yield(quote, err) || err != nil {
				return
			}
		}
	}
}

// FirstAvailQuote returns the first withdrawal candidate of withdrawFrom that
// depositTo accepts. It is first-fit, not best-fit.
//
// Zero-out quotes on either side skip the candidate. Errors from either pool
// abort the search.
func FirstAvailQuote(
	withdrawAmount uint64,
	withdrawFrom domain.WithdrawStakeBase,
	depositTo DepositStakeQuoter,
) (domain.WithdrawStakeQuote, domain.DepositStakeQuote, error) {
	if !withdrawFrom.CanAcceptStakeWithdrawals() {
		metrics.RouteSearchResults.WithLabelValues(searchKindPlain, "unavailable").Inc()
		return domain.WithdrawStakeQuote{}, domain.DepositStakeQuote{}, ErrCannotAcceptStakeWithdrawals
	}

	scanned := 0
	defer func() {
		metrics.RouteSearchCandidates.WithLabelValues(searchKindPlain).Observe(float64(scanned))
	}()

	for wsq, err := range WithdrawStakeQuotes(withdrawFrom, withdrawAmount) {
		if err != nil {
			metrics.RouteSearchResults.WithLabelValues(searchKindPlain, "error").Inc()
			return domain.WithdrawStakeQuote{}, domain.DepositStakeQuote{}, fmt.Errorf("withdraw quote for candidate %d: %w", scanned, err)
		}
		scanned++
		if wsq.IsZeroOut() {
			continue
		}

		dsq, err := depositTo.GetDepositStakeQuoteUnchecked(wsq)
		if err != nil {
			metrics.RouteSearchResults.WithLabelValues(searchKindPlain, "error").Inc()
			return domain.WithdrawStakeQuote{}, domain.DepositStakeQuote{}, fmt.Errorf("deposit quote for voter %s: %w", wsq.Voter, err)
		}
		if dsq.IsZeroOut() {
			continue
		}

		metrics.RouteSearchResults.WithLabelValues(searchKindPlain, "found").Inc()
		return wsq, dsq, nil
	}

	metrics.RouteSearchResults.WithLabelValues(searchKindPlain, "no_route").Inc()
	return domain.WithdrawStakeQuote{}, domain.DepositStakeQuote{}, ErrNoRouteFound
}

// PrefundCandidate is a route found by FirstAvailPrefundQuote.
type PrefundCandidate struct {
	// Withdraw is the prefund-transformed quote, before the repay split.
	Withdraw domain.WithdrawStakeQuote
	// Bridge is the post-repay quote that was offered to the destination.
	Bridge  domain.WithdrawStakeQuote
	Deposit domain.DepositStakeQuote
}

// FirstAvailPrefundQuote is FirstAvailQuote for the prefund flow. Every
// candidate is prefunded with the rent-exempt reserve and then has
// prefundSplitLamports split off to repay the loan; only a rent-exempt
// post-repay stake that still has lamports delegated is offered to depositTo.
func FirstAvailPrefundQuote(
	withdrawAmount uint64,
	prefundSplitLamports uint64,
	withdrawFrom domain.WithdrawStakeBase,
	depositTo DepositStakeQuoter,
) (PrefundCandidate, error) {
	if !withdrawFrom.CanAcceptStakeWithdrawals() {
		metrics.RouteSearchResults.WithLabelValues(searchKindPrefund, "unavailable").Inc()
		return PrefundCandidate{}, ErrCannotAcceptStakeWithdrawals
	}

	scanned := 0
	defer func() {
		metrics.RouteSearchCandidates.WithLabelValues(searchKindPrefund).Observe(float64(scanned))
	}()

	for wsq, err := range WithdrawStakeQuotes(withdrawFrom, withdrawAmount) {
		if err != nil {
			metrics.RouteSearchResults.WithLabelValues(searchKindPrefund, "error").Inc()
			return PrefundCandidate{}, fmt.Errorf("withdraw quote for candidate %d: %w", scanned, err)
		}
		scanned++
		if wsq.IsZeroOut() {
			continue
		}

		prefunded := PrefundTransformWsq(wsq)
		if prefunded.IsZeroOut() {
			continue
		}
		bridge := WsqPostPrefundRepay(prefunded, prefundSplitLamports)
		if !bridge.IsRentExempt() || bridge.LamportsStaked == 0 {
			continue
		}

		dsq, err := depositTo.GetDepositStakeQuoteUnchecked(bridge)
		if err != nil {
			metrics.RouteSearchResults.WithLabelValues(searchKindPrefund, "error").Inc()
			return PrefundCandidate{}, fmt.Errorf("deposit quote for voter %s: %w", bridge.Voter, err)
		}
		if dsq.IsZeroOut() {
			continue
		}

		metrics.RouteSearchResults.WithLabelValues(searchKindPrefund, "found").Inc()
		return PrefundCandidate{
			Withdraw: prefunded,
			Bridge:   bridge,
			Deposit:  dsq,
		}, nil
	}

	metrics.RouteSearchResults.WithLabelValues(searchKindPrefund, "no_route").Inc()
	return PrefundCandidate{}, ErrNoRouteFound
}
