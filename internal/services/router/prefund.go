package router

import (
	"math"

	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/domain"
)

// PrefundTransformWsq reinterprets wsq as if the bridge stake account had been
// prefunded with the rent-exempt reserve: everything withdrawn becomes staked
// and the reserve sits on top. An overflowing balance yields a zero-out quote.
func PrefundTransformWsq(wsq domain.WithdrawStakeQuote) domain.WithdrawStakeQuote {
	if wsq.LamportsOut > math.MaxUint64-domain.StakeAccountRentExemptLamports {
		return domain.WithdrawStakeQuote{
			FeeAmount: wsq.FeeAmount,
			Voter:     wsq.Voter,
		}
	}
	return domain.WithdrawStakeQuote{
		LamportsOut:    wsq.LamportsOut + domain.StakeAccountRentExemptLamports,
		LamportsStaked: wsq.LamportsOut,
		FeeAmount:      wsq.FeeAmount,
		Voter:          wsq.Voter,
	}
}

// WsqPostPrefundRepay removes the lamports split off to repay the prefunder.
// Both balances saturate at zero.
func WsqPostPrefundRepay(wsq domain.WithdrawStakeQuote, repayLamports uint64) domain.WithdrawStakeQuote {
	return domain.WithdrawStakeQuote{
		LamportsOut:    common.SaturatingSub(wsq.LamportsOut, repayLamports),
		LamportsStaked: common.SaturatingSub(wsq.LamportsStaked, repayLamports),
		FeeAmount:      wsq.FeeAmount,
		Voter:          wsq.Voter,
	}
}
