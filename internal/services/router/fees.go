package router

import (
	"errors"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/domain"
)

var (
	ErrWithdrawalFeesTooHigh = errors.New("100% withdrawal fees")
	ErrFeesTooHigh           = errors.New("100%+ fees")
	ErrMath                  = errors.New("math error")
)

// ApproxFeesChargedOutToken re-expresses a fee charged at an earlier stage in
// the units of amtAfterFee, assuming the ratio feeNum/feeDenom applied
// linearly: fees = amtAfterFee * feeNum / (feeDenom - feeNum), floored.
func ApproxFeesChargedOutToken(amtAfterFee, feeNum, feeDenom uint64) (uint64, error) {
	if feeDenom <= feeNum {
		return 0, ErrFeesTooHigh
	}
	fees, ok := common.MulDiv(amtAfterFee, feeNum, feeDenom-feeNum)
	if !ok {
		return 0, ErrMath
	}
	return fees, nil
}

// feeAccumulator tracks the running total fee and the reconstructed pre-fee
// amount while stages are undone in reverse chronological order.
type feeAccumulator struct {
	totalFees  uint64
	beforeFees uint64
}

func (a *feeAccumulator) add(fee uint64) error {
	total, ok := common.CheckedAdd(a.totalFees, fee)
	if !ok {
		return ErrMath
	}
	before, ok := common.CheckedAdd(a.beforeFees, fee)
	if !ok {
		return ErrMath
	}
	a.totalFees = total
	a.beforeFees = before
	return nil
}

// backOut undoes one stage whose fee ratio was feeNum/feeDenom.
func (a *feeAccumulator) backOut(feeNum, feeDenom uint64) error {
	fee, err := ApproxFeesChargedOutToken(a.beforeFees, feeNum, feeDenom)
	if err != nil {
		return err
	}
	return a.add(fee)
}

// ComposeQuote assembles the external quote for a plain stake-bridged swap
// from the chosen withdraw and deposit quotes.
func ComposeQuote(
	globalFee GlobalFee,
	inAmount uint64,
	wsq domain.WithdrawStakeQuote,
	dsq domain.DepositStakeQuote,
	feeMint solana.PublicKey,
) (domain.Quote, error) {
	return composeQuote(globalFee, inAmount, wsq, dsq, nil, feeMint)
}

// ComposePrefundQuote is ComposeQuote with the instant-unstake fee paid to
// repay the prefund. wsq must be the prefund-transformed, pre-repay quote.
func ComposePrefundQuote(
	globalFee GlobalFee,
	inAmount uint64,
	wsq domain.WithdrawStakeQuote,
	dsq domain.DepositStakeQuote,
	prefundSplitLamports uint64,
	feeMint solana.PublicKey,
) (domain.Quote, error) {
	return composeQuote(globalFee, inAmount, wsq, dsq, &prefundSplitLamports, feeMint)
}

func composeQuote(
	globalFee GlobalFee,
	inAmount uint64,
	wsq domain.WithdrawStakeQuote,
	dsq domain.DepositStakeQuote,
	prefundSplitLamports *uint64,
	feeMint solana.PublicKey,
) (domain.Quote, error) {
	applied := globalFee.Apply(dsq.TokensOut)

	// global fee + deposit fee, over tokens out + deposit fee
	acc := feeAccumulator{totalFees: applied.Fee, beforeFees: dsq.TokensOut}
	if err := acc.add(dsq.FeeAmount); err != nil {
		return domain.Quote{}, err
	}

	// The prefund repay stage must be backed out before the withdrawal fee,
	// which is measured against the original in amount.
	if prefundSplitLamports != nil {
		if err := acc.backOut(*prefundSplitLamports, wsq.LamportsOut); err != nil {
			return domain.Quote{}, err
		}
	}

	if wsq.FeeAmount >= inAmount {
		return domain.Quote{}, ErrWithdrawalFeesTooHigh
	}
	if err := acc.backOut(wsq.FeeAmount, inAmount); err != nil {
		return domain.Quote{}, err
	}

	feePct, known := feePercentage(acc.totalFees, acc.beforeFees)
	return domain.Quote{
		InAmount:    inAmount,
		OutAmount:   applied.Remainder,
		FeeAmount:   acc.totalFees,
		FeePct:      feePct,
		FeePctKnown: known,
		FeeMint:     feeMint,
	}, nil
}

// feePercentage returns totalFees / beforeFees. It is display only, so a
// failure yields zero with known == false instead of an error.
func feePercentage(totalFees, beforeFees uint64) (decimal.Decimal, bool) {
	if beforeFees == 0 {
		return decimal.Zero, false
	}
	num := decimal.NewFromBigInt(new(big.Int).SetUint64(totalFees), 0)
	denom := decimal.NewFromBigInt(new(big.Int).SetUint64(beforeFees), 0)
	return num.Div(denom), true
}
