package router

import (
	"errors"
	"fmt"

	"github.com/hxuan190/lst-route-engine/internal/common"
)

var ErrInvalidGlobalFee = errors.New("invalid global fee ratio")

// DefaultGlobalFee is 10 bps on the final output.
var DefaultGlobalFee = GlobalFee{Numerator: 1, Denominator: 1000}

// GlobalFee is the aggregator operator fee, charged once per composed swap on
// top of the fees of both pools.
type GlobalFee struct {
	Numerator   uint64
	Denominator uint64
}

func NewGlobalFee(numerator, denominator uint64) (GlobalFee, error) {
	if denominator == 0 || numerator > denominator {
		return GlobalFee{}, fmt.Errorf("%w: %d/%d", ErrInvalidGlobalFee, numerator, denominator)
	}
	return GlobalFee{Numerator: numerator, Denominator: denominator}, nil
}

type ApplyGlobalFeeResult struct {
	Remainder uint64
	Fee       uint64
}

// Apply splits amount into the fee and what is left for the user.
// Remainder + Fee == amount for every input.
func (g GlobalFee) Apply(amount uint64) ApplyGlobalFeeResult {
	fee, ok := common.MulDiv(amount, g.Numerator, g.Denominator)
	if !ok {
		// zero denominator: no fee configured
		fee = 0
	}
	if fee > amount {
		fee = amount
	}
	return ApplyGlobalFeeResult{
		Remainder: amount - fee,
		Fee:       fee,
	}
}
