package http

import (
	"errors"
	"fmt"

	"github.com/hxuan190/lst-route-engine/internal/adapters/stakepool"
	"github.com/hxuan190/lst-route-engine/internal/adapters/unstake"
	"github.com/hxuan190/lst-route-engine/internal/aggregator"
	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/services/builder"
	"github.com/hxuan190/lst-route-engine/internal/services/market"
	"github.com/hxuan190/lst-route-engine/internal/services/router"
)

// toHTTPError maps a service error onto the API error it is reported as.
func toHTTPError(err error) *common.HttpError {
	msg := err.Error()
	switch {
	case errors.Is(err, aggregator.ErrZeroAmount),
		errors.Is(err, aggregator.ErrSameMint),
		errors.Is(err, aggregator.ErrSolOutput),
		errors.Is(err, aggregator.ErrManualConcatDepositSol),
		errors.Is(err, builder.ErrInvalidUserWallet),
		errors.Is(err, builder.ErrRouteIsPrefund),
		errors.Is(err, stakepool.ErrInvalidSnapshot),
		errors.Is(err, unstake.ErrInvalidUnstakeSnapshot):
		return common.HTTPErrorBadRequest(msg)

	case errors.Is(err, market.ErrUnknownMint),
		errors.Is(err, market.ErrUnknownPool),
		errors.Is(err, market.ErrNoUnstakePool),
		errors.Is(err, router.ErrNoRouteFound):
		return common.HTTPErrorNotFound(msg)

	case errors.Is(err, market.ErrMintConflict),
		errors.Is(err, router.ErrCannotAcceptStakeWithdrawals),
		errors.Is(err, router.ErrCannotAcceptStakeDeposits),
		errors.Is(err, router.ErrCannotAcceptSolDeposits):
		return common.HTTPErrorResourceConflict(msg)

	case errors.Is(err, router.ErrFeesTooHigh),
		errors.Is(err, router.ErrWithdrawalFeesTooHigh),
		errors.Is(err, unstake.ErrFeeTooHigh),
		errors.Is(err, unstake.ErrInsufficientLiquidity):
		return common.HTTPErrorUnprocessable(msg)

	default:
		return common.HTTPErrorInternalError(msg)
	}
}

func errInvalidField(field string) error {
	return fmt.Errorf("invalid %s", field)
}
