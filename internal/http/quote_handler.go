package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/lst-route-engine/internal/aggregator"
	"github.com/hxuan190/lst-route-engine/internal/domain"
	"github.com/hxuan190/lst-route-engine/internal/http/httputil"
)

type QuoteHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewQuoteHandler(aggregatorSvc *aggregator.Service) *QuoteHandler {
	return &QuoteHandler{aggregatorSvc: aggregatorSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest represents the parameters for requesting a swap quote
type QuoteRequest struct {
	// Mint of the LST being sold, or wrapped SOL for a direct deposit
	InputMint string `form:"inputMint" binding:"required" example:"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"`

	// Mint of the LST being bought
	OutputMint string `form:"outputMint" binding:"required" example:"J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn"`

	// Amount of input tokens in base units
	Amount string `form:"amount" binding:"required" example:"1000000000"`

	// Borrow the bridge stake account's rent-exempt reserve from the
	// instant-unstake pool and repay it out of the withdrawn stake
	Prefund bool `form:"prefund" example:"false"`
}

// QuoteResponse contains a priced stake-bridged swap
type QuoteResponse struct {
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`

	// Route kind: stake, stake_prefund or deposit_sol
	Route string `json:"route" enums:"stake,stake_prefund,deposit_sol" example:"stake"`

	// Amounts are decimal strings in base units
	InAmount  string `json:"inAmount" example:"1000000000"`
	OutAmount string `json:"outAmount" example:"998001000"`

	// Total fee in output token units, global fee included
	FeeAmount string `json:"feeAmount" example:"1998999"`
	FeeMint   string `json:"feeMint"`

	// Fee as a fraction of the pre-fee output. Null when it cannot be computed.
	FeePct *string `json:"feePct" example:"0.001998999"`

	// Vote account whose stake bridges the swap. Empty for SOL deposits.
	Voter string `json:"voter,omitempty"`

	// Lamports split off the bridge stake to repay the prefund
	PrefundSplitLamports string `json:"prefundSplitLamports,omitempty" example:"2285166"`
}

func newQuoteResponse(req domain.QuoteRequest, quote domain.Quote, route *domain.ResolvedRoute) QuoteResponse {
	resp := QuoteResponse{
		InputMint:  req.InputMint.String(),
		OutputMint: req.OutputMint.String(),
		Route:      aggregator.RouteKind(req),
		InAmount:   strconv.FormatUint(quote.InAmount, 10),
		OutAmount:  strconv.FormatUint(quote.OutAmount, 10),
		FeeAmount:  strconv.FormatUint(quote.FeeAmount, 10),
		FeeMint:    quote.FeeMint.String(),
	}
	if quote.FeePctKnown {
		pct := quote.FeePct.String()
		resp.FeePct = &pct
	}
	if route != nil {
		resp.Voter = route.Voter().String()
		if route.Prefund {
			resp.PrefundSplitLamports = strconv.FormatUint(route.PrefundSplitLamports, 10)
		}
	}
	return resp
}

func parseQuoteRequest(req QuoteRequest) (domain.QuoteRequest, error) {
	inputMint, err := solana.PublicKeyFromBase58(req.InputMint)
	if err != nil {
		return domain.QuoteRequest{}, errInvalidField("inputMint")
	}
	outputMint, err := solana.PublicKeyFromBase58(req.OutputMint)
	if err != nil {
		return domain.QuoteRequest{}, errInvalidField("outputMint")
	}
	amount, err := strconv.ParseUint(req.Amount, 10, 64)
	if err != nil || amount == 0 {
		return domain.QuoteRequest{}, errInvalidField("amount: must be a positive integer")
	}
	return domain.QuoteRequest{
		InputMint:  inputMint,
		OutputMint: outputMint,
		Amount:     amount,
		Prefund:    req.Prefund,
	}, nil
}

// @Summary Get swap quote
// @Description Price an LST to LST swap that withdraws a stake account from the input pool and deposits it into the output pool.
// @Description Passing wrapped SOL as inputMint prices a direct SOL deposit instead.
// @Description The first validator both pools accept is used; fees of both pools and the aggregator fee are folded into feeAmount.
// @Tags quote
// @Produce json
// @Param inputMint query string true "Input LST mint (base58)"
// @Param outputMint query string true "Output LST mint (base58)"
// @Param amount query string true "Input amount in base units"
// @Param prefund query bool false "Use the prefund flow"
// @Success 200 {object} QuoteResponse
// @Failure 400 {object} httputil.Response "Invalid request parameters"
// @Failure 404 {object} httputil.Response "Unknown mint or no route"
// @Failure 409 {object} httputil.Response "Pool not updated for the current epoch"
// @Router /api/v1/quote [get]
func (h *QuoteHandler) getQuote(c *gin.Context) {
	var query QuoteRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	req, err := parseQuoteRequest(query)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	quote, route, err := h.aggregatorSvc.Quote(req)
	if err != nil {
		httputil.HandleError(c, toHTTPError(err))
		return
	}

	httputil.Success(c, newQuoteResponse(req, quote, route))
}
