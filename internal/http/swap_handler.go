package http

import (
	"encoding/base64"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/lst-route-engine/internal/aggregator"
	"github.com/hxuan190/lst-route-engine/internal/domain"
	"github.com/hxuan190/lst-route-engine/internal/http/httputil"
)

type SwapHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewSwapHandler(aggregatorSvc *aggregator.Service) *SwapHandler {
	return &SwapHandler{aggregatorSvc: aggregatorSvc}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/accounts", h.buildSwapAccounts)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

type SwapAccountsRequest struct {
	UserWallet string `json:"userWallet" binding:"required"`
	InputMint  string `json:"inputMint" binding:"required"`
	OutputMint string `json:"outputMint" binding:"required"`
	Amount     string `json:"amount" binding:"required" example:"1000000000"`
	Prefund    bool   `json:"prefund"`

	// Seed of the bridge stake account PDA. Use a fresh seed for swaps that
	// may be in flight at the same time.
	BridgeStakeSeed uint32 `json:"bridgeStakeSeed"`

	// Lay each leg out behind its own prefix. Not valid with prefund.
	ManualConcat bool `json:"manualConcat"`

	// Default to the user's associated token accounts
	SrcTokenAccount  string `json:"srcTokenAccount,omitempty"`
	DestTokenAccount string `json:"destTokenAccount,omitempty"`
}

type AccountMetaResponse struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type SwapAccountsResponse struct {
	Quote     QuoteResponse         `json:"quote"`
	ProgramID string                `json:"programId"`
	Accounts  []AccountMetaResponse `json:"accounts"`

	// Instruction data, base64
	Data string `json:"data"`
}

func optionalKey(s, field string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, errInvalidField(field)
	}
	return key, nil
}

func parseSwapAccountsRequest(body SwapAccountsRequest) (domain.SwapAccountsRequest, error) {
	quoteReq, err := parseQuoteRequest(QuoteRequest{
		InputMint:  body.InputMint,
		OutputMint: body.OutputMint,
		Amount:     body.Amount,
		Prefund:    body.Prefund,
	})
	if err != nil {
		return domain.SwapAccountsRequest{}, err
	}
	user, err := solana.PublicKeyFromBase58(body.UserWallet)
	if err != nil {
		return domain.SwapAccountsRequest{}, errInvalidField("userWallet")
	}
	src, err := optionalKey(body.SrcTokenAccount, "srcTokenAccount")
	if err != nil {
		return domain.SwapAccountsRequest{}, err
	}
	dst, err := optionalKey(body.DestTokenAccount, "destTokenAccount")
	if err != nil {
		return domain.SwapAccountsRequest{}, err
	}

	return domain.SwapAccountsRequest{
		QuoteRequest:     quoteReq,
		UserWallet:       user,
		SrcTokenAccount:  src,
		DestTokenAccount: dst,
		BridgeStakeSeed:  body.BridgeStakeSeed,
		ManualConcat:     body.ManualConcat,
	}, nil
}

// @Summary Build swap accounts
// @Description Quote a swap and return the ordered account metas and instruction data of the router instruction that executes it.
// @Description The route is resolved once; the accounts belong to the validator the quote picked.
// @Tags swap
// @Accept json
// @Produce json
// @Param request body SwapAccountsRequest true "Swap parameters"
// @Success 200 {object} SwapAccountsResponse
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Router /api/v1/swap/accounts [post]
func (h *SwapHandler) buildSwapAccounts(c *gin.Context) {
	var body SwapAccountsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	req, err := parseSwapAccountsRequest(body)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	resp, err := h.aggregatorSvc.BuildSwapAccounts(c.Request.Context(), req)
	if err != nil {
		httputil.HandleError(c, toHTTPError(err))
		return
	}

	accounts := make([]AccountMetaResponse, 0, len(resp.Accounts))
	for _, meta := range resp.Accounts {
		accounts = append(accounts, AccountMetaResponse{
			Pubkey:     meta.PublicKey.String(),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}

	httputil.Success(c, SwapAccountsResponse{
		Quote:     newQuoteResponse(req.QuoteRequest, resp.Quote, resp.Route),
		ProgramID: resp.ProgramID.String(),
		Accounts:  accounts,
		Data:      base64.StdEncoding.EncodeToString(resp.Data),
	})
}
