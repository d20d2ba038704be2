package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/lst-route-engine/internal/adapters/stakepool"
	"github.com/hxuan190/lst-route-engine/internal/adapters/unstake"
	"github.com/hxuan190/lst-route-engine/internal/aggregator"
	"github.com/hxuan190/lst-route-engine/internal/http/httputil"
)

const (
	defaultPoolPageLimit = 100
	maxPoolPageLimit     = 500
)

type PoolHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewPoolHandler(aggregatorSvc *aggregator.Service) *PoolHandler {
	return &PoolHandler{aggregatorSvc: aggregatorSvc}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/list", h.listPools)
	pub.GET("/:address", h.getPool)
	admin.PUT("", h.upsertPool)
	admin.PUT("/batch", h.upsertPools)
	admin.DELETE("/:address", h.removePool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolInfo summarizes a stake pool
type PoolInfo struct {
	Address   string `json:"address"`
	Label     string `json:"label"`
	Type      string `json:"type" example:"SplStakePool"`
	ProgramID string `json:"programId"`
	Mint      string `json:"mint"`

	TotalLamports   string `json:"totalLamports"`
	PoolTokenSupply string `json:"poolTokenSupply"`
	LastUpdateEpoch uint64 `json:"lastUpdateEpoch"`
	ValidatorCount  int    `json:"validatorCount"`

	// Whether the pool is updated for the current epoch and can be routed through
	Active bool `json:"active"`
}

type PoolDetail struct {
	PoolInfo
	Snapshot stakepool.Snapshot `json:"snapshot"`
}

type PoolListResponse struct {
	Pools []PoolInfo `json:"pools"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Epoch uint64     `json:"epoch"`
}

func newPoolInfo(pool *stakepool.Pool) PoolInfo {
	snap := pool.Snapshot()
	return PoolInfo{
		Address:         pool.MainStateKey().String(),
		Label:           pool.Label(),
		Type:            pool.Type().String(),
		ProgramID:       pool.StakingProgramID().String(),
		Mint:            pool.StakeTokenMint().String(),
		TotalLamports:   strconv.FormatUint(snap.TotalLamports, 10),
		PoolTokenSupply: strconv.FormatUint(snap.PoolTokenSupply, 10),
		LastUpdateEpoch: snap.LastUpdateEpoch,
		ValidatorCount:  len(snap.Validators),
		Active:          pool.CanAcceptStakeDeposits(),
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// @Summary List stake pools
// @Tags pools
// @Produce json
// @Param page query int false "Page number (1-indexed)" default(1)
// @Param limit query int false "Pools per page (max 500)" default(100)
// @Success 200 {object} PoolListResponse
// @Router /api/v1/pools/list [get]
func (h *PoolHandler) listPools(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := min(queryInt(c, "limit", defaultPoolPageLimit), maxPoolPageLimit)

	view := h.aggregatorSvc.Registry().View()
	all := view.StakePools()

	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))

	pools := make([]PoolInfo, 0, end-start)
	for _, pool := range all[start:end] {
		pools = append(pools, newPoolInfo(pool))
	}

	httputil.Success(c, PoolListResponse{
		Pools: pools,
		Total: len(all),
		Page:  page,
		Limit: limit,
		Epoch: view.Epoch(),
	})
}

// @Summary Get stake pool
// @Tags pools
// @Produce json
// @Param address path string true "Pool address or LST mint (base58)"
// @Success 200 {object} PoolDetail
// @Failure 404 {object} httputil.Response
// @Router /api/v1/pools/{address} [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	key, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return
	}

	view := h.aggregatorSvc.Registry().View()
	pool, ok := view.StakePool(key)
	if !ok {
		pool, ok = view.StakePoolByMint(key)
	}
	if !ok {
		httputil.NotFound(c, "pool not found")
		return
	}

	httputil.Success(c, PoolDetail{
		PoolInfo: newPoolInfo(pool),
		Snapshot: pool.Snapshot(),
	})
}

// @Summary Install or replace a stake pool snapshot
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin API key"
// @Param snapshot body stakepool.Snapshot true "Stake pool snapshot"
// @Success 200 {object} PoolDetail
// @Failure 400 {object} httputil.Response
// @Failure 409 {object} httputil.Response "Mint already served by another pool"
// @Router /api/v1/admin/pools [put]
func (h *PoolHandler) upsertPool(c *gin.Context) {
	var snap stakepool.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		httputil.BadRequest(c, "invalid snapshot: "+err.Error())
		return
	}

	pool, err := h.aggregatorSvc.UpsertStakePool(snap)
	if err != nil {
		httputil.HandleError(c, toHTTPError(err))
		return
	}

	httputil.Success(c, PoolDetail{
		PoolInfo: newPoolInfo(pool),
		Snapshot: pool.Snapshot(),
	})
}

// @Summary Install or replace several stake pool snapshots at once
// @Description Either every snapshot is installed or none is.
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin API key"
// @Param snapshots body []stakepool.Snapshot true "Stake pool snapshots"
// @Success 200 {array} PoolInfo
// @Failure 400 {object} httputil.Response
// @Failure 409 {object} httputil.Response "Mint already served by another pool"
// @Router /api/v1/admin/pools/batch [put]
func (h *PoolHandler) upsertPools(c *gin.Context) {
	var snaps []stakepool.Snapshot
	if err := c.ShouldBindJSON(&snaps); err != nil {
		httputil.BadRequest(c, "invalid snapshots: "+err.Error())
		return
	}
	if len(snaps) == 0 {
		httputil.BadRequest(c, "no snapshots")
		return
	}

	pools, err := h.aggregatorSvc.UpsertStakePools(snaps)
	if err != nil {
		httputil.HandleError(c, toHTTPError(err))
		return
	}

	infos := make([]PoolInfo, 0, len(pools))
	for _, pool := range pools {
		infos = append(infos, newPoolInfo(pool))
	}
	httputil.Success(c, infos)
}

// @Summary Remove a stake pool
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string true "Admin API key"
// @Param address path string true "Pool address (base58)"
// @Success 200 {object} PoolInfo
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Router /api/v1/admin/pools/{address} [delete]
func (h *PoolHandler) removePool(c *gin.Context) {
	address, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return
	}

	pool, err := h.aggregatorSvc.RemoveStakePool(address)
	if err != nil {
		httputil.HandleError(c, toHTTPError(err))
		return
	}
	httputil.Success(c, newPoolInfo(pool))
}

type UnstakeHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewUnstakeHandler(aggregatorSvc *aggregator.Service) *UnstakeHandler {
	return &UnstakeHandler{aggregatorSvc: aggregatorSvc}
}

func (h *UnstakeHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getUnstakePool)
	admin.PUT("", h.setUnstakePool)
}

func (h *UnstakeHandler) Root() string {
	return "/unstake"
}

type UnstakePoolResponse struct {
	Snapshot unstake.Snapshot `json:"snapshot"`

	// Lamports the prefund flow splits off to repay the rent-exempt reserve
	PrefundSplitLamports string `json:"prefundSplitLamports,omitempty"`
}

func newUnstakePoolResponse(pool *unstake.Pool) UnstakePoolResponse {
	resp := UnstakePoolResponse{Snapshot: pool.Snapshot()}
	if split, err := pool.PrefundSplitLamports(); err == nil {
		resp.PrefundSplitLamports = strconv.FormatUint(split, 10)
	}
	return resp
}

// @Summary Get the instant-unstake pool used for prefund routes
// @Tags pools
// @Produce json
// @Success 200 {object} UnstakePoolResponse
// @Failure 404 {object} httputil.Response
// @Router /api/v1/unstake [get]
func (h *UnstakeHandler) getUnstakePool(c *gin.Context) {
	pool, ok := h.aggregatorSvc.Registry().View().UnstakePool()
	if !ok {
		httputil.NotFound(c, "no unstake pool configured")
		return
	}
	httputil.Success(c, newUnstakePoolResponse(pool))
}

// @Summary Install or replace the instant-unstake pool snapshot
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin API key"
// @Param snapshot body unstake.Snapshot true "Unstake pool snapshot"
// @Success 200 {object} UnstakePoolResponse
// @Failure 400 {object} httputil.Response
// @Router /api/v1/admin/unstake [put]
func (h *UnstakeHandler) setUnstakePool(c *gin.Context) {
	var snap unstake.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		httputil.BadRequest(c, "invalid snapshot: "+err.Error())
		return
	}

	pool, err := h.aggregatorSvc.SetUnstakePool(snap)
	if err != nil {
		httputil.HandleError(c, toHTTPError(err))
		return
	}
	httputil.Success(c, newUnstakePoolResponse(pool))
}
