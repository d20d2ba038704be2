package aggregator

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/lst-route-engine/internal/adapters/persistence"
	"github.com/hxuan190/lst-route-engine/internal/adapters/stakepool"
	"github.com/hxuan190/lst-route-engine/internal/adapters/unstake"
	"github.com/hxuan190/lst-route-engine/internal/aggregator/adapters/blockchain"
	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/config"
	"github.com/hxuan190/lst-route-engine/internal/domain"
	"github.com/hxuan190/lst-route-engine/internal/metrics"
	"github.com/hxuan190/lst-route-engine/internal/services"
	"github.com/hxuan190/lst-route-engine/internal/services/builder"
	"github.com/hxuan190/lst-route-engine/internal/services/market"
	"github.com/hxuan190/lst-route-engine/internal/services/router"
)

const AGGREGATOR_SERVICE = "aggregator-service"

var (
	ErrSameMint   = errors.New("input and output mint are the same")
	ErrZeroAmount = errors.New("amount must be greater than zero")
	ErrSolOutput  = errors.New("unstaking to SOL is not supported")

	ErrManualConcatDepositSol = errors.New("manual concat does not apply to SOL deposits")
)

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	registry   *market.Registry
	router     *router.Router
	storage    *persistence.Storage
	epochCache *blockchain.EpochCacheService
	programID  solana.PublicKey
}

// NewService builds a Service outside the container. storage may be nil, in
// which case pool updates are not persisted.
func NewService(
	registry *market.Registry,
	r *router.Router,
	storage *persistence.Storage,
	programID solana.PublicKey,
) *Service {
	svc := &Service{
		registry:  registry,
		router:    r,
		storage:   storage,
		programID: programID,
	}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func (svc *Service) ID() string {
	return AGGREGATOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	routerConfig := c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)
	svc.epochCache = c.Instance(blockchain.EPOCH_CACHE_SERVICE).(*blockchain.EpochCacheService)

	globalFee, err := router.NewGlobalFee(routerConfig.GlobalFeeNumerator, routerConfig.GlobalFeeDenominator)
	if err != nil {
		return err
	}
	storage, err := persistence.NewStorage(routerConfig.DBPath)
	if err != nil {
		return err
	}

	svc.registry = market.NewRegistry()
	svc.router = router.NewRouter(globalFee)
	svc.storage = storage
	svc.programID = routerConfig.ProgramID
	return nil
}

func (svc *Service) Start() error {
	svc.loadSnapshots()

	if svc.epochCache != nil {
		svc.epochCache.Subscribe(svc.onEpoch)
		if err := svc.epochCache.Start(); err != nil {
			return err
		}
		if _, ok := svc.epochCache.GetEpoch(); !ok {
			svc.logger.Warn().Msg("[aggregatorService] cluster epoch unknown, stake pools stay closed until it is fetched")
		}
	}

	svc.logger.Info().
		Int("stakePools", len(svc.registry.View().StakePools())).
		Str("programId", svc.programID.String()).
		Msg("[aggregatorService] started")
	return nil
}

func (svc *Service) Stop() error {
	if svc.epochCache != nil {
		if err := svc.epochCache.Stop(); err != nil {
			log.Error().Err(err).Msg("[aggregatorService] failed to stop epoch cache")
		}
	}
	if svc.storage != nil {
		return svc.storage.Close()
	}
	return nil
}

func (svc *Service) onEpoch(epoch uint64) {
	if svc.registry.SetEpoch(epoch) {
		svc.logger.Info().Uint64("epoch", epoch).Msg("[aggregatorService] pools re-stamped")
	}
}

// loadSnapshots installs every persisted pool. A broken record is skipped so
// one bad snapshot cannot keep the service down.
func (svc *Service) loadSnapshots() {
	if svc.storage == nil {
		return
	}

	snaps, err := svc.storage.LoadAllStakePools()
	if err != nil {
		svc.logger.Warn().Err(err).Msg("[aggregatorService] failed to load stake pools")
	}
	for _, snap := range snaps {
		if _, err := svc.registry.UpsertStakePool(snap); err != nil {
			svc.logger.Pool(snap.Label, snap.Address).Warn().Err(err).Msg("[aggregatorService] skipping stored stake pool")
		}
	}

	unstakeSnap, err := svc.storage.LoadUnstakePool()
	if err != nil {
		svc.logger.Warn().Err(err).Msg("[aggregatorService] failed to load unstake pool")
		return
	}
	if unstakeSnap != nil {
		if _, err := svc.registry.SetUnstakePool(*unstakeSnap); err != nil {
			svc.logger.Warn().Err(err).Msg("[aggregatorService] skipping stored unstake pool")
		}
	}
}

func (svc *Service) Registry() *market.Registry {
	return svc.registry
}

func (svc *Service) ProgramID() solana.PublicKey {
	return svc.programID
}

func (svc *Service) GlobalFee() router.GlobalFee {
	return svc.router.GlobalFee()
}

// UpsertStakePool persists snap and installs it. Persisting happens only
// after the registry accepted the snapshot.
func (svc *Service) UpsertStakePool(snap stakepool.Snapshot) (*stakepool.Pool, error) {
	pool, err := svc.registry.UpsertStakePool(snap)
	if err != nil {
		return nil, err
	}
	if svc.storage != nil {
		if err := svc.storage.SaveStakePool(snap); err != nil {
			return nil, fmt.Errorf("persist stake pool: %w", err)
		}
	}
	svc.logger.Pool(pool.Label(), pool.MainStateKey()).Info().Msg("[aggregatorService] stake pool updated")
	return pool, nil
}

// UpsertStakePools installs snaps as one registry update and persists them in
// one batch. A rejected snapshot leaves both registry and storage unchanged.
func (svc *Service) UpsertStakePools(snaps []stakepool.Snapshot) ([]*stakepool.Pool, error) {
	pools, err := svc.registry.UpsertStakePools(snaps)
	if err != nil {
		return nil, err
	}
	if svc.storage != nil {
		if err := svc.storage.SaveStakePoolBatch(snaps); err != nil {
			return nil, fmt.Errorf("persist stake pools: %w", err)
		}
	}
	svc.logger.Info().Int("count", len(pools)).Msg("[aggregatorService] stake pools updated")
	return pools, nil
}

// RemoveStakePool stops routing through the pool at address and drops its
// stored snapshot.
func (svc *Service) RemoveStakePool(address solana.PublicKey) (*stakepool.Pool, error) {
	pool, err := svc.registry.RemoveStakePool(address)
	if err != nil {
		return nil, err
	}
	if svc.storage != nil {
		if err := svc.storage.DeleteStakePool(address); err != nil {
			return nil, fmt.Errorf("delete stored stake pool: %w", err)
		}
	}
	svc.logger.Pool(pool.Label(), address).Info().Msg("[aggregatorService] stake pool removed")
	return pool, nil
}

// StoredStakePoolCount is the number of stake pools reloaded on restart. It
// is zero when nothing is persisted.
func (svc *Service) StoredStakePoolCount() (int, error) {
	if svc.storage == nil {
		return 0, nil
	}
	return svc.storage.GetStakePoolCount()
}

func (svc *Service) SetUnstakePool(snap unstake.Snapshot) (*unstake.Pool, error) {
	pool, err := svc.registry.SetUnstakePool(snap)
	if err != nil {
		return nil, err
	}
	if svc.storage != nil {
		if err := svc.storage.SaveUnstakePool(snap); err != nil {
			return nil, fmt.Errorf("persist unstake pool: %w", err)
		}
	}
	svc.logger.Pool(pool.Label(), pool.MainStateKey()).Info().Msg("[aggregatorService] unstake pool updated")
	return pool, nil
}

// RouteKind names the route a request resolves to, for metrics and logs.
func RouteKind(req domain.QuoteRequest) string {
	switch {
	case req.InputMint.Equals(common.WrappedSolMint):
		return router.RouteDepositSol
	case req.Prefund:
		return router.RouteStakePrefund
	default:
		return router.RouteStake
	}
}

func validateRequest(req domain.QuoteRequest) error {
	if req.Amount == 0 {
		return ErrZeroAmount
	}
	if req.InputMint.Equals(req.OutputMint) {
		return ErrSameMint
	}
	if req.OutputMint.Equals(common.WrappedSolMint) {
		return ErrSolOutput
	}
	return nil
}

// Quote prices req against the current registry view. The returned route is
// nil for SOL deposits.
func (svc *Service) Quote(req domain.QuoteRequest) (domain.Quote, *domain.ResolvedRoute, error) {
	kind := RouteKind(req)
	quote, route, err := svc.quote(svc.registry.View(), req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.QuoteRequests.WithLabelValues(kind, status).Inc()
	return quote, route, err
}

func (svc *Service) quote(view *market.View, req domain.QuoteRequest) (domain.Quote, *domain.ResolvedRoute, error) {
	if err := validateRequest(req); err != nil {
		return domain.Quote{}, nil, err
	}

	if req.InputMint.Equals(common.WrappedSolMint) {
		depositTo, err := view.DepositSolTarget(req.OutputMint)
		if err != nil {
			return domain.Quote{}, nil, err
		}
		quote, err := svc.router.QuoteDepositSol(req.Amount, depositTo)
		return quote, nil, err
	}

	withdrawFrom, err := view.WithdrawSource(req.InputMint)
	if err != nil {
		return domain.Quote{}, nil, err
	}
	depositTo, err := view.DepositDestination(req.OutputMint)
	if err != nil {
		return domain.Quote{}, nil, err
	}

	if !req.Prefund {
		return svc.router.QuotePoolPair(req.Amount, withdrawFrom, depositTo)
	}
	params, err := view.PrefundParams()
	if err != nil {
		return domain.Quote{}, nil, err
	}
	return svc.router.QuotePrefundPoolPair(req.Amount, withdrawFrom, depositTo, params)
}

// BuildSwapAccounts quotes req once and lays out the swap instruction from
// the resolved route. Quoting and account assembly share one registry view.
func (svc *Service) BuildSwapAccounts(ctx context.Context, req domain.SwapAccountsRequest) (*domain.SwapAccountsResponse, error) {
	kind := RouteKind(req.QuoteRequest)
	resp, err := svc.buildSwapAccounts(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SwapAccountsRequests.WithLabelValues(kind, status).Inc()
	return resp, err
}

func (svc *Service) buildSwapAccounts(ctx context.Context, req domain.SwapAccountsRequest) (*domain.SwapAccountsResponse, error) {
	if req.UserWallet.IsZero() {
		return nil, builder.ErrInvalidUserWallet
	}
	if req.ManualConcat {
		if req.Prefund {
			return nil, fmt.Errorf("manual concat: %w", builder.ErrRouteIsPrefund)
		}
		if req.InputMint.Equals(common.WrappedSolMint) {
			return nil, ErrManualConcatDepositSol
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	view := svc.registry.View()
	quote, route, err := svc.quote(view, req.QuoteRequest)
	if err != nil {
		return nil, err
	}

	params, err := svc.swapParams(req)
	if err != nil {
		return nil, err
	}

	resp := &domain.SwapAccountsResponse{
		Quote:     quote,
		Route:     route,
		ProgramID: svc.programID,
	}

	if route == nil {
		depositTo, err := view.DepositSolTarget(req.OutputMint)
		if err != nil {
			return nil, err
		}
		if resp.Accounts, err = builder.DepositSolAccounts(params, depositTo); err != nil {
			return nil, err
		}
		if resp.Data, err = builder.StakeWrappedSolInstructionData(req.Amount); err != nil {
			return nil, err
		}
		return resp, nil
	}

	withdrawFrom, err := view.WithdrawSource(req.InputMint)
	if err != nil {
		return nil, err
	}
	depositTo, err := view.DepositDestination(req.OutputMint)
	if err != nil {
		return nil, err
	}

	switch {
	case route.Prefund:
		prefund, err := view.PrefundParams()
		if err != nil {
			return nil, err
		}
		resp.Accounts, err = builder.PrefundSwapViaStakeAccounts(params, route, withdrawFrom, depositTo, prefund)
		if err != nil {
			return nil, err
		}
	case req.ManualConcat:
		resp.Accounts, err = builder.ManualConcatAccounts(params, route, withdrawFrom, depositTo)
		if err != nil {
			return nil, err
		}
	default:
		resp.Accounts, err = builder.SwapViaStakeAccounts(params, route, withdrawFrom, depositTo)
		if err != nil {
			return nil, err
		}
	}

	resp.Data, err = builder.SwapViaStakeInstructionData(req.Amount, req.BridgeStakeSeed, route.Prefund)
	if err != nil {
		return nil, err
	}

	svc.logger.Route(RouteKind(req.QuoteRequest)).Debug().
		Str("user", req.UserWallet.String()).
		Str("voter", route.Voter().String()).
		Bool("manualConcat", req.ManualConcat).
		Int("accounts", len(resp.Accounts)).
		Msg("[aggregatorService] built swap accounts")
	return resp, nil
}

func (svc *Service) swapParams(req domain.SwapAccountsRequest) (builder.SwapParams, error) {
	src := req.SrcTokenAccount
	if src.IsZero() {
		ata, _, err := builder.GetATAAddress(req.UserWallet, req.InputMint)
		if err != nil {
			return builder.SwapParams{}, fmt.Errorf("derive source token account: %w", err)
		}
		src = ata
	}
	dst := req.DestTokenAccount
	if dst.IsZero() {
		ata, _, err := builder.GetATAAddress(req.UserWallet, req.OutputMint)
		if err != nil {
			return builder.SwapParams{}, fmt.Errorf("derive destination token account: %w", err)
		}
		dst = ata
	}

	return builder.SwapParams{
		ProgramID:        svc.programID,
		User:             req.UserWallet,
		SrcTokenAccount:  src,
		DestTokenAccount: dst,
		DestMint:         req.OutputMint,
		BridgeStakeSeed:  req.BridgeStakeSeed,
	}, nil
}
