package blockchain

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/lst-route-engine/internal/config"
	"github.com/hxuan190/lst-route-engine/internal/services"
)

const EPOCH_CACHE_SERVICE = "cache-epoch-svc"

// EpochInfoGetter is the part of *rpc.Client the cache needs.
type EpochInfoGetter interface {
	GetEpochInfo(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetEpochInfoResult, error)
}

type CachedEpoch struct {
	Epoch     uint64
	Slot      uint64
	UpdatedAt time.Time
}

// EpochCacheService polls the cluster epoch and notifies subscribers when it
// changes.
type EpochCacheService struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	mu          sync.RWMutex
	current     *CachedEpoch
	subscribers []func(epoch uint64)

	rpcClient EpochInfoGetter
	interval  time.Duration

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewEpochCacheService(client EpochInfoGetter, interval time.Duration) *EpochCacheService {
	svc := &EpochCacheService{rpcClient: client, interval: interval}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func (svc *EpochCacheService) ID() string {
	return EPOCH_CACHE_SERVICE
}

func (svc *EpochCacheService) Configure(c container.IContainer) error {
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	routerConfig := c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)

	svc.logger = services.NewServiceLogger(svc)
	svc.rpcClient = rpc.New(rpcConfig.RPCUrl)
	svc.interval = routerConfig.EpochRefreshInterval
	return nil
}

// Start is idempotent: the aggregator starts the cache it depends on and the
// container may start it again.
func (svc *EpochCacheService) Start() error {
	svc.startOnce.Do(func() {
		if err := svc.Refresh(context.Background()); err != nil {
			svc.logger.Warn().Err(err).Msg("[EpochCacheService] failed to fetch initial epoch, will retry on next tick")
		}

		ctx, cancel := context.WithCancel(context.Background())
		svc.cancel = cancel
		svc.done = make(chan struct{})
		go svc.loop(ctx)

		svc.logger.Info().Dur("interval", svc.interval).Msg("[EpochCacheService] started epoch polling")
	})
	return nil
}

func (svc *EpochCacheService) Stop() error {
	if svc.cancel != nil {
		svc.cancel()
		<-svc.done
		svc.cancel = nil
	}
	return nil
}

func (svc *EpochCacheService) loop(ctx context.Context) {
	defer close(svc.done)

	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.Refresh(ctx); err != nil && ctx.Err() == nil {
				svc.logger.Warn().Err(err).Msg("[EpochCacheService] epoch refresh failed")
			}
		}
	}
}

// Subscribe registers fn to be called with every newly observed epoch. If an
// epoch is already known fn is called with it immediately.
func (svc *EpochCacheService) Subscribe(fn func(epoch uint64)) {
	svc.mu.Lock()
	svc.subscribers = append(svc.subscribers, fn)
	cached := svc.current
	svc.mu.Unlock()

	if cached != nil {
		fn(cached.Epoch)
	}
}

// Refresh fetches the epoch once and notifies subscribers if it moved.
func (svc *EpochCacheService) Refresh(ctx context.Context) error {
	res, err := svc.rpcClient.GetEpochInfo(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return err
	}

	svc.mu.Lock()
	changed := svc.current == nil || svc.current.Epoch != res.Epoch
	svc.current = &CachedEpoch{
		Epoch:     res.Epoch,
		Slot:      res.AbsoluteSlot,
		UpdatedAt: time.Now(),
	}
	subscribers := append([]func(uint64)(nil), svc.subscribers...)
	svc.mu.Unlock()

	if changed {
		svc.logger.Info().Uint64("epoch", res.Epoch).Uint64("slot", res.AbsoluteSlot).Msg("[EpochCacheService] new epoch")
		for _, fn := range subscribers {
			fn(res.Epoch)
		}
	}
	return nil
}

// GetEpoch returns the last observed epoch, ok is false before the first
// successful fetch.
func (svc *EpochCacheService) GetEpoch() (uint64, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	if svc.current == nil {
		return 0, false
	}
	return svc.current.Epoch, true
}
