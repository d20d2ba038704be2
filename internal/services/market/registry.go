package market

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/lst-route-engine/internal/adapters/stakepool"
	"github.com/hxuan190/lst-route-engine/internal/adapters/unstake"
	"github.com/hxuan190/lst-route-engine/internal/domain"
	"github.com/hxuan190/lst-route-engine/internal/metrics"
)

var (
	ErrUnknownMint   = errors.New("no pool for mint")
	ErrUnknownPool   = errors.New("pool not found")
	ErrMintConflict  = errors.New("mint already served by another pool")
	ErrNoUnstakePool = errors.New("no unstake pool configured")
)

// View is an immutable set of pools at one epoch. A request resolves every
// pool it needs from a single View so both legs see consistent state.
type View struct {
	epoch      uint64
	epochKnown bool
	byAddress  map[solana.PublicKey]*stakepool.Pool
	byMint     map[solana.PublicKey]*stakepool.Pool
	unstake    *unstake.Pool
}

func (v *View) Epoch() uint64 { return v.epoch }

// EpochKnown is false until the first SetEpoch. Stake pools refuse every
// operation until then.
func (v *View) EpochKnown() bool { return v.epochKnown }

func (v *View) StakePool(address solana.PublicKey) (*stakepool.Pool, bool) {
	p, ok := v.byAddress[address]
	return p, ok
}

func (v *View) StakePoolByMint(mint solana.PublicKey) (*stakepool.Pool, bool) {
	p, ok := v.byMint[mint]
	return p, ok
}

// StakePools returns every stake pool ordered by label.
func (v *View) StakePools() []*stakepool.Pool {
	pools := slices.Collect(maps.Values(v.byAddress))
	slices.SortFunc(pools, func(a, b *stakepool.Pool) int {
		return strings.Compare(a.Label(), b.Label())
	})
	return pools
}

func (v *View) UnstakePool() (*unstake.Pool, bool) {
	return v.unstake, v.unstake != nil
}

func (v *View) WithdrawSource(mint solana.PublicKey) (domain.WithdrawStake, error) {
	if p, ok := v.byMint[mint]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
}

func (v *View) DepositDestination(mint solana.PublicKey) (domain.DepositStake, error) {
	if p, ok := v.byMint[mint]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
}

func (v *View) DepositSolTarget(mint solana.PublicKey) (domain.DepositSol, error) {
	if p, ok := v.byMint[mint]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
}

func (v *View) PrefundParams() (domain.PrefundRepayParams, error) {
	if v.unstake == nil {
		return nil, ErrNoUnstakePool
	}
	return v.unstake, nil
}

// Registry holds the current View. Writers build a new View and swap it in;
// readers never observe a partially applied update.
type Registry struct {
	mu      sync.RWMutex
	current *View
}

func NewRegistry() *Registry {
	return &Registry{
		current: &View{
			byAddress: make(map[solana.PublicKey]*stakepool.Pool),
			byMint:    make(map[solana.PublicKey]*stakepool.Pool),
		},
	}
}

func (r *Registry) View() *View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Registry) Epoch() uint64 {
	return r.View().epoch
}

// clone copies the indexes of v. Pools themselves are immutable and shared.
func (v *View) clone() *View {
	return &View{
		epoch:      v.epoch,
		epochKnown: v.epochKnown,
		byAddress:  maps.Clone(v.byAddress),
		byMint:     maps.Clone(v.byMint),
		unstake:    v.unstake,
	}
}

func (v *View) stamp(p *stakepool.Pool) *stakepool.Pool {
	if !v.epochKnown {
		return p.WithUnknownEpoch()
	}
	return p.WithEpoch(v.epoch)
}

// put adds snap to v, which must not be shared yet.
func (v *View) put(snap stakepool.Snapshot) (*stakepool.Pool, error) {
	pool, err := stakepool.New(snap)
	if err != nil {
		return nil, err
	}
	pool = v.stamp(pool)

	if existing, ok := v.byMint[pool.StakeTokenMint()]; ok && existing.MainStateKey() != pool.MainStateKey() {
		return nil, fmt.Errorf("%w: %s served by %s", ErrMintConflict, pool.StakeTokenMint(), existing.MainStateKey())
	}
	if old, ok := v.byAddress[pool.MainStateKey()]; ok {
		delete(v.byMint, old.StakeTokenMint())
	}
	v.byAddress[pool.MainStateKey()] = pool
	v.byMint[pool.StakeTokenMint()] = pool
	return pool, nil
}

func (r *Registry) install(next *View) {
	r.current = next
	metrics.PoolCount.WithLabelValues(domain.PoolTypeSplStakePool.String()).Set(float64(len(next.byAddress)))
	unstakeCount := 0
	if next.unstake != nil {
		unstakeCount = 1
	}
	metrics.PoolCount.WithLabelValues(domain.PoolTypeUnstake.String()).Set(float64(unstakeCount))
}

// UpsertStakePool installs snap, replacing any pool at the same address. The
// snapshot is evaluated at the registry's epoch regardless of its
// CurrentEpoch field.
func (r *Registry) UpsertStakePool(snap stakepool.Snapshot) (*stakepool.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.current.clone()
	pool, err := next.put(snap)
	if err != nil {
		return nil, err
	}
	r.install(next)
	metrics.PoolUpdates.Inc()

	return pool, nil
}

// UpsertStakePools installs snaps as a single update. If any snapshot is
// rejected nothing is installed.
func (r *Registry) UpsertStakePools(snaps []stakepool.Snapshot) ([]*stakepool.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.current.clone()
	pools := make([]*stakepool.Pool, 0, len(snaps))
	for i, snap := range snaps {
		pool, err := next.put(snap)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d (%s): %w", i, snap.Address, err)
		}
		pools = append(pools, pool)
	}
	r.install(next)
	metrics.PoolUpdates.Add(float64(len(pools)))

	return pools, nil
}

// RemoveStakePool drops the pool at address and returns it.
func (r *Registry) RemoveStakePool(address solana.PublicKey) (*stakepool.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.current.byAddress[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, address)
	}
	next := r.current.clone()
	delete(next.byAddress, address)
	delete(next.byMint, old.StakeTokenMint())
	r.install(next)
	return old, nil
}

func (r *Registry) SetUnstakePool(snap unstake.Snapshot) (*unstake.Pool, error) {
	pool, err := unstake.New(snap)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.current.clone()
	next.unstake = pool
	r.install(next)
	metrics.PoolUpdates.Inc()

	return pool, nil
}

// SetEpoch re-stamps every stake pool with epoch. It reports whether the
// epoch changed; the first call always does.
func (r *Registry) SetEpoch(epoch uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current.epochKnown && epoch == r.current.epoch {
		return false
	}

	next := &View{
		epoch:      epoch,
		epochKnown: true,
		byAddress:  make(map[solana.PublicKey]*stakepool.Pool, len(r.current.byAddress)),
		byMint:     make(map[solana.PublicKey]*stakepool.Pool, len(r.current.byMint)),
		unstake:    r.current.unstake,
	}
	for addr, p := range r.current.byAddress {
		stamped := p.WithEpoch(epoch)
		next.byAddress[addr] = stamped
		next.byMint[stamped.StakeTokenMint()] = stamped
	}
	r.install(next)
	metrics.CurrentEpoch.Set(float64(epoch))

	return true
}
