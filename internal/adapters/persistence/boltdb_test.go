package persistence

import (
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/lst-route-engine/internal/adapters/stakepool"
	"github.com/hxuan190/lst-route-engine/internal/adapters/unstake"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(filepath.Join(t.TempDir(), "pools.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func testStakePool(id byte) stakepool.Snapshot {
	preferred := solana.PublicKey{id, 9}
	return stakepool.Snapshot{
		Label:                     "pool",
		Address:                   solana.PublicKey{id, 1},
		ProgramID:                 solana.PublicKey{id, 2},
		PoolMint:                  solana.PublicKey{id, 3},
		ValidatorList:             solana.PublicKey{id, 4},
		ReserveStake:              solana.PublicKey{id, 5},
		ManagerFeeAccount:         solana.PublicKey{id, 6},
		TotalLamports:             1_050_000_000_000,
		PoolTokenSupply:           1_000_000_000_000,
		LastUpdateEpoch:           612,
		StakeWithdrawalFee:        stakepool.Fee{Numerator: 1, Denominator: 1000},
		StakeDepositFee:           stakepool.Fee{Numerator: 0, Denominator: 1},
		SolDepositFee:             stakepool.Fee{Numerator: 5, Denominator: 1000},
		PreferredDepositValidator: &preferred,
		Validators: []stakepool.ValidatorStakeInfo{
			{VoteAccount: preferred, ActiveStakeLamports: 10, TransientStakeLamports: 2, Status: stakepool.ValidatorStatusActive},
			{VoteAccount: solana.PublicKey{id, 10}, ActiveStakeLamports: 20, Status: stakepool.ValidatorStatusReadyForRemoval},
		},
	}
}

func TestStakePoolStorage(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveStakePool(testStakePool(0xa0)))
	require.NoError(t, storage.SaveStakePoolBatch([]stakepool.Snapshot{testStakePool(0xb0), testStakePool(0xc0)}))

	// overwrite keeps one entry per address
	updated := testStakePool(0xa0)
	updated.LastUpdateEpoch = 613
	require.NoError(t, storage.SaveStakePool(updated))

	count, err := storage.GetStakePoolCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	loaded, err := storage.LoadAllStakePools()
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	byAddress := make(map[solana.PublicKey]stakepool.Snapshot, len(loaded))
	for _, snap := range loaded {
		byAddress[snap.Address] = snap
	}
	assert.Equal(t, updated, byAddress[updated.Address])
	assert.Equal(t, testStakePool(0xb0), byAddress[solana.PublicKey{0xb0, 1}])
}

func TestDeleteStakePool(t *testing.T) {
	storage := newTestStorage(t)
	require.NoError(t, storage.SaveStakePoolBatch([]stakepool.Snapshot{testStakePool(0xa0), testStakePool(0xb0)}))

	require.NoError(t, storage.DeleteStakePool(solana.PublicKey{0xa0, 1}))

	count, err := storage.GetStakePoolCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	loaded, err := storage.LoadAllStakePools()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, solana.PublicKey{0xb0, 1}, loaded[0].Address)

	// saving again revives the pool
	require.NoError(t, storage.SaveStakePool(testStakePool(0xa0)))
	count, err = storage.GetStakePoolCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUnstakePoolStorage(t *testing.T) {
	storage := newTestStorage(t)

	snap := unstake.Snapshot{
		Label:               "unstake",
		Address:             solana.PublicKey{0xd0, 1},
		ProgramID:           solana.PublicKey{0xd0, 2},
		FeeAccount:          solana.PublicKey{0xd0, 3},
		PoolSolReserves:     solana.PublicKey{0xd0, 4},
		ProtocolFeeDest:     solana.PublicKey{0xd0, 5},
		SolReservesLamports: 1_000_000_000,
		Fee:                 unstake.Fee{Numerator: 1, Denominator: 1000},
	}
	require.NoError(t, storage.SaveUnstakePool(snap))

	loaded, err := storage.LoadUnstakePool()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snap, *loaded)
}

func TestStoredStakePoolRejectsBadKeys(t *testing.T) {
	stored := stakePoolToStored(testStakePool(0xa0))
	stored.PoolMint = "not-base58!"

	_, err := storedToStakePool(stored)
	assert.ErrorContains(t, err, "poolMint")

	stored = stakePoolToStored(testStakePool(0xa0))
	stored.PreferredWithdrawValidator = "0OIl"
	_, err = storedToStakePool(stored)
	assert.ErrorContains(t, err, "preferredWithdrawValidator")
}
