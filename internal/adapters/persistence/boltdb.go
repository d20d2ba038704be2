package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/lst-route-engine/internal/adapters/stakepool"
	"github.com/hxuan190/lst-route-engine/internal/adapters/unstake"
)

const (
	StakePoolsBucket   = "stake_pools"
	UnstakePoolsBucket = "unstake_pools"

	DefaultDBPath = "./data/lst-route-engine.db"
)

type StoredFee struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

type StoredValidator struct {
	VoteAccount            string `json:"voteAccount"`
	ActiveStakeLamports    uint64 `json:"activeStakeLamports"`
	TransientStakeLamports uint64 `json:"transientStakeLamports"`
	Status                 uint8  `json:"status"`
}

type StoredStakePool struct {
	Label             string `json:"label"`
	Address           string `json:"address"`
	ProgramID         string `json:"programId"`
	PoolMint          string `json:"poolMint"`
	ValidatorList     string `json:"validatorList"`
	ReserveStake      string `json:"reserveStake"`
	ManagerFeeAccount string `json:"managerFeeAccount"`

	TotalLamports   uint64 `json:"totalLamports"`
	PoolTokenSupply uint64 `json:"poolTokenSupply"`
	LastUpdateEpoch uint64 `json:"lastUpdateEpoch"`

	StakeWithdrawalFee StoredFee `json:"stakeWithdrawalFee"`
	StakeDepositFee    StoredFee `json:"stakeDepositFee"`
	SolDepositFee      StoredFee `json:"solDepositFee"`

	PreferredDepositValidator  string `json:"preferredDepositValidator,omitempty"`
	PreferredWithdrawValidator string `json:"preferredWithdrawValidator,omitempty"`

	Validators []StoredValidator `json:"validators"`

	// Removed marks a deleted pool. The record stays until the next save.
	Removed bool `json:"removed,omitempty"`
}

type StoredUnstakePool struct {
	Label               string    `json:"label"`
	Address             string    `json:"address"`
	ProgramID           string    `json:"programId"`
	FeeAccount          string    `json:"feeAccount"`
	PoolSolReserves     string    `json:"poolSolReserves"`
	ProtocolFeeDest     string    `json:"protocolFeeDest"`
	SolReservesLamports uint64    `json:"solReservesLamports"`
	Fee                 StoredFee `json:"fee"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[poolStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SaveStakePool(snap stakepool.Snapshot) error {
	data, err := sonic.Marshal(stakePoolToStored(snap))
	if err != nil {
		return fmt.Errorf("failed to marshal stake pool: %w", err)
	}
	return s.db.Set(StakePoolsBucket, []byte(snap.Address.String()), data)
}

func (s *Storage) SaveStakePoolBatch(snaps []stakepool.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, snap := range snaps {
		data, err := sonic.Marshal(stakePoolToStored(snap))
		if err != nil {
			return fmt.Errorf("failed to marshal stake pool %s: %w", snap.Address, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(StakePoolsBucket),
			Key:    []byte(snap.Address.String()),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add stake pool %s to batch: %w", snap.Address, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(snaps)).Msg("[poolStorage] FAILED to execute batch")
		return err
	}

	log.Info().Int("count", len(snaps)).Msg("[poolStorage] saved stake pool batch")
	return nil
}

// DeleteStakePool replaces the record at address with a removal marker so the
// pool is not reloaded on restart.
func (s *Storage) DeleteStakePool(address solana.PublicKey) error {
	data, err := sonic.Marshal(&StoredStakePool{Address: address.String(), Removed: true})
	if err != nil {
		return fmt.Errorf("failed to marshal removal marker: %w", err)
	}
	if err := s.db.Set(StakePoolsBucket, []byte(address.String()), data); err != nil {
		return err
	}
	log.Info().Str("address", address.String()).Msg("[poolStorage] removed stake pool")
	return nil
}

func (s *Storage) LoadAllStakePools() ([]stakepool.Snapshot, error) {
	data, err := s.db.List(StakePoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list stake pools: %w", err)
	}

	snaps := make([]stakepool.Snapshot, 0, len(data))
	unmarshalFailed := 0
	conversionFailed := 0
	removed := 0

	for address, value := range data {
		var stored StoredStakePool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("address", address).Err(err).Msg("[poolStorage] failed to unmarshal stake pool, skipping")
			unmarshalFailed++
			continue
		}
		if stored.Removed {
			removed++
			continue
		}

		snap, err := storedToStakePool(&stored)
		if err != nil {
			log.Error().Str("address", address).Err(err).Msg("[poolStorage] failed to convert stored stake pool, skipping")
			conversionFailed++
			continue
		}

		snaps = append(snaps, snap)
	}

	if unmarshalFailed > 0 || conversionFailed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(snaps)).
			Int("removed", removed).
			Int("unmarshal_failed", unmarshalFailed).
			Int("conversion_failed", conversionFailed).
			Msg("[poolStorage] stake pool loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(snaps)).
			Int("removed", removed).
			Msg("[poolStorage] stake pool loading completed successfully")
	}

	return snaps, nil
}

func (s *Storage) SaveUnstakePool(snap unstake.Snapshot) error {
	data, err := sonic.Marshal(unstakePoolToStored(snap))
	if err != nil {
		return fmt.Errorf("failed to marshal unstake pool: %w", err)
	}
	return s.db.Set(UnstakePoolsBucket, []byte(snap.Address.String()), data)
}

// LoadUnstakePool returns the stored unstake pool, if any. Only one is used
// for prefunding; extras are ignored with a warning.
func (s *Storage) LoadUnstakePool() (*unstake.Snapshot, error) {
	data, err := s.db.List(UnstakePoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list unstake pools: %w", err)
	}
	if len(data) > 1 {
		log.Warn().Int("count", len(data)).Msg("[poolStorage] multiple unstake pools stored, using the first valid one")
	}

	for address, value := range data {
		var stored StoredUnstakePool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Warn().Str("address", address).Err(err).Msg("[poolStorage] failed to unmarshal unstake pool, skipping")
			continue
		}
		snap, err := storedToUnstakePool(&stored)
		if err != nil {
			log.Warn().Str("address", address).Err(err).Msg("[poolStorage] invalid unstake pool, skipping")
			continue
		}
		return &snap, nil
	}
	return nil, nil
}

// GetStakePoolCount counts stored stake pools that are not marked removed.
func (s *Storage) GetStakePoolCount() (int, error) {
	data, err := s.db.List(StakePoolsBucket)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, value := range data {
		var marker struct {
			Removed bool `json:"removed"`
		}
		if err := sonic.Unmarshal(value, &marker); err != nil || marker.Removed {
			continue
		}
		count++
	}
	return count, nil
}

func stakePoolToStored(snap stakepool.Snapshot) *StoredStakePool {
	stored := &StoredStakePool{
		Label:              snap.Label,
		Address:            snap.Address.String(),
		ProgramID:          snap.ProgramID.String(),
		PoolMint:           snap.PoolMint.String(),
		ValidatorList:      snap.ValidatorList.String(),
		ReserveStake:       snap.ReserveStake.String(),
		ManagerFeeAccount:  snap.ManagerFeeAccount.String(),
		TotalLamports:      snap.TotalLamports,
		PoolTokenSupply:    snap.PoolTokenSupply,
		LastUpdateEpoch:    snap.LastUpdateEpoch,
		StakeWithdrawalFee: StoredFee(snap.StakeWithdrawalFee),
		StakeDepositFee:    StoredFee(snap.StakeDepositFee),
		SolDepositFee:      StoredFee(snap.SolDepositFee),
		Validators:         make([]StoredValidator, 0, len(snap.Validators)),
	}
	if snap.PreferredDepositValidator != nil {
		stored.PreferredDepositValidator = snap.PreferredDepositValidator.String()
	}
	if snap.PreferredWithdrawValidator != nil {
		stored.PreferredWithdrawValidator = snap.PreferredWithdrawValidator.String()
	}
	for _, v := range snap.Validators {
		stored.Validators = append(stored.Validators, StoredValidator{
			VoteAccount:            v.VoteAccount.String(),
			ActiveStakeLamports:    v.ActiveStakeLamports,
			TransientStakeLamports: v.TransientStakeLamports,
			Status:                 uint8(v.Status),
		})
	}
	return stored
}

func storedToStakePool(stored *StoredStakePool) (stakepool.Snapshot, error) {
	var (
		snap stakepool.Snapshot
		err  error
	)
	keys := []struct {
		name string
		src  string
		dst  *solana.PublicKey
	}{
		{"address", stored.Address, &snap.Address},
		{"programId", stored.ProgramID, &snap.ProgramID},
		{"poolMint", stored.PoolMint, &snap.PoolMint},
		{"validatorList", stored.ValidatorList, &snap.ValidatorList},
		{"reserveStake", stored.ReserveStake, &snap.ReserveStake},
		{"managerFeeAccount", stored.ManagerFeeAccount, &snap.ManagerFeeAccount},
	}
	for _, k := range keys {
		if *k.dst, err = solana.PublicKeyFromBase58(k.src); err != nil {
			return stakepool.Snapshot{}, fmt.Errorf("invalid %s %q: %w", k.name, k.src, err)
		}
	}

	snap.Label = stored.Label
	snap.TotalLamports = stored.TotalLamports
	snap.PoolTokenSupply = stored.PoolTokenSupply
	snap.LastUpdateEpoch = stored.LastUpdateEpoch
	snap.StakeWithdrawalFee = stakepool.Fee(stored.StakeWithdrawalFee)
	snap.StakeDepositFee = stakepool.Fee(stored.StakeDepositFee)
	snap.SolDepositFee = stakepool.Fee(stored.SolDepositFee)

	if snap.PreferredDepositValidator, err = optionalKey(stored.PreferredDepositValidator); err != nil {
		return stakepool.Snapshot{}, fmt.Errorf("invalid preferredDepositValidator: %w", err)
	}
	if snap.PreferredWithdrawValidator, err = optionalKey(stored.PreferredWithdrawValidator); err != nil {
		return stakepool.Snapshot{}, fmt.Errorf("invalid preferredWithdrawValidator: %w", err)
	}

	snap.Validators = make([]stakepool.ValidatorStakeInfo, 0, len(stored.Validators))
	for _, v := range stored.Validators {
		vote, err := solana.PublicKeyFromBase58(v.VoteAccount)
		if err != nil {
			return stakepool.Snapshot{}, fmt.Errorf("invalid validator %q: %w", v.VoteAccount, err)
		}
		snap.Validators = append(snap.Validators, stakepool.ValidatorStakeInfo{
			VoteAccount:            vote,
			ActiveStakeLamports:    v.ActiveStakeLamports,
			TransientStakeLamports: v.TransientStakeLamports,
			Status:                 stakepool.ValidatorStatus(v.Status),
		})
	}

	return snap, nil
}

func unstakePoolToStored(snap unstake.Snapshot) *StoredUnstakePool {
	return &StoredUnstakePool{
		Label:               snap.Label,
		Address:             snap.Address.String(),
		ProgramID:           snap.ProgramID.String(),
		FeeAccount:          snap.FeeAccount.String(),
		PoolSolReserves:     snap.PoolSolReserves.String(),
		ProtocolFeeDest:     snap.ProtocolFeeDest.String(),
		SolReservesLamports: snap.SolReservesLamports,
		Fee:                 StoredFee(snap.Fee),
	}
}

func storedToUnstakePool(stored *StoredUnstakePool) (unstake.Snapshot, error) {
	var (
		snap unstake.Snapshot
		err  error
	)
	keys := []struct {
		name string
		src  string
		dst  *solana.PublicKey
	}{
		{"address", stored.Address, &snap.Address},
		{"programId", stored.ProgramID, &snap.ProgramID},
		{"feeAccount", stored.FeeAccount, &snap.FeeAccount},
		{"poolSolReserves", stored.PoolSolReserves, &snap.PoolSolReserves},
		{"protocolFeeDest", stored.ProtocolFeeDest, &snap.ProtocolFeeDest},
	}
	for _, k := range keys {
		if *k.dst, err = solana.PublicKeyFromBase58(k.src); err != nil {
			return unstake.Snapshot{}, fmt.Errorf("invalid %s %q: %w", k.name, k.src, err)
		}
	}

	snap.Label = stored.Label
	snap.SolReservesLamports = stored.SolReservesLamports
	snap.Fee = unstake.Fee(stored.Fee)
	return snap, nil
}

func optionalKey(s string) (*solana.PublicKey, error) {
	if s == "" {
		return nil, nil
	}
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
