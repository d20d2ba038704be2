package config

import (
	"fmt"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"

	internalcommon "github.com/hxuan190/lst-route-engine/internal/common"
)

type RouterConfig struct {
	// GlobalFeeNumerator / GlobalFeeDenominator is the aggregator fee charged
	// on the output of every stake-bridged swap.
	// Default: 1/1000
	GlobalFeeNumerator   uint64
	GlobalFeeDenominator uint64

	// DBPath is the path to the BoltDB file holding pool snapshots.
	// Default: "./data/lst-route-engine.db"
	DBPath string

	// EpochRefreshInterval is how often the cluster epoch is polled.
	// Default: 30s
	EpochRefreshInterval time.Duration

	// ProgramID is the router program swaps are built against.
	ProgramID solana.PublicKey
}

func (c *RouterConfig) Key() string {
	return ROUTER_CONFIG_KEY
}

func (c *RouterConfig) Load() error {
	num := common.GetEnvOrDefaultInt("GLOBAL_FEE_NUMERATOR", 1)
	denom := common.GetEnvOrDefaultInt("GLOBAL_FEE_DENOMINATOR", 1000)
	if num < 0 || denom < 0 {
		return fmt.Errorf("negative global fee %d/%d", num, denom)
	}
	c.GlobalFeeNumerator = uint64(num)
	c.GlobalFeeDenominator = uint64(denom)

	c.DBPath = common.GetEnvOrDefault("ROUTER_DB_PATH", "./data/lst-route-engine.db")
	c.EpochRefreshInterval = time.Duration(common.GetEnvOrDefaultInt("EPOCH_REFRESH_INTERVAL", 30)) * time.Second

	programID, err := solana.PublicKeyFromBase58(
		common.GetEnvOrDefault("STAKEDEX_PROGRAM_ID", internalcommon.StakedexProgramID.String()),
	)
	if err != nil {
		return fmt.Errorf("invalid STAKEDEX_PROGRAM_ID: %w", err)
	}
	c.ProgramID = programID

	return c.Validate()
}

func (c *RouterConfig) Validate() error {
	if c.GlobalFeeDenominator == 0 || c.GlobalFeeNumerator > c.GlobalFeeDenominator {
		return fmt.Errorf("invalid global fee %d/%d", c.GlobalFeeNumerator, c.GlobalFeeDenominator)
	}
	if c.EpochRefreshInterval <= 0 {
		return fmt.Errorf("invalid epoch refresh interval %s", c.EpochRefreshInterval)
	}
	return nil
}
