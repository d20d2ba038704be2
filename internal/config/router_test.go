package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalcommon "github.com/hxuan190/lst-route-engine/internal/common"
)

func TestRouterConfigDefaults(t *testing.T) {
	var c RouterConfig
	require.NoError(t, c.Load())

	assert.Equal(t, uint64(1), c.GlobalFeeNumerator)
	assert.Equal(t, uint64(1000), c.GlobalFeeDenominator)
	assert.Equal(t, 30*time.Second, c.EpochRefreshInterval)
	assert.Equal(t, internalcommon.StakedexProgramID, c.ProgramID)
	assert.Equal(t, ROUTER_CONFIG_KEY, c.Key())
}

func TestRouterConfigFromEnv(t *testing.T) {
	t.Setenv("GLOBAL_FEE_NUMERATOR", "3")
	t.Setenv("GLOBAL_FEE_DENOMINATOR", "10000")
	t.Setenv("EPOCH_REFRESH_INTERVAL", "5")
	t.Setenv("ROUTER_DB_PATH", "/tmp/router.db")

	var c RouterConfig
	require.NoError(t, c.Load())
	assert.Equal(t, uint64(3), c.GlobalFeeNumerator)
	assert.Equal(t, uint64(10000), c.GlobalFeeDenominator)
	assert.Equal(t, 5*time.Second, c.EpochRefreshInterval)
	assert.Equal(t, "/tmp/router.db", c.DBPath)
}

func TestRouterConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"fee above 100%", map[string]string{"GLOBAL_FEE_NUMERATOR": "2", "GLOBAL_FEE_DENOMINATOR": "1"}},
		{"zero denominator", map[string]string{"GLOBAL_FEE_DENOMINATOR": "0"}},
		{"zero interval", map[string]string{"EPOCH_REFRESH_INTERVAL": "0"}},
		{"bad program id", map[string]string{"STAKEDEX_PROGRAM_ID": "not-a-key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var c RouterConfig
			assert.Error(t, c.Load())
		})
	}
}
