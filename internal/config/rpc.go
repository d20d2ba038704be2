package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type RPCConfig struct {
	// RPCUrl serves epoch info. Required.
	RPCUrl string
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = common.GetEnvOrDefault("RPC_URL", "")
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config: RPC_URL is required")
	}
	return nil
}
