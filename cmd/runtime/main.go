package main

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/lst-route-engine/internal/aggregator"
	"github.com/hxuan190/lst-route-engine/internal/aggregator/adapters/blockchain"
	"github.com/hxuan190/lst-route-engine/internal/config"
	"github.com/hxuan190/lst-route-engine/internal/http"
)

// @title LST Route Engine API
// @version 1.0
// @description Quotes and builds swaps between liquid staking tokens by withdrawing a stake account from one stake pool and depositing it into another.
// @description
// @description ## Routes
// @description - **stake**: withdraw stake from the input pool, deposit it into the output pool
// @description - **stake_prefund**: same, with the bridge stake account's rent-exempt reserve borrowed from an instant-unstake pool
// @description - **deposit_sol**: deposit wrapped SOL directly into the output pool
// @description
// @description ## Usage Tips
// @description - Amounts are base units (lamports / LST base units, 9 decimals)
// @description - Fees of both pools and the aggregator fee are included in feeAmount
// @description - Pools that have not been updated for the current epoch are not routed through
// @BasePath /
// @schemes https http
// @tag.name quote
// @tag.description Price stake-bridged LST swaps
// @tag.name swap
// @tag.description Build account lists and instruction data for a quoted swap
// @tag.name pools
// @tag.description Inspect routable pools
// @tag.name admin
// @tag.description Install pool snapshots

func main() {
	// load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("failed to load general config")
		return
	}
	setLogLevel(general.LogLevel)

	// di container config
	conf := container.NewConf(
		general,
		&config.RPCConfig{},
		&config.RouterConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&blockchain.EpochCacheService{},
		&aggregator.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	// Run doesn't call Stop(), we must do it manually
	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
