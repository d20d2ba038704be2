package http

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/lst-route-engine/internal/aggregator"
	"github.com/hxuan190/lst-route-engine/internal/config"
	"github.com/hxuan190/lst-route-engine/internal/http/httputil"
	"github.com/hxuan190/lst-route-engine/internal/http/middlewares"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

type HTTPService struct {
	container.BaseDIInstance

	aggregatorSvc *aggregator.Service
	rateLimiter   *middlewares.RateLimiter
	server        *gohttp.Server
	conf          *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

func (svc *HTTPService) Start() error {
	svc.server = &gohttp.Server{
		Addr:              svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler:           svc.engine(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && !errors.Is(err, gohttp.ErrServerClosed) {
		return err
	}

	return nil
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	conf, ok := c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if !ok || conf == nil {
		return errors.New("invalid server config")
	}
	svc.init(conf, c.Instance(aggregator.AGGREGATOR_SERVICE).(*aggregator.Service))
	return nil
}

func (svc *HTTPService) init(conf *config.GeneralConfig, aggregatorSvc *aggregator.Service) {
	svc.conf = conf
	svc.aggregatorSvc = aggregatorSvc
	svc.rateLimiter = middlewares.NewRateLimiter(float64(conf.RateLimitRPS), conf.RateLimitBurst)

	svc.handlers = []httputil.IHttpHandler{
		NewPoolHandler(svc.aggregatorSvc),
		NewUnstakeHandler(svc.aggregatorSvc),
		NewQuoteHandler(svc.aggregatorSvc),
		NewSwapHandler(svc.aggregatorSvc),
	}
}

func (svc *HTTPService) Stop() error {
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) engine() *gin.Engine {
	if svc.conf.Env == config.ProdEnv {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AddAllowHeaders("Authorization", middlewares.AdminKeyHeader)
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	r.Use(svc.rateLimiter.RateLimitMiddleware())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", svc.health)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION)

	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION))
	admin.Use(middlewares.AdminAuth(svc.conf.AdminAPIKey))

	svc.setupHandlers(pub, priv, admin)
	return r
}

func (svc *HTTPService) health(c *gin.Context) {
	view := svc.aggregatorSvc.Registry().View()
	stored, err := svc.aggregatorSvc.StoredStakePoolCount()
	if err != nil {
		log.Warn().Err(err).Msg("failed to count stored stake pools")
		stored = -1
	}
	status := "ok"
	if !view.EpochKnown() {
		status = "degraded"
	}
	c.JSON(gohttp.StatusOK, gin.H{
		"status":      status,
		"epoch":       view.Epoch(),
		"epochKnown":  view.EpochKnown(),
		"stakePools":  len(view.StakePools()),
		"storedPools": stored,
	})
}

func (svc *HTTPService) setupHandlers(
	rootPub *gin.RouterGroup,
	rootPriv *gin.RouterGroup,
	rootAdmin *gin.RouterGroup,
) {
	for _, h := range svc.handlers {
		pub := rootPub.Group(h.Root())
		priv := rootPriv.Group(h.Root())
		admin := rootAdmin.Group(h.Root())
		h.SetRoutes(pub, priv, admin)
	}
}
