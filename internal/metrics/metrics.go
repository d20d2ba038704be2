package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pool metrics
	PoolCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lst_router_pool_count",
			Help: "Number of pool snapshots installed in the registry",
		},
		[]string{"type"},
	)

	PoolUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lst_router_pool_updates_total",
		Help: "Total number of pool snapshot installs",
	})

	CurrentEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lst_router_current_epoch",
		Help: "Epoch the pool snapshots are evaluated against",
	})

	// Route search metrics
	RouteSearchCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lst_router_route_search_candidates",
			Help:    "Number of withdrawal candidates scanned per route search",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"kind"},
	)

	RouteSearchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lst_router_route_search_results_total",
			Help: "Route search outcomes",
		},
		[]string{"kind", "result"},
	)

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lst_router_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"route", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lst_router_quote_duration_seconds",
			Help:    "Quote calculation duration in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
		[]string{"route"},
	)

	SwapAccountsRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lst_router_swap_accounts_requests_total",
			Help: "Total number of swap account list builds",
		},
		[]string{"route", "status"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lst_router_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lst_router_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
