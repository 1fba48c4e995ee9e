package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method", "status_code"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status_code"},
	)
)

var (
	CartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Total number of cart line mutations by operation",
		},
		[]string{"operation"},
	)

	CartClampHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_clamp_hits_total",
			Help: "Times a requested quantity was clamped to available stock",
		},
	)

	CartReconciliationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_reconciliations_total",
			Help: "Local quantities overwritten by an authoritative server response",
		},
	)

	CartStaleReconciliationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_stale_reconciliations_total",
			Help: "Server responses discarded for arriving after a newer mutation was applied",
		},
	)

	CartMergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_merges_total",
			Help: "Guest-to-server cart merges at login",
		},
		[]string{"result"},
	)

	ServerCartFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_cart_fetches_total",
			Help: "Full server cart fetches after login",
		},
		[]string{"result"},
	)

	CartDriftTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_drift_total",
			Help: "Cart lines marked drifted after a failed remote mutation",
		},
	)

	CartDriftRepairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_drift_repairs_total",
			Help: "Drifted cart lines repaired by background reconciliation",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_active_sessions",
			Help: "Live cart sessions in the registry",
		},
	)
)

var (
	RedisCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Duration of Redis commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	CatalogCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_requests_total",
			Help: "Catalog snapshot cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of upstream gateway requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"gateway", "operation"},
	)
)
