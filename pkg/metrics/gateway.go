package metrics

import "github.com/prometheus/client_golang/prometheus"

// Fetch outcome labels exported by the gateway.
const (
	FetchOutcomeNetwork  = "network"
	FetchOutcomeCache    = "cache"
	FetchOutcomeOffline  = "offline_page"
	FetchOutcomeTimeout  = "timeout"
	FetchOutcomeBypassed = "bypassed"
)

// GatewayMetrics records request outcomes for the caching gateway.
type GatewayMetrics struct {
	fetches  *prometheus.CounterVec
	cacheOps *prometheus.CounterVec
}

// NewGatewayMetrics registers the gateway metrics on the provided registerer.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_fetches_total",
		Help: "Proxied fetches by outcome.",
	}, []string{"outcome"})
	cacheOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_cache_operations_total",
		Help: "Cache store operations by kind and result.",
	}, []string{"operation", "result"})
	reg.MustRegister(fetches, cacheOps)
	return &GatewayMetrics{fetches: fetches, cacheOps: cacheOps}
}

// IncFetch increments the fetch counter for the outcome label.
func (g *GatewayMetrics) IncFetch(outcome string) {
	if g == nil || g.fetches == nil {
		return
	}
	g.fetches.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCacheOp increments the cache operation counter.
func (g *GatewayMetrics) IncCacheOp(operation, result string) {
	if g == nil || g.cacheOps == nil {
		return
	}
	g.cacheOps.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
}
