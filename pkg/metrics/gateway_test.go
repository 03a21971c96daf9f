package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestGatewayMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewGatewayMetrics(reg)

	metrics.IncFetch(FetchOutcomeNetwork)
	metrics.IncFetch(FetchOutcomeNetwork)
	metrics.IncFetch(FetchOutcomeCache)
	metrics.IncCacheOp("put", "ok")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "gateway_fetches_total", "outcome", FetchOutcomeNetwork); err != nil {
		t.Fatalf("fetch network counter: %v", err)
	} else if got != 2 {
		t.Fatalf("expected network=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "gateway_fetches_total", "outcome", FetchOutcomeCache); err != nil {
		t.Fatalf("fetch cache counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected cache=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "gateway_cache_operations_total", "operation", "put"); err != nil {
		t.Fatalf("fetch cache op counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected put=1, got %f", got)
	}
}

func TestGatewayMetricsNilSafe(t *testing.T) {
	var metrics *GatewayMetrics
	metrics.IncFetch(FetchOutcomeTimeout)
	metrics.IncCacheOp("get", "miss")

	empty := NewGatewayMetrics(nil)
	empty.IncFetch(FetchOutcomeOffline)
}
