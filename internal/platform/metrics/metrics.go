package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evroute_requests_total",
		Help: "Total HTTP requests by path and status",
	}, []string{"path", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evroute_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"path"})
	PlansComputedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evroute_plans_computed_total",
		Help: "Total route plans returned to clients",
	})
	InfeasibleRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evroute_infeasible_requests_total",
		Help: "Total requests where no feasible route existed",
	})
	InfeasibleCandidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evroute_infeasible_candidates_total",
		Help: "Total candidate routes discarded as infeasible",
	})
	RouteCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evroute_route_cache_hits_total",
		Help: "Total base-route cache hits",
	})
	RouteCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evroute_route_cache_misses_total",
		Help: "Total base-route cache misses",
	})
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evroute_provider_requests_total",
		Help: "Total upstream provider calls by source and outcome",
	}, []string{"source", "outcome"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(PlansComputedTotal)
	prometheus.MustRegister(InfeasibleRequestsTotal)
	prometheus.MustRegister(InfeasibleCandidatesTotal)
	prometheus.MustRegister(RouteCacheHitsTotal)
	prometheus.MustRegister(RouteCacheMissesTotal)
	prometheus.MustRegister(ProviderRequestsTotal)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
