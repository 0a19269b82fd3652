// Package metrics holds the Prometheus collectors shared across packages.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streetguess_upstream_requests_total",
		Help: "Calls to external map services by service and outcome",
	}, []string{"service", "outcome"})
	UpstreamDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streetguess_upstream_duration_ms",
		Help:    "External map service call duration in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2500, 5000, 10000},
	}, []string{"service"})
	GeocodeCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streetguess_geocode_cache_total",
		Help: "Reverse geocode cache lookups by result (hit, miss, error)",
	}, []string{"result"})
	SearchAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streetguess_search_attempts_total",
		Help: "Location search attempts by outcome",
	}, []string{"outcome"})
	SearchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streetguess_searches_total",
		Help: "Completed location searches by result",
	}, []string{"result"})
	SearchAttemptsPerSearch = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "streetguess_search_attempts_per_search",
		Help:    "Attempts used by successful location searches",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 30},
	})
	GamesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streetguess_games_total",
		Help: "Game lifecycle events (started, won, stopped, failed)",
	}, []string{"event"})
	GuessesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streetguess_guesses_total",
		Help: "Evaluated guesses by outcome",
	}, []string{"outcome"})
	ActiveGames = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "streetguess_active_games",
		Help: "Channels with a game in progress",
	})
)

func init() {
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamDurationMs)
	prometheus.MustRegister(GeocodeCacheTotal)
	prometheus.MustRegister(SearchAttemptsTotal)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchAttemptsPerSearch)
	prometheus.MustRegister(GamesTotal)
	prometheus.MustRegister(GuessesTotal)
	prometheus.MustRegister(ActiveGames)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
