// FILE: internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the server's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tictactoe",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tictactoe",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tictactoe",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route"},
	)

	moves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tictactoe",
			Subsystem: "game",
			Name:      "moves_total",
			Help:      "Move submissions by outcome code.",
		},
		[]string{"result"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tictactoe",
			Subsystem: "game",
			Name:      "transitions_total",
			Help:      "Game lifecycle transitions by target status and cause.",
		},
		[]string{"status", "cause"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tictactoe",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Game state cache lookups.",
		},
		[]string{"result"},
	)

	waiters = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tictactoe",
			Subsystem: "longpoll",
			Name:      "waiters",
			Help:      "Clients currently blocked on a game change.",
		},
	)

	purged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tictactoe",
			Subsystem: "storage",
			Name:      "purged_games_total",
			Help:      "Completed games removed by the retention job.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		moves,
		transitions,
		cacheLookups,
		waiters,
		purged,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted tracks an in-flight request; call the returned func when done
func RequestStarted() func(method, route string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, route string, status int) {
		httpInFlight.Dec()
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordMove counts a move submission; result is "accepted" or an error code
func RecordMove(result string) {
	moves.WithLabelValues(result).Inc()
}

// RecordTransition counts a game entering status
func RecordTransition(status, cause string) {
	transitions.WithLabelValues(status, cause).Inc()
}

// RecordCacheLookup counts a cache hit or miss
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func WaiterAdded()   { waiters.Inc() }
func WaiterRemoved() { waiters.Dec() }

// RecordPurge counts games deleted by retention
func RecordPurge(n int64) {
	if n > 0 {
		purged.Add(float64(n))
	}
}
