package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "inkwell_http_request_duration_seconds",
	Help:    "HTTP request latency by method and status code.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "status"})

var unlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "inkwell_unlocks_total",
	Help: "Paid book unlocks granted.",
})

var depositsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "inkwell_deposits_total",
	Help: "Wallet deposits accepted.",
})

var readingSessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "inkwell_reading_sessions_total",
	Help: "Reading sessions recorded.",
})

var rewardClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "inkwell_reward_claims_total",
	Help: "Streak reward claims by outcome.",
}, []string{"outcome"})

// metricsMiddleware records request latency and status
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		httpRequestDuration.
			WithLabelValues(r.Method, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
