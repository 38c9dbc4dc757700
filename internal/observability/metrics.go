package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapadmin_http_requests_total",
		Help: "API requests by route and status code",
	}, []string{"method", "route", "status"})
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zapadmin_http_request_seconds",
		Help:    "API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	ExternalCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapadmin_external_calls_total",
		Help: "Calls to mapping and BaaS providers by outcome",
	}, []string{"provider", "op", "outcome"})
	ExternalLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zapadmin_external_call_seconds",
		Help:    "Latency of calls to external providers",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "op"})
	GeocodeCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapadmin_geocode_cache_total",
		Help: "Reverse geocode cache lookups",
	}, []string{"result"})
	QuotaRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapadmin_quota_rejected_total",
		Help: "External calls refused by the daily budget",
	}, []string{"rule"})
	OptimizationJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapadmin_optimization_jobs_total",
		Help: "Route optimisation jobs by final status",
	}, []string{"status"})
	PositionsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapadmin_positions_received_total",
		Help: "Vehicle positions received per source",
	}, []string{"source"})
	LiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zapadmin_live_clients",
		Help: "Connected live-tracking websocket clients",
	})
	RedisErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zapadmin_redis_errors_total",
		Help: "Errors reading or writing redis",
	})
)

// ObserveExternal records one provider call.
func ObserveExternal(provider, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ExternalCalls.WithLabelValues(provider, op, outcome).Inc()
	ExternalLatency.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
}

// StartMetricsServer serves /metrics and /healthz until ctx is done.
func StartMetricsServer(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
