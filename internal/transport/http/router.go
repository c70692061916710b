// Package httptransport assembles the public HTTP surface: the subscription
// endpoints, health probes, and the Prometheus scrape endpoint.
package httptransport

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"missive/internal/platform/idempotency"
	"missive/internal/platform/metrics"
	"missive/internal/platform/middleware"
	platformredis "missive/internal/platform/redis"
	"missive/internal/subscription/handler"
	"missive/internal/transport/http/shared"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router needs. Redis is optional; when nil the
// idempotency guard is disabled and readiness skips the redis check.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Subscriptions  *handler.Handler
	DB             *sql.DB
	Redis          *platformredis.Client
	IdempotencyTTL time.Duration
}

// NewRouter wires the middleware chain and all public endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(latency(deps.Metrics))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(deps.DB, deps.Redis))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(idempotency.Middleware(deps.Redis, deps.IdempotencyTTL, deps.Logger))
		deps.Subscriptions.Register(r)
	})

	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports whether the process can serve traffic: the database
// must answer a ping, and redis must answer when configured.
func handleReadyz(db *sql.DB, redis *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"check":  "postgres",
			})
			return
		}
		if redis != nil {
			if err := redis.Health(ctx); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"check":  "redis",
				})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			m.ObserveRequest(route, strconv.Itoa(sw.status), time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
