// Package idempotency guards mutating endpoints against accidental replays,
// e.g. a double-submitted subscription form. It is best-effort: when Redis is
// down the request proceeds rather than failing.
package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"missive/internal/platform/redis"
)

const keyPrefix = "missive:idempotency:"

const (
	markerInFlight  = "0"
	markerSucceeded = "1"
)

// Middleware returns a replay guard for non-GET requests. The request digest
// covers method, path, and body; an identical request seen while the first is
// in flight or within ttl of its success gets a 409.
// A nil client disables the guard.
func Middleware(client *redis.Client, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if client == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key, err := requestDigest(r)
			if err != nil || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			redisKey := keyPrefix + key
			ctx := r.Context()

			_, err = client.Get(ctx, redisKey).Result()
			if err == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "duplicate_request"})
				return
			}
			if !errors.Is(err, goredis.Nil) {
				logger.WarnContext(ctx, "idempotency check unavailable", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			if err := client.Set(ctx, redisKey, markerInFlight, ttl).Err(); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			if sw.status >= 200 && sw.status < 300 {
				client.Set(ctx, redisKey, markerSucceeded, goredis.KeepTTL)
			} else {
				// A failed attempt should not block an immediate retry.
				client.Del(ctx, redisKey)
			}
		})
	}
}

// requestDigest hashes the parts of the request that make it "the same
// request". The body is restored for downstream handlers.
func requestDigest(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) == 0 {
		return "", nil
	}
	h := sha256.Sum256([]byte(r.Method + "|" + r.URL.String() + "|" + string(body)))
	return hex.EncodeToString(h[:]), nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
