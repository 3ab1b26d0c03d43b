package handler

import (
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimit is a fixed window counter per caller, keyed by X-User-ID or the
// client address. Redis failures let the request through.
func RateLimit(rdb redis.Cmdable, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := "rate_limit:" + clientKey(r)

			current, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				log.Printf("rate limit check failed for %s: %v", key, err)
				next.ServeHTTP(w, r)
				return
			}
			if current == 1 {
				rdb.Expire(ctx, key, window)
			}

			if current > int64(limit) {
				writeJSON(w, http.StatusTooManyRequests, Result{
					Code:    "rate_limited",
					Message: "too many requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if id := r.Header.Get(callerHeader); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
