package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/http/response"
	"github.com/trailpeak/tours-api/pkg/logger"
)

const (
	rateLimitMax    = 100
	rateLimitWindow = 30 * time.Minute
)

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit caps each client IP at rateLimitMax requests per window, counted
// in Redis so the limit holds across replicas. Redis being down never blocks
// traffic.
func RateLimit(rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("ratelimit:%s", clientIP(r))

			count, err := rdb.Incr(r.Context(), key).Result()
			if err != nil {
				logger.WarnContext(r.Context(), "rate limiter unavailable", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := rdb.Expire(r.Context(), key, rateLimitWindow).Err(); err != nil {
					logger.WarnContext(r.Context(), "failed to set rate limit expiry", "err", err)
				}
			}

			if count > rateLimitMax {
				response.Error(w, domain.ErrRateLimit("Too many requests from this IP, please try again in half an hour!"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
