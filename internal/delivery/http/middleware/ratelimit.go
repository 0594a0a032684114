package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Pesokrava/furniture_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	"github.com/Pesokrava/furniture_catalog/internal/repository/cache"
)

// RateLimiter counts hits per key
type RateLimiter interface {
	Allow(ctx context.Context, key string) (cache.RateDecision, error)
}

// RateLimit rejects clients that exceed the limiter with 429.
// Limiter errors are logged and the request is let through.
func RateLimit(limiter RateLimiter, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := limiter.Allow(r.Context(), rateKey(r))
			if err != nil {
				log.Warnf("Rate limiter unavailable: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(decision.ResetIn.Seconds())))

			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(max(int(decision.ResetIn.Seconds()), 1)))
				response.Error(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateKey is client ip, method and route pattern, so path ids share one bucket
func rateKey(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	pattern := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.Routes != nil {
		tctx := chi.NewRouteContext()
		if rctx.Routes.Match(tctx, r.Method, r.URL.Path) {
			pattern = tctx.RoutePattern()
		}
	}

	return ip + ":" + r.Method + ":" + pattern
}
