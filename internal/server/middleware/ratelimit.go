package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/makeplus/makeplus-api/internal/apierr"
	"github.com/makeplus/makeplus-api/internal/ratelimit"
)

// RateLimit returns an HTTP middleware allowing max requests per client IP
// per rolling window under scope. Handlers can give the hit back with
// ratelimit.RefundFromContext. Limiter failures let the request through.
func RateLimit(l ratelimit.Limiter, scope string, window time.Duration, max int, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + ClientIP(r)
			d, err := l.CheckAndIncrement(key, window, max)
			if err != nil {
				logger.WarnContext(r.Context(), "rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				logger.WarnContext(r.Context(), "rate limit exceeded", "scope", scope, "ip", ClientIP(r))
				apierr.Write(w, r, nil, apierr.RateLimited(d.RetryAfterSeconds()))
				return
			}

			ctx := ratelimit.WithRefund(r.Context(), func() {
				if err := l.Refund(key, window); err != nil {
					logger.WarnContext(r.Context(), "rate limit refund failed", "scope", scope, "error", err)
				}
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminRateLimit limits authenticated admin traffic per client IP with
// httprate's own middleware, answering with the JSON envelope.
func AdminRateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(max, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
			if err != nil || retry <= 0 {
				retry = int(math.Ceil(window.Seconds()))
			}
			apierr.Write(w, r, nil, apierr.RateLimited(retry))
		}),
	)
}

// ClientIP is the request's remote IP without the port. Mount
// chi's middleware.RealIP first when running behind a proxy.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
