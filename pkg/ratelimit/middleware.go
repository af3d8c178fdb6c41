package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
)

// Middleware rejects requests over the per-IP budget with 429. Redis errors
// fail open: a throttling outage must not take down the shop.
func Middleware(l *Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				log.Warn("rate limiter unavailable", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

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
