package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/ratelimiter"
)

// RateLimit throttles per authenticated user, or per client IP when the
// request carries no user. It must run after RequireAuth.
func RateLimit(rl *ratelimiter.RateLimiter, namespace string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if user, ok := UserFromContext(r.Context()); ok {
				key = "user:" + user.ID
			}

			allowed, wait := rl.Allow(namespace, key)
			if !allowed {
				seconds := int(math.Ceil(wait.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				log.WithFields(map[string]interface{}{
					"namespace":   namespace,
					"key":         key,
					"retry_after": seconds,
				}).Warn("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please wait a moment.", "rate_limited", true, "retry")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

// writeError writes the same error envelope as the handlers.
func writeError(w http.ResponseWriter, status int, message, kind string, retryable bool, recovery string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":     message,
		"kind":      kind,
		"retryable": retryable,
		"recovery":  recovery,
	})
}
