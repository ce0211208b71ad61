package middleware

import (
	"net/http"
	"strings"
)

// CORS answers preflight requests and sets the allow headers. An empty
// allowOrigin means "*".
func CORS(allowOrigin string) func(http.Handler) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := allowOrigin
			if strings.Contains(allowOrigin, ",") {
				origin = matchOrigin(allowOrigin, r.Header.Get("Origin"))
				w.Header().Add("Vary", "Origin")
			}
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchOrigin picks the request origin out of a comma-separated allow list.
func matchOrigin(allowed, origin string) string {
	for _, o := range strings.Split(allowed, ",") {
		if strings.TrimSpace(o) == origin && origin != "" {
			return origin
		}
	}
	return ""
}
