package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Request-ID"
	corsMaxAge       = "600"
)

// CORSRejectedRecorder records cross-origin requests from an origin that is not allowed (optional).
type CORSRejectedRecorder interface {
	RecordCORSRejected(ctx context.Context)
}

// CORS answers preflight requests and sets Access-Control-* headers for allowed origins.
// An allowed origin of "*" admits every origin. Requests without an Origin header pass through untouched.
// Disallowed origins still reach the handler, without CORS headers, so the browser blocks the response.
func CORS(allowedOrigins []string, recorder CORSRejectedRecorder) func(http.Handler) http.Handler {
	allowAll := slices.Contains(allowedOrigins, "*")

	isAllowed := func(origin string) bool {
		return allowAll || slices.ContainsFunc(allowedOrigins, func(o string) bool {
			return strings.EqualFold(o, origin)
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			if !isAllowed(origin) {
				if recorder != nil {
					recorder.RecordCORSRejected(r.Context())
				}

				if preflight {
					w.WriteHeader(http.StatusNoContent)
					return
				}

				next.ServeHTTP(w, r)

				return
			}

			setAllowOrigin(w.Header(), origin, allowAll)

			if preflight {
				h := w.Header()
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setAllowOrigin(h http.Header, origin string, allowAll bool) {
	if allowAll {
		h.Set("Access-Control-Allow-Origin", "*")
	} else {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	}

	h.Set("Access-Control-Expose-Headers", requestIDHeader)
}
