// Package server provides shared middleware for the song API server.
package server

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/FocuswithJustin/JuniperSongs/internal/logging"
)

// preflightMaxAge is how long browsers may cache a preflight answer.
const preflightMaxAge = 10 * time.Minute

// AbsPath returns the absolute form of path, or path itself when that fails.
func AbsPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// CORS answers cross-origin requests for an allowlist of origins. With an empty allowlist
// every origin is admitted as "*" and credentials are never allowed.
type CORS struct {
	origins map[string]bool
}

func NewCORS(origins []string) *CORS {
	c := &CORS{origins: make(map[string]bool, len(origins))}
	for _, o := range origins {
		c.origins[o] = true
	}
	return c
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or false when the
// origin is not on the allowlist.
func (c *CORS) allowOrigin(origin string) (string, bool) {
	if len(c.origins) == 0 {
		return "*", true
	}
	return origin, c.origins[origin]
}

// Wrap sets CORS headers on admitted requests and answers preflights itself. A rejected
// origin gets no CORS headers, so the browser withholds the response.
func (c *CORS) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		preflight := r.Method == http.MethodOptions

		allowed, ok := c.allowOrigin(origin)
		if !ok {
			if origin != "" {
				logging.SecurityEvent("cors_origin_rejected", "server", "origin", origin, "path", r.URL.Path)
			}
			if preflight {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", allowed)
		h.Set("Access-Control-Expose-Headers", "ETag, X-Request-ID")
		if allowed != "*" {
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		if !preflight {
			next.ServeHTTP(w, r)
			return
		}

		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, If-Match, X-API-Key")
		h.Set("Access-Control-Max-Age", strconv.Itoa(int(preflightMaxAge.Seconds())))
		w.WriteHeader(http.StatusNoContent)
	})
}

// SlowRequests returns middleware that warns about requests taking threshold or longer.
func SlowRequests(threshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			if elapsed := time.Since(start); elapsed >= threshold {
				logging.WarnContext(r.Context(), "slow request",
					"method", r.Method,
					"path", r.URL.Path,
					"duration_ms", elapsed.Milliseconds())
			}
		})
	}
}
