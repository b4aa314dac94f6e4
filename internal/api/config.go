package api

import "time"

// Config holds server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string      // CORS and websocket origins (empty = allow all)
	CacheTTL       time.Duration // Song list cache lifetime (0 = disabled)
	WriteRateLimit int           // Song changes per client per minute (0 = disabled)
	APIKey         string        // Required in X-API-Key for song changes when set
	Version        string
}
