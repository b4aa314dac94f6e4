// Package api provides the song library REST API server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/FocuswithJustin/JuniperSongs/core/song"
	"github.com/FocuswithJustin/JuniperSongs/core/sqlite"
	"github.com/FocuswithJustin/JuniperSongs/internal/cache"
	"github.com/FocuswithJustin/JuniperSongs/internal/logging"
	"github.com/FocuswithJustin/JuniperSongs/internal/server"
	"github.com/FocuswithJustin/JuniperSongs/internal/songstore"
)

const (
	songListKey          = "songs"
	shutdownTimeout      = 5 * time.Second
	rateLimitBurst       = 10
	rateLimiterIdle      = 5 * time.Minute
	maintenancePeriod    = time.Minute
	slowRequestThreshold = 250 * time.Millisecond
)

// Server serves the song library over HTTP.
type Server struct {
	cfg     Config
	store   *songstore.Store
	songs   *cache.TTLCache[string, []song.Song]
	hub     *Hub
	limiter *RateLimiter
	started time.Time
}

// New creates a server backed by store.
func New(cfg Config, store *songstore.Store) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		songs:   cache.New[string, []song.Song](cfg.CacheTTL),
		hub:     NewHub(),
		started: time.Now(),
	}
	if cfg.WriteRateLimit > 0 {
		s.limiter = NewRateLimiter(cfg.WriteRateLimit, rateLimitBurst)
	}
	return s
}

// Hub returns the websocket hub that song changes are broadcast on.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.routes()
	handler = server.SecurityHeadersWithCSP(server.APICSPConfig(), handler)
	handler = AuthMiddleware(s.cfg.APIKey, handler)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	// CORS stays outside auth so preflight requests succeed.
	handler = server.NewCORS(s.cfg.AllowedOrigins).Wrap(handler)
	handler = server.SlowRequests(slowRequestThreshold)(handler)
	return logging.CombinedMiddleware(handler)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(ctx)
	go s.maintain(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logStartup()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.Info("shutting down API server")
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		return srv.Shutdown(shutdownCtx)
	}
}

// maintain drops expired cache entries and idle rate limit buckets.
func (s *Server) maintain(ctx context.Context) {
	ticker := time.NewTicker(maintenancePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.songs.Prune()
			if s.limiter != nil {
				s.limiter.Prune(rateLimiterIdle)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) logStartup() {
	if len(s.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(s.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}
	logging.SecurityEvent("authentication_configured", "api",
		"enabled", s.cfg.APIKey != "")
	if s.limiter != nil {
		logging.Info("rate limiting enabled",
			"writes_per_minute", s.cfg.WriteRateLimit,
			"burst_size", rateLimitBurst)
	}
	logging.ServerStartup("rest_api", "http", s.cfg.Port,
		"websocket_protocol", "ws",
		"database", server.AbsPath(s.store.Path()),
		"driver", sqlite.DriverType(),
		"cache_ttl", s.cfg.CacheTTL.String())
}

// routes configures all HTTP routes.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/songs", s.handleSongs)
	mux.HandleFunc("/songs/{id}", s.handleSongByID)
	mux.HandleFunc("/songs/{id}/draft", s.handleSongDraft)
	mux.HandleFunc("/songs/{id}/sequence", s.handleSongSequence)
	mux.HandleFunc("/verses/parse", handleParseVerses)
	mux.HandleFunc("/verses/render", handleRenderVerses)
	mux.HandleFunc("/verses/dedupe", handleDedupeVerses)
	mux.HandleFunc("/order/expand", handleExpandOrder)
	mux.HandleFunc("/order/contract", handleContractOrder)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}
