package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/FocuswithJustin/JuniperSongs/internal/api"
)

// ServeCmd runs the HTTP API until interrupted.
type ServeCmd struct {
	Port int `short:"p" help:"Listen port (overrides config)"`
}

func (c *ServeCmd) Run(env *Env) error {
	cfg, err := env.config()
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	server := api.New(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CacheTTL:       cfg.CacheTTL(),
		WriteRateLimit: cfg.Server.WriteRateLimit,
		APIKey:         cfg.Server.APIKey,
		Version:        version,
	}, store)
	return server.Run(ctx)
}
