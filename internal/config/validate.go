package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/FocuswithJustin/JuniperSongs/internal/logging"
)

// MinAPIKeyLength is the shortest accepted server.api_key.
const MinAPIKeyLength = 16

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if c.Store.Path == "" {
		return errors.New("store.path must be set")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		return fmt.Errorf("logging.format: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.CacheTTLSeconds < 0 {
		return errors.New("server.cache_ttl_seconds must not be negative")
	}
	if c.Server.WriteRateLimit < 0 {
		return errors.New("server.write_rate_limit must not be negative")
	}
	if c.Server.APIKey != "" && len(c.Server.APIKey) < MinAPIKeyLength {
		return fmt.Errorf("server.api_key must be at least %d characters (got %d)", MinAPIKeyLength, len(c.Server.APIKey))
	}
	for _, origin := range c.Server.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server.allowed_origins: %q is not an http(s) origin", origin)
		}
	}
	return nil
}
