package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pelletier/go-toml/v2"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, resolved, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "songtext", "config.toml"); resolved != want {
		t.Errorf("expected resolved path %q, got %q", want, resolved)
	}
	if want := filepath.Join(home, ".local", "share", "songtext", "songs.db"); cfg.Store.Path != want {
		t.Errorf("expected store path %q, got %q", want, cfg.Store.Path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.CacheTTL() != 30*time.Second {
		t.Errorf("expected 30s cache ttl, got %v", cfg.CacheTTL())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090
allowed_origins = [" https://worship.example.org/ ", ""]
cache_ttl_seconds = 0
write_rate_limit = 5

[store]
path = ":memory:"

[logging]
level = "DEBUG"
format = "json"
`)

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Errorf("expected existing file %q, got %q (exists=%v)", path, resolved, exists)
	}

	want := Config{
		Server: Server{
			Port:            9090,
			AllowedOrigins:  []string{"https://worship.example.org"},
			CacheTTLSeconds: 0,
			WriteRateLimit:  5,
		},
		Store:   Store{Path: MemoryStorePath},
		Logging: Logging{Level: "debug", Format: "json"},
	}
	if diff := cmp.Diff(want, *cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, "[server]\nport = 3000\n")

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default level info, got %q", cfg.Logging.Level)
	}
	if !filepath.IsAbs(cfg.Store.Path) {
		t.Errorf("expected expanded store path, got %q", cfg.Store.Path)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed", "[server\nport = 1", "parse config"},
		{"unknown key", "[server]\nprot = 1", "parse config"},
		{"bad port", "[server]\nport = 70000", "server.port"},
		{"negative ttl", "[server]\ncache_ttl_seconds = -1", "cache_ttl_seconds"},
		{"short api key", "[server]\napi_key = \"secret\"", "api_key"},
		{"negative rate limit", "[server]\nwrite_rate_limit = -1", "write_rate_limit"},
		{"bad origin", "[server]\nallowed_origins = [\"worship.example.org\"]", "allowed_origins"},
		{"bad level", "[logging]\nlevel = \"loud\"", "logging.level"},
		{"bad format", "[logging]\nformat = \"xml\"", "logging.format"},
		{"empty store", "[store]\npath = \" \"", "store.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var cfg Config
	if err := toml.Unmarshal([]byte(sampleConfig), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("sample config drifted from defaults (-want +got):\n%s", diff)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Error("expected sample file to exist")
	}
	if cfg.Server.Port != Default().Server.Port {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/songs.db")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if want := filepath.Join(home, "songs.db"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got, _ := ExpandPath(""); got != "" {
		t.Errorf("expected empty path unchanged, got %q", got)
	}
}
