package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Address != "ws://localhost:8000/rpc" {
		t.Errorf("default storage address = %s", cfg.Storage.Address)
	}
	if cfg.IsProduction() {
		t.Error("default config must not be production")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foliotrack.toml")
	content := `
environment = "production"

[server]
port = 9090

[storage]
namespace = "custom"

[clients.eodhd]
api_key = "file-key"
timeout = "10s"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.IsProduction() {
		t.Error("environment not loaded from file")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Namespace != "custom" {
		t.Errorf("namespace = %s, want custom", cfg.Storage.Namespace)
	}
	// Untouched values keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %s, want default", cfg.Server.Host)
	}
	if cfg.Clients.EODHD.GetTimeout() != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.Clients.EODHD.GetTimeout())
	}
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/foliotrack.toml")
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FOLIO_PORT", "7070")
	t.Setenv("FOLIO_STORAGE_ADDRESS", "ws://db:8000/rpc")
	t.Setenv("EODHD_API_KEY", "env-key")
	t.Setenv("FOLIO_AUTH_JWT_SECRET", "env-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Storage.Address != "ws://db:8000/rpc" {
		t.Errorf("storage address = %s, want env override", cfg.Storage.Address)
	}
	if cfg.Clients.EODHD.APIKey != "env-key" {
		t.Errorf("api key = %s, want env override", cfg.Clients.EODHD.APIKey)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("jwt secret = %s, want env override", cfg.Auth.JWTSecret)
	}
}

func TestAuthConfig_TokenExpiryFallback(t *testing.T) {
	cfg := AuthConfig{TokenExpiry: "bogus"}
	if got := cfg.GetTokenExpiry(); got != 24*time.Hour {
		t.Errorf("token expiry = %v, want 24h fallback", got)
	}
	cfg.TokenExpiry = "1h"
	if got := cfg.GetTokenExpiry(); got != time.Hour {
		t.Errorf("token expiry = %v, want 1h", got)
	}
}
