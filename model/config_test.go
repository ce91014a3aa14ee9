package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    host: 0.0.0.0
    port: 9090
storage:
  path: /tmp/imposter.db
  hydration_timeout: 5s
game_logger:
  enable: true
  output_dir: ./log/game
`)
	config, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if config.Server.HTTP.Host != "0.0.0.0" || config.Server.HTTP.Port != 9090 {
		t.Fatalf("http = %+v", config.Server.HTTP)
	}
	if config.Storage.HydrationTimeout != 5*time.Second {
		t.Fatalf("hydration timeout = %s, want 5s", config.Storage.HydrationTimeout)
	}
	if !config.GameLogger.Enable || config.GameLogger.Filename == "" {
		t.Fatalf("game logger = %+v", config.GameLogger)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	config, err := LoadFromPath(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if config.Storage.HydrationTimeout != DefaultHydrationTimeout {
		t.Fatalf("hydration timeout = %s, want %s", config.Storage.HydrationTimeout, DefaultHydrationTimeout)
	}
	if config.Server.HTTP.Port != 8080 {
		t.Fatalf("port = %d, want 8080", config.Server.HTTP.Port)
	}
}

func TestLoadFromPathEnvOverlay(t *testing.T) {
	t.Setenv("IMPOSTER_HTTP_PORT", "7070")
	t.Setenv("SECRET_KEY", "s3cret")
	config, err := LoadFromPath(writeConfig(t, "server:\n  http:\n    port: 9090\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if config.Server.HTTP.Port != 7070 {
		t.Fatalf("port = %d, want 7070", config.Server.HTTP.Port)
	}
	if config.Server.Authentication.Secret != "s3cret" {
		t.Fatalf("secret = %q", config.Server.Authentication.Secret)
	}
}

func TestLoadFromPathEnvError(t *testing.T) {
	t.Setenv("IMPOSTER_HTTP_PORT", "not-a-port")
	_, err := LoadFromPath(writeConfig(t, "{}\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadFromPathMissing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error")
	}
}
