package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Game.StartingCash != 10000 {
		t.Errorf("expected default starting cash 10000, got %v", cfg.Game.StartingCash)
	}
	if cfg.Game.MaxDailyOffers != 3 {
		t.Errorf("expected default max daily offers 3, got %d", cfg.Game.MaxDailyOffers)
	}
	if cfg.Redis.CacheTTLSeconds != 300 {
		t.Errorf("expected default cache ttl 300, got %d", cfg.Redis.CacheTTLSeconds)
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing config file should fall back to defaults: %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
game:
  starting_cash: 2500
  max_daily_offers: 5
  day_cron: "@every 30s"
feed:
  base_url: http://market:8081
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Game.StartingCash != 2500 {
		t.Errorf("expected starting cash 2500, got %v", cfg.Game.StartingCash)
	}
	if cfg.Game.MaxDailyOffers != 5 {
		t.Errorf("expected 5 daily offers, got %d", cfg.Game.MaxDailyOffers)
	}
	if cfg.Game.DayCron != "@every 30s" {
		t.Errorf("unexpected day cron: %s", cfg.Game.DayCron)
	}
	if cfg.Feed.BaseURL != "http://market:8081" {
		t.Errorf("unexpected feed base url: %s", cfg.Feed.BaseURL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600)

	t.Setenv("PORT", "7777")
	t.Setenv("STARTING_CASH", "500")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("env should override file, got port %d", cfg.Server.Port)
	}
	if cfg.Game.StartingCash != 500 {
		t.Errorf("env should set starting cash, got %v", cfg.Game.StartingCash)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "99999")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("server: ["), 0o600)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
