// Package config loads server configuration from a YAML file with
// environment variable overrides. Every field has a sane default so the
// server runs with no config at all.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Feed     FeedConfig     `yaml:"feed"`
	Game     GameConfig     `yaml:"game"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	// URL is a pgx connection string. Empty disables PostgreSQL and the
	// server falls back to in-memory saves.
	URL string `yaml:"url"`
}

type RedisConfig struct {
	// URL is a redis connection string. Empty disables the save cache.
	URL string `yaml:"url"`

	// CacheTTLSeconds bounds how long cached saves live.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

type FeedConfig struct {
	// BaseURL of the market data service. Empty falls back to a static
	// built-in quote set.
	BaseURL string `yaml:"base_url"`
}

type GameConfig struct {
	StartingCash   float64 `yaml:"starting_cash"`
	MaxDailyOffers int     `yaml:"max_daily_offers"`

	// DayCron is the cron schedule for automatic day advances. Empty
	// disables the clock; days then advance only via the API.
	DayCron string `yaml:"day_cron"`
}

// Load reads configuration from path, if it exists, then applies
// environment overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		c.Feed.BaseURL = v
	}
	if v := os.Getenv("DAY_CRON"); v != "" {
		c.Game.DayCron = v
	}
	if v := os.Getenv("STARTING_CASH"); v != "" {
		if cash, err := strconv.ParseFloat(v, 64); err == nil {
			c.Game.StartingCash = cash
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Redis.CacheTTLSeconds == 0 {
		c.Redis.CacheTTLSeconds = 300
	}
	if c.Game.StartingCash == 0 {
		c.Game.StartingCash = 10000
	}
	if c.Game.MaxDailyOffers == 0 {
		c.Game.MaxDailyOffers = 3
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.Game.StartingCash < 0 {
		return fmt.Errorf("config: starting cash must not be negative")
	}
	if c.Game.MaxDailyOffers < 1 {
		return fmt.Errorf("config: max daily offers must be at least 1")
	}
	return nil
}
