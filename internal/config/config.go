package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Logging   LoggingConfig   `toml:"logging"`
	Database  DatabaseConfig  `toml:"database"`
	Inventory InventoryConfig `toml:"inventory"`
	Data      DataConfig      `toml:"data"`
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"ADVINV_LOG_LEVEL"`
	Format string `toml:"format" env:"ADVINV_LOG_FORMAT"` // "json" or "console"
}

// DatabaseConfig points at the PostgreSQL settings store. An empty DSN keeps
// pane settings in memory.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn" env:"ADVINV_DB_DSN"`
	MaxOpenConns    int           `toml:"max_open_conns" env:"ADVINV_DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `toml:"max_idle_conns" env:"ADVINV_DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" env:"ADVINV_DB_CONN_MAX_LIFETIME"`
}

// InventoryConfig sizes the storage areas. Volumes are milliliters; 0 item
// limits mean unlimited.
type InventoryConfig struct {
	TileMaxVolume   int    `toml:"tile_max_volume" env:"ADVINV_TILE_MAX_VOLUME"`
	TileMaxItems    int    `toml:"tile_max_items" env:"ADVINV_TILE_MAX_ITEMS"`
	CarryVolume     int    `toml:"carry_volume" env:"ADVINV_CARRY_VOLUME"`
	WornMaxItems    int    `toml:"worn_max_items" env:"ADVINV_WORN_MAX_ITEMS"`
	PageSize        int    `toml:"page_size" env:"ADVINV_PAGE_SIZE"`
	FilterCacheSize int    `toml:"filter_cache_size" env:"ADVINV_FILTER_CACHE_SIZE"`
	Profile         string `toml:"profile" env:"ADVINV_PROFILE"`
}

type DataConfig struct {
	Catalog  string `toml:"catalog" env:"ADVINV_CATALOG"`
	Scripts  string `toml:"scripts" env:"ADVINV_SCRIPTS"`
	Scenario string `toml:"scenario" env:"ADVINV_SCENARIO"`
}

// Load reads path over the defaults, then applies ADVINV_* environment
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	inv := c.Inventory
	switch {
	case inv.TileMaxVolume < 0 || inv.CarryVolume < 0:
		return errors.New("inventory volumes must not be negative")
	case inv.TileMaxItems < 0 || inv.WornMaxItems < 0:
		return errors.New("inventory item limits must not be negative")
	case inv.PageSize < 1:
		return errors.New("inventory.page_size must be at least 1")
	case inv.FilterCacheSize < 1:
		return errors.New("inventory.filter_cache_size must be at least 1")
	case inv.Profile == "":
		return errors.New("inventory.profile is empty")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q: want json or console", c.Logging.Format)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Inventory: InventoryConfig{
			TileMaxVolume:   1000000,
			TileMaxItems:    4096,
			CarryVolume:     15000,
			WornMaxItems:    32,
			PageSize:        20,
			FilterCacheSize: 64,
			Profile:         "default",
		},
		Data: DataConfig{
			Catalog:  "data/items.yaml",
			Scripts:  "scripts",
			Scenario: "scenarios/demo.yaml",
		},
	}
}
