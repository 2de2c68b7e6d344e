package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"

	DefaultRepairCost = 400
)

type Config struct {
	DataDir    string     `yaml:"data_dir" validate:"required"`
	Backend    string     `yaml:"backend" validate:"oneof=sqlite badger"`
	DBPath     string     `yaml:"db_path"`
	Catalog    string     `yaml:"catalog_path"`
	Timezone   string     `yaml:"timezone"`
	RepairCost int        `yaml:"repair_cost" validate:"gte=1"`
	HTTP       HTTPConfig `yaml:"http"`
	Log        LogConfig  `yaml:"log"`
}

type HTTPConfig struct {
	Addr      string  `yaml:"addr" validate:"required"`
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `yaml:"burst" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

func New(dataDir string) (Config, error) {
	return Load("", dataDir)
}

// Load builds the configuration from defaults, an optional YAML file and
// STUDYSTREAK_* environment overrides, in that order.
func Load(path, dataDir string) (Config, error) {
	cfg := defaults(dataDir)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	applyEnv(&cfg)
	if cfg.DataDir == "" {
		return Config{}, errors.New("data dir is required")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath(cfg.DataDir, cfg.Backend)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves the zone that defines a user's calendar day.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func defaults(dataDir string) Config {
	return Config{
		DataDir:    dataDir,
		Backend:    BackendSQLite,
		RepairCost: DefaultRepairCost,
		HTTP: HTTPConfig{
			Addr:      ":8080",
			RateLimit: 20,
			Burst:     40,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func defaultDBPath(dataDir, backend string) string {
	if backend == BackendBadger {
		return filepath.Join(dataDir, ".studystreak", "badger")
	}
	return filepath.Join(dataDir, ".studystreak", "studystreak.db")
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STUDYSTREAK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("STUDYSTREAK_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("STUDYSTREAK_TZ"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("STUDYSTREAK_CATALOG"); v != "" {
		cfg.Catalog = v
	}
	if v := os.Getenv("STUDYSTREAK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
