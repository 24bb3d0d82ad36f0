// Package config loads server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/analysis"
)

// Parameters are the default analysis inputs served by /api/parameters and
// applied when a submission omits the optional fields.
type Parameters struct {
	Latitude     float64 `yaml:"latitude" json:"latitude"`
	Longitude    float64 `yaml:"longitude" json:"longitude"`
	StartDate    string  `yaml:"startDate" json:"startDate"`
	EndDate      string  `yaml:"endDate" json:"endDate"`
	CloudCover   float64 `yaml:"cloudCover" json:"cloudCover"`
	HotThreshold float64 `yaml:"hotThreshold" json:"hotThreshold"`
	VegThreshold float64 `yaml:"vegThreshold" json:"vegThreshold"`
	GEEProjectID string  `yaml:"geeProjectId" json:"geeProjectId"`
	Dataset      string  `yaml:"dataset" json:"dataset"`
}

// Config holds server configuration.
type Config struct {
	Port     int    `yaml:"port"`
	MapsDir  string `yaml:"mapsDir"`
	MaxZones int    `yaml:"maxZones"`

	// Timing knobs are env-only (POLL_INTERVAL_MS, SESSION_RETENTION_MINUTES).
	PollInterval     time.Duration `yaml:"-"`
	SessionRetention time.Duration `yaml:"-"`
	Defaults         Parameters    `yaml:"defaults"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:             5000,
		MapsDir:          "./maps",
		MaxZones:         5,
		PollInterval:     100 * time.Millisecond,
		SessionRetention: time.Hour,
		Defaults: Parameters{
			Latitude:     29.518321,
			Longitude:    74.993558,
			StartDate:    "2025-05-29",
			EndDate:      "2025-08-30",
			CloudCover:   analysis.DefaultCloudCover,
			HotThreshold: analysis.DefaultHotThreshold,
			VegThreshold: analysis.DefaultVegThreshold,
			GEEProjectID: "gen-lang-client-0612311886",
			Dataset:      analysis.DefaultDataset,
		},
	}
}

// Load builds the configuration: built-in defaults, then the YAML file at
// path (if non-empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("MAPS_DIR"); v != "" {
		cfg.MapsDir = v
	}
	if v := os.Getenv("MAX_ZONES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxZones = n
		}
	}
	if v := os.Getenv("POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("SESSION_RETENTION_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionRetention = time.Duration(n) * time.Minute
		}
	}
	if v := os.Getenv("GEE_PROJECT_ID"); v != "" {
		cfg.Defaults.GEEProjectID = v
	}
}
