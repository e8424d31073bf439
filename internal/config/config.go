// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	cerrors "move-cost/internal/errors"
	"move-cost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// RateTablePath points at the rate table (.json, .yaml, .hcl).
	// Empty means the built-in default table.
	RateTablePath string `json:"rate_table_path" env:"MOVECOST_RATE_TABLE"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Distance contains distance collaborator configuration
	Distance DistanceConfig `json:"distance"`

	// Bulk contains batch processing configuration
	Bulk BulkConfig `json:"bulk"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" env:"MOVECOST_ADDR"`

	// ReadTimeoutSeconds bounds request reading
	ReadTimeoutSeconds int `json:"read_timeout_seconds" env:"MOVECOST_READ_TIMEOUT_SECONDS"`

	// WriteTimeoutSeconds bounds response writing, bulk uploads included
	WriteTimeoutSeconds int `json:"write_timeout_seconds" env:"MOVECOST_WRITE_TIMEOUT_SECONDS"`

	// MaxUploadMB caps bulk upload size
	MaxUploadMB int64 `json:"max_upload_mb" env:"MOVECOST_MAX_UPLOAD_MB"`

	// GinMode is passed to gin.SetMode
	GinMode string `json:"gin_mode" env:"GIN_MODE"`
}

// DistanceConfig contains distance resolution settings
type DistanceConfig struct {
	// GoogleAPIKey enables the Distance Matrix resolver when set
	GoogleAPIKey string `json:"google_api_key,omitempty" env:"GOOGLE_MAPS_API_KEY"`

	// GoogleBaseURL is the Distance Matrix endpoint
	GoogleBaseURL string `json:"google_base_url" env:"MOVECOST_GOOGLE_BASE_URL"`

	// NominatimURL is the geocoding endpoint used by the great-circle fallback
	NominatimURL string `json:"nominatim_url" env:"MOVECOST_NOMINATIM_URL"`

	// UserAgent identifies us to the geocoder
	UserAgent string `json:"user_agent" env:"MOVECOST_USER_AGENT"`

	// TimeoutSeconds bounds each outbound call
	TimeoutSeconds int `json:"timeout_seconds" env:"MOVECOST_DISTANCE_TIMEOUT_SECONDS"`

	// RedisAddr enables the distance cache when set
	RedisAddr string `json:"redis_addr,omitempty" env:"MOVECOST_REDIS_ADDR"`

	// CacheTTLSeconds is how long a resolved distance is cached
	CacheTTLSeconds int `json:"cache_ttl_seconds" env:"MOVECOST_DISTANCE_CACHE_TTL_SECONDS"`
}

// BulkConfig contains batch processing settings
type BulkConfig struct {
	// Workers is the number of rows priced concurrently
	Workers int `json:"workers" env:"MOVECOST_BULK_WORKERS"`
}

// Timeout returns the outbound call timeout
func (d DistanceConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// CacheTTL returns the distance cache TTL
func (d DistanceConfig) CacheTTL() time.Duration {
	return time.Duration(d.CacheTTLSeconds) * time.Second
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr:                ":5000",
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 120,
			MaxUploadMB:         16,
			GinMode:             "release",
		},
		Distance: DistanceConfig{
			GoogleBaseURL:   "https://maps.googleapis.com/maps/api/distancematrix/json",
			NominatimURL:    "https://nominatim.openstreetmap.org/search",
			UserAgent:       "household-goods-calculator",
			TimeoutSeconds:  10,
			CacheTTLSeconds: 7 * 24 * 3600,
		},
		Bulk: BulkConfig{
			Workers: 4,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, cerrors.Config("invalid config file "+path, err)
			}
		case !os.IsNotExist(err):
			return nil, cerrors.Config("cannot read config file "+path, err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, cerrors.Config("invalid environment configuration", err)
	}

	if config.Bulk.Workers < 1 {
		config.Bulk.Workers = 1
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
