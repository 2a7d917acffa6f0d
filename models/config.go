// Package models defines data structures for configuration, probing and
// classification results.
package models

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration. Values come from an optional YAML file
// and are then overridden by CLI flags. It is passed explicitly to the
// components that need it.
type Config struct {
	Fetch    FetchConfig    `yaml:"fetch"`
	Classify ClassifyConfig `yaml:"classify"`
	Cache    CacheConfig    `yaml:"cache"`
	Store    StoreConfig    `yaml:"store"`
}

// FetchConfig bounds every resource probe.
type FetchConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gt=0"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gt=0"`
	TotalTimeout   time.Duration `yaml:"total_timeout" validate:"gt=0,gtefield=ReadTimeout"`
	MaxRedirects   int           `yaml:"max_redirects" validate:"gte=0,lte=20"`
	SniffBytes     int64         `yaml:"sniff_bytes" validate:"gte=512"`
	UserAgent      string        `yaml:"user_agent" validate:"required"`

	// Requests per second per host; 0 disables the limiter.
	PerHostRate  float64 `yaml:"per_host_rate" validate:"gte=0"`
	PerHostBurst int     `yaml:"per_host_burst" validate:"gte=1"`

	BreakerFailures uint32        `yaml:"breaker_failures" validate:"gte=1"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" validate:"gt=0"`
}

// ClassifyConfig controls one classification run.
type ClassifyConfig struct {
	MaxConcurrentProbes int  `yaml:"max_concurrent_probes" validate:"gte=1,lte=256"`
	WorkerCount         int  `yaml:"worker_count" validate:"gte=1,lte=64"`
	MinReadableText     int  `yaml:"min_readable_text" validate:"gte=0"`
	GuessLanguages      bool `yaml:"guess_languages"`
	EarlyCancel         bool `yaml:"early_cancel"`
}

// CacheConfig configures the probe result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir" validate:"required_if=Enabled true"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
}

// StoreConfig configures the result database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Fetch: FetchConfig{
			ConnectTimeout:  5 * time.Second,
			ReadTimeout:     10 * time.Second,
			TotalTimeout:    30 * time.Second,
			MaxRedirects:    5,
			SniffBytes:      256 * 1024,
			UserAgent:       "record-tiers/1.0 (+https://github.com/dtnitsch/record-tiers)",
			PerHostRate:     4,
			PerHostBurst:    4,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Classify: ClassifyConfig{
			MaxConcurrentProbes: 8,
			WorkerCount:         4,
			MinReadableText:     500,
			EarlyCancel:         true,
		},
		Cache: CacheConfig{
			Dir: ".record-tiers/probes",
			TTL: 24 * time.Hour,
		},
		Store: StoreConfig{
			Path: "record-tiers.db",
		},
	}
}

// LoadConfig reads path over the defaults and validates the result. An empty
// path yields the validated defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
