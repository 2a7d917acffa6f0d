package common

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/record-tiers/models"
)

// NewLogger builds the JSON stderr logger of a CLI action. --quiet keeps
// errors only.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	} else if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// LoadConfig reads --config and lets explicitly set flags override it.
func LoadConfig(c *cli.Context) (models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return models.Config{}, err
	}

	if c.IsSet("workers") {
		cfg.Classify.WorkerCount = c.Int("workers")
	}
	if c.IsSet("probes") {
		cfg.Classify.MaxConcurrentProbes = c.Int("probes")
	}
	if c.IsSet("no-early-cancel") {
		cfg.Classify.EarlyCancel = !c.Bool("no-early-cancel")
	}
	if c.IsSet("guess-languages") {
		cfg.Classify.GuessLanguages = c.Bool("guess-languages")
	}
	if c.IsSet("connect-timeout") {
		cfg.Fetch.ConnectTimeout = c.Duration("connect-timeout")
	}
	if c.IsSet("read-timeout") {
		cfg.Fetch.ReadTimeout = c.Duration("read-timeout")
	}
	if c.IsSet("total-timeout") {
		cfg.Fetch.TotalTimeout = c.Duration("total-timeout")
	}
	if c.IsSet("rate") {
		cfg.Fetch.PerHostRate = c.Float64("rate")
	}
	if c.IsSet("cache") {
		cfg.Cache.Enabled = c.Bool("cache")
	}
	if c.IsSet("cache-dir") {
		cfg.Cache.Dir = c.String("cache-dir")
	}
	if c.IsSet("cache-ttl") {
		cfg.Cache.TTL = c.Duration("cache-ttl")
	}
	if c.IsSet("db") {
		cfg.Store.Path = c.String("db")
	}

	if err := cfg.Validate(); err != nil {
		return models.Config{}, err
	}
	return cfg, nil
}
