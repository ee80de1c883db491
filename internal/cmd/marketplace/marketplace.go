// Package marketplace parses marketplace server flags and launches the service.
package marketplace

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"go.uber.org/zap"

	entrypoint "github.com/joshorndorff/marketplace/internal/platform/cmd"
	"github.com/joshorndorff/marketplace/internal/platform/logging"
	server "github.com/joshorndorff/marketplace/internal/services/marketplace/app"
)

// Config holds marketplace command configuration.
type Config struct {
	Port             int    `env:"MARKETPLACE_PORT" envDefault:"8095"`
	DBPath           string `env:"MARKETPLACE_DB_PATH"`
	JournalDisabled  bool   `env:"MARKETPLACE_JOURNAL_DISABLED"`
	ReputationEngine string `env:"MARKETPLACE_REPUTATION_ENGINE" envDefault:"cumulative"`
	TokenKey         string `env:"MARKETPLACE_TOKEN_KEY"`
	MetricsAddr      string `env:"MARKETPLACE_METRICS_ADDR"`
	LogLevel         string `env:"MARKETPLACE_LOG_LEVEL" envDefault:"info"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The marketplace gRPC server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite journal")
	fs.BoolVar(&cfg.JournalDisabled, "in-memory", cfg.JournalDisabled, "Keep all state in memory")
	fs.StringVar(&cfg.ReputationEngine, "engine", cfg.ReputationEngine, "Reputation engine: cumulative or beta")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Address for the Prometheus endpoint (disabled when empty)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.TokenKey == "" {
		return Config{}, errors.New("MARKETPLACE_TOKEN_KEY is required")
	}
	return cfg, nil
}

// Run starts the marketplace gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(entrypoint.ServiceMarketplace, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceMarketplace, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		err := server.Run(ctx, server.Config{
			Addr:             fmt.Sprintf(":%d", cfg.Port),
			DBPath:           cfg.DBPath,
			JournalDisabled:  cfg.JournalDisabled,
			ReputationEngine: cfg.ReputationEngine,
			TokenKey:         cfg.TokenKey,
			MetricsAddr:      cfg.MetricsAddr,
			Logger:           logger,
		})
		if err != nil {
			logger.Error("marketplace stopped", zap.Error(err))
		}
		return err
	})
}
