// Package readbankfx provides an fx module for a bank-backed readbank client.
package readbankfx

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/targetasm/readbank"
	"github.com/targetasm/readbank/internal/stats"
	"github.com/targetasm/readbank/internal/stats/logger"
)

// Config holds configuration for the bank-backed readbank client.
type Config struct {
	// BankDir is the bank directory built by the preprocessing pipeline.
	BankDir string `envconfig:"READBANK_BANK_DIR" default:"./bank"`

	// CacheSize is the number of read names to cache in memory.
	// Zero uses the client default; negative disables caching.
	CacheSize int `envconfig:"READBANK_CACHE_SIZE"`
}

// ConfigFromEnv loads Config from READBANK_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config from env: %w", err)
	}
	return cfg, nil
}

// Module provides a bank-backed readbank client.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("readbank",
	fx.Provide(
		newStatsCollector,
		newClient,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("readbank.stats"))
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided client.
type Result struct {
	fx.Out

	Client *readbank.Client
}

func newClient(p Params) (Result, error) {
	opt, err := readbank.WithBank(p.Config.BankDir)
	if err != nil {
		return Result{}, err
	}

	cacheSize := p.Config.CacheSize
	switch {
	case cacheSize == 0:
		cacheSize = readbank.DefaultCacheSize
	case cacheSize < 0:
		cacheSize = 0
	}

	client, err := readbank.New(opt,
		readbank.WithCacheSize(cacheSize),
		readbank.WithStats(p.Collector),
		readbank.WithLogger(p.Logger.Named("readbank")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return Result{Client: client}, nil
}
