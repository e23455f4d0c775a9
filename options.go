package readbank

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/targetasm/readbank/internal/preprocess"
	"github.com/targetasm/readbank/internal/seqstore"
	"github.com/targetasm/readbank/internal/stats"
)

// DefaultCacheSize is the default capacity of the lookup cache. Assembly
// loops query the same names across iterations, so caching is on unless
// disabled with WithCacheSize(0).
const DefaultCacheSize = 1024

// Option configures a Client.
type Option interface {
	apply(*options)
}

// options holds the client configuration.
type options struct {
	store     *seqstore.Store
	manifest  *preprocess.Manifest
	bankDir   string
	cacheSize int
	stats     stats.Collector
	logger    *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		cacheSize: DefaultCacheSize,
		stats:     stats.NewNoop(),
		logger:    zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithStore sets the sequence store to read from directly, bypassing the
// bank manifest. Shards() reports nothing for such a client.
func WithStore(s *seqstore.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithCacheSize sets the lookup cache capacity in names.
// Zero disables caching.
func WithCacheSize(n int) Option {
	return optionFunc(func(o *options) {
		o.cacheSize = n
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithBank configures the client from a bank directory built by the
// preprocessing pipeline. It reads manifest.json to locate the store and
// describe the shards, and opens the store read-only.
// This is the recommended way to create a client.
func WithBank(dir string) (Option, error) {
	manifest, err := preprocess.ReadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	storePath := filepath.Join(dir, preprocess.StoreName(manifest.Base))
	st, err := seqstore.Open(context.Background(), storePath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return optionFunc(func(o *options) {
		o.store = st
		o.manifest = manifest
		o.bankDir = dir
	}), nil
}
