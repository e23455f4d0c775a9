// Package readbank provides fast lookups into preprocessed sequencing-read
// banks built by the readbank pipeline.
//
// Example usage:
//
//	opt, err := readbank.WithBank("/path/to/bank")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := readbank.New(opt)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	reads, err := client.Lookup(ctx, "SRR1234.567/1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range reads {
//	    fmt.Print(r.FASTA())
//	}
package readbank

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/targetasm/readbank/internal/preprocess"
	"github.com/targetasm/readbank/internal/seqio"
	"github.com/targetasm/readbank/internal/seqstore"
	"github.com/targetasm/readbank/internal/seqstore/namecache"
	"github.com/targetasm/readbank/internal/stats"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNotFound indicates the read name is not in the bank.
	ErrNotFound = errors.New("readbank: read not found")

	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("readbank: client closed")

	// ErrNoStore indicates no store was provided.
	ErrNoStore = errors.New("readbank: no store provided")
)

// Client provides access to a preprocessed read bank.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	store    *seqstore.Store
	src      namecache.Lookuper
	cache    *namecache.Cache
	manifest *preprocess.Manifest
	bankDir  string
	stats    stats.Collector
	logger   *zap.Logger
	closed   atomic.Bool
}

// Shard describes one index artifact of a bank, with its path resolved
// against the bank directory.
type Shard struct {
	Ordinal  int
	Records  int64
	Artifact string
	Status   string
}

// New creates a new Client with the given options.
// If no options are provided, sensible defaults are used.
func New(opts ...Option) (*Client, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	c := &Client{
		store:    cfg.store,
		manifest: cfg.manifest,
		bankDir:  cfg.bankDir,
		stats:    cfg.stats,
		logger:   cfg.logger,
	}

	if c.store == nil {
		return nil, ErrNoStore
	}

	c.src = c.store
	if cfg.cacheSize > 0 {
		cache, err := namecache.New(c.store, cfg.cacheSize, c.stats)
		if err != nil {
			return nil, fmt.Errorf("creating lookup cache: %w", err)
		}
		c.cache = cache
		c.src = cache
	}

	c.logger.Debug("client initialized",
		zap.String("bank", c.bankDir),
		zap.Int("cacheSize", cfg.cacheSize),
	)

	return c, nil
}

// Lookup returns every stored end of the named read. The name may carry an
// end suffix ("read_7/1"); the suffix is stripped so the mate comes back
// too. Returns ErrNotFound if the bank holds no read under the name.
func (c *Client) Lookup(ctx context.Context, name string) ([]Read, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	c.stats.IncCounter(stats.MetricLookups, 1)

	bare, _ := seqio.Normalize(name, seqio.RoleMixed)

	recs, err := c.src.LookupName(ctx, bare)
	if err != nil {
		if errors.Is(err, seqstore.ErrNotFound) {
			c.stats.IncCounter(stats.MetricLookupMisses, 1)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up %s: %w", bare, err)
	}

	reads := make([]Read, len(recs))
	for i, rec := range recs {
		reads[i] = recordToRead(rec)
	}
	return reads, nil
}

// Count returns the number of records stored in the bank.
func (c *Client) Count(ctx context.Context) (int64, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	return c.store.Count(ctx)
}

// Shards returns descriptors for the bank's index artifacts, one per shard.
// Returns nil when the client was not opened from a bank manifest.
func (c *Client) Shards() []Shard {
	if c.manifest == nil {
		return nil
	}

	shards := make([]Shard, len(c.manifest.Shards))
	for i, s := range c.manifest.Shards {
		shards[i] = Shard{
			Ordinal:  s.Ordinal,
			Records:  s.Records,
			Artifact: filepath.Join(c.bankDir, s.Artifact),
			Status:   s.Status,
		}
	}
	return shards
}

// Manifest returns the bank's build manifest, or nil when the client was
// assembled from a bare store.
func (c *Client) Manifest() *preprocess.Manifest {
	return c.manifest
}

// CacheStats returns lookup-cache statistics. The second return is false
// when caching is disabled.
func (c *Client) CacheStats() (namecache.Stats, bool) {
	if c.cache == nil {
		return namecache.Stats{}, false
	}
	return c.cache.Stats(), true
}

// Close releases all resources associated with the client.
// After Close, the client should not be used.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if err := c.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// recordToRead converts an internal seqio.Record to a public Read.
func recordToRead(rec seqio.Record) Read {
	return Read{
		Name: rec.Name,
		End:  string(rec.End),
		Seq:  rec.Seq,
	}
}
