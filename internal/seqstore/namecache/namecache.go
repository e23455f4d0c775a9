// Package namecache provides a read-through LRU cache over sequence-name
// lookups, for read-side clients that query the same names repeatedly
// across assembly iterations.
package namecache

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/targetasm/readbank/internal/seqio"
	"github.com/targetasm/readbank/internal/stats"
)

// Lookuper is the lookup surface the cache wraps.
type Lookuper interface {
	LookupName(ctx context.Context, name string) ([]seqio.Record, error)
}

// Cache wraps a Lookuper with LRU caching. Only successful lookups are
// cached; misses and errors always go to the source.
type Cache struct {
	src       Lookuper
	entries   *lru.Cache[string, []seqio.Record]
	collector stats.Collector

	hits   atomic.Int64
	misses atomic.Int64
}

// Compile-time check that Cache implements Lookuper.
var _ Lookuper = (*Cache)(nil)

// New creates a cache over src holding up to capacity names.
// The collector is optional; if nil, a no-op collector is used.
func New(src Lookuper, capacity int, collector stats.Collector) (*Cache, error) {
	entries, err := lru.New[string, []seqio.Record](capacity)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Cache{src: src, entries: entries, collector: collector}, nil
}

// LookupName returns the records stored under name, consulting the cache
// first. The returned slice is a copy the caller may keep.
func (c *Cache) LookupName(ctx context.Context, name string) ([]seqio.Record, error) {
	if recs, ok := c.entries.Get(name); ok {
		c.hits.Add(1)
		c.collector.IncCounter(stats.MetricCacheHits, 1)
		return copyRecords(recs), nil
	}
	c.misses.Add(1)
	c.collector.IncCounter(stats.MetricCacheMisses, 1)

	recs, err := c.src.LookupName(ctx, name)
	if err != nil {
		return nil, err
	}
	c.entries.Add(name, recs)
	c.collector.SetGauge(stats.MetricCacheSize, int64(c.entries.Len()))
	return copyRecords(recs), nil
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.entries.Len(),
	}
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int // Current number of cached names
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

func copyRecords(recs []seqio.Record) []seqio.Record {
	out := make([]seqio.Record, len(recs))
	copy(out, recs)
	return out
}
