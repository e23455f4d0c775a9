// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Build metrics.
	MetricRecordsIngested   = "readbank_records_ingested_total"
	MetricRecordsSkipped    = "readbank_records_skipped_total"
	MetricShardsBuilt       = "readbank_shards_built_total"
	MetricShardsFailed      = "readbank_shards_failed_total"
	MetricShardRecords      = "readbank_shard_records"
	MetricShardBuildSeconds = "readbank_shard_build_seconds"

	// Client metrics.
	MetricLookups      = "readbank_lookups_total"
	MetricLookupMisses = "readbank_lookup_misses_total"

	// Cache metrics.
	MetricCacheHits   = "readbank_cache_hits_total"
	MetricCacheMisses = "readbank_cache_misses_total"
	MetricCacheSize   = "readbank_cache_size"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
