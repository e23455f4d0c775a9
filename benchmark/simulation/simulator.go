// Package simulation models how partition policies spread read names across
// shards, without building a bank.
package simulation

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/targetasm/readbank/internal/partition/hashplan"
)

// Policy maps read names to 1-based shard ordinals.
type Policy interface {
	Name() string
	Shard(name string) int
}

// HashPolicy assigns names the way the hash planner does.
type HashPolicy struct {
	totalShards int
}

// NewHashPolicy creates a hash policy over totalShards shards.
func NewHashPolicy(totalShards int) *HashPolicy {
	return &HashPolicy{totalShards: totalShards}
}

// Name returns "hash".
func (p *HashPolicy) Name() string { return "hash" }

// Shard returns the planner's ordinal for name.
func (p *HashPolicy) Shard(name string) int {
	return hashplan.ShardIndex(name, p.totalShards)
}

// RangePolicy assigns names by contiguous name ranges, using the same evenly
// spaced rank cut-points the range planner resolves against a store. The
// corpus passed at construction plays the role of the store's key set.
type RangePolicy struct {
	cuts        []string // interior boundaries, ascending
	totalShards int
}

// NewRangePolicy creates a range policy fitted to the given corpus.
func NewRangePolicy(corpus []string, totalShards int) *RangePolicy {
	sorted := make([]string, len(corpus))
	copy(sorted, corpus)
	sort.Strings(sorted)
	sorted = dedup(sorted)

	p := &RangePolicy{totalShards: totalShards}
	count := len(sorted)
	if count == 0 || totalShards <= 1 {
		return p
	}

	for i := 1; i < totalShards; i++ {
		rank := (i*(count-1) + totalShards/2) / totalShards
		p.cuts = append(p.cuts, sorted[rank])
	}
	return p
}

// Name returns "range".
func (p *RangePolicy) Name() string { return "range" }

// Shard returns the ordinal of the half-open range containing name. Shard i
// covers cuts[i-2] <= name < cuts[i-1]; the last shard is unbounded above.
func (p *RangePolicy) Shard(name string) int {
	return 1 + sort.Search(len(p.cuts), func(i int) bool {
		return p.cuts[i] > name
	})
}

func dedup(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// Simulator replays lookup batches against one or more policies.
type Simulator struct {
	policies []Policy
}

// NewSimulator creates a Simulator comparing the given policies.
func NewSimulator(policies ...Policy) *Simulator {
	return &Simulator{policies: policies}
}

// SimulateBatch replays a single hit batch and returns the shard access
// pattern per policy.
func (s *Simulator) SimulateBatch(names []string) map[string]*BatchResult {
	results := make(map[string]*BatchResult, len(s.policies))

	for _, policy := range s.policies {
		result := &BatchResult{
			PolicyName:  policy.Name(),
			ShardAccess: make([]int, 0, len(names)),
		}

		distinct := make(map[int]struct{})
		lastShard := -1
		for _, name := range names {
			ordinal := policy.Shard(name)
			result.ShardAccess = append(result.ShardAccess, ordinal)
			distinct[ordinal] = struct{}{}

			if ordinal != lastShard {
				result.ShardSwitches++
				lastShard = ordinal
			}
		}
		result.DistinctShards = len(distinct)

		results[policy.Name()] = result
	}

	return results
}

// SimulateBatches replays multiple batches and aggregates per policy.
func (s *Simulator) SimulateBatches(batches [][]string) map[string]*AggregateResult {
	results := make(map[string]*AggregateResult, len(s.policies))

	for _, policy := range s.policies {
		results[policy.Name()] = &AggregateResult{
			PolicyName:       policy.Name(),
			ShardHits:        make(map[int]int),
			SwitchesPerBatch: make([]int, 0, len(batches)),
			FanoutPerBatch:   make([]int, 0, len(batches)),
		}
	}

	for _, batch := range batches {
		batchResults := s.SimulateBatch(batch)
		for name, br := range batchResults {
			agg := results[name]
			agg.TotalLookups += len(batch)
			agg.TotalSwitches += br.ShardSwitches
			agg.SwitchesPerBatch = append(agg.SwitchesPerBatch, br.ShardSwitches)
			agg.FanoutPerBatch = append(agg.FanoutPerBatch, br.DistinctShards)

			for _, ordinal := range br.ShardAccess {
				agg.ShardHits[ordinal]++
			}
		}
	}

	for _, agg := range results {
		agg.UniqueShards = len(agg.ShardHits)
		if len(batches) > 0 {
			agg.AvgSwitchesPerBatch = float64(agg.TotalSwitches) / float64(len(batches))
			var fanout int
			for _, f := range agg.FanoutPerBatch {
				fanout += f
			}
			agg.AvgFanoutPerBatch = float64(fanout) / float64(len(batches))
		}
	}

	return results
}

// Distribute assigns every corpus name once per policy and reports how
// evenly the shards come out. This is the balance a bank built under the
// policy would have, one record per name.
func (s *Simulator) Distribute(names []string) map[string]*Distribution {
	results := make(map[string]*Distribution, len(s.policies))

	for _, policy := range s.policies {
		counts := make(map[int]int)
		for _, name := range names {
			counts[policy.Shard(name)]++
		}
		results[policy.Name()] = newDistribution(policy.Name(), counts)
	}

	return results
}

// BatchResult contains the shard access pattern for a single hit batch.
type BatchResult struct {
	PolicyName     string
	ShardAccess    []int // Shard ordinals accessed in order.
	ShardSwitches  int   // Number of times the shard changed.
	DistinctShards int   // Fan-out: shards a restricted search must touch.
}

// AggregateResult contains aggregated results across multiple batches.
type AggregateResult struct {
	PolicyName          string
	TotalLookups        int
	TotalSwitches       int
	UniqueShards        int
	AvgSwitchesPerBatch float64
	AvgFanoutPerBatch   float64
	ShardHits           map[int]int // Shard ordinal -> hit count.
	SwitchesPerBatch    []int       // Per-batch switches, for statistical tests.
	FanoutPerBatch      []int       // Per-batch distinct shards.
}

// CacheHitRate estimates the hit rate of an artifact cache holding
// cacheCapacity shard databases, as when artifacts are pulled from a remote
// archive on demand.
func (a *AggregateResult) CacheHitRate(cacheCapacity int) float64 {
	if a.TotalLookups == 0 {
		return 0
	}

	var hits int
	if a.UniqueShards <= cacheCapacity {
		// Everything fits after warmup; only the first touch of each
		// shard misses.
		hits = a.TotalLookups - a.UniqueShards
	} else {
		// More shards than cache slots. Estimate from how many lookups
		// each shard absorbs on average.
		avgAccessesPerShard := float64(a.TotalLookups) / float64(a.UniqueShards)
		rate := (avgAccessesPerShard - 1) / avgAccessesPerShard
		if rate < 0 {
			rate = 0
		}
		hits = int(float64(a.TotalLookups) * rate)
	}

	return float64(hits) / float64(a.TotalLookups) * 100
}

// Distribution reports per-shard record counts for a policy over a corpus.
type Distribution struct {
	PolicyName string
	Counts     map[int]int
	Mean       float64
	StdDev     float64
	CV         float64 // Coefficient of variation; 0 is perfectly even balance.
	Min        int
	Max        int
}

func newDistribution(policyName string, counts map[int]int) *Distribution {
	d := &Distribution{PolicyName: policyName, Counts: counts}
	if len(counts) == 0 {
		return d
	}

	values := make([]float64, 0, len(counts))
	d.Min = -1
	for _, c := range counts {
		values = append(values, float64(c))
		if d.Min < 0 || c < d.Min {
			d.Min = c
		}
		if c > d.Max {
			d.Max = c
		}
	}

	d.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		d.StdDev = stat.StdDev(values, nil)
	}
	if d.Mean > 0 {
		d.CV = d.StdDev / d.Mean
	}
	return d
}
