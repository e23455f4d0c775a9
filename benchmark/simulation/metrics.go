package simulation

import (
	"sort"
)

// Metrics contains computed metrics from simulation results.
type Metrics struct {
	// Core metrics.
	TotalLookups        int
	TotalSwitches       int
	UniqueShards        int
	AvgSwitchesPerBatch float64
	AvgFanoutPerBatch   float64

	// Distribution metrics.
	MedianSwitchesPerBatch float64
	P90SwitchesPerBatch    float64
	P99SwitchesPerBatch    float64
	MinSwitchesPerBatch    int
	MaxSwitchesPerBatch    int
	MedianFanoutPerBatch   float64
	P90FanoutPerBatch      float64

	// Locality metrics.
	ShardConcentration float64 // Gini coefficient of shard usage.
	TopShardPct        float64 // Percentage of lookups in the top 10% of shards.
}

// ComputeMetrics computes detailed metrics from aggregate results.
func ComputeMetrics(result *AggregateResult) *Metrics {
	m := &Metrics{
		TotalLookups:        result.TotalLookups,
		TotalSwitches:       result.TotalSwitches,
		UniqueShards:        result.UniqueShards,
		AvgSwitchesPerBatch: result.AvgSwitchesPerBatch,
		AvgFanoutPerBatch:   result.AvgFanoutPerBatch,
	}

	if len(result.SwitchesPerBatch) > 0 {
		sorted := make([]int, len(result.SwitchesPerBatch))
		copy(sorted, result.SwitchesPerBatch)
		sort.Ints(sorted)

		m.MinSwitchesPerBatch = sorted[0]
		m.MaxSwitchesPerBatch = sorted[len(sorted)-1]
		m.MedianSwitchesPerBatch = percentile(sorted, 50)
		m.P90SwitchesPerBatch = percentile(sorted, 90)
		m.P99SwitchesPerBatch = percentile(sorted, 99)
	}

	if len(result.FanoutPerBatch) > 0 {
		sorted := make([]int, len(result.FanoutPerBatch))
		copy(sorted, result.FanoutPerBatch)
		sort.Ints(sorted)

		m.MedianFanoutPerBatch = percentile(sorted, 50)
		m.P90FanoutPerBatch = percentile(sorted, 90)
	}

	if len(result.ShardHits) > 0 {
		m.ShardConcentration = computeGini(result.ShardHits)
		m.TopShardPct = computeTopShardPct(result.ShardHits, result.TotalLookups, 0.1)
	}

	return m
}

func percentile(sorted []int, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p / 100)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return float64(sorted[idx])
}

// computeGini measures how unevenly lookups concentrate across shards.
// 0 means every shard absorbs the same load, 1 means a single shard takes
// everything.
func computeGini(hits map[int]int) float64 {
	if len(hits) == 0 {
		return 0
	}

	values := make([]int, 0, len(hits))
	for _, v := range hits {
		values = append(values, v)
	}
	sort.Ints(values)

	n := float64(len(values))
	var sum, cumulativeSum float64
	for i, v := range values {
		sum += float64(v)
		cumulativeSum += float64(i+1) * float64(v)
	}

	if sum == 0 {
		return 0
	}

	return (2*cumulativeSum)/(n*sum) - (n+1)/n
}

func computeTopShardPct(hits map[int]int, total int, topFraction float64) float64 {
	if total == 0 || len(hits) == 0 {
		return 0
	}

	type shardHit struct {
		shard int
		hits  int
	}
	sorted := make([]shardHit, 0, len(hits))
	for s, h := range hits {
		sorted = append(sorted, shardHit{shard: s, hits: h})
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].hits > sorted[j].hits
	})

	topCount := int(float64(len(sorted)) * topFraction)
	if topCount < 1 {
		topCount = 1
	}

	var topHits int
	for i := 0; i < topCount && i < len(sorted); i++ {
		topHits += sorted[i].hits
	}

	return float64(topHits) / float64(total) * 100
}

// MetricsComparison holds pairwise metric differences between two policies.
type MetricsComparison struct {
	Policy1 string
	Policy2 string

	SwitchesDiff      float64 // Positive means Policy1 switches more.
	SwitchesDiffPct   float64
	FanoutDiff        float64
	ConcentrationDiff float64
	TopShardPctDiff   float64
	UniqueShardsDiff  int
}

// Compare compares two metrics and returns the differences.
func Compare(m1, m2 *Metrics, name1, name2 string) *MetricsComparison {
	return &MetricsComparison{
		Policy1:           name1,
		Policy2:           name2,
		SwitchesDiff:      m1.AvgSwitchesPerBatch - m2.AvgSwitchesPerBatch,
		SwitchesDiffPct:   safeDiffPct(m1.AvgSwitchesPerBatch, m2.AvgSwitchesPerBatch),
		FanoutDiff:        m1.AvgFanoutPerBatch - m2.AvgFanoutPerBatch,
		ConcentrationDiff: m1.ShardConcentration - m2.ShardConcentration,
		TopShardPctDiff:   m1.TopShardPct - m2.TopShardPct,
		UniqueShardsDiff:  m1.UniqueShards - m2.UniqueShards,
	}
}

func safeDiffPct(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}
