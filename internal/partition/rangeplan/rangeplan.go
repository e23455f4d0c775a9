// Package rangeplan implements contiguous partitioning: shard boundaries
// are evenly spaced rank cut-points in sorted name order.
//
// Shards are balanced by record count and contiguous in name order. The
// layout costs O(S) rank lookups instead of enumerating all names; the
// accepted tradeoff is no guarantee of equal data volume.
package rangeplan

import (
	"context"
	"fmt"
	"math"

	"github.com/targetasm/readbank/internal/partition"
	"github.com/targetasm/readbank/internal/seqstore"
)

// Planner implements contiguous range partitioning.
type Planner struct{}

// Ensure Planner implements partition.Planner.
var _ partition.Planner = (*Planner)(nil)

// New creates a new contiguous range planner.
func New() *Planner {
	return &Planner{}
}

// Name returns the planner name.
func (p *Planner) Name() string {
	return "range"
}

// Plan resolves S+1 rank offsets evenly spaced over [0, count-1] to names
// and emits one half-open range per shard. The final shard's range is
// unbounded above so the largest name is always covered.
func (p *Planner) Plan(ctx context.Context, store *seqstore.Store, totalShards int) ([]partition.Shard, error) {
	if err := partition.Validate(ctx, store, totalShards); err != nil {
		return nil, err
	}
	count, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("partition: counting sequences: %w", err)
	}

	cuts := make([]string, 0, totalShards+1)
	for i := 0; i <= totalShards; i++ {
		rank := int64(math.Round(float64(i) * float64(count-1) / float64(totalShards)))
		name, err := store.KeyAtRank(ctx, rank)
		if err != nil {
			return nil, fmt.Errorf("partition: resolving cut %d: %w", i, err)
		}
		cuts = append(cuts, name)
	}

	shards := make([]partition.Shard, totalShards)
	for i := 1; i <= totalShards; i++ {
		r := &seqstore.KeyRange{Lower: cuts[i-1], Upper: cuts[i]}
		if i == totalShards {
			r.Upper = ""
		}
		shards[i-1] = partition.Shard{Index: i, Total: totalShards, Range: r}
	}
	return shards, nil
}
