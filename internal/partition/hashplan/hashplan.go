// Package hashplan implements shuffled partitioning: every distinct name is
// hashed to a shard and the assignment is persisted in the store.
//
// Hashing breaks up name-sorted locality, which avoids skew when the
// downstream workload correlates with adjacent names. Both end markers of a
// pair share the name, so pairs always land in one shard. The assignment is
// deterministic: re-planning an unchanged store reproduces it exactly.
package hashplan

import (
	"context"
	"fmt"

	"github.com/targetasm/readbank/internal/partition"
	"github.com/targetasm/readbank/internal/seqstore"
)

// Planner implements FNV-1a hash-based shuffled partitioning.
type Planner struct{}

// Ensure Planner implements partition.Planner.
var _ partition.Planner = (*Planner)(nil)

// New creates a new hash-based planner.
func New() *Planner {
	return &Planner{}
}

// Name returns the planner name.
func (p *Planner) Name() string {
	return "hash"
}

// Plan assigns every distinct name to a shard by FNV-1a hash modulo the
// shard count, persists the table, and emits rangeless descriptors whose
// membership is resolved through the store.
func (p *Planner) Plan(ctx context.Context, store *seqstore.Store, totalShards int) ([]partition.Shard, error) {
	if err := partition.Validate(ctx, store, totalShards); err != nil {
		return nil, err
	}

	if err := store.AssignShards(ctx, func(name string) int {
		return ShardIndex(name, totalShards)
	}); err != nil {
		return nil, fmt.Errorf("partition: persisting shard assignments: %w", err)
	}

	shards := make([]partition.Shard, totalShards)
	for i := range shards {
		shards[i] = partition.Shard{Index: i + 1, Total: totalShards}
	}
	return shards, nil
}

// ShardIndex computes the 1-based shard index for a name.
func ShardIndex(name string, totalShards int) int {
	return int(fnv1a32(name)%uint32(totalShards)) + 1
}

// fnv1a32 computes the FNV-1a 32-bit hash of a string.
func fnv1a32(s string) uint32 {
	var h uint32 = 2166136261 // FNV offset basis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619 // FNV prime
	}
	return h
}
