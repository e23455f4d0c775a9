// Package partition defines the planner interface that computes shard
// layouts over a finalized sequence store.
package partition

import (
	"context"
	"errors"
	"fmt"

	"github.com/targetasm/readbank/internal/seqstore"
)

// ErrBadShardCount is returned when the requested shard count cannot cover
// the stored sequences.
var ErrBadShardCount = errors.New("partition: shard count must be between 1 and the sequence count")

// Shard describes one partition of the sequence collection.
type Shard struct {
	// Index is 1-based, matching shard file ordinals.
	Index int

	// Total is the shard count of the plan that produced this shard.
	Total int

	// Range bounds the shard's names in contiguous plans. It is nil in
	// assignment-table plans, where membership lives in the store.
	Range *seqstore.KeyRange
}

// Planner computes the shard layout for a finalized store.
type Planner interface {
	// Name identifies the planner in manifests and logs.
	Name() string

	// Plan emits exactly totalShards descriptors, 1-indexed and ordered,
	// together covering every stored name exactly once. The store must
	// already have its name index built.
	Plan(ctx context.Context, store *seqstore.Store, totalShards int) ([]Shard, error)
}

// Validate rejects an unusable shard count before any worker starts.
func Validate(ctx context.Context, store *seqstore.Store, totalShards int) error {
	if totalShards < 1 {
		return fmt.Errorf("partition: %d shards: %w", totalShards, ErrBadShardCount)
	}
	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("partition: counting sequences: %w", err)
	}
	if int64(totalShards) > count {
		return fmt.Errorf("partition: %d shards for %d sequences: %w", totalShards, count, ErrBadShardCount)
	}
	return nil
}
