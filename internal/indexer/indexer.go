// Package indexer defines the collaborator interface for the external tool
// that turns a flat shard file into a queryable search-index artifact.
package indexer

import "context"

// Builder builds one search-index artifact from one shard file.
type Builder interface {
	// Name identifies the builder in manifests and logs.
	Name() string

	// Build indexes the sequences in fastaPath, writing artifact files
	// under artifactPath. A non-nil error, including a missing artifact,
	// marks the shard failed. Build must be safe for concurrent calls on
	// distinct shards.
	Build(ctx context.Context, fastaPath, artifactPath string) error
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, fastaPath, artifactPath string) error

// Name returns "custom".
func (f BuilderFunc) Name() string { return "custom" }

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, fastaPath, artifactPath string) error {
	return f(ctx, fastaPath, artifactPath)
}
