// Package blastdb builds per-shard BLAST nucleotide databases by invoking
// the makeblastdb binary.
package blastdb

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/targetasm/readbank/internal/indexer"
)

// DefaultExe is the BLAST database builder binary, resolved via PATH.
const DefaultExe = "makeblastdb"

// Builder shells out to makeblastdb for each shard.
type Builder struct {
	exe    string
	dbType string
	logger *zap.Logger
}

// Compile-time check that Builder implements indexer.Builder.
var _ indexer.Builder = (*Builder)(nil)

// Option configures a Builder.
type Option func(*Builder)

// WithExe overrides the builder binary path.
func WithExe(exe string) Option {
	return func(b *Builder) { b.exe = exe }
}

// WithDBType overrides the database type. Defaults to "nucl".
func WithDBType(dbType string) Option {
	return func(b *Builder) { b.dbType = dbType }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// New creates a makeblastdb-backed builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		exe:    DefaultExe,
		dbType: "nucl",
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the builder binary's base name.
func (b *Builder) Name() string {
	return filepath.Base(b.exe)
}

// Build runs the external builder synchronously and verifies that at least
// one artifact file appeared. The builder's combined output is preserved in
// the error on failure.
func (b *Builder) Build(ctx context.Context, fastaPath, artifactPath string) error {
	cmd := exec.CommandContext(ctx, b.exe,
		"-dbtype", b.dbType,
		"-in", fastaPath,
		"-out", artifactPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("blastdb: %s on %s: %w: %s",
			b.exe, filepath.Base(fastaPath), err, strings.TrimSpace(string(out)))
	}
	b.logger.Debug("index builder finished",
		zap.String("input", fastaPath),
		zap.String("artifact", artifactPath))

	// BLAST writes artifactPath.nin/.nhr/.nsq (or volume variants); an
	// absent artifact set is a shard failure even on exit status 0.
	matches, err := filepath.Glob(artifactPath + ".*")
	if err != nil {
		return fmt.Errorf("blastdb: checking artifacts for %s: %w", artifactPath, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("blastdb: %s produced no artifact files at %s", b.exe, artifactPath)
	}
	return nil
}
