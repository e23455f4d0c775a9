// Package gcssink uploads banks to Google Cloud Storage.
package gcssink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/targetasm/readbank/internal/archive"
)

// Compile-time check that Sink implements archive.Sink.
var _ archive.Sink = (*Sink)(nil)

// Sink uploads banks to a gs://bucket/prefix destination.
type Sink struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	logger *zap.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sink) { s.logger = logger }
}

// New creates a sink for a "gs://bucket/prefix" destination.
func New(ctx context.Context, gcsURL string, opts ...Option) (*Sink, error) {
	bucket, prefix, err := parsePath(gcsURL)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	s := &Sink{
		client: client,
		bucket: client.Bucket(bucket),
		prefix: prefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// parsePath parses "gs://bucket/prefix" into bucket and prefix.
func parsePath(gcsURL string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(gcsURL, "gs://") {
		return "", "", fmt.Errorf("invalid GCS path: must start with gs://")
	}

	path := strings.TrimPrefix(gcsURL, "gs://")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS path: missing bucket name")
	}

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.TrimSuffix(parts[1], "/")
		if prefix != "" {
			prefix += "/"
		}
	}

	return bucket, prefix, nil
}

// Upload copies the bank's files to the destination, new content first, then
// cleans up files from earlier builds. Uploading before cleanup keeps a
// complete bank visible to readers throughout.
func (s *Sink) Upload(ctx context.Context, bankDir string) error {
	names, err := archive.BankFiles(bankDir)
	if err != nil {
		return err
	}

	uploaded := make(map[string]bool, len(names))
	for _, name := range names {
		if err := s.uploadFile(ctx, filepath.Join(bankDir, name), s.prefix+name); err != nil {
			return fmt.Errorf("uploading %s: %w", name, err)
		}
		uploaded[name] = true
		s.logger.Debug("uploaded bank file", zap.String("file", name))
	}

	if err := s.cleanStale(ctx, uploaded); err != nil {
		// Stale objects are harmless; the new bank is already complete.
		s.logger.Warn("failed to clean stale objects", zap.Error(err))
	}
	return nil
}

// cleanStale deletes objects under the prefix that the new bank lacks.
func (s *Sink) cleanStale(ctx context.Context, current map[string]bool) error {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}

		name := strings.TrimPrefix(attrs.Name, s.prefix)
		if current[name] {
			continue
		}
		if err := s.bucket.Object(attrs.Name).Delete(ctx); err != nil {
			return fmt.Errorf("deleting stale object %s: %w", attrs.Name, err)
		}
	}
	return nil
}

// uploadFile uploads a single file.
func (s *Sink) uploadFile(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	obj := s.bucket.Object(key)
	writer := obj.NewWriter(ctx)

	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return err
	}

	return writer.Close()
}

// Close releases resources.
func (s *Sink) Close() error {
	return s.client.Close()
}
