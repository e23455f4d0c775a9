// Package s3sink uploads banks to AWS S3.
package s3sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/targetasm/readbank/internal/archive"
)

// Compile-time check that Sink implements archive.Sink.
var _ archive.Sink = (*Sink)(nil)

// Sink uploads banks to an s3://bucket/prefix destination.
type Sink struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// New creates a sink for an "s3://bucket/prefix" destination.
// The bucket must already exist.
func New(ctx context.Context, s3URL string, opts ...Option) (*Sink, error) {
	bucket, prefix, err := parsePath(s3URL)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	s := &Sink{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Option configures a Sink.
type Option func(*Sink) error

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *Sink) error {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			return fmt.Errorf("loading AWS config with region: %w", err)
		}
		s.client = s3.NewFromConfig(cfg)
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(s *Sink) error {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("loading AWS config for endpoint: %w", err)
		}
		s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sink) error {
		s.logger = logger
		return nil
	}
}

// parsePath parses "s3://bucket/prefix" into bucket and prefix.
func parsePath(s3URL string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(s3URL, "s3://") {
		return "", "", fmt.Errorf("invalid S3 path: must start with s3://")
	}

	path := strings.TrimPrefix(s3URL, "s3://")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 path: missing bucket name")
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
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, s.prefix)
			if current[name] {
				continue
			}
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return fmt.Errorf("deleting stale object %s: %w", key, err)
			}
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

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	return err
}

// Close releases resources.
func (s *Sink) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}
