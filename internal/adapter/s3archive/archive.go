// Package s3archive mirrors downloaded NOAA files to an S3-compatible bucket
// (AWS S3 or MinIO) so other environments can seed their cache from it.
package s3archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sony/gobreaker"
)

// Config holds construction parameters. Credentials come from the default
// AWS chain (AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / profile).
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional; enables a custom endpoint such as MinIO
	PathStyle bool
	Prefix    string
}

// Archive implements acquire.Archiver. Objects are create-only: cache files
// never change once written, so an existing key is left alone.
type Archive struct {
	client  *s3.Client
	bucket  string
	prefix  string
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New creates an archive from Config.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newArchive(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newArchive(client *s3.Client, bucket, prefix string, logger *slog.Logger) *Archive {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "s3archive",
		Timeout: 5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	})
	return &Archive{client: client, bucket: bucket, prefix: prefix, breaker: cb, logger: logger}
}

// Key returns the object key for a local cache file.
func (a *Archive) Key(localPath string) string {
	return a.prefix + filepath.Base(localPath)
}

// Archive uploads localPath unless the object already exists.
func (a *Archive) Archive(ctx context.Context, localPath string) error {
	key := a.Key(localPath)
	_, err := a.breaker.Execute(func() (interface{}, error) {
		return nil, a.put(ctx, key, localPath)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return err
}

func (a *Archive) put(ctx context.Context, key, localPath string) error {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &a.bucket, Key: &key})
	if err == nil {
		a.logger.Debug("archive object exists", "key", key)
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("head %s: %w", key, err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{Bucket: &a.bucket, Key: &key, Body: f}); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	a.logger.Info("archived cache file", "bucket", a.bucket, "key", key)
	return nil
}
