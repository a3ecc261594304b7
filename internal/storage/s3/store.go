// Package s3 provides a storage.Provider backed by Amazon S3 or any
// S3-compatible endpoint (MinIO for local runs).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/JakeFAU/realtime-odds-ingest/internal/storage"
)

// Config captures the parameters required to reach the bucket.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for S3-compatible targets
	PathStyle bool
}

// Store writes and reads whole objects in a single S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// api is the subset of the S3 client the store uses, extracted so tests can
// substitute a fake without a live endpoint.
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// New creates an S3-backed store. Credentials come from the default AWS
// chain (environment, shared config, instance role).
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads data as a full overwrite of whatever is at key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return putObject(ctx, s.client, s.bucket, key, data, contentType)
}

// Get downloads the full object at key. Missing keys map to
// storage.ErrNotFound so callers can distinguish bootstrap from breakage.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return getObject(ctx, s.client, s.bucket, key)
}

func putObject(ctx context.Context, client api, bucket, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func getObject(ctx context.Context, client api, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}
