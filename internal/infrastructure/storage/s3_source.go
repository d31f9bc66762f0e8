// Package storage reads and publishes raw dataset files on S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	infraconfig "github.com/olist/dashboard/internal/infrastructure/config"
	"github.com/olist/dashboard/internal/infrastructure/source"
	"go.uber.org/zap"
)

// Ensure S3Source implements source.Source
var _ source.Source = (*S3Source)(nil)

// ErrObjectNotFound is returned when a key does not exist under the prefix
var ErrObjectNotFound = errors.New("object not found")

// S3Source exposes the objects under one bucket prefix as dataset files.
// It works with any S3-compatible store (AWS S3, MinIO, RustFS).
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3SourceOption configures an S3Source
type S3SourceOption func(*S3Source)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3SourceOption {
	return func(s *S3Source) {
		s.logger = logger
	}
}

// NewS3Source creates an S3Source. Without static keys the default AWS
// credential chain is used.
func NewS3Source(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3SourceOption) (*S3Source, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret access key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3Source{
		client: client,
		bucket: cfg.Bucket,
		prefix: normalizePrefix(cfg.Prefix),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("s3_source")
	return s, nil
}

// normalizePrefix returns "" or a prefix ending in "/"
func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// List returns the objects directly under the prefix. Keys in deeper
// "directories" are skipped.
func (s *S3Source) List(ctx context.Context) ([]source.Object, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	var objects []source.Object
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			o := source.Object{
				Name: name,
				Size: aws.ToInt64(obj.Size),
				ETag: strings.Trim(aws.ToString(obj.ETag), `"`),
			}
			if obj.LastModified != nil {
				o.ModTime = obj.LastModified.UTC()
			}
			objects = append(objects, o)
		}
	}

	s.logger.Debug("Listed dataset objects",
		zap.String("bucket", s.bucket),
		zap.String("prefix", s.prefix),
		zap.Int("objects", len(objects)),
	)
	return objects, nil
}

// Open streams one object. The caller must close the body.
func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("invalid object name %q", name)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s: %w", name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", name, err)
	}
	return out.Body, nil
}

// Upload writes one file under the prefix
func (s *S3Source) Upload(ctx context.Context, name string, body io.Reader, size int64) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid object name %q", name)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.prefix + name),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", name, err)
	}
	s.logger.Info("Dataset object uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", s.prefix+name),
		zap.Int64("size", size),
	)
	return nil
}

func contentType(name string) string {
	if strings.EqualFold(path.Ext(name), ".csv") {
		return "text/csv"
	}
	return "application/octet-stream"
}

// Bucket returns the bucket name
func (s *S3Source) Bucket() string {
	return s.bucket
}

func (s *S3Source) String() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.prefix)
}
