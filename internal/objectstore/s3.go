package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicURL is the base under which objects are publicly readable. When
	// empty it is derived from Endpoint (path style) or the AWS bucket host.
	PublicURL string
}

func (c S3Config) publicBase() string {
	switch {
	case c.PublicURL != "":
		return strings.TrimRight(c.PublicURL, "/")
	case c.Endpoint != "":
		return strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
	}
}

// S3Store keeps objects in an S3-compatible bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	base   string
	log    zerolog.Logger
}

// NewS3Store builds the S3 client. Static credentials are used when given,
// otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg S3Config, log zerolog.Logger) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing is required by MinIO and most self-hosted
	// S3 implementations.
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("object storage initialized")

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		base:   cfg.publicBase(),
		log:    log,
	}, nil
}

// Upload writes body to objectPath.
func (s *S3Store) Upload(ctx context.Context, objectPath string, body io.Reader, size int64, contentType string) error {
	key, err := cleanPath(objectPath)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to upload object")
		return fmt.Errorf("upload failed: %w", err)
	}

	s.log.Debug().Str("key", key).Int64("size", size).Msg("object uploaded")
	return nil
}

// Delete removes objectPath from the bucket.
func (s *S3Store) Delete(ctx context.Context, objectPath string) error {
	key, err := cleanPath(objectPath)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to delete object")
		return fmt.Errorf("delete failed: %w", err)
	}

	s.log.Debug().Str("key", key).Msg("object deleted")
	return nil
}

// PublicURL returns the public address of objectPath.
func (s *S3Store) PublicURL(objectPath string) string {
	return s.base + "/" + objectPath
}

// PathFromURL reverses PublicURL.
func (s *S3Store) PathFromURL(url string) (string, bool) {
	return pathUnder(s.base, url)
}
