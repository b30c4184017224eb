package s3

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"news_syncer/internal/domain"
)

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	PublicACL       bool
	UsePathStyle    bool
}

// BlobStore stores objects in an S3 compatible bucket (AWS S3, Cloudflare R2, MinIO).
type BlobStore struct {
	client     *awss3.Client
	bucket     string
	region     string
	publicBase string
	publicACL  bool
	logger     *slog.Logger
}

func New(ctx context.Context, cfg Config, logger *slog.Logger) (*BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: storage bucket is required", domain.ErrInit)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %w", domain.ErrInit, err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &BlobStore{
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		publicACL:  cfg.PublicACL,
		logger:     logger.With("component", "s3", "bucket", cfg.Bucket),
	}, nil
}

// Put uploads body under key. body should be seekable when the endpoint is plain http.
func (s *BlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		Metadata:      metadata,
	})
	if err != nil {
		return fmt.Errorf("%w: put object %s: %w", domain.ErrStore, key, err)
	}

	s.logger.Debug("object stored", "key", key, "size", size, "content_type", contentType)
	return nil
}

// MakePublic grants public-read. R2 has no object ACLs, so it is a no-op when
// public ACLs are disabled and the bucket is exposed through PublicBaseURL instead.
func (s *BlobStore) MakePublic(ctx context.Context, key string) error {
	if !s.publicACL {
		return nil
	}

	_, err := s.client.PutObjectAcl(ctx, &awss3.PutObjectAclInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		ACL:    types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("%w: make public %s: %w", domain.ErrStore, key, err)
	}
	return nil
}

func (s *BlobStore) PublicURL(key string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
