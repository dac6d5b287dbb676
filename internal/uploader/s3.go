package uploader

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/helixbio/helix/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store is a ContentStore backed by an S3-compatible object store.
type S3Store struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewS3Store creates an S3Store from the content-store configuration.
func NewS3Store(cfg config.StoreConfig) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("content store endpoint is required (HELIX_S3_ENDPOINT)")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("content store credentials are required (HELIX_S3_ACCESS_KEY, HELIX_S3_SECRET_KEY)")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("content store bucket is required (HELIX_S3_BUCKET)")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init content store client: %w", err)
	}

	return &S3Store{client: client, bucket: cfg.Bucket, region: region}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// UploadFile uploads a local file to the given store-rooted path.
func (s *S3Store) UploadFile(ctx context.Context, localPath, remotePath string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := s.client.FPutObject(ctx, s.bucket, objectKey(remotePath), localPath, minio.PutObjectOptions{})
	return err
}

// UploadBytes uploads an in-memory artifact to the given store-rooted path.
func (s *S3Store) UploadBytes(ctx context.Context, data []byte, remotePath string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(remotePath),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// objectKey maps a store-rooted path onto an object key.
func objectKey(remotePath string) string {
	return strings.TrimLeft(remotePath, "/")
}
