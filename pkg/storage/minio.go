package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/re-cox/aeys-v2-sub001/pkg/apperrors"
)

// MinioConfig holds connection settings for the MinIO/S3 backend.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
}

// MinioStore implements ObjectStore against MinIO or any S3-compatible
// endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinioStore creates a MinIO-backed object store.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket makes sure the document bucket exists before use.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Put uploads the document bytes under the given object name.
func (s *MinioStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, name, r, size, opts); err != nil {
		return "", fmt.Errorf("%w: put %s: %w", apperrors.ErrStorageFailure, name, err)
	}
	return name, nil
}

// Get returns a reader for the stored object. The object is stat'ed first so
// a dangling reference surfaces as ErrNotFound here rather than on the first
// read.
func (s *MinioStore) Get(ctx context.Context, reference string) (io.ReadCloser, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, reference, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: stat %s: %w", apperrors.ErrStorageFailure, reference, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, reference, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", apperrors.ErrStorageFailure, reference, err)
	}
	return obj, nil
}

// Delete removes the stored object. S3 removes are silent on missing keys, so
// the object is stat'ed first to report ErrNotFound distinctly.
func (s *MinioStore) Delete(ctx context.Context, reference string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, reference, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: stat %s: %w", apperrors.ErrStorageFailure, reference, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, reference, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: remove %s: %w", apperrors.ErrStorageFailure, reference, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
	}
	return false
}

// Ensure MinioStore implements ObjectStore at compile time.
var _ ObjectStore = (*MinioStore)(nil)
