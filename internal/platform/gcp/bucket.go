package gcp

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

// BucketService is the object-store boundary for evidence documents.
// Upload overwrites idempotently; retried stages may re-upload the same
// key without side effects.
type BucketService interface {
	UploadFile(ctx context.Context, key string, file io.Reader, contentType string) error
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, key string) error
}

type bucketService struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	bucketName := os.Getenv("DOCUMENT_GCS_BUCKET_NAME")
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var DOCUMENT_GCS_BUCKET_NAME")
	}

	opts := append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("Object storage initialized", "bucket", bucketName)
	return &bucketService{log: serviceLog, client: client, bucket: bucketName}, nil
}

func (s *bucketService) UploadFile(ctx context.Context, key string, file io.Reader, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: close: %w", key, err)
	}
	return nil
}

func (s *bucketService) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return r, nil
}

func (s *bucketService) DeleteFile(ctx context.Context, key string) error {
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
