package assets

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"picksheet/api/internal/document"
	"picksheet/api/internal/util"
)

// MinioStore uploads avatar images to an S3-compatible bucket and
// references them by URL, keeping the persisted sheet small.
type MinioStore struct {
	client *minio.Client
	bucket string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Ingest(ctx context.Context, filename string, data []byte) (document.LibraryAsset, error) {
	if len(data) == 0 {
		return document.LibraryAsset{}, fmt.Errorf("ingest %s: empty upload", filename)
	}

	id := util.NewID("asset")
	objectName := id + objectExt(filename, data)
	contentType := detectContentType(filename, data)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return document.LibraryAsset{}, fmt.Errorf("store object %s: %w", objectName, err)
	}

	src := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucket, objectName)
	return document.LibraryAsset{
		ID:   id,
		Src:  src,
		Name: assetName(filename),
	}, nil
}

func objectExt(filename string, data []byte) string {
	switch detectContentType(filename, data) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}
	return ""
}

var _ Ingestor = (*MinioStore)(nil)
