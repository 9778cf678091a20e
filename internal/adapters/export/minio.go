package export

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/okian/platecheck/pkg/logger"
)

// objectStore is the part of *minio.Client the uploader uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioConfig locates the export bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioUploader stores export files in a MinIO or S3 compatible bucket.
type MinioUploader struct {
	store  objectStore
	bucket string
	logger logger.Logger
}

// NewMinioUploader connects and makes sure the bucket exists.
func NewMinioUploader(ctx context.Context, cfg MinioConfig, log logger.Logger) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	u := &MinioUploader{store: client, bucket: cfg.Bucket, logger: log}
	if err := u.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *MinioUploader) ensureBucket(ctx context.Context) error {
	exists, err := u.store.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.bucket, err)
	}
	if exists {
		return nil
	}
	if err := u.store.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", u.bucket, err)
	}
	u.logger.Info(ctx, "export bucket created", logger.String("bucket", u.bucket))
	return nil
}

// Upload stores data under name and returns the object key.
func (u *MinioUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	info, err := u.store.PutObject(ctx, u.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to %s: %w", name, u.bucket, err)
	}
	if info.Key == "" {
		info.Key = name
	}
	u.logger.Info(ctx, "export uploaded",
		logger.String("bucket", u.bucket),
		logger.String("object", info.Key),
		logger.Int("bytes", int(info.Size)),
	)
	return info.Key, nil
}
