// Package s3 создаёт клиента S3-совместимого хранилища (Yandex Object Storage, MinIO).
package s3

import (
	"context"
	"fmt"

	"advent_calendar/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewClient(cfg config.S3Config) (*minio.Client, error) {
	const op = "storage.s3.NewClient"

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return client, nil
}

// EnsureBucket создаёт бакет, если его ещё нет.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket, region string) error {
	const op = "storage.s3.EnsureBucket"

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsNotFound сообщает, что объекта нет в бакете.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}
