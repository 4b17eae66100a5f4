package filestorage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"advent_calendar/internal/storage"
	s3client "advent_calendar/internal/storage/s3"

	"github.com/minio/minio-go/v7"
)

// S3FileStorage хранит загрузки в S3-совместимом бакете.
type S3FileStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewS3FileStorage(client *minio.Client, bucket, publicURL string) *S3FileStorage {
	return &S3FileStorage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *S3FileStorage) Save(ctx context.Context, file *multipart.FileHeader, subPath, name, contentType string) (string, int64, error) {
	const op = "filestorage.S3FileStorage.Save"

	key := path.Join(subPath, name)

	src, err := file.Open()
	if err != nil {
		return "", 0, fmt.Errorf("%s: failed to open source file: %w", op, err)
	}
	defer src.Close()

	info, err := s.client.PutObject(ctx, s.bucket, key, src, file.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	return key, info.Size, nil
}

func (s *S3FileStorage) Delete(ctx context.Context, filePath string) error {
	const op = "filestorage.S3FileStorage.Delete"

	if _, err := s.client.StatObject(ctx, s.bucket, filePath, minio.StatObjectOptions{}); err != nil {
		if s3client.IsNotFound(err) {
			return storage.ErrFileNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, filePath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *S3FileStorage) DeletePrefix(ctx context.Context, prefix string) error {
	const op = "filestorage.S3FileStorage.DeletePrefix"

	prefix = strings.TrimRight(prefix, "/") + "/"
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})

	// канал читаем до конца, иначе горутины minio зависнут на отправке
	var errs []error
	for res := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.ObjectName, res.Err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *S3FileStorage) URL(filePath string) string {
	return s.publicURL + "/" + strings.TrimLeft(filePath, "/")
}
