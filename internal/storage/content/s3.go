package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/storage"
	s3client "advent_calendar/internal/storage/s3"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// S3Storage хранит конверты объектами <prefix>/<id>.json.
type S3Storage struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewS3Storage(client *minio.Client, bucket, prefix string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Storage) key(giftID uuid.UUID) string {
	return path.Join(s.prefix, fileName(giftID))
}

func (s *S3Storage) Save(ctx context.Context, giftID uuid.UUID, content models.VersionedContent) error {
	const op = "content.S3Storage.Save"

	data, err := models.MarshalVersioned(content)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.key(giftID), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *S3Storage) Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, error) {
	const op = "content.S3Storage.Load"

	obj, err := s.client.GetObject(ctx, s.bucket, s.key(giftID), minio.GetObjectOptions{})
	if err != nil {
		if s3client.IsNotFound(err) {
			return nil, storage.ErrContentNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer obj.Close()

	// GetObject ленивый: отсутствие ключа всплывает только при чтении
	data, err := io.ReadAll(obj)
	if err != nil {
		if s3client.IsNotFound(err) {
			return nil, storage.ErrContentNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	content, err := models.UnmarshalVersioned(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &content, nil
}

func (s *S3Storage) Delete(ctx context.Context, giftID uuid.UUID) error {
	const op = "content.S3Storage.Delete"

	if err := s.client.RemoveObject(ctx, s.bucket, s.key(giftID), minio.RemoveObjectOptions{}); err != nil {
		if s3client.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
