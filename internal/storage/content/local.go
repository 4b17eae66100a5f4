package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/storage"

	"github.com/google/uuid"
)

// LocalStorage пишет по одному JSON-файлу на подарок.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("content.NewLocalStorage: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) path(giftID uuid.UUID) string {
	return filepath.Join(s.dir, fileName(giftID))
}

// Save пишет во временный файл и переименовывает его, чтобы читатель
// никогда не увидел наполовину записанный JSON.
func (s *LocalStorage) Save(ctx context.Context, giftID uuid.UUID, content models.VersionedContent) error {
	const op = "content.LocalStorage.Save"

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := models.MarshalVersioned(content)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(s.dir, giftID.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmpName, s.path(giftID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *LocalStorage) Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, error) {
	const op = "content.LocalStorage.Load"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(giftID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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

func (s *LocalStorage) Delete(ctx context.Context, giftID uuid.UUID) error {
	const op = "content.LocalStorage.Delete"

	if err := os.Remove(s.path(giftID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
