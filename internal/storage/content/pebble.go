package content

import (
	"context"
	"errors"
	"fmt"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/storage"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
)

const pebbleKeyPrefix = "content:"

// PebbleStorage хранит контент во встроенном KV без внешних сервисов.
type PebbleStorage struct {
	db *pebble.DB
}

func NewPebbleStorage(dir string) (*PebbleStorage, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("content.NewPebbleStorage: %w", err)
	}
	return &PebbleStorage{db: db}, nil
}

func pebbleKey(giftID uuid.UUID) []byte {
	return []byte(pebbleKeyPrefix + giftID.String())
}

func (s *PebbleStorage) Save(ctx context.Context, giftID uuid.UUID, content models.VersionedContent) error {
	const op = "content.PebbleStorage.Save"

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := models.MarshalVersioned(content)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.db.Set(pebbleKey(giftID), data, pebble.Sync); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *PebbleStorage) Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, error) {
	const op = "content.PebbleStorage.Load"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, closer, err := s.db.Get(pebbleKey(giftID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, storage.ErrContentNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// value валиден только до closer.Close
	data := append([]byte(nil), value...)
	if err := closer.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	content, err := models.UnmarshalVersioned(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &content, nil
}

func (s *PebbleStorage) Delete(ctx context.Context, giftID uuid.UUID) error {
	const op = "content.PebbleStorage.Delete"

	if err := s.db.Delete(pebbleKey(giftID), pebble.Sync); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *PebbleStorage) Close() error {
	return s.db.Close()
}
