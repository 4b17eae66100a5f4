// Package content хранит JSON-конверты контента подарков.
package content

import (
	"context"

	"advent_calendar/internal/domain/models"

	"github.com/google/uuid"
)

// Storage общий контракт бэкендов контента. Версия хранится в том же
// объекте, что и контент, поэтому они не расходятся при чтении.
// Load возвращает storage.ErrContentNotFound, если контента нет.
type Storage interface {
	Save(ctx context.Context, giftID uuid.UUID, content models.VersionedContent) error
	Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, error)
	Delete(ctx context.Context, giftID uuid.UUID) error
}

func fileName(giftID uuid.UUID) string {
	return giftID.String() + ".json"
}
