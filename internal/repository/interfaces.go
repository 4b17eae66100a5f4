package repository

import (
	"context"

	"advent_calendar/internal/domain/models"

	"github.com/google/uuid"
)

type GiftRepository interface {
	CreateGift(ctx context.Context, gift models.Gift) (*models.Gift, error)
	GetGift(ctx context.Context, id uuid.UUID) (*models.Gift, error)
	GetGiftByNumber(ctx context.Context, number int) (*models.Gift, error)
	ListGifts(ctx context.Context) ([]models.Gift, error)
	UpdateGiftFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteGift(ctx context.Context, id uuid.UUID) error

	UpsertMemoryPhoto(ctx context.Context, photo models.MemoryPhoto) (*models.MemoryPhoto, error)
	GetMemoryPhoto(ctx context.Context, giftID uuid.UUID) (*models.MemoryPhoto, error)
	DeleteMemoryPhoto(ctx context.Context, giftID uuid.UUID) error
}
