package content

import (
	"context"
	"fmt"
	"time"

	"advent_calendar/internal/domain/models"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// CachedStorage read-through кэш поверх любого бэкенда.
// Наружу всегда отдаются копии, чтобы вызывающий не испортил кэш.
type CachedStorage struct {
	next  Storage
	cache *cache.Cache
}

func NewCachedStorage(next Storage, ttl time.Duration) *CachedStorage {
	return &CachedStorage{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (s *CachedStorage) Save(ctx context.Context, giftID uuid.UUID, content models.VersionedContent) error {
	if err := s.next.Save(ctx, giftID, content); err != nil {
		s.cache.Delete(giftID.String())
		return err
	}

	if cloned, err := content.Clone(); err == nil {
		s.cache.SetDefault(giftID.String(), cloned)
	} else {
		s.cache.Delete(giftID.String())
	}

	return nil
}

func (s *CachedStorage) Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, error) {
	if v, ok := s.cache.Get(giftID.String()); ok {
		cloned, err := v.(models.VersionedContent).Clone()
		if err != nil {
			return nil, fmt.Errorf("content.CachedStorage.Load: %w", err)
		}
		return &cloned, nil
	}

	content, err := s.next.Load(ctx, giftID)
	if err != nil {
		return nil, err
	}

	if cloned, err := content.Clone(); err == nil {
		s.cache.SetDefault(giftID.String(), cloned)
	}

	return content, nil
}

func (s *CachedStorage) Delete(ctx context.Context, giftID uuid.UUID) error {
	s.cache.Delete(giftID.String())
	return s.next.Delete(ctx, giftID)
}

// Invalidate сбрасывает запись; следующий Load идёт в бэкенд. Нужен, когда
// в то же хранилище пишет другой процесс.
func (s *CachedStorage) Invalidate(giftID uuid.UUID) {
	s.cache.Delete(giftID.String())
}
