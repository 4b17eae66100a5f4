package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/errs"
	"advent_calendar/internal/lib/logger/sl"
	"advent_calendar/internal/metrics"
	"advent_calendar/internal/storage"

	"github.com/google/uuid"
)

// Источники записи, попадают в метрики и логи.
const (
	TriggerManual   = "manual"
	TriggerAutosave = "autosave"
	TriggerImport   = "import"
)

// ContentStorage хранит контент вместе с версией одним объектом.
type ContentStorage interface {
	Save(ctx context.Context, giftID uuid.UUID, content models.VersionedContent) error
	Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, error)
	Delete(ctx context.Context, giftID uuid.UUID) error
}

// VersionStore счётчик версий и блокировка записи контента подарка.
// Для нескольких процессов обе вещи должны быть общими (Redis).
type VersionStore interface {
	Current(ctx context.Context, giftID uuid.UUID) (int64, error)
	Sync(ctx context.Context, giftID uuid.UUID, v int64) error
	Lock(ctx context.Context, giftID uuid.UUID) (func(), error)
	Reset(ctx context.Context, giftID uuid.UUID) error
}

// invalidator реализуют кэширующие хранилища.
type invalidator interface {
	Invalidate(giftID uuid.UUID)
}

type ContentService struct {
	log      *slog.Logger
	storage  ContentStorage
	versions VersionStore
}

func NewContentService(log *slog.Logger, storage ContentStorage, versions VersionStore) *ContentService {
	return &ContentService{
		log:      log,
		storage:  storage,
		versions: versions,
	}
}

func (s *ContentService) invalidate(giftID uuid.UUID) {
	if c, ok := s.storage.(invalidator); ok {
		c.Invalidate(giftID)
	}
}

// current сводит версию счётчика и версию из хранилища; побеждает большая.
// fresh=true читает хранилище мимо кэша.
func (s *ContentService) current(ctx context.Context, log *slog.Logger, giftID uuid.UUID, fresh bool) (*models.VersionedContent, bool, error) {
	counter, err := s.versions.Current(ctx, giftID)
	if err != nil {
		return nil, false, err
	}

	if fresh {
		s.invalidate(giftID)
	}

	stored, err := s.storage.Load(ctx, giftID)
	if err == nil && stored.Version < counter && !fresh {
		// кэш отстал от записи другого процесса
		s.invalidate(giftID)
		stored, err = s.storage.Load(ctx, giftID)
	}
	if err != nil {
		if errors.Is(err, storage.ErrContentNotFound) {
			return &models.VersionedContent{Version: counter, Content: models.GiftContent{Blocks: models.BlockList{}}}, false, nil
		}
		return nil, false, err
	}

	if stored.Version > counter {
		// запись прошла мимо этого счётчика (например, импорт из CLI)
		if err := s.versions.Sync(ctx, giftID, stored.Version); err != nil {
			log.Warn("failed to sync content version", sl.Err(err))
		}
	} else {
		stored.Version = counter
	}

	return stored, true, nil
}

// Load возвращает контент с текущей версией. Отсутствие контента не ошибка:
// found=false и пустой конверт.
func (s *ContentService) Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, bool, error) {
	const op = "content_service.Load"
	log := s.log.With(
		slog.String("op", op),
		slog.String("gift_id", giftID.String()),
	)

	content, found, err := s.current(ctx, log, giftID, false)
	if err != nil {
		log.Error("failed to load content", sl.Err(err))
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		log.Debug("content not found")
	}

	return content, found, nil
}

// Save записывает контент, только если base совпадает с текущей версией.
// Возвращает новую версию base+1 либо errs.ErrVersionConflict.
func (s *ContentService) Save(ctx context.Context, giftID uuid.UUID, base int64, content models.GiftContent) (int64, error) {
	return s.save(ctx, TriggerManual, giftID, &base, content)
}

// Import перезаписывает контент поверх любой версии (используется CLI).
func (s *ContentService) Import(ctx context.Context, giftID uuid.UUID, content models.GiftContent) (int64, error) {
	return s.save(ctx, TriggerImport, giftID, nil, content)
}

// save при base == nil пишет поверх текущей версии.
func (s *ContentService) save(ctx context.Context, trigger string, giftID uuid.UUID, base *int64, content models.GiftContent) (int64, error) {
	const op = "content_service.Save"
	log := s.log.With(
		slog.String("op", op),
		slog.String("gift_id", giftID.String()),
		slog.String("trigger", trigger),
	)
	if base != nil {
		log = log.With(slog.Int64("base", *base))
	}

	if content.Blocks == nil {
		content.Blocks = models.BlockList{}
	}

	if err := content.Validate(); err != nil {
		log.Warn("content rejected", sl.Err(err))
		metrics.ContentSavesTotal.WithLabelValues(trigger, metrics.SaveInvalid).Inc()
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	// проверка версии, запись и продвижение счётчика идут под одной
	// блокировкой, общей для всех процессов с этим VersionStore
	unlock, err := s.versions.Lock(ctx, giftID)
	if err != nil {
		log.Error("failed to lock content", sl.Err(err))
		metrics.ContentSavesTotal.WithLabelValues(trigger, metrics.SaveError).Inc()
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	cur, _, err := s.current(ctx, log, giftID, true)
	if err != nil {
		log.Error("failed to read content version", sl.Err(err))
		metrics.ContentSavesTotal.WithLabelValues(trigger, metrics.SaveError).Inc()
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if base != nil && cur.Version != *base {
		log.Warn("stale content write discarded", slog.Int64("current", cur.Version))
		metrics.ContentSavesTotal.WithLabelValues(trigger, metrics.SaveConflict).Inc()
		return 0, fmt.Errorf("%s: %w", op, errs.ErrVersionConflict)
	}

	next := cur.Version + 1
	if err := s.storage.Save(ctx, giftID, models.VersionedContent{Version: next, Content: content}); err != nil {
		log.Error("failed to save content", sl.Err(err))
		metrics.ContentSavesTotal.WithLabelValues(trigger, metrics.SaveError).Inc()
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.versions.Sync(ctx, giftID, next); err != nil {
		// версия уже лежит в хранилище, следующий current её подхватит
		log.Warn("failed to sync content version", sl.Err(err))
	}

	log.Info("content saved", slog.Int64("version", next), slog.Int("blocks", len(content.Blocks)))
	metrics.ContentSavesTotal.WithLabelValues(trigger, metrics.SaveOK).Inc()

	return next, nil
}

// Delete удаляет контент и сбрасывает версию.
func (s *ContentService) Delete(ctx context.Context, giftID uuid.UUID) error {
	const op = "content_service.Delete"

	unlock, err := s.versions.Lock(ctx, giftID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	if err := s.storage.Delete(ctx, giftID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.versions.Reset(ctx, giftID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MemoryVersionStore версии и блокировки в памяти процесса; после рестарта
// счётчик догоняется по версии из хранилища.
type MemoryVersionStore struct {
	mu       sync.Mutex
	versions map[uuid.UUID]int64
	locks    map[uuid.UUID]*sync.Mutex
}

func NewMemoryVersionStore() *MemoryVersionStore {
	return &MemoryVersionStore{
		versions: make(map[uuid.UUID]int64),
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (m *MemoryVersionStore) Current(_ context.Context, giftID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[giftID], nil
}

func (m *MemoryVersionStore) Sync(_ context.Context, giftID uuid.UUID, v int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v > m.versions[giftID] {
		m.versions[giftID] = v
	}
	return nil
}

func (m *MemoryVersionStore) Lock(ctx context.Context, giftID uuid.UUID) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[giftID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[giftID] = l
	}
	m.mu.Unlock()

	l.Lock()
	if err := ctx.Err(); err != nil {
		l.Unlock()
		return nil, err
	}
	return l.Unlock, nil
}

func (m *MemoryVersionStore) Reset(_ context.Context, giftID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.versions, giftID)
	return nil
}
