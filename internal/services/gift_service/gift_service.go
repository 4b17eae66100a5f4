package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/errs"
	"advent_calendar/internal/lib/logger/sl"
	"advent_calendar/internal/repository"
	"advent_calendar/internal/storage"
	"advent_calendar/internal/transport/http/dto"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type MediaService interface {
	Upload(ctx context.Context, giftID uuid.UUID, hint models.UploadHint, file *multipart.FileHeader) (*models.UploadedFile, error)
	Remove(ctx context.Context, storagePath string) error
	RemoveGift(ctx context.Context, giftID uuid.UUID) error
	Ratio(url string) (float64, bool)
}

type ContentRemover interface {
	Delete(ctx context.Context, giftID uuid.UUID) error
}

type AutosaveCanceller interface {
	Cancel(giftID uuid.UUID)
}

type GiftService struct {
	log      *slog.Logger
	repo     repository.GiftRepository
	media    MediaService
	content  ContentRemover
	autosave AutosaveCanceller
	now      func() time.Time
}

func NewGiftService(
	log *slog.Logger,
	repo repository.GiftRepository,
	media MediaService,
	content ContentRemover,
	autosave AutosaveCanceller,
) *GiftService {
	return &GiftService{
		log:      log,
		repo:     repo,
		media:    media,
		content:  content,
		autosave: autosave,
		now:      time.Now,
	}
}

// DefaultOpenDate полночь N-го декабря текущего года (UTC), номера больше 31 открываются 31-го.
func DefaultOpenDate(number int, now time.Time) time.Time {
	day := number
	if day > 31 {
		day = 31
	}
	if day < 1 {
		day = 1
	}
	return time.Date(now.UTC().Year(), time.December, day, 0, 0, 0, 0, time.UTC)
}

// Create создаёт подарок, незаполненные поля получают значения по умолчанию.
func (s *GiftService) Create(ctx context.Context, req dto.CreateGiftRequest) (*models.Gift, error) {
	const op = "gift_service.Create"
	log := s.log.With(slog.String("op", op), slog.Int("number", req.Number))

	if req.Number < 1 {
		return nil, fmt.Errorf("%s: number must be positive: %w", op, errs.ErrInvalidInput)
	}

	gift := models.Gift{
		Number:       req.Number,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Hint:         req.Hint,
		HintImageURL: req.HintImageURL,
		CoverURL:     req.CoverURL,
	}

	if gift.Title == "" {
		gift.Title = fmt.Sprintf("Подарок №%d", req.Number)
	}

	if req.OpenDate != nil {
		gift.OpenDate = req.OpenDate.UTC()
	} else {
		gift.OpenDate = DefaultOpenDate(req.Number, s.now())
		log.Debug("set default open date", slog.Time("open_date", gift.OpenDate))
	}

	created, err := s.repo.CreateGift(ctx, gift)
	if err != nil {
		log.Error("failed to create gift", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gift created", slog.String("gift_id", created.ID.String()))

	return created, nil
}

// Get подарок вместе с фотографией на память, если она есть.
func (s *GiftService) Get(ctx context.Context, id uuid.UUID) (*models.Gift, error) {
	const op = "gift_service.Get"

	gift, err := s.repo.GetGift(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.attachPhoto(ctx, gift); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return gift, nil
}

func (s *GiftService) GetByNumber(ctx context.Context, number int) (*models.Gift, error) {
	const op = "gift_service.GetByNumber"

	gift, err := s.repo.GetGiftByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.attachPhoto(ctx, gift); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return gift, nil
}

func (s *GiftService) attachPhoto(ctx context.Context, gift *models.Gift) error {
	photo, err := s.repo.GetMemoryPhoto(ctx, gift.ID)
	if err != nil {
		if errors.Is(err, storage.ErrPhotoNotFound) {
			return nil
		}
		return err
	}

	gift.MemoryPhoto = photo
	return nil
}

func (s *GiftService) List(ctx context.Context) ([]models.Gift, error) {
	const op = "gift_service.List"

	gifts, err := s.repo.ListGifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return gifts, nil
}

func (s *GiftService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateGiftRequest) (*models.Gift, error) {
	const op = "gift_service.Update"
	log := s.log.With(slog.String("op", op), slog.String("gift_id", id.String()))

	updates := req.Updates()
	if len(updates) == 0 {
		return nil, fmt.Errorf("%s: nothing to update: %w", op, errs.ErrInvalidInput)
	}

	if title, ok := updates["title"].(string); ok && strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%s: title is empty: %w", op, errs.ErrInvalidInput)
	}

	if err := s.repo.UpdateGiftFields(ctx, id, updates); err != nil {
		log.Error("failed to update gift", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gift updated", slog.Int("fields", len(updates)))

	return s.Get(ctx, id)
}

// Delete удаляет подарок и всё, что к нему привязано: файлы, контент, версию.
// Запись в базе удаляется первой, остальное чистится параллельно.
func (s *GiftService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "gift_service.Delete"
	log := s.log.With(slog.String("op", op), slog.String("gift_id", id.String()))

	if s.autosave != nil {
		s.autosave.Cancel(id)
	}

	if err := s.repo.DeleteGift(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.media.RemoveGift(gctx, id); err != nil {
			return fmt.Errorf("remove files: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := s.content.Delete(gctx, id); err != nil {
			return fmt.Errorf("remove content: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("gift deleted, cleanup incomplete", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gift deleted")

	return nil
}

// UploadAsset загружает файл подарка (обложку, картинку подсказки и т.п.).
func (s *GiftService) UploadAsset(ctx context.Context, id uuid.UUID, hint models.UploadHint, file *multipart.FileHeader) (*models.UploadedFile, error) {
	const op = "gift_service.UploadAsset"

	if _, err := s.repo.GetGift(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uploaded, err := s.media.Upload(ctx, id, hint, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return uploaded, nil
}

// SetMemoryPhoto загружает фото на память и заменяет предыдущее.
func (s *GiftService) SetMemoryPhoto(ctx context.Context, id uuid.UUID, caption string, file *multipart.FileHeader) (*models.MemoryPhoto, error) {
	const op = "gift_service.SetMemoryPhoto"
	log := s.log.With(slog.String("op", op), slog.String("gift_id", id.String()))

	if _, err := s.repo.GetGift(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	previous, err := s.repo.GetMemoryPhoto(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrPhotoNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uploaded, err := s.media.Upload(ctx, id, models.UploadHintMemory, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if uploaded.MediaType != models.MediaTypePhoto {
		s.removeFile(ctx, log, uploaded.StoragePath)
		return nil, fmt.Errorf("%s: memory photo must be an image: %w", op, errs.ErrInvalidInput)
	}

	photo, err := s.repo.UpsertMemoryPhoto(ctx, models.MemoryPhoto{
		GiftID:      id,
		URL:         uploaded.URL,
		StoragePath: uploaded.StoragePath,
		Caption:     caption,
	})
	if err != nil {
		s.removeFile(ctx, log, uploaded.StoragePath)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if previous != nil && previous.StoragePath != uploaded.StoragePath {
		s.removeFile(ctx, log, previous.StoragePath)
	}

	log.Info("memory photo set", slog.String("url", photo.URL))

	return photo, nil
}

func (s *GiftService) DeleteMemoryPhoto(ctx context.Context, id uuid.UUID) error {
	const op = "gift_service.DeleteMemoryPhoto"
	log := s.log.With(slog.String("op", op), slog.String("gift_id", id.String()))

	photo, err := s.repo.GetMemoryPhoto(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.DeleteMemoryPhoto(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.removeFile(ctx, log, photo.StoragePath)

	return nil
}

// removeFile осиротевший файл не повод проваливать операцию.
func (s *GiftService) removeFile(ctx context.Context, log *slog.Logger, path string) {
	if err := s.media.Remove(ctx, path); err != nil {
		log.Warn("failed to remove file", slog.String("path", path), sl.Err(err))
	}
}

// Roadmap сетка подарков на момент at.
func (s *GiftService) Roadmap(ctx context.Context, at time.Time) ([]models.RoadmapItem, error) {
	const op = "gift_service.Roadmap"

	gifts, err := s.repo.ListGifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]models.RoadmapItem, 0, len(gifts))
	for _, g := range gifts {
		item := models.RoadmapItem{
			Number:   g.Number,
			Title:    g.Title,
			OpenDate: g.OpenDate,
			Open:     g.IsOpen(at),
		}

		// до открытия видна только подсказка, обложка остаётся сюрпризом
		if !item.Open {
			item.Hint = g.Hint
			items = append(items, item)
			continue
		}

		item.CoverURL = g.CoverURL
		if g.CoverURL != "" {
			if ratio, ok := s.media.Ratio(g.CoverURL); ok {
				item.CoverRatio = ratio
			}
		}

		items = append(items, item)
	}

	return items, nil
}

// GetOpenGift подарок для посетителя. Закрытый подарок возвращается вместе
// с errs.ErrGiftLocked, чтобы можно было показать дату и подсказку.
func (s *GiftService) GetOpenGift(ctx context.Context, number int, at time.Time) (*models.Gift, error) {
	const op = "gift_service.GetOpenGift"

	gift, err := s.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !gift.IsOpen(at) {
		return gift, fmt.Errorf("%s: %w", op, errs.ErrGiftLocked)
	}

	return gift, nil
}
