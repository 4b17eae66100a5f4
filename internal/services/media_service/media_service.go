package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/lib/logger/sl"
	"advent_calendar/internal/metrics"
	"advent_calendar/internal/storage"
	"advent_calendar/internal/storage/filestorage"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// mediaExtensions типы, которые не распознаются по сигнатуре
var mediaExtensions = map[string]string{
	".mov":  "video/quicktime",
	".m4v":  "video/mp4",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".wav":  "audio/wav",
	".heic": "image/heic",
}

type MediaService struct {
	log         *slog.Logger
	fileStorage filestorage.FileStorage
	maxSize     int64
	ratios      *RatioCache
}

func NewMediaService(log *slog.Logger, fileStorage filestorage.FileStorage, maxSize int64, ratios *RatioCache) *MediaService {
	return &MediaService{
		log:         log,
		fileStorage: fileStorage,
		maxSize:     maxSize,
		ratios:      ratios,
	}
}

// Upload сохраняет файл в gifts/<id>/<hint>/<uuid><ext> и возвращает его публичный URL.
func (s *MediaService) Upload(ctx context.Context, giftID uuid.UUID, hint models.UploadHint, file *multipart.FileHeader) (*models.UploadedFile, error) {
	const op = "media_service.Upload"

	log := s.log.With(
		slog.String("op", op),
		slog.String("gift_id", giftID.String()),
		slog.String("hint", string(hint)),
		slog.String("filename", file.Filename),
	)

	log.Info("upload media")

	if !hint.Valid() {
		metrics.UploadsTotal.WithLabelValues(string(hint), "invalid").Inc()
		return nil, fmt.Errorf("%s: %w", op, &models.MediaValidationError{
			Errors: []string{fmt.Sprintf("invalid upload hint '%s', must be one of: %v", hint, models.UploadHints)},
		})
	}

	if s.maxSize > 0 && file.Size > s.maxSize {
		log.Warn("file too large", slog.Int64("size", file.Size))
		metrics.UploadsTotal.WithLabelValues(string(hint), "too_large").Inc()
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrFileTooLarge, &models.MediaValidationError{
			Errors: []string{fmt.Sprintf("file is %s, the limit is %s",
				humanize.Bytes(uint64(file.Size)), humanize.Bytes(uint64(s.maxSize)))},
		})
	}

	mimeType, width, height, err := inspect(file)
	if err != nil {
		log.Error("failed to inspect file", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
			ext = exts[0]
		}
	}

	subPath := path.Join("gifts", giftID.String(), string(hint))
	filePath, fileSize, err := s.fileStorage.Save(ctx, file, subPath, uuid.NewString()+ext, mimeType)
	if err != nil {
		log.Error("failed to save file", sl.Err(err))
		metrics.UploadsTotal.WithLabelValues(string(hint), "error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uploaded := &models.UploadedFile{
		GiftID:      giftID,
		Hint:        hint,
		MediaType:   models.MediaTypeFromMIME(mimeType),
		StoragePath: filePath,
		URL:         s.fileStorage.URL(filePath),
		FileSize:    fileSize,
		MimeType:    mimeType,
		Width:       width,
		Height:      height,
	}

	if err := uploaded.Validate(); err != nil {
		// Удаляем сохраненный файл при ошибке валидации
		_ = s.fileStorage.Delete(ctx, filePath)
		log.Warn("media validation failed", sl.Err(err))
		metrics.UploadsTotal.WithLabelValues(string(hint), "invalid").Inc()

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ratio := uploaded.Ratio(); ratio > 0 && s.ratios != nil {
		s.ratios.Set(uploaded.URL, ratio)
	}

	metrics.UploadsTotal.WithLabelValues(string(hint), "ok").Inc()
	metrics.UploadBytes.Observe(float64(fileSize))
	log.Info("media uploaded", slog.String("path", filePath), slog.String("size", humanize.Bytes(uint64(fileSize))))

	return uploaded, nil
}

// Remove удаляет загруженный файл; отсутствие файла не ошибка.
func (s *MediaService) Remove(ctx context.Context, storagePath string) error {
	const op = "media_service.Remove"

	if err := s.fileStorage.Delete(ctx, storagePath); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.ratios != nil {
		s.ratios.Invalidate(s.fileStorage.URL(storagePath))
	}

	return nil
}

// RemoveGift удаляет все загрузки подарка.
func (s *MediaService) RemoveGift(ctx context.Context, giftID uuid.UUID) error {
	const op = "media_service.RemoveGift"

	if err := s.fileStorage.DeletePrefix(ctx, path.Join("gifts", giftID.String())); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ratio соотношение сторон картинки по её URL из кэша.
func (s *MediaService) Ratio(url string) (float64, bool) {
	if s.ratios == nil || url == "" {
		return 0, false
	}
	return s.ratios.Get(url)
}

// inspect определяет MIME по содержимому и размеры картинки.
func inspect(file *multipart.FileHeader) (string, *int, *int, error) {
	src, err := file.Open()
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	mimeType := http.DetectContentType(head[:n])
	if models.MediaTypeFromMIME(mimeType) == "" {
		mimeType = fallbackMIME(file)
	}

	if models.MediaTypeFromMIME(mimeType) != models.MediaTypePhoto {
		return mimeType, nil, nil, nil
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return mimeType, nil, nil, nil
	}
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		// webp/heic без декодера: размеры неизвестны
		return mimeType, nil, nil, nil
	}

	w, h := cfg.Width, cfg.Height
	return mimeType, &w, &h, nil
}

func fallbackMIME(file *multipart.FileHeader) string {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if t, ok := mediaExtensions[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return strings.SplitN(t, ";", 2)[0]
	}
	if t := file.Header.Get("Content-Type"); t != "" {
		return t
	}
	return "application/octet-stream"
}
