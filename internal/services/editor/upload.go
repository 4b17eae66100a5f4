package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/lib/logger/sl"

	"github.com/google/uuid"
)

var ErrNotMediaField = errors.New("field does not accept uploads")

// Uploader загрузчик файлов блоков (media_service).
type Uploader interface {
	Upload(ctx context.Context, giftID uuid.UUID, hint models.UploadHint, file *multipart.FileHeader) (*models.UploadedFile, error)
	Remove(ctx context.Context, storagePath string) error
}

// UploadError ошибка загрузки с сообщением, которое можно показать в редакторе.
type UploadError struct {
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

type Editor struct {
	log      *slog.Logger
	uploader Uploader
}

func New(log *slog.Logger, uploader Uploader) *Editor {
	return &Editor{log: log, uploader: uploader}
}

// Upload загружает файл для медиа-поля по пути path и возвращает новый блок
// с проставленным URL. При любой ошибке возвращается исходный блок.
func (e *Editor) Upload(ctx context.Context, giftID uuid.UUID, block models.Block, path string, file *multipart.FileHeader) (models.Block, *models.UploadedFile, error) {
	const op = "editor.Upload"
	log := e.log.With(
		slog.String("op", op),
		slog.String("gift_id", giftID.String()),
		slog.String("path", path),
	)

	f, err := FieldAt(block, path)
	if err != nil {
		return block, nil, fmt.Errorf("%s: %w", op, err)
	}
	if f.Kind != FieldMedia {
		return block, nil, fmt.Errorf("%s: %s: %w", op, path, ErrNotMediaField)
	}

	uploaded, err := e.uploader.Upload(ctx, giftID, models.UploadHintBlock, file)
	if err != nil {
		log.Warn("upload failed", sl.Err(err))
		msg := "Не удалось загрузить файл, попробуйте ещё раз"
		var verr *models.MediaValidationError
		if errors.As(err, &verr) {
			msg = verr.Error()
		}
		return block, nil, &UploadError{Message: msg, Err: err}
	}

	if f.Media != "" && uploaded.MediaType != f.Media {
		log.Warn("uploaded file does not match field", slog.String("media_type", string(uploaded.MediaType)))
		if err := e.uploader.Remove(ctx, uploaded.StoragePath); err != nil {
			log.Error("failed to remove mismatched upload", sl.Err(err))
		}
		return block, nil, &UploadError{
			Message: fmt.Sprintf("Поле ожидает файл типа %s", f.Media),
			Err:     ErrInvalidValue,
		}
	}

	value, err := json.Marshal(uploaded.URL)
	if err != nil {
		return block, nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := Apply(block, map[string]json.RawMessage{path: value})
	if err != nil {
		return block, nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("block media uploaded", slog.String("url", uploaded.URL))
	return updated, uploaded, nil
}
