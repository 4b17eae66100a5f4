package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UploadHint логическая подпапка загрузки.
type UploadHint string

const (
	UploadHintHint   UploadHint = "hint"
	UploadHintCover  UploadHint = "cover"
	UploadHintMemory UploadHint = "memory"
	UploadHintBlock  UploadHint = "block"
)

var UploadHints = []UploadHint{UploadHintHint, UploadHintCover, UploadHintMemory, UploadHintBlock}

func (h UploadHint) Valid() bool {
	switch h {
	case UploadHintHint, UploadHintCover, UploadHintMemory, UploadHintBlock:
		return true
	}
	return false
}

type MediaType string

const (
	MediaTypePhoto MediaType = "photo"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

// MediaTypeFromMIME определяет тип медиа по MIME, пустая строка если тип не поддерживается.
func MediaTypeFromMIME(mime string) MediaType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return MediaTypePhoto
	case strings.HasPrefix(mime, "video/"):
		return MediaTypeVideo
	case strings.HasPrefix(mime, "audio/"):
		return MediaTypeAudio
	}
	return ""
}

// UploadedFile результат загрузки файла.
type UploadedFile struct {
	GiftID      uuid.UUID  `json:"gift_id"`
	Hint        UploadHint `json:"hint"`
	MediaType   MediaType  `json:"media_type"`
	StoragePath string     `json:"storage_path"`
	URL         string     `json:"url"`
	FileSize    int64      `json:"file_size"`
	MimeType    string     `json:"mime_type,omitempty"`
	Width       *int       `json:"width,omitempty"`
	Height      *int       `json:"height,omitempty"`
}

// Ratio соотношение сторон картинки, 0 если размеры неизвестны.
func (f UploadedFile) Ratio() float64 {
	if f.Width == nil || f.Height == nil || *f.Height == 0 {
		return 0
	}
	return float64(*f.Width) / float64(*f.Height)
}

// Validate проверяет корректность данных загруженного файла
func (f *UploadedFile) Validate() error {
	var validationErrors []string

	if f.GiftID == uuid.Nil {
		validationErrors = append(validationErrors, "gift ID is required")
	}
	if !f.Hint.Valid() {
		validationErrors = append(validationErrors,
			fmt.Sprintf("invalid upload hint '%s', must be one of: %v", f.Hint, UploadHints))
	}
	if f.StoragePath == "" {
		validationErrors = append(validationErrors, "storage path is required")
	}
	if f.FileSize <= 0 {
		validationErrors = append(validationErrors, "file size must be positive")
	}

	switch f.MediaType {
	case MediaTypePhoto, MediaTypeVideo, MediaTypeAudio:
		if f.MediaType != MediaTypePhoto && f.Hint != UploadHintBlock {
			validationErrors = append(validationErrors,
				fmt.Sprintf("%s uploads must be images", f.Hint))
		}
	default:
		validationErrors = append(validationErrors,
			fmt.Sprintf("unsupported media type for mime '%s'", f.MimeType))
	}

	if len(validationErrors) > 0 {
		return &MediaValidationError{
			Errors: validationErrors,
		}
	}

	return nil
}

// MediaValidationError кастомный тип ошибки для валидации
type MediaValidationError struct {
	Errors []string
}

func (e *MediaValidationError) Error() string {
	return fmt.Sprintf("media validation failed: %s", strings.Join(e.Errors, "; "))
}

// IsMediaValidationError проверяет, является ли ошибка ошибкой валидации
func IsMediaValidationError(err error) bool {
	var target *MediaValidationError
	return errors.As(err, &target)
}
