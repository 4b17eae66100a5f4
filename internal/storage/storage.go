package storage

import "errors"

var (
	ErrGiftNotFound    = errors.New("gift not found")
	ErrGiftExists      = errors.New("gift with this number already exists")
	ErrContentNotFound = errors.New("content not found")
	ErrPhotoNotFound   = errors.New("memory photo not found")
)

var (
	ErrFileTooLarge    = errors.New("file size exceeds limit")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileNotFound    = errors.New("file not found")
)

// ErrContentBusy не удалось дождаться блокировки записи контента.
var ErrContentBusy = errors.New("content is being written by another process")
