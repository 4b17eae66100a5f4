// Package errs содержит сквозные sentinel-ошибки сервисного слоя.
package errs

import "errors"

var (
	// ErrNotFound сущность не найдена.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict запись опирается на устаревшую версию контента.
	ErrVersionConflict = errors.New("version conflict")

	// ErrGiftLocked подарок ещё не открыт.
	ErrGiftLocked = errors.New("gift is locked")

	// ErrInvalidInput входные данные не прошли проверку.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized неверные учётные данные администратора.
	ErrUnauthorized = errors.New("unauthorized")
)
