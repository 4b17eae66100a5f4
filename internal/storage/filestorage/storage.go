package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"advent_calendar/internal/storage"
)

// FileStorage интерфейс для работы с файловым хранилищем загрузок
type FileStorage interface {
	// contentType тип, определённый по содержимому файла, а не присланный клиентом
	Save(ctx context.Context, file *multipart.FileHeader, subPath, name, contentType string) (filePath string, fileSize int64, err error)
	Delete(ctx context.Context, filePath string) error
	DeletePrefix(ctx context.Context, prefix string) error
	URL(filePath string) string
}

// LocalFileStorage реализация для локальной файловой системы
type LocalFileStorage struct {
	baseDir string // Базовый каталог для хранения (например: "./uploads")
	baseURL string // Базовый URL для доступа к файлам (например: "/uploads")
}

func NewLocalFileStorage(baseDir, baseURL string) (*LocalFileStorage, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save сохраняет файл под именем name в каталоге subPath.
// Возвращает относительный путь со слешами, одинаковый для всех бэкендов.
// contentType локально не нужен: тип при раздаче определяет http.FileServer.
func (s *LocalFileStorage) Save(ctx context.Context, file *multipart.FileHeader, subPath, name, _ string) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	relPath := path.Join(filepath.ToSlash(subPath), name)
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directories: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	// Создаем целевой файл
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	done := make(chan struct{})
	var size int64
	var copyErr error

	go func() {
		size, copyErr = io.Copy(dst, src)
		close(done)
	}()

	select {
	case <-done:
		if copyErr != nil {
			_ = os.Remove(fullPath)
			return "", 0, fmt.Errorf("failed to copy file: %w", copyErr)
		}
	case <-ctx.Done():
		<-done
		_ = os.Remove(fullPath)
		return "", 0, ctx.Err()
	}

	return relPath, size, nil
}

// Delete удаляет файл из хранилища
func (s *LocalFileStorage) Delete(ctx context.Context, filePath string) error {
	fullPath, err := s.resolve(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrFileNotFound
		}
		return err
	}

	return nil
}

// DeletePrefix удаляет каталог целиком; отсутствие каталога не ошибка.
func (s *LocalFileStorage) DeletePrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.resolve(prefix)
	if err != nil {
		return err
	}
	if fullPath == filepath.Clean(s.baseDir) {
		return fmt.Errorf("refusing to delete storage root")
	}

	return os.RemoveAll(fullPath)
}

// URL возвращает публичный адрес файла
func (s *LocalFileStorage) URL(filePath string) string {
	return s.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(filePath), "/")
}

// GetFullPath возвращает полный путь к файлу на диске
func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(relativePath))
}

func (s *LocalFileStorage) GetBaseDir() string {
	return s.baseDir
}

// resolve не даёт выйти за пределы baseDir через "..".
func (s *LocalFileStorage) resolve(relPath string) (string, error) {
	base := filepath.Clean(s.baseDir)
	full := filepath.Join(base, filepath.FromSlash(relPath))
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", relPath)
	}
	return full, nil
}
