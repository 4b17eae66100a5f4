package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpapp "advent_calendar/internal/app/http"
	"advent_calendar/internal/config"
	"advent_calendar/internal/lib/logger/sl"
	"advent_calendar/internal/render"
	"advent_calendar/internal/repository"
	"advent_calendar/internal/services/auth"
	contentsvc "advent_calendar/internal/services/content_service"
	"advent_calendar/internal/services/editor"
	giftsvc "advent_calendar/internal/services/gift_service"
	mediasvc "advent_calendar/internal/services/media_service"
	musicsvc "advent_calendar/internal/services/music_service"
	"advent_calendar/internal/storage/content"
	"advent_calendar/internal/storage/filestorage"
	redisapp "advent_calendar/internal/storage/redis"
	s3app "advent_calendar/internal/storage/s3"
	httprouters "advent_calendar/internal/transport/http"

	"github.com/minio/minio-go/v7"
)

type App struct {
	log        *slog.Logger
	HTTPServer *httpapp.Server
	Autosaver  *contentsvc.Autosaver
	repo       *repository.Repository
	closers    []func() error
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	a := &App{log: log}

	repo, err := repository.NewRepository(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.repo = repo
	health := []httprouters.HealthChecker{repo}

	var s3client *minio.Client
	if cfg.ContentStorage.Driver == config.ContentDriverS3 || cfg.FileStorage.Driver == config.FileDriverS3 {
		s3client, err = s3app.NewClient(cfg.S3)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s3app.EnsureBucket(ctx, s3client, cfg.S3.Bucket, cfg.S3.Region); err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	contentStorage, err := a.newContentStorage(cfg, s3client, true)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fileStorage, uploadsDir, err := newFileStorage(cfg, s3client)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	versions, redisPing := a.newVersionStore(cfg)
	if redisPing != nil {
		health = append(health, redisPing)
	}

	ratios := mediasvc.NewRatioCache(cfg.Cache.RatioTTL)
	mediaService := mediasvc.NewMediaService(log, fileStorage, cfg.FileStorage.MaxSize.Int64(), ratios)
	contentService := contentsvc.NewContentService(log, contentStorage, versions)
	autosaver := contentsvc.NewAutosaver(log, contentService, cfg.Autosave.Delay)
	giftService := giftsvc.NewGiftService(log, repo.Gift, mediaService, contentService, autosaver)
	musicService := musicsvc.NewMusicService(log, cfg.Scraper, cfg.Cache.ScrapeTTL)
	authService := auth.New(log, cfg.Auth.AdminLogin, cfg.Auth.AdminPasswordHash, cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	blockEditor := editor.New(log, mediaService)

	renderer, err := render.New()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	routers := httprouters.NewRouter(
		log,
		authService,
		giftService,
		contentService,
		autosaver,
		blockEditor,
		musicService,
		renderer,
	)
	routers.Health = health

	server := httpapp.New(log, cfg.HTTP, uploadsDir, cfg.FileStorage.BaseURL, routers)
	server.BuildRouters()

	a.HTTPServer = server
	a.Autosaver = autosaver

	return a, nil
}

// NewContentService собирает только слой контента, без базы и HTTP.
// Возвращаемая функция закрывает открытые хранилища.
func NewContentService(ctx context.Context, log *slog.Logger, cfg *config.Config) (*contentsvc.ContentService, func() error, error) {
	const op = "app.NewContentService"

	a := &App{log: log}

	var s3client *minio.Client
	if cfg.ContentStorage.Driver == config.ContentDriverS3 {
		client, err := s3app.NewClient(cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		s3client = client
	}

	// CLI живёт одну команду, кэш ему не нужен
	storage, err := a.newContentStorage(cfg, s3client, false)
	if err != nil {
		a.close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	versions, _ := a.newVersionStore(cfg)

	return contentsvc.NewContentService(log, storage, versions), a.close, nil
}

func (a *App) newVersionStore(cfg *config.Config) (contentsvc.VersionStore, httprouters.HealthChecker) {
	if cfg.Redis.RedisAddr == "" {
		a.log.Warn("redis is not configured, content versions are kept in memory")
		return contentsvc.NewMemoryVersionStore(), nil
	}

	client := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	a.closers = append(a.closers, client.Close)
	a.log.Info("content versions stored in redis", slog.String("addr", cfg.Redis.RedisAddr))

	return redisapp.NewVersionStore(client.Client), pingFunc(client.HealthCheck)
}

func (a *App) newContentStorage(cfg *config.Config, s3client *minio.Client, withCache bool) (content.Storage, error) {
	var (
		backend content.Storage
		err     error
	)

	switch cfg.ContentStorage.Driver {
	case config.ContentDriverLocal, "":
		backend, err = content.NewLocalStorage(cfg.ContentStorage.Dir)
	case config.ContentDriverPebble:
		var db *content.PebbleStorage
		db, err = content.NewPebbleStorage(cfg.ContentStorage.Dir)
		if err == nil {
			a.closers = append(a.closers, db.Close)
			backend = db
		}
	case config.ContentDriverS3:
		backend = content.NewS3Storage(s3client, cfg.S3.Bucket, cfg.ContentStorage.Prefix)
	default:
		return nil, fmt.Errorf("unknown content storage driver %q", cfg.ContentStorage.Driver)
	}
	if err != nil {
		return nil, err
	}

	a.log.Info("content storage ready", slog.String("driver", cfg.ContentStorage.Driver))

	if !withCache || cfg.Cache.ContentTTL <= 0 {
		return backend, nil
	}
	// без общего счётчика версий кэш не узнает о записи другого процесса
	if cfg.Redis.RedisAddr == "" {
		a.log.Warn("content cache disabled: redis is not configured")
		return backend, nil
	}
	return content.NewCachedStorage(backend, cfg.Cache.ContentTTL), nil
}

// newFileStorage второе значение: локальная папка для раздачи /uploads.
func newFileStorage(cfg *config.Config, s3client *minio.Client) (filestorage.FileStorage, string, error) {
	switch cfg.FileStorage.Driver {
	case config.FileDriverLocal, "":
		fs, err := filestorage.NewLocalFileStorage(cfg.FileStorage.BaseDir, cfg.FileStorage.BaseURL)
		if err != nil {
			return nil, "", err
		}
		return fs, cfg.FileStorage.BaseDir, nil
	case config.FileDriverS3:
		return filestorage.NewS3FileStorage(s3client, cfg.S3.Bucket, cfg.S3.PublicURL), "", nil
	}

	return nil, "", fmt.Errorf("unknown file storage driver %q", cfg.FileStorage.Driver)
}

// Stop останавливает приём запросов, дописывает отложенные автосохранения и
// закрывает хранилища.
func (a *App) Stop(ctx context.Context) error {
	const op = "app.Stop"

	var errs []error

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if a.Autosaver != nil {
		if err := a.Autosaver.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.close(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		a.log.Error("stopped with errors", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) close() error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if a.repo != nil {
		a.repo.Close()
		a.repo = nil
	}

	return errors.Join(errs...)
}
