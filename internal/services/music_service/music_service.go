package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"advent_calendar/internal/config"
	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/lib/logger/sl"
	"advent_calendar/internal/metrics"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	ErrUnsupportedURL  = errors.New("not a Yandex Music link")
	ErrNoMetadata      = errors.New("track metadata not found on page")
	ErrRedirectBlocked = errors.New("redirect outside Yandex Music")
)

var yandexHosts = []string{
	"music.yandex.ru",
	"music.yandex.com",
	"music.yandex.by",
	"music.yandex.kz",
	"music.yandex.uz",
}

const (
	maxPageSize     = 2 << 20
	maxRedirects    = 5
	coverSize       = "400x400"
	enrichParallel  = 3
	defaultTimeout  = 10 * time.Second
	defaultUA       = "Mozilla/5.0 (compatible; advent-calendar/1.0)"
	acceptHTMLTypes = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"
)

// TrackInfo то, что удалось вытащить со страницы трека.
type TrackInfo struct {
	Artist    string `json:"artist"`
	TrackName string `json:"trackName"`
	CoverURL  string `json:"coverUrl"`
	Duration  *int   `json:"duration,omitempty"`
}

type MusicService struct {
	log       *slog.Logger
	client    *http.Client
	limiter   *rate.Limiter
	cache     *cache.Cache
	userAgent string
	hosts     []string
}

type Option func(*MusicService)

func WithHTTPClient(client *http.Client) Option {
	return func(s *MusicService) { s.client = client }
}

// WithAllowedHosts заменяет список хостов Яндекс Музыки.
func WithAllowedHosts(hosts ...string) Option {
	return func(s *MusicService) { s.hosts = hosts }
}

func NewMusicService(log *slog.Logger, cfg config.ScraperConfig, cacheTTL time.Duration, opts ...Option) *MusicService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUA
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	s := &MusicService{
		log:       log,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, burst),
		cache:     cache.New(cacheTTL, 2*cacheTTL),
		userAgent: ua,
		hosts:     yandexHosts,
	}
	for _, opt := range opts {
		opt(s)
	}

	// копия, чтобы не менять клиент, переданный через WithHTTPClient
	client := *s.client
	client.CheckRedirect = s.checkRedirect
	s.client = &client

	return s
}

// checkRedirect разрешает переходы только между хостами Яндекс Музыки.
func (s *MusicService) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if !s.IsYandexMusicURL(req.URL.String()) {
		return fmt.Errorf("%w: %s", ErrRedirectBlocked, req.URL.Host)
	}
	return nil
}

// IsYandexMusicURL проверяет, что ссылка ведёт на Яндекс Музыку.
func (s *MusicService) IsYandexMusicURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return slices.Contains(s.hosts, strings.ToLower(u.Hostname()))
}

// Fetch загружает страницу трека и извлекает метаданные.
func (s *MusicService) Fetch(ctx context.Context, rawURL string) (*TrackInfo, error) {
	const op = "music_service.Fetch"
	log := s.log.With(
		slog.String("op", op),
		slog.String("url", rawURL),
	)

	rawURL = strings.TrimSpace(rawURL)
	if !s.IsYandexMusicURL(rawURL) {
		metrics.ScrapesTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%s: %w", op, ErrUnsupportedURL)
	}

	if v, ok := s.cache.Get(rawURL); ok {
		info := v.(TrackInfo)
		metrics.ScrapesTotal.WithLabelValues("cached").Inc()
		return &info, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", acceptHTMLTypes)
	req.Header.Set("Accept-Language", "ru,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn("failed to fetch page", sl.Err(err))
		metrics.ScrapesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ScrapesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		metrics.ScrapesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	info, err := parseTrackPage(body)
	if err != nil {
		log.Warn("failed to parse page", sl.Err(err))
		metrics.ScrapesTotal.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.SetDefault(rawURL, *info)
	metrics.ScrapesTotal.WithLabelValues("ok").Inc()
	log.Debug("track metadata fetched", slog.String("artist", info.Artist), slog.String("track", info.TrackName))

	return info, nil
}

// enrichTrack дополняет трек. Неудача не ошибка: возвращается исходный трек,
// пустые значения со страницы не затирают введённые вручную.
func (s *MusicService) enrichTrack(ctx context.Context, track models.MusicTrack) (models.MusicTrack, bool) {
	link := track.YandexMusicURL
	if link == "" && s.IsYandexMusicURL(track.URL) {
		link = track.URL
	}
	if link == "" {
		return track, false
	}

	info, err := s.Fetch(ctx, link)
	if err != nil {
		return track, false
	}

	out := track
	if info.Artist != "" {
		out.Artist = info.Artist
	}
	if info.TrackName != "" {
		out.TrackName = info.TrackName
	}
	if info.CoverURL != "" {
		out.CoverURL = info.CoverURL
	}
	if info.Duration != nil {
		d := *info.Duration
		out.Duration = &d
	}
	if out.YandexMusicURL == "" {
		out.YandexMusicURL = link
	}

	return out, true
}

// Enrich возвращает копию блока с метаданными со страницы трека.
func (s *MusicService) Enrich(ctx context.Context, block *models.MusicBlock) (*models.MusicBlock, bool) {
	track, ok := s.enrichTrack(ctx, block.MusicTrack)
	return &models.MusicBlock{MusicTrack: track}, ok
}

// EnrichGallery дополняет треки подборки параллельно. Возвращает число обновлённых.
func (s *MusicService) EnrichGallery(ctx context.Context, block *models.MusicGalleryBlock) (*models.MusicGalleryBlock, int) {
	out := &models.MusicGalleryBlock{
		Title:  block.Title,
		Tracks: make([]models.MusicTrack, len(block.Tracks)),
	}
	updated := make([]bool, len(block.Tracks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichParallel)

	for i, track := range block.Tracks {
		g.Go(func() error {
			out.Tracks[i], updated[i] = s.enrichTrack(gctx, track)
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range updated {
		if ok {
			n++
		}
	}

	return out, n
}
