package services

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"advent_calendar/internal/config"
	"advent_calendar/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonLDPage = `<!doctype html><html><head>
<title>Шторм — Би-2. Слушать онлайн на Яндекс Музыке</title>
<meta property="og:image" content="//avatars.yandex.net/get-music-content/og/%%">
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"MusicRecording","name":"Шторм",
 "byArtist":[{"@type":"MusicGroup","name":"Би-2"}],
 "image":"//avatars.yandex.net/get-music-content/ld/%%","duration":"PT3M25S"}
</script>
</head><body></body></html>`

const metaPage = `<html><head>
<meta property="og:title" content="Звезда по имени Солнце">
<meta property="og:description" content="Кино • Трек • 1989">
<meta property="og:image" content="https://avatars.yandex.net/cover/200x200">
<meta property="music:duration" content="226">
</head></html>`

const titleOnlyPage = `<html><head><title>Перемен — Кино. Слушать онлайн на Яндекс Музыке</title></head></html>`

func TestParseTrackPage(t *testing.T) {
	tests := []struct {
		name string
		page string
		want TrackInfo
		dur  int
	}{
		{
			name: "json-ld",
			page: jsonLDPage,
			want: TrackInfo{Artist: "Би-2", TrackName: "Шторм", CoverURL: "https://avatars.yandex.net/get-music-content/ld/400x400"},
			dur:  205,
		},
		{
			name: "open graph",
			page: metaPage,
			want: TrackInfo{Artist: "Кино", TrackName: "Звезда по имени Солнце", CoverURL: "https://avatars.yandex.net/cover/200x200"},
			dur:  226,
		},
		{
			name: "title only",
			page: titleOnlyPage,
			want: TrackInfo{Artist: "Кино", TrackName: "Перемен"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseTrackPage([]byte(tt.page))
			require.NoError(t, err)

			assert.Equal(t, tt.want.Artist, info.Artist)
			assert.Equal(t, tt.want.TrackName, info.TrackName)
			assert.Equal(t, tt.want.CoverURL, info.CoverURL)
			if tt.dur > 0 {
				require.NotNil(t, info.Duration)
				assert.Equal(t, tt.dur, *info.Duration)
			} else {
				assert.Nil(t, info.Duration)
			}
		})
	}

	_, err := parseTrackPage([]byte(`<html><body>captcha</body></html>`))
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestParseISODuration(t *testing.T) {
	d, ok := parseISODuration("PT1H2M3S")
	require.True(t, ok)
	assert.Equal(t, 3723, d)

	_, ok = parseISODuration("PT")
	assert.False(t, ok)
	_, ok = parseISODuration("3:25")
	assert.False(t, ok)
}

func newTestService(t *testing.T, handler http.HandlerFunc) (*MusicService, string) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewMusicService(log, config.ScraperConfig{Timeout: time.Second, RPS: 100, Burst: 10}, time.Minute,
		WithHTTPClient(srv.Client()),
		WithAllowedHosts(u.Hostname()),
	)

	return svc, srv.URL
}

func TestMusicService_Fetch(t *testing.T) {
	var hits atomic.Int32
	svc, base := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(jsonLDPage))
	})
	ctx := context.Background()

	info, err := svc.Fetch(ctx, base+"/album/1/track/2")
	require.NoError(t, err)
	assert.Equal(t, "Шторм", info.TrackName)

	_, err = svc.Fetch(ctx, base+"/album/1/track/2")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second lookup must come from cache")

	_, err = svc.Fetch(ctx, base+"/missing")
	assert.Error(t, err)

	_, err = svc.Fetch(ctx, "https://open.spotify.com/track/1")
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestMusicService_FetchRedirects(t *testing.T) {
	var offsite atomic.Int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offsite.Add(1)
	}))
	t.Cleanup(other.Close)
	// тот же сервер, но под именем, которого нет в списке разрешённых
	otherURL := strings.Replace(other.URL, "127.0.0.1", "localhost", 1)

	svc, base := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/short":
			http.Redirect(w, r, "/album/1/track/2", http.StatusFound)
		case "/leak":
			http.Redirect(w, r, otherURL+"/track/2", http.StatusFound)
		case "/loop":
			http.Redirect(w, r, "/loop", http.StatusFound)
		default:
			_, _ = w.Write([]byte(jsonLDPage))
		}
	})
	ctx := context.Background()

	info, err := svc.Fetch(ctx, base+"/short")
	require.NoError(t, err)
	assert.Equal(t, "Шторм", info.TrackName)

	_, err = svc.Fetch(ctx, base+"/leak")
	assert.ErrorIs(t, err, ErrRedirectBlocked)
	assert.Zero(t, offsite.Load())

	_, err = svc.Fetch(ctx, base+"/loop")
	assert.Error(t, err)
}

func TestMusicService_InjectedClientUntouched(t *testing.T) {
	client := &http.Client{}
	NewMusicService(slog.New(slog.NewTextHandler(io.Discard, nil)), config.ScraperConfig{}, time.Minute,
		WithHTTPClient(client),
	)
	assert.Nil(t, client.CheckRedirect)
}

func TestMusicService_DefaultHosts(t *testing.T) {
	svc := NewMusicService(slog.New(slog.NewTextHandler(io.Discard, nil)), config.ScraperConfig{}, time.Minute)

	assert.True(t, svc.IsYandexMusicURL("https://music.yandex.ru/album/1/track/2"))
	assert.True(t, svc.IsYandexMusicURL(" https://MUSIC.yandex.com/track/2 "))
	assert.False(t, svc.IsYandexMusicURL("https://yandex.ru/music"))
	assert.False(t, svc.IsYandexMusicURL("ftp://music.yandex.ru/x"))
	assert.False(t, svc.IsYandexMusicURL("/uploads/song.mp3"))
}

func TestMusicService_Enrich(t *testing.T) {
	svc, base := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/meta":
			_, _ = w.Write([]byte(metaPage))
		case "/title":
			_, _ = w.Write([]byte(titleOnlyPage))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	ctx := context.Background()

	t.Run("success overwrites only non-empty values", func(t *testing.T) {
		block := &models.MusicBlock{MusicTrack: models.MusicTrack{
			URL:            "/uploads/song.mp3",
			CoverURL:       "/uploads/my-cover.jpg",
			YandexMusicURL: base + "/title",
		}}

		got, ok := svc.Enrich(ctx, block)
		require.True(t, ok)
		assert.Equal(t, "Кино", got.Artist)
		assert.Equal(t, "Перемен", got.TrackName)
		assert.Equal(t, "/uploads/my-cover.jpg", got.CoverURL, "empty scraped cover must not erase the manual one")
		assert.Empty(t, block.Artist, "input must stay untouched")
	})

	t.Run("failure leaves block untouched", func(t *testing.T) {
		block := &models.MusicBlock{MusicTrack: models.MusicTrack{
			URL:            "/uploads/song.mp3",
			Artist:         "Manual",
			TrackName:      "Entry",
			YandexMusicURL: base + "/down",
		}}

		got, ok := svc.Enrich(ctx, block)
		assert.False(t, ok)
		assert.Equal(t, block.MusicTrack, got.MusicTrack)
	})

	t.Run("gallery", func(t *testing.T) {
		gallery := &models.MusicGalleryBlock{Title: "mix", Tracks: []models.MusicTrack{
			{URL: "/1.mp3", YandexMusicURL: base + "/meta"},
			{URL: "/2.mp3", Artist: "kept"},
			{URL: "/3.mp3", YandexMusicURL: base + "/down", Artist: "also kept"},
		}}

		got, n := svc.EnrichGallery(ctx, gallery)
		assert.Equal(t, 1, n)
		assert.Equal(t, "mix", got.Title)
		require.Len(t, got.Tracks, 3)
		assert.Equal(t, "Кино", got.Tracks[0].Artist)
		require.NotNil(t, got.Tracks[0].Duration)
		assert.Equal(t, 226, *got.Tracks[0].Duration)
		assert.Equal(t, "kept", got.Tracks[1].Artist)
		assert.Equal(t, "also kept", got.Tracks[2].Artist)
		assert.Empty(t, gallery.Tracks[0].Artist)
	})
}
