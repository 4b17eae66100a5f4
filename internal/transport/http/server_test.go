package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpapp "advent_calendar/internal/app/http"
	"advent_calendar/internal/config"
	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/errs"
	"advent_calendar/internal/render"
	contentsvc "advent_calendar/internal/services/content_service"
	musicsvc "advent_calendar/internal/services/music_service"
	"advent_calendar/internal/storage"
	httprouters "advent_calendar/internal/transport/http"
	"advent_calendar/internal/transport/http/dto"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const adminToken = "good-token"

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Login(ctx context.Context, login, password string) (models.TokenPair, error) {
	args := m.Called(ctx, login, password)
	return args.Get(0).(models.TokenPair), args.Error(1)
}

func (m *MockAuthService) Verify(token string) (*models.TokenMeta, error) {
	if token == adminToken {
		return &models.TokenMeta{Subject: "admin"}, nil
	}
	return nil, errs.ErrUnauthorized
}

type MockGiftService struct{ mock.Mock }

func (m *MockGiftService) Create(ctx context.Context, req dto.CreateGiftRequest) (*models.Gift, error) {
	args := m.Called(ctx, req)
	g, _ := args.Get(0).(*models.Gift)
	return g, args.Error(1)
}

func (m *MockGiftService) Get(ctx context.Context, id uuid.UUID) (*models.Gift, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(*models.Gift)
	return g, args.Error(1)
}

func (m *MockGiftService) List(ctx context.Context) ([]models.Gift, error) {
	args := m.Called(ctx)
	g, _ := args.Get(0).([]models.Gift)
	return g, args.Error(1)
}

func (m *MockGiftService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateGiftRequest) (*models.Gift, error) {
	args := m.Called(ctx, id, req)
	g, _ := args.Get(0).(*models.Gift)
	return g, args.Error(1)
}

func (m *MockGiftService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGiftService) UploadAsset(ctx context.Context, id uuid.UUID, hint models.UploadHint, file *multipart.FileHeader) (*models.UploadedFile, error) {
	args := m.Called(ctx, id, hint, file)
	f, _ := args.Get(0).(*models.UploadedFile)
	return f, args.Error(1)
}

func (m *MockGiftService) SetMemoryPhoto(ctx context.Context, id uuid.UUID, caption string, file *multipart.FileHeader) (*models.MemoryPhoto, error) {
	args := m.Called(ctx, id, caption, file)
	p, _ := args.Get(0).(*models.MemoryPhoto)
	return p, args.Error(1)
}

func (m *MockGiftService) DeleteMemoryPhoto(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGiftService) Roadmap(ctx context.Context, at time.Time) ([]models.RoadmapItem, error) {
	args := m.Called(ctx, at)
	items, _ := args.Get(0).([]models.RoadmapItem)
	return items, args.Error(1)
}

func (m *MockGiftService) GetOpenGift(ctx context.Context, number int, at time.Time) (*models.Gift, error) {
	args := m.Called(ctx, number, at)
	g, _ := args.Get(0).(*models.Gift)
	return g, args.Error(1)
}

type MockContentService struct{ mock.Mock }

func (m *MockContentService) Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, bool, error) {
	args := m.Called(ctx, giftID)
	vc, _ := args.Get(0).(*models.VersionedContent)
	return vc, args.Bool(1), args.Error(2)
}

type MockAutosaver struct{ mock.Mock }

func (m *MockAutosaver) Schedule(giftID uuid.UUID, session string, base int64, content models.GiftContent) error {
	return m.Called(giftID, session, base, content).Error(0)
}

func (m *MockAutosaver) SaveNow(ctx context.Context, giftID uuid.UUID, session string, base int64, content models.GiftContent) (int64, error) {
	args := m.Called(ctx, giftID, session, base, content)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAutosaver) Status(giftID uuid.UUID) contentsvc.AutosaveStatus {
	return m.Called(giftID).Get(0).(contentsvc.AutosaveStatus)
}

type MockUploader struct{ mock.Mock }

func (m *MockUploader) Upload(ctx context.Context, giftID uuid.UUID, block models.Block, path string, file *multipart.FileHeader) (models.Block, *models.UploadedFile, error) {
	args := m.Called(ctx, giftID, block, path, file)
	b, _ := args.Get(0).(models.Block)
	f, _ := args.Get(1).(*models.UploadedFile)
	return b, f, args.Error(2)
}

type MockMusicService struct{ mock.Mock }

func (m *MockMusicService) Fetch(ctx context.Context, rawURL string) (*musicsvc.TrackInfo, error) {
	args := m.Called(ctx, rawURL)
	info, _ := args.Get(0).(*musicsvc.TrackInfo)
	return info, args.Error(1)
}

func (m *MockMusicService) Enrich(ctx context.Context, block *models.MusicBlock) (*models.MusicBlock, bool) {
	args := m.Called(ctx, block)
	return args.Get(0).(*models.MusicBlock), args.Bool(1)
}

func (m *MockMusicService) EnrichGallery(ctx context.Context, block *models.MusicGalleryBlock) (*models.MusicGalleryBlock, int) {
	args := m.Called(ctx, block)
	return args.Get(0).(*models.MusicGalleryBlock), args.Int(1)
}

type failingPing struct{}

func (failingPing) Ping(context.Context) error { return storage.ErrContentNotFound }

type RoutersTestSuite struct {
	suite.Suite
	auth     *MockAuthService
	gifts    *MockGiftService
	content  *MockContentService
	autosave *MockAutosaver
	uploader *MockUploader
	music    *MockMusicService
	routers  *httprouters.Routers
	echo     *echo.Echo
	now      time.Time
}

func TestRoutersSuite(t *testing.T) {
	suite.Run(t, new(RoutersTestSuite))
}

func (s *RoutersTestSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	s.auth = &MockAuthService{}
	s.gifts = &MockGiftService{}
	s.content = &MockContentService{}
	s.autosave = &MockAutosaver{}
	s.uploader = &MockUploader{}
	s.music = &MockMusicService{}
	s.now = time.Date(2025, 12, 10, 12, 0, 0, 0, time.UTC)

	s.routers = httprouters.NewRouter(log, s.auth, s.gifts, s.content, s.autosave, s.uploader, s.music, render.MustNew())
	s.routers.SetClock(func() time.Time { return s.now })

	server := httpapp.New(log, config.HTTPConfig{SessionSecret: "test-session-secret"}, "", "", s.routers)
	server.BuildRouters()
	s.echo = server.Echo()
}

func (s *RoutersTestSuite) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *RoutersTestSuite) admin(method, target, body string) *httptest.ResponseRecorder {
	return s.do(method, target, body, echo.HeaderAuthorization, "Bearer "+adminToken)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *RoutersTestSuite) TestLogin() {
	s.auth.On("Login", mock.Anything, "admin", "secret").Return(models.TokenPair{AccessToken: "tok", ExpiresAt: 1}, nil)
	s.auth.On("Login", mock.Anything, "admin", "wrong").Return(models.TokenPair{}, errs.ErrUnauthorized)

	rec := s.do(http.MethodPost, "/api/v1/login", `{"login":"admin","password":"secret"}`)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"access_token":"tok"`)

	rec = s.do(http.MethodPost, "/api/v1/login", `{"login":"admin","password":"wrong"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/login", `{"login":"admin"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RoutersTestSuite) TestAdminRequiresToken() {
	rec := s.do(http.MethodGet, "/api/v1/admin/gifts", "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/admin/gifts", "", echo.HeaderAuthorization, "Bearer forged")
	s.Equal(http.StatusUnauthorized, rec.Code)

	s.gifts.On("List", mock.Anything).Return([]models.Gift{{Number: 1}}, nil)
	rec = s.admin(http.MethodGet, "/api/v1/admin/gifts", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RoutersTestSuite) TestPublicGift_Open() {
	gift := &models.Gift{ID: uuid.New(), Number: 3, Title: "Третий", OpenDate: s.now.Add(-time.Hour)}
	s.gifts.On("GetOpenGift", mock.Anything, 3, s.now).Return(gift, nil)
	s.content.On("Load", mock.Anything, gift.ID).Return(&models.VersionedContent{
		Version: 2,
		Content: models.GiftContent{Blocks: models.BlockList{&models.TextBlock{Content: "hi"}}},
	}, true, nil)

	rec := s.do(http.MethodGet, "/api/v1/gifts/3", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	body := decode(s.T(), rec)
	data := body["data"].(map[string]interface{})
	s.Equal("Третий", data["title"])
	s.Contains(rec.Body.String(), `"type":"text"`)
}

func (s *RoutersTestSuite) TestPublicGift_Locked() {
	gift := &models.Gift{ID: uuid.New(), Number: 20, OpenDate: s.now.Add(240 * time.Hour), Hint: "ищи под ёлкой", Title: "секрет"}
	s.gifts.On("GetOpenGift", mock.Anything, 20, s.now).Return(gift, errs.ErrGiftLocked)

	rec := s.do(http.MethodGet, "/api/v1/gifts/20", "")
	s.Require().Equal(http.StatusForbidden, rec.Code)

	body := decode(s.T(), rec)
	s.Equal("locked", body["status"])
	s.Contains(rec.Body.String(), "ищи под ёлкой")
	s.NotContains(rec.Body.String(), "секрет")
	s.content.AssertNotCalled(s.T(), "Load", mock.Anything, mock.Anything)
}

func (s *RoutersTestSuite) TestPublicGift_NotFound() {
	s.gifts.On("GetOpenGift", mock.Anything, 99, s.now).Return(nil, storage.ErrGiftNotFound)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/v1/gifts/99", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/gifts/zero", "").Code)
}

func (s *RoutersTestSuite) TestGiftPage_DiceRollOncePerSession() {
	gift := &models.Gift{ID: uuid.New(), Number: 1, Title: "Первый", OpenDate: s.now.Add(-time.Hour)}
	s.gifts.On("GetOpenGift", mock.Anything, 1, s.now).Return(gift, nil)
	s.content.On("Load", mock.Anything, gift.ID).Return(&models.VersionedContent{}, false, nil)

	first := s.do(http.MethodGet, "/gifts/1", "")
	s.Require().Equal(http.StatusOK, first.Code)
	s.Contains(first.Body.String(), `data-dice-roll="true"`)

	cookies := first.Result().Cookies()
	s.Require().NotEmpty(cookies)

	req := httptest.NewRequest(http.MethodGet, "/gifts/1", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	second := httptest.NewRecorder()
	s.echo.ServeHTTP(second, req)

	s.Require().Equal(http.StatusOK, second.Code)
	s.NotContains(second.Body.String(), "data-dice-roll")
}

func (s *RoutersTestSuite) TestGiftPage_Locked() {
	gift := &models.Gift{ID: uuid.New(), Number: 24, OpenDate: s.now.Add(24 * time.Hour), Hint: "скоро"}
	s.gifts.On("GetOpenGift", mock.Anything, 24, s.now).Return(gift, errs.ErrGiftLocked)

	rec := s.do(http.MethodGet, "/gifts/24", "")
	s.Equal(http.StatusForbidden, rec.Code)
	s.Contains(rec.Body.String(), "скоро")
}

func (s *RoutersTestSuite) TestRoadmapPage() {
	s.gifts.On("Roadmap", mock.Anything, s.now).Return([]models.RoadmapItem{
		{Number: 1, Open: true, OpenDate: s.now.Add(-time.Hour)},
		{Number: 2, Open: false, OpenDate: s.now.Add(time.Hour), Hint: "завтра"},
	}, nil)

	rec := s.do(http.MethodGet, "/", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `href="/gifts/1"`)
	s.Contains(rec.Body.String(), "завтра")
}

func (s *RoutersTestSuite) TestCreateGift() {
	created := &models.Gift{ID: uuid.New(), Number: 5, Title: "Подарок №5"}
	s.gifts.On("Create", mock.Anything, mock.MatchedBy(func(req dto.CreateGiftRequest) bool {
		return req.Number == 5
	})).Return(created, nil).Once()
	s.gifts.On("Create", mock.Anything, mock.Anything).Return(nil, storage.ErrGiftExists).Once()

	rec := s.admin(http.MethodPost, "/api/v1/admin/gifts", `{"number":5}`)
	s.Equal(http.StatusCreated, rec.Code)

	rec = s.admin(http.MethodPost, "/api/v1/admin/gifts", `{"number":5}`)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.admin(http.MethodPost, "/api/v1/admin/gifts", `{"number":0}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RoutersTestSuite) TestGetGift_BadID() {
	rec := s.admin(http.MethodGet, "/api/v1/admin/gifts/not-a-uuid", "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.gifts.AssertNotCalled(s.T(), "Get", mock.Anything, mock.Anything)
}

func (s *RoutersTestSuite) TestSaveContent() {
	gift := &models.Gift{ID: uuid.New(), Number: 1}
	s.gifts.On("Get", mock.Anything, gift.ID).Return(gift, nil)
	target := "/api/v1/admin/gifts/" + gift.ID.String() + "/content"

	s.Run("saved", func() {
		s.autosave.On("SaveNow", mock.Anything, gift.ID, "tab-1", int64(0), mock.Anything).Return(int64(1), nil).Once()

		rec := s.admin(http.MethodPut, target, `{"base_version":0,"session":"tab-1","content":{"blocks":[{"type":"divider"}]}}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"version":1`)
	})

	s.Run("stale version", func() {
		s.autosave.On("SaveNow", mock.Anything, gift.ID, "tab-2", int64(0), mock.Anything).Return(int64(0), errs.ErrVersionConflict).Once()

		rec := s.admin(http.MethodPut, target, `{"base_version":0,"session":"tab-2","content":{"blocks":[]}}`)
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("another process holds the write lock", func() {
		s.autosave.On("SaveNow", mock.Anything, gift.ID, "tab-busy", int64(0), mock.Anything).Return(int64(0), storage.ErrContentBusy).Once()

		rec := s.admin(http.MethodPut, target, `{"base_version":0,"session":"tab-busy","content":{"blocks":[]}}`)
		s.Equal(http.StatusServiceUnavailable, rec.Code)
	})

	s.Run("invalid content", func() {
		verr := &models.ContentValidationError{Issues: []models.BlockIssue{{Path: "0", Field: "url", Message: "required"}}}
		s.autosave.On("SaveNow", mock.Anything, gift.ID, "tab-3", int64(1), mock.Anything).Return(int64(0), verr).Once()

		rec := s.admin(http.MethodPut, target, `{"base_version":1,"session":"tab-3","content":{"blocks":[{"type":"image"}]}}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), `"field":"url"`)
	})

	s.Run("missing base version", func() {
		rec := s.admin(http.MethodPut, target, `{"content":{"blocks":[]}}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *RoutersTestSuite) TestAutosaveContent() {
	gift := &models.Gift{ID: uuid.New(), Number: 1}
	s.gifts.On("Get", mock.Anything, gift.ID).Return(gift, nil)
	s.autosave.On("Schedule", gift.ID, "tab", int64(4), mock.Anything).Return(nil)
	s.autosave.On("Status", gift.ID).Return(contentsvc.AutosaveStatus{Pending: true, LastVersion: 4})

	rec := s.admin(http.MethodPost, "/api/v1/admin/gifts/"+gift.ID.String()+"/content/autosave",
		`{"base_version":4,"session":"tab","content":{"blocks":[]}}`)

	s.Equal(http.StatusAccepted, rec.Code)
	s.Contains(rec.Body.String(), `"pending":true`)
}

func (s *RoutersTestSuite) TestGetContent_Missing() {
	gift := &models.Gift{ID: uuid.New(), Number: 1}
	s.gifts.On("Get", mock.Anything, gift.ID).Return(gift, nil)
	s.content.On("Load", mock.Anything, gift.ID).Return(&models.VersionedContent{}, false, nil)

	rec := s.admin(http.MethodGet, "/api/v1/admin/gifts/"+gift.ID.String()+"/content", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"exists":false`)
	s.Contains(rec.Body.String(), `"version":0`)
}

func (s *RoutersTestSuite) TestEditor() {
	s.Run("palette", func() {
		rec := s.admin(http.MethodGet, "/api/v1/admin/editor/forms", "")
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), "video-circle")
	})

	s.Run("new block", func() {
		rec := s.admin(http.MethodPost, "/api/v1/admin/editor/new", `{"type":"two-images"}`)
		s.Require().Equal(http.StatusCreated, rec.Code)
		s.Contains(rec.Body.String(), `"type":"two-images"`)
	})

	s.Run("unknown type", func() {
		rec := s.admin(http.MethodPost, "/api/v1/admin/editor/new", `{"type":"sparkles"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *RoutersTestSuite) TestPreviewBlocks() {
	rec := s.admin(http.MethodPost, "/api/v1/admin/preview", `{"blocks":[{"type":"text","content":"a\nb"}]}`)

	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "a<br>b")
}

func (s *RoutersTestSuite) TestScrapeTrack() {
	s.music.On("Fetch", mock.Anything, "https://music.yandex.ru/album/1/track/2").
		Return(&musicsvc.TrackInfo{Artist: "A", TrackName: "T"}, nil)
	s.music.On("Fetch", mock.Anything, "https://example.com/x").Return(nil, musicsvc.ErrUnsupportedURL)

	rec := s.admin(http.MethodPost, "/api/v1/admin/music/scrape", `{"url":"https://music.yandex.ru/album/1/track/2"}`)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.admin(http.MethodPost, "/api/v1/admin/music/scrape", `{"url":"https://example.com/x"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RoutersTestSuite) TestHealthCheck() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/health", "").Code)

	s.routers.Health = []httprouters.HealthChecker{failingPing{}}
	s.Equal(http.StatusServiceUnavailable, s.do(http.MethodGet, "/health", "").Code)
}
