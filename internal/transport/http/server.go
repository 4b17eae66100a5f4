package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/errs"
	"advent_calendar/internal/lib/logger/sl"
	"advent_calendar/internal/render"
	contentsvc "advent_calendar/internal/services/content_service"
	"advent_calendar/internal/services/editor"
	musicsvc "advent_calendar/internal/services/music_service"
	"advent_calendar/internal/storage"
	"advent_calendar/internal/transport/http/dto"
	"advent_calendar/internal/transport/http/dto/request"
	"advent_calendar/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	_ "advent_calendar/docs"
)

type AuthService interface {
	Login(ctx context.Context, login, password string) (models.TokenPair, error)
	Verify(token string) (*models.TokenMeta, error)
}

type GiftService interface {
	Create(ctx context.Context, req dto.CreateGiftRequest) (*models.Gift, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Gift, error)
	List(ctx context.Context) ([]models.Gift, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateGiftRequest) (*models.Gift, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadAsset(ctx context.Context, id uuid.UUID, hint models.UploadHint, file *multipart.FileHeader) (*models.UploadedFile, error)
	SetMemoryPhoto(ctx context.Context, id uuid.UUID, caption string, file *multipart.FileHeader) (*models.MemoryPhoto, error)
	DeleteMemoryPhoto(ctx context.Context, id uuid.UUID) error
	Roadmap(ctx context.Context, at time.Time) ([]models.RoadmapItem, error)
	GetOpenGift(ctx context.Context, number int, at time.Time) (*models.Gift, error)
}

type ContentService interface {
	Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, bool, error)
}

type Autosaver interface {
	Schedule(giftID uuid.UUID, session string, base int64, content models.GiftContent) error
	SaveNow(ctx context.Context, giftID uuid.UUID, session string, base int64, content models.GiftContent) (int64, error)
	Status(giftID uuid.UUID) contentsvc.AutosaveStatus
}

type BlockUploader interface {
	Upload(ctx context.Context, giftID uuid.UUID, block models.Block, path string, file *multipart.FileHeader) (models.Block, *models.UploadedFile, error)
}

type MusicService interface {
	Fetch(ctx context.Context, rawURL string) (*musicsvc.TrackInfo, error)
	Enrich(ctx context.Context, block *models.MusicBlock) (*models.MusicBlock, bool)
	EnrichGallery(ctx context.Context, block *models.MusicGalleryBlock) (*models.MusicGalleryBlock, int)
}

type Renderer interface {
	RenderBlocks(w io.Writer, blocks models.BlockList) error
	RenderGiftPage(w io.Writer, page render.GiftPage) error
	RenderRoadmap(w io.Writer, page render.RoadmapPage) error
	RenderLocked(w io.Writer, page render.LockedPage) error
}

// HealthChecker зависимость, без которой сервис не готов принимать запросы.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Routers struct {
	log            *slog.Logger
	AuthService    AuthService
	GiftService    GiftService
	ContentService ContentService
	Autosaver      Autosaver
	Editor         BlockUploader
	MusicService   MusicService
	Renderer       Renderer
	Health         []HealthChecker
	Title          string
	now            func() time.Time
}

func NewRouter(
	log *slog.Logger,
	authService AuthService,
	giftService GiftService,
	contentService ContentService,
	autosaver Autosaver,
	blockUploader BlockUploader,
	musicService MusicService,
	renderer Renderer,
) *Routers {
	return &Routers{
		log:            log,
		AuthService:    authService,
		GiftService:    giftService,
		ContentService: contentService,
		Autosaver:      autosaver,
		Editor:         blockUploader,
		MusicService:   musicService,
		Renderer:       renderer,
		Title:          "Адвент-календарь",
		now:            time.Now,
	}
}

// SetClock подменяет часы, используется в тестах.
func (r *Routers) SetClock(now func() time.Time) {
	r.now = now
}

var (
	ErrInvalidUUID   = errors.New("not valid UUID")
	ErrInvalidNumber = errors.New("gift number must be a positive integer")
)

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}
	return id, nil
}

func parseNumber(c echo.Context) (int, error) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil || n < 1 {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

// bindValid Bind + Validate, ответ 400 уже отправлен, если вернулось false.
func bindValid(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, response.InvalidRequest("Invalid request format"))
	}

	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	}

	return true, nil
}

// fail переводит ошибку сервисного слоя в HTTP-ответ.
func (r *Routers) fail(c echo.Context, log *slog.Logger, err error) error {
	var (
		contentErr *models.ContentValidationError
		mediaErr   *models.MediaValidationError
		uploadErr  *editor.UploadError
	)

	switch {
	case errors.As(err, &contentErr):
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Status:  "error",
			Error:   response.CodeInvalidContent,
			Details: err.Error(),
			Data:    contentErr.Issues,
		})
	case errors.As(err, &uploadErr):
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, response.ErrorResponseWithDetails(response.CodeFileTooLarge, uploadErr.Message))
		case models.IsMediaValidationError(err), errors.Is(err, storage.ErrInvalidFileType), errors.Is(err, editor.ErrInvalidValue):
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails(response.CodeInvalidFile, uploadErr.Message))
		}
		log.Error("upload failed", sl.Err(err))
		return c.JSON(http.StatusBadGateway, response.ErrorResponseWithDetails(response.CodeInternal, uploadErr.Message))
	case errors.Is(err, storage.ErrFileTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, response.ErrorResponseWithDetails(response.CodeFileTooLarge, mediaMessage(err)))
	case errors.As(err, &mediaErr), errors.Is(err, storage.ErrInvalidFileType):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails(response.CodeInvalidFile, mediaMessage(err)))
	case errors.Is(err, storage.ErrGiftNotFound), errors.Is(err, storage.ErrPhotoNotFound),
		errors.Is(err, storage.ErrContentNotFound), errors.Is(err, errs.ErrNotFound):
		return c.JSON(http.StatusNotFound, response.ErrorResponseWithDetails(response.CodeNotFound, err.Error()))
	case errors.Is(err, storage.ErrGiftExists):
		return c.JSON(http.StatusConflict, response.ErrorResponseWithDetails(response.CodeGiftExists, "Подарок с таким номером уже существует"))
	case errors.Is(err, errs.ErrVersionConflict):
		return c.JSON(http.StatusConflict, response.ErrorResponseWithDetails(response.CodeVersionConflict, "Контент изменился, обновите редактор"))
	case errors.Is(err, storage.ErrContentBusy):
		return c.JSON(http.StatusServiceUnavailable, response.ErrorResponseWithDetails(response.CodeInternal, "Контент сейчас сохраняется, повторите позже"))
	case errors.Is(err, errs.ErrGiftLocked):
		return c.JSON(http.StatusForbidden, response.ErrorResponseWithDetails(response.CodeGiftLocked, err.Error()))
	case errors.Is(err, errs.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, response.ErrorResponseWithDetails(response.CodeAuthentication, "Неверный логин или пароль"))
	case errors.Is(err, errs.ErrInvalidInput), errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrInvalidValue), errors.Is(err, editor.ErrIndexOutOfRange),
		errors.Is(err, editor.ErrTypeChange), errors.Is(err, editor.ErrNilBlock),
		errors.Is(err, editor.ErrNotMediaField):
		return c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	case errors.Is(err, musicsvc.ErrUnsupportedURL):
		return c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	case errors.Is(err, musicsvc.ErrNoMetadata):
		return c.JSON(http.StatusUnprocessableEntity, response.ErrorResponseWithDetails(response.CodeScrapeFailed, err.Error()))
	case errors.Is(err, contentsvc.ErrAutosaverStopped):
		return c.JSON(http.StatusServiceUnavailable, response.ErrorResponseWithDetails(response.CodeUnavailable, response.RetryMessage))
	}

	log.Error("request failed", sl.Err(err))

	return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails(response.CodeInternal, response.RetryMessage))
}

func mediaMessage(err error) string {
	var mediaErr *models.MediaValidationError
	if errors.As(err, &mediaErr) && len(mediaErr.Errors) > 0 {
		return mediaErr.Errors[0]
	}
	return err.Error()
}

// Login godoc
// @Summary Вход администратора
// @Description Проверяет логин и пароль администратора и возвращает JWT-токен.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Данные для входа"
// @Success 200 {object} response.Response{data=models.TokenPair} "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 401 {object} response.ErrorResponse "Ошибка аутентификации"
// @Router /api/v1/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest
	if ok, err := bindValid(c, &req); !ok {
		log.Warn("invalid format request")
		return err
	}

	token, err := r.AuthService.Login(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(token))
}

// Health godoc
// @Summary Проверка готовности
// @Tags system
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.ErrorResponse
// @Router /health [get]
func (r *Routers) HealthCheck(c echo.Context) error {
	const op = "http.routers.HealthCheck"

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	for _, h := range r.Health {
		if err := h.Ping(ctx); err != nil {
			r.log.Warn("health check failed", slog.String("op", op), sl.Err(err))
			return c.JSON(http.StatusServiceUnavailable, response.ErrorResponseWithDetails(response.CodeUnavailable, err.Error()))
		}
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success", Message: "ok"})
}
