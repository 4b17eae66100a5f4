package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/errs"
	"advent_calendar/internal/lib/logger/sl"
	"advent_calendar/internal/render"
	"advent_calendar/internal/storage"
	"advent_calendar/internal/transport/http/dto"
	"advent_calendar/internal/transport/http/dto/response"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	visitorSession = "visitor"
	rolledKey      = "rolled"
)

// Roadmap godoc
// @Summary Сетка подарков
// @Description Все подарки с признаком открытости на текущий момент.
// @Tags public
// @Produce json
// @Success 200 {object} response.Response{data=[]models.RoadmapItem}
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/roadmap [get]
func (r *Routers) Roadmap(c echo.Context) error {
	const op = "http.routers.Roadmap"
	log := r.log.With(slog.String("op", op))

	items, err := r.GiftService.Roadmap(c.Request().Context(), r.now())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(items))
}

// PublicGift godoc
// @Summary Открытый подарок
// @Description Контент подарка. Закрытый подарок отдаёт 403 с датой открытия и подсказкой.
// @Tags public
// @Produce json
// @Param number path int true "Номер подарка"
// @Success 200 {object} response.Response{data=dto.PublicGiftResponse}
// @Failure 403 {object} response.Response{data=dto.LockedGiftResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/gifts/{number} [get]
func (r *Routers) PublicGift(c echo.Context) error {
	const op = "http.routers.PublicGift"
	log := r.log.With(slog.String("op", op))

	number, err := parseNumber(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	}

	ctx := c.Request().Context()

	gift, err := r.GiftService.GetOpenGift(ctx, number, r.now())
	if errors.Is(err, errs.ErrGiftLocked) {
		return c.JSON(http.StatusForbidden, response.Response{
			Status: "locked",
			Data: dto.LockedGiftResponse{
				Number:       gift.Number,
				OpenDate:     gift.OpenDate,
				Hint:         gift.Hint,
				HintImageURL: gift.HintImageURL,
			},
		})
	}
	if err != nil {
		return r.fail(c, log, err)
	}

	vc, _, err := r.ContentService.Load(ctx, gift.ID)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.PublicGiftResponse{
		Number:      gift.Number,
		Title:       gift.Title,
		Description: gift.Description,
		OpenDate:    gift.OpenDate,
		CoverURL:    gift.CoverURL,
		MemoryPhoto: gift.MemoryPhoto,
		Content:     vc.Content,
	}))
}

// RoadmapPage главная страница с сеткой подарков.
func (r *Routers) RoadmapPage(c echo.Context) error {
	const op = "http.routers.RoadmapPage"
	log := r.log.With(slog.String("op", op))

	now := r.now()

	items, err := r.GiftService.Roadmap(c.Request().Context(), now)
	if err != nil {
		log.Error("failed to build roadmap", sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError, response.RetryMessage)
	}

	var buf bytes.Buffer
	if err := r.Renderer.RenderRoadmap(&buf, render.RoadmapPage{Title: r.Title, Items: items, Now: now}); err != nil {
		log.Error("failed to render roadmap", sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError, response.RetryMessage)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// GiftPage страница подарка. Анимация кубика проигрывается один раз за сессию.
func (r *Routers) GiftPage(c echo.Context) error {
	const op = "http.routers.GiftPage"
	log := r.log.With(slog.String("op", op))

	number, err := parseNumber(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	ctx := c.Request().Context()
	now := r.now()

	var buf bytes.Buffer

	gift, err := r.GiftService.GetOpenGift(ctx, number, now)
	switch {
	case errors.Is(err, errs.ErrGiftLocked):
		if err := r.Renderer.RenderLocked(&buf, render.LockedPage{Gift: gift, Now: now}); err != nil {
			log.Error("failed to render locked page", sl.Err(err))
			return echo.NewHTTPError(http.StatusInternalServerError, response.RetryMessage)
		}
		return c.HTMLBlob(http.StatusForbidden, buf.Bytes())
	case errors.Is(err, storage.ErrGiftNotFound):
		return echo.NewHTTPError(http.StatusNotFound)
	case err != nil:
		log.Error("failed to load gift", sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError, response.RetryMessage)
	}

	vc, _, err := r.ContentService.Load(ctx, gift.ID)
	if err != nil {
		log.Error("failed to load content", sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError, response.RetryMessage)
	}

	page := render.GiftPage{
		Gift:     gift,
		Content:  vc.Content,
		DiceRoll: r.markRolled(c, log, number),
	}

	if err := r.Renderer.RenderGiftPage(&buf, page); err != nil {
		log.Error("failed to render gift", sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError, response.RetryMessage)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// markRolled true, если посетитель открывает подарок впервые в этой сессии.
// Без сессии анимация просто проигрывается каждый раз.
func (r *Routers) markRolled(c echo.Context, log *slog.Logger, number int) bool {
	sess, err := session.Get(visitorSession, c)
	if err != nil {
		log.Debug("visitor session unavailable", sl.Err(err))
		return true
	}

	rolled, _ := sess.Values[rolledKey].(string)
	numbers := strings.Split(rolled, ",")
	key := strconv.Itoa(number)
	for _, n := range numbers {
		if n == key {
			return false
		}
	}

	if rolled == "" {
		rolled = key
	} else {
		rolled += "," + key
	}
	sess.Values[rolledKey] = rolled
	sess.Options.HttpOnly = true
	sess.Options.MaxAge = 60 * 60 * 24 * 60

	if err := sess.Save(c.Request(), c.Response()); err != nil {
		log.Warn("failed to save visitor session", sl.Err(err))
	}

	return true
}

// giftExists загружает подарок из пути запроса; при ошибке ответ уже отправлен.
func (r *Routers) giftExists(c echo.Context, log *slog.Logger) (*models.Gift, bool, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, false, c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	}

	gift, err := r.GiftService.Get(c.Request().Context(), id)
	if err != nil {
		return nil, false, r.fail(c, log, err)
	}

	return gift, true, nil
}
