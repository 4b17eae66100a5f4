package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/lib/logger/sl"
	"advent_calendar/internal/render"
	"advent_calendar/internal/transport/http/dto"
	"advent_calendar/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// GetContent godoc
// @Summary Контент подарка для редактора
// @Description Отсутствующий контент не ошибка: пустой конверт с версией 0.
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Success 200 {object} response.Response{data=dto.ContentResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/admin/gifts/{id}/content [get]
func (r *Routers) GetContent(c echo.Context) error {
	const op = "http.routers.GetContent"
	log := r.log.With(slog.String("op", op))

	gift, ok, err := r.giftExists(c, log)
	if !ok {
		return err
	}

	vc, exists, err := r.ContentService.Load(c.Request().Context(), gift.ID)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.ContentResponse{
		Version: vc.Version,
		Exists:  exists,
		Content: vc.Content,
	}))
}

// SaveContent godoc
// @Summary Ручное сохранение контента
// @Description Запись принимается, только если base_version совпадает с текущей версией.
// @Description Отложенное автосохранение этого подарка отменяется.
// @Tags content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Param request body dto.SaveContentRequest true "Контент и базовая версия"
// @Success 200 {object} response.Response{data=dto.SaveContentResponse}
// @Failure 400 {object} response.ErrorResponse "Контент не прошёл проверку"
// @Failure 409 {object} response.ErrorResponse "Версия устарела"
// @Router /api/v1/admin/gifts/{id}/content [put]
func (r *Routers) SaveContent(c echo.Context) error {
	const op = "http.routers.SaveContent"
	log := r.log.With(slog.String("op", op))

	gift, ok, err := r.giftExists(c, log)
	if !ok {
		return err
	}

	var req dto.SaveContentRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	version, err := r.Autosaver.SaveNow(c.Request().Context(), gift.ID, req.Session, *req.BaseVersion, req.Content)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.SaveContentResponse{Version: version}))
}

// AutosaveContent godoc
// @Summary Отложенное автосохранение
// @Description Запись выполняется после паузы в правках; повторный вызов заменяет отложенную запись.
// @Tags content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Param request body dto.SaveContentRequest true "Контент и базовая версия"
// @Success 202 {object} response.Response{data=services.AutosaveStatus}
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /api/v1/admin/gifts/{id}/content/autosave [post]
func (r *Routers) AutosaveContent(c echo.Context) error {
	const op = "http.routers.AutosaveContent"
	log := r.log.With(slog.String("op", op))

	gift, ok, err := r.giftExists(c, log)
	if !ok {
		return err
	}

	var req dto.SaveContentRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	if err := r.Autosaver.Schedule(gift.ID, req.Session, *req.BaseVersion, req.Content); err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusAccepted, response.SuccessResponse(r.Autosaver.Status(gift.ID)))
}

// ContentStatus godoc
// @Summary Состояние автосохранения
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Success 200 {object} response.Response{data=services.AutosaveStatus}
// @Router /api/v1/admin/gifts/{id}/content/status [get]
func (r *Routers) ContentStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(r.Autosaver.Status(id)))
}

// PreviewGift godoc
// @Summary Предпросмотр страницы подарка
// @Description Рисует сохранённый контент независимо от даты открытия.
// @Tags content
// @Produce html
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Success 200 {string} string "HTML"
// @Router /api/v1/admin/gifts/{id}/preview [get]
func (r *Routers) PreviewGift(c echo.Context) error {
	const op = "http.routers.PreviewGift"
	log := r.log.With(slog.String("op", op))

	gift, ok, err := r.giftExists(c, log)
	if !ok {
		return err
	}

	vc, _, err := r.ContentService.Load(c.Request().Context(), gift.ID)
	if err != nil {
		return r.fail(c, log, err)
	}

	var buf bytes.Buffer
	if err := r.Renderer.RenderGiftPage(&buf, render.GiftPage{Gift: gift, Content: vc.Content}); err != nil {
		log.Error("failed to render preview", sl.Err(err))
		return r.fail(c, log, err)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// PreviewBlocks godoc
// @Summary Предпросмотр блоков
// @Description Рисует переданный конверт без сохранения. Неизвестные блоки пропускаются.
// @Tags content
// @Accept json
// @Produce html
// @Security BearerAuth
// @Param request body models.GiftContent true "Конверт"
// @Success 200 {string} string "HTML"
// @Router /api/v1/admin/preview [post]
func (r *Routers) PreviewBlocks(c echo.Context) error {
	const op = "http.routers.PreviewBlocks"
	log := r.log.With(slog.String("op", op))

	var content models.GiftContent
	if err := c.Bind(&content); err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest("Invalid request format"))
	}

	var buf bytes.Buffer
	if err := r.Renderer.RenderBlocks(&buf, content.Blocks); err != nil {
		return r.fail(c, log, err)
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
