package http

import (
	"log/slog"
	"net/http"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/transport/http/dto"
	"advent_calendar/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// ListGifts godoc
// @Summary Список подарков
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Gift}
// @Failure 401 {object} response.ErrorResponse
// @Router /api/v1/admin/gifts [get]
func (r *Routers) ListGifts(c echo.Context) error {
	const op = "http.routers.ListGifts"
	log := r.log.With(slog.String("op", op))

	gifts, err := r.GiftService.List(c.Request().Context())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gifts))
}

// CreateGift godoc
// @Summary Создание подарка
// @Description Номер уникален. Без даты открытия подарок открывается N-го декабря.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateGiftRequest true "Данные подарка"
// @Success 201 {object} response.Response{data=models.Gift}
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Номер занят"
// @Router /api/v1/admin/gifts [post]
func (r *Routers) CreateGift(c echo.Context) error {
	const op = "http.routers.CreateGift"
	log := r.log.With(slog.String("op", op))

	var req dto.CreateGiftRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	gift, err := r.GiftService.Create(c.Request().Context(), req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(gift))
}

// GetGift godoc
// @Summary Подарок по ID
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Success 200 {object} response.Response{data=models.Gift}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/admin/gifts/{id} [get]
func (r *Routers) GetGift(c echo.Context) error {
	const op = "http.routers.GetGift"
	log := r.log.With(slog.String("op", op))

	gift, ok, err := r.giftExists(c, log)
	if !ok {
		return err
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gift))
}

// UpdateGift godoc
// @Summary Частичное обновление подарка
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Param request body dto.UpdateGiftRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Gift}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /api/v1/admin/gifts/{id} [patch]
func (r *Routers) UpdateGift(c echo.Context) error {
	const op = "http.routers.UpdateGift"
	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	}

	var req dto.UpdateGiftRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	gift, err := r.GiftService.Update(c.Request().Context(), id, req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gift))
}

// DeleteGift godoc
// @Summary Удаление подарка
// @Description Удаляет подарок, его файлы, контент и версию контента.
// @Tags admin
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/admin/gifts/{id} [delete]
func (r *Routers) DeleteGift(c echo.Context) error {
	const op = "http.routers.DeleteGift"
	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	}

	if err := r.GiftService.Delete(c.Request().Context(), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// UploadGiftAsset godoc
// @Summary Загрузка файла подарка
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Param file formData file true "Файл"
// @Param hint formData string true "Назначение" Enums(hint, cover, memory, block)
// @Success 201 {object} response.Response{data=models.UploadedFile}
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Router /api/v1/admin/gifts/{id}/uploads [post]
func (r *Routers) UploadGiftAsset(c echo.Context) error {
	const op = "http.routers.UploadGiftAsset"
	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest("File is required"))
	}

	hint := models.UploadHint(c.FormValue("hint"))
	if !hint.Valid() {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest("hint must be one of: hint, cover, memory, block"))
	}

	uploaded, err := r.GiftService.UploadAsset(c.Request().Context(), id, hint, file)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(uploaded))
}

// SetMemoryPhoto godoc
// @Summary Фото на память
// @Description Загружает фотографию и заменяет предыдущую.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Param file formData file true "Фотография"
// @Param caption formData string false "Подпись"
// @Success 200 {object} response.Response{data=models.MemoryPhoto}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/admin/gifts/{id}/memory-photo [put]
func (r *Routers) SetMemoryPhoto(c echo.Context) error {
	const op = "http.routers.SetMemoryPhoto"
	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest("File is required"))
	}

	photo, err := r.GiftService.SetMemoryPhoto(c.Request().Context(), id, c.FormValue("caption"), file)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(photo))
}

// DeleteMemoryPhoto godoc
// @Summary Удаление фото на память
// @Tags admin
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/admin/gifts/{id}/memory-photo [delete]
func (r *Routers) DeleteMemoryPhoto(c echo.Context) error {
	const op = "http.routers.DeleteMemoryPhoto"
	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	}

	if err := r.GiftService.DeleteMemoryPhoto(c.Request().Context(), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}
