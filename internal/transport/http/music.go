package http

import (
	"log/slog"
	"net/http"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/transport/http/dto"
	"advent_calendar/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// ScrapeTrack godoc
// @Summary Метаданные трека Яндекс Музыки
// @Tags music
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ScrapeRequest true "Ссылка на трек"
// @Success 200 {object} response.Response{data=services.TrackInfo}
// @Failure 400 {object} response.ErrorResponse "Ссылка не на Яндекс Музыку"
// @Failure 422 {object} response.ErrorResponse "Метаданные не найдены"
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/admin/music/scrape [post]
func (r *Routers) ScrapeTrack(c echo.Context) error {
	const op = "http.routers.ScrapeTrack"
	log := r.log.With(slog.String("op", op))

	var req dto.ScrapeRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	info, err := r.MusicService.Fetch(c.Request().Context(), req.URL)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(info))
}

// EnrichBlock godoc
// @Summary Дополнение музыкального блока
// @Description Best effort: при ошибке парсинга блок возвращается без изменений.
// @Tags music
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BlockRequest true "Блок music или musicGallery"
// @Success 200 {object} response.Response{data=dto.EnrichResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/admin/music/enrich [post]
func (r *Routers) EnrichBlock(c echo.Context) error {
	const op = "http.routers.EnrichBlock"
	log := r.log.With(slog.String("op", op))

	var req dto.BlockRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	block, ok, err := decodeBlock(c, req.Block)
	if !ok {
		return err
	}

	ctx := c.Request().Context()

	var (
		out     models.Block
		updated int
	)
	switch b := block.(type) {
	case *models.MusicBlock:
		enriched, changed := r.MusicService.Enrich(ctx, b)
		out = enriched
		if changed {
			updated = 1
		}
	case *models.MusicGalleryBlock:
		out, updated = r.MusicService.EnrichGallery(ctx, b)
	default:
		return c.JSON(http.StatusBadRequest, response.InvalidRequest("only music and musicGallery blocks can be enriched"))
	}

	raw, err := models.MarshalBlock(out)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.EnrichResponse{Block: raw, Updated: updated}))
}
