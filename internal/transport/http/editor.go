package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/services/editor"
	"advent_calendar/internal/transport/http/dto"
	"advent_calendar/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

func decodeBlock(c echo.Context, raw json.RawMessage) (models.Block, bool, error) {
	block, err := models.UnmarshalBlock(raw)
	if err != nil {
		return nil, false, c.JSON(http.StatusBadRequest, response.InvalidRequest("invalid block: "+err.Error()))
	}
	return block, true, nil
}

func (r *Routers) blockResponse(c echo.Context, log *slog.Logger, status int, block models.Block) error {
	raw, err := models.MarshalBlock(block)
	if err != nil {
		return r.fail(c, log, err)
	}
	return c.JSON(status, response.SuccessResponse(dto.BlockResponse{Block: raw}))
}

// EditorPalette godoc
// @Summary Палитра блоков
// @Description Формы всех известных типов блоков с пустыми значениями.
// @Tags editor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]editor.Form}
// @Router /api/v1/admin/editor/forms [get]
func (r *Routers) EditorPalette(c echo.Context) error {
	return c.JSON(http.StatusOK, response.SuccessResponse(editor.Palette()))
}

// EditorNewBlock godoc
// @Summary Новый блок
// @Tags editor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.NewBlockRequest true "Тип блока"
// @Success 201 {object} response.Response{data=dto.BlockResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/admin/editor/new [post]
func (r *Routers) EditorNewBlock(c echo.Context) error {
	const op = "http.routers.EditorNewBlock"
	log := r.log.With(slog.String("op", op))

	var req dto.NewBlockRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	block, ok := models.NewBlock(models.BlockType(req.Type))
	if !ok {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest("unknown block type: "+req.Type))
	}

	return r.blockResponse(c, log, http.StatusCreated, block)
}

// EditorDescribe godoc
// @Summary Форма блока
// @Description Поля формы и текущие значения. Для неизвестного типа форма общая.
// @Tags editor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BlockRequest true "Блок"
// @Success 200 {object} response.Response{data=editor.Form}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/admin/editor/describe [post]
func (r *Routers) EditorDescribe(c echo.Context) error {
	const op = "http.routers.EditorDescribe"
	log := r.log.With(slog.String("op", op))

	var req dto.BlockRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	block, ok, err := decodeBlock(c, req.Block)
	if !ok {
		return err
	}

	form, err := editor.Describe(block)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(form))
}

// EditorApply godoc
// @Summary Изменение полей блока
// @Description Пути вида "url" или "images.1.caption"; тип блока не меняется.
// @Tags editor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ApplyRequest true "Блок и изменения"
// @Success 200 {object} response.Response{data=dto.BlockResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/admin/editor/apply [post]
func (r *Routers) EditorApply(c echo.Context) error {
	const op = "http.routers.EditorApply"
	log := r.log.With(slog.String("op", op))

	var req dto.ApplyRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	block, ok, err := decodeBlock(c, req.Block)
	if !ok {
		return err
	}

	updated, err := editor.Apply(block, req.Changes)
	if err != nil {
		return r.fail(c, log, err)
	}

	return r.blockResponse(c, log, http.StatusOK, updated)
}

// EditorItems godoc
// @Summary Добавление и удаление элементов списка
// @Description На пределе размера списка блок возвращается без изменений.
// @Tags editor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ItemRequest true "Операция"
// @Success 200 {object} response.Response{data=dto.BlockResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/admin/editor/items [post]
func (r *Routers) EditorItems(c echo.Context) error {
	const op = "http.routers.EditorItems"
	log := r.log.With(slog.String("op", op))

	var req dto.ItemRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	block, ok, err := decodeBlock(c, req.Block)
	if !ok {
		return err
	}

	var updated models.Block
	switch req.Op {
	case "add":
		updated, err = editor.AddItem(block, req.Field)
	default:
		updated, err = editor.RemoveItem(block, req.Field, req.Index)
	}
	if err != nil {
		return r.fail(c, log, err)
	}

	return r.blockResponse(c, log, http.StatusOK, updated)
}

// EditorList godoc
// @Summary Операции над списком блоков
// @Tags editor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ListRequest true "Операция"
// @Success 200 {object} response.Response{data=models.GiftContent}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/admin/editor/list [post]
func (r *Routers) EditorList(c echo.Context) error {
	const op = "http.routers.EditorList"
	log := r.log.With(slog.String("op", op))

	var req dto.ListRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	var block models.Block
	if req.Op == "insert" || req.Op == "replace" {
		b, ok, err := decodeBlock(c, req.Block)
		if !ok {
			return err
		}
		block = b
	}

	var (
		out models.BlockList
		err error
	)
	switch req.Op {
	case "insert":
		out, err = editor.InsertBlock(req.Blocks, req.Index, block)
	case "remove":
		out, err = editor.RemoveBlock(req.Blocks, req.Index)
	case "move":
		out, err = editor.MoveBlock(req.Blocks, req.Index, req.To)
	case "replace":
		out, err = editor.ReplaceBlock(req.Blocks, req.Index, block)
	}
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(models.GiftContent{Blocks: out}))
}

// EditorUpload godoc
// @Summary Загрузка файла в поле блока
// @Description При ошибке блок не меняется, в ответе сообщение для редактора.
// @Tags editor
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID подарка" format(uuid)
// @Param block formData string true "Блок в JSON"
// @Param path formData string true "Путь к медиа-полю, например images.0.url"
// @Param file formData file true "Файл"
// @Success 200 {object} response.Response{data=dto.UploadBlockResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Router /api/v1/admin/gifts/{id}/editor/upload [post]
func (r *Routers) EditorUpload(c echo.Context) error {
	const op = "http.routers.EditorUpload"
	log := r.log.With(slog.String("op", op))

	gift, ok, err := r.giftExists(c, log)
	if !ok {
		return err
	}

	block, ok, err := decodeBlock(c, json.RawMessage(c.FormValue("block")))
	if !ok {
		return err
	}

	path := c.FormValue("path")
	if path == "" {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest("path is required"))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest("File is required"))
	}

	updated, uploaded, err := r.Editor.Upload(c.Request().Context(), gift.ID, block, path, file)
	if err != nil {
		return r.fail(c, log, err)
	}

	raw, err := models.MarshalBlock(updated)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.UploadBlockResponse{Block: raw, File: uploaded}))
}
