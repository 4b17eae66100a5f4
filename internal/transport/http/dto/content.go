package dto

import (
	"encoding/json"

	"advent_calendar/internal/domain/models"
)

type SaveContentRequest struct {
	// BaseVersion версия, от которой редактор начинал правки.
	BaseVersion *int64             `json:"base_version" validate:"required,min=0"`
	Session     string             `json:"session,omitempty" validate:"omitempty,max=64"`
	Content     models.GiftContent `json:"content"`
}

type SaveContentResponse struct {
	Version int64 `json:"version"`
}

type ContentResponse struct {
	Version int64              `json:"version"`
	Exists  bool               `json:"exists"`
	Content models.GiftContent `json:"content"`
}

type NewBlockRequest struct {
	Type string `json:"type" validate:"required"`
}

type BlockRequest struct {
	Block json.RawMessage `json:"block" validate:"required"`
}

type ApplyRequest struct {
	Block   json.RawMessage            `json:"block" validate:"required"`
	Changes map[string]json.RawMessage `json:"changes" validate:"required,min=1"`
}

type ItemRequest struct {
	Block json.RawMessage `json:"block" validate:"required"`
	Field string          `json:"field" validate:"required"`
	Op    string          `json:"op" validate:"required,oneof=add remove"`
	Index int             `json:"index,omitempty" validate:"min=0"`
}

// ListRequest операция над списком блоков конверта.
type ListRequest struct {
	Blocks models.BlockList `json:"blocks"`
	Op     string           `json:"op" validate:"required,oneof=insert remove move replace"`
	Index  int              `json:"index" validate:"min=0"`
	To     int              `json:"to,omitempty" validate:"min=0"`
	Block  json.RawMessage  `json:"block,omitempty"`
}

type BlockResponse struct {
	Block json.RawMessage `json:"block"`
}

type UploadBlockResponse struct {
	Block json.RawMessage      `json:"block"`
	File  *models.UploadedFile `json:"file"`
}

type ScrapeRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type EnrichResponse struct {
	Block   json.RawMessage `json:"block"`
	Updated int             `json:"updated"`
}
