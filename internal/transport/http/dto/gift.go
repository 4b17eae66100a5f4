package dto

import (
	"time"

	"advent_calendar/internal/domain/models"
)

type CreateGiftRequest struct {
	Number       int        `json:"number" validate:"required,min=1,max=366"`
	Title        string     `json:"title,omitempty" validate:"omitempty,max=200"`
	Description  string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Hint         string     `json:"hint,omitempty" validate:"omitempty,max=500"`
	HintImageURL string     `json:"hint_image_url,omitempty"`
	CoverURL     string     `json:"cover_url,omitempty"`
	OpenDate     *time.Time `json:"open_date,omitempty"`
}

type UpdateGiftRequest struct {
	Number       *int       `json:"number,omitempty" validate:"omitempty,min=1,max=366"`
	Title        *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Hint         *string    `json:"hint,omitempty" validate:"omitempty,max=500"`
	HintImageURL *string    `json:"hint_image_url,omitempty"`
	CoverURL     *string    `json:"cover_url,omitempty"`
	OpenDate     *time.Time `json:"open_date,omitempty"`
}

// Updates поля для частичного обновления, ключи совпадают с колонками таблицы.
func (r UpdateGiftRequest) Updates() map[string]interface{} {
	updates := make(map[string]interface{})

	if r.Number != nil {
		updates["number"] = *r.Number
	}
	if r.Title != nil {
		updates["title"] = *r.Title
	}
	if r.Description != nil {
		updates["description"] = *r.Description
	}
	if r.Hint != nil {
		updates["hint"] = *r.Hint
	}
	if r.HintImageURL != nil {
		updates["hint_image_url"] = *r.HintImageURL
	}
	if r.CoverURL != nil {
		updates["cover_url"] = *r.CoverURL
	}
	if r.OpenDate != nil {
		updates["open_date"] = r.OpenDate.UTC()
	}

	return updates
}

// PublicGiftResponse открытый подарок для публичного API.
type PublicGiftResponse struct {
	Number      int                 `json:"number"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	OpenDate    time.Time           `json:"open_date"`
	CoverURL    string              `json:"cover_url,omitempty"`
	MemoryPhoto *models.MemoryPhoto `json:"memory_photo,omitempty"`
	Content     models.GiftContent  `json:"content"`
}

// LockedGiftResponse закрытый подарок: только дата и подсказка.
type LockedGiftResponse struct {
	Number       int       `json:"number"`
	OpenDate     time.Time `json:"open_date"`
	Hint         string    `json:"hint,omitempty"`
	HintImageURL string    `json:"hint_image_url,omitempty"`
}
