package models

import (
	"time"

	"github.com/google/uuid"
)

type Gift struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	Number       int          `db:"number" json:"number"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description,omitempty"`
	Hint         string       `db:"hint" json:"hint,omitempty"`
	HintImageURL string       `db:"hint_image_url" json:"hint_image_url,omitempty"`
	CoverURL     string       `db:"cover_url" json:"cover_url,omitempty"`
	OpenDate     time.Time    `db:"open_date" json:"open_date"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
	MemoryPhoto  *MemoryPhoto `json:"memory_photo,omitempty"`
}

// MemoryPhoto единственная "полароидная" фотография подарка.
type MemoryPhoto struct {
	ID          uuid.UUID `db:"id" json:"id"`
	GiftID      uuid.UUID `db:"gift_id" json:"gift_id"`
	URL         string    `db:"url" json:"url"`
	StoragePath string    `db:"storage_path" json:"-"`
	Caption     string    `db:"caption" json:"caption,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// IsOpen подарок открыт, если момент at не раньше даты открытия.
func IsOpen(openDate, at time.Time) bool {
	return !at.Before(openDate)
}

func (g Gift) IsOpen(at time.Time) bool {
	return IsOpen(g.OpenDate, at)
}

// RoadmapItem ячейка сетки подарков на публичной странице.
type RoadmapItem struct {
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	OpenDate   time.Time `json:"open_date"`
	Open       bool      `json:"open"`
	CoverURL   string    `json:"cover_url,omitempty"`
	CoverRatio float64   `json:"cover_ratio"`
	Hint       string    `json:"hint,omitempty"`
}
