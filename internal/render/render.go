// Package render строит публичный HTML подарков из типизированных блоков.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"advent_calendar/internal/domain/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// GiftPage данные страницы открытого подарка.
type GiftPage struct {
	Gift    *models.Gift
	Content models.GiftContent
	// DiceRoll проигрывать ли анимацию броска кубика: только при первом
	// открытии подарка в сессии посетителя.
	DiceRoll bool
}

type RoadmapPage struct {
	Title string
	Items []models.RoadmapItem
	Now   time.Time
}

type LockedPage struct {
	Gift *models.Gift
	Now  time.Time
}

type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	r := &Renderer{}

	tmpl, err := template.New("render").Funcs(template.FuncMap{
		"blocks":         r.renderBlocks,
		"lines":          Lines,
		"imageClasses":   ImageClasses,
		"pairClasses":    PairClasses,
		"videoClass":     VideoClass,
		"alignClass":     AlignmentClass,
		"galleryClass":   GalleryClass,
		"textClass":      TextClass,
		"quoteClass":     QuoteClass,
		"flag":           flag,
		"duration":       formatDuration,
		"date":           formatDate,
		"ratio":          ratioStyle,
		"defaultMessage": defaultMessage,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render.New: %w", err)
	}

	r.tmpl = tmpl
	return r, nil
}

func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// templateName шаблон для каждого известного типа блока.
var templateName = map[models.BlockType]string{
	models.BlockText:         "block-text",
	models.BlockQuote:        "block-quote",
	models.BlockImage:        "block-image",
	models.BlockTwoImages:    "block-two-images",
	models.BlockGallery:      "block-gallery",
	models.BlockVideo:        "block-video",
	models.BlockVideoCircle:  "block-video-circle",
	models.BlockTwoVideos:    "block-two-videos",
	models.BlockAudioMessage: "block-audio-message",
	models.BlockMusic:        "block-music",
	models.BlockMusicGallery: "block-music-gallery",
	models.BlockInfographic:  "block-infographic",
	models.BlockTextColumns:  "block-text-columns",
	models.BlockDivider:      "block-divider",
	models.BlockSecret:       "block-secret",
}

// RenderBlock рисует один блок. Неизвестные типы и nil пропускаются молча.
func (r *Renderer) RenderBlock(w io.Writer, block models.Block) error {
	if block == nil {
		return nil
	}

	if _, ok := block.(*models.UnknownBlock); ok {
		return nil
	}

	name, ok := templateName[block.Kind()]
	if !ok {
		return nil
	}

	if err := r.tmpl.ExecuteTemplate(w, name, block); err != nil {
		return fmt.Errorf("render %s: %w", block.Kind(), err)
	}

	return nil
}

func (r *Renderer) RenderBlocks(w io.Writer, blocks models.BlockList) error {
	for _, b := range blocks {
		if err := r.RenderBlock(w, b); err != nil {
			return err
		}
	}
	return nil
}

// renderBlocks вложенный рендер для секретного блока.
func (r *Renderer) renderBlocks(blocks models.BlockList) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.RenderBlocks(&buf, blocks); err != nil {
		return "", err
	}
	// содержимое уже экранировано шаблонами блоков
	return template.HTML(buf.String()), nil
}

func (r *Renderer) RenderGiftPage(w io.Writer, page GiftPage) error {
	return r.tmpl.ExecuteTemplate(w, "page-gift", page)
}

func (r *Renderer) RenderRoadmap(w io.Writer, page RoadmapPage) error {
	return r.tmpl.ExecuteTemplate(w, "page-roadmap", page)
}

func (r *Renderer) RenderLocked(w io.Writer, page LockedPage) error {
	return r.tmpl.ExecuteTemplate(w, "page-locked", page)
}

func flag(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func formatDuration(seconds *int) string {
	if seconds == nil || *seconds < 0 {
		return ""
	}
	return fmt.Sprintf("%d:%02d", *seconds/60, *seconds%60)
}

func formatDate(t time.Time) string {
	return t.UTC().Format("02.01.2006")
}

// ratioStyle aspect-ratio для миниатюры, пусто если пропорция неизвестна.
func ratioStyle(ratio float64) template.CSS {
	if ratio <= 0 {
		return ""
	}
	return template.CSS(fmt.Sprintf("aspect-ratio: %.4f", ratio))
}

func defaultMessage(msg string) string {
	if msg == "" {
		return "Нажми, чтобы открыть секрет"
	}
	return msg
}
