package render

import (
	"strings"

	"advent_calendar/internal/domain/models"
)

// Таблицы раскладок. Каждое значение перечисления имеет запись, неизвестные
// значения сначала приводятся к значению по умолчанию через Resolve.

type sizeOrientation struct {
	size        models.MediaSize
	orientation models.Orientation
}

var imageWidths = map[sizeOrientation]string{
	{models.MediaSizeSmall, models.OrientationHorizontal}:  "w-half",
	{models.MediaSizeSmall, models.OrientationVertical}:    "w-quarter",
	{models.MediaSizeMedium, models.OrientationHorizontal}: "w-three-quarters",
	{models.MediaSizeMedium, models.OrientationVertical}:   "w-third",
	{models.MediaSizeLarge, models.OrientationHorizontal}:  "w-full",
	{models.MediaSizeLarge, models.OrientationVertical}:    "w-half",
}

var imageLayouts = map[models.ImageLayout]string{
	models.ImageLayoutCenter: "layout-center",
	models.ImageLayoutLeft:   "layout-left",
	models.ImageLayoutRight:  "layout-right",
}

var orientationClasses = map[models.Orientation]string{
	models.OrientationHorizontal: "orientation-horizontal",
	models.OrientationVertical:   "orientation-vertical",
}

var videoSizes = map[models.MediaSize]string{
	models.MediaSizeSmall:  "video-small",
	models.MediaSizeMedium: "video-medium",
	models.MediaSizeLarge:  "video-large",
}

// ширина пары картинок, не зависит от размеров видео
var pairSizes = map[models.MediaSize]string{
	models.MediaSizeSmall:  "pair-small",
	models.MediaSizeMedium: "pair-medium",
	models.MediaSizeLarge:  "pair-large",
}

var alignments = map[models.Alignment]string{
	models.AlignmentLeft:   "align-left",
	models.AlignmentCenter: "align-center",
	models.AlignmentRight:  "align-right",
}

var galleryColumns = map[int]string{
	2: "gallery-cols-2",
	3: "gallery-cols-3",
}

var textStyles = map[models.TextStyle]string{
	models.TextStyleNormal:   "text-normal",
	models.TextStyleTitle:    "text-title",
	models.TextStyleSubtitle: "text-subtitle",
}

var quoteStyles = map[models.QuoteStyle]string{
	models.QuoteStyleSmall: "quote-small",
	models.QuoteStyleBig:   "quote-big",
}

// ImageClasses классы контейнера картинки.
// large+vertical даёт половину ширины, small+vertical четверть.
func ImageClasses(size models.MediaSize, orientation models.Orientation, layout models.ImageLayout) string {
	so := sizeOrientation{size.Resolve(), orientation.Resolve()}

	return strings.Join([]string{
		"block-image",
		imageWidths[so],
		orientationClasses[so.orientation],
		imageLayouts[layout.Resolve()],
	}, " ")
}

// PairClasses контейнер пары картинок: ширина пары и ориентация кадров.
func PairClasses(size models.MediaSize, orientation models.Orientation) string {
	return "block-two-images " + pairSizes[size.Resolve()] + " " + orientationClasses[orientation.Resolve()]
}

func VideoClass(size models.MediaSize) string {
	return videoSizes[size.Resolve()]
}

func AlignmentClass(a models.Alignment) string {
	return alignments[a.Resolve()]
}

func GalleryClass(columns int) string {
	return galleryColumns[models.ResolveGalleryColumns(columns)]
}

func TextClass(s models.TextStyle) string {
	return textStyles[s.Resolve()]
}

func QuoteClass(s models.QuoteStyle) string {
	return quoteStyles[s.Resolve()]
}

// Lines делит текст по переводам строк; шаблон склеивает части через <br>.
func Lines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}
