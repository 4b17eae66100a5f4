package models

// Закрытые наборы значений стилей и раскладок. Неизвестное или пустое значение
// не ошибка: Resolve возвращает задокументированное значение по умолчанию.

type TextStyle string

const (
	TextStyleNormal   TextStyle = "normal"
	TextStyleTitle    TextStyle = "title"
	TextStyleSubtitle TextStyle = "subtitle"
)

var TextStyles = []TextStyle{TextStyleNormal, TextStyleTitle, TextStyleSubtitle}

// Resolve по умолчанию normal.
func (s TextStyle) Resolve() TextStyle {
	switch s {
	case TextStyleNormal, TextStyleTitle, TextStyleSubtitle:
		return s
	}
	return TextStyleNormal
}

type QuoteStyle string

const (
	QuoteStyleSmall QuoteStyle = "small"
	QuoteStyleBig   QuoteStyle = "big"
)

var QuoteStyles = []QuoteStyle{QuoteStyleSmall, QuoteStyleBig}

// Resolve по умолчанию small.
func (s QuoteStyle) Resolve() QuoteStyle {
	switch s {
	case QuoteStyleSmall, QuoteStyleBig:
		return s
	}
	return QuoteStyleSmall
}

// ImageLayout положение картинки относительно текста.
type ImageLayout string

const (
	ImageLayoutCenter ImageLayout = "center"
	ImageLayoutLeft   ImageLayout = "left"
	ImageLayoutRight  ImageLayout = "right"
)

var ImageLayouts = []ImageLayout{ImageLayoutCenter, ImageLayoutLeft, ImageLayoutRight}

// Resolve по умолчанию center.
func (l ImageLayout) Resolve() ImageLayout {
	switch l {
	case ImageLayoutCenter, ImageLayoutLeft, ImageLayoutRight:
		return l
	}
	return ImageLayoutCenter
}

type MediaSize string

const (
	MediaSizeSmall  MediaSize = "small"
	MediaSizeMedium MediaSize = "medium"
	MediaSizeLarge  MediaSize = "large"
)

var MediaSizes = []MediaSize{MediaSizeSmall, MediaSizeMedium, MediaSizeLarge}

// Resolve по умолчанию medium.
func (s MediaSize) Resolve() MediaSize {
	switch s {
	case MediaSizeSmall, MediaSizeMedium, MediaSizeLarge:
		return s
	}
	return MediaSizeMedium
}

type Orientation string

const (
	OrientationHorizontal Orientation = "horizontal"
	OrientationVertical   Orientation = "vertical"
)

var Orientations = []Orientation{OrientationHorizontal, OrientationVertical}

// Resolve по умолчанию horizontal.
func (o Orientation) Resolve() Orientation {
	switch o {
	case OrientationHorizontal, OrientationVertical:
		return o
	}
	return OrientationHorizontal
}

type Alignment string

const (
	AlignmentLeft   Alignment = "left"
	AlignmentCenter Alignment = "center"
	AlignmentRight  Alignment = "right"
)

var Alignments = []Alignment{AlignmentLeft, AlignmentCenter, AlignmentRight}

// Resolve по умолчанию center.
func (a Alignment) Resolve() Alignment {
	switch a {
	case AlignmentLeft, AlignmentCenter, AlignmentRight:
		return a
	}
	return AlignmentCenter
}

var GalleryColumns = []int{2, 3}

// ResolveGalleryColumns допускает 2 или 3 колонки, иначе 3.
func ResolveGalleryColumns(n int) int {
	if n == 2 || n == 3 {
		return n
	}
	return 3
}
