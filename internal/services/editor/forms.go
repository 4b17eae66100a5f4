package editor

import (
	"advent_calendar/internal/domain/models"
)

type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldSelect   FieldKind = "select"
	FieldMedia    FieldKind = "media"
	FieldToggle   FieldKind = "toggle"
	FieldNumber   FieldKind = "number"
	FieldList     FieldKind = "list"
	FieldBlocks   FieldKind = "blocks"
)

// Field одно поле формы редактора. Name совпадает с ключом JSON блока.
type Field struct {
	Name     string           `json:"name"`
	Label    string           `json:"label"`
	Kind     FieldKind        `json:"kind"`
	Options  []string         `json:"options,omitempty"`
	Default  string           `json:"default,omitempty"`
	Media    models.MediaType `json:"media,omitempty"`
	Required bool             `json:"required,omitempty"`
	// Min/Max: число элементов для list, диапазон значения для number
	Min  int     `json:"min,omitempty"`
	Max  int     `json:"max,omitempty"`
	Item []Field `json:"item,omitempty"`
}

type formSpec struct {
	title  string
	fields []Field
}

func options[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func mediaField(name, label string, media models.MediaType) Field {
	return Field{Name: name, Label: label, Kind: FieldMedia, Media: media, Required: true}
}

func sizeField() Field {
	return Field{Name: "size", Label: "Размер", Kind: FieldSelect, Options: options(models.MediaSizes), Default: string(models.MediaSizeMedium)}
}

func orientationField() Field {
	return Field{Name: "orientation", Label: "Ориентация", Kind: FieldSelect, Options: options(models.Orientations), Default: string(models.OrientationHorizontal)}
}

func layoutField() Field {
	return Field{Name: "layout", Label: "Расположение", Kind: FieldSelect, Options: options(models.ImageLayouts), Default: string(models.ImageLayoutCenter)}
}

func alignmentField() Field {
	return Field{Name: "alignment", Label: "Выравнивание", Kind: FieldSelect, Options: options(models.Alignments), Default: string(models.AlignmentCenter)}
}

func videoFields() []Field {
	return []Field{
		mediaField("url", "Видео", models.MediaTypeVideo),
		{Name: "caption", Label: "Подпись", Kind: FieldText},
		sizeField(),
		{Name: "autoplay", Label: "Автовоспроизведение", Kind: FieldToggle},
		{Name: "muted", Label: "Без звука", Kind: FieldToggle},
		{Name: "loop", Label: "Повтор", Kind: FieldToggle},
	}
}

func trackFields() []Field {
	return []Field{
		mediaField("url", "Аудиофайл", models.MediaTypeAudio),
		{Name: "coverUrl", Label: "Обложка", Kind: FieldMedia, Media: models.MediaTypePhoto},
		{Name: "artist", Label: "Исполнитель", Kind: FieldText},
		{Name: "trackName", Label: "Название трека", Kind: FieldText},
		{Name: "duration", Label: "Длительность, сек", Kind: FieldNumber},
		{Name: "yandexMusicUrl", Label: "Ссылка на Яндекс Музыку", Kind: FieldText},
	}
}

// forms формы редактора для каждого известного типа блока
var forms = map[models.BlockType]formSpec{
	models.BlockText: {title: "Текст", fields: []Field{
		{Name: "content", Label: "Текст", Kind: FieldTextarea, Required: true},
		{Name: "style", Label: "Стиль", Kind: FieldSelect, Options: options(models.TextStyles), Default: string(models.TextStyleNormal)},
	}},
	models.BlockQuote: {title: "Цитата", fields: []Field{
		{Name: "content", Label: "Цитата", Kind: FieldTextarea, Required: true},
		{Name: "author", Label: "Автор", Kind: FieldText},
		{Name: "style", Label: "Стиль", Kind: FieldSelect, Options: options(models.QuoteStyles), Default: string(models.QuoteStyleSmall)},
	}},
	models.BlockImage: {title: "Изображение", fields: []Field{
		mediaField("url", "Изображение", models.MediaTypePhoto),
		{Name: "caption", Label: "Подпись", Kind: FieldText},
		{Name: "title", Label: "Заголовок", Kind: FieldText},
		{Name: "text", Label: "Текст", Kind: FieldTextarea},
		layoutField(),
		sizeField(),
		orientationField(),
	}},
	models.BlockTwoImages: {title: "Два изображения", fields: []Field{
		{Name: "images", Label: "Изображения", Kind: FieldList, Min: models.PairArity, Max: models.PairArity, Item: []Field{
			mediaField("url", "Изображение", models.MediaTypePhoto),
			{Name: "title", Label: "Заголовок", Kind: FieldText},
			{Name: "text", Label: "Текст", Kind: FieldTextarea},
			{Name: "caption", Label: "Подпись", Kind: FieldText},
			layoutField(),
		}},
		sizeField(),
		orientationField(),
	}},
	models.BlockGallery: {title: "Галерея", fields: []Field{
		{Name: "images", Label: "Изображения", Kind: FieldList, Min: 1, Max: models.MaxGalleryImages, Item: []Field{
			mediaField("url", "Изображение", models.MediaTypePhoto),
			{Name: "caption", Label: "Подпись", Kind: FieldText},
		}},
		{Name: "columns", Label: "Колонки", Kind: FieldNumber, Min: 2, Max: 3, Default: "3"},
		{Name: "title", Label: "Заголовок", Kind: FieldText},
		{Name: "text", Label: "Текст", Kind: FieldTextarea},
	}},
	models.BlockVideo:       {title: "Видео", fields: videoFields()},
	models.BlockVideoCircle: {title: "Видео-кружок", fields: videoFields()},
	models.BlockTwoVideos: {title: "Два видео", fields: []Field{
		{Name: "videos", Label: "Видео", Kind: FieldList, Min: models.PairArity, Max: models.PairArity, Item: []Field{
			mediaField("url", "Видео", models.MediaTypeVideo),
			{Name: "caption", Label: "Подпись", Kind: FieldText},
		}},
		sizeField(),
	}},
	models.BlockAudioMessage: {title: "Голосовое сообщение", fields: []Field{
		mediaField("url", "Аудио", models.MediaTypeAudio),
		{Name: "title", Label: "Заголовок", Kind: FieldText},
		{Name: "text", Label: "Текст", Kind: FieldTextarea},
		{Name: "duration", Label: "Длительность, сек", Kind: FieldNumber},
	}},
	models.BlockMusic: {title: "Музыка", fields: trackFields()},
	models.BlockMusicGallery: {title: "Музыкальная подборка", fields: []Field{
		{Name: "title", Label: "Заголовок", Kind: FieldText},
		{Name: "tracks", Label: "Треки", Kind: FieldList, Min: 1, Item: trackFields()},
	}},
	models.BlockInfographic: {title: "Инфографика", fields: []Field{
		{Name: "items", Label: "Показатели", Kind: FieldList, Min: 1, Max: models.MaxColumnItems, Item: []Field{
			{Name: "number", Label: "Число", Kind: FieldText, Required: true},
			{Name: "text", Label: "Текст", Kind: FieldText},
		}},
		alignmentField(),
	}},
	models.BlockTextColumns: {title: "Текстовые колонки", fields: []Field{
		{Name: "items", Label: "Колонки", Kind: FieldList, Min: 1, Max: models.MaxColumnItems, Item: []Field{
			{Name: "title", Label: "Заголовок", Kind: FieldText},
			{Name: "text", Label: "Текст", Kind: FieldTextarea, Required: true},
		}},
		alignmentField(),
	}},
	models.BlockDivider: {title: "Разделитель"},
	models.BlockSecret: {title: "Секрет", fields: []Field{
		{Name: "accessMessage", Label: "Подсказка для открытия", Kind: FieldText},
		{Name: "content", Label: "Скрытый контент", Kind: FieldBlocks},
	}},
}

// genericFields поля, которые редактор показывает для блока неизвестного типа,
// если они есть в его JSON.
var genericFields = []Field{
	{Name: "url", Label: "URL", Kind: FieldText},
	{Name: "title", Label: "Заголовок", Kind: FieldText},
}

func findField(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
