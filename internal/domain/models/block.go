package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BlockType дискриминант блока, поле "type" в JSON.
type BlockType string

const (
	BlockText         BlockType = "text"
	BlockQuote        BlockType = "quote"
	BlockImage        BlockType = "image"
	BlockTwoImages    BlockType = "two-images"
	BlockGallery      BlockType = "gallery"
	BlockVideo        BlockType = "video"
	BlockVideoCircle  BlockType = "video-circle"
	BlockTwoVideos    BlockType = "two-videos"
	BlockAudioMessage BlockType = "audio-message"
	BlockMusic        BlockType = "music"
	BlockMusicGallery BlockType = "musicGallery"
	BlockInfographic  BlockType = "infographic"
	BlockTextColumns  BlockType = "text-columns"
	BlockDivider      BlockType = "divider"
	BlockSecret       BlockType = "secret"
)

// Ограничения на размер составных полей.
const (
	MaxGalleryImages = 6
	PairArity        = 2
	MaxColumnItems   = 3
)

// Block один типизированный блок контента подарка. Блоки — только данные.
type Block interface {
	Kind() BlockType
}

type TextBlock struct {
	Content string    `json:"content" validate:"required"`
	Style   TextStyle `json:"style,omitempty"`
}

type QuoteBlock struct {
	Content string     `json:"content" validate:"required"`
	Author  string     `json:"author,omitempty"`
	Style   QuoteStyle `json:"style,omitempty"`
}

type ImageBlock struct {
	URL         string      `json:"url" validate:"required"`
	Caption     string      `json:"caption,omitempty"`
	Title       string      `json:"title,omitempty"`
	Text        string      `json:"text,omitempty"`
	Layout      ImageLayout `json:"layout,omitempty"`
	Size        MediaSize   `json:"size,omitempty"`
	Orientation Orientation `json:"orientation,omitempty"`
}

type PairImage struct {
	URL     string      `json:"url" validate:"required"`
	Title   string      `json:"title,omitempty"`
	Text    string      `json:"text,omitempty"`
	Caption string      `json:"caption,omitempty"`
	Layout  ImageLayout `json:"layout,omitempty"`
}

type TwoImagesBlock struct {
	Images      []PairImage `json:"images" validate:"len=2,dive"`
	Size        MediaSize   `json:"size,omitempty"`
	Orientation Orientation `json:"orientation,omitempty"`
}

type GalleryImage struct {
	URL     string `json:"url" validate:"required"`
	Caption string `json:"caption,omitempty"`
}

type GalleryBlock struct {
	Images  []GalleryImage `json:"images" validate:"min=1,max=6,dive"`
	Columns int            `json:"columns,omitempty"`
	Title   string         `json:"title,omitempty"`
	Text    string         `json:"text,omitempty"`
}

type VideoBlock struct {
	URL      string    `json:"url" validate:"required"`
	Caption  string    `json:"caption,omitempty"`
	Size     MediaSize `json:"size,omitempty"`
	Autoplay *bool     `json:"autoplay,omitempty"`
	Muted    *bool     `json:"muted,omitempty"`
	Loop     *bool     `json:"loop,omitempty"`
}

// VideoCircleBlock видео-кружок: круглая маска и радиальный прогресс.
type VideoCircleBlock struct {
	VideoBlock
}

type PairVideo struct {
	URL     string `json:"url" validate:"required"`
	Caption string `json:"caption,omitempty"`
}

type TwoVideosBlock struct {
	Videos []PairVideo `json:"videos" validate:"len=2,dive"`
	Size   MediaSize   `json:"size,omitempty"`
}

type AudioMessageBlock struct {
	URL      string `json:"url" validate:"required"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text,omitempty"`
	Duration *int   `json:"duration,omitempty"`
}

// MusicTrack метаданные трека; может заполняться парсером Яндекс Музыки.
type MusicTrack struct {
	URL            string `json:"url" validate:"required"`
	CoverURL       string `json:"coverUrl"`
	Artist         string `json:"artist"`
	TrackName      string `json:"trackName"`
	Duration       *int   `json:"duration,omitempty"`
	YandexMusicURL string `json:"yandexMusicUrl,omitempty"`
}

type MusicBlock struct {
	MusicTrack
}

type MusicGalleryBlock struct {
	Title  string       `json:"title,omitempty"`
	Tracks []MusicTrack `json:"tracks" validate:"min=1,dive"`
}

type InfographicItem struct {
	Number string `json:"number" validate:"required"`
	Text   string `json:"text"`
}

type InfographicBlock struct {
	Items     []InfographicItem `json:"items" validate:"min=1,max=3,dive"`
	Alignment Alignment         `json:"alignment,omitempty"`
}

type TextColumn struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text" validate:"required"`
}

type TextColumnsBlock struct {
	Items     []TextColumn `json:"items" validate:"min=1,max=3,dive"`
	Alignment Alignment    `json:"alignment,omitempty"`
}

type DividerBlock struct{}

// SecretBlock скрытый вложенный контент, открывается по нажатию.
type SecretBlock struct {
	Content       BlockList `json:"content"`
	AccessMessage string    `json:"accessMessage,omitempty"`
}

// UnknownBlock блок неизвестного типа. Хранит исходный JSON, чтобы контент
// из более новой версии редактора переживал загрузку и сохранение.
type UnknownBlock struct {
	Type BlockType
	Raw  json.RawMessage
}

func (TextBlock) Kind() BlockType         { return BlockText }
func (QuoteBlock) Kind() BlockType        { return BlockQuote }
func (ImageBlock) Kind() BlockType        { return BlockImage }
func (TwoImagesBlock) Kind() BlockType    { return BlockTwoImages }
func (GalleryBlock) Kind() BlockType      { return BlockGallery }
func (VideoBlock) Kind() BlockType        { return BlockVideo }
func (VideoCircleBlock) Kind() BlockType  { return BlockVideoCircle }
func (TwoVideosBlock) Kind() BlockType    { return BlockTwoVideos }
func (AudioMessageBlock) Kind() BlockType { return BlockAudioMessage }
func (MusicBlock) Kind() BlockType        { return BlockMusic }
func (MusicGalleryBlock) Kind() BlockType { return BlockMusicGallery }
func (InfographicBlock) Kind() BlockType  { return BlockInfographic }
func (TextColumnsBlock) Kind() BlockType  { return BlockTextColumns }
func (DividerBlock) Kind() BlockType      { return BlockDivider }
func (SecretBlock) Kind() BlockType       { return BlockSecret }
func (b UnknownBlock) Kind() BlockType    { return b.Type }

var blockFactories = map[BlockType]func() Block{
	BlockText:         func() Block { return &TextBlock{} },
	BlockQuote:        func() Block { return &QuoteBlock{} },
	BlockImage:        func() Block { return &ImageBlock{} },
	BlockTwoImages:    func() Block { return &TwoImagesBlock{} },
	BlockGallery:      func() Block { return &GalleryBlock{} },
	BlockVideo:        func() Block { return &VideoBlock{} },
	BlockVideoCircle:  func() Block { return &VideoCircleBlock{} },
	BlockTwoVideos:    func() Block { return &TwoVideosBlock{} },
	BlockAudioMessage: func() Block { return &AudioMessageBlock{} },
	BlockMusic:        func() Block { return &MusicBlock{} },
	BlockMusicGallery: func() Block { return &MusicGalleryBlock{} },
	BlockInfographic:  func() Block { return &InfographicBlock{} },
	BlockTextColumns:  func() Block { return &TextColumnsBlock{} },
	BlockDivider:      func() Block { return &DividerBlock{} },
	BlockSecret:       func() Block { return &SecretBlock{} },
}

var blockKinds = []BlockType{
	BlockText, BlockQuote, BlockImage, BlockTwoImages, BlockGallery,
	BlockVideo, BlockVideoCircle, BlockTwoVideos, BlockAudioMessage,
	BlockMusic, BlockMusicGallery, BlockInfographic, BlockTextColumns,
	BlockDivider, BlockSecret,
}

// BlockKinds все известные типы блоков в порядке палитры редактора.
func BlockKinds() []BlockType {
	out := make([]BlockType, len(blockKinds))
	copy(out, blockKinds)
	return out
}

// NewBlock возвращает пустой блок указанного типа. Парные блоки сразу
// содержат два элемента, списочные — один.
func NewBlock(kind BlockType) (Block, bool) {
	switch kind {
	case BlockTwoImages:
		return &TwoImagesBlock{Images: make([]PairImage, PairArity)}, true
	case BlockTwoVideos:
		return &TwoVideosBlock{Videos: make([]PairVideo, PairArity)}, true
	case BlockGallery:
		return &GalleryBlock{Images: []GalleryImage{{}}}, true
	case BlockInfographic:
		return &InfographicBlock{Items: []InfographicItem{{}}}, true
	case BlockTextColumns:
		return &TextColumnsBlock{Items: []TextColumn{{}}}, true
	case BlockMusicGallery:
		return &MusicGalleryBlock{Tracks: []MusicTrack{}}, true
	case BlockSecret:
		return &SecretBlock{Content: BlockList{}}, true
	}

	factory, ok := blockFactories[kind]
	if !ok {
		return nil, false
	}

	return factory(), true
}

// BlockList упорядоченная последовательность блоков. Владеет JSON-кодеком
// объединения: при чтении выбирает вариант по "type", при записи добавляет его.
type BlockList []Block

func (l BlockList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('[')
	for i, b := range l {
		if i > 0 {
			buf.WriteByte(',')
		}

		data, err := MarshalBlock(b)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		buf.Write(data)
	}
	buf.WriteByte(']')

	return buf.Bytes(), nil
}

func (l *BlockList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	if raws == nil {
		*l = nil
		return nil
	}

	out := make(BlockList, 0, len(raws))
	for i, raw := range raws {
		b, err := UnmarshalBlock(raw)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}

	*l = out
	return nil
}

// MarshalBlock кодирует один блок вместе с дискриминантом.
func MarshalBlock(b Block) ([]byte, error) {
	switch u := b.(type) {
	case nil:
		return nil, fmt.Errorf("nil block")
	case *UnknownBlock:
		return u.rawJSON()
	case UnknownBlock:
		return u.rawJSON()
	}

	body, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}

	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("block %q is not encoded as an object", b.Kind())
	}

	kind, err := json.Marshal(b.Kind())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(kind) + 9)
	buf.WriteString(`{"type":`)
	buf.Write(kind)
	if !bytes.Equal(body, []byte("{}")) {
		buf.WriteByte(',')
	}
	buf.Write(body[1:])

	return buf.Bytes(), nil
}

// UnmarshalBlock декодирует один блок. Неизвестный тип не ошибка; известный
// тип с полями не той формы тоже сохраняется как UnknownBlock с исходным JSON,
// чтобы один испорченный блок не ронял весь контент.
func UnmarshalBlock(raw []byte) (Block, error) {
	var head struct {
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	factory, ok := blockFactories[head.Type]
	if ok {
		b := factory()
		if err := json.Unmarshal(raw, b); err == nil {
			return b, nil
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, err
	}
	return &UnknownBlock{Type: head.Type, Raw: compact.Bytes()}, nil
}

func (b UnknownBlock) rawJSON() ([]byte, error) {
	if len(b.Raw) == 0 {
		return json.Marshal(map[string]BlockType{"type": b.Type})
	}
	return b.Raw, nil
}

// Fields возвращает поля неизвестного блока как есть.
func (b UnknownBlock) Fields() map[string]json.RawMessage {
	fields := map[string]json.RawMessage{}
	_ = json.Unmarshal(b.Raw, &fields)
	return fields
}

// CloneBlock глубокая копия блока через JSON.
func CloneBlock(b Block) (Block, error) {
	data, err := MarshalBlock(b)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlock(data)
}
