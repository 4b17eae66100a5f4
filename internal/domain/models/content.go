package models

import (
	"encoding/json"
	"fmt"
)

// ContentMetadata метаданные конверта контента.
type ContentMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SenderName  string `json:"senderName,omitempty"`
}

// GiftContent конверт контента: упорядоченные блоки и метаданные.
// Хранится одним JSON-документом на подарок.
type GiftContent struct {
	Blocks   BlockList        `json:"blocks"`
	Metadata *ContentMetadata `json:"metadata,omitempty"`
}

func (c GiftContent) Validate() error {
	return ValidateBlocks(c.Blocks)
}

// Clone глубокая копия конверта.
func (c GiftContent) Clone() (GiftContent, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return GiftContent{}, fmt.Errorf("clone content: %w", err)
	}

	var out GiftContent
	if err := json.Unmarshal(data, &out); err != nil {
		return GiftContent{}, fmt.Errorf("clone content: %w", err)
	}

	return out, nil
}

// MarshalContent человекочитаемое представление для файлового хранения.
func MarshalContent(c GiftContent) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func UnmarshalContent(data []byte) (GiftContent, error) {
	var c GiftContent
	if err := json.Unmarshal(data, &c); err != nil {
		return GiftContent{}, err
	}
	return c, nil
}

// VersionedContent контент вместе с версией, по которой работает защита от
// устаревших записей.
type VersionedContent struct {
	Version int64       `json:"version"`
	Content GiftContent `json:"content"`
}

// Clone глубокая копия вместе с версией.
func (v VersionedContent) Clone() (VersionedContent, error) {
	content, err := v.Content.Clone()
	if err != nil {
		return VersionedContent{}, err
	}
	return VersionedContent{Version: v.Version, Content: content}, nil
}

// MarshalVersioned формат хранения: версия и конверт одним документом.
func MarshalVersioned(v VersionedContent) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func UnmarshalVersioned(data []byte) (VersionedContent, error) {
	var v VersionedContent
	if err := json.Unmarshal(data, &v); err != nil {
		return VersionedContent{}, err
	}
	return v, nil
}
