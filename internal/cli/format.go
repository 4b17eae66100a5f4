package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"advent_calendar/internal/domain/models"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// formatFor формат по расширению файла, если явно не задан.
func formatFor(explicit, path string) string {
	if explicit != "" {
		return strings.ToLower(explicit)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	}

	return formatJSON
}

// encodeContent YAML строится из JSON-представления, чтобы сохранить
// поле type у блоков.
func encodeContent(w io.Writer, content models.GiftContent, format string) error {
	data, err := models.MarshalContent(content)
	if err != nil {
		return err
	}

	switch format {
	case formatJSON:
		_, err = w.Write(append(data, '\n'))
		return err
	case formatYAML:
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}

		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}

	return fmt.Errorf("unknown format %q", format)
}

func decodeContent(data []byte, format string) (models.GiftContent, error) {
	switch format {
	case formatJSON:
		return models.UnmarshalContent(data)
	case formatYAML:
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return models.GiftContent{}, err
		}

		raw, err := json.Marshal(doc)
		if err != nil {
			return models.GiftContent{}, err
		}
		return models.UnmarshalContent(raw)
	}

	return models.GiftContent{}, fmt.Errorf("unknown format %q", format)
}
