// Package editor описывает формы редактирования блоков и применяет к блокам
// изменения. Все операции возвращают новый блок, исходный не меняется.
package editor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"advent_calendar/internal/domain/models"
)

var (
	ErrUnknownField    = errors.New("unknown field")
	ErrInvalidValue    = errors.New("invalid value")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrTypeChange      = errors.New("block type cannot be changed")
	ErrNilBlock        = errors.New("block is empty")
)

// Form поверхность редактирования блока: поля и текущие значения.
type Form struct {
	Type    models.BlockType `json:"type"`
	Title   string           `json:"title"`
	Fields  []Field          `json:"fields"`
	Generic bool             `json:"generic,omitempty"`
	Values  json.RawMessage  `json:"values"`
}

// Describe возвращает форму для блока. Для неизвестного типа форма общая:
// только url и title, если они есть в блоке.
func Describe(block models.Block) (Form, error) {
	if block == nil {
		return Form{}, ErrNilBlock
	}

	raw, err := models.MarshalBlock(block)
	if err != nil {
		return Form{}, fmt.Errorf("editor.Describe: %w", err)
	}

	doc, err := decodeObject(raw)
	if err != nil {
		return Form{}, fmt.Errorf("editor.Describe: %w", err)
	}

	fields, title, generic := formFor(block.Kind(), doc)

	return Form{
		Type:    block.Kind(),
		Title:   title,
		Fields:  fields,
		Generic: generic,
		Values:  raw,
	}, nil
}

// Palette типы блоков, которые можно добавить, с названиями.
func Palette() []Form {
	out := make([]Form, 0, len(forms))
	for _, kind := range models.BlockKinds() {
		b, _ := models.NewBlock(kind)
		form, err := Describe(b)
		if err != nil {
			continue
		}
		out = append(out, form)
	}
	return out
}

func formFor(kind models.BlockType, doc map[string]any) ([]Field, string, bool) {
	if def, ok := forms[kind]; ok {
		return def.fields, def.title, false
	}

	var fields []Field
	for _, f := range genericFields {
		if _, ok := doc[f.Name]; ok {
			fields = append(fields, f)
		}
	}
	return fields, string(kind), true
}

// Apply применяет изменения по путям вида "url" или "images.1.caption".
// Путь должен указывать на поле формы этого типа; тип блока не меняется.
func Apply(block models.Block, changes map[string]json.RawMessage) (models.Block, error) {
	const op = "editor.Apply"

	doc, err := toDoc(block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	paths := make([]string, 0, len(changes))
	for p := range changes {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	fields, _, _ := formFor(block.Kind(), doc)

	for _, p := range paths {
		value, err := decodeValue(changes[p])
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, p, ErrInvalidValue)
		}

		if err := setPath(doc, fields, splitPath(p), value); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, p, err)
		}
	}

	out, err := fromDoc(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if out.Kind() != block.Kind() {
		return nil, fmt.Errorf("%s: %w", op, ErrTypeChange)
	}

	return out, nil
}

// AddItem добавляет пустой элемент в список. На пределе возвращает копию без изменений.
func AddItem(block models.Block, listField string) (models.Block, error) {
	const op = "editor.AddItem"

	doc, f, err := listOf(block, listField)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	list, _ := doc[f.Name].([]any)
	if f.Max > 0 && len(list) >= f.Max {
		return models.CloneBlock(block)
	}
	doc[f.Name] = append(list, map[string]any{})

	return fromDoc(doc)
}

// RemoveItem удаляет элемент списка. Ниже минимума возвращает копию без изменений.
func RemoveItem(block models.Block, listField string, index int) (models.Block, error) {
	const op = "editor.RemoveItem"

	doc, f, err := listOf(block, listField)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	list, _ := doc[f.Name].([]any)
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%s: %d: %w", op, index, ErrIndexOutOfRange)
	}
	if len(list) <= f.Min {
		return models.CloneBlock(block)
	}
	doc[f.Name] = slices.Delete(list, index, index+1)

	return fromDoc(doc)
}

// FieldAt возвращает описание поля по пути.
func FieldAt(block models.Block, path string) (Field, error) {
	doc, err := toDoc(block)
	if err != nil {
		return Field{}, err
	}
	fields, _, _ := formFor(block.Kind(), doc)
	return lookup(doc, fields, splitPath(path))
}

func listOf(block models.Block, name string) (map[string]any, Field, error) {
	doc, err := toDoc(block)
	if err != nil {
		return nil, Field{}, err
	}

	fields, _, _ := formFor(block.Kind(), doc)
	f, ok := findField(fields, name)
	if !ok || f.Kind != FieldList {
		return nil, Field{}, fmt.Errorf("%s: %w", name, ErrUnknownField)
	}

	return doc, f, nil
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "."), ".")
}

func toDoc(block models.Block) (map[string]any, error) {
	if block == nil {
		return nil, ErrNilBlock
	}
	raw, err := models.MarshalBlock(block)
	if err != nil {
		return nil, err
	}
	return decodeObject(raw)
}

func fromDoc(doc map[string]any) (models.Block, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	b, err := models.UnmarshalBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return b, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func index(seg string, n int) (int, error) {
	i, err := strconv.Atoi(seg)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", seg, ErrUnknownField)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%d: %w", i, ErrIndexOutOfRange)
	}
	return i, nil
}

// lookup проходит путь по форме и документу и возвращает конечное поле.
func lookup(doc map[string]any, fields []Field, segs []string) (Field, error) {
	if len(segs) == 0 || segs[0] == "" {
		return Field{}, ErrUnknownField
	}
	if segs[0] == "type" {
		return Field{}, ErrTypeChange
	}

	f, ok := findField(fields, segs[0])
	if !ok {
		return Field{}, fmt.Errorf("%q: %w", segs[0], ErrUnknownField)
	}
	if len(segs) == 1 {
		return f, nil
	}

	list, _ := doc[f.Name].([]any)

	switch f.Kind {
	case FieldList:
		i, err := index(segs[1], len(list))
		if err != nil {
			return Field{}, err
		}
		if len(segs) == 2 {
			return Field{Name: segs[1], Kind: FieldList, Item: f.Item}, nil
		}
		item, _ := list[i].(map[string]any)
		return lookup(item, f.Item, segs[2:])

	case FieldBlocks:
		i, err := index(segs[1], len(list))
		if err != nil {
			return Field{}, err
		}
		nested, ok := list[i].(map[string]any)
		if !ok {
			return Field{}, ErrInvalidValue
		}
		if len(segs) == 2 {
			return Field{Name: segs[1], Kind: FieldBlocks}, nil
		}
		kind, _ := nested["type"].(string)
		nestedFields, _, _ := formFor(models.BlockType(kind), nested)
		return lookup(nested, nestedFields, segs[2:])
	}

	return Field{}, fmt.Errorf("%q: %w", segs[1], ErrUnknownField)
}

func setPath(doc map[string]any, fields []Field, segs []string, value any) error {
	if len(segs) == 0 || segs[0] == "" {
		return ErrUnknownField
	}
	if segs[0] == "type" {
		return ErrTypeChange
	}

	f, ok := findField(fields, segs[0])
	if !ok {
		return fmt.Errorf("%q: %w", segs[0], ErrUnknownField)
	}

	if len(segs) == 1 {
		if err := checkValue(f, value); err != nil {
			return err
		}
		if value == nil {
			delete(doc, f.Name)
		} else {
			doc[f.Name] = value
		}
		return nil
	}

	list, _ := doc[f.Name].([]any)

	switch f.Kind {
	case FieldList:
		i, err := index(segs[1], len(list))
		if err != nil {
			return err
		}
		if len(segs) == 2 {
			item, ok := value.(map[string]any)
			if !ok {
				return ErrInvalidValue
			}
			list[i] = item
			return nil
		}
		item, ok := list[i].(map[string]any)
		if !ok {
			item = map[string]any{}
			list[i] = item
		}
		return setPath(item, f.Item, segs[2:], value)

	case FieldBlocks:
		i, err := index(segs[1], len(list))
		if err != nil {
			return err
		}
		nested, ok := list[i].(map[string]any)
		if !ok {
			return ErrInvalidValue
		}
		if len(segs) == 2 {
			replacement, ok := value.(map[string]any)
			if !ok || replacement["type"] != nested["type"] {
				return ErrTypeChange
			}
			list[i] = replacement
			return nil
		}
		kind, _ := nested["type"].(string)
		nestedFields, _, _ := formFor(models.BlockType(kind), nested)
		return setPath(nested, nestedFields, segs[2:], value)
	}

	return fmt.Errorf("%q: %w", segs[1], ErrUnknownField)
}

func checkValue(f Field, value any) error {
	if value == nil {
		if f.Required {
			return fmt.Errorf("%s is required: %w", f.Name, ErrInvalidValue)
		}
		return nil
	}

	switch f.Kind {
	case FieldText, FieldTextarea, FieldMedia:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s must be a string: %w", f.Name, ErrInvalidValue)
		}

	case FieldSelect:
		s, ok := value.(string)
		if !ok || (s != "" && !slices.Contains(f.Options, s)) {
			return fmt.Errorf("%s must be one of %v: %w", f.Name, f.Options, ErrInvalidValue)
		}

	case FieldToggle:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s must be a boolean: %w", f.Name, ErrInvalidValue)
		}

	case FieldNumber:
		n, ok := value.(json.Number)
		if !ok {
			return fmt.Errorf("%s must be a number: %w", f.Name, ErrInvalidValue)
		}
		if f.Max > 0 {
			i, err := n.Int64()
			if err != nil || i < int64(f.Min) || i > int64(f.Max) {
				return fmt.Errorf("%s must be between %d and %d: %w", f.Name, f.Min, f.Max, ErrInvalidValue)
			}
		}

	case FieldList:
		list, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s must be a list: %w", f.Name, ErrInvalidValue)
		}
		if len(list) < f.Min || (f.Max > 0 && len(list) > f.Max) {
			return fmt.Errorf("%s must have %d..%d items: %w", f.Name, f.Min, f.Max, ErrInvalidValue)
		}

	case FieldBlocks:
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("%s must be a list of blocks: %w", f.Name, ErrInvalidValue)
		}
	}

	return nil
}
