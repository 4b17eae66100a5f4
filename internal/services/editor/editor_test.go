package editor_test

import (
	"encoding/json"
	"testing"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/services/editor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func snapshot(t *testing.T, b models.Block) string {
	t.Helper()
	data, err := models.MarshalBlock(b)
	require.NoError(t, err)
	return string(data)
}

func TestDescribe_AllKinds(t *testing.T) {
	for _, kind := range models.BlockKinds() {
		t.Run(string(kind), func(t *testing.T) {
			b, ok := models.NewBlock(kind)
			require.True(t, ok)

			form, err := editor.Describe(b)
			require.NoError(t, err)
			assert.Equal(t, kind, form.Type)
			assert.False(t, form.Generic)
			assert.NotEmpty(t, form.Title)
			assert.Contains(t, string(form.Values), `"type":"`+string(kind)+`"`)
			if kind != models.BlockDivider {
				assert.NotEmpty(t, form.Fields)
			}
		})
	}
}

func TestDescribe_TextForm(t *testing.T) {
	form, err := editor.Describe(&models.TextBlock{Content: "hi"})
	require.NoError(t, err)

	require.Len(t, form.Fields, 2)
	assert.Equal(t, "content", form.Fields[0].Name)
	assert.Equal(t, editor.FieldTextarea, form.Fields[0].Kind)
	assert.Equal(t, []string{"normal", "title", "subtitle"}, form.Fields[1].Options)
}

func TestDescribe_UnknownBlockGenericForm(t *testing.T) {
	block := &models.UnknownBlock{Type: "sparkles", Raw: []byte(`{"type":"sparkles","url":"/s.gif","power":3}`)}

	form, err := editor.Describe(block)
	require.NoError(t, err)
	assert.True(t, form.Generic)
	require.Len(t, form.Fields, 1)
	assert.Equal(t, "url", form.Fields[0].Name)

	_, err = editor.Describe(nil)
	assert.ErrorIs(t, err, editor.ErrNilBlock)
}

func TestPalette(t *testing.T) {
	palette := editor.Palette()
	assert.Len(t, palette, len(models.BlockKinds()))
}

func TestApply(t *testing.T) {
	t.Run("top level field, input untouched", func(t *testing.T) {
		original := &models.ImageBlock{URL: "/a.jpg", Size: models.MediaSizeSmall}
		before := snapshot(t, original)

		updated, err := editor.Apply(original, map[string]json.RawMessage{
			"url":  raw(t, "/b.jpg"),
			"size": raw(t, "large"),
		})
		require.NoError(t, err)

		img := updated.(*models.ImageBlock)
		assert.Equal(t, "/b.jpg", img.URL)
		assert.Equal(t, models.MediaSizeLarge, img.Size)
		assert.Equal(t, before, snapshot(t, original))
		assert.NotSame(t, original, updated)
	})

	t.Run("nested list path", func(t *testing.T) {
		original := &models.TwoImagesBlock{Images: []models.PairImage{{URL: "/1.jpg"}, {URL: "/2.jpg"}}}

		updated, err := editor.Apply(original, map[string]json.RawMessage{"images.1.caption": raw(t, "second")})
		require.NoError(t, err)

		assert.Equal(t, "second", updated.(*models.TwoImagesBlock).Images[1].Caption)
		assert.Empty(t, original.Images[1].Caption)
	})

	t.Run("toggle on embedded video fields", func(t *testing.T) {
		updated, err := editor.Apply(&models.VideoCircleBlock{VideoBlock: models.VideoBlock{URL: "/c.mp4"}},
			map[string]json.RawMessage{"loop": raw(t, true)})
		require.NoError(t, err)

		circle := updated.(*models.VideoCircleBlock)
		require.NotNil(t, circle.Loop)
		assert.True(t, *circle.Loop)
	})

	t.Run("secret nested block", func(t *testing.T) {
		original := &models.SecretBlock{Content: models.BlockList{&models.TextBlock{Content: "old"}}}

		updated, err := editor.Apply(original, map[string]json.RawMessage{"content.0.content": raw(t, "new")})
		require.NoError(t, err)

		assert.Equal(t, "new", updated.(*models.SecretBlock).Content[0].(*models.TextBlock).Content)
		assert.Equal(t, "old", original.Content[0].(*models.TextBlock).Content)
	})

	t.Run("unknown block keeps extra fields", func(t *testing.T) {
		original := &models.UnknownBlock{Type: "sparkles", Raw: []byte(`{"type":"sparkles","url":"/s.gif","power":3}`)}

		updated, err := editor.Apply(original, map[string]json.RawMessage{"url": raw(t, "/t.gif")})
		require.NoError(t, err)

		unknown := updated.(*models.UnknownBlock)
		assert.Equal(t, models.BlockType("sparkles"), unknown.Kind())
		assert.JSONEq(t, `{"type":"sparkles","url":"/t.gif","power":3}`, string(unknown.Raw))
	})

	errorCases := []struct {
		name    string
		block   models.Block
		changes map[string]json.RawMessage
		wantErr error
	}{
		{
			name:    "field of another type",
			block:   &models.TextBlock{Content: "x"},
			changes: map[string]json.RawMessage{"url": json.RawMessage(`"/a.jpg"`)},
			wantErr: editor.ErrUnknownField,
		},
		{
			name:    "discriminant",
			block:   &models.TextBlock{Content: "x"},
			changes: map[string]json.RawMessage{"type": json.RawMessage(`"quote"`)},
			wantErr: editor.ErrTypeChange,
		},
		{
			name:    "enum outside options",
			block:   &models.TextBlock{Content: "x"},
			changes: map[string]json.RawMessage{"style": json.RawMessage(`"shout"`)},
			wantErr: editor.ErrInvalidValue,
		},
		{
			name:    "index out of range",
			block:   &models.GalleryBlock{Images: []models.GalleryImage{{URL: "/1.jpg"}}},
			changes: map[string]json.RawMessage{"images.4.url": json.RawMessage(`"/x.jpg"`)},
			wantErr: editor.ErrIndexOutOfRange,
		},
		{
			name:    "columns out of range",
			block:   &models.GalleryBlock{Images: []models.GalleryImage{{URL: "/1.jpg"}}},
			changes: map[string]json.RawMessage{"columns": json.RawMessage(`5`)},
			wantErr: editor.ErrInvalidValue,
		},
		{
			name:    "string into number",
			block:   &models.AudioMessageBlock{URL: "/a.ogg"},
			changes: map[string]json.RawMessage{"duration": json.RawMessage(`"long"`)},
			wantErr: editor.ErrInvalidValue,
		},
		{
			name:    "replacing pair list with three items",
			block:   &models.TwoVideosBlock{Videos: []models.PairVideo{{URL: "/a"}, {URL: "/b"}}},
			changes: map[string]json.RawMessage{"videos": json.RawMessage(`[{},{},{}]`)},
			wantErr: editor.ErrInvalidValue,
		},
		{
			name:    "unknown block hidden field",
			block:   &models.UnknownBlock{Type: "sparkles", Raw: []byte(`{"type":"sparkles","power":3}`)},
			changes: map[string]json.RawMessage{"power": json.RawMessage(`4`)},
			wantErr: editor.ErrUnknownField,
		},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			before := snapshot(t, tt.block)

			_, err := editor.Apply(tt.block, tt.changes)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, snapshot(t, tt.block))
		})
	}
}

func TestAddRemoveItem(t *testing.T) {
	t.Run("gallery grows to cap then stops", func(t *testing.T) {
		var block models.Block = &models.GalleryBlock{Images: []models.GalleryImage{{URL: "/1.jpg"}}}

		for i := 0; i < 10; i++ {
			next, err := editor.AddItem(block, "images")
			require.NoError(t, err)
			block = next
		}

		assert.Len(t, block.(*models.GalleryBlock).Images, models.MaxGalleryImages)
	})

	t.Run("pair arity is fixed", func(t *testing.T) {
		pair, _ := models.NewBlock(models.BlockTwoImages)

		added, err := editor.AddItem(pair, "images")
		require.NoError(t, err)
		assert.Len(t, added.(*models.TwoImagesBlock).Images, 2)

		removed, err := editor.RemoveItem(pair, "images", 0)
		require.NoError(t, err)
		assert.Len(t, removed.(*models.TwoImagesBlock).Images, 2)
	})

	t.Run("remove keeps minimum and order", func(t *testing.T) {
		original := &models.InfographicBlock{Items: []models.InfographicItem{{Number: "1"}, {Number: "2"}, {Number: "3"}}}

		removed, err := editor.RemoveItem(original, "items", 1)
		require.NoError(t, err)
		items := removed.(*models.InfographicBlock).Items
		require.Len(t, items, 2)
		assert.Equal(t, "1", items[0].Number)
		assert.Equal(t, "3", items[1].Number)
		assert.Len(t, original.Items, 3)

		single := &models.InfographicBlock{Items: []models.InfographicItem{{Number: "1"}}}
		same, err := editor.RemoveItem(single, "items", 0)
		require.NoError(t, err)
		assert.Len(t, same.(*models.InfographicBlock).Items, 1)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := editor.AddItem(&models.TextBlock{}, "content")
		assert.ErrorIs(t, err, editor.ErrUnknownField)

		_, err = editor.RemoveItem(&models.TextColumnsBlock{Items: []models.TextColumn{{Text: "a"}, {Text: "b"}}}, "items", 7)
		assert.ErrorIs(t, err, editor.ErrIndexOutOfRange)
	})
}

func TestListOperations(t *testing.T) {
	a := &models.TextBlock{Content: "a"}
	b := &models.TextBlock{Content: "b"}
	c := &models.TextBlock{Content: "c"}
	list := models.BlockList{a, b, c}

	contents := func(l models.BlockList) []string {
		out := make([]string, len(l))
		for i, blk := range l {
			out[i] = blk.(*models.TextBlock).Content
		}
		return out
	}

	inserted, err := editor.InsertBlock(list, 1, &models.DividerBlock{})
	require.NoError(t, err)
	assert.Len(t, inserted, 4)
	assert.Equal(t, models.BlockDivider, inserted[1].Kind())

	removed, err := editor.RemoveBlock(list, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, contents(removed))

	moved, err := editor.MoveBlock(list, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, contents(moved))

	replaced, err := editor.ReplaceBlock(list, 2, &models.TextBlock{Content: "z"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "z"}, contents(replaced))

	assert.Equal(t, []string{"a", "b", "c"}, contents(list))

	_, err = editor.InsertBlock(list, 9, a)
	assert.ErrorIs(t, err, editor.ErrIndexOutOfRange)
	_, err = editor.MoveBlock(list, 0, 3)
	assert.ErrorIs(t, err, editor.ErrIndexOutOfRange)
	_, err = editor.ReplaceBlock(list, 0, nil)
	assert.ErrorIs(t, err, editor.ErrNilBlock)
}
