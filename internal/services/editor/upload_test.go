package editor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"testing"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/services/editor"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUploader мок загрузчика медиа
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, giftID uuid.UUID, hint models.UploadHint, file *multipart.FileHeader) (*models.UploadedFile, error) {
	args := m.Called(ctx, giftID, hint, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UploadedFile), args.Error(1)
}

func (m *MockUploader) Remove(ctx context.Context, storagePath string) error {
	args := m.Called(ctx, storagePath)
	return args.Error(0)
}

func TestEditor_Upload(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	giftID := uuid.New()
	file := &multipart.FileHeader{Filename: "photo.jpg", Size: 10}

	tests := []struct {
		name      string
		block     models.Block
		path      string
		mockSetup func(m *MockUploader)
		check     func(t *testing.T, original, got models.Block, err error)
	}{
		{
			name:  "sets url of nested image",
			block: &models.GalleryBlock{Images: []models.GalleryImage{{URL: "/old.jpg"}, {}}},
			path:  "images.1.url",
			mockSetup: func(m *MockUploader) {
				m.On("Upload", ctx, giftID, models.UploadHintBlock, file).
					Return(&models.UploadedFile{URL: "/uploads/gifts/x/block/new.jpg", MediaType: models.MediaTypePhoto}, nil).Once()
			},
			check: func(t *testing.T, original, got models.Block, err error) {
				require.NoError(t, err)
				assert.Equal(t, "/uploads/gifts/x/block/new.jpg", got.(*models.GalleryBlock).Images[1].URL)
				assert.Empty(t, original.(*models.GalleryBlock).Images[1].URL)
			},
		},
		{
			name:  "upload failure leaves block unchanged",
			block: &models.ImageBlock{URL: "/keep.jpg"},
			path:  "url",
			mockSetup: func(m *MockUploader) {
				m.On("Upload", ctx, giftID, models.UploadHintBlock, file).
					Return(nil, errors.New("connection reset")).Once()
			},
			check: func(t *testing.T, original, got models.Block, err error) {
				var uerr *editor.UploadError
				require.ErrorAs(t, err, &uerr)
				assert.NotEmpty(t, uerr.Message)
				assert.Same(t, original, got)
				assert.Equal(t, "/keep.jpg", got.(*models.ImageBlock).URL)
			},
		},
		{
			name:  "validation message is shown to the editor",
			block: &models.ImageBlock{URL: "/keep.jpg"},
			path:  "url",
			mockSetup: func(m *MockUploader) {
				m.On("Upload", ctx, giftID, models.UploadHintBlock, file).
					Return(nil, &models.MediaValidationError{Errors: []string{"file is larger than 50 MB"}}).Once()
			},
			check: func(t *testing.T, original, got models.Block, err error) {
				var uerr *editor.UploadError
				require.ErrorAs(t, err, &uerr)
				assert.Contains(t, uerr.Message, "50 MB")
				assert.Same(t, original, got)
			},
		},
		{
			name:  "wrong media kind is removed",
			block: &models.VideoBlock{},
			path:  "url",
			mockSetup: func(m *MockUploader) {
				m.On("Upload", ctx, giftID, models.UploadHintBlock, file).
					Return(&models.UploadedFile{StoragePath: "gifts/x/block/a.jpg", MediaType: models.MediaTypePhoto}, nil).Once()
				m.On("Remove", ctx, "gifts/x/block/a.jpg").Return(nil).Once()
			},
			check: func(t *testing.T, original, got models.Block, err error) {
				assert.ErrorIs(t, err, editor.ErrInvalidValue)
				assert.Same(t, original, got)
			},
		},
		{
			name:      "non media field",
			block:     &models.ImageBlock{URL: "/keep.jpg"},
			path:      "caption",
			mockSetup: func(m *MockUploader) {},
			check: func(t *testing.T, original, got models.Block, err error) {
				assert.ErrorIs(t, err, editor.ErrNotMediaField)
				assert.Same(t, original, got)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := new(MockUploader)
			tt.mockSetup(uploader)
			e := editor.New(log, uploader)

			got, _, err := e.Upload(ctx, giftID, tt.block, tt.path, file)
			tt.check(t, tt.block, got, err)

			uploader.AssertExpectations(t)
		})
	}
}
