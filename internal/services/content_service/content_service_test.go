package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/errs"
	"advent_calendar/internal/storage"
	"advent_calendar/internal/storage/content"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockContentStorage мок хранилища контента
type MockContentStorage struct {
	mock.Mock
}

func (m *MockContentStorage) Save(ctx context.Context, giftID uuid.UUID, c models.VersionedContent) error {
	args := m.Called(ctx, giftID, c)
	return args.Error(0)
}

func (m *MockContentStorage) Load(ctx context.Context, giftID uuid.UUID) (*models.VersionedContent, error) {
	args := m.Called(ctx, giftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VersionedContent), args.Error(1)
}

func (m *MockContentStorage) Delete(ctx context.Context, giftID uuid.UUID) error {
	args := m.Called(ctx, giftID)
	return args.Error(0)
}

// countingStorage считает реальные записи
type countingStorage struct {
	ContentStorage
	saves atomic.Int32
}

func (c *countingStorage) Save(ctx context.Context, giftID uuid.UUID, gc models.VersionedContent) error {
	c.saves.Add(1)
	return c.ContentStorage.Save(ctx, giftID, gc)
}

// gatedStorage держит первую запись, пока тест не откроет release
type gatedStorage struct {
	ContentStorage
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStorage) Save(ctx context.Context, giftID uuid.UUID, vc models.VersionedContent) error {
	g.entered <- struct{}{}
	<-g.release
	return g.ContentStorage.Save(ctx, giftID, vc)
}

func newLocalService(t *testing.T) (*ContentService, *countingStorage) {
	t.Helper()

	local, err := content.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	counting := &countingStorage{ContentStorage: local}
	return NewContentService(testLog, counting, NewMemoryVersionStore()), counting
}

func textContent(s string) models.GiftContent {
	return models.GiftContent{Blocks: models.BlockList{&models.TextBlock{Content: s}}}
}

func firstText(t *testing.T, vc *models.VersionedContent) string {
	t.Helper()
	require.NotEmpty(t, vc.Content.Blocks)
	return vc.Content.Blocks[0].(*models.TextBlock).Content
}

func TestContentService_SaveLoad(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLocalService(t)
	id := uuid.New()

	loaded, found, err := svc.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(0), loaded.Version)
	assert.Empty(t, loaded.Content.Blocks)

	v, err := svc.Save(ctx, id, 0, textContent("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	loaded, found, err = svc.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1), loaded.Version)
	assert.Equal(t, "hello", firstText(t, loaded))
}

func TestContentService_StaleWriteDiscarded(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLocalService(t)
	id := uuid.New()

	_, err := svc.Save(ctx, id, 0, textContent("newer"))
	require.NoError(t, err)

	_, err = svc.Save(ctx, id, 0, textContent("older"))
	require.ErrorIs(t, err, errs.ErrVersionConflict)

	loaded, _, err := svc.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "newer", firstText(t, loaded))
	assert.Equal(t, int64(1), loaded.Version)
}

func TestContentService_InvalidContent(t *testing.T) {
	ctx := context.Background()
	svc, counting := newLocalService(t)
	id := uuid.New()

	_, err := svc.Save(ctx, id, 0, models.GiftContent{Blocks: models.BlockList{&models.ImageBlock{}}})
	require.Error(t, err)
	assert.True(t, models.IsContentValidationError(err))
	assert.Equal(t, int32(0), counting.saves.Load())

	_, found, err := svc.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestContentService_ConcurrentSavesSameBase(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLocalService(t)
	id := uuid.New()

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Save(ctx, id, 0, textContent("x"))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, errs.ErrVersionConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(9), conflicts.Load())
}

func TestContentService_StorageFailure(t *testing.T) {
	ctx := context.Background()
	mockStorage := new(MockContentStorage)
	versions := NewMemoryVersionStore()
	svc := NewContentService(testLog, mockStorage, versions)
	id := uuid.New()

	mockStorage.On("Load", ctx, id).Return(nil, storage.ErrContentNotFound).Once()
	mockStorage.On("Save", ctx, id, mock.AnythingOfType("models.VersionedContent")).
		Return(errors.New("disk full")).Once()

	_, err := svc.Save(ctx, id, 0, textContent("x"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrVersionConflict)

	v, err := versions.Current(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v, "failed write must not advance the version")

	mockStorage.On("Load", ctx, id).Return(nil, errors.New("io error")).Once()
	_, _, err = svc.Load(ctx, id)
	assert.Error(t, err)

	mockStorage.AssertExpectations(t)
}

func TestContentService_LoadMissingIsNotError(t *testing.T) {
	ctx := context.Background()
	mockStorage := new(MockContentStorage)
	svc := NewContentService(testLog, mockStorage, NewMemoryVersionStore())
	id := uuid.New()

	mockStorage.On("Load", ctx, id).Return(nil, storage.ErrContentNotFound).Once()

	vc, found, err := svc.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotNil(t, vc)
}

func TestContentService_DeleteAndImport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLocalService(t)
	id := uuid.New()

	_, err := svc.Save(ctx, id, 0, textContent("a"))
	require.NoError(t, err)

	v, err := svc.Import(ctx, id, textContent("imported"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	require.NoError(t, svc.Delete(ctx, id))

	loaded, found, err := svc.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(0), loaded.Version)
}

func TestContentService_TwoInstancesSharedVersions(t *testing.T) {
	ctx := context.Background()
	local, err := content.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	shared := NewMemoryVersionStore()
	gated := &gatedStorage{
		ContentStorage: local,
		entered:        make(chan struct{}, 1),
		release:        make(chan struct{}),
	}
	first := NewContentService(testLog, gated, shared)
	second := NewContentService(testLog, local, shared)
	id := uuid.New()

	type result struct {
		v   int64
		err error
	}
	firstDone := make(chan result, 1)
	secondDone := make(chan result, 1)

	go func() {
		v, err := first.Save(ctx, id, 0, textContent("first"))
		firstDone <- result{v, err}
	}()
	<-gated.entered

	go func() {
		v, err := second.Save(ctx, id, 0, textContent("second"))
		secondDone <- result{v, err}
	}()

	select {
	case r := <-secondDone:
		t.Fatalf("second writer finished while the first one was writing: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}

	close(gated.release)

	r1 := <-firstDone
	require.NoError(t, r1.err)
	assert.Equal(t, int64(1), r1.v)

	r2 := <-secondDone
	assert.ErrorIs(t, r2.err, errs.ErrVersionConflict)

	stored, err := local.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, "first", stored.Content.Blocks[0].(*models.TextBlock).Content)
}

func TestContentService_ImportFromSeparateProcess(t *testing.T) {
	ctx := context.Background()
	local, err := content.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	// у сервера и CLI свои счётчики в памяти, общее только хранилище
	server := NewContentService(testLog, local, NewMemoryVersionStore())
	cli := NewContentService(testLog, local, NewMemoryVersionStore())
	id := uuid.New()

	v, err := server.Save(ctx, id, 0, textContent("draft"))
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	v, err = cli.Import(ctx, id, textContent("imported"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = server.Save(ctx, id, 1, textContent("stale"))
	require.ErrorIs(t, err, errs.ErrVersionConflict)

	loaded, found, err := server.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(2), loaded.Version)
	assert.Equal(t, "imported", firstText(t, loaded))

	v, err = server.Save(ctx, id, 2, textContent("fresh"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestContentService_CacheRefreshedAfterForeignWrite(t *testing.T) {
	ctx := context.Background()
	local, err := content.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	shared := NewMemoryVersionStore()
	server := NewContentService(testLog, content.NewCachedStorage(local, time.Minute), shared)
	cli := NewContentService(testLog, local, shared)
	id := uuid.New()

	_, err = server.Save(ctx, id, 0, textContent("draft"))
	require.NoError(t, err)

	// прогреваем кэш
	loaded, _, err := server.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "draft", firstText(t, loaded))

	_, err = cli.Import(ctx, id, textContent("imported"))
	require.NoError(t, err)

	loaded, _, err = server.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Version)
	assert.Equal(t, "imported", firstText(t, loaded))
}

func TestMemoryVersionStore_LockHonoursContext(t *testing.T) {
	versions := NewMemoryVersionStore()
	id := uuid.New()

	unlock, err := versions.Lock(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
		unlock()
	}()

	_, err = versions.Lock(ctx, id)
	assert.ErrorIs(t, err, context.Canceled)
}
