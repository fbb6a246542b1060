package localcart

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type failingStorage struct {
	loadErr error
	saveErr error
}

func (f failingStorage) Load(context.Context) ([]byte, error) { return nil, f.loadErr }
func (f failingStorage) Save(context.Context, []byte) error { return f.saveErr }
func (f failingStorage) Clear(context.Context) error { return nil }

func newTestStore(t *testing.T) (*Store, *MemoryStorage) {
	storage := NewMemoryStorage()
	return NewStore(storage, zaptest.NewLogger(t)), storage
}

func TestGet_EmptyStorage(t *testing.T) {
	store, _ := newTestStore(t)

	items := store.Get(context.Background())
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGet_MalformedData_ReturnsEmptyAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(context.Background(), []byte(`{"product_id":`)))
	store := NewStore(storage, zap.New(core))

	items := store.Get(context.Background())
	assert.Empty(t, items)
	assert.Equal(t, 1, logs.FilterMessage("guest cart malformed, treating as empty").Len())
}

func TestGet_StorageError_ReturnsEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := NewStore(failingStorage{loadErr: errors.New("disk gone")}, zap.New(core))

	items := store.Get(context.Background())
	assert.Empty(t, items)
	assert.Equal(t, 1, logs.Len())
}

func TestGet_JSONNull_ReturnsEmpty(t *testing.T) {
	store, storage := newTestStore(t)
	require.NoError(t, storage.Save(context.Background(), []byte("null")))

	assert.Empty(t, store.Get(context.Background()))
}

func TestAdd_AppendsAndIncrements(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "serum", 2))
	require.NoError(t, store.Add(ctx, "toner", 1))
	require.NoError(t, store.Add(ctx, "serum", 3))

	items := store.Get(ctx)
	assert.Equal(t, []domain.LocalCartItem{
		{ProductID: "serum", Quantity: 5},
		{ProductID: "toner", Quantity: 1},
	}, items)
}

func TestAdd_NonPositiveQuantity_Rejected(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, "serum", 2))

	assert.ErrorIs(t, store.Add(ctx, "serum", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, store.Add(ctx, "serum", -4), ErrInvalidQuantity)
	assert.Equal(t, 2, store.Count(ctx))
}

func TestUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, "serum", 2))
	require.NoError(t, store.Add(ctx, "toner", 1))

	require.NoError(t, store.Update(ctx, "serum", 7))
	require.NoError(t, store.Update(ctx, "missing", 3))
	assert.Equal(t, []domain.LocalCartItem{
		{ProductID: "serum", Quantity: 7},
		{ProductID: "toner", Quantity: 1},
	}, store.Get(ctx))

	require.NoError(t, store.Update(ctx, "toner", 0))
	assert.Equal(t, []domain.LocalCartItem{{ProductID: "serum", Quantity: 7}}, store.Get(ctx))

	require.NoError(t, store.Update(ctx, "serum", -1))
	assert.Empty(t, store.Get(ctx))
}

func TestRemove(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, "serum", 2))
	require.NoError(t, store.Add(ctx, "toner", 1))

	require.NoError(t, store.Remove(ctx, "serum"))
	require.NoError(t, store.Remove(ctx, "missing"))

	assert.Equal(t, []domain.LocalCartItem{{ProductID: "toner", Quantity: 1}}, store.Get(ctx))
}

func TestClearAndCount(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	assert.Equal(t, 0, store.Count(ctx))

	require.NoError(t, store.Add(ctx, "serum", 2))
	require.NoError(t, store.Add(ctx, "toner", 3))
	assert.Equal(t, 5, store.Count(ctx))

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Count(ctx))
	assert.Empty(t, store.Get(ctx))
}

func TestAdd_SaveErrorPropagates(t *testing.T) {
	store := NewStore(failingStorage{saveErr: errors.New("read-only")}, zaptest.NewLogger(t))

	err := store.Add(context.Background(), "serum", 1)
	assert.ErrorContains(t, err, "read-only")
}
