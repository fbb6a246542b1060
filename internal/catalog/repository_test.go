package catalog_test

import (
	"context"
	"testing"

	"github.com/fjod/skincare-cart/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *catalog.Repository {
	repo, err := catalog.NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations("./migrations"))
	return repo
}

func TestListProducts_SeededCatalog(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 5)
}

func TestGetProduct_Found(t *testing.T) {
	repo := setupTestDB(t)

	p, err := repo.GetProduct(context.Background(), "prod-serum")
	require.NoError(t, err)
	assert.Equal(t, "Vitamin C Brightening Serum", p.Name)
	assert.True(t, decimal.RequireFromString("14500").Equal(p.Price))
	assert.False(t, p.CreatedAt.IsZero())
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetProduct(context.Background(), "nope")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestGetProducts_SkipsUnknown(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.GetProducts(context.Background(), []string{"prod-toner", "prod-cleanser", "ghost"})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, "Hydrating Rose Toner", products["prod-toner"].Name)
	assert.NotContains(t, products, "ghost")
}

func TestGetProducts_NoIDs(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.GetProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	repo := setupTestDB(t)
	assert.NoError(t, repo.RunMigrations("./migrations"))
}

func TestListProducts_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListProducts(ctx)
	assert.ErrorContains(t, err, "context canceled")
}
