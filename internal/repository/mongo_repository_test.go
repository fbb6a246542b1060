package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) CartRepository {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, EnsureIndexes(ctx, repo))

	return repo
}

func TestGetCart_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	cart, err := repo.GetCart(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestAddItem_NewCart(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-serum", 3))

	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", cart.UserID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "prod-serum", cart.Items[0].ProductID)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.NotEmpty(t, cart.Items[0].ItemID)
	assert.False(t, cart.CreatedAt.IsZero())
}

func TestAddItem_ExistingProduct_Increments(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-serum", 2))
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-serum", 5))

	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 7, cart.Items[0].Quantity)
}

func TestAddItem_SecondProduct_Appends(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-serum", 2))
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-toner", 1))

	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.NotEqual(t, cart.Items[0].ItemID, cart.Items[1].ItemID)
}

func TestUpdateItemQuantity(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-serum", 2))
	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateItemQuantity(ctx, "user-1", cart.Items[0].ItemID, 10))

	cart, err = repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 10, cart.Items[0].Quantity)
}

func TestUpdateItemQuantity_UnknownItem(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-serum", 2))

	err := repo.UpdateItemQuantity(ctx, "user-1", "missing", 4)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-serum", 2))
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-toner", 3))
	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, repo.RemoveItem(ctx, "user-1", cart.Items[0].ItemID))

	cart, err = repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "prod-toner", cart.Items[0].ProductID)

	assert.ErrorIs(t, repo.RemoveItem(ctx, "user-1", "missing"), ErrItemNotFound)
}

func TestDeleteCart(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-serum", 2))

	require.NoError(t, repo.DeleteCart(ctx, "user-1"))

	_, err := repo.GetCart(ctx, "user-1")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.ErrorIs(t, repo.DeleteCart(ctx, "user-1"), ErrCartNotFound)
}

func TestRemoveOrdered_KeepsLinesAddedAfterOrder(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-serum", 1))
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-toner", 3))

	// lines merged in after the order snapshot was taken
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-cleanser", 2))
	require.NoError(t, repo.AddItem(ctx, "user-1", "prod-toner", 1))

	ordered := []domain.ProductQuantity{
		{ProductID: "prod-serum", Quantity: 1},
		{ProductID: "prod-toner", Quantity: 3},
		{ProductID: "prod-gone", Quantity: 1},
	}
	require.NoError(t, repo.RemoveOrdered(ctx, "user-1", "order-1", ordered))
	// redelivered event
	require.NoError(t, repo.RemoveOrdered(ctx, "user-1", "order-1", ordered))

	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	quantities := map[string]int{}
	for _, item := range cart.Items {
		quantities[item.ProductID] = item.Quantity
	}
	assert.Equal(t, map[string]int{"prod-toner": 1, "prod-cleanser": 2}, quantities)
}

func TestRemoveOrdered_MissingCart(t *testing.T) {
	repo := setupTestDB(t)

	assert.NoError(t, repo.RemoveOrdered(context.Background(), "nobody", "order-1",
		[]domain.ProductQuantity{{ProductID: "prod-serum", Quantity: 1}}))
}

func TestContextCancellation(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(10 * time.Millisecond)

	_, err := repo.GetCart(ctx, "user-1")
	assert.ErrorContains(t, err, "context")
}
