package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *mongoRepository) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	now := time.Now().UTC()

	// existing line: increment in place
	filter := bson.M{"user_id": userID, "items.product_id": productID}
	update := bson.M{
		"$inc": bson.M{"items.$.quantity": quantity},
		"$set": bson.M{"updated_at": now},
	}
	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to increment item: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// new line, creating the cart when it does not exist yet
	item := domain.CartItem{
		ItemID:    uuid.NewString(),
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   now,
	}
	update = bson.M{
		"$push":        bson.M{"items": item},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err = m.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to add new item: %w", err)
	}

	return nil
}

func (m *mongoRepository) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	filter := bson.M{
		"user_id":       userID,
		"items.item_id": itemID,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now().UTC(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.item_id": itemID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *mongoRepository) RemoveItem(ctx context.Context, userID, itemID string) error {
	filter := bson.M{"user_id": userID, "items.item_id": itemID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"item_id": itemID},
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, userID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

// appliedOrdersKept bounds the per-cart list of orders already taken out
const appliedOrdersKept = 50

func (m *mongoRepository) RemoveOrdered(ctx context.Context, userID, orderID string, lines []domain.ProductQuantity) error {
	totals := make(map[string]int, len(lines))
	var order []string
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if _, seen := totals[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		totals[line.ProductID] += line.Quantity
	}
	if len(order) == 0 {
		return nil
	}

	inc := bson.M{}
	filters := make([]interface{}, 0, len(order))
	for i, productID := range order {
		id := fmt.Sprintf("l%d", i)
		inc["items.$["+id+"].quantity"] = -totals[productID]
		filters = append(filters, bson.M{id + ".product_id": productID})
	}

	filter := bson.M{"user_id": userID, "applied_orders": bson.M{"$ne": orderID}}
	update := bson.M{
		"$inc": inc,
		"$push": bson.M{"applied_orders": bson.M{
			"$each":  bson.A{orderID},
			"$slice": -appliedOrdersKept,
		}},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: filters})
	result, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to remove ordered quantities: %w", err)
	}
	if result.ModifiedCount == 0 {
		return nil
	}

	_, err = m.collection.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$pull": bson.M{"items": bson.M{"quantity": bson.M{"$lte": 0}}}},
	)
	if err != nil {
		return fmt.Errorf("failed to drop emptied lines: %w", err)
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// EnsureIndexes creates the cart collection indexes when repo is Mongo-backed
func EnsureIndexes(ctx context.Context, repo CartRepository) error {
	if m, ok := repo.(*mongoRepository); ok {
		return m.CreateIndexes(ctx)
	}
	return nil
}
