// Package localcart holds an anonymous shopper's cart until it is merged
// into a server cart or turned into a guest order.
package localcart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/skincare-cart/internal/domain"
	"go.uber.org/zap"
)

var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// Provider opens the guest cart of one guest session
type Provider interface {
	Open(guestID string) *Store
}

type Store struct {
	storage Storage
	log     *zap.Logger
}

func NewStore(storage Storage, log *zap.Logger) *Store {
	return &Store{storage: storage, log: log}
}

// Get returns the stored items. Missing, unreadable or malformed data
// yields an empty cart; the failure is only logged.
func (s *Store) Get(ctx context.Context) []domain.LocalCartItem {
	data, err := s.storage.Load(ctx)
	if err != nil {
		s.log.Warn("guest cart unreadable, treating as empty", zap.Error(err))
		return []domain.LocalCartItem{}
	}
	if len(data) == 0 {
		return []domain.LocalCartItem{}
	}

	var items []domain.LocalCartItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.Warn("guest cart malformed, treating as empty", zap.Error(err))
		return []domain.LocalCartItem{}
	}
	if items == nil {
		return []domain.LocalCartItem{}
	}
	return items
}

// Save overwrites the whole cart in a single write
func (s *Store) Save(ctx context.Context, items []domain.LocalCartItem) error {
	if items == nil {
		items = []domain.LocalCartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal guest cart failed: %w", err)
	}
	return s.storage.Save(ctx, data)
}

// Add increments the quantity of an existing line or appends a new one.
// Non-positive quantities are rejected with ErrInvalidQuantity.
func (s *Store) Add(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	items := s.Get(ctx)
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			return s.Save(ctx, items)
		}
	}
	items = append(items, domain.LocalCartItem{ProductID: productID, Quantity: quantity})
	return s.Save(ctx, items)
}

// Update sets the quantity of a line; quantity <= 0 removes it.
// Unknown products are ignored.
func (s *Store) Update(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, productID)
	}

	items := s.Get(ctx)
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return s.Save(ctx, items)
		}
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, productID string) error {
	items := s.Get(ctx)
	for i, item := range items {
		if item.ProductID == productID {
			items = append(items[:i], items[i+1:]...)
			return s.Save(ctx, items)
		}
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.storage.Clear(ctx)
}

// Count is the sum of all quantities
func (s *Store) Count(ctx context.Context) int {
	total := 0
	for _, item := range s.Get(ctx) {
		total += item.Quantity
	}
	return total
}
