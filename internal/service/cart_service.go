package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/skincare-cart/internal/cache"
	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/fjod/skincare-cart/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// ProductCatalog resolves product display data for cart lines
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error)
}

// CartService owns the authenticated user's server cart
type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog ProductCatalog
	log     *zap.Logger
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog ProductCatalog, log *zap.Logger) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		log:     log.Named("cart"),
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache get error", zap.String("user_id", userID), zap.Error(err))
		}

		// read before the repository so a concurrent invalidation voids the fill
		version, verr := s.cache.Version(ctx, userID)
		if verr != nil {
			s.log.Warn("cache version error", zap.String("user_id", userID), zap.Error(verr))
		}

		cart, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			now := time.Now().UTC()
			return &domain.Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, err
		}

		if verr == nil {
			go s.fillCache(userID, cart, version)
		}

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) fillCache(userID string, cart *domain.Cart, version int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	stored, err := s.cache.Set(ctx, userID, cart, version)
	if err != nil {
		s.log.Warn("cache set error", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if !stored {
		s.log.Debug("stale cart not cached", zap.String("user_id", userID), zap.Int64("version", version))
	}
}

// Items returns the server cart lines joined with product name and price.
// Lines whose product has left the catalog keep an empty name.
func (s *CartService) Items(ctx context.Context, userID string) ([]domain.ServerCartItem, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return []domain.ServerCartItem{}, nil
	}

	ids := make([]string, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	items := make([]domain.ServerCartItem, len(cart.Items))
	for i, item := range cart.Items {
		info := domain.ProductInfo{ID: item.ProductID}
		if p, ok := products[item.ProductID]; ok {
			info = p.Info()
		}
		items[i] = domain.ServerCartItem{
			CartItemID: item.ItemID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Product:    info,
		}
	}
	return items, nil
}

// AddItem adds quantity of a catalog product to the user's cart
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return err
	}

	if err := s.repo.AddItem(ctx, userID, productID, quantity); err != nil {
		s.log.Error("repo add item error", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// SetQuantity sets the quantity of an existing cart line
func (s *CartService) SetQuantity(ctx context.Context, userID, cartItemID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	if err := s.repo.UpdateItemQuantity(ctx, userID, cartItemID, quantity); err != nil {
		s.log.Error("repo update item quantity error", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, cartItemID string) error {
	if err := s.repo.RemoveItem(ctx, userID, cartItemID); err != nil {
		s.log.Error("repo remove item error", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// ClearCart deletes the user's cart. A missing cart is not an error.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.log.Error("repo delete cart error", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// RemoveOrdered takes an order's quantities out of the user's cart, leaving
// anything added since the order was placed.
func (s *CartService) RemoveOrdered(ctx context.Context, userID, orderID string, lines []domain.ProductQuantity) error {
	if err := s.repo.RemoveOrdered(ctx, userID, orderID, lines); err != nil {
		s.log.Error("repo remove ordered error", zap.String("user_id", userID), zap.String("order_id", orderID), zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate error", zap.String("user_id", userID), zap.Error(err))
	}
}
