package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/cart/repo"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
)

type CartService struct {
	Repo *repo.GormRepo
}

type Cart struct {
	Items   []models.CartItem
	Summary repo.Summary
}

// AddItem adds quantity units of a product to the caller's cart. Adding a
// product that is already in the cart raises the existing line.
func (s *CartService) AddItem(ctx context.Context, who identity.Identity, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if !who.Valid() {
		return nil, apperr.ErrUnauthorized
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity %d: %w", quantity, apperr.ErrInvalidQuantity)
	}

	item, err := s.Repo.Add(ctx, who.UserID, productID, quantity, func(p *models.Product, existing int) error {
		if p.Status != models.ProductActive {
			return fmt.Errorf("product %q is %s: %w", p.Name, p.Status, apperr.ErrUnavailable)
		}
		if existing+quantity > p.Stock {
			return &apperr.StockError{
				Kind:      apperr.ErrInsufficientStock,
				ProductID: p.ID,
				Name:      p.Name,
				Requested: existing + quantity,
				Available: p.Stock,
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", productID, apperr.ErrNotFound)
	}
	return item, err
}

// UpdateQuantity sets an absolute quantity on one of the caller's lines.
// Zero is rejected; callers remove the line instead.
func (s *CartService) UpdateQuantity(ctx context.Context, who identity.Identity, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if !who.Valid() {
		return nil, apperr.ErrUnauthorized
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity %d: %w", quantity, apperr.ErrInvalidQuantity)
	}

	item, err := s.Repo.SetQuantity(ctx, who.UserID, itemID, quantity, func(p *models.Product) error {
		if quantity > p.Stock {
			return &apperr.StockError{
				Kind:      apperr.ErrInsufficientStock,
				ProductID: p.ID,
				Name:      p.Name,
				Requested: quantity,
				Available: p.Stock,
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart item %s: %w", itemID, apperr.ErrNotFound)
	}
	return item, err
}

func (s *CartService) RemoveItem(ctx context.Context, who identity.Identity, itemID uuid.UUID) error {
	if !who.Valid() {
		return apperr.ErrUnauthorized
	}
	err := s.Repo.Remove(ctx, who.UserID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("cart item %s: %w", itemID, apperr.ErrNotFound)
	}
	return err
}

func (s *CartService) List(ctx context.Context, who identity.Identity, offset, limit int) (*Cart, error) {
	if !who.Valid() {
		return nil, apperr.ErrUnauthorized
	}
	items, err := s.Repo.List(ctx, who.UserID, offset, limit)
	if err != nil {
		return nil, err
	}
	sum, err := s.Repo.Summary(ctx, who.UserID)
	if err != nil {
		return nil, err
	}
	return &Cart{Items: items, Summary: sum}, nil
}

func (s *CartService) Clear(ctx context.Context, who identity.Identity) (int64, error) {
	if !who.Valid() {
		return 0, apperr.ErrUnauthorized
	}
	return s.Repo.Clear(ctx, who.UserID)
}
