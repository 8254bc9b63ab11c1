package transport

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
	"github.com/Skotchmaster/storefront/pkg/pagination"
)

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

func (r *AddItemRequest) Validate() error {
	if r.ProductID == uuid.Nil {
		return errors.New("product_id required")
	}
	return nil
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (r *UpdateQuantityRequest) Validate() error {
	if r.Quantity == nil {
		return errors.New("quantity required")
	}
	return nil
}

type ProductSnapshot struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Slug   string    `json:"slug"`
	Price  float64   `json:"price"`
	Stock  int       `json:"stock"`
	Status string    `json:"status"`
	Image  string    `json:"image,omitempty"`
}

type ItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	LineTotal float64          `json:"line_total"`
	Product   *ProductSnapshot `json:"product,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type CartResponse struct {
	Items     []ItemResponse  `json:"items"`
	Subtotal  float64         `json:"subtotal"`
	LineCount int64           `json:"line_count"`
	ItemCount int64           `json:"item_count"`
	Meta      pagination.Meta `json:"meta"`
}

func Item(ci models.CartItem) ItemResponse {
	out := ItemResponse{
		ID:        ci.ID,
		ProductID: ci.ProductID,
		Quantity:  ci.Quantity,
		CreatedAt: ci.CreatedAt,
		UpdatedAt: ci.UpdatedAt,
	}
	if p := ci.Product; p != nil {
		out.LineTotal = money.Float(money.Line(p.Price, ci.Quantity))
		out.Product = &ProductSnapshot{
			ID:     p.ID,
			Name:   p.Name,
			Slug:   p.Slug,
			Price:  money.Float(p.Price),
			Stock:  p.Stock,
			Status: string(p.Status),
		}
		if len(p.Images) > 0 {
			out.Product.Image = p.Images[0]
		}
	}
	return out
}

func Items(items []models.CartItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, ci := range items {
		out = append(out, Item(ci))
	}
	return out
}
