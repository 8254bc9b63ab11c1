package transport

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
)

type CategoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type ProductResponse struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Description  string            `json:"description"`
	Price        float64           `json:"price"`
	ComparePrice *float64          `json:"compare_price"`
	Stock        int               `json:"stock"`
	Status       string            `json:"status"`
	CategoryID   *uuid.UUID        `json:"category_id"`
	Category     *CategoryResponse `json:"category,omitempty"`
	Images       []string          `json:"images"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ProductDetail is the single-product view, rating aggregate included.
type ProductDetail struct {
	ProductResponse
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

func Category(c models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

func Product(p models.Product) ProductResponse {
	out := ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        money.Float(p.Price),
		ComparePrice: money.NullFloat(p.ComparePrice),
		Stock:        p.Stock,
		Status:       string(p.Status),
		CategoryID:   p.CategoryID,
		Images:       []string(p.Images),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	if p.Category != nil {
		c := Category(*p.Category)
		out.Category = &c
	}
	return out
}

func Products(items []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for _, p := range items {
		out = append(out, Product(p))
	}
	return out
}

func Review(r models.Review) ReviewResponse {
	out := ReviewResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Title:     r.Title,
		Comment:   r.Comment,
		Verified:  r.Verified,
		CreatedAt: r.CreatedAt,
	}
	if r.User != nil {
		out.UserName = r.User.Name
	}
	return out
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (r *CreateCategoryRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.TrimSpace(r.Slug)
	if r.Name == "" || r.Slug == "" {
		return errors.New("name and slug required")
	}
	return nil
}

type CreateProductRequest struct {
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	ComparePrice *decimal.Decimal `json:"compare_price"`
	Stock        int              `json:"stock"`
	Status       string           `json:"status"`
	CategoryID   *uuid.UUID       `json:"category_id"`
	Images       []string         `json:"images"`
}

func (r *CreateProductRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.TrimSpace(r.Slug)
	if r.Name == "" || r.Slug == "" {
		return errors.New("name and slug required")
	}
	if r.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	if r.ComparePrice != nil && r.ComparePrice.IsNegative() {
		return errors.New("compare_price cannot be negative")
	}
	if r.Stock < 0 {
		return errors.New("stock cannot be negative")
	}
	if r.Status == "" {
		r.Status = string(models.ProductDraft)
	}
	if !models.ProductStatus(r.Status).Valid() {
		return errors.New("unknown status")
	}
	return nil
}

// PatchProductRequest sets only the fields present. Stock is an absolute
// value, not a delta. ClearComparePrice removes the compare price.
type PatchProductRequest struct {
	Name              *string          `json:"name"`
	Slug              *string          `json:"slug"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	ComparePrice      *decimal.Decimal `json:"compare_price"`
	ClearComparePrice bool             `json:"clear_compare_price"`
	Stock             *int             `json:"stock"`
	Status            *string          `json:"status"`
	CategoryID        *uuid.UUID       `json:"category_id"`
	Images            *[]string        `json:"images"`
}

func (r *PatchProductRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if r.Slug != nil && strings.TrimSpace(*r.Slug) == "" {
		return errors.New("slug cannot be empty")
	}
	if r.Price != nil && r.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	if r.ComparePrice != nil && r.ComparePrice.IsNegative() {
		return errors.New("compare_price cannot be negative")
	}
	if r.ComparePrice != nil && r.ClearComparePrice {
		return errors.New("compare_price and clear_compare_price are exclusive")
	}
	if r.Stock != nil && *r.Stock < 0 {
		return errors.New("stock cannot be negative")
	}
	if r.Status != nil && !models.ProductStatus(*r.Status).Valid() {
		return errors.New("unknown status")
	}
	return nil
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

func (r *CreateReviewRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}
