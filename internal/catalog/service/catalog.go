package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/catalog/cache"
	"github.com/Skotchmaster/storefront/internal/catalog/repo"
	"github.com/Skotchmaster/storefront/internal/catalog/transport"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

const ProductEventsTopic = "product_events"

type ProductCache interface {
	Get(ctx context.Context, ref string) (*transport.ProductDetail, error)
	Set(ctx context.Context, d *transport.ProductDetail) error
	Invalidate(ctx context.Context, id uuid.UUID, slug string) error
}

type SearchIndex interface {
	Put(ctx context.Context, p *models.Product) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type ProductEvent struct {
	Type      string    `json:"type"`
	ProductID uuid.UUID `json:"productID"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Stock     int       `json:"stock"`
	Status    string    `json:"status,omitempty"`
}

// CatalogService owns products, categories and reviews. Cache, Index and
// Events are optional; a nil Cache or Index is skipped and writes to them
// are best effort.
type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  ProductCache
	Index  SearchIndex
	Events mykafka.Publisher
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	return err
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, who identity.Identity, req transport.CreateCategoryRequest) (*models.Category, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	c := models.Category{Name: req.Name, Slug: req.Slug}
	if err := s.Repo.CreateCategory(ctx, &c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("category slug %q already exists: %w", req.Slug, apperr.ErrConflict)
		}
		return nil, err
	}
	return &c, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, f, offset, limit)
}

// SearchProducts asks the search index first and falls back to a database
// substring match when no index is configured or the index fails.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("query is empty: %w", apperr.ErrInvalidRequest)
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.ProductsByIDs(ctx, ids)
			return total, items, err
		}
		logging.FromContext(ctx).Warn("search_index_unavailable", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

// GetProduct resolves ref as an id or a slug. Only ACTIVE products are
// visible here.
func (s *CatalogService) GetProduct(ctx context.Context, ref string) (*transport.ProductDetail, error) {
	l := logging.FromContext(ctx)

	if s.Cache != nil {
		d, err := s.Cache.Get(ctx, ref)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn("product_cache_get_failed", "ref", ref, "error", err)
		}
	}

	var (
		p   *models.Product
		err error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		p, err = s.Repo.GetProduct(ctx, id)
	} else {
		p, err = s.Repo.GetProductBySlug(ctx, ref)
	}
	if err != nil {
		return nil, notFound(err, "product "+ref)
	}
	if p.Status != models.ProductActive {
		return nil, fmt.Errorf("product %s is %s: %w", ref, p.Status, apperr.ErrNotFound)
	}

	avg, count, err := s.Repo.RatingSummary(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	d := &transport.ProductDetail{
		ProductResponse: transport.Product(*p),
		AverageRating:   float64(int(avg*10+0.5)) / 10,
		ReviewCount:     count,
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, d); err != nil {
			l.Warn("product_cache_set_failed", "product_id", p.ID, "error", err)
		}
	}
	return d, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, who identity.Identity, req transport.CreateProductRequest) (*models.Product, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := s.checkSlug(ctx, req.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	p := models.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Status:      models.ProductStatus(req.Status),
		CategoryID:  req.CategoryID,
		Images:      models.ImageList(req.Images),
	}
	if req.ComparePrice != nil {
		p.ComparePrice.Decimal = *req.ComparePrice
		p.ComparePrice.Valid = true
	}

	if err := s.Repo.CreateProduct(ctx, &p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("slug %q already exists: %w", req.Slug, apperr.ErrConflict)
		}
		return nil, err
	}

	s.afterWrite(ctx, "product_created", &p, "")
	return &p, nil
}

// PatchProduct writes only the columns present in the request, so stock
// moved by orders in the meantime is kept unless the admin sets it.
func (s *CatalogService) PatchProduct(ctx context.Context, who identity.Identity, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}

	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product "+id.String())
	}
	oldSlug := p.Slug

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if err := s.checkSlug(ctx, slug, id); err != nil {
			return nil, err
		}
		fields["slug"] = slug
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	switch {
	case req.ClearComparePrice:
		fields["compare_price"] = nil
	case req.ComparePrice != nil:
		fields["compare_price"] = decimal.NullDecimal{Decimal: *req.ComparePrice, Valid: true}
	}
	if req.Stock != nil {
		fields["stock"] = *req.Stock
	}
	if req.Status != nil {
		fields["status"] = models.ProductStatus(*req.Status)
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *req.CategoryID
	}
	if req.Images != nil {
		fields["images"] = models.ImageList(*req.Images)
	}
	if len(fields) == 0 {
		return p, nil
	}

	if err := s.Repo.UpdateProduct(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("slug already exists: %w", apperr.ErrConflict)
		}
		return nil, notFound(err, "product "+id.String())
	}

	p, err = s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product "+id.String())
	}
	s.afterWrite(ctx, "product_updated", p, oldSlug)
	return p, nil
}

// DeleteProduct refuses products that appear in any order; order history
// keeps its product references.
func (s *CatalogService) DeleteProduct(ctx context.Context, who identity.Identity, id uuid.UUID) error {
	if err := who.RequireAdmin(); err != nil {
		return err
	}

	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return notFound(err, "product "+id.String())
	}

	n, err := s.Repo.OrderedCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("cannot delete product that has been ordered: %w", apperr.ErrConflict)
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return fmt.Errorf("cannot delete product that has been ordered: %w", apperr.ErrConflict)
		default:
			return notFound(err, "product "+id.String())
		}
	}

	l := logging.FromContext(ctx)
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, p.ID, p.Slug); err != nil {
			l.Warn("product_cache_invalidate_failed", "product_id", p.ID, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, p.ID); err != nil {
			l.Warn("search_index_remove_failed", "product_id", p.ID, "error", err)
		}
	}
	s.publish(ctx, ProductEvent{Type: "product_deleted", ProductID: p.ID})
	return nil
}

func (s *CatalogService) ListReviews(ctx context.Context, productID uuid.UUID, offset, limit int) (int64, []models.Review, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return 0, nil, notFound(err, "product "+productID.String())
	}
	return s.Repo.ListReviews(ctx, productID, offset, limit)
}

// CreateReview marks the review verified when the author has bought the
// product in an order that was not cancelled.
func (s *CatalogService) CreateReview(ctx context.Context, who identity.Identity, productID uuid.UUID, req transport.CreateReviewRequest) (*models.Review, error) {
	if !who.Valid() {
		return nil, apperr.ErrUnauthorized
	}

	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product "+productID.String())
	}
	if p.Status != models.ProductActive {
		return nil, fmt.Errorf("product %s: %w", productID, apperr.ErrNotFound)
	}

	verified, err := s.Repo.HasPurchased(ctx, who.UserID, productID)
	if err != nil {
		return nil, err
	}

	rv := models.Review{
		ProductID: productID,
		UserID:    who.UserID,
		Rating:    req.Rating,
		Title:     strings.TrimSpace(req.Title),
		Comment:   strings.TrimSpace(req.Comment),
		Verified:  verified,
	}
	if err := s.Repo.CreateReview(ctx, &rv); err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, p.ID, p.Slug); err != nil {
			logging.FromContext(ctx).Warn("product_cache_invalidate_failed", "product_id", p.ID, "error", err)
		}
	}
	return &rv, nil
}

func (s *CatalogService) checkSlug(ctx context.Context, slug string, except uuid.UUID) error {
	taken, err := s.Repo.SlugTaken(ctx, slug, except)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("slug %q already exists: %w", slug, apperr.ErrConflict)
	}
	return nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	ok, err := s.Repo.CategoryExists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("category %s does not exist: %w", id, apperr.ErrInvalidRequest)
	}
	return nil
}

func (s *CatalogService) afterWrite(ctx context.Context, event string, p *models.Product, oldSlug string) {
	l := logging.FromContext(ctx)

	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, p.ID, p.Slug); err != nil {
			l.Warn("product_cache_invalidate_failed", "product_id", p.ID, "error", err)
		}
		if oldSlug != "" && oldSlug != p.Slug {
			if err := s.Cache.Invalidate(ctx, p.ID, oldSlug); err != nil {
				l.Warn("product_cache_invalidate_failed", "product_id", p.ID, "error", err)
			}
		}
	}
	if s.Index != nil {
		if err := s.Index.Put(ctx, p); err != nil {
			l.Warn("search_index_put_failed", "product_id", p.ID, "error", err)
		}
	}
	s.publish(ctx, ProductEvent{
		Type:      event,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     money.Float(p.Price),
		Stock:     p.Stock,
		Status:    string(p.Status),
	})
}

func (s *CatalogService) publish(ctx context.Context, ev ProductEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, ProductEventsTopic, ev.ProductID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("product_event_publish_failed", "type", ev.Type, "product_id", ev.ProductID, "error", err)
	}
}
