package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/catalog/repo"
	"github.com/Skotchmaster/storefront/internal/catalog/service"
	"github.com/Skotchmaster/storefront/internal/catalog/transport"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/pkg/binding"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/pagination"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id, nil
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_categories")

	items, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return apperr.HTTPError(l, "list_categories_error", err)
	}

	out := make([]transport.CategoryResponse, 0, len(items))
	for _, cat := range items {
		out = append(out, transport.Category(cat))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_category")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "create_category_error", err)
	}

	var req transport.CreateCategoryRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("create_category_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	cat, err := h.Svc.CreateCategory(ctx, who, req)
	if err != nil {
		return apperr.HTTPError(l, "create_category_error", err)
	}

	l.Info("create_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, transport.Category(*cat))
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products")

	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("size"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	f := repo.ProductFilter{
		Category: c.QueryParam("category"),
		Sort:     c.QueryParam("sort"),
	}
	total, items, err := h.Svc.ListProducts(ctx, f, offset, limit)
	if err != nil {
		return apperr.HTTPError(l, "get_products_error", err)
	}

	return c.JSON(http.StatusOK, pagination.Page[transport.ProductResponse]{
		Data: transport.Products(items),
		Meta: pagination.NewMeta(page, limit, total),
	})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_products")

	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("size"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return apperr.HTTPError(l, "search_products_error", err)
	}

	return c.JSON(http.StatusOK, pagination.Page[transport.ProductResponse]{
		Data: transport.Products(items),
		Meta: pagination.NewMeta(page, limit, total),
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	d, err := h.Svc.GetProduct(ctx, c.Param("ref"))
	if err != nil {
		return apperr.HTTPError(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "product_create_error", err)
	}

	var req transport.CreateProductRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	p, err := h.Svc.CreateProduct(ctx, who, req)
	if err != nil {
		return apperr.HTTPError(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, transport.Product(*p))
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_product")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "product_patch_error", err)
	}
	id, err := parseID(c)
	if err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "id not a uuid")
		return err
	}

	var req transport.PatchProductRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	p, err := h.Svc.PatchProduct(ctx, who, id, req)
	if err != nil {
		return apperr.HTTPError(l, "product_patch_error", err)
	}

	l.Info("patch_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, transport.Product(*p))
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	who, err := identity.Admin(c)
	if err != nil {
		return apperr.HTTPError(l, "product_delete_error", err)
	}
	id, err := parseID(c)
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "id not a uuid")
		return err
	}

	if err := h.Svc.DeleteProduct(ctx, who, id); err != nil {
		return apperr.HTTPError(l, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) ListReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_reviews")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("size"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, items, err := h.Svc.ListReviews(ctx, id, offset, limit)
	if err != nil {
		return apperr.HTTPError(l, "list_reviews_error", err)
	}

	out := make([]transport.ReviewResponse, 0, len(items))
	for _, rv := range items {
		out = append(out, transport.Review(rv))
	}
	return c.JSON(http.StatusOK, pagination.Page[transport.ReviewResponse]{
		Data: out,
		Meta: pagination.NewMeta(page, limit, total),
	})
}

func (h *CatalogHTTP) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_review")

	who, err := identity.FromEcho(c)
	if err != nil {
		return apperr.HTTPError(l, "create_review_error", err)
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req transport.CreateReviewRequest
	if err := binding.JSON(c, &req); err != nil {
		l.Warn("create_review_error", "status", 400, "reason", "invalid body", "error", err)
		return binding.HTTPError(err)
	}

	rv, err := h.Svc.CreateReview(ctx, who, id, req)
	if err != nil {
		return apperr.HTTPError(l, "create_review_error", err)
	}

	l.Info("create_review_success", "review_id", rv.ID, "verified", rv.Verified)
	return c.JSON(http.StatusCreated, transport.Review(*rv))
}
