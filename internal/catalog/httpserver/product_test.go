package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/catalog/repo"
	"github.com/Skotchmaster/storefront/internal/catalog/service"
	"github.com/Skotchmaster/storefront/internal/catalog/transport"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/pkg/pagination"
)

func newHandler(t *testing.T) (*CatalogHTTP, *gorm.DB) {
	t.Helper()

	db := testutil.NewDB(t)
	return &CatalogHTTP{Svc: &service.CatalogService{Repo: repo.New(db), Events: &testutil.Events{}}}, db
}

func TestGetProducts(t *testing.T) {
	h, db := newHandler(t)
	testutil.CreateProduct(t, db, "Mug", "12.50", 3)
	testutil.CreateProduct(t, db, "Poster", "4.00", 3)

	c, rec := testutil.NewContext(t, http.MethodGet, "/api/v1/catalog/products?page=1&size=1&sort=price_asc", nil)
	require.NoError(t, h.GetProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp pagination.Page[transport.ProductResponse]
	testutil.DecodeJSON(t, rec, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Poster", resp.Data[0].Name)
	assert.Equal(t, 4.0, resp.Data[0].Price)
	assert.Equal(t, int64(2), resp.Meta.Total)
	assert.True(t, resp.Meta.HasNext)
}

func TestGetProduct_NotFound(t *testing.T) {
	h, _ := newHandler(t)

	c, _ := testutil.NewContext(t, http.MethodGet, "/api/v1/catalog/products/nope", nil)
	testutil.WithParams(c, "ref", "nope")
	err := h.GetProduct(c)
	assert.Equal(t, http.StatusNotFound, testutil.HTTPStatus(err))
}

func TestCreateProduct_Handler(t *testing.T) {
	h, db := newHandler(t)
	admin := testutil.CreateUser(t, db, "admin@shop.test", models.RoleAdmin)
	customer := testutil.CreateUser(t, db, "c@shop.test", models.RoleCustomer)

	body := map[string]any{"name": "Mug", "slug": "mug", "price": 9.99, "stock": 2, "status": "ACTIVE"}

	c, _ := testutil.NewContext(t, http.MethodPost, "/api/v1/admin/products", body)
	err := h.CreateProduct(testutil.As(c, customer))
	assert.Equal(t, http.StatusForbidden, testutil.HTTPStatus(err))

	c, rec := testutil.NewContext(t, http.MethodPost, "/api/v1/admin/products", body)
	require.NoError(t, h.CreateProduct(testutil.As(c, admin)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var p transport.ProductResponse
	testutil.DecodeJSON(t, rec, &p)
	assert.Equal(t, 9.99, p.Price)
	assert.Equal(t, "ACTIVE", p.Status)

	c, _ = testutil.NewContext(t, http.MethodPost, "/api/v1/admin/products", body)
	err = h.CreateProduct(testutil.As(c, admin))
	assert.Equal(t, http.StatusConflict, testutil.HTTPStatus(err))

	c, _ = testutil.NewContext(t, http.MethodPost, "/api/v1/admin/products",
		`{"name":"X","slug":"x","price":1,"unknown":true}`)
	err = h.CreateProduct(testutil.As(c, admin))
	assert.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(err))

	c, _ = testutil.NewContext(t, http.MethodPost, "/api/v1/admin/products",
		map[string]any{"name": "X", "slug": "x", "price": -1})
	err = h.CreateProduct(testutil.As(c, admin))
	assert.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(err))
}

func TestDeleteProduct_Handler(t *testing.T) {
	h, db := newHandler(t)
	admin := testutil.CreateUser(t, db, "admin@shop.test", models.RoleSuperAdmin)
	p := testutil.CreateProduct(t, db, "Mug", "1.00", 1)

	c, _ := testutil.NewContext(t, http.MethodDelete, "/api/v1/admin/products/x", nil)
	err := h.DeleteProduct(testutil.WithParams(testutil.As(c, admin), "id", "x"))
	assert.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(err))

	c, rec := testutil.NewContext(t, http.MethodDelete, "/api/v1/admin/products/"+p.ID.String(), nil)
	require.NoError(t, h.DeleteProduct(testutil.WithParams(testutil.As(c, admin), "id", p.ID.String())))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
