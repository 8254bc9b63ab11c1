package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/order/repo"
	"github.com/Skotchmaster/storefront/internal/order/service"
	"github.com/Skotchmaster/storefront/internal/order/transport"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/pkg/pagination"
)

func orderBody(productID string, qty int) map[string]any {
	return map[string]any{
		"items": []map[string]any{{"product_id": productID, "quantity": qty}},
		"shipping_address": map[string]any{
			"full_name":   "Ada Lovelace",
			"line1":       "12 St James's Square",
			"city":        "London",
			"postal_code": "SW1Y 4JH",
			"country":     "GB",
		},
		"payment_method": "card",
		"subtotal":       25,
		"tax":            2.5,
		"shipping":       0,
		"total":          27.5,
	}
}

func TestOrderHandlers(t *testing.T) {
	db := testutil.NewDB(t)
	h := &OrderHTTP{Svc: &service.OrderService{Repo: repo.New(db)}}
	u := testutil.CreateUser(t, db, "ada@shop.test", models.RoleCustomer)
	eve := testutil.CreateUser(t, db, "eve@shop.test", models.RoleCustomer)
	admin := testutil.CreateUser(t, db, "boss@shop.test", models.RoleAdmin)
	p := testutil.CreateProduct(t, db, "Mug", "12.50", 3)

	c, _ := testutil.NewContext(t, http.MethodPost, "/api/v1/orders", orderBody(p.ID.String(), 2))
	err := h.PlaceOrder(c)
	assert.Equal(t, http.StatusUnauthorized, testutil.HTTPStatus(err))

	c, _ = testutil.NewContext(t, http.MethodPost, "/api/v1/orders", `{"items":[],"coupon":"FREE"}`)
	err = h.PlaceOrder(testutil.As(c, u))
	assert.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(err))

	c, rec := testutil.NewContext(t, http.MethodPost, "/api/v1/orders", orderBody(p.ID.String(), 2))
	require.NoError(t, h.PlaceOrder(testutil.As(c, u)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed transport.OrderResponse
	testutil.DecodeJSON(t, rec, &placed)
	assert.Equal(t, "PENDING", placed.Status)
	assert.Equal(t, 27.5, placed.Total)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, 25.0, placed.Items[0].LineTotal)
	require.NotNil(t, placed.Customer)
	assert.Equal(t, "ada@shop.test", placed.Customer.Email)

	c, _ = testutil.NewContext(t, http.MethodPost, "/api/v1/orders", orderBody(p.ID.String(), 2))
	err = h.PlaceOrder(testutil.As(c, u))
	assert.Equal(t, http.StatusConflict, testutil.HTTPStatus(err))

	c, rec = testutil.NewContext(t, http.MethodGet, "/api/v1/orders?page=1&limit=10", nil)
	require.NoError(t, h.ListOrders(testutil.As(c, u)))
	var page pagination.Page[transport.OrderResponse]
	testutil.DecodeJSON(t, rec, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(1), page.Meta.Total)

	c, _ = testutil.NewContext(t, http.MethodGet, "/api/v1/orders/"+placed.ID.String(), nil)
	err = h.GetOrder(testutil.WithParams(testutil.As(c, eve), "id", placed.ID.String()))
	assert.Equal(t, http.StatusNotFound, testutil.HTTPStatus(err))

	c, _ = testutil.NewContext(t, http.MethodGet, "/api/v1/orders/nope", nil)
	err = h.GetOrder(testutil.WithParams(testutil.As(c, u), "id", "nope"))
	assert.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(err))

	c, rec = testutil.NewContext(t, http.MethodGet, "/api/v1/orders/"+placed.ID.String(), nil)
	require.NoError(t, h.GetOrder(testutil.WithParams(testutil.As(c, u), "id", placed.ID.String())))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = testutil.NewContext(t, http.MethodGet, "/api/v1/admin/orders", nil)
	err = h.AdminListOrders(testutil.As(c, u))
	assert.Equal(t, http.StatusForbidden, testutil.HTTPStatus(err))

	c, rec = testutil.NewContext(t, http.MethodGet, "/api/v1/admin/orders?status=pending&search=ada", nil)
	require.NoError(t, h.AdminListOrders(testutil.As(c, admin)))
	page = pagination.Page[transport.OrderResponse]{}
	testutil.DecodeJSON(t, rec, &page)
	assert.Equal(t, int64(1), page.Meta.Total)

	c, _ = testutil.NewContext(t, http.MethodPatch, "/api/v1/admin/orders/"+placed.ID.String()+"/status", map[string]any{"status": "LOST"})
	err = h.UpdateStatus(testutil.WithParams(testutil.As(c, admin), "id", placed.ID.String()))
	assert.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(err))

	c, rec = testutil.NewContext(t, http.MethodPatch, "/api/v1/admin/orders/"+placed.ID.String()+"/status", map[string]any{"status": "shipped"})
	require.NoError(t, h.UpdateStatus(testutil.WithParams(testutil.As(c, admin), "id", placed.ID.String())))
	var updated transport.OrderResponse
	testutil.DecodeJSON(t, rec, &updated)
	assert.Equal(t, "SHIPPED", updated.Status)
}
