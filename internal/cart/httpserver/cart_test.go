package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cart/repo"
	"github.com/Skotchmaster/storefront/internal/cart/service"
	"github.com/Skotchmaster/storefront/internal/cart/transport"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

func TestCartHandlers(t *testing.T) {
	db := testutil.NewDB(t)
	h := &CartHTTP{Svc: &service.CartService{Repo: repo.New(db)}}
	u := testutil.CreateUser(t, db, "shopper@shop.test", models.RoleCustomer)
	p := testutil.CreateProduct(t, db, "Mug", "4.25", 5)

	c, _ := testutil.NewContext(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": p.ID, "quantity": 1})
	err := h.AddItem(c)
	assert.Equal(t, http.StatusUnauthorized, testutil.HTTPStatus(err))

	c, rec := testutil.NewContext(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": p.ID, "quantity": 2})
	require.NoError(t, h.AddItem(testutil.As(c, u)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var item transport.ItemResponse
	testutil.DecodeJSON(t, rec, &item)
	assert.Equal(t, 8.5, item.LineTotal)

	c, _ = testutil.NewContext(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": p.ID, "quantity": 4})
	err = h.AddItem(testutil.As(c, u))
	assert.Equal(t, http.StatusConflict, testutil.HTTPStatus(err))

	c, rec = testutil.NewContext(t, http.MethodGet, "/api/v1/cart?page=1&limit=10", nil)
	require.NoError(t, h.GetCart(testutil.As(c, u)))
	var cart transport.CartResponse
	testutil.DecodeJSON(t, rec, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 8.5, cart.Subtotal)
	assert.Equal(t, int64(2), cart.ItemCount)

	c, _ = testutil.NewContext(t, http.MethodPatch, "/api/v1/cart/items/"+item.ID.String(), map[string]any{"quantity": -1})
	err = h.UpdateItem(testutil.WithParams(testutil.As(c, u), "id", item.ID.String()))
	assert.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(err))

	c, rec = testutil.NewContext(t, http.MethodPatch, "/api/v1/cart/items/"+item.ID.String(), map[string]any{"quantity": 0})
	require.NoError(t, h.UpdateItem(testutil.WithParams(testutil.As(c, u), "id", item.ID.String())))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(0), testutil.Count(t, db, &models.CartItem{}, ""))

	c, _ = testutil.NewContext(t, http.MethodDelete, "/api/v1/cart/items/"+item.ID.String(), nil)
	err = h.RemoveItem(testutil.WithParams(testutil.As(c, u), "id", item.ID.String()))
	assert.Equal(t, http.StatusNotFound, testutil.HTTPStatus(err))
}
