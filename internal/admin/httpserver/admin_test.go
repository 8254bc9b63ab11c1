package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/admin/repo"
	"github.com/Skotchmaster/storefront/internal/admin/service"
	"github.com/Skotchmaster/storefront/internal/admin/transport"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/pkg/pagination"
)

func TestAdminHandlers(t *testing.T) {
	db := testutil.NewDB(t)
	h := &AdminHTTP{Svc: &service.AdminService{Repo: repo.New(db)}}
	admin := testutil.CreateUser(t, db, "boss@shop.test", models.RoleAdmin)
	customer := testutil.CreateUser(t, db, "ada@shop.test", models.RoleCustomer)
	testutil.CreateProduct(t, db, "Last one", "3.00", 1)

	c, _ := testutil.NewContext(t, http.MethodGet, "/api/v1/admin/stats", nil)
	err := h.Stats(testutil.As(c, customer))
	assert.Equal(t, http.StatusForbidden, testutil.HTTPStatus(err))

	c, rec := testutil.NewContext(t, http.MethodGet, "/api/v1/admin/stats", nil)
	require.NoError(t, h.Stats(testutil.As(c, admin)))
	var st transport.StatsResponse
	testutil.DecodeJSON(t, rec, &st)
	assert.Equal(t, int64(1), st.TotalCustomers)
	assert.Equal(t, int64(1), st.TotalProducts)
	assert.Equal(t, 100.0, st.Customers.Change)

	c, rec = testutil.NewContext(t, http.MethodGet, "/api/v1/admin/low-stock", nil)
	require.NoError(t, h.LowStock(testutil.As(c, admin)))
	var low []transport.LowStockProduct
	testutil.DecodeJSON(t, rec, &low)
	require.Len(t, low, 1)
	assert.Equal(t, 1, low[0].Stock)

	c, rec = testutil.NewContext(t, http.MethodGet, "/api/v1/admin/recent-orders?limit=3", nil)
	require.NoError(t, h.RecentOrders(testutil.As(c, admin)))
	assert.JSONEq(t, "[]", rec.Body.String())

	c, rec = testutil.NewContext(t, http.MethodGet, "/api/v1/admin/customers?search=ada", nil)
	require.NoError(t, h.Customers(testutil.As(c, admin)))
	var page pagination.Page[transport.CustomerResponse]
	testutil.DecodeJSON(t, rec, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(0), page.Data[0].OrderCount)

	c, _ = testutil.NewContext(t, http.MethodGet, "/api/v1/admin/customers/x", nil)
	err = h.Customer(testutil.WithParams(testutil.As(c, admin), "id", "x"))
	assert.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(err))

	c, rec = testutil.NewContext(t, http.MethodGet, "/api/v1/admin/customers/"+customer.ID.String(), nil)
	require.NoError(t, h.Customer(testutil.WithParams(testutil.As(c, admin), "id", customer.ID.String())))
	var d transport.CustomerDetailResponse
	testutil.DecodeJSON(t, rec, &d)
	assert.Equal(t, "ada@shop.test", d.Email)
	assert.Empty(t, d.RecentOrders)
}
