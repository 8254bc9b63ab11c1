package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/account/repo"
	"github.com/Skotchmaster/storefront/internal/account/service"
	"github.com/Skotchmaster/storefront/internal/account/transport"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

func TestAccountHandlers(t *testing.T) {
	db := testutil.NewDB(t)
	h := &AccountHTTP{Svc: &service.AccountService{Repo: repo.New(db), JWTSecret: []byte("s"), AccessTTL: time.Hour}}

	c, _ := testutil.NewContext(t, http.MethodPost, "/api/v1/auth/register", map[string]any{"email": "a@shop.test", "name": "A", "password": "password1", "role": "ADMIN"})
	err := h.Register(c)
	assert.Equal(t, http.StatusBadRequest, testutil.HTTPStatus(err))

	c, rec := testutil.NewContext(t, http.MethodPost, "/api/v1/auth/register", map[string]any{"email": "a@shop.test", "name": "A", "password": "password1"})
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u transport.UserResponse
	testutil.DecodeJSON(t, rec, &u)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.False(t, u.IsAdmin)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), tokens.AccessCookie+"=")

	c, _ = testutil.NewContext(t, http.MethodPost, "/api/v1/auth/register", map[string]any{"email": "a@shop.test", "name": "A", "password": "password1"})
	err = h.Register(c)
	assert.Equal(t, http.StatusConflict, testutil.HTTPStatus(err))

	c, _ = testutil.NewContext(t, http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "a@shop.test", "password": "nope-nope"})
	err = h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, testutil.HTTPStatus(err))

	c, rec = testutil.NewContext(t, http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "a@shop.test", "password": "password1"})
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = testutil.NewContext(t, http.MethodGet, "/api/v1/auth/me", nil)
	err = h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, testutil.HTTPStatus(err))

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	c, rec = testutil.NewContext(t, http.MethodGet, "/api/v1/auth/me", nil)
	require.NoError(t, h.Me(testutil.As(c, stored)))
	testutil.DecodeJSON(t, rec, &u)
	assert.Equal(t, "a@shop.test", u.Email)

	c, rec = testutil.NewContext(t, http.MethodPost, "/api/v1/auth/logout", nil)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}
