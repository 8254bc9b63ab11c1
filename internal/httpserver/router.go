package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	accounthttp "github.com/Skotchmaster/storefront/internal/account/httpserver"
	adminhttp "github.com/Skotchmaster/storefront/internal/admin/httpserver"
	carthttp "github.com/Skotchmaster/storefront/internal/cart/httpserver"
	cataloghttp "github.com/Skotchmaster/storefront/internal/catalog/httpserver"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	orderhttp "github.com/Skotchmaster/storefront/internal/order/httpserver"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
)

type Deps struct {
	Account *accounthttp.AccountHTTP
	Catalog *cataloghttp.CatalogHTTP
	Cart    *carthttp.CartHTTP
	Orders  *orderhttp.OrderHTTP
	Admin   *adminhttp.AdminHTTP
	Notify  *notify.NotifyHTTP

	JWTSecret []byte
	// Ready backs /health/ready; nil means always ready.
	Ready func(ctx context.Context) error

	// CSRF enables the double-submit check on /api/v1; nil disables it.
	CSRF *csrf.Config

	OrderRateLimit rate.Limit
	OrderBurst     int
}

// orderLimiter throttles order placement per authenticated user, falling
// back to the client ip.
func orderLimiter(limit rate.Limit, burst int) echo.MiddlewareFunc {
	if limit <= 0 {
		limit = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      limit,
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if id, ok := c.Get(authmw.UserIDKey).(string); ok && id != "" {
				return "user:" + id, nil
			}
			return "ip:" + c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "cannot identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := authmw.NewAuthMiddleware(d.JWTSecret, models.RoleAdmin, models.RoleSuperAdmin)
	api := e.Group("/api/v1")
	if d.CSRF != nil {
		api.Use(csrf.Middleware(*d.CSRF))
	}

	auth := api.Group("/auth")
	auth.POST("/register", d.Account.Register)
	auth.POST("/login", d.Account.Login)
	auth.POST("/logout", d.Account.Logout)
	auth.GET("/me", d.Account.Me, authMW.RequireAuth)

	catalog := api.Group("/catalog")
	catalog.GET("/categories", d.Catalog.ListCategories)
	catalog.GET("/products", d.Catalog.GetProducts)
	catalog.GET("/products/search", d.Catalog.SearchProducts)
	catalog.GET("/products/:ref", d.Catalog.GetProduct)
	catalog.GET("/products/:id/reviews", d.Catalog.ListReviews)
	catalog.POST("/products/:id/reviews", d.Catalog.CreateReview, authMW.RequireAuth)

	cart := api.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:id", d.Cart.UpdateItem)
	cart.DELETE("/items/:id", d.Cart.RemoveItem)

	orders := api.Group("/orders", authMW.RequireAuth)
	orders.POST("", d.Orders.PlaceOrder, orderLimiter(d.OrderRateLimit, d.OrderBurst))
	orders.GET("", d.Orders.ListOrders)
	orders.GET("/:id", d.Orders.GetOrder)

	admin := api.Group("/admin", authMW.RequireAdmin)
	admin.GET("/stats", d.Admin.Stats)
	admin.GET("/recent-orders", d.Admin.RecentOrders)
	admin.GET("/low-stock", d.Admin.LowStock)
	admin.GET("/customers", d.Admin.Customers)
	admin.GET("/customers/:id", d.Admin.Customer)
	admin.GET("/orders", d.Orders.AdminListOrders)
	admin.PATCH("/orders/:id/status", d.Orders.UpdateStatus)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PATCH("/products/:id", d.Catalog.PatchProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)
	admin.POST("/categories", d.Catalog.CreateCategory)

	internal := e.Group("/internal")
	internal.POST("/notifications/order-confirmation", d.Notify.OrderConfirmation)
}
