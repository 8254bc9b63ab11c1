package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/hash"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with the production
// schema. One connection keeps concurrent transactions serialized.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:storefront_%d_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)",
		time.Now().UnixNano(), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()

	pw, err := hash.HashPassword("secret123")
	require.NoError(t, err)
	u := models.User{Email: email, Name: "User " + email, PasswordHash: pw, Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func CreateCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()

	c := models.Category{Name: name, Slug: slug(name)}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// CreateProduct inserts an ACTIVE product with the given price and stock.
func CreateProduct(t *testing.T, db *gorm.DB, name string, price string, stock int) models.Product {
	t.Helper()

	p := models.Product{
		Name:   name,
		Slug:   slug(name) + "-" + uuid.NewString()[:8],
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: models.ProductActive,
		Images: models.ImageList{"https://cdn.test/" + slug(name) + ".png"},
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func AddToCart(t *testing.T, db *gorm.DB, userID, productID uuid.UUID, qty int) models.CartItem {
	t.Helper()

	ci := models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
	require.NoError(t, db.Create(&ci).Error)
	return ci
}

func Stock(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", productID).Error)
	return p.Stock
}

func Count(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()

	var n int64
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
