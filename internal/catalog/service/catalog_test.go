package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/catalog/cache"
	"github.com/Skotchmaster/storefront/internal/catalog/repo"
	"github.com/Skotchmaster/storefront/internal/catalog/transport"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

type fakeIndex struct {
	ids  []uuid.UUID
	err  error
	puts []uuid.UUID
	dels []uuid.UUID
}

func (f *fakeIndex) Put(_ context.Context, p *models.Product) error {
	f.puts = append(f.puts, p.ID)
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id uuid.UUID) error {
	f.dels = append(f.dels, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int, int) (int64, []uuid.UUID, error) {
	return int64(len(f.ids)), f.ids, f.err
}

type env struct {
	db     *gorm.DB
	svc    *CatalogService
	events *testutil.Events
	admin  identity.Identity
	user   identity.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.NewDB(t)
	events := &testutil.Events{}
	a := testutil.CreateUser(t, db, "admin@shop.test", models.RoleAdmin)
	u := testutil.CreateUser(t, db, "user@shop.test", models.RoleCustomer)

	return &env{
		db:     db,
		svc:    &CatalogService{Repo: repo.New(db), Events: events},
		events: events,
		admin:  identity.Identity{UserID: a.ID, Role: a.Role},
		user:   identity.Identity{UserID: u.ID, Role: u.Role},
	}
}

func TestListProducts_OnlyActiveFilteredAndSorted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	mugs := testutil.CreateCategory(t, e.db, "Mugs")
	cheap := testutil.CreateProduct(t, e.db, "Cheap mug", "5.00", 3)
	dear := testutil.CreateProduct(t, e.db, "Dear mug", "25.00", 3)
	other := testutil.CreateProduct(t, e.db, "Poster", "9.00", 3)
	draft := testutil.CreateProduct(t, e.db, "Draft mug", "1.00", 3)

	require.NoError(t, e.db.Model(&models.Product{}).Where("id IN ?", []uuid.UUID{cheap.ID, dear.ID, draft.ID}).
		Update("category_id", mugs.ID).Error)
	require.NoError(t, e.db.Model(&draft).Update("status", models.ProductDraft).Error)

	total, items, err := e.svc.ListProducts(ctx, repo.ProductFilter{Category: "mugs", Sort: "price_desc"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, dear.ID, items[0].ID)
	assert.Equal(t, cheap.ID, items[1].ID)
	require.NotNil(t, items[0].Category)
	assert.Equal(t, "Mugs", items[0].Category.Name)

	total, items, err = e.svc.ListProducts(ctx, repo.ProductFilter{Sort: "price_asc"}, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, cheap.ID, items[0].ID)
	assert.Equal(t, other.ID, items[1].ID)
}

func TestSearchProducts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	mug := testutil.CreateProduct(t, e.db, "Blue Mug", "5.00", 3)
	poster := testutil.CreateProduct(t, e.db, "Poster", "9.00", 3)

	_, _, err := e.svc.SearchProducts(ctx, "  ", 0, 10)
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	total, items, err := e.svc.SearchProducts(ctx, "blue", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, mug.ID, items[0].ID)

	e.svc.Index = &fakeIndex{ids: []uuid.UUID{poster.ID, mug.ID}}
	_, items, err = e.svc.SearchProducts(ctx, "anything", 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, poster.ID, items[0].ID)

	e.svc.Index = &fakeIndex{err: errors.New("es down")}
	total, _, err = e.svc.SearchProducts(ctx, "poster", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestGetProduct_CachedAndRated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e.svc.Cache = cache.NewProductCache(rdb, time.Minute)

	p := testutil.CreateProduct(t, e.db, "Mug", "12.50", 4)
	require.NoError(t, e.db.Create(&models.Review{ProductID: p.ID, UserID: e.user.UserID, Rating: 4}).Error)
	require.NoError(t, e.db.Create(&models.Review{ProductID: p.ID, UserID: e.admin.UserID, Rating: 5}).Error)

	d, err := e.svc.GetProduct(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, 12.5, d.Price)
	assert.Equal(t, 4.5, d.AverageRating)
	assert.Equal(t, int64(2), d.ReviewCount)
	assert.True(t, mr.Exists("product:"+p.ID.String()))

	// served from cache even though the row changed underneath
	require.NoError(t, e.db.Model(&p).Update("stock", 1).Error)
	d, err = e.svc.GetProduct(ctx, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 4, d.Stock)

	stock := 2
	_, err = e.svc.PatchProduct(ctx, e.admin, p.ID, transport.PatchProductRequest{Stock: &stock})
	require.NoError(t, err)
	d, err = e.svc.GetProduct(ctx, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Stock)
}

func TestGetProduct_HiddenAndMissing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := testutil.CreateProduct(t, e.db, "Mug", "12.50", 4)
	require.NoError(t, e.db.Model(&p).Update("status", models.ProductInactive).Error)

	_, err := e.svc.GetProduct(ctx, p.ID.String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.svc.GetProduct(ctx, "no-such-slug")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPatchProduct_KeepsStockMovedByOrders(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := testutil.CreateProduct(t, e.db, "Mug", "12.50", 5)

	// an order commits its decrement after the patch read the row
	var fired atomic.Bool
	require.NoError(t, e.db.Callback().Update().Before("gorm:update").Register("test:order_decrement", func(tx *gorm.DB) {
		if tx.Statement.Table != "products" || !fired.CompareAndSwap(false, true) {
			return
		}
		if _, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE products SET stock = stock - 2 WHERE id = ?", p.ID); err != nil {
			_ = tx.AddError(err)
		}
	}))

	price := decimal.RequireFromString("15.00")
	got, err := e.svc.PatchProduct(ctx, e.admin, p.ID, transport.PatchProductRequest{Price: &price})
	require.NoError(t, err)
	require.True(t, fired.Load())

	assert.Equal(t, 3, testutil.Stock(t, e.db, p.ID))
	assert.Equal(t, 3, got.Stock)
	assert.True(t, price.Equal(got.Price))
	assert.Equal(t, []string{"product_updated"}, e.events.Types(ProductEventsTopic))
}

func TestPatchProduct_Fields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := testutil.CreateProduct(t, e.db, "Mug", "12.50", 5)
	other := testutil.CreateProduct(t, e.db, "Cup", "3.00", 5)

	compare := decimal.RequireFromString("20.00")
	name := "Big Mug"
	got, err := e.svc.PatchProduct(ctx, e.admin, p.ID, transport.PatchProductRequest{Name: &name, ComparePrice: &compare})
	require.NoError(t, err)
	assert.Equal(t, "Big Mug", got.Name)
	require.True(t, got.ComparePrice.Valid)
	assert.True(t, compare.Equal(got.ComparePrice.Decimal))
	assert.Equal(t, 5, got.Stock)

	got, err = e.svc.PatchProduct(ctx, e.admin, p.ID, transport.PatchProductRequest{ClearComparePrice: true})
	require.NoError(t, err)
	assert.False(t, got.ComparePrice.Valid)
	assert.Equal(t, "Big Mug", got.Name)

	var stored models.Product
	require.NoError(t, e.db.First(&stored, "id = ?", p.ID).Error)
	assert.False(t, stored.ComparePrice.Valid)

	_, err = e.svc.PatchProduct(ctx, e.admin, p.ID, transport.PatchProductRequest{Slug: &other.Slug})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = e.svc.PatchProduct(ctx, e.admin, uuid.New(), transport.PatchProductRequest{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.svc.PatchProduct(ctx, e.user, p.ID, transport.PatchProductRequest{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	bad := transport.PatchProductRequest{ComparePrice: &compare, ClearComparePrice: true}
	assert.Error(t, bad.Validate())
}

func TestCreateProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idx := &fakeIndex{}
	e.svc.Index = idx

	req := transport.CreateProductRequest{
		Name:   "Mug",
		Slug:   "mug",
		Price:  decimal.RequireFromString("9.99"),
		Stock:  5,
		Status: string(models.ProductActive),
		Images: []string{"a.png", "b.png"},
	}

	_, err := e.svc.CreateProduct(ctx, e.user, req)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	p, err := e.svc.CreateProduct(ctx, e.admin, req)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, idx.puts)
	assert.Equal(t, []string{"product_created"}, e.events.Types(ProductEventsTopic))

	var stored models.Product
	require.NoError(t, e.db.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, models.ImageList{"a.png", "b.png"}, stored.Images)
	assert.True(t, decimal.RequireFromString("9.99").Equal(stored.Price))

	_, err = e.svc.CreateProduct(ctx, e.admin, req)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	bogus := uuid.New()
	req.Slug = "mug-2"
	req.CategoryID = &bogus
	_, err = e.svc.CreateProduct(ctx, e.admin, req)
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
}

func TestDeleteProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idx := &fakeIndex{}
	e.svc.Index = idx

	ordered := testutil.CreateProduct(t, e.db, "Ordered", "5.00", 5)
	free := testutil.CreateProduct(t, e.db, "Free", "5.00", 5)

	o := models.Order{
		OrderNumber:     "ORD-1-abcdef",
		UserID:          e.user.UserID,
		Status:          models.OrderPending,
		ShippingAddress: models.Address{FullName: "A", Line1: "1 St", City: "X", PostalCode: "1", Country: "US"},
		PaymentMethod:   "card",
		Items:           []models.OrderItem{{ProductID: ordered.ID, Quantity: 1, Price: ordered.Price}},
	}
	require.NoError(t, e.db.Create(&o).Error)

	err := e.svc.DeleteProduct(ctx, e.admin, ordered.ID)
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "cannot delete product that has been ordered")

	require.NoError(t, e.svc.DeleteProduct(ctx, e.admin, free.ID))
	assert.Equal(t, []uuid.UUID{free.ID}, idx.dels)
	assert.Equal(t, []string{"product_deleted"}, e.events.Types(ProductEventsTopic))

	assert.ErrorIs(t, e.svc.DeleteProduct(ctx, e.admin, free.ID), apperr.ErrNotFound)
	assert.ErrorIs(t, e.svc.DeleteProduct(ctx, e.user, ordered.ID), apperr.ErrForbidden)
}

func TestCreateReview_Verified(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := testutil.CreateProduct(t, e.db, "Mug", "5.00", 5)

	rv, err := e.svc.CreateReview(ctx, e.user, p.ID, transport.CreateReviewRequest{Rating: 3})
	require.NoError(t, err)
	assert.False(t, rv.Verified)

	o := models.Order{
		OrderNumber:     "ORD-2-abcdef",
		UserID:          e.user.UserID,
		Status:          models.OrderDelivered,
		ShippingAddress: models.Address{FullName: "A", Line1: "1 St", City: "X", PostalCode: "1", Country: "US"},
		PaymentMethod:   "card",
		Items:           []models.OrderItem{{ProductID: p.ID, Quantity: 1, Price: p.Price}},
	}
	require.NoError(t, e.db.Create(&o).Error)

	rv, err = e.svc.CreateReview(ctx, e.user, p.ID, transport.CreateReviewRequest{Rating: 5, Title: " great "})
	require.NoError(t, err)
	assert.True(t, rv.Verified)
	assert.Equal(t, "great", rv.Title)

	total, reviews, err := e.svc.ListReviews(ctx, p.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.NotNil(t, reviews[0].User)

	_, err = e.svc.CreateReview(ctx, identity.Identity{}, p.ID, transport.CreateReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
