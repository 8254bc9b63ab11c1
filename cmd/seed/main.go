package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/hash"
)

type seedProduct struct {
	name, slug, category, price, description string
	stock                                    int
}

var categories = []models.Category{
	{Name: "Stationery", Slug: "stationery"},
	{Name: "Kitchen", Slug: "kitchen"},
	{Name: "Lighting", Slug: "lighting"},
}

var products = []seedProduct{
	{"Dot grid notebook", "dot-grid-notebook", "stationery", "12.50", "A5, 192 pages, lay-flat binding.", 40},
	{"Brass fountain pen", "brass-fountain-pen", "stationery", "48.00", "Medium nib, converter included.", 8},
	{"Stoneware mug", "stoneware-mug", "kitchen", "16.00", "350 ml, dishwasher safe.", 25},
	{"Pour-over kettle", "pour-over-kettle", "kitchen", "59.90", "Gooseneck spout, 1 l.", 3},
	{"Desk lamp", "desk-lamp", "lighting", "74.00", "Adjustable arm, warm LED.", 0},
}

// seed is idempotent: rows are matched by slug or email and left alone
// when they exist.
func seed(ctx context.Context, db *gorm.DB, adminEmail, adminPassword string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bySlug := make(map[string]models.Category, len(categories))
		for _, c := range categories {
			if err := tx.Where(models.Category{Slug: c.Slug}).Attrs(c).FirstOrCreate(&c).Error; err != nil {
				return err
			}
			bySlug[c.Slug] = c
		}

		for _, sp := range products {
			cat := bySlug[sp.category]
			p := models.Product{
				Name:        sp.name,
				Slug:        sp.slug,
				Description: sp.description,
				Price:       decimal.RequireFromString(sp.price),
				Stock:       sp.stock,
				Status:      models.ProductActive,
				CategoryID:  &cat.ID,
				Images:      models.ImageList{"/images/" + sp.slug + ".jpg"},
			}
			if err := tx.Where(models.Product{Slug: p.Slug}).Attrs(p).FirstOrCreate(&p).Error; err != nil {
				return err
			}
		}

		if adminEmail == "" {
			return nil
		}
		pw, err := hash.HashPassword(adminPassword)
		if err != nil {
			return err
		}
		admin := models.User{Email: adminEmail, Name: "Store admin", PasswordHash: pw, Role: models.RoleSuperAdmin}
		return tx.Where(models.User{Email: adminEmail}).Attrs(admin).FirstOrCreate(&admin).Error
	})
}

func main() {
	cfg := config.Load(".env")
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminEmail != "" {
		config.MustNonEmpty(adminPassword, "SEED_ADMIN_PASSWORD")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := pkgdb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = pkgdb.Close(db) }()

	if err := models.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := seed(ctx, db, adminEmail, adminPassword); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seeded %d categories, %d products", len(categories), len(products))
}
