package testutil

import (
	"fmt"
	"testing"

	"github.com/kendall-kelly/storefront-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory sqlite database. A single connection keeps every
// query on the same in-memory database, so code under test must run transactional work
// on the transaction handle only.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts an active user with the given role
func CreateUser(t testing.TB, db *gorm.DB, auth0ID, role string) *models.User {
	t.Helper()

	user := &models.User{
		Auth0ID: auth0ID,
		Name:    "User " + auth0ID,
		Email:   fmt.Sprintf("%s@example.kz", sanitize(auth0ID)),
		Role:    role,
		Active:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// CreateStore inserts a store with the default theme, settings and delivery rows
func CreateStore(t testing.TB, db *gorm.DB, owner *models.User, slug string) *models.Store {
	t.Helper()

	store := &models.Store{
		OwnerID:       owner.ID,
		Name:          "Store " + slug,
		Slug:          slug,
		WhatsAppPhone: "77001234567",
		Plan:          models.PlanFree,
		Active:        true,
		Theme:         &models.Theme{},
		Settings: &models.StoreSettings{
			WhatsApp: models.WhatsAppSettings{Enabled: true},
		},
		Delivery: &models.DeliverySettings{
			PickupEnabled:   true,
			DeliveryEnabled: true,
			DeliveryFee:     decimal.NewFromInt(1000),
			PickupAddress:   "Алматы, Абая 10",
			PickupLat:       43.2389,
			PickupLon:       76.8897,
		},
	}
	if err := db.Create(store).Error; err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

// CreateProduct inserts an active, in-stock product
func CreateProduct(t testing.TB, db *gorm.DB, storeID uint, name string, price int64, images ...string) *models.Product {
	t.Helper()

	product := &models.Product{
		StoreID: storeID,
		Name:    name,
		Price:   decimal.NewFromInt(price),
		Images:  images,
		InStock: true,
		Active:  true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return product
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		}
	}
	return string(out)
}
