package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/middleware"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"github.com/kendall-kelly/storefront-api/tests/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ownerEnv is a migrated database with one owner and their store
type ownerEnv struct {
	db    *gorm.DB
	owner *models.User
	store *models.Store
	cache *services.MemoryStorefrontCache
}

func setupOwnerEnv(t *testing.T) *ownerEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	config.SetDB(db)

	originalConfig := config.GetConfig()
	config.SetConfig(&config.Config{
		GoEnv:                 "test",
		PublicBaseURL:         "https://shop.test",
		YandexDeliveryBaseURL: "http://127.0.0.1:1",
		CheckoutRateLimit:     100,
	})

	cache := services.NewMemoryStorefrontCache()
	services.SetStorefrontCache(cache)
	t.Cleanup(func() {
		config.SetConfig(originalConfig)
		services.SetStorefrontCache(services.NoopStorefrontCache{})
	})

	owner := testutil.CreateUser(t, db, "auth0|owner", models.RoleOwner)
	store := testutil.CreateStore(t, db, owner, "flowers")
	return &ownerEnv{db: db, owner: owner, store: store, cache: cache}
}

// ownerRouter authenticates every request as auth0ID and resolves their store
func ownerRouter(t *testing.T, auth0ID string) (*gin.Engine, *gin.RouterGroup) {
	t.Helper()
	router := testutil.NewTestRouter(t)
	group := router.Group("/api/my-store",
		testutil.MockAuth(auth0ID, "", "token"),
		middleware.LoadCurrentUser(),
		middleware.LoadOwnerStore(),
	)
	return router, group
}

// adminRouter authenticates every request as auth0ID and requires the superadmin role
func adminRouter(t *testing.T, auth0ID string) (*gin.Engine, *gin.RouterGroup) {
	t.Helper()
	router := testutil.NewTestRouter(t)
	group := router.Group("/api/superadmin",
		testutil.MockAuth(auth0ID, models.RoleSuperadmin, "token"),
		middleware.LoadCurrentUser(),
		middleware.RequireSuperadmin(),
	)
	return router, group
}

// doRequest sends a JSON request and returns the recorder and decoded envelope
func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, testutil.Envelope) {
	t.Helper()
	return testutil.DoJSON(t, router, method, path, body)
}

// dataMap decodes the envelope data into a generic map
func dataMap(t *testing.T, env testutil.Envelope) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	testutil.DecodeData(t, env, &m)
	return m
}

// seedOrder inserts an order directly, bypassing checkout
func seedOrder(t *testing.T, db *gorm.DB, storeID uint, publicID string, status models.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		PublicID:          publicID,
		StoreID:           storeID,
		CustomerName:      "Айгерим",
		CustomerPhone:     "77011234567",
		DeliveryMethod:    models.DeliveryMethodPickup,
		PaymentMethod:     models.PaymentMethodWhatsApp,
		Items:             []models.OrderItem{{ProductID: 1, Name: "Розы", Quantity: 1, Price: mustDecimal("5000")}},
		Subtotal:          mustDecimal("5000"),
		Total:             mustDecimal("5000"),
		Status:            status,
		PaymentStatus:     models.PaymentStatusUnpaid,
		FulfillmentStatus: models.FulfillmentStatusUnfulfilled,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	return order
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("invalid JSON (%d): %s", w.Code, w.Body.String())
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
