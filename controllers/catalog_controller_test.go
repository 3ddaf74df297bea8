package controllers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"github.com/kendall-kelly/storefront-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogRoutes(t *testing.T, env *ownerEnv) *gin.Engine {
	t.Helper()
	router, group := ownerRouter(t, env.owner.Auth0ID)
	group.GET("/products", ListProducts)
	group.POST("/products", CreateProduct)
	group.GET("/products/:id", GetProduct)
	group.PUT("/products/:id", UpdateProduct)
	group.DELETE("/products/:id", DeleteProduct)
	group.GET("/categories", ListCategories)
	group.POST("/categories", CreateCategory)
	group.PUT("/categories/:id", UpdateCategory)
	group.DELETE("/categories/:id", DeleteCategory)
	return router
}

// useMockImages installs an image service over in-memory storage
func useMockImages(t *testing.T) *services.MockStorage {
	t.Helper()
	previous := services.GetImageService()
	storage := services.NewMockStorage()
	services.InitImageService(storage)
	t.Cleanup(func() { services.SetImageService(previous) })
	return storage
}

func TestCreateProduct(t *testing.T) {
	env := setupOwnerEnv(t)
	router := catalogRoutes(t, env)
	env.cache.Entries["flowers"] = []byte(`{}`)

	category := models.Category{StoreID: env.store.ID, Name: "Розы", Active: true}
	require.NoError(t, env.db.Create(&category).Error)

	w, resp := doRequest(t, router, http.MethodPost, "/api/my-store/products", map[string]interface{}{
		"name":        "Букет из 15 роз",
		"price":       15000,
		"old_price":   18000,
		"category_id": category.ID,
		"images":      []string{"https://cdn.test/roses.jpg"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var product models.Product
	testutil.DecodeData(t, resp, &product)
	assert.Equal(t, env.store.ID, product.StoreID)
	assert.True(t, product.Price.Equal(mustDecimal("15000")))
	assert.True(t, product.OldPrice.Valid)
	assert.True(t, product.InStock, "in_stock defaults to true")
	assert.True(t, product.Active, "active defaults to true")
	assert.NotContains(t, env.cache.Entries, "flowers")
}

func TestCreateProduct_Validation(t *testing.T) {
	env := setupOwnerEnv(t)
	router := catalogRoutes(t, env)

	other := testutil.CreateUser(t, env.db, "auth0|other", models.RoleOwner)
	otherStore := testutil.CreateStore(t, env.db, other, "other")
	foreignCategory := models.Category{StoreID: otherStore.ID, Name: "Чужая", Active: true}
	require.NoError(t, env.db.Create(&foreignCategory).Error)

	tooMany := make([]string, MaxProductImages+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("https://cdn.test/%d.jpg", i)
	}

	tests := []struct {
		name         string
		body         map[string]interface{}
		expectedCode string
	}{
		{"missing name", map[string]interface{}{"price": 100}, "VALIDATION_ERROR"},
		{"zero price", map[string]interface{}{"name": "Роза", "price": 0}, "VALIDATION_ERROR"},
		{"old price below price", map[string]interface{}{"name": "Роза", "price": 1000, "old_price": 900}, "VALIDATION_ERROR"},
		{"too many images", map[string]interface{}{"name": "Роза", "price": 1000, "images": tooMany}, "VALIDATION_ERROR"},
		{"empty image url", map[string]interface{}{"name": "Роза", "price": 1000, "images": []string{""}}, "VALIDATION_ERROR"},
		{"category of another store", map[string]interface{}{"name": "Роза", "price": 1000, "category_id": foreignCategory.ID}, "CATEGORY_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, router, http.MethodPost, "/api/my-store/products", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, resp.ErrorCode())
		})
	}
}

func TestUpdateProduct_RemovesDroppedImages(t *testing.T) {
	env := setupOwnerEnv(t)
	router := catalogRoutes(t, env)
	storage := useMockImages(t)

	ctx := context.Background()
	keyA := fmt.Sprintf("stores/%d/a.jpg", env.store.ID)
	keyB := fmt.Sprintf("stores/%d/b.jpg", env.store.ID)
	require.NoError(t, storage.PutObject(ctx, keyA, []byte("a"), "image/jpeg"))
	require.NoError(t, storage.PutObject(ctx, keyB, []byte("b"), "image/jpeg"))
	product := testutil.CreateProduct(t, env.db, env.store.ID, "Тюльпаны", 8000,
		storage.PublicURL(keyA), storage.PublicURL(keyB))

	w, resp := doRequest(t, router, http.MethodPut, fmt.Sprintf("/api/my-store/products/%d", product.ID), map[string]interface{}{
		"name":     "Тюльпаны",
		"price":    8500,
		"images":   []string{storage.PublicURL(keyA)},
		"in_stock": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Product
	testutil.DecodeData(t, resp, &updated)
	assert.False(t, updated.InStock)
	assert.Len(t, updated.Images, 1)
	assert.True(t, storage.Exists(keyA))
	assert.False(t, storage.Exists(keyB))
}

func TestDeleteProduct(t *testing.T) {
	env := setupOwnerEnv(t)
	router := catalogRoutes(t, env)
	storage := useMockImages(t)

	key := fmt.Sprintf("stores/%d/c.jpg", env.store.ID)
	require.NoError(t, storage.PutObject(context.Background(), key, []byte("c"), "image/jpeg"))
	product := testutil.CreateProduct(t, env.db, env.store.ID, "Пионы", 12000,
		storage.PublicURL(key), "https://elsewhere.example/kept.jpg")

	w, _ := doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/my-store/products/%d", product.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Zero(t, storage.Len())

	w, resp := doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/my-store/products/%d", product.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", resp.ErrorCode())
}

func TestDeleteProduct_KeepsOtherStoresImages(t *testing.T) {
	env := setupOwnerEnv(t)
	router := catalogRoutes(t, env)
	storage := useMockImages(t)

	ctx := context.Background()
	foreignKey := fmt.Sprintf("stores/%d/theirs.jpg", env.store.ID+100)
	require.NoError(t, storage.PutObject(ctx, foreignKey, []byte("x"), "image/jpeg"))

	product := testutil.CreateProduct(t, env.db, env.store.ID, "Розы", 9000, storage.PublicURL(foreignKey))

	w, _ := doRequest(t, router, http.MethodPut, fmt.Sprintf("/api/my-store/products/%d", product.ID), map[string]interface{}{
		"name":     "Розы",
		"price":    9000,
		"images":   []string{},
		"in_stock": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, storage.Exists(foreignKey), "update must not remove another store's image")

	other := testutil.CreateProduct(t, env.db, env.store.ID, "Лилии", 7000, storage.PublicURL(foreignKey))
	w, _ = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/my-store/products/%d", other.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, storage.Exists(foreignKey), "delete must not remove another store's image")
}

func TestListProducts_FilterByCategory(t *testing.T) {
	env := setupOwnerEnv(t)
	router := catalogRoutes(t, env)

	category := models.Category{StoreID: env.store.ID, Name: "Розы", Active: true}
	require.NoError(t, env.db.Create(&category).Error)
	rose := testutil.CreateProduct(t, env.db, env.store.ID, "Роза", 1000)
	require.NoError(t, env.db.Model(rose).Update("category_id", category.ID).Error)
	testutil.CreateProduct(t, env.db, env.store.ID, "Ваза", 3000)

	w, resp := doRequest(t, router, http.MethodGet, "/api/my-store/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Product
	testutil.DecodeData(t, resp, &all)
	assert.Len(t, all, 2)

	w, resp = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/my-store/products?category_id=%d", category.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var filtered []models.Product
	testutil.DecodeData(t, resp, &filtered)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Роза", filtered[0].Name)
}

func TestCategoryLifecycle(t *testing.T) {
	env := setupOwnerEnv(t)
	router := catalogRoutes(t, env)

	w, resp := doRequest(t, router, http.MethodPost, "/api/my-store/categories", map[string]interface{}{"name": "Букеты"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var category models.Category
	testutil.DecodeData(t, resp, &category)
	assert.True(t, category.Active)

	w, resp = doRequest(t, router, http.MethodPut, fmt.Sprintf("/api/my-store/categories/%d", category.ID),
		map[string]interface{}{"name": "Авторские букеты", "position": 2, "active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.DecodeData(t, resp, &category)
	assert.Equal(t, "Авторские букеты", category.Name)
	assert.False(t, category.Active)

	product := testutil.CreateProduct(t, env.db, env.store.ID, "Букет", 9000)
	require.NoError(t, env.db.Model(product).Update("category_id", category.ID).Error)

	w, _ = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/my-store/categories/%d", category.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Product
	require.NoError(t, env.db.First(&stored, product.ID).Error)
	assert.Nil(t, stored.CategoryID, "products outlive their category")

	w, resp = doRequest(t, router, http.MethodGet, "/api/my-store/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categories []models.Category
	testutil.DecodeData(t, resp, &categories)
	assert.Empty(t, categories)
}
