package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/logger"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxProductImages bounds the gallery of one product
const MaxProductImages = 10

// ProductRequest is the body of POST and PUT /api/my-store/products
type ProductRequest struct {
	Name        string              `json:"name" binding:"required,max=200"`
	Description string              `json:"description" binding:"max=5000"`
	Price       decimal.Decimal     `json:"price"`
	OldPrice    decimal.NullDecimal `json:"old_price"`
	CategoryID  *uint               `json:"category_id"`
	Images      []string            `json:"images" binding:"dive,required"`
	InStock     *bool               `json:"in_stock"`
	Active      *bool               `json:"active"`
	Position    int                 `json:"position"`
}

// CategoryRequest is the body of POST and PUT /api/my-store/categories
type CategoryRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Position int    `json:"position"`
	Active   *bool  `json:"active"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// ListProducts handles GET /api/my-store/products
func ListProducts(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	q := config.GetDB().WithContext(c.Request.Context()).Where("store_id = ?", store.ID)
	if categoryID := c.Query("category_id"); categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}

	var products []models.Product
	if err := q.Order("position, id").Find(&products).Error; err != nil {
		respondServiceError(c, err, "Failed to load products")
		return
	}
	respondData(c, http.StatusOK, products)
}

// GetProduct handles GET /api/my-store/products/:id
func GetProduct(c *gin.Context) {
	product, _, ok := loadStoreProduct(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, product)
}

// CreateProduct handles POST /api/my-store/products
func CreateProduct(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	db := config.GetDB().WithContext(c.Request.Context())
	if !validateProductRequest(c, db, store.ID, &req) {
		return
	}

	product := models.Product{StoreID: store.ID}
	applyProductRequest(&product, &req)
	if err := db.Create(&product).Error; err != nil {
		respondServiceError(c, err, "Failed to create product")
		return
	}

	invalidateStorefront(c, store)
	respondData(c, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/my-store/products/:id. Images dropped from the gallery
// are removed from storage.
func UpdateProduct(c *gin.Context) {
	product, store, ok := loadStoreProduct(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	db := config.GetDB().WithContext(c.Request.Context())
	if !validateProductRequest(c, db, store.ID, &req) {
		return
	}

	previous := append([]string(nil), product.Images...)
	applyProductRequest(product, &req)
	if err := db.Omit("store_id", "created_at").Save(product).Error; err != nil {
		respondServiceError(c, err, "Failed to update product")
		return
	}

	deleteImages(c.Request.Context(), store.ID, removedImages(previous, product.Images))
	invalidateStorefront(c, store)
	respondData(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/my-store/products/:id
func DeleteProduct(c *gin.Context) {
	product, store, ok := loadStoreProduct(c)
	if !ok {
		return
	}

	if err := config.GetDB().WithContext(c.Request.Context()).Delete(product).Error; err != nil {
		respondServiceError(c, err, "Failed to delete product")
		return
	}

	deleteImages(c.Request.Context(), store.ID, product.Images)
	invalidateStorefront(c, store)
	respondData(c, http.StatusOK, gin.H{"message": "Product deleted"})
}

// ListCategories handles GET /api/my-store/categories
func ListCategories(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var categories []models.Category
	err := config.GetDB().WithContext(c.Request.Context()).
		Where("store_id = ?", store.ID).Order("position, id").Find(&categories).Error
	if err != nil {
		respondServiceError(c, err, "Failed to load categories")
		return
	}
	respondData(c, http.StatusOK, categories)
}

// CreateCategory handles POST /api/my-store/categories
func CreateCategory(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	category := models.Category{
		StoreID:  store.ID,
		Name:     strings.TrimSpace(req.Name),
		Position: req.Position,
		Active:   boolOr(req.Active, true),
	}
	if err := config.GetDB().WithContext(c.Request.Context()).Create(&category).Error; err != nil {
		respondServiceError(c, err, "Failed to create category")
		return
	}

	invalidateStorefront(c, store)
	respondData(c, http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/my-store/categories/:id
func UpdateCategory(c *gin.Context) {
	category, store, ok := loadStoreCategory(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	category.Name = strings.TrimSpace(req.Name)
	category.Position = req.Position
	category.Active = boolOr(req.Active, category.Active)
	if err := config.GetDB().WithContext(c.Request.Context()).Save(category).Error; err != nil {
		respondServiceError(c, err, "Failed to update category")
		return
	}

	invalidateStorefront(c, store)
	respondData(c, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/my-store/categories/:id. Its products stay in the
// catalog without a category.
func DeleteCategory(c *gin.Context) {
	category, store, ok := loadStoreCategory(c)
	if !ok {
		return
	}

	err := config.GetDB().WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).
			Where("store_id = ? AND category_id = ?", store.ID, category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
	if err != nil {
		respondServiceError(c, err, "Failed to delete category")
		return
	}

	invalidateStorefront(c, store)
	respondData(c, http.StatusOK, gin.H{"message": "Category deleted"})
}

func validateProductRequest(c *gin.Context, db *gorm.DB, storeID uint, req *ProductRequest) bool {
	if len(req.Images) > MaxProductImages {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "A product can have at most 10 images")
		return false
	}
	if !req.Price.IsPositive() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Price must be positive")
		return false
	}
	if req.OldPrice.Valid && !req.OldPrice.Decimal.GreaterThan(req.Price) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Old price must be greater than the price")
		return false
	}
	if req.CategoryID != nil {
		var count int64
		if err := db.Model(&models.Category{}).
			Where("id = ? AND store_id = ?", *req.CategoryID, storeID).Count(&count).Error; err != nil {
			respondServiceError(c, err, "Failed to load category")
			return false
		}
		if count == 0 {
			respondError(c, http.StatusBadRequest, "CATEGORY_NOT_FOUND", "Category not found")
			return false
		}
	}
	return true
}

func applyProductRequest(p *models.Product, req *ProductRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Description = req.Description
	p.Price = req.Price
	p.OldPrice = req.OldPrice
	p.CategoryID = req.CategoryID
	p.Images = req.Images
	p.InStock = boolOr(req.InStock, true)
	p.Active = boolOr(req.Active, true)
	p.Position = req.Position
}

func loadStoreProduct(c *gin.Context) (*models.Product, *models.Store, bool) {
	store, ok := currentStore(c)
	if !ok {
		return nil, nil, false
	}
	id, ok := idParam(c, "id")
	if !ok {
		return nil, nil, false
	}

	var product models.Product
	err := config.GetDB().WithContext(c.Request.Context()).
		Where("id = ? AND store_id = ?", id, store.ID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
		return nil, nil, false
	}
	if err != nil {
		respondServiceError(c, err, "Failed to load product")
		return nil, nil, false
	}
	return &product, store, true
}

func loadStoreCategory(c *gin.Context) (*models.Category, *models.Store, bool) {
	store, ok := currentStore(c)
	if !ok {
		return nil, nil, false
	}
	id, ok := idParam(c, "id")
	if !ok {
		return nil, nil, false
	}

	var category models.Category
	err := config.GetDB().WithContext(c.Request.Context()).
		Where("id = ? AND store_id = ?", id, store.ID).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
		return nil, nil, false
	}
	if err != nil {
		respondServiceError(c, err, "Failed to load category")
		return nil, nil, false
	}
	return &category, store, true
}

func removedImages(before, after []string) []string {
	kept := make(map[string]bool, len(after))
	for _, u := range after {
		kept[u] = true
	}
	var removed []string
	for _, u := range before {
		if !kept[u] {
			removed = append(removed, u)
		}
	}
	return removed
}

// deleteImages removes stored images. Failures are logged; the catalog change stands.
func deleteImages(ctx context.Context, storeID uint, urls []string) {
	imageService := services.GetImageService()
	if imageService == nil {
		return
	}
	for _, u := range urls {
		if err := imageService.DeleteImage(ctx, storeID, u); err != nil {
			logger.Get().WithError(err).WithField("url", u).Warn("Failed to delete product image")
		}
	}
}
