package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountRequest is the body of POST and PUT /api/my-store/discounts
type DiscountRequest struct {
	Name           string                   `json:"name" binding:"required,max=120"`
	Type           models.DiscountType      `json:"type" binding:"required"`
	Code           string                   `json:"code" binding:"omitempty,alphanum,max=32"`
	ValueType      models.DiscountValueType `json:"value_type" binding:"required"`
	Value          decimal.Decimal          `json:"value"`
	MinOrderAmount decimal.Decimal          `json:"min_order_amount"`
	BuyQuantity    int                      `json:"buy_quantity" binding:"min=0,max=100"`
	GetQuantity    int                      `json:"get_quantity" binding:"min=0,max=100"`
	ProductIDs     []uint                   `json:"product_ids" binding:"max=100"`
	UsageLimit     int                      `json:"usage_limit" binding:"min=0"`
	Active         *bool                    `json:"active"`
	StartsAt       *time.Time               `json:"starts_at"`
	EndsAt         *time.Time               `json:"ends_at"`
}

// DiscountResponse adds display fields to a discount
type DiscountResponse struct {
	models.Discount
	TypeLabel      string `json:"type_label"`
	FormattedValue string `json:"formatted_value"`
	Available      bool   `json:"available"`
}

// DiscountTypeInfo describes a discount type for the admin type picker
type DiscountTypeInfo struct {
	Type  models.DiscountType `json:"type"`
	Label string              `json:"label"`
	Icon  string              `json:"icon"`
}

// validate checks the fields the chosen type relies on
func (r *DiscountRequest) validate() string {
	if !r.Type.Valid() {
		return "Unknown discount type"
	}
	if !r.ValueType.Valid() {
		return "Unknown value type"
	}
	if r.Type == models.DiscountTypeFreeDelivery {
		r.ValueType = models.ValueTypeFree
		r.Value = decimal.Zero
	}
	switch r.ValueType {
	case models.ValueTypePercentage:
		if !r.Value.IsPositive() || r.Value.GreaterThan(decimal.NewFromInt(100)) {
			return "Percentage must be between 0 and 100"
		}
	case models.ValueTypeFixed:
		if !r.Value.IsPositive() {
			return "Amount must be positive"
		}
	}
	if r.MinOrderAmount.IsNegative() {
		return "Minimum order amount cannot be negative"
	}

	switch r.Type {
	case models.DiscountTypeCode:
		if strings.TrimSpace(r.Code) == "" {
			return "A promo code is required"
		}
	case models.DiscountTypeOrderAmount:
		if !r.MinOrderAmount.IsPositive() {
			return "A minimum order amount is required"
		}
	case models.DiscountTypeBundle:
		if len(r.ProductIDs) < 2 {
			return "A bundle needs at least two products"
		}
	case models.DiscountTypeBuyXGetY:
		if r.BuyQuantity < 1 || r.GetQuantity < 1 {
			return "Buy and get quantities are required"
		}
	}
	if r.Type != models.DiscountTypeCode {
		r.Code = ""
	}
	if r.StartsAt != nil && r.EndsAt != nil && !r.EndsAt.After(*r.StartsAt) {
		return "End date must be after start date"
	}
	return ""
}

func (r *DiscountRequest) apply(d *models.Discount) {
	d.Name = strings.TrimSpace(r.Name)
	d.Type = r.Type
	d.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	d.ValueType = r.ValueType
	d.Value = r.Value
	d.MinOrderAmount = r.MinOrderAmount
	d.BuyQuantity = r.BuyQuantity
	d.GetQuantity = r.GetQuantity
	d.ProductIDs = r.ProductIDs
	d.UsageLimit = r.UsageLimit
	d.Active = r.Active == nil || *r.Active
	d.StartsAt = r.StartsAt
	d.EndsAt = r.EndsAt
}

func discountResponse(d models.Discount, now time.Time) DiscountResponse {
	return DiscountResponse{
		Discount:       d,
		TypeLabel:      d.Type.Label(),
		FormattedValue: services.FormatDiscountValue(d),
		Available:      d.AvailableAt(now),
	}
}

// GetDiscountTypes handles GET /api/my-store/discounts/types
func GetDiscountTypes(c *gin.Context) {
	types := make([]DiscountTypeInfo, 0, len(models.DiscountTypes))
	for _, t := range models.DiscountTypes {
		types = append(types, DiscountTypeInfo{Type: t, Label: t.Label(), Icon: t.Icon()})
	}
	respondData(c, http.StatusOK, types)
}

// ListDiscounts handles GET /api/my-store/discounts
func ListDiscounts(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var discounts []models.Discount
	err := config.GetDB().WithContext(c.Request.Context()).
		Where("store_id = ?", store.ID).Order("created_at DESC, id DESC").Find(&discounts).Error
	if err != nil {
		respondServiceError(c, err, "Failed to load discounts")
		return
	}

	now := time.Now()
	resp := make([]DiscountResponse, 0, len(discounts))
	for _, d := range discounts {
		resp = append(resp, discountResponse(d, now))
	}
	respondData(c, http.StatusOK, resp)
}

// GetDiscount handles GET /api/my-store/discounts/:id
func GetDiscount(c *gin.Context) {
	discount, ok := loadStoreDiscount(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, discountResponse(*discount, time.Now()))
}

// CreateDiscount handles POST /api/my-store/discounts
func CreateDiscount(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	discount := models.Discount{StoreID: store.ID}
	req.apply(&discount)

	db := config.GetDB().WithContext(c.Request.Context())
	if taken, err := codeTaken(db, store.ID, discount.Code, 0); err != nil {
		respondServiceError(c, err, "Failed to create discount")
		return
	} else if taken {
		respondError(c, http.StatusConflict, "CODE_EXISTS", "This promo code already exists")
		return
	}

	if err := db.Create(&discount).Error; err != nil {
		respondServiceError(c, err, "Failed to create discount")
		return
	}
	respondData(c, http.StatusCreated, discountResponse(discount, time.Now()))
}

// UpdateDiscount handles PUT /api/my-store/discounts/:id. The usage counter is kept.
func UpdateDiscount(c *gin.Context) {
	discount, ok := loadStoreDiscount(c)
	if !ok {
		return
	}

	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}
	req.apply(discount)

	db := config.GetDB().WithContext(c.Request.Context())
	if taken, err := codeTaken(db, discount.StoreID, discount.Code, discount.ID); err != nil {
		respondServiceError(c, err, "Failed to update discount")
		return
	} else if taken {
		respondError(c, http.StatusConflict, "CODE_EXISTS", "This promo code already exists")
		return
	}

	if err := db.Omit("usage_count", "store_id", "created_at").Save(discount).Error; err != nil {
		respondServiceError(c, err, "Failed to update discount")
		return
	}
	respondData(c, http.StatusOK, discountResponse(*discount, time.Now()))
}

// DeleteDiscount handles DELETE /api/my-store/discounts/:id. Orders keep the code and
// amount they were placed with.
func DeleteDiscount(c *gin.Context) {
	discount, ok := loadStoreDiscount(c)
	if !ok {
		return
	}

	if err := config.GetDB().WithContext(c.Request.Context()).Delete(discount).Error; err != nil {
		respondServiceError(c, err, "Failed to delete discount")
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Discount deleted"})
}

func loadStoreDiscount(c *gin.Context) (*models.Discount, bool) {
	store, ok := currentStore(c)
	if !ok {
		return nil, false
	}
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}

	var discount models.Discount
	err := config.GetDB().WithContext(c.Request.Context()).
		Where("id = ? AND store_id = ?", id, store.ID).First(&discount).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "DISCOUNT_NOT_FOUND", "Discount not found")
		return nil, false
	}
	if err != nil {
		respondServiceError(c, err, "Failed to load discount")
		return nil, false
	}
	return &discount, true
}

func codeTaken(db *gorm.DB, storeID uint, code string, exceptID uint) (bool, error) {
	if code == "" {
		return false, nil
	}
	var count int64
	err := db.Model(&models.Discount{}).
		Where("store_id = ? AND UPPER(code) = ? AND id <> ?", storeID, code, exceptID).
		Count(&count).Error
	return count > 0, err
}
