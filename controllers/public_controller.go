package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/logger"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StorefrontStore is the public part of a store
type StorefrontStore struct {
	ID            uint        `json:"id"`
	Name          string      `json:"name"`
	Slug          string      `json:"slug"`
	Description   string      `json:"description"`
	WhatsAppPhone string      `json:"whatsapp_phone"`
	Plan          models.Plan `json:"plan"`
}

// StorefrontSettings is the public part of the store settings
type StorefrontSettings struct {
	ContactEmail    string `json:"contact_email"`
	Instagram       string `json:"instagram"`
	Language        string `json:"language"`
	WhatsAppEnabled bool   `json:"whatsapp_enabled"`
	KaspiEnabled    bool   `json:"kaspi_enabled"`
}

// StorefrontDelivery is the public part of the delivery settings
type StorefrontDelivery struct {
	PickupEnabled         bool            `json:"pickup_enabled"`
	DeliveryEnabled       bool            `json:"delivery_enabled"`
	DeliveryFee           decimal.Decimal `json:"delivery_fee"`
	FreeDeliveryThreshold decimal.Decimal `json:"free_delivery_threshold"`
	PickupAddress         string          `json:"pickup_address"`
	YandexDeliveryEnabled bool            `json:"yandex_delivery_enabled"`
}

// StorefrontPromotion is an automatic discount advertised on the storefront
type StorefrontPromotion struct {
	Name           string              `json:"name"`
	Type           models.DiscountType `json:"type"`
	FormattedValue string              `json:"formatted_value"`
	MinOrderAmount decimal.Decimal     `json:"min_order_amount"`
}

// StorefrontResponse is everything the public storefront SPA renders
type StorefrontResponse struct {
	Store      StorefrontStore         `json:"store"`
	Theme      *models.Theme           `json:"theme"`
	Settings   StorefrontSettings      `json:"settings"`
	Delivery   StorefrontDelivery      `json:"delivery"`
	Categories []models.Category       `json:"categories"`
	Products   []models.Product        `json:"products"`
	Promotions []StorefrontPromotion   `json:"promotions"`
	Pixels     []services.PixelSnippet `json:"pixels"`
}

// QuoteRequest prices a cart before checkout
type QuoteRequest struct {
	DeliveryMethod string              `json:"delivery_method" binding:"required,oneof=pickup delivery"`
	Address        string              `json:"address" binding:"max=500"`
	DiscountCode   string              `json:"discount_code" binding:"max=64"`
	Items          []services.CartLine `json:"items" binding:"required,min=1,dive"`
}

// DeliveryQuoteRequest asks for a courier price to a point
type DeliveryQuoteRequest struct {
	Lat float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lon float64 `json:"lon" binding:"required,min=-180,max=180"`
}

// CheckoutResponse is returned after an order is placed
type CheckoutResponse struct {
	Order        OrderResponse          `json:"order"`
	InvoicePath  string                 `json:"invoice_path"`
	InvoiceURL   string                 `json:"invoice_url"`
	WhatsAppText string                 `json:"whatsapp_text,omitempty"`
	WhatsAppLink string                 `json:"whatsapp_link,omitempty"`
	KaspiPayment *services.KaspiPayment `json:"kaspi_payment,omitempty"`
}

// InvoiceResponse is the public invoice page of an order
type InvoiceResponse struct {
	Order        OrderResponse          `json:"order"`
	Store        StorefrontStore        `json:"store"`
	KaspiPayment *services.KaspiPayment `json:"kaspi_payment,omitempty"`
	WhatsAppLink string                 `json:"whatsapp_link,omitempty"`
}

// GetStorefront handles GET /api/stores/:slug. The whole envelope is cached per slug and
// dropped whenever the owner changes anything it contains.
func GetStorefront(c *gin.Context) {
	slug := strings.ToLower(c.Param("slug"))
	cache := services.GetStorefrontCache()

	if payload, ok := cache.Get(c.Request.Context(), slug); ok {
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	store, err := services.FindStoreBySlug(c.Request.Context(), db, slug)
	if err != nil {
		respondServiceError(c, err, "Failed to load store")
		return
	}

	resp, err := buildStorefront(db, store)
	if err != nil {
		respondServiceError(c, err, "Failed to load storefront")
		return
	}

	payload, err := json.Marshal(gin.H{"success": true, "data": resp})
	if err != nil {
		respondServiceError(c, err, "Failed to encode storefront")
		return
	}
	cache.Set(c.Request.Context(), slug, payload)

	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

func buildStorefront(db *gorm.DB, store *models.Store) (*StorefrontResponse, error) {
	theme, err := loadTheme(db, store.ID)
	if err != nil {
		return nil, err
	}
	settings, err := loadSettings(db, store.ID)
	if err != nil {
		return nil, err
	}
	delivery, err := loadDeliverySettings(db, store.ID)
	if err != nil {
		return nil, err
	}

	resp := &StorefrontResponse{
		Store: publicStore(store),
		Theme: theme,
		Settings: StorefrontSettings{
			ContactEmail:    settings.ContactEmail,
			Instagram:       settings.Instagram,
			Language:        settings.Language,
			WhatsAppEnabled: settings.WhatsApp.Enabled && store.WhatsAppPhone != "",
			KaspiEnabled:    settings.Kaspi.Enabled,
		},
		Delivery: StorefrontDelivery{
			PickupEnabled:         delivery.PickupEnabled,
			DeliveryEnabled:       delivery.DeliveryEnabled,
			DeliveryFee:           delivery.DeliveryFee,
			FreeDeliveryThreshold: delivery.FreeDeliveryThreshold,
			PickupAddress:         delivery.PickupAddress,
			YandexDeliveryEnabled: delivery.YandexDeliveryEnabled,
		},
		Categories: []models.Category{},
		Products:   []models.Product{},
		Promotions: []StorefrontPromotion{},
	}

	if err := db.Where("store_id = ? AND active = ?", store.ID, true).
		Order("position, id").Find(&resp.Categories).Error; err != nil {
		return nil, err
	}
	if err := db.Where("store_id = ? AND active = ?", store.ID, true).
		Order("position, id").Find(&resp.Products).Error; err != nil {
		return nil, err
	}

	var discounts []models.Discount
	if err := db.Where("store_id = ? AND active = ? AND type <> ?", store.ID, true, models.DiscountTypeCode).
		Order("id").Find(&discounts).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	for _, d := range discounts {
		if !d.AvailableAt(now) {
			continue
		}
		resp.Promotions = append(resp.Promotions, StorefrontPromotion{
			Name:           d.Name,
			Type:           d.Type,
			FormattedValue: services.FormatDiscountValue(d),
			MinOrderAmount: d.MinOrderAmount,
		})
	}

	var platformPixels []models.TrackingPixel
	if err := db.Where("enabled = ?", true).Order("id").Find(&platformPixels).Error; err != nil {
		return nil, err
	}
	if renderer := services.GetPixelRenderer(); renderer != nil {
		pixels, err := renderer.Render(platformPixels, settings)
		if err != nil {
			return nil, err
		}
		resp.Pixels = pixels
	}
	if resp.Pixels == nil {
		resp.Pixels = []services.PixelSnippet{}
	}
	return resp, nil
}

// PlaceOrder handles POST /api/stores/:slug/orders - the storefront checkout
func PlaceOrder(c *gin.Context) {
	var req services.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	store, err := services.FindStoreBySlug(c.Request.Context(), db, c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "Failed to load store")
		return
	}

	order, err := services.CreateOrder(c.Request.Context(), db, store, req, time.Now())
	if err != nil {
		respondServiceError(c, err, "Failed to create order")
		return
	}

	logger.Get().WithFields(logrus.Fields{
		"store_id": store.ID,
		"order_id": order.ID,
		"total":    order.Total.String(),
	}).Info("Order placed")

	invoicePath := "/api/orders/" + order.PublicID
	resp := CheckoutResponse{
		Order:       orderResponse(*order),
		InvoicePath: invoicePath,
		InvoiceURL:  config.GetConfig().PublicBaseURL + "/invoice/" + order.PublicID,
	}

	settings, err := loadSettings(db.WithContext(c.Request.Context()), store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load settings")
		return
	}
	if settings.WhatsApp.Enabled && store.WhatsAppPhone != "" {
		resp.WhatsAppText = services.RenderWhatsAppMessage(settings.WhatsApp.Template, services.WhatsAppDataFromOrder(store, order))
		resp.WhatsAppLink = services.WhatsAppLink(store.WhatsAppPhone, resp.WhatsAppText)
	}
	if order.PaymentMethod == models.PaymentMethodKaspi {
		resp.KaspiPayment = services.BuildKaspiPayment(settings.Kaspi, order)
	}

	respondData(c, http.StatusCreated, resp)
}

// QuoteCart handles POST /api/stores/:slug/discounts/validate - prices the cart with
// the entered code so the storefront can show the discount before checkout
func QuoteCart(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	store, err := services.FindStoreBySlug(c.Request.Context(), db, c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "Failed to load store")
		return
	}

	pricing, _, err := services.CheckoutQuote(c.Request.Context(), db, store, services.CheckoutInput{
		DeliveryMethod: req.DeliveryMethod,
		Address:        req.Address,
		DiscountCode:   req.DiscountCode,
		Items:          req.Items,
	}, time.Now())
	if err != nil {
		respondServiceError(c, err, "Failed to price cart")
		return
	}

	result := gin.H{"pricing": pricing}
	if pricing.Discount != nil {
		result["discount"] = gin.H{
			"name":            pricing.Discount.Name,
			"type":            pricing.Discount.Type,
			"code":            pricing.Discount.Code,
			"formatted_value": services.FormatDiscountValue(*pricing.Discount),
		}
	}
	respondData(c, http.StatusOK, result)
}

// QuoteDelivery handles POST /api/stores/:slug/delivery-quote - a Yandex courier estimate
// from the pickup point to the customer
func QuoteDelivery(c *gin.Context) {
	var req DeliveryQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	store, err := services.FindStoreBySlug(c.Request.Context(), db, c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "Failed to load store")
		return
	}

	client, delivery, ok := yandexClient(c, db, store.ID)
	if !ok {
		return
	}

	quote, err := client.CheckPrice(c.Request.Context(),
		services.GeoPoint{Lat: delivery.PickupLat, Lon: delivery.PickupLon},
		services.GeoPoint{Lat: req.Lat, Lon: req.Lon})
	if err != nil {
		respondProviderError(c, err)
		return
	}
	respondData(c, http.StatusOK, quote)
}

// GetInvoice handles GET /api/orders/:id - the public invoice, addressed by the order's
// public id
func GetInvoice(c *gin.Context) {
	order, store, ok := loadPublicOrder(c)
	if !ok {
		return
	}

	settings, err := loadSettings(config.GetDB().WithContext(c.Request.Context()), store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load settings")
		return
	}

	resp := InvoiceResponse{
		Order: orderResponse(*order),
		Store: publicStore(store),
	}
	if order.PaymentMethod == models.PaymentMethodKaspi {
		resp.KaspiPayment = services.BuildKaspiPayment(settings.Kaspi, order)
	}
	if store.WhatsAppPhone != "" {
		resp.WhatsAppLink = services.WhatsAppLink(store.WhatsAppPhone, "Заказ "+services.OrderReference(order))
	}
	respondData(c, http.StatusOK, resp)
}

// GetKaspiQR handles GET /api/orders/:id/kaspi-qr - the store's pay link as a PNG
func GetKaspiQR(c *gin.Context) {
	order, store, ok := loadPublicOrder(c)
	if !ok {
		return
	}

	settings, err := loadSettings(config.GetDB().WithContext(c.Request.Context()), store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load settings")
		return
	}
	if !settings.Kaspi.Enabled || order.PaymentMethod != models.PaymentMethodKaspi {
		respondError(c, http.StatusNotFound, "KASPI_NOT_AVAILABLE", "Kaspi payment is not available for this order")
		return
	}

	png, err := services.KaspiQRCode(settings.Kaspi.PayLink)
	if errors.Is(err, services.ErrKaspiPayLinkMissing) {
		respondError(c, http.StatusNotFound, "KASPI_NOT_AVAILABLE", "The store has no Kaspi pay link")
		return
	}
	if err != nil {
		respondServiceError(c, err, "Failed to render QR code")
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

func loadPublicOrder(c *gin.Context) (*models.Order, *models.Store, bool) {
	publicID := c.Param("id")
	if _, err := uuid.Parse(publicID); err != nil {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return nil, nil, false
	}

	db := config.GetDB().WithContext(c.Request.Context())
	var order models.Order
	err := db.Preload("Store").Where("public_id = ?", publicID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && order.Store == nil) {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return nil, nil, false
	}
	if err != nil {
		respondServiceError(c, err, "Failed to load order")
		return nil, nil, false
	}

	store := order.Store
	order.Store = nil
	return &order, store, true
}

func publicStore(store *models.Store) StorefrontStore {
	return StorefrontStore{
		ID:            store.ID,
		Name:          store.Name,
		Slug:          store.Slug,
		Description:   store.Description,
		WhatsAppPhone: store.WhatsAppPhone,
		Plan:          store.Plan,
	}
}
