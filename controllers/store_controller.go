package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"github.com/kendall-kelly/storefront-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UpdateStoreRequest is the body of PUT /api/my-store
type UpdateStoreRequest struct {
	Name          string `json:"name" binding:"required,max=120"`
	Description   string `json:"description" binding:"max=2000"`
	WhatsAppPhone string `json:"whatsapp_phone" binding:"omitempty,intlphone"`
}

// ThemeRequest is the body of PUT /api/my-store/theme
type ThemeRequest struct {
	PrimaryColor    string `json:"primary_color" binding:"required,hexcolor"`
	AccentColor     string `json:"accent_color" binding:"required,hexcolor"`
	BackgroundColor string `json:"background_color" binding:"required,hexcolor"`
	FontFamily      string `json:"font_family" binding:"required,max=60"`
	Layout          string `json:"layout" binding:"required,oneof=grid list"`
	LogoURL         string `json:"logo_url" binding:"omitempty,url"`
	BannerURL       string `json:"banner_url" binding:"omitempty,url"`
}

// SettingsRequest is the body of PUT /api/my-store/settings. The row is replaced as a
// whole; a nil YandexDeliveryToken keeps the stored token and an empty one clears it.
type SettingsRequest struct {
	ContactEmail        string  `json:"contact_email" binding:"omitempty,email"`
	Instagram           string  `json:"instagram" binding:"max=60"`
	Language            string  `json:"language" binding:"required,oneof=ru kk en"`
	FacebookPixelID     string  `json:"facebook_pixel_id" binding:"omitempty,numeric,max=32"`
	TikTokPixelID       string  `json:"tiktok_pixel_id" binding:"omitempty,alphanum,max=32"`
	YandexDeliveryToken *string `json:"yandex_delivery_token"`
}

// SettingsResponse hides the Yandex token and reports whether one is stored
type SettingsResponse struct {
	*models.StoreSettings
	YandexDeliveryTokenSet bool `json:"yandex_delivery_token_set"`
}

// DeliveryRequest is the body of PUT /api/my-store/delivery. The pickup address arrives
// decomposed and is stored composed.
type DeliveryRequest struct {
	PickupEnabled         bool               `json:"pickup_enabled"`
	DeliveryEnabled       bool               `json:"delivery_enabled"`
	DeliveryFee           decimal.Decimal    `json:"delivery_fee"`
	FreeDeliveryThreshold decimal.Decimal    `json:"free_delivery_threshold"`
	PickupAddress         utils.AddressParts `json:"pickup_address_parts"`
	PickupLat             float64            `json:"pickup_lat" binding:"min=-90,max=90"`
	PickupLon             float64            `json:"pickup_lon" binding:"min=-180,max=180"`
	YandexDeliveryEnabled bool               `json:"yandex_delivery_enabled"`
}

// DeliveryResponse is the delivery row with its pickup address decomposed
type DeliveryResponse struct {
	*models.DeliverySettings
	PickupAddressParts utils.AddressParts `json:"pickup_address_parts"`
}

// WhatsAppRequest is the body of PUT /api/my-store/whatsapp
type WhatsAppRequest struct {
	Enabled  bool   `json:"enabled"`
	Phone    string `json:"phone"`
	Country  string `json:"country" binding:"omitempty,len=2"` // national input when set
	Template string `json:"template" binding:"max=4000"`
}

// WhatsAppResponse describes the WhatsApp hand-off configuration
type WhatsAppResponse struct {
	Enabled         bool     `json:"enabled"`
	Phone           string   `json:"phone"`
	Template        string   `json:"template"`
	DefaultTemplate string   `json:"default_template"`
	Placeholders    []string `json:"placeholders"`
}

// WhatsAppPreviewRequest renders a template against sample order data
type WhatsAppPreviewRequest struct {
	Template string `json:"template" binding:"max=4000"`
}

// KaspiRequest is the body of PUT /api/my-store/kaspi
type KaspiRequest struct {
	Enabled      bool   `json:"enabled"`
	Phone        string `json:"phone" binding:"omitempty,kzphone"`
	PayLink      string `json:"pay_link" binding:"omitempty,url,startswith=https://"`
	Recipient    string `json:"recipient" binding:"max=120"`
	Instructions string `json:"instructions" binding:"max=2000"`
}

// GetMyStore handles GET /api/my-store
func GetMyStore(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, store)
}

// CreateMyStore handles POST /api/my-store
func CreateMyStore(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateStoreInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	store, err := services.CreateStore(c.Request.Context(), config.GetDB(), user, req)
	if err != nil {
		respondServiceError(c, err, "Failed to create store")
		return
	}
	respondData(c, http.StatusCreated, store)
}

// UpdateMyStore handles PUT /api/my-store. Slug and plan are not editable here.
func UpdateMyStore(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var req UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	err := config.GetDB().WithContext(c.Request.Context()).Model(store).Updates(map[string]interface{}{
		"name":           strings.TrimSpace(req.Name),
		"description":    req.Description,
		"whatsapp_phone": utils.DigitsOnly(req.WhatsAppPhone),
	}).Error
	if err != nil {
		respondServiceError(c, err, "Failed to update store")
		return
	}

	invalidateStorefront(c, store)
	respondData(c, http.StatusOK, store)
}

// GetTheme handles GET /api/my-store/theme
func GetTheme(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	theme, err := loadTheme(config.GetDB().WithContext(c.Request.Context()), store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load theme")
		return
	}
	respondData(c, http.StatusOK, theme)
}

// UpdateTheme handles PUT /api/my-store/theme
func UpdateTheme(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	theme, err := loadTheme(db, store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load theme")
		return
	}

	theme.PrimaryColor = req.PrimaryColor
	theme.AccentColor = req.AccentColor
	theme.BackgroundColor = req.BackgroundColor
	theme.FontFamily = req.FontFamily
	theme.Layout = req.Layout
	theme.LogoURL = req.LogoURL
	theme.BannerURL = req.BannerURL
	if err := db.Save(theme).Error; err != nil {
		respondServiceError(c, err, "Failed to update theme")
		return
	}

	invalidateStorefront(c, store)
	respondData(c, http.StatusOK, theme)
}

// GetSettings handles GET /api/my-store/settings
func GetSettings(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	settings, err := loadSettings(config.GetDB().WithContext(c.Request.Context()), store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load settings")
		return
	}
	respondData(c, http.StatusOK, settingsResponse(settings))
}

// UpdateSettings handles PUT /api/my-store/settings. WhatsApp and Kaspi settings have
// their own endpoints and are left untouched.
func UpdateSettings(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	settings, err := loadSettings(db, store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load settings")
		return
	}

	settings.ContactEmail = req.ContactEmail
	settings.Instagram = strings.TrimPrefix(req.Instagram, "@")
	settings.Language = req.Language
	settings.FacebookPixelID = req.FacebookPixelID
	settings.TikTokPixelID = req.TikTokPixelID
	if req.YandexDeliveryToken != nil {
		settings.YandexDeliveryToken = strings.TrimSpace(*req.YandexDeliveryToken)
	}

	err = db.Model(settings).Select(
		"contact_email", "instagram", "language",
		"facebook_pixel_id", "tiktok_pixel_id", "yandex_delivery_token",
	).Updates(settings).Error
	if err != nil {
		respondServiceError(c, err, "Failed to update settings")
		return
	}

	invalidateStorefront(c, store)
	respondData(c, http.StatusOK, settingsResponse(settings))
}

// GetDelivery handles GET /api/my-store/delivery
func GetDelivery(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	delivery, err := loadDeliverySettings(config.GetDB().WithContext(c.Request.Context()), store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load delivery settings")
		return
	}
	respondData(c, http.StatusOK, deliveryResponse(delivery))
}

// UpdateDelivery handles PUT /api/my-store/delivery
func UpdateDelivery(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var req DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !req.PickupEnabled && !req.DeliveryEnabled {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Enable pickup, delivery or both")
		return
	}
	if req.DeliveryFee.IsNegative() || req.FreeDeliveryThreshold.IsNegative() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Fees cannot be negative")
		return
	}

	address := utils.BuildAddress(req.PickupAddress)
	if req.PickupEnabled && address == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Pickup address is required when pickup is enabled")
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	delivery, err := loadDeliverySettings(db, store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load delivery settings")
		return
	}

	delivery.PickupEnabled = req.PickupEnabled
	delivery.DeliveryEnabled = req.DeliveryEnabled
	delivery.DeliveryFee = req.DeliveryFee
	delivery.FreeDeliveryThreshold = req.FreeDeliveryThreshold
	delivery.PickupAddress = address
	delivery.PickupLat = req.PickupLat
	delivery.PickupLon = req.PickupLon
	delivery.YandexDeliveryEnabled = req.YandexDeliveryEnabled
	if err := db.Save(delivery).Error; err != nil {
		respondServiceError(c, err, "Failed to update delivery settings")
		return
	}

	invalidateStorefront(c, store)
	respondData(c, http.StatusOK, deliveryResponse(delivery))
}

// GetWhatsApp handles GET /api/my-store/whatsapp
func GetWhatsApp(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	settings, err := loadSettings(config.GetDB().WithContext(c.Request.Context()), store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load settings")
		return
	}
	respondData(c, http.StatusOK, whatsAppResponse(store, settings))
}

// UpdateWhatsApp handles PUT /api/my-store/whatsapp
func UpdateWhatsApp(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var req WhatsAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.Country != "" {
		if _, known := utils.LookupCountry(req.Country); !known {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unsupported country")
			return
		}
	}
	phone := utils.DigitsOnly(req.Phone)
	if req.Country != "" && phone != "" {
		phone = utils.NormalizeInternational(req.Country, req.Phone)
	}
	if req.Phone != "" && !utils.PhoneDigitsValid(phone) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "The WhatsApp phone number is incomplete")
		return
	}
	if req.Enabled && phone == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "A WhatsApp phone is required to receive orders")
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	settings, err := loadSettings(db, store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load settings")
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		settings.WhatsApp = models.WhatsAppSettings{Enabled: req.Enabled, Template: req.Template}
		if err := tx.Model(settings).Select("whatsapp_enabled", "whatsapp_template").Updates(settings).Error; err != nil {
			return err
		}
		store.WhatsAppPhone = phone
		return tx.Model(store).Update("whatsapp_phone", phone).Error
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update WhatsApp settings")
		return
	}

	invalidateStorefront(c, store)
	respondData(c, http.StatusOK, whatsAppResponse(store, settings))
}

// PreviewWhatsApp handles POST /api/my-store/whatsapp/preview
func PreviewWhatsApp(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var req WhatsAppPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	sample := &models.Order{
		CustomerName:   "Айгерим",
		CustomerPhone:  "77011234567",
		DeliveryMethod: models.DeliveryMethodDelivery,
		Address:        "Алматы, Абая 10, кв/офис 5",
		Comment:        "Позвоните за час",
		Items: []models.OrderItem{
			{Name: "Букет роз", Quantity: 2, Price: decimal.NewFromInt(12000)},
			{Name: "Открытка", Quantity: 1, Price: decimal.NewFromInt(1500)},
		},
		Total: decimal.NewFromInt(25500),
	}
	message := services.RenderWhatsAppMessage(req.Template, services.WhatsAppDataFromOrder(store, sample))

	respondData(c, http.StatusOK, gin.H{
		"message": message,
		"link":    services.WhatsAppLink(store.WhatsAppPhone, message),
	})
}

// GetKaspi handles GET /api/my-store/kaspi
func GetKaspi(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	settings, err := loadSettings(config.GetDB().WithContext(c.Request.Context()), store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load settings")
		return
	}
	respondData(c, http.StatusOK, settings.Kaspi)
}

// UpdateKaspi handles PUT /api/my-store/kaspi
func UpdateKaspi(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	var req KaspiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.Enabled && req.PayLink == "" && req.Phone == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Provide a Kaspi pay link or phone to enable Kaspi payments")
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	settings, err := loadSettings(db, store.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load settings")
		return
	}

	settings.Kaspi = models.KaspiSettings{
		Enabled:      req.Enabled,
		Phone:        utils.NormalizeKZPhone(req.Phone),
		PayLink:      req.PayLink,
		Recipient:    strings.TrimSpace(req.Recipient),
		Instructions: req.Instructions,
	}
	err = db.Model(settings).Select(
		"kaspi_enabled", "kaspi_phone", "kaspi_pay_link", "kaspi_recipient", "kaspi_instructions",
	).Updates(settings).Error
	if err != nil {
		respondServiceError(c, err, "Failed to update Kaspi settings")
		return
	}

	invalidateStorefront(c, store)
	respondData(c, http.StatusOK, settings.Kaspi)
}

// GetUsage handles GET /api/my-store/usage
func GetUsage(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	usage, err := services.ComputeUsage(c.Request.Context(), config.GetDB(), store, time.Now())
	if err != nil {
		respondServiceError(c, err, "Failed to compute usage")
		return
	}
	respondData(c, http.StatusOK, usage)
}

// The one-to-one rows are created with the store; FirstOrCreate covers stores created
// before a row type existed.

func loadTheme(db *gorm.DB, storeID uint) (*models.Theme, error) {
	var theme models.Theme
	err := db.Where(models.Theme{StoreID: storeID}).FirstOrCreate(&theme).Error
	return &theme, err
}

func loadSettings(db *gorm.DB, storeID uint) (*models.StoreSettings, error) {
	var settings models.StoreSettings
	err := db.Where(models.StoreSettings{StoreID: storeID}).
		Attrs(models.StoreSettings{Language: "ru", WhatsApp: models.WhatsAppSettings{Enabled: true}}).
		FirstOrCreate(&settings).Error
	return &settings, err
}

func loadDeliverySettings(db *gorm.DB, storeID uint) (*models.DeliverySettings, error) {
	var delivery models.DeliverySettings
	err := db.Where(models.DeliverySettings{StoreID: storeID}).
		Attrs(models.DeliverySettings{PickupEnabled: true}).
		FirstOrCreate(&delivery).Error
	return &delivery, err
}

func settingsResponse(settings *models.StoreSettings) SettingsResponse {
	return SettingsResponse{
		StoreSettings:          settings,
		YandexDeliveryTokenSet: settings.YandexDeliveryToken != "",
	}
}

func deliveryResponse(delivery *models.DeliverySettings) DeliveryResponse {
	return DeliveryResponse{
		DeliverySettings:   delivery,
		PickupAddressParts: utils.ParseAddress(delivery.PickupAddress),
	}
}

func whatsAppResponse(store *models.Store, settings *models.StoreSettings) WhatsAppResponse {
	return WhatsAppResponse{
		Enabled:         settings.WhatsApp.Enabled,
		Phone:           store.WhatsAppPhone,
		Template:        settings.WhatsApp.Template,
		DefaultTemplate: services.DefaultWhatsAppTemplate,
		Placeholders: []string{
			services.PlaceholderStoreName,
			services.PlaceholderCustomerName,
			services.PlaceholderCustomerPhone,
			services.PlaceholderAddress,
			services.PlaceholderComment,
			services.PlaceholderItems,
			services.PlaceholderTotal,
		},
	}
}
