package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/logger"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"gorm.io/gorm"
)

// CancelClaimRequest is the body of POST /orders/:id/delivery-claim/cancel
type CancelClaimRequest struct {
	CancelState string `json:"cancel_state" binding:"required,oneof=free paid"`
}

// ClaimResponse is a claim together with the order it was recorded on
type ClaimResponse struct {
	Claim *services.Claim `json:"claim"`
	Order OrderResponse   `json:"order"`
}

// yandexClient builds a cargo client for the store. The store's own token wins over the
// platform token; with neither, the store cannot use courier delivery.
func yandexClient(c *gin.Context, db *gorm.DB, storeID uint) (*services.YandexDeliveryClient, *models.DeliverySettings, bool) {
	delivery, err := loadDeliverySettings(db, storeID)
	if err != nil {
		respondServiceError(c, err, "Failed to load delivery settings")
		return nil, nil, false
	}
	if !delivery.YandexDeliveryEnabled {
		respondError(c, http.StatusUnprocessableEntity, "DELIVERY_NOT_CONFIGURED", "Yandex Delivery is not enabled for this store")
		return nil, nil, false
	}

	cfg := config.GetConfig()
	token := cfg.YandexDeliveryToken
	var settings models.StoreSettings
	if err := db.Where("store_id = ?", storeID).First(&settings).Error; err == nil && settings.YandexDeliveryToken != "" {
		token = settings.YandexDeliveryToken
	}
	if token == "" {
		respondError(c, http.StatusUnprocessableEntity, "DELIVERY_NOT_CONFIGURED", "Yandex Delivery token is not configured")
		return nil, nil, false
	}
	return services.NewYandexDeliveryClient(cfg.YandexDeliveryBaseURL, token), delivery, true
}

// respondProviderError reports a failed cargo API call
func respondProviderError(c *gin.Context, err error) {
	logger.Get().WithError(err).WithField("path", c.FullPath()).Warn("Yandex Delivery request failed")

	var apiErr *services.YandexAPIError
	if errors.As(err, &apiErr) {
		respondError(c, http.StatusBadGateway, "DELIVERY_PROVIDER_ERROR", "Yandex Delivery rejected the request", gin.H{
			"status":  apiErr.StatusCode,
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
		return
	}
	respondError(c, http.StatusBadGateway, "DELIVERY_PROVIDER_ERROR", "Yandex Delivery is unavailable")
}

// loadClaimOrder resolves the store, the order and a cargo client for claim actions
func loadClaimOrder(c *gin.Context) (*models.Store, *models.Order, *services.YandexDeliveryClient, *models.DeliverySettings, bool) {
	store, ok := currentStore(c)
	if !ok {
		return nil, nil, nil, nil, false
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return nil, nil, nil, nil, false
	}

	db := config.GetDB().WithContext(c.Request.Context())
	order, err := services.FindStoreOrder(c.Request.Context(), db, store.ID, orderID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve order")
		return nil, nil, nil, nil, false
	}

	client, delivery, ok := yandexClient(c, db, store.ID)
	if !ok {
		return nil, nil, nil, nil, false
	}
	return store, order, client, delivery, true
}

func requireClaim(c *gin.Context, order *models.Order) bool {
	if order.DeliveryClaimID == "" {
		respondError(c, http.StatusNotFound, "CLAIM_NOT_FOUND", "No delivery claim for this order")
		return false
	}
	return true
}

func saveClaim(c *gin.Context, order *models.Order, claim *services.Claim) {
	if err := services.UpdateDeliveryClaim(c.Request.Context(), config.GetDB(), order, claim.ID, claim.Status); err != nil {
		respondServiceError(c, err, "Failed to save delivery claim")
		return
	}
	respondData(c, http.StatusOK, ClaimResponse{Claim: claim, Order: orderResponse(*order)})
}

// CreateDeliveryClaim handles POST /api/my-store/orders/:id/delivery-claim
func CreateDeliveryClaim(c *gin.Context) {
	store, order, client, delivery, ok := loadClaimOrder(c)
	if !ok {
		return
	}

	if order.DeliveryMethod != models.DeliveryMethodDelivery {
		respondError(c, http.StatusUnprocessableEntity, "NOT_A_DELIVERY_ORDER", "This order is picked up by the customer")
		return
	}
	if order.Status.Terminal() {
		respondError(c, http.StatusConflict, "INVALID_TRANSITION", "Cannot dispatch a completed or cancelled order")
		return
	}
	if order.DeliveryClaimID != "" && !strings.HasPrefix(order.DeliveryClaimStatus, "cancelled") {
		respondError(c, http.StatusConflict, "CLAIM_EXISTS", "A delivery claim already exists for this order")
		return
	}
	if order.AddressLat == nil || order.AddressLon == nil {
		respondError(c, http.StatusUnprocessableEntity, "ADDRESS_NOT_GEOCODED", "The delivery address has no coordinates")
		return
	}
	if delivery.PickupLat == 0 && delivery.PickupLon == 0 {
		respondError(c, http.StatusUnprocessableEntity, "PICKUP_NOT_GEOCODED", "Set the pickup point on the map first")
		return
	}

	claim, err := client.CreateClaim(c.Request.Context(), services.ClaimRequest{
		OrderPublicID: order.PublicID,
		Comment:       order.Comment,
		Items:         order.Items,
		Source:        services.GeoPoint{Lat: delivery.PickupLat, Lon: delivery.PickupLon},
		SourceAddress: delivery.PickupAddress,
		SourceContact: services.ClaimContact{Name: store.Name, Phone: "+" + store.WhatsAppPhone},
		Dest:          services.GeoPoint{Lat: *order.AddressLat, Lon: *order.AddressLon},
		DestAddress:   order.Address,
		DestContact:   services.ClaimContact{Name: order.CustomerName, Phone: "+" + order.CustomerPhone},
	})
	if err != nil {
		respondProviderError(c, err)
		return
	}
	saveClaim(c, order, claim)
}

// GetDeliveryClaim handles GET /api/my-store/orders/:id/delivery-claim
func GetDeliveryClaim(c *gin.Context) {
	_, order, client, _, ok := loadClaimOrder(c)
	if !ok || !requireClaim(c, order) {
		return
	}

	claim, err := client.GetClaim(c.Request.Context(), order.DeliveryClaimID)
	if err != nil {
		respondProviderError(c, err)
		return
	}
	saveClaim(c, order, claim)
}

// AcceptDeliveryClaim handles POST /api/my-store/orders/:id/delivery-claim/accept
func AcceptDeliveryClaim(c *gin.Context) {
	_, order, client, _, ok := loadClaimOrder(c)
	if !ok || !requireClaim(c, order) {
		return
	}

	current, err := client.GetClaim(c.Request.Context(), order.DeliveryClaimID)
	if err != nil {
		respondProviderError(c, err)
		return
	}
	claim, err := client.AcceptClaim(c.Request.Context(), current.ID, current.Version)
	if err != nil {
		respondProviderError(c, err)
		return
	}
	saveClaim(c, order, claim)
}

// CancelDeliveryClaim handles POST /api/my-store/orders/:id/delivery-claim/cancel
func CancelDeliveryClaim(c *gin.Context) {
	var req CancelClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	_, order, client, _, ok := loadClaimOrder(c)
	if !ok || !requireClaim(c, order) {
		return
	}

	current, err := client.GetClaim(c.Request.Context(), order.DeliveryClaimID)
	if err != nil {
		respondProviderError(c, err)
		return
	}
	claim, err := client.CancelClaim(c.Request.Context(), current.ID, current.Version, req.CancelState)
	if err != nil {
		respondProviderError(c, err)
		return
	}
	saveClaim(c, order, claim)
}
