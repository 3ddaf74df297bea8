package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/logger"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"gorm.io/gorm"
)

// UpdateUserRequest is the body of PATCH /api/superadmin/users/:id. Plan applies to
// the user's store.
type UpdateUserRequest struct {
	Role   *string      `json:"role" binding:"omitempty,oneof=owner superadmin"`
	Plan   *models.Plan `json:"plan"`
	Active *bool        `json:"active"`
}

// TrackingPixelRequest is the body of POST and PUT /api/superadmin/tracking-pixels
type TrackingPixelRequest struct {
	Provider string `json:"provider" binding:"required,oneof=facebook tiktok"`
	PixelID  string `json:"pixel_id" binding:"required,alphanum,max=32"`
	Name     string `json:"name" binding:"max=100"`
	Enabled  *bool  `json:"enabled"`
}

// optionalUintQuery parses an optional numeric query parameter
func optionalUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_PARAMETER", name+" must be a number")
		return nil, false
	}
	id := uint(v)
	return &id, true
}

// AdminListOrders handles GET /api/superadmin/orders - orders across every store
func AdminListOrders(c *gin.Context) {
	storeID, ok := optionalUintQuery(c, "store_id")
	if !ok {
		return
	}
	listOrders(c, storeID)
}

// AdminListUsers handles GET /api/superadmin/users
func AdminListUsers(c *gin.Context) {
	var users []models.User
	err := config.GetDB().WithContext(c.Request.Context()).
		Preload("Stores").Order("created_at DESC, id DESC").Find(&users).Error
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve users")
		return
	}
	respondData(c, http.StatusOK, users)
}

// AdminUpdateUser handles PATCH /api/superadmin/users/:id
func AdminUpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.Plan != nil && !req.Plan.Valid() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown plan")
		return
	}

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	if actor.ID == id && ((req.Active != nil && !*req.Active) || (req.Role != nil && *req.Role != models.RoleSuperadmin)) {
		respondError(c, http.StatusBadRequest, "SELF_DEMOTION", "You cannot disable or demote yourself")
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	var user models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Role != nil {
			updates["role"] = *req.Role
		}
		if req.Active != nil {
			updates["active"] = *req.Active
		}
		if len(updates) > 0 {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Plan != nil {
			if err := tx.Model(&models.Store{}).Where("owner_id = ?", user.ID).Update("plan", *req.Plan).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Stores").First(&user, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	if err != nil {
		respondServiceError(c, err, "Failed to update user")
		return
	}

	for i := range user.Stores {
		invalidateStorefront(c, &user.Stores[i])
	}
	respondData(c, http.StatusOK, user)
}

// AdminDeleteStore handles DELETE /api/superadmin/stores/:id - removes the store and
// everything it owns, orders included
func AdminDeleteStore(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var store models.Store
	if err := db.WithContext(c.Request.Context()).First(&store, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "STORE_NOT_FOUND", "Store not found")
			return
		}
		respondServiceError(c, err, "Failed to load store")
		return
	}

	actorID := actor.ID
	if err := services.DeleteStore(c.Request.Context(), db, id, &actorID); err != nil {
		respondServiceError(c, err, "Failed to delete store")
		return
	}

	invalidateStorefront(c, &store)
	respondData(c, http.StatusOK, gin.H{"message": "Store deleted"})
}

// AdminListEvents handles GET /api/superadmin/events
func AdminListEvents(c *gin.Context) {
	since, ok := sinceQuery(c)
	if !ok {
		return
	}
	storeID, ok := optionalUintQuery(c, "store_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	events, err := services.ListEvents(c.Request.Context(), config.GetDB(), services.EventFilter{
		Type:    c.Query("type"),
		StoreID: storeID,
		Since:   since,
		Limit:   limit,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve events")
		return
	}
	respondData(c, http.StatusOK, events)
}

// AdminListTrackingPixels handles GET /api/superadmin/tracking-pixels
func AdminListTrackingPixels(c *gin.Context) {
	var pixels []models.TrackingPixel
	if err := config.GetDB().WithContext(c.Request.Context()).Order("id").Find(&pixels).Error; err != nil {
		respondServiceError(c, err, "Failed to retrieve tracking pixels")
		return
	}
	respondData(c, http.StatusOK, pixels)
}

// AdminCreateTrackingPixel handles POST /api/superadmin/tracking-pixels
func AdminCreateTrackingPixel(c *gin.Context) {
	var req TrackingPixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	pixel := models.TrackingPixel{
		Provider: req.Provider,
		PixelID:  req.PixelID,
		Name:     req.Name,
		Enabled:  boolOr(req.Enabled, true),
	}
	if err := config.GetDB().WithContext(c.Request.Context()).Create(&pixel).Error; err != nil {
		respondServiceError(c, err, "Failed to create tracking pixel")
		return
	}

	invalidateAllStorefronts(c)
	respondData(c, http.StatusCreated, pixel)
}

// AdminUpdateTrackingPixel handles PUT /api/superadmin/tracking-pixels/:id
func AdminUpdateTrackingPixel(c *gin.Context) {
	pixel, ok := loadTrackingPixel(c)
	if !ok {
		return
	}

	var req TrackingPixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	pixel.Provider = req.Provider
	pixel.PixelID = req.PixelID
	pixel.Name = req.Name
	pixel.Enabled = boolOr(req.Enabled, pixel.Enabled)
	if err := config.GetDB().WithContext(c.Request.Context()).Save(pixel).Error; err != nil {
		respondServiceError(c, err, "Failed to update tracking pixel")
		return
	}

	invalidateAllStorefronts(c)
	respondData(c, http.StatusOK, pixel)
}

// AdminDeleteTrackingPixel handles DELETE /api/superadmin/tracking-pixels/:id
func AdminDeleteTrackingPixel(c *gin.Context) {
	pixel, ok := loadTrackingPixel(c)
	if !ok {
		return
	}

	if err := config.GetDB().WithContext(c.Request.Context()).Delete(pixel).Error; err != nil {
		respondServiceError(c, err, "Failed to delete tracking pixel")
		return
	}

	invalidateAllStorefronts(c)
	respondData(c, http.StatusOK, gin.H{"message": "Tracking pixel deleted"})
}

// AdminSendBroadcast handles POST /api/superadmin/broadcasts
func AdminSendBroadcast(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.BroadcastInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	log := logger.Get().WithField("sent_by", actor.ID)
	broadcast, err := services.SendBroadcast(c.Request.Context(), config.GetDB(), services.GetEmailSender(), log, actor, req)
	if err != nil {
		respondServiceError(c, err, "Failed to send broadcast")
		return
	}
	respondData(c, http.StatusCreated, broadcast)
}

// AdminListBroadcasts handles GET /api/superadmin/broadcasts
func AdminListBroadcasts(c *gin.Context) {
	since, ok := sinceQuery(c)
	if !ok {
		return
	}

	broadcasts, err := services.ListBroadcasts(c.Request.Context(), config.GetDB(), since)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve broadcasts")
		return
	}
	respondData(c, http.StatusOK, broadcasts)
}

func loadTrackingPixel(c *gin.Context) (*models.TrackingPixel, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}

	var pixel models.TrackingPixel
	err := config.GetDB().WithContext(c.Request.Context()).First(&pixel, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "PIXEL_NOT_FOUND", "Tracking pixel not found")
		return nil, false
	}
	if err != nil {
		respondServiceError(c, err, "Failed to load tracking pixel")
		return nil, false
	}
	return &pixel, true
}

// invalidateAllStorefronts drops every cached storefront; platform pixels appear on all of them
func invalidateAllStorefronts(c *gin.Context) {
	var slugs []string
	if err := config.GetDB().WithContext(c.Request.Context()).Model(&models.Store{}).Pluck("slug", &slugs).Error; err != nil {
		logger.Get().WithError(err).Warn("Failed to list stores for cache invalidation")
		return
	}
	cache := services.GetStorefrontCache()
	for _, slug := range slugs {
		cache.Invalidate(c.Request.Context(), slug)
	}
}
