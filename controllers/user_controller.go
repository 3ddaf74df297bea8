package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/logger"
	"github.com/kendall-kelly/storefront-api/middleware"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"gorm.io/gorm"
)

// ProfileResponse is the signed-in user together with their store, if any
type ProfileResponse struct {
	User  *models.User  `json:"user"`
	Store *models.Store `json:"store"`
}

// SyncMe handles POST /api/me - creates or refreshes the user from Auth0 userinfo.
// The admin SPA calls it after every login, so an existing user is updated, not rejected.
func SyncMe(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	auth0Service := services.NewAuth0Service(config.GetConfig())
	userInfo, err := auth0Service.GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		logger.Get().WithError(err).WithField("auth0_id", auth0ID).Warn("Auth0 userinfo request failed")
		respondError(c, http.StatusBadGateway, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	if userInfo.Email == "" {
		respondError(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}
	name := userInfo.Name
	if name == "" {
		name = userInfo.Email
	}

	role := models.RoleOwner
	if middleware.GetRoleClaim(c) == models.RoleSuperadmin {
		role = models.RoleSuperadmin
	}

	db := config.GetDB()
	now := time.Now()

	var user models.User
	status := http.StatusOK
	err = db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("auth0_id = ?", auth0ID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				Auth0ID:     auth0ID,
				Name:        name,
				Email:       userInfo.Email,
				Role:        role,
				Active:      true,
				LastLoginAt: &now,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			status = http.StatusCreated
			userID := user.ID
			return services.RecordEvent(tx, models.EventUserRegistered, nil, &userID,
				fmt.Sprintf("Новый пользователь %s", user.Email), nil)
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":          name,
			"email":         userInfo.Email,
			"last_login_at": now,
		}
		if role == models.RoleSuperadmin {
			updates["role"] = role
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this email already exists")
			return
		}
		respondServiceError(c, err, "Failed to save user")
		return
	}

	if !user.Active {
		respondError(c, http.StatusForbidden, "USER_DISABLED", "This account has been disabled")
		return
	}

	respondData(c, status, user)
}

// GetMe handles GET /api/me - returns the current user's profile and store
func GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	resp := ProfileResponse{User: user}
	store, err := services.FindOwnerStore(c.Request.Context(), config.GetDB(), user.ID)
	if err == nil {
		resp.Store = store
	} else {
		var svcErr *services.ServiceError
		if !errors.As(err, &svcErr) {
			respondServiceError(c, err, "Failed to load store")
			return
		}
	}

	respondData(c, http.StatusOK, resp)
}
