package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/logger"
	"github.com/kendall-kelly/storefront-api/models"
	"gorm.io/gorm"
)

// Context keys set by the tenant middleware
const (
	ContextCurrentUser  = "current_user"
	ContextCurrentStore = "current_store"
)

// LoadCurrentUser resolves the token subject to an active user row
func LoadCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID, err := GetUserID(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}

		var user models.User
		err = config.GetDB().WithContext(c.Request.Context()).Where("auth0_id = ?", auth0ID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			abortWithError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
			return
		}
		if err != nil {
			logger.Get().WithError(err).Error("Failed to load current user")
			abortWithError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user")
			return
		}
		if !user.Active {
			abortWithError(c, http.StatusForbidden, "USER_DISABLED", "This account has been disabled")
			return
		}

		c.Set(ContextCurrentUser, &user)
		c.Next()
	}
}

// RequireSuperadmin allows only users with the superadmin role; it expects LoadCurrentUser
// earlier in the chain
func RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := CurrentUser(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}
		if !user.IsSuperadmin() {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Superadmin access required")
			return
		}
		c.Next()
	}
}

// LoadOwnerStore resolves the store owned by the current user
func LoadOwnerStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := CurrentUser(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}

		var store models.Store
		err = config.GetDB().WithContext(c.Request.Context()).
			Where("owner_id = ?", user.ID).Order("id").First(&store).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			abortWithError(c, http.StatusNotFound, "STORE_NOT_FOUND", "Store not found. Create a store first.")
			return
		}
		if err != nil {
			logger.Get().WithError(err).WithField("user_id", user.ID).Error("Failed to load store")
			abortWithError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load store")
			return
		}

		c.Set(ContextCurrentStore, &store)
		c.Next()
	}
}

// CurrentUser returns the user loaded by LoadCurrentUser
func CurrentUser(c *gin.Context) (*models.User, error) {
	v, ok := c.Get(ContextCurrentUser)
	if !ok {
		return nil, &AuthError{Code: "MISSING_USER", Message: "User not found in context"}
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil, &AuthError{Code: "INVALID_USER", Message: "User is not in the expected format"}
	}
	return user, nil
}

// CurrentStore returns the store loaded by LoadOwnerStore
func CurrentStore(c *gin.Context) (*models.Store, error) {
	v, ok := c.Get(ContextCurrentStore)
	if !ok {
		return nil, &AuthError{Code: "MISSING_STORE", Message: "Store not found in context"}
	}
	store, ok := v.(*models.Store)
	if !ok {
		return nil, &AuthError{Code: "INVALID_STORE", Message: "Store is not in the expected format"}
	}
	return store, nil
}
