package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/logger"
	"github.com/kendall-kelly/storefront-api/middleware"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
)

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string, details ...interface{}) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if len(details) > 0 && details[0] != nil {
		body["details"] = details[0]
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondValidationError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
}

var serviceErrorStatus = map[string]int{
	services.CodeValidation:         http.StatusBadRequest,
	services.CodeNotFound:           http.StatusNotFound,
	services.CodeConflict:           http.StatusConflict,
	services.CodeInvalidTransition:  http.StatusConflict,
	services.CodeProductUnavailable: http.StatusUnprocessableEntity,
	services.CodeDiscountRejected:   http.StatusUnprocessableEntity,
	services.CodeDeliveryDisabled:   http.StatusUnprocessableEntity,
	services.CodePaymentDisabled:    http.StatusUnprocessableEntity,
}

// respondServiceError maps a ServiceError to its status; anything else is logged and
// reported as a database error
func respondServiceError(c *gin.Context, err error, fallback string) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		status, ok := serviceErrorStatus[svcErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		respondError(c, status, svcErr.Code, svcErr.Message)
		return
	}

	_ = c.Error(err)
	logger.Get().WithError(err).WithField("path", c.FullPath()).Error(fallback)
	respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", fallback)
}

// currentStore returns the store set by middleware.LoadOwnerStore, writing a 401 when absent
func currentStore(c *gin.Context) (*models.Store, bool) {
	store, err := middleware.CurrentStore(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not resolve store")
		return nil, false
	}
	return store, true
}

// currentUser returns the user set by middleware.LoadCurrentUser, writing a 401 when absent
func currentUser(c *gin.Context) (*models.User, bool) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return user, true
}

// idParam parses a positive numeric path parameter, writing a 400 when invalid
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// sinceQuery parses the optional ?since= RFC 3339 timestamp used by polling clients
func sinceQuery(c *gin.Context) (*time.Time, bool) {
	raw := c.Query("since")
	if raw == "" {
		return nil, true
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_PARAMETER", "since must be an RFC 3339 timestamp")
		return nil, false
	}
	return &since, true
}

// maxPage keeps (page-1)*limit far from integer overflow
const maxPage = 100000

// paginationQuery parses ?page= and ?limit= the way the order listings expect them
func paginationQuery(c *gin.Context) (page, limit int, ok bool) {
	page, limit = 1, 20
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 || p > maxPage {
			respondError(c, http.StatusBadRequest, "INVALID_PARAMETER", "Page must be between 1 and 100000")
			return 0, 0, false
		}
		page = p
	}
	if raw := c.Query("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 1 || l > 100 {
			respondError(c, http.StatusBadRequest, "INVALID_PARAMETER", "Limit must be between 1 and 100")
			return 0, 0, false
		}
		limit = l
	}
	return page, limit, true
}

func invalidateStorefront(c *gin.Context, store *models.Store) {
	services.GetStorefrontCache().Invalidate(c.Request.Context(), store.Slug)
}
