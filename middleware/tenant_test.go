package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTenantTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Store{}))
	config.SetDB(db)
	return db
}

func tenantRouter(auth0ID string, chain ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := []gin.HandlerFunc{func(c *gin.Context) {
		if auth0ID != "" {
			c.Set(ContextUserID, auth0ID)
		}
		c.Next()
	}}
	handlers = append(handlers, chain...)
	handlers = append(handlers, func(c *gin.Context) {
		resp := gin.H{}
		if user, err := CurrentUser(c); err == nil {
			resp["user_id"] = user.ID
		}
		if store, err := CurrentStore(c); err == nil {
			resp["store_id"] = store.ID
		}
		c.JSON(http.StatusOK, resp)
	})
	router.GET("/test", handlers...)
	return router
}

func TestLoadCurrentUser(t *testing.T) {
	db := setupTenantTestDB(t)
	active := models.User{Auth0ID: "auth0|active", Name: "A", Email: "a@example.kz", Role: models.RoleOwner, Active: true}
	disabled := models.User{Auth0ID: "auth0|disabled", Name: "D", Email: "d@example.kz", Role: models.RoleOwner}
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&disabled).Error)

	tests := []struct {
		name       string
		auth0ID    string
		wantStatus int
	}{
		{"active user", "auth0|active", http.StatusOK},
		{"disabled user", "auth0|disabled", http.StatusForbidden},
		{"unknown user", "auth0|ghost", http.StatusNotFound},
		{"no subject", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tenantRouter(tt.auth0ID, LoadCurrentUser()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequireSuperadmin(t *testing.T) {
	db := setupTenantTestDB(t)
	require.NoError(t, db.Create(&models.User{Auth0ID: "auth0|admin", Name: "S", Email: "s@example.kz", Role: models.RoleSuperadmin, Active: true}).Error)
	require.NoError(t, db.Create(&models.User{Auth0ID: "auth0|owner", Name: "O", Email: "o@example.kz", Role: models.RoleOwner, Active: true}).Error)

	w := httptest.NewRecorder()
	tenantRouter("auth0|admin", LoadCurrentUser(), RequireSuperadmin()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	tenantRouter("auth0|owner", LoadCurrentUser(), RequireSuperadmin()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	tenantRouter("auth0|owner", RequireSuperadmin()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "without LoadCurrentUser there is no user")
}

func TestLoadOwnerStore(t *testing.T) {
	db := setupTenantTestDB(t)
	owner := models.User{Auth0ID: "auth0|owner", Name: "O", Email: "o@example.kz", Role: models.RoleOwner, Active: true}
	newcomer := models.User{Auth0ID: "auth0|new", Name: "N", Email: "n@example.kz", Role: models.RoleOwner, Active: true}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&newcomer).Error)
	store := models.Store{OwnerID: owner.ID, Name: "Shop", Slug: "shop", Plan: models.PlanFree, Active: true}
	require.NoError(t, db.Create(&store).Error)

	w := httptest.NewRecorder()
	tenantRouter("auth0|owner", LoadCurrentUser(), LoadOwnerStore()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store_id":`)

	w = httptest.NewRecorder()
	tenantRouter("auth0|new", LoadCurrentUser(), LoadOwnerStore()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "STORE_NOT_FOUND")
}
