package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"github.com/kendall-kelly/storefront-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminEnv struct {
	*ownerEnv
	admin  *models.User
	router *gin.Engine
}

func setupAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	env := setupOwnerEnv(t)
	admin := testutil.CreateUser(t, env.db, "auth0|admin", models.RoleSuperadmin)

	router, group := adminRouter(t, admin.Auth0ID)
	group.GET("/orders", AdminListOrders)
	group.GET("/users", AdminListUsers)
	group.PATCH("/users/:id", AdminUpdateUser)
	group.DELETE("/stores/:id", AdminDeleteStore)
	group.GET("/events", AdminListEvents)
	group.GET("/tracking-pixels", AdminListTrackingPixels)
	group.POST("/tracking-pixels", AdminCreateTrackingPixel)
	group.PUT("/tracking-pixels/:id", AdminUpdateTrackingPixel)
	group.DELETE("/tracking-pixels/:id", AdminDeleteTrackingPixel)
	group.POST("/broadcasts", AdminSendBroadcast)
	group.GET("/broadcasts", AdminListBroadcasts)

	return &adminEnv{ownerEnv: env, admin: admin, router: router}
}

func TestSuperadminRoutesRejectOwners(t *testing.T) {
	env := setupOwnerEnv(t)
	router, group := adminRouter(t, env.owner.Auth0ID)
	group.GET("/users", AdminListUsers)

	w, resp := doRequest(t, router, http.MethodGet, "/api/superadmin/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", resp.ErrorCode())
}

func TestAdminListOrders_AcrossStores(t *testing.T) {
	env := setupAdminEnv(t)
	other := testutil.CreateUser(t, env.db, "auth0|other", models.RoleOwner)
	otherStore := testutil.CreateStore(t, env.db, other, "other")
	seedOrder(t, env.db, env.store.ID, "aaaaaaaa-0000-4000-8000-000000000001", models.OrderStatusPending)
	seedOrder(t, env.db, otherStore.ID, "aaaaaaaa-0000-4000-8000-000000000002", models.OrderStatusPending)

	w, resp := doRequest(t, env.router, http.MethodGet, "/api/superadmin/orders", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list OrderListResponse
	testutil.DecodeData(t, resp, &list)
	assert.Len(t, list.Orders, 2)

	w, resp = doRequest(t, env.router, http.MethodGet, fmt.Sprintf("/api/superadmin/orders?store_id=%d", otherStore.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeData(t, resp, &list)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, otherStore.ID, list.Orders[0].StoreID)

	w, resp = doRequest(t, env.router, http.MethodGet, "/api/superadmin/orders?store_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMETER", resp.ErrorCode())
}

func TestAdminListUsers(t *testing.T) {
	env := setupAdminEnv(t)

	w, resp := doRequest(t, env.router, http.MethodGet, "/api/superadmin/users", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var users []models.User
	testutil.DecodeData(t, resp, &users)
	require.Len(t, users, 2)
	for _, u := range users {
		if u.ID == env.owner.ID {
			require.Len(t, u.Stores, 1)
			assert.Equal(t, "flowers", u.Stores[0].Slug)
		}
	}
}

func TestAdminUpdateUser(t *testing.T) {
	env := setupAdminEnv(t)
	env.cache.Entries["flowers"] = []byte(`{}`)

	tests := []struct {
		name           string
		userID         uint
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
	}{
		{"upgrade plan", env.owner.ID, map[string]interface{}{"plan": "business"}, http.StatusOK, ""},
		{"unknown plan", env.owner.ID, map[string]interface{}{"plan": "platinum"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown role", env.owner.ID, map[string]interface{}{"role": "customer"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"disable self", env.admin.ID, map[string]interface{}{"active": false}, http.StatusBadRequest, "SELF_DEMOTION"},
		{"demote self", env.admin.ID, map[string]interface{}{"role": "owner"}, http.StatusBadRequest, "SELF_DEMOTION"},
		{"unknown user", 9999, map[string]interface{}{"active": false}, http.StatusNotFound, "USER_NOT_FOUND"},
		{"disable owner", env.owner.ID, map[string]interface{}{"active": false}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, env.router, http.MethodPatch, fmt.Sprintf("/api/superadmin/users/%d", tt.userID), tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, resp.ErrorCode())
			}
		})
	}

	var store models.Store
	require.NoError(t, env.db.First(&store, env.store.ID).Error)
	assert.Equal(t, models.PlanBusiness, store.Plan)

	var owner models.User
	require.NoError(t, env.db.First(&owner, env.owner.ID).Error)
	assert.False(t, owner.Active)

	var admin models.User
	require.NoError(t, env.db.First(&admin, env.admin.ID).Error)
	assert.True(t, admin.Active)
	assert.Equal(t, models.RoleSuperadmin, admin.Role)

	assert.NotContains(t, env.cache.Entries, "flowers")
}

func TestAdminDeleteStore(t *testing.T) {
	env := setupAdminEnv(t)
	testutil.CreateProduct(t, env.db, env.store.ID, "Роза", 1000)
	seedOrder(t, env.db, env.store.ID, "bbbbbbbb-0000-4000-8000-000000000001", models.OrderStatusPending)
	env.cache.Entries["flowers"] = []byte(`{}`)

	w, _ := doRequest(t, env.router, http.MethodDelete, fmt.Sprintf("/api/superadmin/stores/%d", env.store.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, model := range []interface{}{&models.Store{}, &models.Product{}, &models.Order{}} {
		var count int64
		env.db.Model(model).Count(&count)
		assert.Zero(t, count, "%T", model)
	}
	assert.NotContains(t, env.cache.Entries, "flowers")

	w, resp := doRequest(t, env.router, http.MethodGet, "/api/superadmin/events?type="+models.EventStoreDeleted, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []models.Event
	testutil.DecodeData(t, resp, &events)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].UserID)
	assert.Equal(t, env.admin.ID, *events[0].UserID)

	w, resp = doRequest(t, env.router, http.MethodDelete, fmt.Sprintf("/api/superadmin/stores/%d", env.store.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "STORE_NOT_FOUND", resp.ErrorCode())
}

func TestTrackingPixelCRUD(t *testing.T) {
	env := setupAdminEnv(t)
	env.cache.Entries["flowers"] = []byte(`{}`)

	w, resp := doRequest(t, env.router, http.MethodPost, "/api/superadmin/tracking-pixels", map[string]interface{}{
		"provider": "facebook",
		"pixel_id": "1234567890",
		"name":     "Platform",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var pixel models.TrackingPixel
	testutil.DecodeData(t, resp, &pixel)
	assert.True(t, pixel.Enabled)
	assert.NotContains(t, env.cache.Entries, "flowers", "pixels appear on every storefront")

	w, resp = doRequest(t, env.router, http.MethodPost, "/api/superadmin/tracking-pixels", map[string]interface{}{
		"provider": "myspace",
		"pixel_id": "1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.ErrorCode())

	w, resp = doRequest(t, env.router, http.MethodPut, fmt.Sprintf("/api/superadmin/tracking-pixels/%d", pixel.ID), map[string]interface{}{
		"provider": "tiktok",
		"pixel_id": "CABCDEF123",
		"enabled":  false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.DecodeData(t, resp, &pixel)
	assert.Equal(t, "tiktok", pixel.Provider)
	assert.False(t, pixel.Enabled)

	w, _ = doRequest(t, env.router, http.MethodDelete, fmt.Sprintf("/api/superadmin/tracking-pixels/%d", pixel.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doRequest(t, env.router, http.MethodDelete, fmt.Sprintf("/api/superadmin/tracking-pixels/%d", pixel.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PIXEL_NOT_FOUND", resp.ErrorCode())
}

func TestAdminSendBroadcast(t *testing.T) {
	env := setupAdminEnv(t)

	t.Run("email not configured", func(t *testing.T) {
		previous := services.GetEmailSender()
		services.InitEmailSender(nil)
		t.Cleanup(func() { services.InitEmailSender(previous) })

		w, resp := doRequest(t, env.router, http.MethodPost, "/api/superadmin/broadcasts", map[string]interface{}{
			"subject": "Новости",
			"body":    "Привет",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, services.CodeValidation, resp.ErrorCode())
	})

	t.Run("sent to active owners", func(t *testing.T) {
		previous := services.GetEmailSender()
		sender := services.NewMockEmailSender()
		services.InitEmailSender(sender)
		t.Cleanup(func() { services.InitEmailSender(previous) })

		w, resp := doRequest(t, env.router, http.MethodPost, "/api/superadmin/broadcasts", map[string]interface{}{
			"subject": "Новости платформы",
			"body":    "Мы добавили Kaspi QR",
			"plan":    "free",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var broadcast models.Broadcast
		testutil.DecodeData(t, resp, &broadcast)
		assert.Equal(t, 1, broadcast.Recipients)
		assert.Equal(t, 1, broadcast.Sent)
		assert.Equal(t, models.BroadcastStatusSent, broadcast.Status)
		require.Len(t, sender.Sent(), 1)
		assert.Equal(t, env.owner.Email, sender.Sent()[0].To)

		w, resp = doRequest(t, env.router, http.MethodGet, "/api/superadmin/broadcasts", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []models.Broadcast
		testutil.DecodeData(t, resp, &list)
		assert.Len(t, list, 1)
	})
}
