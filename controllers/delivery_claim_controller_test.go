package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cargoPrefix = "/b2b/cargo/integration/v2"

// fakeCargo is a scripted Yandex cargo API
type fakeCargo struct {
	mu        sync.Mutex
	responses map[string]string
	failWith  int
	bodies    map[string]map[string]interface{}
	tokens    []string
}

func newFakeCargo(t *testing.T, responses map[string]string) (*fakeCargo, *httptest.Server) {
	t.Helper()
	fake := &fakeCargo{responses: responses, bodies: map[string]map[string]interface{}{}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		defer fake.mu.Unlock()

		fake.tokens = append(fake.tokens, r.Header.Get("Authorization"))
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		fake.bodies[r.URL.Path] = body

		if fake.failWith != 0 {
			w.WriteHeader(fake.failWith)
			w.Write([]byte(`{"code":"state_mismatch","message":"Claim version mismatch"}`))
			return
		}
		resp, ok := fake.responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(resp))
	}))
	t.Cleanup(server.Close)
	return fake, server
}

// setupClaimEnv enables courier delivery with a store token against server
func setupClaimEnv(t *testing.T, server *httptest.Server) (*ownerEnv, *gin.Engine) {
	t.Helper()
	env := setupOwnerEnv(t)
	config.GetConfig().YandexDeliveryBaseURL = server.URL

	require.NoError(t, env.db.Model(&models.DeliverySettings{}).Where("store_id = ?", env.store.ID).
		Update("yandex_delivery_enabled", true).Error)
	require.NoError(t, env.db.Model(&models.StoreSettings{}).Where("store_id = ?", env.store.ID).
		Update("yandex_delivery_token", "store-token").Error)

	router, group := ownerRouter(t, env.owner.Auth0ID)
	group.POST("/orders/:id/delivery-claim", CreateDeliveryClaim)
	group.GET("/orders/:id/delivery-claim", GetDeliveryClaim)
	group.POST("/orders/:id/delivery-claim/accept", AcceptDeliveryClaim)
	group.POST("/orders/:id/delivery-claim/cancel", CancelDeliveryClaim)
	return env, router
}

func seedDeliveryOrder(t *testing.T, env *ownerEnv, publicID string) *models.Order {
	t.Helper()
	order := seedOrder(t, env.db, env.store.ID, publicID, models.OrderStatusConfirmed)
	lat, lon := 43.25, 76.95
	require.NoError(t, env.db.Model(order).Updates(map[string]interface{}{
		"delivery_method": models.DeliveryMethodDelivery,
		"address":         "Алматы, Достык 5",
		"address_lat":     lat,
		"address_lon":     lon,
	}).Error)
	require.NoError(t, env.db.First(order, order.ID).Error)
	return order
}

func TestCreateDeliveryClaim(t *testing.T) {
	fake, server := newFakeCargo(t, map[string]string{
		cargoPrefix + "/claims/create": `{"id":"claim-1","status":"new","version":1}`,
	})
	env, router := setupClaimEnv(t, server)
	order := seedDeliveryOrder(t, env, "c1a10000-0000-4000-8000-000000000001")

	w, resp := doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var claim ClaimResponse
	testutil.DecodeData(t, resp, &claim)
	assert.Equal(t, "claim-1", claim.Claim.ID)
	assert.Equal(t, []string{"Bearer store-token"}, fake.tokens, "the store token wins over the platform token")

	var stored models.Order
	require.NoError(t, env.db.First(&stored, order.ID).Error)
	assert.Equal(t, "claim-1", stored.DeliveryClaimID)
	assert.Equal(t, "new", stored.DeliveryClaimStatus)

	points := fake.bodies[cargoPrefix+"/claims/create"]["route_points"].([]interface{})
	dest := points[1].(map[string]interface{})
	assert.Equal(t, order.PublicID, dest["external_order_id"])

	w, resp = doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim", order.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CLAIM_EXISTS", resp.ErrorCode())
}

func TestCreateDeliveryClaim_Preconditions(t *testing.T) {
	_, server := newFakeCargo(t, map[string]string{
		cargoPrefix + "/claims/create": `{"id":"claim-1","status":"new","version":1}`,
	})
	env, router := setupClaimEnv(t, server)

	pickup := seedOrder(t, env.db, env.store.ID, "c1a10000-0000-4000-8000-000000000010", models.OrderStatusPending)
	cancelled := seedDeliveryOrder(t, env, "c1a10000-0000-4000-8000-000000000011")
	require.NoError(t, env.db.Model(cancelled).Update("status", models.OrderStatusCancelled).Error)
	noCoords := seedDeliveryOrder(t, env, "c1a10000-0000-4000-8000-000000000012")
	require.NoError(t, env.db.Model(noCoords).Updates(map[string]interface{}{"address_lat": nil, "address_lon": nil}).Error)

	tests := []struct {
		name           string
		orderID        uint
		expectedStatus int
		expectedCode   string
	}{
		{"pickup order", pickup.ID, http.StatusUnprocessableEntity, "NOT_A_DELIVERY_ORDER"},
		{"cancelled order", cancelled.ID, http.StatusConflict, "INVALID_TRANSITION"},
		{"address without coordinates", noCoords.ID, http.StatusUnprocessableEntity, "ADDRESS_NOT_GEOCODED"},
		{"order of nobody", 9999, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim", tt.orderID), nil)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, resp.ErrorCode())
		})
	}
}

func TestDeliveryClaim_NotConfigured(t *testing.T) {
	_, server := newFakeCargo(t, nil)
	env, router := setupClaimEnv(t, server)
	order := seedDeliveryOrder(t, env, "c1a10000-0000-4000-8000-000000000020")

	require.NoError(t, env.db.Model(&models.StoreSettings{}).Where("store_id = ?", env.store.ID).
		Update("yandex_delivery_token", "").Error)

	w, resp := doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim", order.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "DELIVERY_NOT_CONFIGURED", resp.ErrorCode())
}

func TestAcceptAndCancelDeliveryClaim_UseCurrentVersion(t *testing.T) {
	fake, server := newFakeCargo(t, map[string]string{
		cargoPrefix + "/claims/info":   `{"id":"claim-7","status":"ready_for_approval","version":3,"pricing":{"offer":{"price":"1450.00"}}}`,
		cargoPrefix + "/claims/accept": `{"id":"claim-7","status":"accepted","version":4}`,
		cargoPrefix + "/claims/cancel": `{"id":"claim-7","status":"cancelled","version":5}`,
	})
	env, router := setupClaimEnv(t, server)
	order := seedDeliveryOrder(t, env, "c1a10000-0000-4000-8000-000000000030")

	w, resp := doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim", order.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CLAIM_NOT_FOUND", resp.ErrorCode())

	require.NoError(t, env.db.Model(order).Updates(map[string]interface{}{
		"delivery_claim_id":     "claim-7",
		"delivery_claim_status": "new",
	}).Error)

	w, resp = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var info ClaimResponse
	testutil.DecodeData(t, resp, &info)
	assert.True(t, info.Claim.Price.Equal(mustDecimal("1450")))

	w, _ = doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim/accept", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(3), fake.bodies[cargoPrefix+"/claims/accept"]["version"])

	w, resp = doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim/cancel", order.ID),
		map[string]interface{}{"cancel_state": "late"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.ErrorCode())

	w, _ = doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim/cancel", order.ID),
		map[string]interface{}{"cancel_state": "paid"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "paid", fake.bodies[cargoPrefix+"/claims/cancel"]["cancel_state"])

	var stored models.Order
	require.NoError(t, env.db.First(&stored, order.ID).Error)
	assert.Equal(t, "cancelled", stored.DeliveryClaimStatus)

	// A cancelled claim may be replaced by a new one
	fake.mu.Lock()
	fake.responses[cargoPrefix+"/claims/create"] = `{"id":"claim-8","status":"new","version":1}`
	fake.mu.Unlock()
	w, _ = doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestDeliveryClaim_ProviderError(t *testing.T) {
	fake, server := newFakeCargo(t, nil)
	fake.failWith = http.StatusConflict
	env, router := setupClaimEnv(t, server)
	order := seedDeliveryOrder(t, env, "c1a10000-0000-4000-8000-000000000040")
	require.NoError(t, env.db.Model(order).Update("delivery_claim_id", "claim-9").Error)

	w, resp := doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/my-store/orders/%d/delivery-claim/accept", order.ID), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "DELIVERY_PROVIDER_ERROR", resp.ErrorCode())
	require.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}
