package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/shopspring/decimal"
)

const yandexCargoPrefix = "/b2b/cargo/integration/v2"

// Claim cancel states accepted by the cargo API
const (
	CancelStateFree = "free"
	CancelStatePaid = "paid"
)

// YandexAPIError is a non-2xx response from the cargo API
type YandexAPIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *YandexAPIError) Error() string {
	return fmt.Sprintf("yandex delivery: status %d: %s %s", e.StatusCode, e.Code, e.Message)
}

// GeoPoint is a WGS84 coordinate
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// coordinates renders the point in the API's [lon, lat] order
func (p GeoPoint) coordinates() []float64 {
	return []float64{p.Lon, p.Lat}
}

// Quote is a delivery price estimate
type Quote struct {
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	DistanceMeters float64         `json:"distance_meters"`
	EtaMinutes     float64         `json:"eta_minutes"`
}

// Claim is a delivery request in the cargo API lifecycle
type Claim struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Version int             `json:"version"`
	Price   decimal.Decimal `json:"price"`
}

// ClaimContact is a person at a route point
type ClaimContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ClaimRequest holds what is needed to create a claim for an order
type ClaimRequest struct {
	OrderPublicID string
	Comment       string
	Items         []models.OrderItem
	Source        GeoPoint
	SourceAddress string
	SourceContact ClaimContact
	Dest          GeoPoint
	DestAddress   string
	DestContact   ClaimContact
}

// YandexDeliveryClient talks to the Yandex Delivery B2B cargo API with a bearer token.
// Calls are synchronous and never retried.
type YandexDeliveryClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewYandexDeliveryClient creates a client for baseURL authenticated with token
func NewYandexDeliveryClient(baseURL, token string) *YandexDeliveryClient {
	return &YandexDeliveryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CheckPrice estimates the price of a trip between two points
func (c *YandexDeliveryClient) CheckPrice(ctx context.Context, from, to GeoPoint) (*Quote, error) {
	body := map[string]interface{}{
		"route_points": []map[string]interface{}{
			{"coordinates": from.coordinates()},
			{"coordinates": to.coordinates()},
		},
		"requirements": map[string]interface{}{"taxi_class": "express"},
	}

	var resp struct {
		Price         string `json:"price"`
		CurrencyRules struct {
			Code string `json:"code"`
		} `json:"currency_rules"`
		DistanceMeters float64 `json:"distance_meters"`
		Eta            float64 `json:"eta"`
	}
	if err := c.do(ctx, "/check-price", nil, body, &resp); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(resp.Price)
	if err != nil {
		return nil, fmt.Errorf("yandex delivery: invalid price %q: %w", resp.Price, err)
	}
	return &Quote{
		Price:          price,
		Currency:       resp.CurrencyRules.Code,
		DistanceMeters: resp.DistanceMeters,
		EtaMinutes:     resp.Eta,
	}, nil
}

// CreateClaim creates a new claim. A fresh request_id makes the call idempotent per attempt.
func (c *YandexDeliveryClient) CreateClaim(ctx context.Context, req ClaimRequest) (*Claim, error) {
	items := make([]map[string]interface{}, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, map[string]interface{}{
			"title":         item.Name,
			"quantity":      item.Quantity,
			"cost_value":    item.Price.StringFixed(2),
			"cost_currency": "KZT",
			"pickup_point":  1,
			"droppof_point": 2,
			"extra_id":      fmt.Sprintf("%d", item.ProductID),
		})
	}

	body := map[string]interface{}{
		"items": items,
		"route_points": []map[string]interface{}{
			{
				"point_id":    1,
				"visit_order": 1,
				"type":        "source",
				"address":     map[string]interface{}{"fullname": req.SourceAddress, "coordinates": req.Source.coordinates()},
				"contact":     req.SourceContact,
			},
			{
				"point_id":          2,
				"visit_order":       2,
				"type":              "destination",
				"address":           map[string]interface{}{"fullname": req.DestAddress, "coordinates": req.Dest.coordinates()},
				"contact":           req.DestContact,
				"external_order_id": req.OrderPublicID,
			},
		},
		"comment":             req.Comment,
		"client_requirements": map[string]interface{}{"taxi_class": "express"},
	}

	query := url.Values{"request_id": {uuid.NewString()}}
	return c.claimCall(ctx, "/claims/create", query, body)
}

// GetClaim fetches the current state of a claim
func (c *YandexDeliveryClient) GetClaim(ctx context.Context, claimID string) (*Claim, error) {
	return c.claimCall(ctx, "/claims/info", url.Values{"claim_id": {claimID}}, nil)
}

// AcceptClaim confirms a priced claim at the given version
func (c *YandexDeliveryClient) AcceptClaim(ctx context.Context, claimID string, version int) (*Claim, error) {
	return c.claimCall(ctx, "/claims/accept", url.Values{"claim_id": {claimID}},
		map[string]interface{}{"version": version})
}

// CancelClaim cancels a claim at the given version
func (c *YandexDeliveryClient) CancelClaim(ctx context.Context, claimID string, version int, cancelState string) (*Claim, error) {
	if cancelState == "" {
		cancelState = CancelStateFree
	}
	return c.claimCall(ctx, "/claims/cancel", url.Values{"claim_id": {claimID}},
		map[string]interface{}{"version": version, "cancel_state": cancelState})
}

func (c *YandexDeliveryClient) claimCall(ctx context.Context, path string, query url.Values, body interface{}) (*Claim, error) {
	var resp struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Version int    `json:"version"`
		Pricing struct {
			Offer struct {
				Price string `json:"price"`
			} `json:"offer"`
		} `json:"pricing"`
	}
	if err := c.do(ctx, path, query, body, &resp); err != nil {
		return nil, err
	}

	claim := &Claim{ID: resp.ID, Status: resp.Status, Version: resp.Version}
	if resp.Pricing.Offer.Price != "" {
		if price, err := decimal.NewFromString(resp.Pricing.Offer.Price); err == nil {
			claim.Price = price
		}
	}
	return claim, nil
}

func (c *YandexDeliveryClient) do(ctx context.Context, path string, query url.Values, body, out interface{}) error {
	if c.token == "" {
		return fmt.Errorf("yandex delivery: token is not configured")
	}

	endpoint := c.baseURL + yandexCargoPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("yandex delivery: failed to encode request: %w", err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return fmt.Errorf("yandex delivery: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "ru")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("yandex delivery: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("yandex delivery: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &YandexAPIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("yandex delivery: failed to decode response: %w", err)
	}
	return nil
}
