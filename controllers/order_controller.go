package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
)

// OrderResponse adds display fields to an order
type OrderResponse struct {
	models.Order
	Reference        string `json:"reference"`
	StatusLabel      string `json:"status_label"`
	PaymentLabel     string `json:"payment_status_label"`
	FulfillmentLabel string `json:"fulfillment_status_label"`
	ItemCount        int    `json:"item_count"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// OrderListResponse is a page of orders. ServerTime is the value to send back as
// ?since= on the next poll.
type OrderListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	Pagination Pagination      `json:"pagination"`
	ServerTime time.Time       `json:"server_time"`
}

// UpdateOrderStatusRequest is the body of PATCH /orders/:id/status
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest is the body of PATCH /orders/:id/payment-status
type UpdatePaymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required"`
}

// UpdateFulfillmentStatusRequest is the body of PATCH /orders/:id/fulfillment-status
type UpdateFulfillmentStatusRequest struct {
	FulfillmentStatus models.FulfillmentStatus `json:"fulfillment_status" binding:"required"`
}

func orderResponse(o models.Order) OrderResponse {
	return OrderResponse{
		Order:            o,
		Reference:        services.OrderReference(&o),
		StatusLabel:      o.Status.Label(),
		PaymentLabel:     o.PaymentStatus.Label(),
		FulfillmentLabel: o.FulfillmentStatus.Label(),
		ItemCount:        o.ItemCount(),
	}
}

// listOrders parses the shared listing query and writes a page of orders
func listOrders(c *gin.Context, storeID *uint) {
	since, ok := sinceQuery(c)
	if !ok {
		return
	}
	page, limit, ok := paginationQuery(c)
	if !ok {
		return
	}

	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondError(c, http.StatusBadRequest, "INVALID_PARAMETER", "Unknown order status")
		return
	}

	serverTime := time.Now().UTC()
	orders, total, err := services.ListOrders(c.Request.Context(), config.GetDB(), services.OrderFilter{
		StoreID: storeID,
		Status:  status,
		Since:   since,
		Limit:   limit,
		Offset:  (page - 1) * limit,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve orders")
		return
	}

	resp := OrderListResponse{
		Orders: make([]OrderResponse, 0, len(orders)),
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
		},
		ServerTime: serverTime,
	}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, orderResponse(o))
	}
	respondData(c, http.StatusOK, resp)
}

// ListStoreOrders handles GET /api/my-store/orders
func ListStoreOrders(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}
	storeID := store.ID
	listOrders(c, &storeID)
}

// GetStoreOrder handles GET /api/my-store/orders/:id
func GetStoreOrder(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := services.FindStoreOrder(c.Request.Context(), config.GetDB(), store.ID, orderID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve order")
		return
	}
	respondData(c, http.StatusOK, orderResponse(*order))
}

// UpdateStoreOrderStatus handles PATCH /api/my-store/orders/:id/status
func UpdateStoreOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	updateOrder(c, &req, func(storeID, orderID uint) (*models.Order, error) {
		return services.UpdateOrderStatus(c.Request.Context(), config.GetDB(), storeID, orderID, req.Status)
	})
}

// UpdateStorePaymentStatus handles PATCH /api/my-store/orders/:id/payment-status
func UpdateStorePaymentStatus(c *gin.Context) {
	var req UpdatePaymentStatusRequest
	updateOrder(c, &req, func(storeID, orderID uint) (*models.Order, error) {
		return services.UpdatePaymentStatus(c.Request.Context(), config.GetDB(), storeID, orderID, req.PaymentStatus)
	})
}

// UpdateStoreFulfillmentStatus handles PATCH /api/my-store/orders/:id/fulfillment-status
func UpdateStoreFulfillmentStatus(c *gin.Context) {
	var req UpdateFulfillmentStatusRequest
	updateOrder(c, &req, func(storeID, orderID uint) (*models.Order, error) {
		return services.UpdateFulfillmentStatus(c.Request.Context(), config.GetDB(), storeID, orderID, req.FulfillmentStatus)
	})
}

func updateOrder(c *gin.Context, req interface{}, update func(storeID, orderID uint) (*models.Order, error)) {
	store, ok := currentStore(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := c.ShouldBindJSON(req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := update(store.ID, orderID)
	if err != nil {
		respondServiceError(c, err, "Failed to update order")
		return
	}
	respondData(c, http.StatusOK, orderResponse(*order))
}
