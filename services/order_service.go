package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxCartLines bounds the number of distinct products in one checkout
const MaxCartLines = 100

// CartLine is one product of a checkout request
type CartLine struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0,lte=999"`
}

// CheckoutInput is a storefront checkout. Prices come from the catalog, never from
// the client.
type CheckoutInput struct {
	CustomerName   string     `json:"customer_name" binding:"required,max=120"`
	CustomerPhone  string     `json:"customer_phone" binding:"required"`
	DeliveryMethod string     `json:"delivery_method" binding:"required,oneof=pickup delivery"`
	Address        string     `json:"address" binding:"max=500"`
	AddressLat     *float64   `json:"address_lat"`
	AddressLon     *float64   `json:"address_lon"`
	Comment        string     `json:"comment" binding:"max=1000"`
	PaymentMethod  string     `json:"payment_method" binding:"omitempty,oneof=whatsapp kaspi"`
	DiscountCode   string     `json:"discount_code" binding:"max=64"`
	Items          []CartLine `json:"items" binding:"required,min=1,dive"`
}

// CheckoutQuote prices a cart without creating an order
func CheckoutQuote(ctx context.Context, db *gorm.DB, store *models.Store, in CheckoutInput, now time.Time) (*PricingResult, []models.OrderItem, error) {
	db = db.WithContext(ctx)

	delivery, err := loadDelivery(db, store.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := checkDeliveryMethod(delivery, in.DeliveryMethod, in.Address); err != nil {
		return nil, nil, err
	}

	items, err := snapshotItems(db, store.ID, in.Items)
	if err != nil {
		return nil, nil, err
	}

	var discounts []models.Discount
	if err := db.Where("store_id = ? AND active = ?", store.ID, true).Order("id").Find(&discounts).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load discounts: %w", err)
	}

	pricing, err := PriceOrder(PricingInput{
		Items:          items,
		DeliveryMethod: in.DeliveryMethod,
		Delivery:       *delivery,
		Discounts:      discounts,
		Code:           in.DiscountCode,
		Now:            now,
	})
	if err != nil {
		return nil, nil, &ServiceError{Code: CodeDiscountRejected, Message: discountMessage(err), Err: err}
	}
	return pricing, items, nil
}

// CreateOrder prices the cart and, in one transaction, stores the order, consumes the
// discount, folds the order into the customer aggregate and records a platform event
func CreateOrder(ctx context.Context, db *gorm.DB, store *models.Store, in CheckoutInput, now time.Time) (*models.Order, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, newServiceError(CodeValidation, "Customer name is required")
	}
	phone := utils.NormalizeCustomerPhone(in.CustomerPhone)
	if phone == "" {
		return nil, newServiceError(CodeValidation, "Customer phone number is incomplete")
	}
	if len(in.Items) == 0 || len(in.Items) > MaxCartLines {
		return nil, newServiceError(CodeValidation, "Cart must contain between 1 and 100 products")
	}

	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodWhatsApp
	}
	if paymentMethod == models.PaymentMethodKaspi {
		var settings models.StoreSettings
		err := db.WithContext(ctx).Where("store_id = ?", store.ID).First(&settings).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load store settings: %w", err)
		}
		if err != nil || !settings.Kaspi.Enabled {
			return nil, newServiceError(CodePaymentDisabled, "Kaspi payment is not available for this store")
		}
	}

	pricing, items, err := CheckoutQuote(ctx, db, store, in, now)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		PublicID:          uuid.NewString(),
		StoreID:           store.ID,
		CustomerName:      name,
		CustomerPhone:     phone,
		DeliveryMethod:    in.DeliveryMethod,
		Comment:           strings.TrimSpace(in.Comment),
		PaymentMethod:     paymentMethod,
		Items:             items,
		Subtotal:          pricing.Subtotal,
		DiscountAmount:    pricing.DiscountAmount,
		DeliveryFee:       pricing.DeliveryFee,
		Total:             pricing.Total,
		Status:            models.OrderStatusPending,
		PaymentStatus:     models.PaymentStatusUnpaid,
		FulfillmentStatus: models.FulfillmentStatusUnfulfilled,
		CreatedAt:         now,
	}
	if in.DeliveryMethod == models.DeliveryMethodDelivery {
		order.Address = strings.TrimSpace(in.Address)
		order.AddressLat, order.AddressLon = in.AddressLat, in.AddressLon
	}
	if pricing.Discount != nil {
		order.DiscountID = &pricing.Discount.ID
		order.DiscountCode = pricing.Discount.Code
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if pricing.Discount != nil {
			res := tx.Model(&models.Discount{}).
				Where("id = ? AND (usage_limit <= 0 OR usage_count < usage_limit)", pricing.Discount.ID).
				UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
			if res.Error != nil {
				return fmt.Errorf("failed to consume discount: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return &ServiceError{Code: CodeDiscountRejected, Message: discountMessage(ErrDiscountUnavailable), Err: ErrDiscountUnavailable}
			}
		}

		customer, err := upsertCustomer(tx, store.ID, phone, name, order, now)
		if err != nil {
			return err
		}
		order.CustomerID = &customer.ID

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		storeID := store.ID
		return RecordEvent(tx, models.EventOrderCreated, &storeID, nil,
			fmt.Sprintf("Заказ %s в магазине %s на %s", OrderReference(order), store.Name, utils.FormatMoney(order.Total)),
			map[string]interface{}{"order_id": order.ID, "public_id": order.PublicID, "total": order.Total})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// upsertCustomer folds the order into the store's customer row in one statement so
// concurrent checkouts from the same phone cannot lose an increment.
func upsertCustomer(tx *gorm.DB, storeID uint, phone, name string, order *models.Order, now time.Time) (*models.Customer, error) {
	fresh := models.Customer{StoreID: storeID, Phone: phone}
	fresh.RecordOrder(name, order.Total, now)

	updates := clause.Assignments(map[string]interface{}{
		"total_orders":  gorm.Expr("customers.total_orders + 1"),
		"total_spent":   gorm.Expr("customers.total_spent + ?", order.Total),
		"last_order_at": now,
		"updated_at":    now,
	})
	if name != "" {
		updates = append(updates, clause.AssignmentColumns([]string{"name"})...)
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}, {Name: "phone"}},
		DoUpdates: updates,
	}).Create(&fresh).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}

	var customer models.Customer
	if err := tx.Where("store_id = ? AND phone = ?", storeID, phone).First(&customer).Error; err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	return &customer, nil
}

func loadDelivery(db *gorm.DB, storeID uint) (*models.DeliverySettings, error) {
	var delivery models.DeliverySettings
	err := db.Where("store_id = ?", storeID).First(&delivery).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.DeliverySettings{StoreID: storeID, PickupEnabled: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery settings: %w", err)
	}
	return &delivery, nil
}

func checkDeliveryMethod(delivery *models.DeliverySettings, method, address string) error {
	switch method {
	case models.DeliveryMethodPickup:
		if !delivery.PickupEnabled {
			return newServiceError(CodeDeliveryDisabled, "Pickup is not available for this store")
		}
	case models.DeliveryMethodDelivery:
		if !delivery.DeliveryEnabled {
			return newServiceError(CodeDeliveryDisabled, "Delivery is not available for this store")
		}
		if strings.TrimSpace(address) == "" {
			return newServiceError(CodeValidation, "Delivery address is required")
		}
	default:
		return newServiceError(CodeValidation, "Unknown delivery method")
	}
	return nil
}

// snapshotItems copies the current catalog name, price and image of every cart line
func snapshotItems(db *gorm.DB, storeID uint, lines []CartLine) ([]models.OrderItem, error) {
	quantities := make(map[uint]int, len(lines))
	var ids []uint
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, newServiceError(CodeValidation, "Quantity must be positive")
		}
		if _, ok := quantities[line.ProductID]; !ok {
			ids = append(ids, line.ProductID)
		}
		quantities[line.ProductID] += line.Quantity
	}

	var products []models.Product
	if err := db.Where("store_id = ? AND id IN ?", storeID, ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]models.OrderItem, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.Active || !p.InStock {
			return nil, &ServiceError{
				Code:    CodeProductUnavailable,
				Message: fmt.Sprintf("Product %d is not available", id),
			}
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  quantities[id],
			Price:     p.Price,
			ImageURL:  p.PrimaryImage(),
		})
	}
	return items, nil
}

func discountMessage(err error) string {
	switch {
	case errors.Is(err, ErrDiscountCodeNotFound):
		return "Промокод не найден"
	case errors.Is(err, ErrDiscountUnavailable):
		return "Промокод недействителен или исчерпан"
	case errors.Is(err, ErrDiscountMinimumNotMet):
		return "Сумма заказа меньше минимальной для промокода"
	default:
		return "Промокод не применим к корзине"
	}
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	StoreID *uint
	Status  models.OrderStatus
	Since   *time.Time
	Phone   string
	Limit   int
	Offset  int
}

// ListOrders returns orders newest first and the total matching count
func ListOrders(ctx context.Context, db *gorm.DB, f OrderFilter) ([]models.Order, int64, error) {
	q := db.WithContext(ctx).Model(&models.Order{})
	if f.StoreID != nil {
		q = q.Where("store_id = ?", *f.StoreID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Since != nil {
		q = q.Where("created_at > ?", *f.Since)
	}
	if f.Phone != "" {
		q = q.Where("customer_phone = ?", f.Phone)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(f.Offset).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// FindStoreOrder loads an order that belongs to storeID
func FindStoreOrder(ctx context.Context, db *gorm.DB, storeID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.WithContext(ctx).Where("id = ? AND store_id = ?", orderID, storeID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newServiceError(CodeNotFound, "Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// UpdateOrderStatus moves an order along pending → confirmed → completed or cancels it.
// Only the status column is written.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, storeID, orderID uint, next models.OrderStatus) (*models.Order, error) {
	order, err := FindStoreOrder(ctx, db, storeID, orderID)
	if err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, newServiceError(CodeValidation, "Unknown order status")
	}
	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, newServiceError(CodeInvalidTransition,
			fmt.Sprintf("Cannot change status from %s to %s", order.Status, next))
	}
	return updateOrderColumn(ctx, db, order, "status", next)
}

// UpdatePaymentStatus writes only the payment_status column
func UpdatePaymentStatus(ctx context.Context, db *gorm.DB, storeID, orderID uint, next models.PaymentStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, newServiceError(CodeValidation, "Unknown payment status")
	}
	order, err := FindStoreOrder(ctx, db, storeID, orderID)
	if err != nil {
		return nil, err
	}
	return updateOrderColumn(ctx, db, order, "payment_status", next)
}

// UpdateFulfillmentStatus writes only the fulfillment_status column
func UpdateFulfillmentStatus(ctx context.Context, db *gorm.DB, storeID, orderID uint, next models.FulfillmentStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, newServiceError(CodeValidation, "Unknown fulfillment status")
	}
	order, err := FindStoreOrder(ctx, db, storeID, orderID)
	if err != nil {
		return nil, err
	}
	return updateOrderColumn(ctx, db, order, "fulfillment_status", next)
}

// UpdateDeliveryClaim records the claim id and status returned by the delivery provider
func UpdateDeliveryClaim(ctx context.Context, db *gorm.DB, order *models.Order, claimID, claimStatus string) error {
	err := db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).
		UpdateColumns(map[string]interface{}{
			"delivery_claim_id":     claimID,
			"delivery_claim_status": claimStatus,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update delivery claim: %w", err)
	}
	order.DeliveryClaimID = claimID
	order.DeliveryClaimStatus = claimStatus
	return nil
}

func updateOrderColumn(ctx context.Context, db *gorm.DB, order *models.Order, column string, value interface{}) (*models.Order, error) {
	err := db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).Update(column, value).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", column, err)
	}

	var updated models.Order
	if err := db.WithContext(ctx).First(&updated, order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &updated, nil
}
