package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus is the primary lifecycle axis of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo reports whether pending → confirmed → completed allows moving to next.
// Cancelling is allowed from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	switch next {
	case OrderStatusCancelled:
		return true
	case OrderStatusConfirmed:
		return s == OrderStatusPending
	case OrderStatusCompleted:
		return s == OrderStatusConfirmed
	}
	return false
}

// Label returns the admin UI label
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Новый"
	case OrderStatusConfirmed:
		return "Подтверждён"
	case OrderStatusCompleted:
		return "Выполнен"
	case OrderStatusCancelled:
		return "Отменён"
	}
	return string(s)
}

// PaymentStatus is the payment axis of an order, independent of OrderStatus
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusConfirming    PaymentStatus = "confirming"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusRefunded      PaymentStatus = "refunded"
	PaymentStatusVoided        PaymentStatus = "voided"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusConfirming, PaymentStatusPartiallyPaid,
		PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusVoided:
		return true
	}
	return false
}

// Label returns the admin UI label
func (s PaymentStatus) Label() string {
	switch s {
	case PaymentStatusUnpaid:
		return "Не оплачен"
	case PaymentStatusConfirming:
		return "Подтверждение оплаты"
	case PaymentStatusPartiallyPaid:
		return "Частично оплачен"
	case PaymentStatusPaid:
		return "Оплачен"
	case PaymentStatusRefunded:
		return "Возврат"
	case PaymentStatusVoided:
		return "Аннулирован"
	}
	return string(s)
}

// FulfillmentStatus is the fulfillment axis of an order, independent of OrderStatus
type FulfillmentStatus string

const (
	FulfillmentStatusUnfulfilled        FulfillmentStatus = "unfulfilled"
	FulfillmentStatusFulfilled          FulfillmentStatus = "fulfilled"
	FulfillmentStatusPartiallyFulfilled FulfillmentStatus = "partially_fulfilled"
)

// Valid reports whether s is a known fulfillment status
func (s FulfillmentStatus) Valid() bool {
	switch s {
	case FulfillmentStatusUnfulfilled, FulfillmentStatusFulfilled, FulfillmentStatusPartiallyFulfilled:
		return true
	}
	return false
}

// Label returns the admin UI label
func (s FulfillmentStatus) Label() string {
	switch s {
	case FulfillmentStatusUnfulfilled:
		return "Не собран"
	case FulfillmentStatusFulfilled:
		return "Собран"
	case FulfillmentStatusPartiallyFulfilled:
		return "Частично собран"
	}
	return string(s)
}

// Payment methods offered at checkout
const (
	PaymentMethodWhatsApp = "whatsapp"
	PaymentMethodKaspi    = "kaspi"
)

// OrderItem is a snapshot of a cart line taken at checkout
type OrderItem struct {
	ProductID uint            `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
}

// LineTotal returns price × quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the financial record of a checkout. Items and totals never change after
// creation; only the three status axes and the delivery claim fields are updated.
type Order struct {
	ID                  uint                           `gorm:"primaryKey" json:"id"`
	PublicID            string                         `gorm:"uniqueIndex;not null" json:"public_id"`
	StoreID             uint                           `gorm:"not null;index" json:"store_id"`
	Store               *Store                         `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	CustomerID          *uint                          `gorm:"index" json:"customer_id"`
	CustomerName        string                         `gorm:"not null" json:"customer_name"`
	CustomerPhone       string                         `gorm:"not null;index" json:"customer_phone"`
	DeliveryMethod      string                         `gorm:"not null;default:'pickup'" json:"delivery_method"`
	Address             string                         `json:"address"`
	AddressLat          *float64                       `json:"address_lat"`
	AddressLon          *float64                       `json:"address_lon"`
	Comment             string                         `gorm:"type:text" json:"comment"`
	PaymentMethod       string                         `gorm:"not null;default:'whatsapp'" json:"payment_method"`
	Items               datatypes.JSONSlice[OrderItem] `gorm:"not null" json:"items"`
	Subtotal            decimal.Decimal                `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DiscountAmount      decimal.Decimal                `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	DeliveryFee         decimal.Decimal                `gorm:"type:decimal(12,2);not null;default:0" json:"delivery_fee"`
	Total               decimal.Decimal                `gorm:"type:decimal(12,2);not null" json:"total"`
	DiscountID          *uint                          `json:"discount_id"`
	DiscountCode        string                         `json:"discount_code"`
	Status              OrderStatus                    `gorm:"not null;default:'pending';index" json:"status"`
	PaymentStatus       PaymentStatus                  `gorm:"not null;default:'unpaid'" json:"payment_status"`
	FulfillmentStatus   FulfillmentStatus              `gorm:"not null;default:'unfulfilled'" json:"fulfillment_status"`
	DeliveryClaimID     string                         `json:"delivery_claim_id"`
	DeliveryClaimStatus string                         `json:"delivery_claim_status"`
	CreatedAt           time.Time                      `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time                      `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// ItemCount returns the number of units across all lines
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
