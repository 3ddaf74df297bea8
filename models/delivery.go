package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliverySettings holds pickup and courier delivery options of a store.
// PickupAddress is stored composed; the API exposes its decomposed parts too.
type DeliverySettings struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	StoreID               uint            `gorm:"uniqueIndex;not null" json:"store_id"`
	PickupEnabled         bool            `gorm:"not null" json:"pickup_enabled"`
	DeliveryEnabled       bool            `gorm:"not null;default:false" json:"delivery_enabled"`
	DeliveryFee           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"delivery_fee"`
	FreeDeliveryThreshold decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"free_delivery_threshold"` // 0 disables
	PickupAddress         string          `json:"pickup_address"`
	PickupLat             float64         `json:"pickup_lat"`
	PickupLon             float64         `json:"pickup_lon"`
	YandexDeliveryEnabled bool            `gorm:"not null;default:false" json:"yandex_delivery_enabled"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the DeliverySettings model
func (DeliverySettings) TableName() string {
	return "delivery_settings"
}

// Delivery methods chosen at checkout
const (
	DeliveryMethodPickup   = "pickup"
	DeliveryMethodDelivery = "delivery"
)

// FeeFor returns the delivery fee for an order subtotal
func (d DeliverySettings) FeeFor(method string, subtotal decimal.Decimal) decimal.Decimal {
	if method != DeliveryMethodDelivery {
		return decimal.Zero
	}
	if d.FreeDeliveryThreshold.IsPositive() && subtotal.GreaterThanOrEqual(d.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return d.DeliveryFee
}
