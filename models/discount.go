package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DiscountType selects which discount fields are meaningful
type DiscountType string

const (
	DiscountTypeCode         DiscountType = "code"
	DiscountTypeOrderAmount  DiscountType = "order_amount"
	DiscountTypeAutomatic    DiscountType = "automatic"
	DiscountTypeBundle       DiscountType = "bundle"
	DiscountTypeBuyXGetY     DiscountType = "buy_x_get_y"
	DiscountTypeFreeDelivery DiscountType = "free_delivery"
)

// DiscountTypes lists every discount type in admin display order
var DiscountTypes = []DiscountType{
	DiscountTypeCode,
	DiscountTypeOrderAmount,
	DiscountTypeAutomatic,
	DiscountTypeBundle,
	DiscountTypeBuyXGetY,
	DiscountTypeFreeDelivery,
}

// Valid reports whether t is a known discount type
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountTypeCode, DiscountTypeOrderAmount, DiscountTypeAutomatic,
		DiscountTypeBundle, DiscountTypeBuyXGetY, DiscountTypeFreeDelivery:
		return true
	}
	return false
}

// Label returns the admin UI label
func (t DiscountType) Label() string {
	switch t {
	case DiscountTypeCode:
		return "Промокод"
	case DiscountTypeOrderAmount:
		return "Скидка от суммы заказа"
	case DiscountTypeAutomatic:
		return "Автоматическая скидка"
	case DiscountTypeBundle:
		return "Комплект"
	case DiscountTypeBuyXGetY:
		return "Купи X получи Y"
	case DiscountTypeFreeDelivery:
		return "Бесплатная доставка"
	}
	return string(t)
}

// Icon returns the admin UI icon name
func (t DiscountType) Icon() string {
	switch t {
	case DiscountTypeCode:
		return "ticket"
	case DiscountTypeOrderAmount:
		return "receipt"
	case DiscountTypeAutomatic:
		return "zap"
	case DiscountTypeBundle:
		return "package"
	case DiscountTypeBuyXGetY:
		return "gift"
	case DiscountTypeFreeDelivery:
		return "truck"
	}
	return "percent"
}

// DiscountValueType selects how Value is interpreted
type DiscountValueType string

const (
	ValueTypePercentage DiscountValueType = "percentage"
	ValueTypeFixed      DiscountValueType = "fixed"
	ValueTypeFree       DiscountValueType = "free"
)

// Valid reports whether v is a known value type
func (v DiscountValueType) Valid() bool {
	switch v {
	case ValueTypePercentage, ValueTypeFixed, ValueTypeFree:
		return true
	}
	return false
}

// Discount is a polymorphic promotion. Type-specific fields (Code, MinOrderAmount,
// BuyQuantity/GetQuantity, ProductIDs) are not validated here.
type Discount struct {
	ID             uint                      `gorm:"primaryKey" json:"id"`
	StoreID        uint                      `gorm:"not null;index" json:"store_id"`
	Name           string                    `gorm:"not null" json:"name"`
	Type           DiscountType              `gorm:"not null" json:"type"`
	Code           string                    `gorm:"index" json:"code"`
	ValueType      DiscountValueType         `gorm:"not null" json:"value_type"`
	Value          decimal.Decimal           `gorm:"type:decimal(12,2);not null;default:0" json:"value"`
	MinOrderAmount decimal.Decimal           `gorm:"type:decimal(12,2);not null;default:0" json:"min_order_amount"`
	BuyQuantity    int                       `gorm:"not null;default:0" json:"buy_quantity"`
	GetQuantity    int                       `gorm:"not null;default:0" json:"get_quantity"`
	ProductIDs     datatypes.JSONSlice[uint] `json:"product_ids"`
	UsageLimit     int                       `gorm:"not null;default:0" json:"usage_limit"` // 0 = unlimited
	UsageCount     int                       `gorm:"not null;default:0" json:"usage_count"`
	Active         bool                      `gorm:"not null" json:"active"`
	StartsAt       *time.Time                `json:"starts_at"`
	EndsAt         *time.Time                `json:"ends_at"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// TableName specifies the table name for the Discount model
func (Discount) TableName() string {
	return "discounts"
}

// AvailableAt reports whether the discount is active, inside its window and not exhausted
func (d Discount) AvailableAt(now time.Time) bool {
	if !d.Active {
		return false
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return false
	}
	return d.UsageLimit <= 0 || d.UsageCount < d.UsageLimit
}

// AppliesToProduct reports whether a product is targeted; an empty list targets all
func (d Discount) AppliesToProduct(productID uint) bool {
	if len(d.ProductIDs) == 0 {
		return true
	}
	for _, id := range d.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
