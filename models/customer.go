package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer aggregates a store's orders per phone number. It is updated incrementally
// when an order is created and never recomputed from scratch.
type Customer struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	StoreID      uint            `gorm:"not null;uniqueIndex:idx_customer_store_phone" json:"store_id"`
	Phone        string          `gorm:"not null;uniqueIndex:idx_customer_store_phone" json:"phone"`
	Name         string          `json:"name"`
	TotalOrders  int             `gorm:"not null;default:0" json:"total_orders"`
	TotalSpent   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_spent"`
	FirstOrderAt time.Time       `json:"first_order_at"`
	LastOrderAt  time.Time       `json:"last_order_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// RecordOrder folds a new order into the aggregate
func (c *Customer) RecordOrder(name string, total decimal.Decimal, at time.Time) {
	if c.TotalOrders == 0 || c.FirstOrderAt.IsZero() {
		c.FirstOrderAt = at
	}
	if name != "" {
		c.Name = name
	}
	c.TotalOrders++
	c.TotalSpent = c.TotalSpent.Add(total)
	c.LastOrderAt = at
}
