package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Category groups products on the storefront
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StoreID   uint      `gorm:"not null;index" json:"store_id"`
	Name      string    `gorm:"not null" json:"name"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// Product is a catalog item. Images holds public image URLs in display order.
type Product struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	StoreID     uint                        `gorm:"not null;index" json:"store_id"`
	CategoryID  *uint                       `gorm:"index" json:"category_id"`
	Category    *Category                   `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
	Name        string                      `gorm:"not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description"`
	Price       decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`
	OldPrice    decimal.NullDecimal         `gorm:"type:decimal(12,2)" json:"old_price"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	InStock     bool                        `gorm:"not null" json:"in_stock"`
	Active      bool                        `gorm:"not null" json:"active"`
	Position    int                         `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// PrimaryImage returns the first image URL or an empty string
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
