package models

import "time"

// Store is a tenant: a business owning a catalog, its settings and its orders.
// Deleting a store removes every row that references it.
type Store struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OwnerID       uint      `gorm:"not null;index" json:"owner_id"`
	Owner         *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Name          string    `gorm:"not null" json:"name"`
	Slug          string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description   string    `json:"description"`
	WhatsAppPhone string    `gorm:"column:whatsapp_phone" json:"whatsapp_phone"` // digits only, calling code first
	Plan          Plan      `gorm:"not null;default:'free'" json:"plan"`
	Active        bool      `gorm:"not null" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Theme      *Theme            `gorm:"constraint:OnDelete:CASCADE" json:"theme,omitempty"`
	Settings   *StoreSettings    `gorm:"constraint:OnDelete:CASCADE" json:"settings,omitempty"`
	Delivery   *DeliverySettings `gorm:"constraint:OnDelete:CASCADE" json:"delivery,omitempty"`
	Categories []Category        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Products   []Product         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Orders     []Order           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Customers  []Customer        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Discounts  []Discount        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for the Store model
func (Store) TableName() string {
	return "stores"
}

// Theme holds the storefront branding of a store
type Theme struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	StoreID         uint      `gorm:"uniqueIndex;not null" json:"store_id"`
	PrimaryColor    string    `gorm:"not null;default:'#111827'" json:"primary_color"`
	AccentColor     string    `gorm:"not null;default:'#22c55e'" json:"accent_color"`
	BackgroundColor string    `gorm:"not null;default:'#ffffff'" json:"background_color"`
	FontFamily      string    `gorm:"not null;default:'Inter'" json:"font_family"`
	Layout          string    `gorm:"not null;default:'grid'" json:"layout"` // grid or list
	LogoURL         string    `json:"logo_url"`
	BannerURL       string    `json:"banner_url"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Theme model
func (Theme) TableName() string {
	return "themes"
}

// WhatsAppSettings configures order hand-off through a WhatsApp deep link
type WhatsAppSettings struct {
	Enabled  bool   `gorm:"not null" json:"enabled"`
	Template string `gorm:"type:text" json:"template"` // empty means the default template
}

// KaspiSettings configures the manual Kaspi Pay instructions shown on invoices
type KaspiSettings struct {
	Enabled      bool   `gorm:"not null;default:false" json:"enabled"`
	Phone        string `json:"phone"`
	PayLink      string `json:"pay_link"`
	Recipient    string `json:"recipient"`
	Instructions string `gorm:"type:text" json:"instructions"`
}

// StoreSettings holds the general store configuration. Every PUT replaces the whole row.
type StoreSettings struct {
	ID                  uint             `gorm:"primaryKey" json:"id"`
	StoreID             uint             `gorm:"uniqueIndex;not null" json:"store_id"`
	ContactEmail        string           `json:"contact_email"`
	Instagram           string           `json:"instagram"`
	Language            string           `gorm:"not null;default:'ru'" json:"language"`
	WhatsApp            WhatsAppSettings `gorm:"embedded;embeddedPrefix:whatsapp_" json:"whatsapp"`
	Kaspi               KaspiSettings    `gorm:"embedded;embeddedPrefix:kaspi_" json:"kaspi"`
	FacebookPixelID     string           `json:"facebook_pixel_id"`
	TikTokPixelID       string           `gorm:"column:tiktok_pixel_id" json:"tiktok_pixel_id"`
	YandexDeliveryToken string           `json:"-"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the StoreSettings model
func (StoreSettings) TableName() string {
	return "store_settings"
}
