package models

import (
	"time"

	"gorm.io/datatypes"
)

// Platform event types recorded for the superadmin feed
const (
	EventStoreCreated   = "store_created"
	EventStoreDeleted   = "store_deleted"
	EventOrderCreated   = "order_created"
	EventUserRegistered = "user_registered"
	EventBroadcastSent  = "broadcast_sent"
)

// Event is an entry of the platform activity feed
type Event struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	StoreID   *uint          `gorm:"index" json:"store_id"`
	UserID    *uint          `gorm:"index" json:"user_id"`
	Type      string         `gorm:"not null;index" json:"type"`
	Message   string         `json:"message"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Event model
func (Event) TableName() string {
	return "events"
}

// Pixel providers
const (
	PixelProviderFacebook = "facebook"
	PixelProviderTikTok   = "tiktok"
)

// TrackingPixel is a platform-wide analytics snippet injected into every storefront
type TrackingPixel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Provider  string    `gorm:"not null" json:"provider"`
	PixelID   string    `gorm:"not null" json:"pixel_id"`
	Name      string    `json:"name"`
	Enabled   bool      `gorm:"not null" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the TrackingPixel model
func (TrackingPixel) TableName() string {
	return "tracking_pixels"
}

// Broadcast statuses
const (
	BroadcastStatusSent    = "sent"
	BroadcastStatusPartial = "partial"
	BroadcastStatusFailed  = "failed"
)

// Broadcast is an email sent by a superadmin to store owners
type Broadcast struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Subject    string    `gorm:"not null" json:"subject"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	Plan       string    `json:"plan"` // empty targets every active owner
	SentByID   uint      `gorm:"not null" json:"sent_by_id"`
	Recipients int       `gorm:"not null;default:0" json:"recipients"`
	Sent       int       `gorm:"not null;default:0" json:"sent"`
	Failed     int       `gorm:"not null;default:0" json:"failed"`
	Status     string    `gorm:"not null" json:"status"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Broadcast model
func (Broadcast) TableName() string {
	return "broadcasts"
}

// AllModels lists every model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Store{},
		&Theme{},
		&StoreSettings{},
		&DeliverySettings{},
		&Category{},
		&Product{},
		&Customer{},
		&Discount{},
		&Order{},
		&Event{},
		&TrackingPixel{},
		&Broadcast{},
	}
}
