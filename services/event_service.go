package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kendall-kelly/storefront-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordEvent appends an entry to the platform activity feed
func RecordEvent(db *gorm.DB, eventType string, storeID, userID *uint, message string, payload map[string]interface{}) error {
	event := models.Event{
		StoreID: storeID,
		UserID:  userID,
		Type:    eventType,
		Message: message,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode event payload: %w", err)
		}
		event.Payload = datatypes.JSON(raw)
	}
	if err := db.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}
	return nil
}

// EventFilter narrows the activity feed
type EventFilter struct {
	Type    string
	StoreID *uint
	Since   *time.Time
	Limit   int
}

// ListEvents returns feed entries newest first
func ListEvents(ctx context.Context, db *gorm.DB, f EventFilter) ([]models.Event, error) {
	q := db.WithContext(ctx).Model(&models.Event{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.StoreID != nil {
		q = q.Where("store_id = ?", *f.StoreID)
	}
	if f.Since != nil {
		q = q.Where("created_at > ?", *f.Since)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var events []models.Event
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
