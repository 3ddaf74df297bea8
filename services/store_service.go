package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/utils"
	"gorm.io/gorm"
)

// CreateStoreInput is the onboarding form of a new store
type CreateStoreInput struct {
	Name          string `json:"name" binding:"required,max=120"`
	Slug          string `json:"slug" binding:"required,slug"`
	Description   string `json:"description" binding:"max=2000"`
	WhatsAppPhone string `json:"whatsapp_phone" binding:"omitempty,intlphone"`
}

// FindOwnerStore loads the store owned by ownerID
func FindOwnerStore(ctx context.Context, db *gorm.DB, ownerID uint) (*models.Store, error) {
	var store models.Store
	err := db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newServiceError(CodeNotFound, "Store not found. Create a store first.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	return &store, nil
}

// FindStoreBySlug loads an active store by its public slug
func FindStoreBySlug(ctx context.Context, db *gorm.DB, slug string) (*models.Store, error) {
	var store models.Store
	err := db.WithContext(ctx).Where("slug = ? AND active = ?", strings.ToLower(slug), true).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newServiceError(CodeNotFound, "Store not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	return &store, nil
}

// CreateStore creates a free-plan store for owner together with its default theme,
// settings and delivery rows. An owner has at most one store.
func CreateStore(ctx context.Context, db *gorm.DB, owner *models.User, in CreateStoreInput) (*models.Store, error) {
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if !utils.IsValidSlug(slug) {
		return nil, newServiceError(CodeValidation, "Slug may contain lowercase letters, digits and hyphens")
	}

	store := &models.Store{
		OwnerID:       owner.ID,
		Name:          strings.TrimSpace(in.Name),
		Slug:          slug,
		Description:   in.Description,
		WhatsAppPhone: utils.DigitsOnly(in.WhatsAppPhone),
		Plan:          models.PlanFree,
		Active:        true,
		Theme:         &models.Theme{},
		Settings: &models.StoreSettings{
			Language: "ru",
			WhatsApp: models.WhatsAppSettings{Enabled: true},
		},
		Delivery: &models.DeliverySettings{PickupEnabled: true},
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Store{}).Where("owner_id = ?", owner.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing store: %w", err)
		}
		if count > 0 {
			return newServiceError(CodeConflict, "You already have a store")
		}

		if err := tx.Model(&models.Store{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check slug: %w", err)
		}
		if count > 0 {
			return newServiceError(CodeConflict, "This address is already taken")
		}

		if err := tx.Create(store).Error; err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}

		storeID, userID := store.ID, owner.ID
		return RecordEvent(tx, models.EventStoreCreated, &storeID, &userID,
			fmt.Sprintf("Создан магазин %s (%s)", store.Name, store.Slug), nil)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// DeleteStore removes a store and every row that references it, orders included
func DeleteStore(ctx context.Context, db *gorm.DB, storeID uint, actorID *uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var store models.Store
		if err := tx.First(&store, storeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newServiceError(CodeNotFound, "Store not found")
			}
			return fmt.Errorf("failed to load store: %w", err)
		}

		children := []interface{}{
			&models.Order{},
			&models.Customer{},
			&models.Discount{},
			&models.Product{},
			&models.Category{},
			&models.DeliverySettings{},
			&models.StoreSettings{},
			&models.Theme{},
		}
		for _, model := range children {
			if err := tx.Where("store_id = ?", storeID).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete store data: %w", err)
			}
		}
		if err := tx.Delete(&store).Error; err != nil {
			return fmt.Errorf("failed to delete store: %w", err)
		}

		return RecordEvent(tx, models.EventStoreDeleted, nil, actorID,
			fmt.Sprintf("Удалён магазин %s (%s)", store.Name, store.Slug),
			map[string]interface{}{"store_id": store.ID, "slug": store.Slug})
	})
}
