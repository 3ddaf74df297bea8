package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name  string
		model interface{ TableName() string }
		want  string
	}{
		{"user", User{}, "users"},
		{"store", Store{}, "stores"},
		{"theme", Theme{}, "themes"},
		{"settings", StoreSettings{}, "store_settings"},
		{"delivery", DeliverySettings{}, "delivery_settings"},
		{"category", Category{}, "categories"},
		{"product", Product{}, "products"},
		{"order", Order{}, "orders"},
		{"customer", Customer{}, "customers"},
		{"discount", Discount{}, "discounts"},
		{"event", Event{}, "events"},
		{"pixel", TrackingPixel{}, "tracking_pixels"},
		{"broadcast", Broadcast{}, "broadcasts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.model.TableName())
		})
	}
}

func TestUserIsSuperadmin(t *testing.T) {
	assert.True(t, User{Role: RoleSuperadmin}.IsSuperadmin())
	assert.False(t, User{Role: RoleOwner}.IsSuperadmin())
	assert.False(t, User{}.IsSuperadmin(), "Role should be empty string by default in Go struct")
}

func TestPlanLimits(t *testing.T) {
	assert.True(t, PlanFree.Valid())
	assert.True(t, PlanBusiness.Valid())
	assert.False(t, Plan("enterprise").Valid())

	business := PlanBusiness.Limits()
	assert.Equal(t, Unlimited, business.Products)
	assert.Equal(t, Unlimited, business.MonthlyOrders)
	assert.Equal(t, Unlimited, business.TotalImages)

	assert.Equal(t, PlanFree.Limits(), Plan("unknown").Limits(), "unknown plans fall back to free quotas")
	assert.Greater(t, PlanStart.Limits().Products, PlanFree.Limits().Products)
}
