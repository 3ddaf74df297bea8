package services

import (
	"testing"
	"time"

	"github.com/kendall-kelly/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestFormatDiscountValue(t *testing.T) {
	tests := []struct {
		name     string
		discount models.Discount
		want     string
	}{
		{"percentage", models.Discount{ValueType: models.ValueTypePercentage, Value: dec(15)}, "15%"},
		{"fractional percentage", models.Discount{ValueType: models.ValueTypePercentage, Value: decimal.RequireFromString("12.5")}, "12.5%"},
		{"fixed", models.Discount{ValueType: models.ValueTypeFixed, Value: dec(5000)}, "5 000 ₸"},
		{"free", models.Discount{ValueType: models.ValueTypeFree}, "Бесплатно"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDiscountValue(tt.discount))
		})
	}
}

func pricingItems() []models.OrderItem {
	return []models.OrderItem{
		{ProductID: 1, Name: "Торт", Quantity: 1, Price: dec(8000)},
		{ProductID: 2, Name: "Эклер", Quantity: 4, Price: dec(500)},
	}
}

func deliverySettings() models.DeliverySettings {
	return models.DeliverySettings{
		PickupEnabled:         true,
		DeliveryEnabled:       true,
		DeliveryFee:           dec(1000),
		FreeDeliveryThreshold: dec(20000),
	}
}

func TestPriceOrder_NoDiscount(t *testing.T) {
	res, err := PriceOrder(PricingInput{
		Items:          pricingItems(),
		DeliveryMethod: models.DeliveryMethodDelivery,
		Delivery:       deliverySettings(),
	})
	require.NoError(t, err)
	assert.True(t, dec(10000).Equal(res.Subtotal))
	assert.True(t, dec(1000).Equal(res.DeliveryFee))
	assert.True(t, dec(11000).Equal(res.Total))
	assert.Nil(t, res.Discount)
}

func TestPriceOrder_FreeDeliveryThreshold(t *testing.T) {
	items := []models.OrderItem{{ProductID: 1, Quantity: 3, Price: dec(8000)}}
	res, err := PriceOrder(PricingInput{Items: items, DeliveryMethod: models.DeliveryMethodDelivery, Delivery: deliverySettings()})
	require.NoError(t, err)
	assert.True(t, res.DeliveryFee.IsZero())
	assert.True(t, dec(24000).Equal(res.Total))
}

func TestPriceOrder_Code(t *testing.T) {
	discounts := []models.Discount{
		{ID: 1, Type: models.DiscountTypeCode, Code: "SPRING", ValueType: models.ValueTypePercentage, Value: dec(10), Active: true},
	}

	t.Run("applied case-insensitively", func(t *testing.T) {
		res, err := PriceOrder(PricingInput{Items: pricingItems(), Discounts: discounts, Code: " spring "})
		require.NoError(t, err)
		require.NotNil(t, res.Discount)
		assert.Equal(t, uint(1), res.Discount.ID)
		assert.True(t, dec(1000).Equal(res.DiscountAmount))
		assert.True(t, dec(9000).Equal(res.Total))
	})

	t.Run("ignored without code", func(t *testing.T) {
		res, err := PriceOrder(PricingInput{Items: pricingItems(), Discounts: discounts})
		require.NoError(t, err)
		assert.Nil(t, res.Discount)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := PriceOrder(PricingInput{Items: pricingItems(), Discounts: discounts, Code: "WINTER"})
		assert.ErrorIs(t, err, ErrDiscountCodeNotFound)
	})

	t.Run("exhausted code", func(t *testing.T) {
		exhausted := []models.Discount{discounts[0]}
		exhausted[0].UsageLimit = 5
		exhausted[0].UsageCount = 5
		_, err := PriceOrder(PricingInput{Items: pricingItems(), Discounts: exhausted, Code: "SPRING"})
		assert.ErrorIs(t, err, ErrDiscountUnavailable)
	})

	t.Run("expired code", func(t *testing.T) {
		ended := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		expired := []models.Discount{discounts[0]}
		expired[0].EndsAt = &ended
		_, err := PriceOrder(PricingInput{
			Items: pricingItems(), Discounts: expired, Code: "SPRING",
			Now: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, ErrDiscountUnavailable)
	})

	t.Run("minimum not met", func(t *testing.T) {
		withMin := []models.Discount{discounts[0]}
		withMin[0].MinOrderAmount = dec(50000)
		_, err := PriceOrder(PricingInput{Items: pricingItems(), Discounts: withMin, Code: "SPRING"})
		assert.ErrorIs(t, err, ErrDiscountMinimumNotMet)
	})
}

func TestPriceOrder_PicksMostValuable(t *testing.T) {
	discounts := []models.Discount{
		{ID: 1, Type: models.DiscountTypeAutomatic, ValueType: models.ValueTypePercentage, Value: dec(5), Active: true},
		{ID: 2, Type: models.DiscountTypeOrderAmount, ValueType: models.ValueTypeFixed, Value: dec(1500), MinOrderAmount: dec(10000), Active: true},
		{ID: 3, Type: models.DiscountTypeAutomatic, ValueType: models.ValueTypePercentage, Value: dec(50), Active: false},
	}
	res, err := PriceOrder(PricingInput{Items: pricingItems(), Discounts: discounts})
	require.NoError(t, err)
	require.NotNil(t, res.Discount)
	assert.Equal(t, uint(2), res.Discount.ID)
	assert.True(t, dec(8500).Equal(res.Total))
}

func TestPriceOrder_AutomaticTargetsProducts(t *testing.T) {
	discounts := []models.Discount{
		{ID: 1, Type: models.DiscountTypeAutomatic, ValueType: models.ValueTypePercentage, Value: dec(20), ProductIDs: []uint{2}, Active: true},
	}
	res, err := PriceOrder(PricingInput{Items: pricingItems(), Discounts: discounts})
	require.NoError(t, err)
	assert.True(t, dec(400).Equal(res.DiscountAmount), "20 percent of the 2000 eclair line")
}

func TestPriceOrder_Bundle(t *testing.T) {
	bundle := models.Discount{ID: 1, Type: models.DiscountTypeBundle, ValueType: models.ValueTypeFixed, Value: dec(1000), ProductIDs: []uint{1, 2}, Active: true}

	res, err := PriceOrder(PricingInput{Items: pricingItems(), Discounts: []models.Discount{bundle}})
	require.NoError(t, err)
	assert.True(t, dec(1000).Equal(res.DiscountAmount))

	res, err = PriceOrder(PricingInput{Items: pricingItems()[:1], Discounts: []models.Discount{bundle}})
	require.NoError(t, err)
	assert.Nil(t, res.Discount)
}

func TestPriceOrder_BuyXGetY(t *testing.T) {
	discount := models.Discount{ID: 1, Type: models.DiscountTypeBuyXGetY, ValueType: models.ValueTypeFree, BuyQuantity: 2, GetQuantity: 1, Active: true}
	items := []models.OrderItem{
		{ProductID: 1, Quantity: 2, Price: dec(1000)},
		{ProductID: 2, Quantity: 4, Price: dec(300)},
	}

	res, err := PriceOrder(PricingInput{Items: items, Discounts: []models.Discount{discount}})
	require.NoError(t, err)
	// six units make two groups; the two cheapest units are free
	assert.True(t, dec(600).Equal(res.DiscountAmount))
	assert.True(t, dec(2600).Equal(res.Total))
}

func TestPriceOrder_FreeDeliveryDiscount(t *testing.T) {
	discount := models.Discount{ID: 1, Type: models.DiscountTypeFreeDelivery, ValueType: models.ValueTypeFree, Active: true}

	res, err := PriceOrder(PricingInput{
		Items: pricingItems(), DeliveryMethod: models.DeliveryMethodDelivery,
		Delivery: deliverySettings(), Discounts: []models.Discount{discount},
	})
	require.NoError(t, err)
	assert.True(t, res.FreeDelivery)
	assert.True(t, res.DeliveryFee.IsZero())
	assert.True(t, dec(10000).Equal(res.Total))

	res, err = PriceOrder(PricingInput{
		Items: pricingItems(), DeliveryMethod: models.DeliveryMethodPickup,
		Delivery: deliverySettings(), Discounts: []models.Discount{discount},
	})
	require.NoError(t, err)
	assert.False(t, res.FreeDelivery)
	assert.Nil(t, res.Discount)
}

func TestPriceOrder_TotalNeverNegative(t *testing.T) {
	discount := models.Discount{ID: 1, Type: models.DiscountTypeAutomatic, ValueType: models.ValueTypeFixed, Value: dec(99999), Active: true}
	res, err := PriceOrder(PricingInput{Items: pricingItems(), Discounts: []models.Discount{discount}})
	require.NoError(t, err)
	assert.True(t, res.DiscountAmount.Equal(res.Subtotal))
	assert.True(t, res.Total.IsZero())
}
