package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/utils"
	"github.com/shopspring/decimal"
)

// Discount errors surfaced to the customer at checkout
var (
	ErrDiscountCodeNotFound  = errors.New("discount code not found")
	ErrDiscountUnavailable   = errors.New("discount is not available")
	ErrDiscountMinimumNotMet = errors.New("order amount is below the discount minimum")
	ErrDiscountNotApplicable = errors.New("discount does not apply to the cart")
)

var hundred = decimal.NewFromInt(100)

// FormatDiscountValue renders the value of a discount: "15%", "5 000 ₸" or "Бесплатно"
func FormatDiscountValue(d models.Discount) string {
	switch d.ValueType {
	case models.ValueTypePercentage:
		return d.Value.String() + "%"
	case models.ValueTypeFixed:
		return utils.FormatMoney(d.Value)
	case models.ValueTypeFree:
		return "Бесплатно"
	}
	return d.Value.String()
}

// PricingInput is everything needed to price a cart
type PricingInput struct {
	Items          []models.OrderItem
	DeliveryMethod string
	Delivery       models.DeliverySettings
	Discounts      []models.Discount
	Code           string
	Now            time.Time
}

// PricingResult is a priced cart. Total never goes below zero.
type PricingResult struct {
	Subtotal       decimal.Decimal  `json:"subtotal"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	DeliveryFee    decimal.Decimal  `json:"delivery_fee"`
	Total          decimal.Decimal  `json:"total"`
	Discount       *models.Discount `json:"discount,omitempty"`
	FreeDelivery   bool             `json:"free_delivery"`
}

// Subtotal sums the line totals of items
func Subtotal(items []models.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// PriceOrder applies the single most valuable discount to a cart. Code discounts are
// only considered when their code was entered; when a code was entered and cannot be
// used, the reason is returned as an error.
func PriceOrder(in PricingInput) (*PricingResult, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	subtotal := Subtotal(in.Items)
	baseFee := in.Delivery.FeeFor(in.DeliveryMethod, subtotal)

	code := strings.TrimSpace(in.Code)
	var codeErr error
	if code != "" {
		codeErr = ErrDiscountCodeNotFound
	}

	var best, validCode *models.Discount
	bestAmount, bestBenefit := decimal.Zero, decimal.Zero
	bestFree := false

	for i := range in.Discounts {
		d := in.Discounts[i]

		if d.Type == models.DiscountTypeCode {
			if code == "" || !strings.EqualFold(strings.TrimSpace(d.Code), code) {
				continue
			}
		}

		amount, freeDelivery, err := evaluateDiscount(d, in.Items, subtotal, in.DeliveryMethod, now)
		if d.Type == models.DiscountTypeCode {
			codeErr = err
		}
		if err != nil {
			continue
		}
		if d.Type == models.DiscountTypeCode {
			validCode = &in.Discounts[i]
		}

		benefit := amount
		if freeDelivery {
			benefit = benefit.Add(baseFee)
		}
		if best == nil || benefit.GreaterThan(bestBenefit) {
			best = &in.Discounts[i]
			bestAmount, bestBenefit, bestFree = amount, benefit, freeDelivery
		}
	}

	if codeErr != nil {
		return nil, codeErr
	}

	result := &PricingResult{
		Subtotal:       subtotal,
		DiscountAmount: decimal.Zero,
		DeliveryFee:    baseFee,
	}
	if best != nil && bestBenefit.IsPositive() {
		result.Discount = best
		result.DiscountAmount = bestAmount
		if bestFree {
			result.FreeDelivery = true
			result.DeliveryFee = decimal.Zero
		}
	} else if validCode != nil {
		// a valid code with nothing to take off still counts as applied
		result.Discount = validCode
	}

	total := subtotal.Sub(result.DiscountAmount).Add(result.DeliveryFee)
	if total.IsNegative() {
		total = decimal.Zero
	}
	result.Total = total
	return result, nil
}

// evaluateDiscount returns the amount taken off the subtotal and whether delivery is waived
func evaluateDiscount(d models.Discount, items []models.OrderItem, subtotal decimal.Decimal, method string, now time.Time) (decimal.Decimal, bool, error) {
	if !d.AvailableAt(now) {
		return decimal.Zero, false, ErrDiscountUnavailable
	}
	if d.MinOrderAmount.IsPositive() && subtotal.LessThan(d.MinOrderAmount) {
		return decimal.Zero, false, ErrDiscountMinimumNotMet
	}

	switch d.Type {
	case models.DiscountTypeCode, models.DiscountTypeAutomatic:
		base := eligibleSubtotal(d, items)
		if base.IsZero() {
			return decimal.Zero, false, ErrDiscountNotApplicable
		}
		return applyValue(d, base), false, nil

	case models.DiscountTypeOrderAmount:
		if !d.MinOrderAmount.IsPositive() {
			return decimal.Zero, false, ErrDiscountNotApplicable
		}
		return applyValue(d, subtotal), false, nil

	case models.DiscountTypeBundle:
		if len(d.ProductIDs) == 0 || !containsAll(items, d.ProductIDs) {
			return decimal.Zero, false, ErrDiscountNotApplicable
		}
		return applyValue(d, eligibleSubtotal(d, items)), false, nil

	case models.DiscountTypeBuyXGetY:
		amount := buyXGetYAmount(d, items)
		if !amount.IsPositive() {
			return decimal.Zero, false, ErrDiscountNotApplicable
		}
		return amount, false, nil

	case models.DiscountTypeFreeDelivery:
		if method != models.DeliveryMethodDelivery {
			return decimal.Zero, false, ErrDiscountNotApplicable
		}
		return decimal.Zero, true, nil
	}
	return decimal.Zero, false, ErrDiscountNotApplicable
}

// applyValue takes the discount value off base, never more than base
func applyValue(d models.Discount, base decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch d.ValueType {
	case models.ValueTypePercentage:
		amount = base.Mul(d.Value).Div(hundred).Round(2)
	case models.ValueTypeFixed:
		amount = d.Value
	case models.ValueTypeFree:
		amount = base
	}
	if amount.GreaterThan(base) {
		amount = base
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount
}

func eligibleSubtotal(d models.Discount, items []models.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		if d.AppliesToProduct(item.ProductID) {
			sum = sum.Add(item.LineTotal())
		}
	}
	return sum
}

func containsAll(items []models.OrderItem, ids []uint) bool {
	inCart := make(map[uint]bool, len(items))
	for _, item := range items {
		if item.Quantity > 0 {
			inCart[item.ProductID] = true
		}
	}
	for _, id := range ids {
		if !inCart[id] {
			return false
		}
	}
	return true
}

// buyXGetYAmount discounts the cheapest GetQuantity units of every complete
// BuyQuantity+GetQuantity group among eligible units
func buyXGetYAmount(d models.Discount, items []models.OrderItem) decimal.Decimal {
	if d.BuyQuantity <= 0 || d.GetQuantity <= 0 {
		return decimal.Zero
	}

	var prices []decimal.Decimal
	for _, item := range items {
		if !d.AppliesToProduct(item.ProductID) {
			continue
		}
		for i := 0; i < item.Quantity; i++ {
			prices = append(prices, item.Price)
		}
	}

	groups := len(prices) / (d.BuyQuantity + d.GetQuantity)
	rewarded := groups * d.GetQuantity
	if rewarded == 0 {
		return decimal.Zero
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })

	amount := decimal.Zero
	for _, price := range prices[:rewarded] {
		if d.ValueType == models.ValueTypeFree {
			amount = amount.Add(price)
		} else {
			amount = amount.Add(applyValue(d, price))
		}
	}
	return amount
}
