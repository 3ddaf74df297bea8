package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kendall-kelly/storefront-api/models"
	"gorm.io/gorm"
)

// GateLevel is the advisory banner shown for a quota
type GateLevel string

const (
	GateNone     GateLevel = "none"
	GatePromo    GateLevel = "promo"
	GateWarning  GateLevel = "warning"
	GateCritical GateLevel = "critical"
)

// ComputeGate maps usage against a limit to a banner level. Unlimited quotas never gate;
// a zero limit is always exhausted.
func ComputeGate(used, limit int) GateLevel {
	if limit == models.Unlimited {
		return GateNone
	}
	if limit <= 0 {
		return GateCritical
	}

	pct := float64(used) / float64(limit) * 100
	switch {
	case pct >= 100:
		return GateCritical
	case pct >= 70:
		return GateWarning
	case pct < 50:
		return GatePromo
	default:
		return GateNone
	}
}

// UsageMetric is one quota of the usage snapshot
type UsageMetric struct {
	Used    int       `json:"used"`
	Limit   int       `json:"limit"`
	Percent float64   `json:"percent"`
	Gate    GateLevel `json:"gate"`
}

// NewUsageMetric derives the percentage and gate of a quota
func NewUsageMetric(used, limit int) UsageMetric {
	m := UsageMetric{Used: used, Limit: limit, Gate: ComputeGate(used, limit)}
	if limit > 0 {
		m.Percent = float64(used) / float64(limit) * 100
	}
	return m
}

// UsageSnapshot is the usage of a store against its plan limits. It is advisory only:
// nothing on the server refuses a write because of it.
type UsageSnapshot struct {
	Plan          models.Plan       `json:"plan"`
	Limits        models.PlanLimits `json:"limits"`
	Products      UsageMetric       `json:"products"`
	MonthlyOrders UsageMetric       `json:"monthlyOrders"`
	TotalImages   UsageMetric       `json:"totalImages"`
	PeriodStart   time.Time         `json:"period_start"`
}

// StartOfMonth returns midnight of the first day of now's month in now's location
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// ComputeUsage counts a store's products, orders this month and stored images
func ComputeUsage(ctx context.Context, db *gorm.DB, store *models.Store, now time.Time) (*UsageSnapshot, error) {
	db = db.WithContext(ctx)

	var products int64
	if err := db.Model(&models.Product{}).Where("store_id = ?", store.ID).Count(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	periodStart := StartOfMonth(now)
	var orders int64
	if err := db.Model(&models.Order{}).
		Where("store_id = ? AND created_at >= ?", store.ID, periodStart).
		Count(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var imageLists []models.Product
	if err := db.Model(&models.Product{}).Select("id", "images").
		Where("store_id = ?", store.ID).Find(&imageLists).Error; err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}
	images := 0
	for _, p := range imageLists {
		images += len(p.Images)
	}

	limits := store.Plan.Limits()
	return &UsageSnapshot{
		Plan:          store.Plan,
		Limits:        limits,
		Products:      NewUsageMetric(int(products), limits.Products),
		MonthlyOrders: NewUsageMetric(int(orders), limits.MonthlyOrders),
		TotalImages:   NewUsageMetric(images, limits.TotalImages),
		PeriodStart:   periodStart,
	}, nil
}
