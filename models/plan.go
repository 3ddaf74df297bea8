package models

// Plan is a subscription tier bounding a store's resource quotas
type Plan string

const (
	PlanFree     Plan = "free"
	PlanStart    Plan = "start"
	PlanBusiness Plan = "business"
)

// Unlimited marks a quota without an upper bound
const Unlimited = -1

// PlanLimits lists the quotas of a plan; Unlimited disables a quota
type PlanLimits struct {
	Products      int `json:"products"`
	MonthlyOrders int `json:"monthlyOrders"`
	TotalImages   int `json:"totalImages"`
}

// Valid reports whether p is a known plan
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanStart, PlanBusiness:
		return true
	}
	return false
}

// Limits returns the quotas for the plan. Unknown plans get the free quotas.
func (p Plan) Limits() PlanLimits {
	switch p {
	case PlanStart:
		return PlanLimits{Products: 200, MonthlyOrders: 500, TotalImages: 1000}
	case PlanBusiness:
		return PlanLimits{Products: Unlimited, MonthlyOrders: Unlimited, TotalImages: Unlimited}
	default:
		return PlanLimits{Products: 20, MonthlyOrders: 50, TotalImages: 60}
	}
}
