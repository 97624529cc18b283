package users

import "strings"

// Plan is a seller subscription plan.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Feature names gated by plan.
const (
	FeatureBranding        = "branding"
	FeatureBrandLabAI      = "brand-lab-ai"
	FeatureVirtualModel    = "virtual-model"
	FeaturePrivateProducts = "private-products"
	FeatureIntegration     = "integration"
)

var featureAccess = map[string][]Plan{
	FeatureBranding:        {PlanPro, PlanEnterprise},
	FeatureBrandLabAI:      {PlanPro, PlanEnterprise},
	FeatureVirtualModel:    {PlanPro, PlanEnterprise},
	FeaturePrivateProducts: {PlanPro, PlanEnterprise},
	FeatureIntegration:     {PlanPro, PlanEnterprise},
}

// ParsePlan normalises a stored plan name. Empty and unknown names are free.
func ParsePlan(s string) Plan {
	switch p := Plan(strings.ToLower(strings.TrimSpace(s))); p {
	case PlanPro, PlanEnterprise:
		return p
	default:
		return PlanFree
	}
}

// HasFeature reports whether the plan includes feature. Features that are not
// plan gated are available to everyone.
func (p Plan) HasFeature(feature string) bool {
	allowed, gated := featureAccess[feature]
	if !gated {
		return true
	}
	for _, plan := range allowed {
		if plan == p {
			return true
		}
	}
	return false
}

func (p Plan) IsPaid() bool {
	return p == PlanPro || p == PlanEnterprise
}
