package domain

// OrganizationPlan enumerates billing tiers. The plan gates which realtime
// event categories a tenant's connections may emit.
type OrganizationPlan string

const (
	OrganizationPlanFree       OrganizationPlan = "FREE"
	OrganizationPlanStarter    OrganizationPlan = "STARTER"
	OrganizationPlanEnterprise OrganizationPlan = "ENTERPRISE"
)

// Organization is the tenant boundary for all broadcast and presence state.
type Organization struct {
	ID       string
	Name     string
	Plan     OrganizationPlan
	Settings map[string]any
}
