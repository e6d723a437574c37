package entitlements

// Unlimited marks a limit with no ceiling. Callers must treat it specially:
// `count < limit || limit == Unlimited`, never as a literal numeric bound.
const Unlimited = -1

// Limits enumerates the numeric ceilings a plan grants.
type Limits struct {
	Suites         int `json:"suites"`
	TestScripts    int `json:"test_scripts"`
	AutomatedTests int `json:"automated_tests"`
	Recordings     int `json:"recordings"`
	ReportExports  int `json:"report_exports"`
	TeamMembers    int `json:"team_members"`
}

// Allows reports whether a count below the limit is permitted.
func (l Limits) Allows(count, limit int) bool {
	return limit == Unlimited || count < limit
}

// FeatureFlags enumerates the boolean capabilities a plan grants.
// TeamCollaboration is derived, not stored: it requires an organization
// account whose plan seats more than one member.
type FeatureFlags struct {
	AdvancedReports    bool `json:"advanced_reports"`
	APIAccess          bool `json:"api_access"`
	Automation         bool `json:"automation"`
	CustomIntegrations bool `json:"custom_integrations"`
	TeamCollaboration  bool `json:"team_collaboration"`
}

// Plan names. Trials mirror the paid tier of their account type.
const (
	PlanIndividualFree    = "individual_free"
	PlanIndividualPro     = "individual_pro"
	PlanIndividualTrial   = "individual_trial"
	PlanOrgFree           = "organization_free"
	PlanOrgBusiness       = "organization_business"
	PlanOrgEnterprise     = "organization_enterprise"
	PlanOrganizationTrial = "organization_trial"
)

type planDefinition struct {
	Limits   Limits
	Features FeatureFlags
}

// planTable is the static plan -> capability mapping. Values are data;
// resolution logic never special-cases a plan name beyond the trial suffix.
var planTable = map[string]planDefinition{
	PlanIndividualFree: {
		Limits: Limits{Suites: 1, TestScripts: 25, AutomatedTests: 5, Recordings: 10, ReportExports: 3, TeamMembers: 1},
	},
	PlanIndividualPro: {
		Limits:   Limits{Suites: 20, TestScripts: 1000, AutomatedTests: 250, Recordings: 250, ReportExports: 100, TeamMembers: 1},
		Features: FeatureFlags{AdvancedReports: true, APIAccess: true, Automation: true},
	},
	PlanIndividualTrial: {
		Limits:   Limits{Suites: 20, TestScripts: 1000, AutomatedTests: 250, Recordings: 250, ReportExports: 100, TeamMembers: 1},
		Features: FeatureFlags{AdvancedReports: true, APIAccess: true, Automation: true},
	},
	PlanOrgFree: {
		Limits: Limits{Suites: 3, TestScripts: 100, AutomatedTests: 20, Recordings: 25, ReportExports: 10, TeamMembers: 5},
	},
	PlanOrgBusiness: {
		Limits:   Limits{Suites: 50, TestScripts: 5000, AutomatedTests: 1000, Recordings: 1000, ReportExports: 500, TeamMembers: 25},
		Features: FeatureFlags{AdvancedReports: true, APIAccess: true, Automation: true},
	},
	PlanOrganizationTrial: {
		Limits:   Limits{Suites: 50, TestScripts: 5000, AutomatedTests: 1000, Recordings: 1000, ReportExports: 500, TeamMembers: 25},
		Features: FeatureFlags{AdvancedReports: true, APIAccess: true, Automation: true},
	},
	PlanOrgEnterprise: {
		Limits: Limits{
			Suites: Unlimited, TestScripts: Unlimited, AutomatedTests: Unlimited,
			Recordings: Unlimited, ReportExports: Unlimited, TeamMembers: Unlimited,
		},
		Features: FeatureFlags{AdvancedReports: true, APIAccess: true, Automation: true, CustomIntegrations: true},
	},
}
