package entitlements

import (
	"testing"
	"time"
)

var resolverNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func TestDetermineAccountType(t *testing.T) {
	cases := []struct {
		name    string
		profile *UserProfile
		want    AccountType
	}{
		{"nilProfile", nil, AccountIndividual},
		{"explicitOrganization", &UserProfile{AccountType: "organization"}, AccountOrganization},
		{"explicitWinsOverOrgID", &UserProfile{AccountType: "individual", OrganizationID: "org1"}, AccountIndividual},
		{"legacyUserType", &UserProfile{UserType: "org"}, AccountOrganization},
		{"organizationId", &UserProfile{OrganizationID: "org1"}, AccountOrganization},
		{"membership", &UserProfile{Memberships: []Membership{{OrganizationID: "org2", Role: "tester"}}}, AccountOrganization},
		{"emptyMembership", &UserProfile{Memberships: []Membership{{Role: "tester"}}}, AccountIndividual},
		{"default", &UserProfile{}, AccountIndividual},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetermineAccountType(tc.profile); got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestTrialBoundary(t *testing.T) {
	start := resolverNow.Add(-29 * 24 * time.Hour)
	profile := &UserProfile{
		SubscriptionStartDate: timePtr(start),
		CreatedAt:             timePtr(start),
		SubscriptionPlan:      "individual_trial",
		SubscriptionStatus:    "trialing",
	}

	status := CalculateTrialStatus(profile, resolverNow)
	if !status.Active {
		t.Fatal("expected trial active on day 29")
	}
	if status.DaysRemaining != 1 {
		t.Fatalf("expected 1 day remaining, got %d", status.DaysRemaining)
	}
}

func TestTrialExpiredWithPaidSubscription(t *testing.T) {
	start := resolverNow.Add(-31 * 24 * time.Hour)
	profile := &UserProfile{
		SubscriptionStartDate: timePtr(start),
		CreatedAt:             timePtr(start),
		SubscriptionPlan:      "individual_pro",
		SubscriptionStatus:    "active",
	}

	status := CalculateTrialStatus(profile, resolverNow)
	if status.Active {
		t.Fatal("expected no trial for an aged paid account")
	}
	if got := ResolveEffectivePlan(profile, resolverNow); got != PlanIndividualPro {
		t.Fatalf("expected stored paid plan, got %s", got)
	}
}

func TestNewUserGraceWithoutTrialMarkers(t *testing.T) {
	// A 10-day-old account on the free plan gets trial-like access even
	// without explicit trial markers.
	profile := &UserProfile{
		CreatedAt:          timePtr(resolverNow.Add(-10 * 24 * time.Hour)),
		SubscriptionPlan:   "individual_free",
		SubscriptionStatus: "active",
	}

	status := CalculateTrialStatus(profile, resolverNow)
	if !status.Active {
		t.Fatal("expected new-user grace to activate trial")
	}
	if got := ResolveEffectivePlan(profile, resolverNow); got != PlanIndividualTrial {
		t.Fatalf("expected trial plan forced during grace, got %s", got)
	}
}

func TestTrialForcesEffectivePlanPerAccountType(t *testing.T) {
	profile := &UserProfile{
		AccountType:        "organization",
		CreatedAt:          timePtr(resolverNow.Add(-5 * 24 * time.Hour)),
		SubscriptionPlan:   "organization_business",
		SubscriptionStatus: "trialing",
	}

	if got := ResolveEffectivePlan(profile, resolverNow); got != PlanOrganizationTrial {
		t.Fatalf("expected organization_trial, got %s", got)
	}

	caps := Resolve(profile, resolverNow)
	if !caps.IsTrialActive || caps.EffectivePlan != PlanOrganizationTrial {
		t.Fatalf("unexpected capabilities: %+v", caps)
	}
	if caps.SubscriptionPlan != "organization_business" {
		t.Fatalf("stored plan must be preserved, got %s", caps.SubscriptionPlan)
	}
}

func TestEnterpriseUnlimitedLimits(t *testing.T) {
	profile := &UserProfile{
		AccountType:        "organization",
		CreatedAt:          timePtr(resolverNow.Add(-200 * 24 * time.Hour)),
		SubscriptionPlan:   "organization_enterprise",
		SubscriptionStatus: "active",
	}

	caps := Resolve(profile, resolverNow)
	if caps.EffectivePlan != PlanOrgEnterprise {
		t.Fatalf("unexpected plan %s", caps.EffectivePlan)
	}
	if caps.Limits.Suites != Unlimited {
		t.Fatalf("expected unlimited suites, got %d", caps.Limits.Suites)
	}
	// A "can create" check must treat -1 as no ceiling.
	if !caps.Limits.Allows(1_000_000, caps.Limits.Suites) {
		t.Fatal("unlimited limit must never cap")
	}
	if caps.Limits.Allows(1, 1) {
		t.Fatal("a finite limit of 1 must reject the second item")
	}
	if !caps.Features.TeamCollaboration || !caps.Features.CustomIntegrations {
		t.Fatalf("unexpected features: %+v", caps.Features)
	}
}

func TestTeamCollaborationRequiresOrganizationSeats(t *testing.T) {
	individual := &UserProfile{
		CreatedAt:          timePtr(resolverNow.Add(-200 * 24 * time.Hour)),
		SubscriptionPlan:   "individual_pro",
		SubscriptionStatus: "active",
	}
	if Resolve(individual, resolverNow).Features.TeamCollaboration {
		t.Fatal("individual accounts never collaborate")
	}

	org := &UserProfile{
		AccountType:        "organization",
		CreatedAt:          timePtr(resolverNow.Add(-200 * 24 * time.Hour)),
		SubscriptionPlan:   "organization_business",
		SubscriptionStatus: "active",
	}
	if !Resolve(org, resolverNow).Features.TeamCollaboration {
		t.Fatal("multi-seat organization plan must collaborate")
	}
}

func TestNilProfileFallsBackToDefaults(t *testing.T) {
	caps := Resolve(nil, resolverNow)
	if caps.SubscriptionPlan != PlanIndividualFree || caps.EffectivePlan != PlanIndividualFree {
		t.Fatalf("unexpected default plans: %+v", caps)
	}
	if caps.Limits.Suites != 1 || caps.Limits.TestScripts != 25 {
		t.Fatalf("unexpected default limits: %+v", caps.Limits)
	}
	if caps.IsTrialActive {
		t.Fatal("defaults carry no trial")
	}
	if caps != DefaultCapabilities() {
		t.Fatalf("Resolve(nil) must equal DefaultCapabilities, got %+v", caps)
	}
}

func TestUnknownPlanDegradesToFreeTier(t *testing.T) {
	profile := &UserProfile{
		CreatedAt:          timePtr(resolverNow.Add(-200 * 24 * time.Hour)),
		SubscriptionPlan:   "legacy_gold",
		SubscriptionStatus: "active",
	}

	caps := Resolve(profile, resolverNow)
	if caps.EffectivePlan != PlanIndividualFree {
		t.Fatalf("unknown plan must degrade to free tier, got %s", caps.EffectivePlan)
	}
}
