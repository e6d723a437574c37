// Package entitlements derives the effective subscription plan, trial status
// and feature limits that gate the rest of the application. Resolution is
// pure and side-effect-free: every call is a fresh derivation from the input
// profile, cheap enough to run on every request without caching.
package entitlements

import (
	"math"
	"strings"
	"time"
)

// AccountType distinguishes individual from organization accounts.
type AccountType string

const (
	AccountIndividual   AccountType = "individual"
	AccountOrganization AccountType = "organization"
)

const trialWindow = 30 * 24 * time.Hour

// Membership links a user to an organization account.
type Membership struct {
	OrganizationID string
	Role           string
}

// UserProfile is the entitlement input. All fields are optional; absent
// values resolve to explicit defaults here at the boundary rather than in the
// resolution logic.
type UserProfile struct {
	UserID                string
	AccountType           string
	UserType              string // legacy field, second in precedence
	OrganizationID        string
	Memberships           []Membership
	SubscriptionPlan      string
	SubscriptionStatus    string
	SubscriptionStartDate *time.Time
	SubscriptionEndDate   *time.Time
	CreatedAt             *time.Time
}

// TrialStatus reports whether trial access applies and how long it lasts.
type TrialStatus struct {
	Active        bool
	DaysRemaining int
	Start         time.Time
	End           time.Time
}

// Capabilities is the flattened entitlement derivation handed to gating
// callers. Recomputed on every call, never mutated in place.
type Capabilities struct {
	AccountType        AccountType  `json:"accountType"`
	SubscriptionPlan   string       `json:"subscriptionPlan"`
	EffectivePlan      string       `json:"effectivePlan"`
	IsTrialActive      bool         `json:"isTrialActive"`
	TrialDaysRemaining int          `json:"trialDaysRemaining"`
	Limits             Limits       `json:"limits"`
	Features           FeatureFlags `json:"featureFlags"`
}

// DetermineAccountType resolves the account type by priority: explicit
// accountType, legacy userType, presence of an organization ID, then any
// membership referencing an organization. Defaults to individual.
func DetermineAccountType(profile *UserProfile) AccountType {
	if profile == nil {
		return AccountIndividual
	}
	switch normalize(profile.AccountType) {
	case "organization", "org":
		return AccountOrganization
	case "individual":
		return AccountIndividual
	}
	switch normalize(profile.UserType) {
	case "organization", "org":
		return AccountOrganization
	case "individual":
		return AccountIndividual
	}
	if profile.OrganizationID != "" {
		return AccountOrganization
	}
	for _, m := range profile.Memberships {
		if m.OrganizationID != "" {
			return AccountOrganization
		}
	}
	return AccountIndividual
}

// CalculateTrialStatus derives trial activity at the given instant.
//
// Trial access is granted when either (a) the profile carries trial markers
// or lacks a paid subscription while within the trial window, or (b) the
// account is younger than 30 days without a paid subscription. Branch (b) is
// the new-user grace: a fresh free account gets trial-like access even
// without explicit trial markers.
func CalculateTrialStatus(profile *UserProfile, now time.Time) TrialStatus {
	if profile == nil {
		return TrialStatus{}
	}

	start := now
	if profile.CreatedAt != nil {
		start = *profile.CreatedAt
	}
	if profile.SubscriptionStartDate != nil {
		start = *profile.SubscriptionStartDate
	}

	end := start.Add(trialWindow)
	if profile.SubscriptionEndDate != nil {
		end = *profile.SubscriptionEndDate
	}

	plan := normalize(profile.SubscriptionPlan)
	status := normalize(profile.SubscriptionStatus)

	hasPaid := status == "active" && plan != "" &&
		!strings.Contains(plan, "free") && !strings.Contains(plan, "trial")
	trialMarked := strings.Contains(plan, "trial") || strings.Contains(status, "trial")
	inWindow := !now.Before(start) && !now.After(end)

	created := now
	if profile.CreatedAt != nil {
		created = *profile.CreatedAt
	}
	isNewAccount := now.Sub(created) <= trialWindow

	active := ((trialMarked || !hasPaid) && inWindow) || (isNewAccount && !hasPaid)

	days := 0
	if active {
		days = int(math.Ceil(end.Sub(now).Hours() / 24))
		if days < 0 {
			days = 0
		}
	}

	return TrialStatus{Active: active, DaysRemaining: days, Start: start, End: end}
}

// ResolveEffectivePlan returns the plan actually used for limit lookups: the
// account type's trial plan while a trial is active, otherwise the stored
// plan, falling back to the account type's free tier.
func ResolveEffectivePlan(profile *UserProfile, now time.Time) string {
	accountType := DetermineAccountType(profile)
	if CalculateTrialStatus(profile, now).Active {
		return string(accountType) + "_trial"
	}
	if profile != nil {
		if plan := normalize(profile.SubscriptionPlan); plan != "" {
			if _, known := planTable[plan]; known {
				return plan
			}
		}
	}
	return string(accountType) + "_free"
}

// Resolve derives the full capability set for a profile at the given instant.
// It never fails: a nil profile or unknown plan degrades to the defaults.
func Resolve(profile *UserProfile, now time.Time) Capabilities {
	if profile == nil {
		return DefaultCapabilities()
	}

	accountType := DetermineAccountType(profile)
	trial := CalculateTrialStatus(profile, now)
	effective := ResolveEffectivePlan(profile, now)

	definition, ok := planTable[effective]
	if !ok {
		effective = string(accountType) + "_free"
		definition = planTable[effective]
	}

	stored := normalize(profile.SubscriptionPlan)
	if stored == "" {
		stored = string(accountType) + "_free"
	}

	features := definition.Features
	features.TeamCollaboration = accountType == AccountOrganization &&
		(definition.Limits.TeamMembers > 1 || definition.Limits.TeamMembers == Unlimited)

	return Capabilities{
		AccountType:        accountType,
		SubscriptionPlan:   stored,
		EffectivePlan:      effective,
		IsTrialActive:      trial.Active,
		TrialDaysRemaining: trial.DaysRemaining,
		Limits:             definition.Limits,
		Features:           features,
	}
}

// DefaultCapabilities returns the individual free tier, the safe fallback for
// null or malformed profiles.
func DefaultCapabilities() Capabilities {
	definition := planTable[PlanIndividualFree]
	return Capabilities{
		AccountType:      AccountIndividual,
		SubscriptionPlan: PlanIndividualFree,
		EffectivePlan:    PlanIndividualFree,
		Limits:           definition.Limits,
		Features:         definition.Features,
	}
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
