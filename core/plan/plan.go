// Package plan holds the subscription tiers and the limits and features they grant.
package plan

import (
	"fmt"
)

// Plan identifiers
const (
	Free       = "free"
	Starter    = "starter"
	Pro        = "pro"
	Enterprise = "enterprise"

	Unlimited = -1
	Currency  = "EUR"
)

// Branding levels
const (
	BrandingBasic    = "basic"
	BrandingAdvanced = "advanced"
	BrandingPremium  = "premium"
)

type Feature string

const (
	FeaturePDFExport  Feature = "pdf_export"
	FeaturePitchDeck  Feature = "pitch_deck"
	FeatureAccounting Feature = "accounting"
)

var featureNames = map[Feature]string{
	FeaturePDFExport:  "l'export PDF",
	FeaturePitchDeck:  "le pitch deck",
	FeatureAccounting: "la comptabilité",
}

var brandingRanks = map[string]int{
	BrandingBasic:    1,
	BrandingAdvanced: 2,
	BrandingPremium:  3,
}

type Plan struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Price          int    `json:"price"` // cents per month
	Currency       string `json:"currency"`
	MaxProjects    int    `json:"max_projects"`
	MaxIdeas       int    `json:"max_ideas"`
	MaxTeamMembers int    `json:"max_team_members"`
	PDFExport      bool   `json:"pdf_export"`
	PitchDeck      bool   `json:"pitch_deck"`
	Accounting     bool   `json:"accounting"`
	Branding       string `json:"branding"`
	Support        string `json:"support"`
	rank           int
}

var plans = []Plan{
	{
		ID: Free, Name: "Gratuit", Price: 0, Currency: Currency,
		MaxProjects: 1, MaxIdeas: 10, MaxTeamMembers: 0,
		Branding: BrandingBasic, Support: "community", rank: 0,
	},
	{
		ID: Starter, Name: "Starter", Price: 990, Currency: Currency,
		MaxProjects: 3, MaxIdeas: 50, MaxTeamMembers: 2,
		PDFExport: true,
		Branding:  BrandingAdvanced, Support: "email", rank: 1,
	},
	{
		ID: Pro, Name: "Pro", Price: 2990, Currency: Currency,
		MaxProjects: 10, MaxIdeas: Unlimited, MaxTeamMembers: 10,
		PDFExport: true, PitchDeck: true, Accounting: true,
		Branding: BrandingAdvanced, Support: "priority", rank: 2,
	},
	{
		ID: Enterprise, Name: "Entreprise", Price: 9990, Currency: Currency,
		MaxProjects: Unlimited, MaxIdeas: Unlimited, MaxTeamMembers: Unlimited,
		PDFExport: true, PitchDeck: true, Accounting: true,
		Branding: BrandingPremium, Support: "dedicated", rank: 3,
	},
}

// IDs lists plan identifiers from the cheapest to the most expensive.
var IDs = []string{Free, Starter, Pro, Enterprise}

// All returns every plan, cheapest first.
func All() []Plan {
	all := make([]Plan, len(plans))
	copy(all, plans)
	return all
}

// Get returns the plan identified by id. Unknown ids fall back to Free.
func Get(id string) Plan {
	for _, p := range plans {
		if p.ID == id {
			return p
		}
	}
	return plans[0]
}

func Valid(id string) bool {
	for _, p := range plans {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Compare returns -1 if a is cheaper than b, 1 if it is more expensive and 0 if they are the same tier.
func Compare(a, b string) int {
	ra, rb := Get(a).rank, Get(b).rank
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

func underLimit(limit, count int) bool {
	return limit == Unlimited || count < limit
}

func CanCreateProject(planID string, count int) bool {
	return underLimit(Get(planID).MaxProjects, count)
}

func CanCreateIdea(planID string, count int) bool {
	return underLimit(Get(planID).MaxIdeas, count)
}

func CanAddTeamMember(planID string, count int) bool {
	return underLimit(Get(planID).MaxTeamMembers, count)
}

func HasFeature(planID string, f Feature) bool {
	p := Get(planID)
	switch f {
	case FeaturePDFExport:
		return p.PDFExport
	case FeaturePitchDeck:
		return p.PitchDeck
	case FeatureAccounting:
		return p.Accounting
	}
	return false
}

// BrandingAllows reports whether the branding level of the plan is at least level.
// Unknown levels are never allowed.
func BrandingAllows(planID, level string) bool {
	rank, ok := brandingRanks[level]
	if !ok {
		return false
	}
	return brandingRanks[Get(planID).Branding] >= rank
}

// LimitError is returned when a quota of the plan is reached.
type LimitError struct {
	Plan     Plan
	Resource string
	Limit    int
}

func (e LimitError) Error() string {
	return fmt.Sprintf(
		"limite atteinte : votre offre %s permet %d %s maximum. Passez à une offre supérieure pour continuer.",
		e.Plan.Name, e.Limit, e.Resource,
	)
}

// FeatureError is returned when the plan does not include a feature.
type FeatureError struct {
	Plan    Plan
	Feature string
}

func (e FeatureError) Error() string {
	return fmt.Sprintf("%s n'est pas inclus dans votre offre %s.", e.Feature, e.Plan.Name)
}

func CheckProjectLimit(planID string, count int) error {
	if CanCreateProject(planID, count) {
		return nil
	}
	p := Get(planID)
	return &LimitError{Plan: p, Resource: "projet(s)", Limit: p.MaxProjects}
}

func CheckIdeaLimit(planID string, count int) error {
	if CanCreateIdea(planID, count) {
		return nil
	}
	p := Get(planID)
	return &LimitError{Plan: p, Resource: "idée(s)", Limit: p.MaxIdeas}
}

func CheckTeamLimit(planID string, count int) error {
	if CanAddTeamMember(planID, count) {
		return nil
	}
	p := Get(planID)
	return &LimitError{Plan: p, Resource: "membre(s) d'équipe", Limit: p.MaxTeamMembers}
}

func RequireFeature(planID string, f Feature) error {
	if HasFeature(planID, f) {
		return nil
	}
	name, ok := featureNames[f]
	if !ok {
		name = string(f)
	}
	return &FeatureError{Plan: Get(planID), Feature: capitalize(name)}
}

func RequireBranding(planID, level string) error {
	if BrandingAllows(planID, level) {
		return nil
	}
	return &FeatureError{Plan: Get(planID), Feature: "Le branding " + level}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
