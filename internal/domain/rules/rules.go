// Package rules implements the two nutritional constraints the meal engine
// enforces: a daily fructose ceiling and an omega-3:omega-6 ratio band.
// Everything here is pure computation with no I/O.
package rules

import "fmt"

// Policy holds the tunable thresholds behind the 2 Rules. The values are
// product policy, not physiological claims, and are loaded from configuration
// so they can be adjusted without touching the evaluation logic.
type Policy struct {
	// Omega-6:omega-3 ratio band, inclusive on both ends.
	RatioMin float64
	RatioMax float64

	// Daily fructose ceilings in grams.
	DailyFructoseLimit        float64
	DailyFructoseLimitChronic float64

	// Net-carb ceilings in grams.
	MealNetCarbLimit  float64
	DailyNetCarbLimit float64

	// MealsPerDay divides daily budgets into a per-meal share.
	MealsPerDay float64
}

// DefaultPolicy returns the shipped thresholds.
func DefaultPolicy() Policy {
	return Policy{
		RatioMin:                  1.5,
		RatioMax:                  2.9,
		DailyFructoseLimit:        25,
		DailyFructoseLimitChronic: 15,
		MealNetCarbLimit:          15,
		DailyNetCarbLimit:         45,
		MealsPerDay:               3,
	}
}

// OmegaRatio formats the omega-6 to omega-3 ratio as "1:x.xx".
// Returns "N/A" when omega3 is zero or negative, since the ratio is undefined.
func (p Policy) OmegaRatio(omega3, omega6 float64) string {
	if omega3 <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("1:%.2f", omega6/omega3)
}

// OmegaRatioValid reports whether omega6/omega3 falls inside the configured
// band, inclusive. A meal with no omega-3 at all never passes.
func (p Policy) OmegaRatioValid(omega3, omega6 float64) bool {
	if omega3 <= 0 {
		return false
	}
	ratio := omega6 / omega3
	return ratio >= p.RatioMin && ratio <= p.RatioMax
}

// FructoseLimit returns the applicable fructose ceiling in grams. The
// per-meal ceiling is the daily ceiling divided by MealsPerDay, approximating
// one meal's share of the daily budget.
func (p Policy) FructoseLimit(hasChronicCondition, isFullDay bool) float64 {
	limit := p.DailyFructoseLimit
	if hasChronicCondition {
		limit = p.DailyFructoseLimitChronic
	}
	if isFullDay {
		return limit
	}
	return limit / p.MealsPerDay
}

// FructoseValid reports whether the given fructose total stays at or under
// the applicable ceiling.
func (p Policy) FructoseValid(fructose float64, hasChronicCondition, isFullDay bool) bool {
	return fructose <= p.FructoseLimit(hasChronicCondition, isFullDay)
}

// NetCarbLimit returns the net-carb ceiling in grams for a meal or a day.
func (p Policy) NetCarbLimit(isFullDay bool) float64 {
	if isFullDay {
		return p.DailyNetCarbLimit
	}
	return p.MealNetCarbLimit
}

// FollowsTwoRules combines the ratio band and fructose ceiling checks.
func (p Policy) FollowsTwoRules(fructose, omega3, omega6 float64, hasChronicCondition, isFullDay bool) bool {
	return p.OmegaRatioValid(omega3, omega6) && p.FructoseValid(fructose, hasChronicCondition, isFullDay)
}
