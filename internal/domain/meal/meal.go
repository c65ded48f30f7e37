// Package meal contains the core domain model for generated meals.
// A GeneratedMeal starts life as the parsed form of an untrusted
// text-generation response; its nutrient fields only become authoritative
// once the validator has overwritten them from the nutrient database.
package meal

import (
	"github.com/google/uuid"
)

// Kind distinguishes a single meal from the (not yet implemented)
// multi-meal aggregates.
type Kind string

const (
	KindSingle   Kind = "single"
	KindFullDay  Kind = "full_day"
	KindFullWeek Kind = "full_week"
)

// Type is the slot a meal occupies in a day.
type Type string

const (
	TypeBreakfast Type = "breakfast"
	TypeLunch     Type = "lunch"
	TypeDinner    Type = "dinner"
	TypeSnack     Type = "snack"
	TypeDessert   Type = "dessert"
)

// Ingredient is one line of a meal. Name, Amount and Unit come from the
// model's text; Fructose, Omega3 and Omega6 are overwritten by the validator
// with database-sourced values and must never be trusted as emitted by the
// text-generation step.
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`

	// Authoritative nutrient contribution in grams for the resolved amount.
	Fructose float64 `json:"fructose"`
	Omega3   float64 `json:"omega3"`
	Omega6   float64 `json:"omega6"`
}

// NutrientTotals are the meal-level aggregates. After validation they are
// always the sum of the validated ingredient contributions plus any
// supplement share, never figures reported by the model.
type NutrientTotals struct {
	Fructose   float64 `json:"fructose"`
	Omega3     float64 `json:"omega3"`
	Omega6     float64 `json:"omega6"`
	OmegaRatio string  `json:"omega_ratio"`
	Protein    float64 `json:"protein"`
	Carbs      float64 `json:"carbs"`
	Fat        float64 `json:"fat"`
	Calories   float64 `json:"calories"`
	Iron       float64 `json:"iron"`
	Fiber      float64 `json:"fiber"`
	NetCarbs   float64 `json:"net_carbs"`
}

// MacroBreakdown is the calorie-weighted macronutrient split, computed with
// 4/4/9 kcal per gram of protein/carbs/fat.
type MacroBreakdown struct {
	ProteinPct float64 `json:"protein_pct"`
	CarbsPct   float64 `json:"carbs_pct"`
	FatPct     float64 `json:"fat_pct"`
}

// GeneratedMeal is the engine's output value. It is created fresh per
// generation call and handed to the caller as a finished value; persistence
// and further mutation happen outside this core.
type GeneratedMeal struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Kind         Kind               `json:"type"`
	MealType     Type               `json:"meal_type,omitempty"`
	Ingredients  []Ingredient       `json:"ingredients"`
	Instructions string             `json:"instructions,omitempty"`
	Totals       NutrientTotals     `json:"totals"`
	HeavyMetals  map[string]float64 `json:"heavy_metals,omitempty"`
	Macros       MacroBreakdown     `json:"macros"`

	FollowsTwoRules bool `json:"follows_2_rules"`
	Portions        int  `json:"portions"`
}

// ComputeMacroBreakdown derives the macronutrient percentage split from gram
// amounts of protein, carbs and fat using 4/4/9 calorie weighting. Returns
// the zero value when no calories are represented.
func ComputeMacroBreakdown(protein, carbs, fat float64) MacroBreakdown {
	proteinCal := protein * 4
	carbsCal := carbs * 4
	fatCal := fat * 9
	total := proteinCal + carbsCal + fatCal
	if total <= 0 {
		return MacroBreakdown{}
	}
	return MacroBreakdown{
		ProteinPct: proteinCal / total * 100,
		CarbsPct:   carbsCal / total * 100,
		FatPct:     fatCal / total * 100,
	}
}

// ValidationResult is the per-attempt verdict produced by the validator.
// It is transient and never persisted.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Invalid builds a failed result with a human-readable reason.
func Invalid(reason string) ValidationResult {
	return ValidationResult{Valid: false, Reason: reason}
}

// Validated is the passing result.
func Validated() ValidationResult {
	return ValidationResult{Valid: true}
}
