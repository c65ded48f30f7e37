// Package inbound defines the interfaces for inbound ports (primary/driving
// adapters). The HTTP layer depends on these, never on concrete services.
package inbound

import (
	"context"

	"github.com/platewise/v2/internal/domain/meal"
)

// MealService is the engine's public surface: generation, the constrained
// meal-builder variant, ingredient swap, and the not-yet-implemented
// multi-meal aggregates.
type MealService interface {
	// GenerateMeal runs the compose → complete → parse → validate pipeline
	// with a single built-in retry on validation failure.
	GenerateMeal(ctx context.Context, opts meal.GenerationOptions) (*meal.GeneratedMeal, error)

	// BuildFromIngredients generates a meal constrained to the supplied
	// ingredients, adding others only if required. With opts.WithoutRules the
	// verdict is advisory: recorded on the meal, never enforced.
	BuildFromIngredients(ctx context.Context, opts meal.GenerationOptions, ingredients []meal.Ingredient) (*meal.GeneratedMeal, error)

	// SwapIngredient replaces the ingredient at index with a model-suggested
	// substitute at the same amount and unit, then re-aggregates totals. The
	// caller inspects the recomputed follows_2_rules flag itself.
	SwapIngredient(ctx context.Context, m *meal.GeneratedMeal, index int, opts meal.GenerationOptions) (*meal.GeneratedMeal, error)

	// GenerateFullDay and GenerateFullWeek return meal.ErrNotImplemented.
	GenerateFullDay(ctx context.Context, opts meal.GenerationOptions) (*meal.GeneratedMeal, error)
	GenerateFullWeek(ctx context.Context, opts meal.GenerationOptions) (*meal.GeneratedMeal, error)
}
