package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/platewise/v2/internal/domain/food"
	"github.com/platewise/v2/internal/domain/meal"
	"github.com/platewise/v2/internal/domain/rules"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NutrientResolver is the slice of the nutrient gateway the validator needs.
type NutrientResolver interface {
	Resolve(ctx context.Context, name string) (*food.Resolved, error)
	GramsFor(ctx context.Context, foodID string, amount float64, unit string) (float64, bool)
}

// Validator re-derives every nutrient figure of a parsed meal from the
// nutrient database and checks the result against the rule policy. The
// model's own nutrient claims are discarded wholesale: after Aggregate runs,
// every ingredient contribution and meal total comes from database values.
type Validator struct {
	resolver NutrientResolver
	policy   rules.Policy
	logger   *zap.Logger
}

// NewValidator creates a validator over the given resolver and policy.
func NewValidator(resolver NutrientResolver, policy rules.Policy, logger *zap.Logger) *Validator {
	return &Validator{
		resolver: resolver,
		policy:   policy,
		logger:   logger.Named("meal-validator"),
	}
}

// Aggregate resolves every ingredient against the database and overwrites the
// meal's nutrient fields with authoritative values. Resolution is memoized by
// name within the call and unique names are looked up concurrently. An
// ingredient with no database match fails the whole meal before any totals
// are summed, so a partially grounded meal never leaks out. The returned
// error is reserved for upstream failures.
func (v *Validator) Aggregate(ctx context.Context, m *meal.GeneratedMeal, opts meal.GenerationOptions) (meal.ValidationResult, error) {
	resolved, err := v.resolveAll(ctx, m.Ingredients)
	if err != nil {
		return meal.ValidationResult{}, err
	}

	for i := range m.Ingredients {
		if resolved[nameKey(m.Ingredients[i].Name)] == nil {
			// No totals are summed for a partially grounded meal, and the
			// model's own claims never survive aggregation.
			m.Totals = meal.NutrientTotals{}
			m.Macros = meal.MacroBreakdown{}
			m.FollowsTwoRules = false
			return meal.Invalid(fmt.Sprintf("ingredient %q was not found in the nutrient database", m.Ingredients[i].Name)), nil
		}
	}

	totals := meal.NutrientTotals{}
	for i := range m.Ingredients {
		ing := &m.Ingredients[i]
		r := resolved[nameKey(ing.Name)]

		grams, ok := v.resolver.GramsFor(ctx, r.Match.ID, ing.Amount, ing.Unit)
		if !ok {
			// Unit could not be resolved; treat the amount as grams.
			grams = ing.Amount
			v.logger.Debug("unresolvable unit, using amount as grams",
				zap.String("ingredient", ing.Name),
				zap.String("unit", ing.Unit))
		}
		scale := grams / 100

		ing.Fructose = r.Nutrients.Fructose * scale
		ing.Omega3 = r.Nutrients.Omega3 * scale
		ing.Omega6 = r.Nutrients.Omega6 * scale

		totals.Fructose += ing.Fructose
		totals.Omega3 += ing.Omega3
		totals.Omega6 += ing.Omega6
		totals.Protein += r.Nutrients.Protein * scale
		totals.Carbs += r.Nutrients.Carbs * scale
		totals.Fat += r.Nutrients.Fat * scale
		totals.Calories += r.Nutrients.Calories * scale
		totals.Iron += r.Nutrients.Iron * scale
		totals.Fiber += r.Nutrients.Fiber * scale
	}

	if opts.Supplement != nil {
		// Daily dose in mg, pro-rated to one meal's share, in grams.
		totals.Omega3 += opts.Supplement.TotalMilligrams() / 1000 / v.policy.MealsPerDay
	}

	totals.NetCarbs = totals.Carbs - totals.Fiber
	if totals.NetCarbs < 0 {
		totals.NetCarbs = 0
	}
	totals.OmegaRatio = v.policy.OmegaRatio(totals.Omega3, totals.Omega6)

	m.Totals = totals
	m.Macros = meal.ComputeMacroBreakdown(totals.Protein, totals.Carbs, totals.Fat)
	m.FollowsTwoRules = v.policy.FollowsTwoRules(totals.Fructose, totals.Omega3, totals.Omega6,
		opts.HasChronicCondition, m.Kind == meal.KindFullDay)

	return meal.Validated(), nil
}

// Validate aggregates and then applies the checks in fixed order: fructose
// ceiling, omega ratio band, protein floor, net-carb ceiling. The first
// failing check decides the reason fed back on retry.
func (v *Validator) Validate(ctx context.Context, m *meal.GeneratedMeal, opts meal.GenerationOptions) (meal.ValidationResult, error) {
	result, err := v.Aggregate(ctx, m, opts)
	if err != nil || !result.Valid {
		return result, err
	}

	isFullDay := m.Kind == meal.KindFullDay
	t := m.Totals

	if !v.policy.FructoseValid(t.Fructose, opts.HasChronicCondition, isFullDay) {
		return meal.Invalid(fmt.Sprintf("fructose total %.2f g exceeds the %.2f g limit",
			t.Fructose, v.policy.FructoseLimit(opts.HasChronicCondition, isFullDay))), nil
	}

	if !v.policy.OmegaRatioValid(t.Omega3, t.Omega6) {
		return meal.Invalid(fmt.Sprintf("omega-6 to omega-3 ratio %s is outside the allowed 1:%.2f to 1:%.2f band",
			t.OmegaRatio, v.policy.RatioMin, v.policy.RatioMax)), nil
	}

	if opts.ProteinGoal != nil && opts.ProteinGoal.Grams > 0 {
		target := opts.ProteinGoal.Grams
		if opts.ProteinGoal.PerDay && !isFullDay {
			target /= v.policy.MealsPerDay
		}
		if t.Protein < target {
			return meal.Invalid(fmt.Sprintf("protein %.1f g is below the %.1f g target",
				t.Protein, target)), nil
		}
	}

	if t.NetCarbs > v.policy.NetCarbLimit(isFullDay) {
		return meal.Invalid(fmt.Sprintf("net carbs %.1f g exceed the %.1f g limit",
			t.NetCarbs, v.policy.NetCarbLimit(isFullDay))), nil
	}

	return meal.Validated(), nil
}

// resolveAll looks up every distinct ingredient name concurrently. Duplicate
// names share one lookup.
func (v *Validator) resolveAll(ctx context.Context, ingredients []meal.Ingredient) (map[string]*food.Resolved, error) {
	unique := make([]string, 0, len(ingredients))
	seen := make(map[string]bool, len(ingredients))
	for _, ing := range ingredients {
		key := nameKey(ing.Name)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, ing.Name)
		}
	}

	results := make([]*food.Resolved, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range unique {
		i, name := i, name
		g.Go(func() error {
			r, err := v.resolver.Resolve(gctx, name)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := make(map[string]*food.Resolved, len(unique))
	for i, name := range unique {
		resolved[nameKey(name)] = results[i]
	}
	return resolved, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
