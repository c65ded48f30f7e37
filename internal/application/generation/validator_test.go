package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/platewise/v2/internal/domain/food"
	"github.com/platewise/v2/internal/domain/meal"
	"github.com/platewise/v2/internal/domain/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeResolver is a map-backed NutrientResolver. Per-100g summaries are keyed
// by lowercase food name; measure weights by food ID and unit.
type fakeResolver struct {
	mu       sync.Mutex
	foods    map[string]food.NutrientSummary
	measures map[string]map[string]float64
	err      error

	resolveCalls map[string]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		foods:        map[string]food.NutrientSummary{},
		measures:     map[string]map[string]float64{},
		resolveCalls: map[string]int{},
	}
}

func (f *fakeResolver) add(name string, summary food.NutrientSummary) *fakeResolver {
	f.foods[strings.ToLower(name)] = summary
	return f
}

func (f *fakeResolver) Resolve(ctx context.Context, name string) (*food.Resolved, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := strings.ToLower(strings.TrimSpace(name))
	f.resolveCalls[key]++
	summary, ok := f.foods[key]
	if !ok {
		return nil, nil
	}
	return &food.Resolved{
		Match:     food.Match{ID: "id-" + key, Description: name},
		Nutrients: summary,
	}, nil
}

func (f *fakeResolver) GramsFor(ctx context.Context, foodID string, amount float64, unit string) (float64, bool) {
	switch strings.ToLower(unit) {
	case "g", "gram", "grams":
		return amount, true
	case "kg":
		return amount * 1000, true
	}
	if weights, ok := f.measures[foodID]; ok {
		if w, ok := weights[strings.ToLower(unit)]; ok {
			return amount * w, true
		}
	}
	return 0, false
}

func salmonGreensResolver() *fakeResolver {
	return newFakeResolver().
		add("salmon", food.NutrientSummary{
			Omega3: 2.0, Omega6: 0.9, Protein: 20, Fat: 13, Calories: 208, Iron: 0.3,
		}).
		add("mixed greens", food.NutrientSummary{
			Fructose: 1.0, Omega6: 3.6, Protein: 2, Carbs: 5, Fiber: 2, Calories: 25, Iron: 1.1,
		})
}

func testMeal(ingredients ...meal.Ingredient) *meal.GeneratedMeal {
	return &meal.GeneratedMeal{
		ID:          uuid.New(),
		Name:        "Test Meal",
		Kind:        meal.KindSingle,
		Ingredients: ingredients,
		// Model-claimed figures that must be discarded.
		Totals: meal.NutrientTotals{Fructose: 99, Omega3: 99, Omega6: 99, Protein: 99},
	}
}

func newTestValidator(t *testing.T, r NutrientResolver) *Validator {
	return NewValidator(r, rules.DefaultPolicy(), zaptest.NewLogger(t))
}

func TestValidateOverwritesModelClaimsWithDatabaseValues(t *testing.T) {
	v := newTestValidator(t, salmonGreensResolver())
	m := testMeal(
		meal.Ingredient{Name: "salmon", Amount: 100, Unit: "g"},
		meal.Ingredient{Name: "mixed greens", Amount: 100, Unit: "g"},
	)

	result, err := v.Validate(context.Background(), m, meal.GenerationOptions{})
	require.NoError(t, err)
	assert.True(t, result.Valid)

	assert.InDelta(t, 1.0, m.Totals.Fructose, 1e-9)
	assert.InDelta(t, 2.0, m.Totals.Omega3, 1e-9)
	assert.InDelta(t, 4.5, m.Totals.Omega6, 1e-9)
	assert.Equal(t, "1:2.25", m.Totals.OmegaRatio)
	assert.InDelta(t, 22, m.Totals.Protein, 1e-9)
	assert.InDelta(t, 3, m.Totals.NetCarbs, 1e-9) // 5 carbs - 2 fiber
	assert.InDelta(t, 233, m.Totals.Calories, 1e-9)
	assert.True(t, m.FollowsTwoRules)

	// Per-ingredient contributions are overwritten too.
	assert.InDelta(t, 2.0, m.Ingredients[0].Omega3, 1e-9)
	assert.InDelta(t, 1.0, m.Ingredients[1].Fructose, 1e-9)
}

func TestValidateUnknownIngredientFailsBeforeSummation(t *testing.T) {
	v := newTestValidator(t, salmonGreensResolver())
	m := testMeal(
		meal.Ingredient{Name: "salmon", Amount: 100, Unit: "g"},
		meal.Ingredient{Name: "unicorn steak", Amount: 100, Unit: "g"},
	)

	result, err := v.Validate(context.Background(), m, meal.GenerationOptions{})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Reason, `"unicorn steak"`)
	assert.Contains(t, result.Reason, "not found")
	// Model-claimed totals are discarded, nothing is summed.
	assert.Equal(t, meal.NutrientTotals{}, m.Totals)
	assert.False(t, m.FollowsTwoRules)
}

func TestValidateResolverErrorIsAnError(t *testing.T) {
	r := salmonGreensResolver()
	r.err = errors.New("search timeout")
	v := newTestValidator(t, r)
	m := testMeal(meal.Ingredient{Name: "salmon", Amount: 100, Unit: "g"})

	_, err := v.Validate(context.Background(), m, meal.GenerationOptions{})
	assert.Error(t, err)
}

func TestValidateDuplicateNamesShareOneLookup(t *testing.T) {
	r := salmonGreensResolver()
	v := newTestValidator(t, r)
	m := testMeal(
		meal.Ingredient{Name: "salmon", Amount: 100, Unit: "g"},
		meal.Ingredient{Name: "Salmon", Amount: 50, Unit: "g"},
	)

	result, err := v.Aggregate(context.Background(), m, meal.GenerationOptions{})
	require.NoError(t, err)
	assert.True(t, result.Valid)

	assert.Equal(t, 1, r.resolveCalls["salmon"])
	assert.InDelta(t, 3.0, m.Totals.Omega3, 1e-9) // 2.0 + 1.0
}

func TestValidateUnresolvableUnitTreatsAmountAsGrams(t *testing.T) {
	v := newTestValidator(t, salmonGreensResolver())
	m := testMeal(meal.Ingredient{Name: "salmon", Amount: 200, Unit: "handful"})

	_, err := v.Aggregate(context.Background(), m, meal.GenerationOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 4.0, m.Totals.Omega3, 1e-9) // 200 "grams" of salmon
}

func TestValidateMeasureBasedConversion(t *testing.T) {
	r := salmonGreensResolver()
	r.measures["id-salmon"] = map[string]float64{"fillet": 170}
	v := newTestValidator(t, r)
	m := testMeal(meal.Ingredient{Name: "salmon", Amount: 1, Unit: "fillet"})

	_, err := v.Aggregate(context.Background(), m, meal.GenerationOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 3.4, m.Totals.Omega3, 1e-9) // 170g * 2.0/100g
}

func TestValidateSupplementProRatesDailyDose(t *testing.T) {
	v := newTestValidator(t, salmonGreensResolver())
	m := testMeal(meal.Ingredient{Name: "salmon", Amount: 100, Unit: "g"})

	opts := meal.GenerationOptions{
		Supplement: &meal.SupplementDose{EPA: 600, DHA: 400, ALA: 200},
	}
	_, err := v.Aggregate(context.Background(), m, opts)
	require.NoError(t, err)

	// 1200 mg/day -> 1.2 g / 3 meals = 0.4 g added.
	assert.InDelta(t, 2.4, m.Totals.Omega3, 1e-9)
}

func TestValidateFructoseCheckedBeforeRatio(t *testing.T) {
	r := newFakeResolver().add("fruit bomb", food.NutrientSummary{
		Fructose: 20, Omega6: 10, // fails both rules
	})
	v := newTestValidator(t, r)
	m := testMeal(meal.Ingredient{Name: "fruit bomb", Amount: 100, Unit: "g"})

	result, err := v.Validate(context.Background(), m, meal.GenerationOptions{})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Reason, "fructose")
	assert.NotContains(t, result.Reason, "ratio")
}

func TestValidateRatioReasonCitesMeasuredRatio(t *testing.T) {
	r := newFakeResolver().add("seed oil blend", food.NutrientSummary{
		Omega3: 2, Omega6: 7,
	})
	v := newTestValidator(t, r)
	m := testMeal(meal.Ingredient{Name: "seed oil blend", Amount: 100, Unit: "g"})

	result, err := v.Validate(context.Background(), m, meal.GenerationOptions{})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Reason, "1:3.50")
	assert.Contains(t, result.Reason, "1:1.50 to 1:2.90")
}

func TestValidateZeroOmega3NeverPasses(t *testing.T) {
	r := newFakeResolver().add("plain rice", food.NutrientSummary{Carbs: 28, Calories: 130})
	v := newTestValidator(t, r)
	m := testMeal(meal.Ingredient{Name: "plain rice", Amount: 50, Unit: "g"})

	result, err := v.Validate(context.Background(), m, meal.GenerationOptions{})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, "N/A", m.Totals.OmegaRatio)
	assert.False(t, m.FollowsTwoRules)
}

func TestValidateChronicConditionTightensCeiling(t *testing.T) {
	r := newFakeResolver().add("berry mix", food.NutrientSummary{
		Fructose: 6, Omega3: 2, Omega6: 4,
	})
	v := newTestValidator(t, r)

	// 6 g passes the 8.33 g default per-meal ceiling.
	m := testMeal(meal.Ingredient{Name: "berry mix", Amount: 100, Unit: "g"})
	result, err := v.Validate(context.Background(), m, meal.GenerationOptions{})
	require.NoError(t, err)
	assert.True(t, result.Valid)

	// The chronic ceiling is 5 g per meal.
	m = testMeal(meal.Ingredient{Name: "berry mix", Amount: 100, Unit: "g"})
	result, err = v.Validate(context.Background(), m, meal.GenerationOptions{HasChronicCondition: true})
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidatePerDayProteinGoalIsDivided(t *testing.T) {
	v := newTestValidator(t, salmonGreensResolver())
	// Passes the 2 Rules (ratio 1:2.25, fructose 1 g) with 22 g protein.
	m := testMeal(
		meal.Ingredient{Name: "salmon", Amount: 100, Unit: "g"},
		meal.Ingredient{Name: "mixed greens", Amount: 100, Unit: "g"},
	)

	opts := meal.GenerationOptions{ProteinGoal: &meal.ProteinGoal{Grams: 90, PerDay: true}}
	result, err := v.Validate(context.Background(), m, opts)
	require.NoError(t, err)

	assert.False(t, result.Valid) // 22 < 90/3
	assert.Contains(t, result.Reason, "protein")
	assert.Contains(t, result.Reason, "30.0 g target")
}

func TestValidateNetCarbsFloorAtZero(t *testing.T) {
	r := newFakeResolver().add("chia", food.NutrientSummary{
		Omega3: 17, Omega6: 6, Carbs: 8, Fiber: 34,
	})
	v := newTestValidator(t, r)
	m := testMeal(meal.Ingredient{Name: "chia", Amount: 100, Unit: "g"})

	_, err := v.Aggregate(context.Background(), m, meal.GenerationOptions{})
	require.NoError(t, err)

	assert.Zero(t, m.Totals.NetCarbs)
}
