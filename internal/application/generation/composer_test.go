package generation

import (
	"strings"
	"testing"

	"github.com/platewise/v2/internal/domain/meal"
	"github.com/platewise/v2/internal/domain/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeIncludesRuleTargets(t *testing.T) {
	c := NewComposer(rules.DefaultPolicy())

	prompt := c.Compose(meal.GenerationOptions{MealType: meal.TypeDinner})

	assert.Contains(t, prompt, "Create a dinner for 1 portion(s).")
	assert.Contains(t, prompt, "between 1:1.50 and 1:2.90")
	assert.Contains(t, prompt, "at or under 8.33 g for this meal")
	assert.Contains(t, prompt, "net carbs")
}

func TestComposeChronicConditionTightensFructose(t *testing.T) {
	c := NewComposer(rules.DefaultPolicy())

	prompt := c.Compose(meal.GenerationOptions{HasChronicCondition: true})

	assert.Contains(t, prompt, "at or under 5.00 g for this meal")
}

func TestComposeWithoutRulesOmitsRuleTargets(t *testing.T) {
	c := NewComposer(rules.DefaultPolicy())

	prompt := c.Compose(meal.GenerationOptions{WithoutRules: true})

	assert.NotContains(t, prompt, "omega-6 to omega-3")
	assert.NotContains(t, prompt, "fructose")
	assert.NotContains(t, prompt, "net carbs")
}

func TestComposeClauseOrderIsFixed(t *testing.T) {
	c := NewComposer(rules.DefaultPolicy())

	opts := meal.GenerationOptions{
		MealType:           meal.TypeLunch,
		ProteinGoal:        &meal.ProteinGoal{Grams: 40},
		GrassFedPreferred:  true,
		Allergies:          []string{"peanuts"},
		DietaryPreferences: []string{"mediterranean"},
		IronLevel:          meal.IronLevelLow,
		Medications:        []string{"warfarin"},
	}
	prompt := c.Compose(opts)

	positions := []int{
		strings.Index(prompt, "omega-6 to omega-3"),
		strings.Index(prompt, "40 g of protein"),
		strings.Index(prompt, "grass-fed"),
		strings.Index(prompt, "peanuts"),
		strings.Index(prompt, "mediterranean"),
		strings.Index(prompt, "low iron levels"),
		strings.Index(prompt, "warfarin"),
	}
	for i, pos := range positions {
		require.GreaterOrEqual(t, pos, 0, "clause %d missing", i)
		if i > 0 {
			assert.Greater(t, pos, positions[i-1], "clause %d out of order", i)
		}
	}
}

func TestComposeInvertsIronDirective(t *testing.T) {
	c := NewComposer(rules.DefaultPolicy())

	low := c.Compose(meal.GenerationOptions{IronLevel: meal.IronLevelLow})
	assert.Contains(t, low, "favor iron-rich ingredients")

	high := c.Compose(meal.GenerationOptions{IronLevel: meal.IronLevelHigh})
	assert.Contains(t, high, "avoid iron-rich ingredients")

	normal := c.Compose(meal.GenerationOptions{IronLevel: meal.IronLevelNormal})
	assert.NotContains(t, normal, "iron-rich")
}

func TestComposeRetryPrependsReasonVerbatim(t *testing.T) {
	c := NewComposer(rules.DefaultPolicy())
	opts := meal.GenerationOptions{MealType: meal.TypeBreakfast}

	reason := "omega-6 to omega-3 ratio 1:3.50 is outside the allowed 1:1.50 to 1:2.90 band"
	prompt := c.ComposeRetry(opts, reason)

	assert.True(t, strings.HasPrefix(prompt, "The previous meal was rejected: "+reason))
	assert.Contains(t, prompt, c.Compose(opts))
}

func TestComposeFromIngredientsListsInputsFirst(t *testing.T) {
	c := NewComposer(rules.DefaultPolicy())

	prompt := c.ComposeFromIngredients(meal.GenerationOptions{}, []meal.Ingredient{
		{Name: "chicken thighs", Amount: 200, Unit: "g"},
		{Name: "spinach"},
	})

	assert.Contains(t, prompt, "Build a meal from these ingredients")
	assert.Contains(t, prompt, "- 200 g chicken thighs")
	assert.Contains(t, prompt, "- spinach")
	assert.Less(t, strings.Index(prompt, "chicken thighs"), strings.Index(prompt, "Create a"))
}

func TestComposeSwapNamesMealAndIngredient(t *testing.T) {
	c := NewComposer(rules.DefaultPolicy())
	m := &meal.GeneratedMeal{
		Name:        "Herb Salmon Bowl",
		Ingredients: []meal.Ingredient{{Name: "salmon"}, {Name: "sunflower oil"}},
	}

	prompt := c.ComposeSwap(m, 1)

	assert.Contains(t, prompt, `"Herb Salmon Bowl"`)
	assert.Contains(t, prompt, `"sunflower oil"`)
	assert.Contains(t, prompt, "one sentence")
}

func TestComposePerDayProteinScope(t *testing.T) {
	c := NewComposer(rules.DefaultPolicy())

	prompt := c.Compose(meal.GenerationOptions{
		ProteinGoal: &meal.ProteinGoal{Grams: 120, PerDay: true},
	})

	assert.Contains(t, prompt, "120 g of protein for the day")
}
