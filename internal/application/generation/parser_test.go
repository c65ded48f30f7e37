package generation

import (
	"errors"
	"testing"

	"github.com/platewise/v2/internal/domain/meal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReply = `Meal: Grilled Salmon with Greens

Ingredients:
- 150 g salmon fillet
- 2 cups spinach
- 1 tbsp olive oil
- 1/2 avocado
- 2 eggs

Instructions:
1. Season the salmon and grill 4 minutes per side.
2. Wilt the spinach in olive oil.
3. Plate with sliced avocado.

Fructose: 1.2 g
Omega-3: 2.1 g
Omega-6: 3.5 g
Omega Ratio: 1:1.67
Protein: 38 g
Carbs: 9 g
Fat: 28 g
Calories: 520
Iron: 4.2 mg
Fiber: 6 g
Net Carbs: 3 g

Heavy Metals:
Mercury: 0.04
Lead: 0.01
`

func TestParseExtractsAllSections(t *testing.T) {
	p := NewParser()

	m, err := p.Parse(sampleReply, meal.GenerationOptions{MealType: meal.TypeDinner, Portions: 2})
	require.NoError(t, err)

	assert.Equal(t, "Grilled Salmon with Greens", m.Name)
	assert.Equal(t, meal.KindSingle, m.Kind)
	assert.Equal(t, meal.TypeDinner, m.MealType)
	assert.Equal(t, 2, m.Portions)

	require.Len(t, m.Ingredients, 5)
	assert.Equal(t, meal.Ingredient{Name: "salmon fillet", Amount: 150, Unit: "g"}, m.Ingredients[0])
	assert.Equal(t, meal.Ingredient{Name: "spinach", Amount: 2, Unit: "cups"}, m.Ingredients[1])
	assert.Equal(t, meal.Ingredient{Name: "olive oil", Amount: 1, Unit: "tbsp"}, m.Ingredients[2])
	assert.InDelta(t, 0.5, m.Ingredients[3].Amount, 1e-9)
	assert.Equal(t, "avocado", m.Ingredients[3].Name)
	assert.Equal(t, meal.Ingredient{Name: "eggs", Amount: 2, Unit: "serving"}, m.Ingredients[4])

	assert.Contains(t, m.Instructions, "grill 4 minutes")
	assert.InDelta(t, 1.2, m.Totals.Fructose, 1e-9)
	assert.InDelta(t, 2.1, m.Totals.Omega3, 1e-9)
	assert.InDelta(t, 3.5, m.Totals.Omega6, 1e-9)
	assert.Equal(t, "1:1.67", m.Totals.OmegaRatio)
	assert.InDelta(t, 38, m.Totals.Protein, 1e-9)
	assert.InDelta(t, 520, m.Totals.Calories, 1e-9)
	assert.InDelta(t, 3, m.Totals.NetCarbs, 1e-9)

	require.NotNil(t, m.HeavyMetals)
	assert.InDelta(t, 0.04, m.HeavyMetals["mercury"], 1e-9)
	assert.InDelta(t, 0.01, m.HeavyMetals["lead"], 1e-9)
	assert.NotContains(t, m.HeavyMetals, "cadmium")
}

func TestParseMacrosFromCalorieWeighting(t *testing.T) {
	p := NewParser()

	m, err := p.Parse(sampleReply, meal.GenerationOptions{})
	require.NoError(t, err)

	// 38g protein, 9g carbs, 28g fat: 152 + 36 + 252 = 440 kcal.
	assert.InDelta(t, 152.0/440*100, m.Macros.ProteinPct, 1e-9)
	assert.InDelta(t, 36.0/440*100, m.Macros.CarbsPct, 1e-9)
	assert.InDelta(t, 252.0/440*100, m.Macros.FatPct, 1e-9)
}

func TestParseFailsWithoutIngredients(t *testing.T) {
	p := NewParser()

	_, err := p.Parse("Meal: Mystery Stew\n\nNo list today.", meal.GenerationOptions{})
	assert.True(t, errors.Is(err, meal.ErrParseFailure))

	_, err = p.Parse("", meal.GenerationOptions{})
	assert.True(t, errors.Is(err, meal.ErrParseFailure))
}

func TestParseNameFallsBackToFirstLine(t *testing.T) {
	p := NewParser()

	m, err := p.Parse("Quick Veggie Omelette\nIngredients:\n- 3 eggs\n- 50 g cheese\n", meal.GenerationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Quick Veggie Omelette", m.Name)
}

func TestParseMissingNumericFieldsDefaultToZero(t *testing.T) {
	p := NewParser()

	m, err := p.Parse("Meal: Plain Rice\nIngredients:\n- 100 g rice\n", meal.GenerationOptions{})
	require.NoError(t, err)

	assert.Zero(t, m.Totals.Fructose)
	assert.Zero(t, m.Totals.Omega3)
	assert.Empty(t, m.Totals.OmegaRatio)
	assert.Nil(t, m.HeavyMetals)
	assert.Equal(t, meal.MacroBreakdown{}, m.Macros)
}

func TestParseIngredientLineVariants(t *testing.T) {
	cases := []struct {
		line string
		want meal.Ingredient
	}{
		{"200 g chicken breast", meal.Ingredient{Name: "chicken breast", Amount: 200, Unit: "g"}},
		{"1.5 cups brown rice", meal.Ingredient{Name: "brown rice", Amount: 1.5, Unit: "cups"}},
		{"1/4 cup walnuts", meal.Ingredient{Name: "walnuts", Amount: 0.25, Unit: "cup"}},
		{"1 cup of rice", meal.Ingredient{Name: "rice", Amount: 1, Unit: "cup"}},
		{"2 of the apples", meal.Ingredient{Name: "the apples", Amount: 2, Unit: "serving"}},
		{"a pinch of salt", meal.Ingredient{Name: "a pinch of salt", Amount: 1, Unit: "serving"}},
		{"3 carrots", meal.Ingredient{Name: "carrots", Amount: 3, Unit: "serving"}},
	}
	for _, tc := range cases {
		got := parseIngredientLine(tc.line)
		assert.Equal(t, tc.want, got, "line %q", tc.line)
	}
}

func TestParseNumberedIngredientList(t *testing.T) {
	p := NewParser()

	text := "Meal: Stir Fry\nIngredients:\n1. 100 g tofu\n2. 50 g broccoli\nInstructions:\nCook it.\n"
	m, err := p.Parse(text, meal.GenerationOptions{})
	require.NoError(t, err)

	require.Len(t, m.Ingredients, 2)
	assert.Equal(t, "tofu", m.Ingredients[0].Name)
	assert.Equal(t, "broccoli", m.Ingredients[1].Name)
}
