// Package generation implements the meal generation pipeline: constraint
// composition, response parsing, validation against the 2 Rules, and the
// retry-bounded orchestration on top of the text-generation service.
package generation

import (
	"fmt"
	"strings"

	"github.com/platewise/v2/internal/domain/meal"
	"github.com/platewise/v2/internal/domain/rules"
)

// Composer maps a GenerationOptions configuration into the natural-language
// constraint specification sent to the text-generation service. Composition
// is deterministic for identical inputs; only the service response is not.
type Composer struct {
	policy rules.Policy
}

// NewComposer creates a composer bound to the given rule policy.
func NewComposer(policy rules.Policy) *Composer {
	return &Composer{policy: policy}
}

// SystemPrompt describes the labeled-section reply format the parser
// understands. It is shared by every generation mode.
func (c *Composer) SystemPrompt() string {
	return `You are a nutritionist creating meals for a diet-planning service.

Reply in plain text using exactly these labeled sections:

Meal: <meal name>
Ingredients:
- <amount> <unit> <ingredient name>
Instructions:
<numbered steps>
Fructose: <grams> g
Omega-3: <grams> g
Omega-6: <grams> g
Omega Ratio: 1:<x.xx>
Protein: <grams> g
Carbs: <grams> g
Fat: <grams> g
Calories: <kcal>
Iron: <mg> mg
Fiber: <grams> g
Net Carbs: <grams> g

Use common ingredient names that appear in nutrition databases. Give every
ingredient a numeric amount with a unit.`
}

// Compose builds the constraint specification for free generation.
func (c *Composer) Compose(opts meal.GenerationOptions) string {
	var b strings.Builder

	mealType := string(opts.MealType)
	if mealType == "" {
		mealType = "meal"
	}
	fmt.Fprintf(&b, "Create a %s for %d portion(s).\n", mealType, opts.PortionsOrDefault())

	c.writeConstraints(&b, opts)
	c.writeReportSections(&b, opts)
	return b.String()
}

// ComposeRetry prepends the prior failure reason verbatim so the service can
// self-correct, then restates the full constraint specification.
func (c *Composer) ComposeRetry(opts meal.GenerationOptions, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The previous meal was rejected: %s\n", reason)
	b.WriteString("Generate a corrected meal that fixes this problem.\n\n")
	b.WriteString(c.Compose(opts))
	return b.String()
}

// ComposeFromIngredients builds the ingredient-constrained (meal-builder)
// request: the supplied ingredients are prepended with an instruction to use
// them and add others only if required.
func (c *Composer) ComposeFromIngredients(opts meal.GenerationOptions, ingredients []meal.Ingredient) string {
	var b strings.Builder
	b.WriteString("Build a meal from these ingredients, adding others only if required:\n")
	for _, ing := range ingredients {
		if ing.Amount > 0 && ing.Unit != "" {
			fmt.Fprintf(&b, "- %g %s %s\n", ing.Amount, ing.Unit, ing.Name)
		} else {
			fmt.Fprintf(&b, "- %s\n", ing.Name)
		}
	}
	b.WriteString("\n")
	b.WriteString(c.Compose(opts))
	return b.String()
}

// ComposeSwap builds the short replacement request for one ingredient.
func (c *Composer) ComposeSwap(m *meal.GeneratedMeal, index int) string {
	ing := m.Ingredients[index]
	var b strings.Builder
	fmt.Fprintf(&b, "In the meal %q, suggest a single replacement for %q ", m.Name, ing.Name)
	b.WriteString("with similar or lower omega-6 and fructose content. ")
	b.WriteString("Answer with one sentence naming the replacement ingredient.")
	return b.String()
}

// writeConstraints appends the constraint clauses in their fixed order:
// rule targets, protein floor, meat sourcing, exclusions, inclusions, iron
// directive, medication interactions, calorie sufficiency, net-carb ceiling.
func (c *Composer) writeConstraints(b *strings.Builder, opts meal.GenerationOptions) {
	if !opts.WithoutRules {
		fmt.Fprintf(b, "Keep the omega-6 to omega-3 ratio between 1:%.2f and 1:%.2f.\n",
			c.policy.RatioMin, c.policy.RatioMax)
		fmt.Fprintf(b, "Keep total fructose at or under %.2f g for this meal.\n",
			c.policy.FructoseLimit(opts.HasChronicCondition, false))
	}

	if opts.ProteinGoal != nil && opts.ProteinGoal.Grams > 0 {
		scope := "this meal"
		if opts.ProteinGoal.PerDay {
			scope = "the day"
		}
		fmt.Fprintf(b, "Provide at least %.0f g of protein for %s.\n", opts.ProteinGoal.Grams, scope)
	}

	if opts.GrassFedPreferred {
		b.WriteString("Prefer grass-fed and pasture-raised meat.\n")
	}

	if len(opts.Allergies) > 0 {
		fmt.Fprintf(b, "Strictly exclude these allergens: %s.\n", strings.Join(opts.Allergies, ", "))
	}

	inclusions := append([]string{}, opts.DietaryPreferences...)
	if opts.DietaryPreset != "" {
		inclusions = append(inclusions, opts.DietaryPreset)
	}
	if len(inclusions) > 0 {
		fmt.Fprintf(b, "Follow these dietary preferences: %s.\n", strings.Join(inclusions, ", "))
	}

	// The directive is inverted: a low iron level asks for iron-rich meals.
	switch opts.IronLevel {
	case meal.IronLevelLow:
		b.WriteString("The user has low iron levels; favor iron-rich ingredients.\n")
	case meal.IronLevelHigh:
		b.WriteString("The user has high iron levels; avoid iron-rich ingredients.\n")
	}

	if len(opts.Medications) > 0 {
		fmt.Fprintf(b, "Avoid ingredients known to interact with these medications: %s.\n",
			strings.Join(opts.Medications, ", "))
	}

	if opts.WeightValue > 0 && opts.Age > 0 {
		fmt.Fprintf(b, "Make the meal calorically adequate for a %d-year-old %s weighing %g %s.\n",
			opts.Age, orUnspecified(opts.Sex), opts.WeightValue, orDefault(opts.WeightUnit, "kg"))
	}

	if !opts.WithoutRules {
		fmt.Fprintf(b, "Keep net carbs (carbs minus fiber) at or under %.0f g.\n",
			c.policy.NetCarbLimit(false))
	}
}

// writeReportSections appends the trailing list of requested report sections.
func (c *Composer) writeReportSections(b *strings.Builder, opts meal.GenerationOptions) {
	sections := []string{}
	if opts.IncludeInstructions {
		sections = append(sections, "preparation instructions")
	}
	if opts.IncludeMacros {
		sections = append(sections, "a macronutrient breakdown")
	}
	if opts.IncludeHeavyMetals {
		sections = append(sections, "a heavy-metal estimate (mercury, lead, cadmium, arsenic)")
	}
	if len(sections) > 0 {
		fmt.Fprintf(b, "Include %s.\n", strings.Join(sections, ", "))
	}
}

func orUnspecified(s string) string {
	if s == "" {
		return "person"
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
