package meal

// IronLevel describes the user's reported iron status. The composer inverts
// it: a low level asks for high-iron meals and vice versa.
type IronLevel string

const (
	IronLevelLow    IronLevel = "low"
	IronLevelNormal IronLevel = "normal"
	IronLevelHigh   IronLevel = "high"
)

// ProteinGoal is an optional protein floor in grams. PerDay goals are
// divided by the meals-per-day divisor before being checked against a
// single meal.
type ProteinGoal struct {
	Grams  float64 `json:"grams"`
	PerDay bool    `json:"per_day"`
}

// SupplementDose is a fixed daily omega-3 supplement in milligrams. Its
// contribution is pro-rated per meal during aggregation.
type SupplementDose struct {
	EPA float64 `json:"epa_mg"`
	DHA float64 `json:"dha_mg"`
	ALA float64 `json:"ala_mg"`
}

// TotalMilligrams returns the combined daily dose.
func (s SupplementDose) TotalMilligrams() float64 {
	return s.EPA + s.DHA + s.ALA
}

// GenerationOptions is the immutable configuration for one generation,
// swap or build call. It is supplied by the caller and never mutated by
// the engine.
type GenerationOptions struct {
	MealType Type `json:"meal_type"`
	Portions int  `json:"portions"`

	ProteinGoal *ProteinGoal `json:"protein_goal,omitempty"`

	GrassFedPreferred  bool     `json:"grass_fed_preferred"`
	Allergies          []string `json:"allergies,omitempty"`
	DietaryPreferences []string `json:"dietary_preferences,omitempty"`
	DietaryPreset      string   `json:"dietary_preset,omitempty"`

	IronLevel   IronLevel `json:"iron_level,omitempty"`
	Medications []string  `json:"medications,omitempty"`

	WeightValue float64 `json:"weight_value,omitempty"`
	WeightUnit  string  `json:"weight_unit,omitempty"`
	Age         int     `json:"age,omitempty"`
	Sex         string  `json:"sex,omitempty"`

	// HasChronicCondition drives the stricter fructose ceiling.
	HasChronicCondition bool `json:"has_chronic_condition"`

	Supplement *SupplementDose `json:"omega3_supplement,omitempty"`

	// WithoutRules makes validation advisory: the verdict is recorded on the
	// meal but never causes rejection or retry. Used by the meal builder.
	WithoutRules bool `json:"without_rules,omitempty"`

	// Requested report sections appended to the constraint specification.
	IncludeInstructions bool `json:"include_instructions"`
	IncludeMacros       bool `json:"include_macros"`
	IncludeHeavyMetals  bool `json:"include_heavy_metals"`
}

// PortionsOrDefault returns the portion count, defaulting to one.
func (o GenerationOptions) PortionsOrDefault() int {
	if o.Portions <= 0 {
		return 1
	}
	return o.Portions
}
