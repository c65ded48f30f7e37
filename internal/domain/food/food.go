// Package food holds the read models for the authoritative nutrient
// database: search matches, raw nutrient records, per-100g summaries and
// household measures.
package food

// Match is one hit from a food search.
type Match struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Group       string `json:"group,omitempty"`
}

// NutrientRecord is one raw nutrient line on a food, per 100 g of the food.
// Number is the database's nutrient identifier.
type NutrientRecord struct {
	Number string  `json:"number"`
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Amount float64 `json:"amount"`
}

// NutrientSummary is the per-100g snapshot the gateway derives for one food.
// Omega3 and Omega6 each sum several fatty-acid sub-species into a single
// figure; this is a deliberate simplification, not a biochemical claim.
// All values are grams per 100 g except Calories (kcal) and Iron (mg).
type NutrientSummary struct {
	Fructose float64 `json:"fructose"`
	Omega3   float64 `json:"omega3"`
	Omega6   float64 `json:"omega6"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Calories float64 `json:"calories"`
	Iron     float64 `json:"iron"`
	Fiber    float64 `json:"fiber"`
}

// Measure is a household unit conversion for a food.
type Measure struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	GramWeight  float64 `json:"gram_weight"`
}

// Resolved ties a database match to its nutrient summary. It is what the
// validator works with after resolving a model-suggested ingredient name.
type Resolved struct {
	Match     Match
	Nutrients NutrientSummary
}
