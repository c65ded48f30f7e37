package generation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/platewise/v2/internal/domain/meal"
)

// Parser extracts a candidate meal from the service's free-text reply using
// labeled-section pattern matching. It is built as a set of independent
// extractors, one per field, so a malformed response degrades field by field
// instead of all-or-nothing. Parser output is provisional: nutrient figures
// are the model's own claims and are replaced during validation.
type Parser struct{}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

var (
	mealLabelRe = regexp.MustCompile(`(?mi)^\s*meal(?:\s+name)?\s*:\s*(.+?)\s*$`)
	bulletRe    = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)
	quantityRe  = regexp.MustCompile(`^(\d+\s*/\s*\d+|\d+(?:\.\d+)?)\s*(?:([A-Za-z]+)\s+)?(.+)$`)
	sectionRe   = regexp.MustCompile(`(?i)^\s*([A-Za-z][A-Za-z 0-9-]*?)\s*:`)
	ratioRe     = regexp.MustCompile(`(?mi)^\s*(?:omega\s*)?ratio\s*:\s*1\s*:\s*(\d+(?:\.\d+)?)`)
	metalRe     = regexp.MustCompile(`(?mi)^\s*[-*•]?\s*(mercury|lead|cadmium|arsenic)\s*:\s*(\d+(?:\.\d+)?)`)
)

// Parse assembles a provisional GeneratedMeal from the reply text. It fails
// with meal.ErrParseFailure only when no ingredient list could be extracted
// at all; every other missing field falls back to its zero value.
func (p *Parser) Parse(text string, opts meal.GenerationOptions) (*meal.GeneratedMeal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, meal.ErrParseFailure
	}

	ingredients, ok := extractIngredients(text)
	if !ok || len(ingredients) == 0 {
		return nil, meal.ErrParseFailure
	}

	name, _ := extractName(text)
	instructions, _ := extractInstructions(text)

	protein, _ := extractNumber(text, "protein")
	carbs, _ := extractNumber(text, "carbs", "carbohydrates")
	fat, _ := extractNumber(text, "fat")
	fructose, _ := extractNumber(text, "fructose")
	omega3, _ := extractNumber(text, `omega[\s-]?3`)
	omega6, _ := extractNumber(text, `omega[\s-]?6`)
	calories, _ := extractNumber(text, "calories")
	iron, _ := extractNumber(text, "iron")
	fiber, _ := extractNumber(text, "fiber")
	netCarbs, _ := extractNumber(text, `net\s*carbs`)
	ratio, _ := extractRatio(text)

	m := &meal.GeneratedMeal{
		ID:           uuid.New(),
		Name:         name,
		Kind:         meal.KindSingle,
		MealType:     opts.MealType,
		Ingredients:  ingredients,
		Instructions: instructions,
		Totals: meal.NutrientTotals{
			Fructose:   fructose,
			Omega3:     omega3,
			Omega6:     omega6,
			OmegaRatio: ratio,
			Protein:    protein,
			Carbs:      carbs,
			Fat:        fat,
			Calories:   calories,
			Iron:       iron,
			Fiber:      fiber,
			NetCarbs:   netCarbs,
		},
		HeavyMetals: extractHeavyMetals(text),
		Macros:      meal.ComputeMacroBreakdown(protein, carbs, fat),
		Portions:    opts.PortionsOrDefault(),
	}
	return m, nil
}

// extractName takes the "Meal:" label when present, otherwise the first
// non-empty line.
func extractName(text string) (string, bool) {
	if m := mealLabelRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "#* "))
		if line != "" {
			return line, true
		}
	}
	return "", false
}

// extractIngredients collects the bullet lines of the "Ingredients:" block,
// splitting each into leading quantity+unit and remaining name. A line with
// no quantity pattern falls back to amount 1, unit "serving".
func extractIngredients(text string) ([]meal.Ingredient, bool) {
	block, ok := extractBlock(text, "ingredients")
	if !ok {
		return nil, false
	}

	var ingredients []meal.Ingredient
	for _, line := range block {
		line = bulletRe.ReplaceAllString(strings.TrimSpace(line), "")
		if line == "" {
			continue
		}
		ingredients = append(ingredients, parseIngredientLine(line))
	}
	return ingredients, len(ingredients) > 0
}

func parseIngredientLine(line string) meal.Ingredient {
	m := quantityRe.FindStringSubmatch(line)
	if m == nil {
		return meal.Ingredient{Name: line, Amount: 1, Unit: "serving"}
	}

	amount := parseAmount(m[1])
	unit := strings.ToLower(strings.TrimSpace(m[2]))
	name := strings.TrimSpace(m[3])

	// "2 eggs" style: the captured unit is really the name.
	if name == "" && unit != "" {
		name = unit
		unit = "serving"
	}
	if unit == "" {
		unit = "serving"
	}
	if strings.EqualFold(unit, "of") {
		// "2 of the apples" style: "of" is not a unit.
		unit = "serving"
	}
	// "1 cup of rice": the regex captures "cup" as the unit and the "of"
	// sticks to the name.
	if rest, ok := strings.CutPrefix(name, "of "); ok {
		name = strings.TrimSpace(rest)
	}
	return meal.Ingredient{Name: name, Amount: amount, Unit: unit}
}

// parseAmount handles decimals and simple fractions like "1/2".
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, errN := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, errD := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if errN == nil && errD == nil && d != 0 {
			return n / d
		}
		return 1
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 1
	}
	return v
}

// extractInstructions joins the "Instructions:" block back into text.
func extractInstructions(text string) (string, bool) {
	block, ok := extractBlock(text, "instructions")
	if !ok {
		return "", false
	}
	joined := strings.TrimSpace(strings.Join(block, "\n"))
	return joined, joined != ""
}

// knownLabels terminate a block when they start a line.
var knownLabels = map[string]bool{
	"meal": true, "ingredients": true, "instructions": true,
	"fructose": true, "omega-3": true, "omega 3": true, "omega3": true,
	"omega-6": true, "omega 6": true, "omega6": true,
	"omega ratio": true, "ratio": true,
	"protein": true, "carbs": true, "carbohydrates": true, "fat": true,
	"calories": true, "iron": true, "fiber": true, "net carbs": true,
	"heavy metals": true,
}

// extractBlock returns the lines between "<label>:" and the next known label
// or trailing blank gap.
func extractBlock(text, label string) ([]string, bool) {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			if strings.EqualFold(strings.TrimSpace(m[1]), label) {
				start = i + 1
				break
			}
		}
	}
	if start < 0 {
		return nil, false
	}

	var block []string
	blanks := 0
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks > 1 {
				break
			}
			continue
		}
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			if knownLabels[strings.ToLower(strings.TrimSpace(m[1]))] {
				break
			}
		}
		blanks = 0
		block = append(block, line)
	}
	return block, true
}

// extractNumber finds the first "<label>: <value>" line for any of the given
// label patterns.
func extractNumber(text string, labels ...string) (float64, bool) {
	for _, label := range labels {
		re := regexp.MustCompile(`(?mi)^\s*` + label + `\s*:\s*~?\s*(\d+(?:\.\d+)?)`)
		if m := re.FindStringSubmatch(text); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// extractRatio reads a reported "1:x.xx" ratio line.
func extractRatio(text string) (string, bool) {
	if m := ratioRe.FindStringSubmatch(text); m != nil {
		return "1:" + m[1], true
	}
	return "", false
}

// extractHeavyMetals collects any reported heavy-metal lines. Returns nil
// when none are present.
func extractHeavyMetals(text string) map[string]float64 {
	matches := metalRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	metals := make(map[string]float64, len(matches))
	for _, m := range matches {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			metals[strings.ToLower(m[1])] = v
		}
	}
	return metals
}
