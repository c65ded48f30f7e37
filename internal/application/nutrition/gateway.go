// Package nutrition provides the application layer over the authoritative
// nutrient database: food resolution, per-100g key-nutrient summaries with
// omega sub-species aggregation, and measure-based unit conversion.
package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/platewise/v2/internal/domain/food"
	"github.com/platewise/v2/internal/ports/outbound"
	"go.uber.org/zap"
)

// Nutrient numbers for the values the engine cares about, keyed the way the
// database reports them.
const (
	nutrientFructose = "212"
	nutrientProtein  = "203"
	nutrientCarbs    = "205"
	nutrientFat      = "204"
	nutrientEnergy   = "208"
	nutrientIron     = "303"
	nutrientFiber    = "291"
)

// Omega fatty-acid sub-species folded into single omega-3 and omega-6
// totals. Collapsing them is a deliberate simplification.
var (
	omega3Numbers = map[string]bool{
		"851": true, // 18:3 n-3 (ALA)
		"629": true, // 20:5 n-3 (EPA)
		"630": true, // 22:5 n-3 (DPA)
		"631": true, // 22:6 n-3 (DHA)
	}
	omega6Numbers = map[string]bool{
		"675": true, // 18:2 n-6 (LA)
		"853": true, // 20:3 n-6 (DGLA)
		"620": true, // 20:4 (AA)
	}
)

// Static gram factors for units that convert without a measure lookup.
// Liquids are approximated at water density.
var gramsPerUnit = map[string]float64{
	"g": 1, "gram": 1, "grams": 1,
	"kg": 1000, "kilogram": 1000, "kilograms": 1000,
	"mg": 0.001,
	"oz": 28.35, "ounce": 28.35, "ounces": 28.35,
	"lb": 453.59, "lbs": 453.59, "pound": 453.59, "pounds": 453.59,
	"ml": 1, "milliliter": 1, "milliliters": 1,
	"l": 1000, "liter": 1000, "liters": 1000,
}

// Gateway resolves model-suggested food names against the nutrient database
// and derives the summaries the validator consumes. It holds no per-call
// state; cross-call summary caching is optional and disabled when cache is
// nil.
type Gateway struct {
	api      outbound.NutrientAPI
	cache    outbound.CacheRepository
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewGateway creates a gateway over the given nutrient API. cache may be nil.
func NewGateway(api outbound.NutrientAPI, cache outbound.CacheRepository, cacheTTL time.Duration, logger *zap.Logger) *Gateway {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Gateway{
		api:      api,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.Named("nutrient-gateway"),
	}
}

// SearchFood returns database matches for a food name, best match first.
func (g *Gateway) SearchFood(ctx context.Context, name string) ([]food.Match, error) {
	matches, err := g.api.Search(ctx, name, 5)
	if err != nil {
		return nil, fmt.Errorf("food search %q: %w", name, err)
	}
	return matches, nil
}

// Resolve looks a food name up and returns its best match with key
// nutrients. A name with no database match returns (nil, nil): not-found is
// an expected outcome, not an error path, because model-suggested names
// frequently do not exist verbatim in the database.
func (g *Gateway) Resolve(ctx context.Context, name string) (*food.Resolved, error) {
	matches, err := g.SearchFood(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		g.logger.Debug("no database match for ingredient", zap.String("name", name))
		return nil, nil
	}

	match := matches[0]
	summary, err := g.KeyNutrients(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	return &food.Resolved{Match: match, Nutrients: *summary}, nil
}

// KeyNutrients returns the per-100g summary for a food, aggregating the
// omega-3 and omega-6 sub-species into single totals.
func (g *Gateway) KeyNutrients(ctx context.Context, foodID string) (*food.NutrientSummary, error) {
	if cached := g.cachedSummary(ctx, foodID); cached != nil {
		return cached, nil
	}

	records, err := g.api.FoodNutrients(ctx, foodID)
	if err != nil {
		return nil, fmt.Errorf("nutrients for food %s: %w", foodID, err)
	}

	summary := aggregate(records)
	g.storeSummary(ctx, foodID, summary)
	return summary, nil
}

// Measures returns the household unit conversions declared for a food.
func (g *Gateway) Measures(ctx context.Context, foodID string) ([]food.Measure, error) {
	measures, err := g.api.Measures(ctx, foodID)
	if err != nil {
		return nil, fmt.Errorf("measures for food %s: %w", foodID, err)
	}
	return measures, nil
}

// GramsFor converts a free-text amount and unit to grams for the given food.
// Mass and volume units convert through static factors; household units
// resolve against the food's declared measures. The second return value is
// false when the unit could not be resolved, in which case the caller falls
// back to treating the amount as grams.
func (g *Gateway) GramsFor(ctx context.Context, foodID string, amount float64, unit string) (float64, bool) {
	u := strings.ToLower(strings.TrimSpace(unit))
	if factor, ok := gramsPerUnit[u]; ok {
		return amount * factor, true
	}
	if u == "" {
		return 0, false
	}

	measures, err := g.Measures(ctx, foodID)
	if err != nil {
		g.logger.Warn("measure lookup failed, falling back to gram basis",
			zap.String("food_id", foodID),
			zap.Error(err))
		return 0, false
	}
	for _, m := range measures {
		if m.GramWeight <= 0 {
			continue
		}
		if strings.Contains(strings.ToLower(m.Description), u) {
			return amount * m.GramWeight, true
		}
	}
	return 0, false
}

func aggregate(records []food.NutrientRecord) *food.NutrientSummary {
	summary := &food.NutrientSummary{}
	for _, r := range records {
		amount := r.Amount
		// Fatty acids are occasionally reported in mg.
		if strings.EqualFold(r.Unit, "mg") && (omega3Numbers[r.Number] || omega6Numbers[r.Number]) {
			amount /= 1000
		}

		switch {
		case omega3Numbers[r.Number]:
			summary.Omega3 += amount
		case omega6Numbers[r.Number]:
			summary.Omega6 += amount
		case r.Number == nutrientFructose:
			summary.Fructose = amount
		case r.Number == nutrientProtein:
			summary.Protein = amount
		case r.Number == nutrientCarbs:
			summary.Carbs = amount
		case r.Number == nutrientFat:
			summary.Fat = amount
		case r.Number == nutrientEnergy:
			summary.Calories = amount
		case r.Number == nutrientIron:
			summary.Iron = amount
		case r.Number == nutrientFiber:
			summary.Fiber = amount
		}
	}
	return summary
}

func (g *Gateway) cachedSummary(ctx context.Context, foodID string) *food.NutrientSummary {
	if g.cache == nil {
		return nil
	}
	data, err := g.cache.Get(ctx, summaryCacheKey(foodID))
	if err != nil {
		return nil
	}
	var summary food.NutrientSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil
	}
	return &summary
}

func (g *Gateway) storeSummary(ctx context.Context, foodID string, summary *food.NutrientSummary) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, summaryCacheKey(foodID), data, g.cacheTTL); err != nil {
		g.logger.Debug("summary cache write failed", zap.String("food_id", foodID), zap.Error(err))
	}
}

func summaryCacheKey(foodID string) string {
	return "nutrition:summary:" + foodID
}
