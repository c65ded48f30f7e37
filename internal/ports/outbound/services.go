// Package outbound defines the interfaces for outbound ports (secondary/driven
// adapters). These are the contracts the engine uses to reach its external
// collaborators; adapters live under internal/infrastructure.
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/platewise/v2/internal/domain/food"
)

// TextGenerator is the text-generation service contract. It is treated as
// unreliable and non-deterministic: the only guarantee is that it returns
// text or fails. All structure is imposed downstream by the parser.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NutrientAPI is the authoritative nutrient database contract.
type NutrientAPI interface {
	// Search returns foods matching the term, best match first.
	Search(ctx context.Context, term string, limit int) ([]food.Match, error)

	// FoodNutrients returns the raw per-100g nutrient records for a food.
	FoodNutrients(ctx context.Context, foodID string) ([]food.NutrientRecord, error)

	// Measures returns the household unit conversions declared for a food.
	Measures(ctx context.Context, foodID string) ([]food.Measure, error)
}

// ErrCacheMiss signals an absent key; callers treat it as a normal outcome.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository is an optional byte cache used by the nutrient gateway for
// cross-call summary caching. A nil CacheRepository disables it.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
