package generation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/platewise/v2/internal/domain/meal"
	"github.com/platewise/v2/internal/ports/inbound"
	"github.com/platewise/v2/internal/ports/outbound"
	"go.uber.org/zap"
)

// Metrics receives pipeline counters. Implementations must be safe for
// concurrent use; a nil Metrics disables instrumentation.
type Metrics interface {
	GenerationAttempt(mode, outcome string)
	GenerationRetry(mode string)
	RetryExhausted(mode string)
}

// Service orchestrates the generation pipeline: compose a constraint
// specification, call the text-generation service, parse the reply, validate
// it against the nutrient database, and retry once with the failure reason
// fed back. It implements inbound.MealService.
type Service struct {
	textGen   outbound.TextGenerator
	composer  *Composer
	parser    *Parser
	validator *Validator
	metrics   Metrics
	logger    *zap.Logger
}

var _ inbound.MealService = (*Service)(nil)

// NewService wires the pipeline stages together. metrics may be nil.
func NewService(textGen outbound.TextGenerator, composer *Composer, parser *Parser, validator *Validator, metrics Metrics, logger *zap.Logger) *Service {
	return &Service{
		textGen:   textGen,
		composer:  composer,
		parser:    parser,
		validator: validator,
		metrics:   metrics,
		logger:    logger.Named("meal-service"),
	}
}

// GenerateMeal runs free generation with the single built-in retry. The
// upstream service is called at most twice per invocation.
func (s *Service) GenerateMeal(ctx context.Context, opts meal.GenerationOptions) (*meal.GeneratedMeal, error) {
	return s.generateChecked(ctx, opts, s.composer.Compose(opts), "generate")
}

// BuildFromIngredients generates a meal constrained to the supplied
// ingredients. With opts.WithoutRules the verdict is advisory: a single
// attempt is made, totals are still re-derived from the database, and the
// follows_2_rules flag records the outcome without causing rejection.
func (s *Service) BuildFromIngredients(ctx context.Context, opts meal.GenerationOptions, ingredients []meal.Ingredient) (*meal.GeneratedMeal, error) {
	prompt := s.composer.ComposeFromIngredients(opts, ingredients)
	if !opts.WithoutRules {
		return s.generateChecked(ctx, opts, prompt, "build")
	}

	m, result, err := s.attempt(ctx, opts, prompt, "build")
	if err != nil {
		return nil, err
	}
	if m == nil {
		// Nothing parseable even once; no retry in advisory mode.
		return nil, fmt.Errorf("%w: %s", meal.ErrParseFailure, result.Reason)
	}
	if !result.Valid {
		s.logger.Info("advisory validation failed",
			zap.String("meal", m.Name),
			zap.String("reason", result.Reason))
	}
	return m, nil
}

// SwapIngredient asks the service for a single replacement, substitutes it at
// the same amount and unit, and re-aggregates the totals from the database.
// Compliance is not enforced here; the caller reads the recomputed
// follows_2_rules flag.
func (s *Service) SwapIngredient(ctx context.Context, m *meal.GeneratedMeal, index int, opts meal.GenerationOptions) (*meal.GeneratedMeal, error) {
	if m == nil || index < 0 || index >= len(m.Ingredients) {
		return nil, meal.ErrIngredientIndex
	}

	raw, err := s.textGen.Complete(ctx, s.composer.SystemPrompt(), s.composer.ComposeSwap(m, index))
	if err != nil {
		s.countAttempt("swap", "upstream_error")
		return nil, fmt.Errorf("%w: %v", meal.ErrServiceUnavailable, err)
	}

	original := m.Ingredients[index]
	replacement := extractReplacement(raw, original.Name)
	if replacement == "" {
		s.countAttempt("swap", "parse_failure")
		return nil, fmt.Errorf("%w: no replacement suggestion for %q", meal.ErrParseFailure, original.Name)
	}

	swapped := cloneMeal(m)
	swapped.Ingredients[index] = meal.Ingredient{
		Name:   replacement,
		Amount: original.Amount,
		Unit:   original.Unit,
	}

	result, err := s.validator.Aggregate(ctx, swapped, opts)
	if err != nil {
		s.countAttempt("swap", "upstream_error")
		return nil, fmt.Errorf("%w: %v", meal.ErrServiceUnavailable, err)
	}
	if !result.Valid {
		s.countAttempt("swap", "rejected")
		return nil, fmt.Errorf("%w: %s", meal.ErrIngredientNotFound, result.Reason)
	}
	s.countAttempt("swap", "accepted")

	s.logger.Info("ingredient swapped",
		zap.String("meal", swapped.Name),
		zap.String("from", original.Name),
		zap.String("to", replacement))
	return swapped, nil
}

// GenerateFullDay composes on the single-meal pipeline and is not built yet.
func (s *Service) GenerateFullDay(ctx context.Context, opts meal.GenerationOptions) (*meal.GeneratedMeal, error) {
	return nil, meal.ErrNotImplemented
}

// GenerateFullWeek composes on the single-meal pipeline and is not built yet.
func (s *Service) GenerateFullWeek(ctx context.Context, opts meal.GenerationOptions) (*meal.GeneratedMeal, error) {
	return nil, meal.ErrNotImplemented
}

// generateChecked is the retry-bounded core shared by free generation and
// rule-enforced building. The failure reason from the first attempt is
// prepended verbatim to the retry request.
func (s *Service) generateChecked(ctx context.Context, opts meal.GenerationOptions, prompt, mode string) (*meal.GeneratedMeal, error) {
	m, result, err := s.attempt(ctx, opts, prompt, mode)
	if err != nil {
		return nil, err
	}
	if result.Valid {
		return m, nil
	}

	s.logger.Info("meal rejected, retrying once",
		zap.String("mode", mode),
		zap.String("reason", result.Reason))
	s.countRetry(mode)

	retryPrompt := s.composer.ComposeRetry(opts, result.Reason)
	m, result, err = s.attempt(ctx, opts, retryPrompt, mode)
	if err != nil {
		return nil, err
	}
	if result.Valid {
		return m, nil
	}

	s.countExhausted(mode)
	return nil, &meal.ExhaustedRetryError{Reason: result.Reason}
}

// attempt performs one complete-parse-validate round. A parse failure is a
// validation failure, not an error, so it feeds the retry like any rejected
// meal. The returned meal is nil only when parsing failed.
func (s *Service) attempt(ctx context.Context, opts meal.GenerationOptions, prompt, mode string) (*meal.GeneratedMeal, meal.ValidationResult, error) {
	raw, err := s.textGen.Complete(ctx, s.composer.SystemPrompt(), prompt)
	if err != nil {
		s.countAttempt(mode, "upstream_error")
		return nil, meal.ValidationResult{}, fmt.Errorf("%w: %v", meal.ErrServiceUnavailable, err)
	}

	m, err := s.parser.Parse(raw, opts)
	if err != nil {
		s.countAttempt(mode, "parse_failure")
		return nil, meal.Invalid("the response did not contain a usable meal with an ingredient list"), nil
	}

	result, err := s.validator.Validate(ctx, m, opts)
	if err != nil {
		s.countAttempt(mode, "upstream_error")
		return nil, meal.ValidationResult{}, fmt.Errorf("%w: %v", meal.ErrServiceUnavailable, err)
	}
	if result.Valid {
		s.countAttempt(mode, "accepted")
	} else {
		s.countAttempt(mode, "rejected")
	}
	return m, result, nil
}

func (s *Service) countAttempt(mode, outcome string) {
	if s.metrics != nil {
		s.metrics.GenerationAttempt(mode, outcome)
	}
}

func (s *Service) countRetry(mode string) {
	if s.metrics != nil {
		s.metrics.GenerationRetry(mode)
	}
}

func (s *Service) countExhausted(mode string) {
	if s.metrics != nil {
		s.metrics.RetryExhausted(mode)
	}
}

func cloneMeal(m *meal.GeneratedMeal) *meal.GeneratedMeal {
	clone := *m
	clone.Ingredients = make([]meal.Ingredient, len(m.Ingredients))
	copy(clone.Ingredients, m.Ingredients)
	if m.HeavyMetals != nil {
		clone.HeavyMetals = make(map[string]float64, len(m.HeavyMetals))
		for k, v := range m.HeavyMetals {
			clone.HeavyMetals[k] = v
		}
	}
	return &clone
}

// Replacement-sentence patterns tried in order against the swap reply.
var replacementRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)replace\s+.+?\s+with\s+(?:a\s+|an\s+|the\s+|some\s+)?([^.,;\n]+)`),
	regexp.MustCompile(`(?i)substitute\s+(?:a\s+|an\s+|the\s+|some\s+)?([^.,;\n]+?)\s+for\s`),
	regexp.MustCompile(`(?i)swap\s+.+?\s+for\s+(?:a\s+|an\s+|the\s+|some\s+)?([^.,;\n]+)`),
	regexp.MustCompile(`(?i)\buse\s+(?:a\s+|an\s+|the\s+|some\s+)?([^.,;\n]+?)\s+instead`),
	regexp.MustCompile(`(?i)\btry\s+(?:a\s+|an\s+|the\s+|some\s+)?([^.,;\n]+)`),
}

// extractReplacement pulls the suggested substitute out of a one-sentence
// swap reply. Falls back to the first non-empty line that is not just the
// original ingredient restated.
func extractReplacement(text, original string) string {
	for _, re := range replacementRes {
		if m := re.FindStringSubmatch(text); m != nil {
			if name := cleanIngredientName(m[1]); name != "" && !strings.EqualFold(name, original) {
				return name
			}
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = cleanIngredientName(bulletRe.ReplaceAllString(line, ""))
		if line != "" && !strings.EqualFold(line, original) {
			return line
		}
	}
	return ""
}

func cleanIngredientName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'.,;:!`)
	return strings.TrimSpace(s)
}
