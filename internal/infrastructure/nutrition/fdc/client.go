// Package fdc provides the FoodData Central client behind the nutrient
// gateway. All requests pass through a shared rate limiter so parallel
// ingredient lookups stay inside the API quota.
package fdc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/platewise/v2/internal/domain/food"
	"github.com/platewise/v2/internal/infrastructure/config"
	"github.com/platewise/v2/internal/ports/outbound"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// UpstreamObserver records the latency of nutrient API calls. A nil observer
// disables instrumentation.
type UpstreamObserver interface {
	ObserveUpstream(service string, duration time.Duration)
}

// Client implements outbound.NutrientAPI against the FoodData Central
// REST API.
type Client struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	observer UpstreamObserver
	logger   *zap.Logger
}

var _ outbound.NutrientAPI = (*Client)(nil)

// NewClient creates a client from the nutrition configuration section.
// observer may be nil.
func NewClient(cfg config.NutritionConfig, observer UpstreamObserver, logger *zap.Logger) *Client {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		observer: observer,
		logger:   logger.Named("fdc"),
	}
}

type searchResponse struct {
	Foods []struct {
		FDCID        int64  `json:"fdcId"`
		Description  string `json:"description"`
		FoodCategory string `json:"foodCategory"`
	} `json:"foods"`
}

type abridgedFood struct {
	FoodNutrients []struct {
		Number   string  `json:"number"`
		Name     string  `json:"name"`
		UnitName string  `json:"unitName"`
		Amount   float64 `json:"amount"`
	} `json:"foodNutrients"`
}

type fullFood struct {
	FoodPortions []struct {
		ID                 int64   `json:"id"`
		PortionDescription string  `json:"portionDescription"`
		Modifier           string  `json:"modifier"`
		MeasureUnit        struct{ Name string } `json:"measureUnit"`
		GramWeight         float64 `json:"gramWeight"`
	} `json:"foodPortions"`
}

// Search queries /foods/search and returns matches in relevance order.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]food.Match, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{
		"query":    {term},
		"pageSize": {strconv.Itoa(limit)},
		"dataType": {"SR Legacy,Foundation"},
	}

	var resp searchResponse
	if err := c.get(ctx, "/foods/search", params, &resp); err != nil {
		return nil, err
	}

	matches := make([]food.Match, 0, len(resp.Foods))
	for _, f := range resp.Foods {
		matches = append(matches, food.Match{
			ID:          strconv.FormatInt(f.FDCID, 10),
			Description: f.Description,
			Group:       f.FoodCategory,
		})
	}
	c.logger.Debug("food search", zap.String("term", term), zap.Int("matches", len(matches)))
	return matches, nil
}

// FoodNutrients fetches the abridged food record and returns its per-100g
// nutrient rows.
func (c *Client) FoodNutrients(ctx context.Context, foodID string) ([]food.NutrientRecord, error) {
	var resp abridgedFood
	if err := c.get(ctx, "/food/"+url.PathEscape(foodID), url.Values{"format": {"abridged"}}, &resp); err != nil {
		return nil, err
	}

	records := make([]food.NutrientRecord, 0, len(resp.FoodNutrients))
	for _, n := range resp.FoodNutrients {
		records = append(records, food.NutrientRecord{
			Number: n.Number,
			Name:   n.Name,
			Unit:   n.UnitName,
			Amount: n.Amount,
		})
	}
	return records, nil
}

// Measures fetches the full food record and returns its portion conversions.
func (c *Client) Measures(ctx context.Context, foodID string) ([]food.Measure, error) {
	var resp fullFood
	if err := c.get(ctx, "/food/"+url.PathEscape(foodID), url.Values{"format": {"full"}}, &resp); err != nil {
		return nil, err
	}

	measures := make([]food.Measure, 0, len(resp.FoodPortions))
	for _, p := range resp.FoodPortions {
		description := p.PortionDescription
		if description == "" {
			description = p.Modifier
		}
		if description == "" {
			description = p.MeasureUnit.Name
		}
		measures = append(measures, food.Measure{
			ID:          strconv.FormatInt(p.ID, 10),
			Description: description,
			GramWeight:  p.GramWeight,
		})
	}
	return measures, nil
}

// get performs one rate-limited API call and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if c.observer != nil {
		c.observer.ObserveUpstream("fdc", time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("nutrient API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nutrient API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
