// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/platewise/v2/internal/domain/meal"
	"github.com/platewise/v2/internal/ports/inbound"
	"go.uber.org/zap"
)

// MealAPIHandlers handles the meal generation endpoints.
type MealAPIHandlers struct {
	mealService inbound.MealService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewMealAPIHandlers creates a new meal API handlers instance
func NewMealAPIHandlers(mealService inbound.MealService, logger *zap.Logger) *MealAPIHandlers {
	return &MealAPIHandlers{
		mealService: mealService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// generationOptionsRequest carries the caller-facing generation knobs.
type generationOptionsRequest struct {
	MealType string `json:"meal_type" validate:"omitempty,oneof=breakfast lunch dinner snack dessert"`
	Portions int    `json:"portions" validate:"omitempty,min=1,max=12"`

	ProteinGoal *struct {
		Grams  float64 `json:"grams" validate:"gt=0,lte=500"`
		PerDay bool    `json:"per_day"`
	} `json:"protein_goal,omitempty"`

	GrassFedPreferred  bool     `json:"grass_fed_preferred"`
	Allergies          []string `json:"allergies" validate:"omitempty,dive,min=1,max=64"`
	DietaryPreferences []string `json:"dietary_preferences" validate:"omitempty,dive,min=1,max=64"`
	DietaryPreset      string   `json:"dietary_preset" validate:"omitempty,max=64"`

	IronLevel   string   `json:"iron_level" validate:"omitempty,oneof=low normal high"`
	Medications []string `json:"medications" validate:"omitempty,dive,min=1,max=64"`

	WeightValue float64 `json:"weight_value" validate:"omitempty,gt=0,lte=700"`
	WeightUnit  string  `json:"weight_unit" validate:"omitempty,oneof=kg lb"`
	Age         int     `json:"age" validate:"omitempty,gt=0,lte=130"`
	Sex         string  `json:"sex" validate:"omitempty,max=32"`

	HasChronicCondition bool `json:"has_chronic_condition"`

	Supplement *struct {
		EPA float64 `json:"epa_mg" validate:"gte=0,lte=10000"`
		DHA float64 `json:"dha_mg" validate:"gte=0,lte=10000"`
		ALA float64 `json:"ala_mg" validate:"gte=0,lte=10000"`
	} `json:"omega3_supplement,omitempty"`

	IncludeInstructions bool `json:"include_instructions"`
	IncludeMacros       bool `json:"include_macros"`
	IncludeHeavyMetals  bool `json:"include_heavy_metals"`
}

func (req *generationOptionsRequest) toOptions() meal.GenerationOptions {
	opts := meal.GenerationOptions{
		MealType:            meal.Type(req.MealType),
		Portions:            req.Portions,
		GrassFedPreferred:   req.GrassFedPreferred,
		Allergies:           req.Allergies,
		DietaryPreferences:  req.DietaryPreferences,
		DietaryPreset:       req.DietaryPreset,
		IronLevel:           meal.IronLevel(req.IronLevel),
		Medications:         req.Medications,
		WeightValue:         req.WeightValue,
		WeightUnit:          req.WeightUnit,
		Age:                 req.Age,
		Sex:                 req.Sex,
		HasChronicCondition: req.HasChronicCondition,
		IncludeInstructions: req.IncludeInstructions,
		IncludeMacros:       req.IncludeMacros,
		IncludeHeavyMetals:  req.IncludeHeavyMetals,
	}
	if req.ProteinGoal != nil {
		opts.ProteinGoal = &meal.ProteinGoal{Grams: req.ProteinGoal.Grams, PerDay: req.ProteinGoal.PerDay}
	}
	if req.Supplement != nil {
		opts.Supplement = &meal.SupplementDose{EPA: req.Supplement.EPA, DHA: req.Supplement.DHA, ALA: req.Supplement.ALA}
	}
	return opts
}

type ingredientRequest struct {
	Name   string  `json:"name" validate:"required,min=1,max=128"`
	Amount float64 `json:"amount" validate:"omitempty,gt=0"`
	Unit   string  `json:"unit" validate:"omitempty,max=32"`
}

type buildMealRequest struct {
	generationOptionsRequest
	WithoutRules bool                `json:"without_rules"`
	Ingredients  []ingredientRequest `json:"ingredients" validate:"required,min=1,max=40,dive"`
}

type swapIngredientRequest struct {
	generationOptionsRequest
	Meal  *meal.GeneratedMeal `json:"meal" validate:"required"`
	Index int                 `json:"index" validate:"gte=0"`
}

// GenerateMeal handles POST /api/v1/meals/generate
func (h *MealAPIHandlers) GenerateMeal(w http.ResponseWriter, r *http.Request) {
	var req generationOptionsRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.mealService.GenerateMeal(r.Context(), req.toOptions())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: m, Message: "Meal generated successfully"})
}

// BuildMeal handles POST /api/v1/meals/build
func (h *MealAPIHandlers) BuildMeal(w http.ResponseWriter, r *http.Request) {
	var req buildMealRequest
	if !h.decode(w, r, &req) {
		return
	}

	opts := req.toOptions()
	opts.WithoutRules = req.WithoutRules

	ingredients := make([]meal.Ingredient, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		ingredients[i] = meal.Ingredient{Name: ing.Name, Amount: ing.Amount, Unit: ing.Unit}
	}

	m, err := h.mealService.BuildFromIngredients(r.Context(), opts, ingredients)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: m, Message: "Meal built successfully"})
}

// SwapIngredient handles POST /api/v1/meals/swap
func (h *MealAPIHandlers) SwapIngredient(w http.ResponseWriter, r *http.Request) {
	var req swapIngredientRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.mealService.SwapIngredient(r.Context(), req.Meal, req.Index, req.toOptions())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: m, Message: "Ingredient swapped successfully"})
}

// GenerateFullDay handles POST /api/v1/meals/full-day
func (h *MealAPIHandlers) GenerateFullDay(w http.ResponseWriter, r *http.Request) {
	var req generationOptionsRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.mealService.GenerateFullDay(r.Context(), req.toOptions())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: m})
}

// GenerateFullWeek handles POST /api/v1/meals/full-week
func (h *MealAPIHandlers) GenerateFullWeek(w http.ResponseWriter, r *http.Request) {
	var req generationOptionsRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.mealService.GenerateFullWeek(r.Context(), req.toOptions())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: m})
}

// decode unmarshals and validates a request body, writing the 400 itself.
func (h *MealAPIHandlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "invalid JSON body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return false
	}
	return true
}

// writeError maps pipeline errors onto HTTP status codes.
func (h *MealAPIHandlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case meal.IsExhaustedRetry(err), errors.Is(err, meal.ErrIngredientNotFound):
		h.writeJSON(w, http.StatusUnprocessableEntity, APIResponse{Success: false, Error: err.Error()})
	case errors.Is(err, meal.ErrIngredientIndex):
		h.writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
	case errors.Is(err, meal.ErrNotImplemented):
		h.writeJSON(w, http.StatusNotImplemented, APIResponse{Success: false, Error: err.Error()})
	case errors.Is(err, meal.ErrServiceUnavailable), errors.Is(err, meal.ErrParseFailure):
		h.logger.Error("upstream failure", zap.Error(err))
		h.writeJSON(w, http.StatusBadGateway, APIResponse{Success: false, Error: err.Error()})
	default:
		h.logger.Error("unhandled error", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: "internal error"})
	}
}

// writeJSON writes a JSON response with the given status code
func (h *MealAPIHandlers) writeJSON(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
