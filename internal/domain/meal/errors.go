package meal

import (
	"errors"
	"fmt"
)

// Errors surfaced by the generation pipeline. Everything here is a normal,
// expected outcome given an unreliable upstream text source; nothing is
// fatal to the process.

var (
	// ErrServiceUnavailable wraps a failed or timed-out call to the
	// text-generation or nutrient-database service.
	ErrServiceUnavailable = errors.New("upstream service unavailable")

	// ErrParseFailure means no usable meal content could be extracted from
	// the model response. Inside the pipeline it feeds the single retry.
	ErrParseFailure = errors.New("no usable meal content in response")

	// ErrNotImplemented is returned by full-day and full-week generation,
	// which compose on the single-meal pipeline and are not built yet.
	ErrNotImplemented = errors.New("full-day and full-week generation are not implemented")

	// ErrIngredientIndex is returned when a swap targets an ingredient
	// position the meal does not have.
	ErrIngredientIndex = errors.New("ingredient index out of range")

	// ErrIngredientNotFound is returned when an ingredient cannot be
	// resolved in the nutrient database, such as a swap replacement the
	// database has never heard of.
	ErrIngredientNotFound = errors.New("ingredient not found in the nutrient database")
)

// ExhaustedRetryError is the terminal failure after both generation attempts
// were rejected. Reason carries the last validation failure verbatim so the
// calling layer can render it.
type ExhaustedRetryError struct {
	Reason string
}

func (e *ExhaustedRetryError) Error() string {
	return fmt.Sprintf("failed to generate a compliant meal after retry: %s", e.Reason)
}

// IsExhaustedRetry reports whether err is an ExhaustedRetryError.
func IsExhaustedRetry(err error) bool {
	var e *ExhaustedRetryError
	return errors.As(err, &e)
}
