package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOmegaRatioFormatting(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, "1:2.00", p.OmegaRatio(2.0, 4.0))
	assert.Equal(t, "1:3.50", p.OmegaRatio(2.0, 7.0))
	assert.Equal(t, "1:0.00", p.OmegaRatio(1.0, 0.0))
}

func TestOmegaRatioUndefinedWithoutOmega3(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, "N/A", p.OmegaRatio(0, 4.0))
	assert.Equal(t, "N/A", p.OmegaRatio(-1, 4.0))
}

func TestOmegaRatioValidBand(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		omega3 float64
		omega6 float64
		want   bool
	}{
		{"inside band", 2.0, 4.0, true},
		{"lower boundary inclusive", 2.0, 3.0, true},  // 1.5
		{"upper boundary inclusive", 10.0, 29.0, true}, // 2.9
		{"below band", 2.0, 2.0, false},
		{"above band", 2.0, 7.0, false},
		{"zero omega3 always invalid", 0, 0, false},
		{"zero omega3 with omega6", 0, 5.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.OmegaRatioValid(tt.omega3, tt.omega6))
		})
	}
}

func TestFructoseLimitPerMealIsThirdOfDaily(t *testing.T) {
	p := DefaultPolicy()

	assert.InDelta(t, 5.0, p.FructoseLimit(true, false), 1e-9)
	assert.InDelta(t, 25.0/3.0, p.FructoseLimit(false, false), 1e-9)
	assert.InDelta(t, 15.0, p.FructoseLimit(true, true), 1e-9)
	assert.InDelta(t, 25.0, p.FructoseLimit(false, true), 1e-9)
}

func TestFructoseValidBoundaries(t *testing.T) {
	p := DefaultPolicy()

	// Chronic condition: daily 15 g, per-meal 5 g.
	assert.True(t, p.FructoseValid(5.0, true, false))
	assert.False(t, p.FructoseValid(5.01, true, false))

	assert.True(t, p.FructoseValid(25.0, false, true))
	assert.False(t, p.FructoseValid(25.01, false, true))
}

func TestFollowsTwoRules(t *testing.T) {
	p := DefaultPolicy()

	assert.True(t, p.FollowsTwoRules(3.0, 2.0, 4.0, false, false))
	// Ratio out of band.
	assert.False(t, p.FollowsTwoRules(3.0, 2.0, 7.0, false, false))
	// Fructose over the per-meal ceiling.
	assert.False(t, p.FollowsTwoRules(9.0, 2.0, 4.0, false, false))
}

func TestPolicyIsTunable(t *testing.T) {
	p := DefaultPolicy()
	p.RatioMax = 4.0

	assert.True(t, p.OmegaRatioValid(2.0, 7.0))
}
