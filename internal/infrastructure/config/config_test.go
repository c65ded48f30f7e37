package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Platewise", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.nal.usda.gov/fdc/v1", cfg.Nutrition.BaseURL)
	assert.False(t, cfg.Nutrition.EnableCache)
	assert.True(t, cfg.Monitoring.EnableMetrics)
	assert.True(t, cfg.IsDevelopment())
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("PLATEWISE_SERVER_PORT", "9999")
	t.Setenv("PLATEWISE_RULES_MEALS_PER_DAY", "4")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.InDelta(t, 4, cfg.Rules.MealsPerDay, 1e-9)
}

func TestRulesPolicyMapping(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	policy := cfg.RulesPolicy()
	assert.InDelta(t, 1.5, policy.RatioMin, 1e-9)
	assert.InDelta(t, 2.9, policy.RatioMax, 1e-9)
	assert.InDelta(t, 25, policy.DailyFructoseLimit, 1e-9)
	assert.InDelta(t, 15, policy.DailyFructoseLimitChronic, 1e-9)
	assert.InDelta(t, 3, policy.MealsPerDay, 1e-9)
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Rules.RatioMin = 5
	cfg.Rules.RatioMax = 2
	assert.Error(t, cfg.Validate())

	cfg, _ = Load("")
	cfg.Rules.MealsPerDay = 0
	assert.Error(t, cfg.Validate())

	cfg, _ = Load("")
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestRedisAddr(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}
