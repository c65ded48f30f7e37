// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/platewise/v2/internal/domain/rules"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	AI         AIConfig         `mapstructure:"ai"`
	Nutrition  NutritionConfig  `mapstructure:"nutrition"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AIConfig contains text-generation service configuration
type AIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// NutritionConfig contains nutrient database configuration
type NutritionConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	EnableCache       bool          `mapstructure:"enable_cache"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
}

// RulesConfig contains the tunable rule thresholds
type RulesConfig struct {
	RatioMin                  float64 `mapstructure:"ratio_min"`
	RatioMax                  float64 `mapstructure:"ratio_max"`
	DailyFructoseLimit        float64 `mapstructure:"daily_fructose_limit"`
	DailyFructoseLimitChronic float64 `mapstructure:"daily_fructose_limit_chronic"`
	MealNetCarbLimit          float64 `mapstructure:"meal_net_carb_limit"`
	DailyNetCarbLimit         float64 `mapstructure:"daily_net_carb_limit"`
	MealsPerDay               float64 `mapstructure:"meals_per_day"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool   `mapstructure:"enable_metrics"`
	MetricsPath     string `mapstructure:"metrics_path"`
	HealthCheckPath string `mapstructure:"health_check_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/platewise")
	}

	// Enable environment variable override
	v.SetEnvPrefix("PLATEWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Platewise")
	v.SetDefault("app.version", "2.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// AI defaults
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.max_tokens", 1500)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", "60s")

	// Nutrition database defaults
	v.SetDefault("nutrition.base_url", "https://api.nal.usda.gov/fdc/v1")
	v.SetDefault("nutrition.timeout", "10s")
	v.SetDefault("nutrition.requests_per_second", 5.0)
	v.SetDefault("nutrition.burst", 10)
	v.SetDefault("nutrition.enable_cache", false)
	v.SetDefault("nutrition.cache_ttl", "24h")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.pool_size", 10)

	// Rule threshold defaults
	defaults := rules.DefaultPolicy()
	v.SetDefault("rules.ratio_min", defaults.RatioMin)
	v.SetDefault("rules.ratio_max", defaults.RatioMax)
	v.SetDefault("rules.daily_fructose_limit", defaults.DailyFructoseLimit)
	v.SetDefault("rules.daily_fructose_limit_chronic", defaults.DailyFructoseLimitChronic)
	v.SetDefault("rules.meal_net_carb_limit", defaults.MealNetCarbLimit)
	v.SetDefault("rules.daily_net_carb_limit", defaults.DailyNetCarbLimit)
	v.SetDefault("rules.meals_per_day", defaults.MealsPerDay)

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.health_check_path", "/health")
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("ai.max_tokens must be positive")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be between 0 and 2")
	}
	if c.Nutrition.RequestsPerSecond <= 0 {
		return fmt.Errorf("nutrition.requests_per_second must be positive")
	}
	if c.Rules.MealsPerDay <= 0 {
		return fmt.Errorf("rules.meals_per_day must be positive")
	}
	if c.Rules.RatioMin > c.Rules.RatioMax {
		return fmt.Errorf("rules.ratio_min %v exceeds rules.ratio_max %v", c.Rules.RatioMin, c.Rules.RatioMax)
	}
	if c.Rules.DailyFructoseLimitChronic > c.Rules.DailyFructoseLimit {
		return fmt.Errorf("chronic fructose limit cannot exceed the standard limit")
	}
	return nil
}

// RulesPolicy maps the configured thresholds onto the domain policy.
func (c *Config) RulesPolicy() rules.Policy {
	return rules.Policy{
		RatioMin:                  c.Rules.RatioMin,
		RatioMax:                  c.Rules.RatioMax,
		DailyFructoseLimit:        c.Rules.DailyFructoseLimit,
		DailyFructoseLimitChronic: c.Rules.DailyFructoseLimitChronic,
		MealNetCarbLimit:          c.Rules.MealNetCarbLimit,
		DailyNetCarbLimit:         c.Rules.DailyNetCarbLimit,
		MealsPerDay:               c.Rules.MealsPerDay,
	}
}

// IsDevelopment returns true when running in the development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// RedisAddr returns the host:port address for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
