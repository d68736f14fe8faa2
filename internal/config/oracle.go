package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hivetechs/hive/internal/ai"
)

// OracleConfig holds configuration for the language-model oracle.
// The API key is never read from the config file.
type OracleConfig struct {
	APIKey string `yaml:"-"`

	// Model is the Anthropic model name
	// Default: ai.DefaultModel
	Model string `yaml:"model"`

	// MaxTokens caps each completion
	// Default: 2048
	MaxTokens int `yaml:"max_tokens"`

	// MaxConcurrent caps in-flight calls, 0 = unlimited
	// Default: 2
	MaxConcurrent int `yaml:"max_concurrent"`

	// RatePerMinute caps the sustained call rate, 0 = unlimited
	// Default: 30
	RatePerMinute float64 `yaml:"rate_per_minute"`

	// MaxRetries is the number of retries after the first attempt
	// Default: 2
	MaxRetries int `yaml:"max_retries"`

	// Timeout bounds each attempt
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// CircuitBreaker stops calling a failing API for a while
	// Default: true
	CircuitBreaker bool `yaml:"circuit_breaker"`
}

// DefaultOracleConfig returns the default oracle configuration
func DefaultOracleConfig() OracleConfig {
	retry := ai.DefaultRetryConfig()
	return OracleConfig{
		Model:          ai.DefaultModel,
		MaxTokens:      2048,
		MaxConcurrent:  retry.MaxConcurrentCalls,
		RatePerMinute:  retry.RatePerMinute,
		MaxRetries:     retry.MaxRetries,
		Timeout:        retry.Timeout,
		CircuitBreaker: retry.CircuitBreakerEnabled,
	}
}

// Enabled reports whether an API key is available. Without one the
// manager runs with every oracle call falling back locally.
func (c OracleConfig) Enabled() bool {
	return c.APIKey != ""
}

// Validate checks if the configuration has valid values
func (c OracleConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("oracle model cannot be empty")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("oracle max_tokens must be positive (got %d)", c.MaxTokens)
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("oracle max_concurrent cannot be negative (got %d)", c.MaxConcurrent)
	}
	if c.RatePerMinute < 0 {
		return fmt.Errorf("oracle rate_per_minute cannot be negative (got %.1f)", c.RatePerMinute)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("oracle max_retries must be between 0 and 10 (got %d)", c.MaxRetries)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("oracle timeout must be positive (got %v)", c.Timeout)
	}
	return nil
}

// String returns a human-readable representation of the config. The API
// key is reported only as present or absent.
func (c OracleConfig) String() string {
	return fmt.Sprintf(
		"OracleConfig{Enabled: %t, Model: %s, MaxTokens: %d, MaxConcurrent: %d, "+
			"RatePerMinute: %.1f, MaxRetries: %d, Timeout: %v, CircuitBreaker: %t}",
		c.Enabled(), c.Model, c.MaxTokens, c.MaxConcurrent,
		c.RatePerMinute, c.MaxRetries, c.Timeout, c.CircuitBreaker,
	)
}

// AIConfig converts the settings to the oracle adapter's config.
func (c OracleConfig) AIConfig(logger *zap.Logger) ai.Config {
	retry := ai.DefaultRetryConfig()
	retry.MaxConcurrentCalls = c.MaxConcurrent
	retry.RatePerMinute = c.RatePerMinute
	retry.MaxRetries = c.MaxRetries
	retry.Timeout = c.Timeout
	retry.CircuitBreakerEnabled = c.CircuitBreaker
	return ai.Config{
		APIKey:    c.APIKey,
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Retry:     retry,
		Logger:    logger,
	}
}

func (c *OracleConfig) applyEnv() error {
	if err := parseEnvString("ANTHROPIC_API_KEY", &c.APIKey); err != nil {
		return err
	}
	if err := parseEnvString("HIVE_ORACLE_MODEL", &c.Model); err != nil {
		return err
	}
	if err := parseEnvInt("HIVE_ORACLE_MAX_TOKENS", &c.MaxTokens); err != nil {
		return err
	}
	if err := parseEnvInt("HIVE_ORACLE_MAX_CONCURRENT", &c.MaxConcurrent); err != nil {
		return err
	}
	if err := parseEnvFloat("HIVE_ORACLE_RATE_PER_MINUTE", &c.RatePerMinute); err != nil {
		return err
	}
	if err := parseEnvInt("HIVE_ORACLE_MAX_RETRIES", &c.MaxRetries); err != nil {
		return err
	}
	if err := parseEnvDuration("HIVE_ORACLE_TIMEOUT", &c.Timeout); err != nil {
		return err
	}
	return parseEnvBool("HIVE_ORACLE_CIRCUIT_BREAKER", &c.CircuitBreaker)
}

// OracleConfigFromEnv creates an OracleConfig from environment variables,
// falling back to defaults
//
// Environment variables:
//   - ANTHROPIC_API_KEY: API key; without it the oracle is disabled
//   - HIVE_ORACLE_MODEL: Model name (default: ai.DefaultModel)
//   - HIVE_ORACLE_MAX_TOKENS: Completion cap (default: 2048)
//   - HIVE_ORACLE_MAX_CONCURRENT: In-flight call cap (default: 2)
//   - HIVE_ORACLE_RATE_PER_MINUTE: Call rate cap (default: 30)
//   - HIVE_ORACLE_MAX_RETRIES: Retries per call (default: 2)
//   - HIVE_ORACLE_TIMEOUT: Per-attempt timeout (default: 30s)
//   - HIVE_ORACLE_CIRCUIT_BREAKER: Enable the circuit breaker (default: true)
func OracleConfigFromEnv() (OracleConfig, error) {
	cfg := DefaultOracleConfig()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid oracle configuration from environment: %w", err)
	}

	return cfg, nil
}
