package config

import (
	"fmt"
)

// EventRetentionConfig holds configuration for mode event retention and cleanup
type EventRetentionConfig struct {
	// RetentionDays is the retention period for info and warning events (in days)
	// Default: 30, Range: 1-365
	RetentionDays int `yaml:"retention_days"`

	// RetentionErrorDays is the retention period for error events (in days)
	// Failed switches and hybrid runs are kept longer for analysis
	// Must be >= RetentionDays
	// Default: 90, Range: 1-730
	RetentionErrorDays int `yaml:"retention_error_days"`

	// GlobalLimitEvents is the maximum total number of events to keep
	// Cleanup is triggered at 95% of this limit
	// Default: 10000, Range: 100-1000000
	GlobalLimitEvents int `yaml:"global_limit_events"`

	// CleanupIntervalHours is how often a long-running session cleans up (in hours)
	// Default: 24, Range: 1-168 (1 week)
	CleanupIntervalHours int `yaml:"cleanup_interval_hours"`

	// CleanupBatchSize is the number of events to delete per statement
	// Default: 1000, Range: 100-10000
	CleanupBatchSize int `yaml:"cleanup_batch_size"`

	// CleanupEnabled controls whether automatic cleanup is enabled
	// Default: true
	CleanupEnabled bool `yaml:"cleanup_enabled"`

	// CleanupVacuum controls whether to run VACUUM after cleanup
	// Default: false
	CleanupVacuum bool `yaml:"cleanup_vacuum"`
}

// DefaultEventRetentionConfig returns the default event retention configuration
func DefaultEventRetentionConfig() EventRetentionConfig {
	return EventRetentionConfig{
		RetentionDays:        30,
		RetentionErrorDays:   90,
		GlobalLimitEvents:    10000,
		CleanupIntervalHours: 24,
		CleanupBatchSize:     1000,
		CleanupEnabled:       true,
		CleanupVacuum:        false,
	}
}

// Validate checks if the configuration has valid values
func (c EventRetentionConfig) Validate() error {
	if c.RetentionDays < 1 || c.RetentionDays > 365 {
		return fmt.Errorf("retention_days must be between 1 and 365 (got %d)", c.RetentionDays)
	}

	if c.RetentionErrorDays < 1 || c.RetentionErrorDays > 730 {
		return fmt.Errorf("retention_error_days must be between 1 and 730 (got %d)",
			c.RetentionErrorDays)
	}
	if c.RetentionErrorDays < c.RetentionDays {
		return fmt.Errorf("retention_error_days (%d) must be >= retention_days (%d)",
			c.RetentionErrorDays, c.RetentionDays)
	}

	if c.GlobalLimitEvents < 100 {
		return fmt.Errorf("global_limit_events must be at least 100 (got %d)",
			c.GlobalLimitEvents)
	}
	if c.GlobalLimitEvents > 1000000 {
		return fmt.Errorf("global_limit_events too large (got %d, max 1000000)",
			c.GlobalLimitEvents)
	}

	if c.CleanupIntervalHours < 1 {
		return fmt.Errorf("cleanup_interval_hours must be at least 1 (got %d)",
			c.CleanupIntervalHours)
	}
	if c.CleanupIntervalHours > 168 {
		return fmt.Errorf("cleanup_interval_hours too large (got %d, max 168)",
			c.CleanupIntervalHours)
	}

	if c.CleanupBatchSize < 100 {
		return fmt.Errorf("cleanup_batch_size must be at least 100 (got %d)",
			c.CleanupBatchSize)
	}
	if c.CleanupBatchSize > 10000 {
		return fmt.Errorf("cleanup_batch_size too large (got %d, max 10000)",
			c.CleanupBatchSize)
	}

	return nil
}

// String returns a human-readable representation of the config
func (c EventRetentionConfig) String() string {
	return fmt.Sprintf(
		"EventRetentionConfig{RetentionDays: %d, RetentionErrorDays: %d, "+
			"GlobalLimit: %d, CleanupInterval: %dh, BatchSize: %d, Enabled: %t, Vacuum: %t}",
		c.RetentionDays, c.RetentionErrorDays, c.GlobalLimitEvents,
		c.CleanupIntervalHours, c.CleanupBatchSize, c.CleanupEnabled, c.CleanupVacuum,
	)
}

// GlobalTrigger is the event count at which global-limit cleanup starts.
func (c EventRetentionConfig) GlobalTrigger() int {
	return int(float64(c.GlobalLimitEvents) * 0.95)
}

// applyEnv overrides fields from environment variables.
func (c *EventRetentionConfig) applyEnv() error {
	if err := parseEnvInt("HIVE_EVENT_RETENTION_DAYS", &c.RetentionDays); err != nil {
		return err
	}
	if err := parseEnvInt("HIVE_EVENT_RETENTION_ERROR_DAYS", &c.RetentionErrorDays); err != nil {
		return err
	}
	if err := parseEnvInt("HIVE_EVENT_GLOBAL_LIMIT", &c.GlobalLimitEvents); err != nil {
		return err
	}
	if err := parseEnvInt("HIVE_EVENT_CLEANUP_INTERVAL_HOURS", &c.CleanupIntervalHours); err != nil {
		return err
	}
	if err := parseEnvInt("HIVE_EVENT_CLEANUP_BATCH_SIZE", &c.CleanupBatchSize); err != nil {
		return err
	}
	if err := parseEnvBool("HIVE_EVENT_CLEANUP_ENABLED", &c.CleanupEnabled); err != nil {
		return err
	}
	return parseEnvBool("HIVE_EVENT_CLEANUP_VACUUM", &c.CleanupVacuum)
}

// EventRetentionConfigFromEnv creates an EventRetentionConfig from environment variables,
// falling back to defaults
//
// Environment variables:
//   - HIVE_EVENT_RETENTION_DAYS: Retention period for info/warning events in days (default: 30)
//   - HIVE_EVENT_RETENTION_ERROR_DAYS: Retention period for error events in days (default: 90)
//   - HIVE_EVENT_GLOBAL_LIMIT: Maximum total events (default: 10000)
//   - HIVE_EVENT_CLEANUP_INTERVAL_HOURS: How often a session cleans up in hours (default: 24)
//   - HIVE_EVENT_CLEANUP_BATCH_SIZE: Events to delete per statement (default: 1000)
//   - HIVE_EVENT_CLEANUP_ENABLED: Enable automatic cleanup (default: true)
//   - HIVE_EVENT_CLEANUP_VACUUM: Run VACUUM after cleanup (default: false)
//
// Returns an error if any environment variable has an invalid value.
func EventRetentionConfigFromEnv() (EventRetentionConfig, error) {
	cfg := DefaultEventRetentionConfig()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid event retention configuration from environment: %w", err)
	}

	return cfg, nil
}
