package config

import (
	"fmt"
	"time"

	"github.com/hivetechs/hive/internal/hybrid"
	"github.com/hivetechs/hive/internal/types"
)

// ManagerConfig holds the tunables of the mode manager and its components.
type ManagerConfig struct {
	// DefaultMode is the mode a fresh project starts in
	// Default: hybrid
	DefaultMode types.ModeType `yaml:"default_mode"`

	// DetectionHistoryLimit bounds the learning detection history
	// Default: 1000, Range: 10-100000
	DetectionHistoryLimit int `yaml:"detection_history_limit"`

	// SwitchHistoryLimit bounds the learning switch history
	// Default: 500, Range: 10-100000
	SwitchHistoryLimit int `yaml:"switch_history_limit"`

	// LearningEnabled turns preference learning on or off
	// Default: true
	LearningEnabled bool `yaml:"learning_enabled"`

	// AdaptationRate is how strongly learned biases move per observation
	// Default: 0.3, Range: 0-1
	AdaptationRate float64 `yaml:"adaptation_rate"`

	// HybridStrategy selects how hybrid tasks allocate modes to segments
	// Default: adaptive
	HybridStrategy hybrid.Strategy `yaml:"hybrid_strategy"`

	// AutoSwitchThreshold is the detection confidence at which auto mode
	// switches without asking
	// Default: 0.7, Range: 0-1
	AutoSwitchThreshold float64 `yaml:"auto_switch_threshold"`

	// CompressionThreshold is the serialized context size (bytes) above
	// which snapshots are compressed
	// Default: 10240
	CompressionThreshold int `yaml:"compression_threshold"`

	// SnapshotTTL is how long a context snapshot can be restored
	// Default: 24h
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

// DefaultManagerConfig returns the default manager configuration
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		DefaultMode:           types.DefaultMode,
		DetectionHistoryLimit: 1000,
		SwitchHistoryLimit:    500,
		LearningEnabled:       true,
		AdaptationRate:        0.3,
		HybridStrategy:        hybrid.StrategyAdaptive,
		AutoSwitchThreshold:   0.7,
		CompressionThreshold:  10 * 1024,
		SnapshotTTL:           24 * time.Hour,
	}
}

// Validate checks if the configuration has valid values
func (c ManagerConfig) Validate() error {
	if !c.DefaultMode.IsValid() {
		return fmt.Errorf("default_mode %q is not a mode", c.DefaultMode)
	}
	if c.DetectionHistoryLimit < 10 || c.DetectionHistoryLimit > 100000 {
		return fmt.Errorf("detection_history_limit must be between 10 and 100000 (got %d)", c.DetectionHistoryLimit)
	}
	if c.SwitchHistoryLimit < 10 || c.SwitchHistoryLimit > 100000 {
		return fmt.Errorf("switch_history_limit must be between 10 and 100000 (got %d)", c.SwitchHistoryLimit)
	}
	if c.AdaptationRate < 0 || c.AdaptationRate > 1 {
		return fmt.Errorf("adaptation_rate must be between 0 and 1 (got %.2f)", c.AdaptationRate)
	}
	if _, err := hybrid.ParseStrategy(string(c.HybridStrategy)); err != nil {
		return err
	}
	if c.AutoSwitchThreshold < 0 || c.AutoSwitchThreshold > 1 {
		return fmt.Errorf("auto_switch_threshold must be between 0 and 1 (got %.2f)", c.AutoSwitchThreshold)
	}
	if c.CompressionThreshold < 0 {
		return fmt.Errorf("compression_threshold cannot be negative (got %d)", c.CompressionThreshold)
	}
	if c.SnapshotTTL <= 0 {
		return fmt.Errorf("snapshot_ttl must be positive (got %v)", c.SnapshotTTL)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c ManagerConfig) String() string {
	return fmt.Sprintf(
		"ManagerConfig{DefaultMode: %s, DetectionHistory: %d, SwitchHistory: %d, "+
			"Learning: %t, AdaptationRate: %.2f, HybridStrategy: %s, AutoSwitch: %.2f, "+
			"Compression: %dB, SnapshotTTL: %v}",
		c.DefaultMode, c.DetectionHistoryLimit, c.SwitchHistoryLimit,
		c.LearningEnabled, c.AdaptationRate, c.HybridStrategy, c.AutoSwitchThreshold,
		c.CompressionThreshold, c.SnapshotTTL,
	)
}

func (c *ManagerConfig) applyEnv() error {
	if err := parseEnvMode("HIVE_DEFAULT_MODE", &c.DefaultMode); err != nil {
		return err
	}
	if err := parseEnvInt("HIVE_DETECTION_HISTORY_LIMIT", &c.DetectionHistoryLimit); err != nil {
		return err
	}
	if err := parseEnvInt("HIVE_SWITCH_HISTORY_LIMIT", &c.SwitchHistoryLimit); err != nil {
		return err
	}
	if err := parseEnvBool("HIVE_LEARNING_ENABLED", &c.LearningEnabled); err != nil {
		return err
	}
	if err := parseEnvFloat("HIVE_ADAPTATION_RATE", &c.AdaptationRate); err != nil {
		return err
	}
	strategy := string(c.HybridStrategy)
	if err := parseEnvString("HIVE_HYBRID_STRATEGY", &strategy); err != nil {
		return err
	}
	c.HybridStrategy = hybrid.Strategy(strategy)
	if err := parseEnvFloat("HIVE_AUTO_SWITCH_THRESHOLD", &c.AutoSwitchThreshold); err != nil {
		return err
	}
	return parseEnvDuration("HIVE_SNAPSHOT_TTL", &c.SnapshotTTL)
}

// ManagerConfigFromEnv creates a ManagerConfig from environment variables,
// falling back to defaults
//
// Environment variables:
//   - HIVE_DEFAULT_MODE: Starting mode, name or alias (default: hybrid)
//   - HIVE_DETECTION_HISTORY_LIMIT: Detection records kept for learning (default: 1000)
//   - HIVE_SWITCH_HISTORY_LIMIT: Switch records kept for learning (default: 500)
//   - HIVE_LEARNING_ENABLED: Enable preference learning (default: true)
//   - HIVE_ADAPTATION_RATE: Bias adaptation rate (default: 0.3)
//   - HIVE_HYBRID_STRATEGY: adaptive, balanced, performance or quality (default: adaptive)
//   - HIVE_AUTO_SWITCH_THRESHOLD: Confidence needed for auto switching (default: 0.7)
//   - HIVE_SNAPSHOT_TTL: Snapshot lifetime (default: 24h)
func ManagerConfigFromEnv() (ManagerConfig, error) {
	cfg := DefaultManagerConfig()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid manager configuration from environment: %w", err)
	}

	return cfg, nil
}
