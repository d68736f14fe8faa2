package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hivetechs/hive/internal/hybrid"
	"github.com/hivetechs/hive/internal/types"
)

var allEnvKeys = append([]string{
	"HIVE_DEFAULT_MODE",
	"HIVE_DETECTION_HISTORY_LIMIT",
	"HIVE_SWITCH_HISTORY_LIMIT",
	"HIVE_LEARNING_ENABLED",
	"HIVE_ADAPTATION_RATE",
	"HIVE_HYBRID_STRATEGY",
	"HIVE_AUTO_SWITCH_THRESHOLD",
	"HIVE_SNAPSHOT_TTL",
	"ANTHROPIC_API_KEY",
	"HIVE_ORACLE_MODEL",
	"HIVE_ORACLE_MAX_TOKENS",
	"HIVE_ORACLE_MAX_CONCURRENT",
	"HIVE_ORACLE_RATE_PER_MINUTE",
	"HIVE_ORACLE_MAX_RETRIES",
	"HIVE_ORACLE_TIMEOUT",
	"HIVE_ORACLE_CIRCUIT_BREAKER",
}, eventEnvKeys...)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestManagerConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg ManagerConfig)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg ManagerConfig) {
				if cfg != DefaultManagerConfig() {
					t.Errorf("cfg = %v, want defaults", cfg)
				}
			},
		},
		{
			name: "aliases and overrides",
			envVars: map[string]string{
				"HIVE_DEFAULT_MODE":          "plan",
				"HIVE_LEARNING_ENABLED":      "false",
				"HIVE_ADAPTATION_RATE":       "0.5",
				"HIVE_HYBRID_STRATEGY":       "quality",
				"HIVE_SNAPSHOT_TTL":          "2h",
				"HIVE_AUTO_SWITCH_THRESHOLD": "0.9",
			},
			check: func(t *testing.T, cfg ManagerConfig) {
				if cfg.DefaultMode != types.ModePlanning {
					t.Errorf("DefaultMode = %v, want planning", cfg.DefaultMode)
				}
				if cfg.LearningEnabled {
					t.Error("LearningEnabled = true, want false")
				}
				if cfg.AdaptationRate != 0.5 {
					t.Errorf("AdaptationRate = %v, want 0.5", cfg.AdaptationRate)
				}
				if cfg.HybridStrategy != hybrid.StrategyQuality {
					t.Errorf("HybridStrategy = %v, want quality", cfg.HybridStrategy)
				}
				if cfg.SnapshotTTL != 2*time.Hour {
					t.Errorf("SnapshotTTL = %v, want 2h", cfg.SnapshotTTL)
				}
				if cfg.AutoSwitchThreshold != 0.9 {
					t.Errorf("AutoSwitchThreshold = %v, want 0.9", cfg.AutoSwitchThreshold)
				}
			},
		},
		{
			name:    "unknown mode",
			envVars: map[string]string{"HIVE_DEFAULT_MODE": "turbo"},
			wantErr: true,
		},
		{
			name:    "unknown strategy",
			envVars: map[string]string{"HIVE_HYBRID_STRATEGY": "reckless"},
			wantErr: true,
		},
		{
			name:    "adaptation rate out of range",
			envVars: map[string]string{"HIVE_ADAPTATION_RATE": "1.5"},
			wantErr: true,
		},
		{
			name:    "history limit too small",
			envVars: map[string]string{"HIVE_SWITCH_HISTORY_LIMIT": "5"},
			wantErr: true,
		},
		{
			name:    "bad duration",
			envVars: map[string]string{"HIVE_SNAPSHOT_TTL": "a day"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := ManagerConfigFromEnv()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ManagerConfigFromEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestOracleConfigFromEnv(t *testing.T) {
	clearEnv(t)

	cfg, err := OracleConfigFromEnv()
	if err != nil {
		t.Fatalf("OracleConfigFromEnv() failed: %v", err)
	}
	if cfg.Enabled() {
		t.Error("Enabled() = true without an API key")
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-test-secret")
	t.Setenv("HIVE_ORACLE_MAX_CONCURRENT", "4")
	t.Setenv("HIVE_ORACLE_RATE_PER_MINUTE", "12")
	t.Setenv("HIVE_ORACLE_TIMEOUT", "5s")

	cfg, err = OracleConfigFromEnv()
	if err != nil {
		t.Fatalf("OracleConfigFromEnv() failed: %v", err)
	}
	if !cfg.Enabled() {
		t.Error("Enabled() = false with an API key")
	}
	if strings.Contains(cfg.String(), "sk-test-secret") {
		t.Errorf("String() leaks the API key: %s", cfg.String())
	}

	aiCfg := cfg.AIConfig(nil)
	if aiCfg.APIKey != "sk-test-secret" {
		t.Errorf("APIKey = %q", aiCfg.APIKey)
	}
	if aiCfg.Retry.MaxConcurrentCalls != 4 || aiCfg.Retry.RatePerMinute != 12 {
		t.Errorf("Retry throttling = %d/%v, want 4/12", aiCfg.Retry.MaxConcurrentCalls, aiCfg.Retry.RatePerMinute)
	}
	if aiCfg.Retry.Timeout != 5*time.Second {
		t.Errorf("Retry.Timeout = %v, want 5s", aiCfg.Retry.Timeout)
	}

	t.Setenv("HIVE_ORACLE_MAX_RETRIES", "20")
	if _, err := OracleConfigFromEnv(); err == nil {
		t.Error("expected error for max retries out of range")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Manager != DefaultManagerConfig() {
		t.Errorf("Manager = %v, want defaults", cfg.Manager)
	}
	if !cfg.Graph.IsDirectTransitionAllowed(types.ModePlanning, types.ModeExecution) {
		t.Error("default graph should allow planning -> execution")
	}
}

func TestLoadFileLayersOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
manager:
  default_mode: analysis
  hybrid_strategy: balanced
oracle:
  model: claude-test
  max_concurrent: 1
events:
  retention_days: 14
graph:
  edges:
    planning: [execution]
    execution: [planning]
  cooldowns:
    planning: 1s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Manager.DefaultMode != types.ModeAnalysis {
		t.Errorf("DefaultMode = %v, want analysis", cfg.Manager.DefaultMode)
	}
	if cfg.Manager.SwitchHistoryLimit != 500 {
		t.Errorf("SwitchHistoryLimit = %d, want default 500", cfg.Manager.SwitchHistoryLimit)
	}
	if !cfg.Manager.LearningEnabled {
		t.Error("LearningEnabled should keep its default when absent from the file")
	}
	if cfg.Oracle.Model != "claude-test" || cfg.Oracle.MaxConcurrent != 1 {
		t.Errorf("Oracle = %v", cfg.Oracle)
	}
	if cfg.Events.RetentionDays != 14 || cfg.Events.RetentionErrorDays != 90 {
		t.Errorf("Events = %v", cfg.Events)
	}
	if cfg.Graph.IsDirectTransitionAllowed(types.ModeHybrid, types.ModePlanning) {
		t.Error("file graph should replace the default edges")
	}
	if got := cfg.Graph.Cooldown(types.ModePlanning); got != time.Second {
		t.Errorf("Cooldown(planning) = %v, want 1s", got)
	}

	// environment wins over the file
	t.Setenv("HIVE_DEFAULT_MODE", "exec")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Manager.DefaultMode != types.ModeExecution {
		t.Errorf("DefaultMode = %v, want execution from env", cfg.Manager.DefaultMode)
	}
}

func TestLoadFileRejectsInvalidContent(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"malformed yaml", "manager: [", "failed to parse config YAML"},
		{"invalid mode", "manager:\n  default_mode: turbo\n", "default_mode"},
		{"invalid graph", "graph:\n  costs:\n    - {from: planning, to: execution, cost: 3}\n", "invalid graph section"},
		{"invalid retention", "events:\n  retention_days: 0\n", "retention_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Load() error = %q, want to contain %q", err, tt.errMsg)
			}
		})
	}
}
