package config

import (
	"strings"
	"testing"
)

var eventEnvKeys = []string{
	"HIVE_EVENT_RETENTION_DAYS",
	"HIVE_EVENT_RETENTION_ERROR_DAYS",
	"HIVE_EVENT_GLOBAL_LIMIT",
	"HIVE_EVENT_CLEANUP_INTERVAL_HOURS",
	"HIVE_EVENT_CLEANUP_BATCH_SIZE",
	"HIVE_EVENT_CLEANUP_ENABLED",
	"HIVE_EVENT_CLEANUP_VACUUM",
}

func TestEventRetentionConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg EventRetentionConfig)
	}{
		{
			name:    "no environment variables uses defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg EventRetentionConfig) {
				if cfg != DefaultEventRetentionConfig() {
					t.Errorf("cfg = %v, want defaults %v", cfg, DefaultEventRetentionConfig())
				}
			},
		},
		{
			name: "valid custom configuration",
			envVars: map[string]string{
				"HIVE_EVENT_RETENTION_DAYS":         "60",
				"HIVE_EVENT_RETENTION_ERROR_DAYS":   "180",
				"HIVE_EVENT_GLOBAL_LIMIT":           "200000",
				"HIVE_EVENT_CLEANUP_INTERVAL_HOURS": "12",
				"HIVE_EVENT_CLEANUP_BATCH_SIZE":     "500",
				"HIVE_EVENT_CLEANUP_ENABLED":        "false",
				"HIVE_EVENT_CLEANUP_VACUUM":         "true",
			},
			check: func(t *testing.T, cfg EventRetentionConfig) {
				if cfg.RetentionDays != 60 {
					t.Errorf("RetentionDays = %v, want 60", cfg.RetentionDays)
				}
				if cfg.RetentionErrorDays != 180 {
					t.Errorf("RetentionErrorDays = %v, want 180", cfg.RetentionErrorDays)
				}
				if cfg.GlobalLimitEvents != 200000 {
					t.Errorf("GlobalLimitEvents = %v, want 200000", cfg.GlobalLimitEvents)
				}
				if cfg.CleanupIntervalHours != 12 {
					t.Errorf("CleanupIntervalHours = %v, want 12", cfg.CleanupIntervalHours)
				}
				if cfg.CleanupBatchSize != 500 {
					t.Errorf("CleanupBatchSize = %v, want 500", cfg.CleanupBatchSize)
				}
				if cfg.CleanupEnabled {
					t.Errorf("CleanupEnabled = %v, want false", cfg.CleanupEnabled)
				}
				if !cfg.CleanupVacuum {
					t.Errorf("CleanupVacuum = %v, want true", cfg.CleanupVacuum)
				}
			},
		},
		{
			name:    "invalid int value",
			envVars: map[string]string{"HIVE_EVENT_RETENTION_DAYS": "not-a-number"},
			wantErr: true,
		},
		{
			name:    "invalid bool value",
			envVars: map[string]string{"HIVE_EVENT_CLEANUP_ENABLED": "maybe"},
			wantErr: true,
		},
		{
			name:    "retention days out of range - too low",
			envVars: map[string]string{"HIVE_EVENT_RETENTION_DAYS": "0"},
			wantErr: true,
		},
		{
			name:    "retention days out of range - too high",
			envVars: map[string]string{"HIVE_EVENT_RETENTION_DAYS": "400"},
			wantErr: true,
		},
		{
			name: "error retention less than regular retention",
			envVars: map[string]string{
				"HIVE_EVENT_RETENTION_DAYS":       "60",
				"HIVE_EVENT_RETENTION_ERROR_DAYS": "30",
			},
			wantErr: true,
		},
		{
			name:    "global limit too low",
			envVars: map[string]string{"HIVE_EVENT_GLOBAL_LIMIT": "50"},
			wantErr: true,
		},
		{
			name:    "cleanup interval too high",
			envVars: map[string]string{"HIVE_EVENT_CLEANUP_INTERVAL_HOURS": "200"},
			wantErr: true,
		},
		{
			name:    "batch size too low",
			envVars: map[string]string{"HIVE_EVENT_CLEANUP_BATCH_SIZE": "50"},
			wantErr: true,
		},
		{
			name: "partial configuration",
			envVars: map[string]string{
				"HIVE_EVENT_RETENTION_DAYS": "45",
				"HIVE_EVENT_GLOBAL_LIMIT":   "150000",
			},
			check: func(t *testing.T, cfg EventRetentionConfig) {
				if cfg.RetentionDays != 45 {
					t.Errorf("RetentionDays = %v, want 45", cfg.RetentionDays)
				}
				if cfg.GlobalLimitEvents != 150000 {
					t.Errorf("GlobalLimitEvents = %v, want 150000", cfg.GlobalLimitEvents)
				}
				defaults := DefaultEventRetentionConfig()
				if cfg.RetentionErrorDays != defaults.RetentionErrorDays {
					t.Errorf("RetentionErrorDays = %v, want %v (default)", cfg.RetentionErrorDays, defaults.RetentionErrorDays)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range eventEnvKeys {
				t.Setenv(key, "")
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := EventRetentionConfigFromEnv()
			if (err != nil) != tt.wantErr {
				t.Errorf("EventRetentionConfigFromEnv() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestEventRetentionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EventRetentionConfig)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "default config is valid",
			mutate: func(*EventRetentionConfig) {},
		},
		{
			name: "minimum valid values",
			mutate: func(c *EventRetentionConfig) {
				c.RetentionDays = 1
				c.RetentionErrorDays = 1
				c.GlobalLimitEvents = 100
				c.CleanupIntervalHours = 1
				c.CleanupBatchSize = 100
			},
		},
		{
			name:    "error retention below regular retention",
			mutate:  func(c *EventRetentionConfig) { c.RetentionErrorDays = 10 },
			wantErr: true,
			errMsg:  "must be >= retention_days",
		},
		{
			name:    "global limit too large",
			mutate:  func(c *EventRetentionConfig) { c.GlobalLimitEvents = 2000000 },
			wantErr: true,
			errMsg:  "global_limit_events too large",
		},
		{
			name:    "batch size too large",
			mutate:  func(c *EventRetentionConfig) { c.CleanupBatchSize = 20000 },
			wantErr: true,
			errMsg:  "cleanup_batch_size too large",
		},
		{
			name:    "cleanup interval zero",
			mutate:  func(c *EventRetentionConfig) { c.CleanupIntervalHours = 0 },
			wantErr: true,
			errMsg:  "cleanup_interval_hours must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEventRetentionConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want to contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestEventRetentionConfigString(t *testing.T) {
	str := DefaultEventRetentionConfig().String()

	expected := []string{
		"EventRetentionConfig",
		"RetentionDays: 30",
		"RetentionErrorDays: 90",
		"GlobalLimit: 10000",
		"CleanupInterval: 24h",
		"BatchSize: 1000",
		"Enabled: true",
		"Vacuum: false",
	}
	for _, exp := range expected {
		if !strings.Contains(str, exp) {
			t.Errorf("String() = %q, want to contain %q", str, exp)
		}
	}
}

func TestEventRetentionGlobalTrigger(t *testing.T) {
	cfg := DefaultEventRetentionConfig()
	if got := cfg.GlobalTrigger(); got != 9500 {
		t.Errorf("GlobalTrigger() = %d, want 9500", got)
	}
}
