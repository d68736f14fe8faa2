// Package config loads hive settings. Values come from built-in defaults,
// then the project's YAML config file, then HIVE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hivetechs/hive/internal/transition"
)

// Config is the fully resolved configuration.
type Config struct {
	Manager ManagerConfig
	Oracle  OracleConfig
	Events  EventRetentionConfig
	Graph   *transition.Graph
}

// fileConfig mirrors the YAML layout:
//
//	manager:
//	  default_mode: planning
//	oracle:
//	  model: claude-sonnet-4-5-20250929
//	events:
//	  retention_days: 14
//	graph:
//	  edges: {planning: [execution]}
type fileConfig struct {
	Manager ManagerConfig        `yaml:"manager"`
	Oracle  OracleConfig         `yaml:"oracle"`
	Events  EventRetentionConfig `yaml:"events"`
	Graph   yaml.Node            `yaml:"graph"`
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() *Config {
	return &Config{
		Manager: DefaultManagerConfig(),
		Oracle:  DefaultOracleConfig(),
		Events:  DefaultEventRetentionConfig(),
		Graph:   transition.DefaultGraph(),
	}
}

// Load resolves the configuration. path may be empty or name a file that
// does not exist, in which case only defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Manager.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Oracle.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Events.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config file over the defaults without consulting
// the environment. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) parse(data []byte) error {
	file := fileConfig{
		Manager: c.Manager,
		Oracle:  c.Oracle,
		Events:  c.Events,
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	c.Manager = file.Manager
	c.Oracle = file.Oracle
	c.Events = file.Events

	if file.Graph.Kind != 0 {
		raw, err := yaml.Marshal(&file.Graph)
		if err != nil {
			return fmt.Errorf("failed to read graph section: %w", err)
		}
		graph, err := transition.ParseGraph(raw)
		if err != nil {
			return fmt.Errorf("invalid graph section: %w", err)
		}
		c.Graph = graph
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Manager.Validate(); err != nil {
		return fmt.Errorf("invalid manager configuration: %w", err)
	}
	if err := c.Oracle.Validate(); err != nil {
		return fmt.Errorf("invalid oracle configuration: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("invalid event retention configuration: %w", err)
	}
	if c.Graph == nil {
		return fmt.Errorf("mode graph is missing")
	}
	return nil
}
