// Package config provides simulation-harness configuration loading and
// access: run-level knobs such as default seed, cycle/time budgets, and
// telemetry cadence. It does not hold mix chemistry — that is mixspec.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// HarnessConfig holds run-level simulation knobs.
type HarnessConfig struct {
	DefaultSeed       int32   `yaml:"default_seed"`
	MaxCycles         int     `yaml:"max_cycles"`
	MaxTimeHours      float64 `yaml:"max_time_hours"`
	AlphaMax          float64 `yaml:"alpha_max"`
	PercolationStride int     `yaml:"percolation_stride"`
	SnapshotStride    int     `yaml:"snapshot_stride"`
	WorkerCount       int     `yaml:"worker_count"`
}

// OutputConfig holds where and how verbosely results are reported.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	LogVerbosity string `yaml:"log_verbosity"`
}

// Config holds all simulation-harness configuration parameters.
type Config struct {
	Harness               HarnessConfig `yaml:"harness"`
	Output                OutputConfig  `yaml:"output"`
	ReferenceTemperatureC float64       `yaml:"reference_temperature_c"`

	// Derived holds values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ReferenceTemperatureK float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from the loaded config.
func (c *Config) computeDerived() {
	c.Derived.ReferenceTemperatureK = c.ReferenceTemperatureC + 273.15
}

// WriteYAML writes c to path as YAML, for run provenance alongside
// telemetry output.
func (c *Config) WriteYAML(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
