// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Rules      RulesConfig      `yaml:"rules"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Screen     ScreenConfig     `yaml:"screen"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation space dimensions.
// The space is the cube [-scene_scale, scene_scale] on every axis.
type WorldConfig struct {
	SceneScale float64 `yaml:"scene_scale"`
}

// PopulationConfig holds the agent population size.
type PopulationConfig struct {
	Count int `yaml:"count"`
}

// RulesConfig holds the three flocking rule radii and weights.
type RulesConfig struct {
	CohesionRadius   float64 `yaml:"cohesion_radius"`
	SeparationRadius float64 `yaml:"separation_radius"`
	AlignmentRadius  float64 `yaml:"alignment_radius"`
	CohesionWeight   float64 `yaml:"cohesion_weight"`
	SeparationWeight float64 `yaml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight"`
}

// MaxRadius returns the largest of the three rule radii.
func (r RulesConfig) MaxRadius() float64 {
	return math.Max(r.CohesionRadius, math.Max(r.SeparationRadius, r.AlignmentRadius))
}

// PhysicsConfig holds integration parameters.
type PhysicsConfig struct {
	DT       float64 `yaml:"dt"`
	MaxSpeed float64 `yaml:"max_speed"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow  int `yaml:"perf_window"`  // Steps per perf aggregation window
	LogInterval int `yaml:"log_interval"` // Steps between perf log lines (0 = off)
}

// DerivedConfig holds the uniform-grid geometry derived from the loaded
// config. The grid is fixed for the life of a simulation run.
type DerivedConfig struct {
	CellWidth    float64 // At least twice the largest rule radius
	InvCellWidth float64
	SideCount    int     // Cells per axis
	CellCount    int     // SideCount cubed
	GridMin      float64 // Minimum corner coordinate, same on every axis
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
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

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()

	return cfg, nil
}

// ComputeDerived calculates the grid geometry from the loaded config.
// Cell width is twice the largest rule radius so a 3x3x3 block of cells
// always covers every possible neighbor. The grid spans at least
// [-scene_scale, scene_scale] on each axis.
func (c *Config) ComputeDerived() {
	cellWidth := 2 * c.Rules.MaxRadius()
	halfSide := int(c.World.SceneScale/cellWidth) + 1
	side := 2 * halfSide

	c.Derived.CellWidth = cellWidth
	c.Derived.InvCellWidth = 1 / cellWidth
	c.Derived.SideCount = side
	c.Derived.CellCount = side * side * side
	c.Derived.GridMin = -cellWidth * float64(halfSide)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
