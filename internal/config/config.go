// Package config holds the holograph configuration: vector geometry and
// strategy selection, query pipeline bounds, symbolic engine budgets,
// persistence, and logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all holograph configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Vector encoding
	HDC HDCConfig `yaml:"hdc"`

	// Query pipeline bounds
	Query QueryConfig `yaml:"query"`

	// Symbolic engine budgets
	Symbolic SymbolicConfig `yaml:"symbolic"`

	// SQLite persistence
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// HDCConfig configures the numeric strategy and geometry every vector in a
// session shares.
type HDCConfig struct {
	Strategy   string `yaml:"strategy"` // dense, sparse, bipolar
	Dimensions int    `yaml:"dimensions"`
	Density    int    `yaml:"density"` // sparse exponent count
	Seed       string `yaml:"seed"`    // seeds the strategies' random-vector streams
}

// QueryConfig bounds the holographic query pipeline.
type QueryConfig struct {
	MaxHoles             int     `yaml:"max_holes"`
	MaxCandidatesPerHole int     `yaml:"max_candidates_per_hole"`
	TopNPerHole          int     `yaml:"top_n_per_hole"`
	MaxCombinations      int     `yaml:"max_combinations"`
	MinSimilarityMargin  float64 `yaml:"min_similarity_margin"`
	AmbiguityGap         float64 `yaml:"ambiguity_gap"`
	MaxResults           int     `yaml:"max_results"`
	SupplementPolicy     string  `yaml:"supplement_policy"` // never, on_empty, always
}

// SymbolicConfig configures the Mangle engine budgets.
type SymbolicConfig struct {
	EvalTimeout  string `yaml:"eval_timeout"`
	ProofTimeout string `yaml:"proof_timeout"`
	MaxDepth     int    `yaml:"max_depth"`
	StrictProofs bool   `yaml:"strict_proofs"`
}

// StoreConfig configures session persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	Workspace string   `yaml:"workspace"`
	Debug     bool     `yaml:"debug"`
	Level     string   `yaml:"level"`
	Enabled   []string `yaml:"enabled"` // empty enables all categories
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "holograph",
		Version: "1.0.0",

		HDC: HDCConfig{
			Strategy:   "dense",
			Dimensions: 8192,
			Density:    64,
		},

		Query: QueryConfig{
			MaxHoles:             3,
			MaxCandidatesPerHole: 32,
			TopNPerHole:          8,
			MaxCombinations:      256,
			MinSimilarityMargin:  0.05,
			AmbiguityGap:         0.05,
			MaxResults:           25,
			SupplementPolicy:     "on_empty",
		},

		Symbolic: SymbolicConfig{
			EvalTimeout:  "10s",
			ProofTimeout: "2s",
			MaxDepth:     12,
		},

		Store: StoreConfig{
			DatabasePath: "data/holograph.db",
		},

		Logging: LoggingConfig{
			Workspace: ".",
			Level:     "info",
		},
	}
}

// Load reads a YAML config file, falling back to defaults when the file does
// not exist. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HOLOGRAPH_DB_PATH"); v != "" {
		c.Store.DatabasePath = v
	}
	if v := os.Getenv("HOLOGRAPH_STRATEGY"); v != "" {
		c.HDC.Strategy = v
	}
	if v := os.Getenv("HOLOGRAPH_DEBUG"); v == "1" || v == "true" {
		c.Logging.Debug = true
	}
}

// GetEvalTimeout parses the symbolic evaluation timeout, defaulting to 10s.
func (c *Config) GetEvalTimeout() time.Duration {
	d, err := time.ParseDuration(c.Symbolic.EvalTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetProofTimeout parses the per-candidate proof timeout, defaulting to 2s.
func (c *Config) GetProofTimeout() time.Duration {
	d, err := time.ParseDuration(c.Symbolic.ProofTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// Validate checks the fields that have hard constraints.
func (c *Config) Validate() error {
	switch c.HDC.Strategy {
	case "dense", "sparse", "bipolar":
	default:
		return fmt.Errorf("unknown hdc strategy %q", c.HDC.Strategy)
	}
	if c.HDC.Dimensions <= 0 {
		return fmt.Errorf("hdc dimensions must be positive, got %d", c.HDC.Dimensions)
	}
	if c.HDC.Strategy == "sparse" && c.HDC.Density <= 0 {
		return fmt.Errorf("sparse strategy requires positive density, got %d", c.HDC.Density)
	}
	if c.Query.MaxHoles <= 0 {
		return fmt.Errorf("query max_holes must be positive, got %d", c.Query.MaxHoles)
	}
	switch c.Query.SupplementPolicy {
	case "never", "on_empty", "always":
	default:
		return fmt.Errorf("unknown supplement policy %q", c.Query.SupplementPolicy)
	}
	if c.Symbolic.MaxDepth <= 0 {
		return fmt.Errorf("symbolic max_depth must be positive, got %d", c.Symbolic.MaxDepth)
	}
	return nil
}
