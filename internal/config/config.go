package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mtcq configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Template knowledge base and naming
	Ontology OntologyConfig `yaml:"ontology"`

	// Object graph mapping
	Mapping MappingConfig `yaml:"mapping"`

	// Temporal assembly
	Assembly AssemblyConfig `yaml:"assembly"`

	// Query evaluation
	Query QueryConfig `yaml:"query"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "mtcq",
		Version: "0.1.0",

		Ontology: OntologyConfig{
			TemplatePath: "scenarios/av.mg",
			IRI:          "http://dlr.de/stars/mtcqTestOntology",
		},

		Mapping: MappingConfig{
			MappableTypes: []string{"Road", "Block"},
		},

		Assembly: AssemblyConfig{
			Workers: 1,
		},

		Query: QueryConfig{
			Timeout:          "30s",
			DerivedFactLimit: 500000,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if path := os.Getenv("MTCQ_TEMPLATE"); path != "" {
		c.Ontology.TemplatePath = path
	}
	if prefix := os.Getenv("MTCQ_PREFIX"); prefix != "" {
		c.Ontology.Prefix = prefix
	}
	if level := os.Getenv("MTCQ_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if workers := os.Getenv("MTCQ_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("invalid MTCQ_WORKERS %q: %w", workers, err)
		}
		c.Assembly.Workers = n
	}
	return nil
}

// GetQueryTimeout returns the query timeout as a duration.
func (c *Config) GetQueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Query.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Assembly.Workers < 0 {
		return fmt.Errorf("assembly.workers must not be negative, got %d", c.Assembly.Workers)
	}
	if c.Ontology.FactLimit < 0 {
		return fmt.Errorf("ontology.fact_limit must not be negative, got %d", c.Ontology.FactLimit)
	}
	if c.Query.Timeout != "" {
		if d, err := time.ParseDuration(c.Query.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("invalid query.timeout: %q", c.Query.Timeout)
		}
	}

	validLevel := c.Logging.Level == ""
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	return nil
}
