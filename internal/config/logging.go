package config

import "github.com/lu-w/stars-logic-mtcq/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, console
	File       string          `yaml:"file"`       // empty means stderr
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// Options converts the section for logging.Initialize.
func (c *LoggingConfig) Options() logging.Options {
	opts := logging.Options{
		Level:      c.Level,
		Format:     c.Format,
		Categories: c.Categories,
	}
	if c.File != "" {
		opts.OutputPaths = []string{c.File}
	}
	return opts
}
