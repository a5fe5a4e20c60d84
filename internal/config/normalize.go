package config

import (
	"fmt"
	"os"
	"strings"
)

// envOverrides are applied before normalization, so values from the
// environment go through the same expansion and validation as file values.
var envOverrides = []struct {
	name  string
	apply func(*Config, string) error
}{
	{"REORIENT_OUTPUT_DIR", func(c *Config, v string) error { c.Paths.OutputDir = v; return nil }},
	{"REORIENT_LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"REORIENT_LOG_FORMAT", func(c *Config, v string) error { c.Logging.Format = v; return nil }},
	{"REORIENT_ROTATION", func(c *Config, v string) error { return c.Jobs.Rotation.UnmarshalText([]byte(v)) }},
}

func (c *Config) normalize() error {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && strings.TrimSpace(v) != "" {
			if err := o.apply(c, strings.TrimSpace(v)); err != nil {
				return fmt.Errorf("%s: %w", o.name, err)
			}
		}
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.Logging.Format = lowerOr(c.Logging.Format, defaultLogFormat)
	c.Logging.Level = lowerOr(c.Logging.Level, defaultLogLevel)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.LogDir == "" {
		if c.Paths.LogDir, err = expandPath(defaultLogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	return nil
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
