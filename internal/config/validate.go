package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateJobs(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateJobs() error {
	if c.Jobs.Workers < 0 {
		return errors.New("jobs.workers must not be negative (0 selects a default)")
	}
	if c.Jobs.Workers > maxWorkers {
		return fmt.Errorf("jobs.workers must be at most %d", maxWorkers)
	}
	if !c.Jobs.Rotation.Valid() {
		return fmt.Errorf("jobs.rotation must be a quoted value such as \"90\", got %d", int(c.Jobs.Rotation))
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
