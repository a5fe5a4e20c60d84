package config

import "reorient/internal/rotation"

const (
	defaultConfigPath = "~/.config/reorient/config.toml"
	defaultLogDir     = "~/.local/share/reorient/logs"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
	maxWorkers        = 64
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Jobs: Jobs{
			Rotation: rotation.Deg90,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			File:   false,
		},
	}
}
