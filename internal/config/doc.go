// Package config loads, normalizes, and validates reorient configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies the REORIENT_OUTPUT_DIR,
// REORIENT_LOG_LEVEL and REORIENT_LOG_FORMAT environment overrides. The
// Config type centralizes the knobs the CLI and job supervisor need: output
// and log directories, worker count, and log format.
//
// Encoder settings are not configurable; the video codec, preset, and
// quality factor are fixed by the transcode package.
package config
