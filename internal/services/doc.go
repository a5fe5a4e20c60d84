// Package services defines shared utilities consumed by the transcode pipeline,
// the job supervisor and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag pipeline failures
//     (open, codec init, filter graph, codec, mux, invariant) so callers can
//     classify them with errors.Is or Kind.
//
// Use these helpers when wiring new pipeline steps so error reporting stays
// uniform across jobs.
package services
