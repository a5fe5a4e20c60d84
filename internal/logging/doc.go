// Package logging assembles structured slog loggers for reorient.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and tags log lines with job IDs, pipeline stages, and batch
// correlation IDs pulled from the context. A no-op logger is provided for
// tests and library callers that do not care about output.
package logging
