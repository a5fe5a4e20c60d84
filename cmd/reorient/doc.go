// Package main hosts the reorient CLI.
//
// The Cobra command tree resolves configuration once, builds the structured
// logger, and hands rotation requests to the job supervisor. Rendering of
// results and preflight checks lives here; transcoding lives in
// internal/transcode.
package main
