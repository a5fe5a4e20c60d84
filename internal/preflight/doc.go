// Package preflight checks that reorient can do its work before a batch
// starts: output and log directories are writable, and the linked libav
// build carries the H.264 encoder, the filters and the muxers the
// pipeline needs.
//
// The CLI "reorient check" command prints every result; "reorient rotate"
// runs the same checks and refuses to start when one fails.
package preflight
