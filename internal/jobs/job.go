package jobs

import (
	"context"
	"log/slog"
	"time"

	"reorient/internal/rotation"
	"reorient/internal/transcode"
)

// Request asks for one input file to be rotated. An empty OutputDir writes
// next to the input.
type Request struct {
	Input     string
	OutputDir string
	Rotation  rotation.Rotation
}

// Result is the outcome of one request.
type Result struct {
	// Index is the request's position in the submitted batch.
	Index    int
	Job      transcode.Job
	Err      error
	Started  time.Time
	Finished time.Time
	Stats    transcode.Stats
}

// OK reports whether the job produced its output.
func (r Result) OK() bool { return r.Err == nil }

// Duration is the wall time the job ran for, zero when it never started.
func (r Result) Duration() time.Duration {
	if r.Started.IsZero() || r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Runner executes one job.
type Runner interface {
	Run(ctx context.Context, job transcode.Job, logger *slog.Logger) (transcode.Stats, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, job transcode.Job, logger *slog.Logger) (transcode.Stats, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, job transcode.Job, logger *slog.Logger) (transcode.Stats, error) {
	return f(ctx, job, logger)
}

// TranscodeRunner runs jobs through the libav pipeline.
var TranscodeRunner Runner = RunnerFunc(transcode.Run)
