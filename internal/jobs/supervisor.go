package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"reorient/internal/logging"
	"reorient/internal/naming"
	"reorient/internal/services"
	"reorient/internal/transcode"
)

// Supervisor fans jobs out to at most Workers goroutines.
type Supervisor struct {
	Workers  int
	Runner   Runner
	Reserver *naming.Reserver
	Logger   *slog.Logger
}

// New builds a supervisor that runs jobs through runner.
func New(workers int, runner Runner, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		Workers:  workers,
		Runner:   runner,
		Reserver: naming.NewReserver(),
		Logger:   logger,
	}
}

type task struct {
	result Result
	ready  bool
}

// Submit validates and reserves outputs for reqs, then runs them. The
// returned channel yields one Result per request and is closed once all
// have reported. Results arrive in completion order.
func (s *Supervisor) Submit(ctx context.Context, reqs []Request) <-chan Result {
	batchID := uuid.NewString()
	ctx = services.WithRequestID(ctx, batchID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "jobs"))

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(reqs) && len(reqs) > 0 {
		workers = len(reqs)
	}

	results := make(chan Result, len(reqs))
	queue := make(chan Result, len(reqs))

	for i, req := range reqs {
		t := s.prepare(i, req)
		if !t.ready {
			logging.ErrorWithContext(logger, "job rejected", "job_rejected",
				logging.String("input", req.Input),
				logging.Error(t.result.Err),
				logging.ErrorKind(t.result.Err),
				logging.String(logging.FieldErrorHint, "check the input path, extension and rotation"),
			)
			results <- t.result
			continue
		}
		queue <- t.result
	}
	close(queue)

	logger.Info("batch started",
		logging.Int("jobs", len(reqs)),
		logging.Int("queued", len(queue)),
		logging.Int("workers", workers),
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pending := range queue {
				results <- s.execute(ctx, pending, logger)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// Run submits reqs and waits for every result, returned in request order.
func (s *Supervisor) Run(ctx context.Context, reqs []Request) []Result {
	out := make([]Result, len(reqs))
	for res := range s.Submit(ctx, reqs) {
		out[res.Index] = res
	}
	return out
}

func (s *Supervisor) prepare(index int, req Request) task {
	res := Result{Index: index}
	res.Job.ID = uuid.NewString()
	res.Job.Input = req.Input
	res.Job.Rotation = req.Rotation

	if err := validate(req); err != nil {
		res.Err = err
		return task{result: res}
	}

	dir := req.OutputDir
	if dir == "" {
		dir = filepath.Dir(req.Input)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.Err = services.Wrap(services.ErrOpen, "reserve", "create output directory", dir, err)
		return task{result: res}
	}
	reserver := s.Reserver
	if reserver == nil {
		reserver = naming.NewReserver()
	}
	output, err := reserver.Reserve(req.Input, dir)
	if err != nil {
		res.Err = services.Wrap(services.ErrOpen, "reserve", "reserve output", dir, err)
		return task{result: res}
	}
	res.Job.Output = output
	return task{result: res, ready: true}
}

func validate(req Request) error {
	if !req.Rotation.Valid() {
		return services.Wrap(services.ErrValidation, "validate", "check rotation", fmt.Sprintf("unsupported rotation %d", int(req.Rotation)), nil)
	}
	if !naming.SupportedInput(req.Input) {
		return services.Wrap(services.ErrValidation, "validate", "check extension", req.Input, nil)
	}
	info, err := os.Stat(req.Input)
	if err != nil {
		return services.Wrap(services.ErrValidation, "validate", "stat input", req.Input, err)
	}
	if !info.Mode().IsRegular() {
		return services.Wrap(services.ErrValidation, "validate", "stat input", req.Input+" is not a regular file", nil)
	}
	return nil
}

func (s *Supervisor) execute(ctx context.Context, res Result, batchLogger *slog.Logger) Result {
	ctx = services.WithJobID(ctx, res.Job.ID)
	logger := logging.WithContext(ctx, batchLogger)

	if err := ctx.Err(); err != nil {
		s.release(res.Job.Output, logger)
		res.Err = fmt.Errorf("job skipped: %w", err)
		return res
	}

	logger.Info("job started",
		logging.String("input", res.Job.Input),
		logging.String("output", res.Job.Output),
		logging.Rotation(res.Job.Rotation),
	)
	res.Started = time.Now()
	res.Stats, res.Err = s.runSafely(ctx, res.Job, logger)
	res.Finished = time.Now()

	if res.Err != nil {
		s.release(res.Job.Output, logger)
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(res.Err),
			logging.ErrorKind(res.Err),
			logging.Duration("job_duration", res.Duration()),
		)
		return res
	}
	totals := res.Stats.Totals()
	logger.Info("job finished",
		logging.String("output", res.Job.Output),
		logging.Int64("frames_encoded", totals.FramesEncoded),
		logging.Int64("copied_bytes", totals.BytesCopied),
		logging.Duration("job_duration", res.Duration()),
	)
	return res
}

// release drops a reserved output the job never wrote to, so a retry gets
// the same name. Partially written outputs are kept.
func (s *Supervisor) release(path string, logger *slog.Logger) {
	removed, err := naming.Release(path)
	if err != nil {
		logger.Warn("reserved output not released",
			logging.String("output", path),
			logging.Error(err),
		)
		return
	}
	if removed {
		logger.Debug("reserved output released", logging.String("output", path))
	}
}

func (s *Supervisor) runSafely(ctx context.Context, job transcode.Job, logger *slog.Logger) (stats transcode.Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("runner panic stack", logging.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", services.ErrJobPanic, r)
		}
	}()
	if s.Runner == nil {
		return stats, errors.New("supervisor has no runner")
	}
	return s.Runner.Run(ctx, job, logger)
}
