package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"reorient/internal/jobs"
	"reorient/internal/rotation"
	"reorient/internal/services"
	"reorient/internal/testsupport"
	"reorient/internal/transcode"
)

type recordingRunner struct {
	mu   sync.Mutex
	jobs []transcode.Job
	fail map[string]error
}

func (r *recordingRunner) Run(_ context.Context, job transcode.Job, _ *slog.Logger) (transcode.Stats, error) {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
	if err, ok := r.fail[filepath.Base(job.Input)]; ok {
		return transcode.Stats{}, err
	}
	return transcode.Stats{Streams: map[transcode.StreamID]*transcode.StreamStats{
		0: {FramesEncoded: 25, PacketsIn: 25, PacketsOut: 25},
		1: {Copied: true, BytesCopied: 2048},
	}}, nil
}

func useRunner(t *testing.T, r jobs.Runner) {
	t.Helper()
	prev := transcodeRunner
	transcodeRunner = r
	t.Cleanup(func() { transcodeRunner = prev })
}

func TestRotateCommandRunsBatch(t *testing.T) {
	env := setupCLITestEnv(t)
	runner := &recordingRunner{}
	useRunner(t, runner)

	a := filepath.Join(env.inputDir, "a.mp4")
	b := filepath.Join(env.inputDir, "b.mkv")
	testsupport.WriteFile(t, a, 16)
	testsupport.WriteFile(t, b, 16)

	out, _, err := runCLI(t, []string{"rotate", "--skip-checks", "--rotation", "270", a, b}, env.configPath)
	if err != nil {
		t.Fatalf("rotate: %v\n%s", err, out)
	}
	requireContains(t, out, "Done")
	requireContains(t, out, "2/2 ok")
	requireContains(t, out, filepath.Join(env.outputDir, "a.mp4"))
	requireContains(t, out, filepath.Join(env.outputDir, "b.mkv"))

	if len(runner.jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(runner.jobs))
	}
	for _, job := range runner.jobs {
		if job.Rotation != rotation.Deg270 {
			t.Fatalf("job %s got rotation %v", job.Input, job.Rotation)
		}
	}
}

func TestRotateCommandOutputDirFlagAvoidsCollisions(t *testing.T) {
	env := setupCLITestEnv(t)
	useRunner(t, &recordingRunner{})

	input := filepath.Join(env.inputDir, "clip.mp4")
	testsupport.WriteFile(t, input, 16)
	dest := filepath.Join(env.baseDir, "flag-out")

	for i := 0; i < 2; i++ {
		if _, _, err := runCLI(t, []string{"rotate", "--skip-checks", "-o", dest, input}, env.configPath); err != nil {
			t.Fatalf("rotate run %d: %v", i, err)
		}
	}
	for _, name := range []string{"clip.mp4", "clip(1).mp4"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestRotateCommandDryRunPreviewsNames(t *testing.T) {
	env := setupCLITestEnv(t)
	runner := &recordingRunner{}
	useRunner(t, runner)

	if err := os.MkdirAll(env.outputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteFile(t, filepath.Join(env.outputDir, "clip.mp4"), 1)
	first := filepath.Join(env.inputDir, "clip.mp4")
	second := filepath.Join(env.baseDir, "clip.mp4")
	testsupport.WriteFile(t, first, 16)
	testsupport.WriteFile(t, second, 16)

	out, _, err := runCLI(t, []string{"rotate", "--dry-run", "--rotation=-90", first, second}, env.configPath)
	if err != nil {
		t.Fatalf("dry run: %v\n%s", err, out)
	}
	requireContains(t, out, filepath.Join(env.outputDir, "clip(1).mp4"))
	requireContains(t, out, filepath.Join(env.outputDir, "clip(2).mp4"))
	requireContains(t, out, "270°")

	if len(runner.jobs) != 0 {
		t.Fatalf("dry run started %d jobs", len(runner.jobs))
	}
	entries, err := os.ReadDir(env.outputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("dry run wrote into the output directory: %d entries", len(entries))
	}
}

func TestRotateCommandUsesConfiguredRotation(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("REORIENT_ROTATION", "180")
	runner := &recordingRunner{}
	useRunner(t, runner)

	input := filepath.Join(env.inputDir, "clip.mkv")
	testsupport.WriteFile(t, input, 16)
	if out, _, err := runCLI(t, []string{"rotate", "--skip-checks", input}, env.configPath); err != nil {
		t.Fatalf("rotate: %v\n%s", err, out)
	}
	if len(runner.jobs) != 1 || runner.jobs[0].Rotation != rotation.Deg180 {
		t.Fatalf("expected one 180° job, got %+v", runner.jobs)
	}
}

func TestRotateCommandReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	useRunner(t, &recordingRunner{fail: map[string]error{
		"bad.mp4": services.Wrap(services.ErrDecoderInit, "source", "open decoder", "stream#0", nil),
	}})

	good := filepath.Join(env.inputDir, "good.mp4")
	bad := filepath.Join(env.inputDir, "bad.mp4")
	testsupport.WriteFile(t, good, 16)
	testsupport.WriteFile(t, bad, 16)

	out, _, err := runCLI(t, []string{"rotate", "--skip-checks", good, bad}, env.configPath)
	if err == nil {
		t.Fatal("expected failure exit")
	}
	requireContains(t, err.Error(), "1 of 2 jobs failed")
	requireContains(t, out, "Decoder Init")
	requireContains(t, out, "1/2 ok")
	requireContains(t, out, "[ERROR]")
}

func TestRotateCommandRejectsBadArguments(t *testing.T) {
	env := setupCLITestEnv(t)
	runner := &recordingRunner{}
	useRunner(t, runner)

	input := filepath.Join(env.inputDir, "clip.mp4")
	testsupport.WriteFile(t, input, 16)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"rotation", []string{"rotate", "--skip-checks", "-r", "45", input}, "unsupported rotation"},
		{"extension", []string{"rotate", "--skip-checks", filepath.Join(env.inputDir, "notes.txt")}, "unsupported input extension"},
		{"no args", []string{"rotate"}, "requires at least 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args, env.configPath)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
	if len(runner.jobs) != 0 {
		t.Fatalf("runner should not be called, got %d jobs", len(runner.jobs))
	}
}

func TestResultStatus(t *testing.T) {
	kind, label := resultStatus(jobs.Result{Err: context.Canceled})
	if kind != statusWarn || label != "Canceled" {
		t.Fatalf("canceled result = %v %q", kind, label)
	}
	kind, label = resultStatus(jobs.Result{})
	if kind != statusOK || label != "Done" {
		t.Fatalf("ok result = %v %q", kind, label)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:           "0 B",
		1023:        "1023 B",
		2048:        "2.0 KiB",
		5 * 1 << 20: "5.0 MiB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
