package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reorient/internal/config"
	"reorient/internal/jobs"
	"reorient/internal/naming"
	"reorient/internal/preflight"
	"reorient/internal/rotation"
	"reorient/internal/services"
	"reorient/internal/transcode"
)

// transcodeRunner is swapped out by tests that do not need libav.
var transcodeRunner = jobs.TranscodeRunner

func newRotateCommand(ctx *commandContext) *cobra.Command {
	var rotationFlag string
	var outputDir string
	var workers int
	var skipChecks bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rotate <file>...",
		Short: "Rotate video files and write the results alongside or into --output-dir",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rot := cfg.Jobs.Rotation
			if strings.TrimSpace(rotationFlag) != "" {
				if rot, err = rotation.Parse(rotationFlag); err != nil {
					return err
				}
			}
			if err := checkInputs(args); err != nil {
				return err
			}

			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = cfg.Paths.OutputDir
			} else if dir, err = config.ExpandPath(dir); err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if dryRun {
				table, err := renderPlan(args, dir, rot)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, table)
				return nil
			}

			if !skipChecks {
				if err := requirePreflight(cmd.Context(), cfg, out, colorize); err != nil {
					return err
				}
			}

			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			transcode.RouteLibavLogs(logger, ctx.resolvedLogLevel(cfg))

			count := cfg.WorkerCount()
			if workers > 0 {
				count = workers
			}

			reqs := make([]jobs.Request, 0, len(args))
			for _, input := range args {
				reqs = append(reqs, jobs.Request{Input: input, OutputDir: dir, Rotation: rot})
			}

			runCtx := cmd.Context()
			results := jobs.New(count, transcodeRunner, logger).Run(runCtx, reqs)
			fmt.Fprintln(out, renderResults(results, colorize))

			failed := 0
			for _, res := range results {
				if res.OK() {
					continue
				}
				failed++
				fmt.Fprintln(out, renderStatusLine(filepath.Base(res.Job.Input), statusError, res.Err.Error(), colorize))
			}
			if err := runCtx.Err(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rotationFlag, "rotation", "r", "", "Clockwise rotation: "+rotation.Choices()+", cw or ccw (default: config jobs.rotation)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for rotated files (default: config output_dir, else next to each input)")
	cmd.Flags().IntVarP(&workers, "jobs", "j", 0, "Files to rotate concurrently (default: config workers)")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip encoder and muxer preflight checks")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the output path each file would get without writing anything")
	return cmd
}

func checkInputs(paths []string) error {
	var unsupported []string
	for _, p := range paths {
		if !naming.SupportedInput(p) {
			unsupported = append(unsupported, p)
		}
	}
	if len(unsupported) > 0 {
		return fmt.Errorf("unsupported input extension: %s", strings.Join(unsupported, ", "))
	}
	return nil
}

func requirePreflight(ctx context.Context, cfg *config.Config, out io.Writer, colorize bool) error {
	failed := preflight.Failed(preflight.RunAll(ctx, cfg))
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		fmt.Fprintln(out, renderStatusLine(r.Name, statusError, r.Detail, colorize))
		names = append(names, r.Name)
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(names, ", "))
}

// renderPlan previews output names. Names claimed earlier in the same batch
// count as taken, matching what a real run would reserve.
func renderPlan(inputs []string, dir string, rot rotation.Rotation) (string, error) {
	planned := make(map[string]bool, len(inputs))
	taken := func(path string) (bool, error) {
		if planned[path] {
			return true, nil
		}
		return naming.Exists(path)
	}
	rows := make([][]string, 0, len(inputs))
	for i, input := range inputs {
		target := dir
		if target == "" {
			target = filepath.Dir(input)
		}
		output, err := naming.OutputPathFor(input, target, taken)
		if err != nil {
			return "", err
		}
		planned[output] = true
		rows = append(rows, []string{strconv.Itoa(i + 1), filepath.Base(input), output, fmt.Sprintf("%d°", rot.Degrees())})
	}
	headers := []string{"#", "Input", "Output", "Rotation"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight}
	return renderTable(headers, rows, aligns, nil), nil
}

func renderResults(results []jobs.Result, colorize bool) string {
	headers := []string{"#", "Input", "Output", "Status", "Frames", "Copied", "Time"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}

	rows := make([][]string, 0, len(results))
	ok := 0
	var frames, copied int64
	var elapsed time.Duration
	for _, res := range results {
		totals := res.Stats.Totals()
		kind, label := resultStatus(res)
		if res.OK() {
			ok++
		}
		frames += totals.FramesEncoded
		copied += totals.BytesCopied
		elapsed += res.Duration()
		rows = append(rows, []string{
			strconv.Itoa(res.Index + 1),
			filepath.Base(res.Job.Input),
			displayPath(res.Job.Output),
			paint(label, kind, colorize),
			strconv.FormatInt(totals.FramesEncoded, 10),
			formatBytes(totals.BytesCopied),
			formatDuration(res.Duration()),
		})
	}
	footer := []string{
		"",
		"Total",
		"",
		fmt.Sprintf("%d/%d ok", ok, len(results)),
		strconv.FormatInt(frames, 10),
		formatBytes(copied),
		formatDuration(elapsed),
	}
	return renderTable(headers, rows, aligns, footer)
}

func resultStatus(res jobs.Result) (statusKind, string) {
	if res.OK() {
		return statusOK, "Done"
	}
	kind := services.Kind(res.Err)
	if kind == "canceled" {
		return statusWarn, humanize(kind)
	}
	return statusError, humanize(kind)
}

func displayPath(path string) string {
	if path == "" {
		return "-"
	}
	return path
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(10 * time.Millisecond).String()
}
