package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reorient/internal/config"
	"reorient/internal/logging"
	"reorient/internal/services"
)

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.File = true
	cfg.Logging.Level = "warn"

	logger, err := logging.NewFromConfig(&cfg, "", "")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud", logging.String("output", "clip(1).mp4"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "reorient.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "quiet") {
		t.Fatalf("info record should be filtered at warn level: %q", data)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "loud" || entry["level"] != "warn" || entry["output"] != "clip(1).mp4" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewFromConfigFlagOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.File = true
	cfg.Logging.Level = "error"

	logger, err := logging.NewFromConfig(&cfg, "info", "json")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("visible")
	data, err := os.ReadFile(cfg.LogFilePath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "visible") {
		t.Fatalf("level override ignored: %q", data)
	}

	if _, err := logging.NewFromConfig(&cfg, "", "xml"); err == nil {
		t.Fatal("expected error for unsupported format override")
	}
}

func TestConsoleFormatIncludesSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "0123456789abcdef")
	ctx = services.WithStage(ctx, "pump")
	ctx = services.WithRequestID(ctx, "batch-1")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "transcode"))
	logger.Info("pipeline drained", logging.Int64("packets_in", 42))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(content)
	for _, want := range []string{"INFO [transcode] Job 01234567 (pump) – pipeline drained", "- Packets In: 42"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
	if strings.Contains(text, "batch-1") {
		t.Fatalf("correlation id should be hidden at info level: %q", text)
	}
	if strings.Contains(text, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", text)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestErrorWithContextAddsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	failure := services.Wrap(services.ErrMux, "trailer", "write trailer", "flush failed", errors.New("io"))
	logging.ErrorWithContext(logger, "job failed", "job_failed", logging.Error(failure))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry[logging.FieldEventType] != "job_failed" || entry[logging.FieldErrorKind] != "mux" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if hint, _ := entry[logging.FieldErrorHint].(string); !strings.Contains(hint, "output directory") {
		t.Fatalf("expected mux error hint: %v", entry)
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.WithContext(context.TODO(), nil).Info("ignored")
}
