package transcode

import (
	"log/slog"
	"testing"

	"github.com/asticode/go-astiav"
)

func TestLibavLevel(t *testing.T) {
	tests := []struct {
		in   string
		want astiav.LogLevel
	}{
		{"debug", astiav.LogLevelVerbose},
		{"info", astiav.LogLevelWarning},
		{" WARN ", astiav.LogLevelWarning},
		{"error", astiav.LogLevelError},
		{"", astiav.LogLevelError},
	}
	for _, tt := range tests {
		if got := libavLevel(tt.in); got != tt.want {
			t.Fatalf("libavLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	if got := slogLevel(astiav.LogLevelFatal); got != slog.LevelError {
		t.Fatalf("fatal maps to %v", got)
	}
	if got := slogLevel(astiav.LogLevelWarning); got != slog.LevelWarn {
		t.Fatalf("warning maps to %v", got)
	}
	if got := slogLevel(astiav.LogLevelInfo); got != slog.LevelInfo {
		t.Fatalf("info maps to %v", got)
	}
	if got := slogLevel(astiav.LogLevelDebug); got != slog.LevelDebug {
		t.Fatalf("debug maps to %v", got)
	}
}
