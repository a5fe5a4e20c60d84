package transcode

import (
	"context"
	"log/slog"
	"strings"

	"github.com/asticode/go-astiav"

	"reorient/internal/logging"
)

// libavLevel maps a configured log level to the threshold libav filters on.
// libav is chatty at info, so reorient's info maps to libav warnings.
func libavLevel(level string) astiav.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return astiav.LogLevelVerbose
	case "info", "warn", "warning":
		return astiav.LogLevelWarning
	default:
		return astiav.LogLevelError
	}
}

func slogLevel(l astiav.LogLevel) slog.Level {
	switch {
	case l <= astiav.LogLevelError:
		return slog.LevelError
	case l <= astiav.LogLevelWarning:
		return slog.LevelWarn
	case l <= astiav.LogLevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// RouteLibavLogs sends libav's own diagnostics through logger instead of
// stderr, filtered at the level named by level.
func RouteLibavLogs(logger *slog.Logger, level string) {
	astiav.SetLogLevel(libavLevel(level))
	if logger == nil {
		return
	}
	logger = logging.NewComponentLogger(logger, "libav")
	astiav.SetLogCallback(func(c astiav.Classer, l astiav.LogLevel, _, msg string) {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			return
		}
		attrs := []logging.Attr{}
		if c != nil {
			if cl := c.Class(); cl != nil {
				attrs = append(attrs, logging.String("class", cl.Name()))
			}
		}
		logger.Log(context.Background(), slogLevel(l), msg, logging.Args(attrs...)...)
	})
}
