package logging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reorient/internal/rotation"
	"reorient/internal/services"
)

// Attr is the attribute type every helper in this package produces.
type Attr = slog.Attr

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error records err under "error". A nil error is rendered explicitly so a
// missing cause is visible in the log.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// ErrorKind tags err with its services.Kind label.
func ErrorKind(err error) Attr {
	return slog.String(FieldErrorKind, services.Kind(err))
}

// Rotation records a rotation by its user-facing label.
func Rotation(r rotation.Rotation) Attr {
	return slog.String("rotation", r.String())
}

// Args converts attrs to the variadic form slog's logging methods take.
func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

func hasKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

func errorIn(attrs []Attr) error {
	for _, a := range attrs {
		if a.Key != "error" || a.Value.Kind() != slog.KindAny {
			continue
		}
		if err, ok := a.Value.Any().(error); ok {
			return err
		}
	}
	return nil
}

// ErrorWithContext logs an error with enforced event_type and error_hint
// fields. When attrs carry an error, its error_kind is added too.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	if !hasKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !hasKey(attrs, FieldErrorHint) {
		attrs = append(attrs, String(FieldErrorHint, hintFor(errorIn(attrs))))
	}
	if err := errorIn(attrs); err != nil && !hasKey(attrs, FieldErrorKind) {
		attrs = append(attrs, ErrorKind(err))
	}
	logger.Error(msg, Args(attrs...)...)
}

func hintFor(err error) string {
	switch {
	case err == nil:
		return "check logs for details"
	case errors.Is(err, services.ErrOpen), errors.Is(err, services.ErrValidation):
		return "check the input path and container format"
	case errors.Is(err, services.ErrDecoderInit), errors.Is(err, services.ErrEncoderInit), errors.Is(err, services.ErrFilterGraph):
		return "run `reorient check` to verify the libav build"
	case errors.Is(err, services.ErrMux):
		return "check free space and permissions in the output directory"
	default:
		return "check logs for details"
	}
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
