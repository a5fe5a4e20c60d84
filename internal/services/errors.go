package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOpen marks a container that could not be opened or created.
	ErrOpen = errors.New("open error")
	// ErrDecoderInit marks a decoder that could not be negotiated.
	ErrDecoderInit = errors.New("decoder init error")
	// ErrEncoderInit marks an encoder that could not be negotiated.
	ErrEncoderInit = errors.New("encoder init error")
	// ErrFilterGraph marks a filter graph build, link or validation failure.
	ErrFilterGraph = errors.New("filter graph error")
	// ErrCodec marks a low-level decode, filter or encode call failure.
	ErrCodec = errors.New("codec error")
	// ErrMux marks a header, packet or trailer write failure.
	ErrMux = errors.New("mux error")
	// ErrConfigurationInvariant marks a stream present in one pipeline map
	// but missing from a map that must mirror it. It is a logic defect.
	ErrConfigurationInvariant = errors.New("configuration invariant violation")
	// ErrOutOfOrder marks a pipeline step invoked out of sequence.
	ErrOutOfOrder = errors.New("pipeline step out of order")
	// ErrFlushOrder marks a decoder/encoder end-of-stream sequence violation.
	ErrFlushOrder = errors.New("flush order violation")
	// ErrValidation marks unusable job input such as an unsupported rotation.
	ErrValidation = errors.New("validation error")
	// ErrJobPanic marks a job whose runner panicked.
	ErrJobPanic = errors.New("job panic")
)

var kinds = []struct {
	marker error
	label  string
}{
	{ErrOpen, "open"},
	{ErrDecoderInit, "decoder_init"},
	{ErrEncoderInit, "encoder_init"},
	{ErrFilterGraph, "filter_graph"},
	{ErrCodec, "codec"},
	{ErrMux, "mux"},
	{ErrConfigurationInvariant, "invariant"},
	{ErrOutOfOrder, "out_of_order"},
	{ErrFlushOrder, "flush_order"},
	{ErrValidation, "validation"},
	{ErrJobPanic, "panic"},
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "canceled"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrCodec
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label for the first sentinel err carries, "unknown"
// for untagged errors and "" for nil.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.label
		}
	}
	return "unknown"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
