package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"reorient/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrMux, "destination", "write trailer", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrMux) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"destination", "write trailer", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrCodec) {
		t.Fatalf("expected default codec marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("plain"), "unknown"},
		{services.Wrap(services.ErrOpen, "source", "open input", "", nil), "open"},
		{services.Wrap(services.ErrFilterGraph, "filter", "configure", "", nil), "filter_graph"},
		{fmt.Errorf("job: %w", services.Wrap(services.ErrFlushOrder, "pipe", "eof", "", nil)), "flush_order"},
		{services.Wrap(services.ErrConfigurationInvariant, "pipeline", "lookup", "", nil), "invariant"},
		{fmt.Errorf("pump packets: %w", context.Canceled), "canceled"},
		{fmt.Errorf("%w: runner panicked", services.ErrJobPanic), "panic"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
