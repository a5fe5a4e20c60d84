package services_test

import (
	"context"
	"testing"

	"reorient/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "job-42")
	ctx = services.WithStage(ctx, "pump")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-42" {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "pump" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	ctx = services.WithJobID(ctx, "")
	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("expected no job id value")
	}
}

func TestInnerStageShadowsOuter(t *testing.T) {
	ctx := services.WithStage(context.Background(), "open")
	inner := services.WithStage(ctx, "configure")
	if stage, _ := services.StageFromContext(inner); stage != "configure" {
		t.Fatalf("expected inner stage, got %q", stage)
	}
	if stage, _ := services.StageFromContext(ctx); stage != "open" {
		t.Fatalf("outer context changed: %q", stage)
	}
}
