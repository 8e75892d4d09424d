package services_test

import (
	"context"
	"testing"

	"datapipe/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "masks")
	ctx = services.WithMoveID(ctx, 42)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "masks" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if id, ok := services.MoveIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected move id: %v %v", id, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.MoveIDFromContext(ctx); ok {
		t.Fatal("expected no move id value")
	}
}
