package services_test

import (
	"context"
	"testing"

	"cinematch/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithFile(ctx, "/media/in/Heat.1995.mkv", 4)
	ctx = services.WithStage(ctx, "score")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if path, index, ok := services.FileFromContext(ctx); !ok || path != "/media/in/Heat.1995.mkv" || index != 4 {
		t.Fatalf("unexpected file: %v %v %v", path, index, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "score" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithFile(ctx, "", 0)
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id")
	}
	if _, _, ok := services.FileFromContext(ctx); ok {
		t.Fatal("expected no file")
	}
}
