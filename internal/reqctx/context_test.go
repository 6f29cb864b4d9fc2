package reqctx_test

import (
	"context"
	"testing"

	"storyline/internal/reqctx"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := reqctx.IdeaIDFromContext(ctx); ok {
		t.Fatal("expected no idea id on empty context")
	}

	ctx = reqctx.WithIdeaID(ctx, 42)
	ctx = reqctx.WithStage(ctx, "Script")
	ctx = reqctx.WithRequestID(ctx, "req-1")

	if id, ok := reqctx.IdeaIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("idea id = %d, %v; want 42, true", id, ok)
	}
	if stage, ok := reqctx.StageFromContext(ctx); !ok || stage != "Script" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if rid, ok := reqctx.RequestIDFromContext(ctx); !ok || rid != "req-1" {
		t.Fatalf("request id = %q, %v", rid, ok)
	}
}

func TestEmptyValuesAreIgnored(t *testing.T) {
	ctx := reqctx.WithStage(context.Background(), "")
	ctx = reqctx.WithRequestID(ctx, "")
	if _, ok := reqctx.StageFromContext(ctx); ok {
		t.Fatal("empty stage should not be stored")
	}
	if _, ok := reqctx.RequestIDFromContext(ctx); ok {
		t.Fatal("empty request id should not be stored")
	}
}
