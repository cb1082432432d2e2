package services_test

import (
	"context"
	"testing"

	"autopost/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithItemID(ctx, 42)
	ctx = services.WithPhase(ctx, "confirm_wait")
	ctx = services.WithAttemptID(ctx, "attempt-1")

	if id, ok := services.ItemIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected item id: %v %v", id, ok)
	}
	if phase, ok := services.PhaseFromContext(ctx); !ok || phase != "confirm_wait" {
		t.Fatalf("unexpected phase: %v %v", phase, ok)
	}
	if attempt, ok := services.AttemptIDFromContext(ctx); !ok || attempt != "attempt-1" {
		t.Fatalf("unexpected attempt id: %v %v", attempt, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPhase(ctx, "")
	ctx = services.WithAttemptID(ctx, "")
	if _, ok := services.PhaseFromContext(ctx); ok {
		t.Fatal("expected no phase value")
	}
	if _, ok := services.AttemptIDFromContext(ctx); ok {
		t.Fatal("expected no attempt id")
	}
	if _, ok := services.ItemIDFromContext(ctx); ok {
		t.Fatal("expected no item id")
	}
}
