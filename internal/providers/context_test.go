package providers

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-abc-123")
	if got := RequestID(ctx); got != "req-abc-123" {
		t.Errorf("RequestID() = %q", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID() on bare context = %q, want empty", got)
	}
}

func TestTaskTypeIndependentOfRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTaskType(ctx, "code_generation")
	if got := TaskType(ctx); got != "code_generation" {
		t.Errorf("TaskType() = %q", got)
	}
	if got := RequestID(ctx); got != "req-1" {
		t.Errorf("RequestID() = %q", got)
	}
}
