package tracing

import (
	"context"
	"testing"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	if err := Init(false); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()

	if ctx == nil {
		t.Fatalf("StartSpan returned nil context")
	}
	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}
