package blob

import (
	"context"
	"popstudy/internal/blob/core"
	"testing"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{})
	if err != nil || s.Driver() != core.DriverMemory {
		t.Fatalf("expected memory default: %v", err)
	}
	if _, err := Open(ctx, Config{Driver: "gcs"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(ctx, Config{Driver: core.DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
