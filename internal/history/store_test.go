package history

import (
	"context"
	"testing"
	"time"
)

func TestRecordListRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	started := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	runs := []Run{
		{Stage: "compile", Target: "app", Output: "bin/pyc/app", Status: "ok", StartedAt: started, Duration: 1200 * time.Millisecond},
		{Stage: "bundle", Target: "Demo", Status: "failed", Error: "backend exit 1", StartedAt: started.Add(time.Minute), Duration: 300 * time.Millisecond},
	}
	for _, r := range runs {
		if err := store.Record(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}
	// Newest first.
	if got[0].Stage != "bundle" || got[0].Status != "failed" || got[0].Error != "backend exit 1" {
		t.Fatalf("unexpected head run %+v", got[0])
	}
	if got[1].Output != "bin/pyc/app" || !got[1].StartedAt.Equal(started) {
		t.Fatalf("round-trip mangled run %+v", got[1])
	}
	if got[1].Duration != 1200*time.Millisecond {
		t.Fatalf("duration %v", got[1].Duration)
	}
}

func TestListLimit(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, Run{Stage: "compile", Target: "app", Status: "ok", StartedAt: time.Now()}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	got, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limit ignored, got %d runs", len(got))
	}
}
