package cloudantstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
)

func TestCleanupExpired_RemovesOnlyExpired(t *testing.T) {
	store, mem, clk := newTestStore(t, Options{})
	ctx := context.Background()

	short := Payload{"cookie": map[string]any{"maxAge": 60_000}}
	long := Payload{"cookie": map[string]any{"maxAge": 3_600_000}}

	for i := 0; i < 5; i++ {
		if err := store.Set(ctx, fmt.Sprintf("dead-%d", i), short); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := store.Set(ctx, fmt.Sprintf("live-%d", i), long); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	clk.Advance(2 * time.Minute)

	removed, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 5 {
		t.Fatalf("removed = %d, want 5", removed)
	}
	if mem.Len() != 3 {
		t.Fatalf("remaining = %d, want the 3 live sessions", mem.Len())
	}

	// Immediately rerunning finds nothing and writes nothing.
	removed, err = store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired rerun: %v", err)
	}
	if removed != 0 {
		t.Fatalf("rerun removed = %d, want 0", removed)
	}
	if mem.Len() != 3 {
		t.Fatalf("rerun remaining = %d, want 3", mem.Len())
	}
}

func TestCleanupExpired_BootstrapsIndexOnce(t *testing.T) {
	store, mem, _ := newTestStore(t, Options{})
	ctx := context.Background()

	// The index does not exist until the first cleanup creates it.
	if _, err := mem.QueryIndex(ctx, DefaultExpiryIndexDesign, DefaultExpiryIndexView, docstore.QueryOptions{}); !errors.Is(err, docstore.ErrIndexMissing) {
		t.Fatalf("pre-cleanup QueryIndex err = %v, want index missing", err)
	}

	if _, err := store.CleanupExpired(ctx); err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}

	if _, err := mem.QueryIndex(ctx, DefaultExpiryIndexDesign, DefaultExpiryIndexView, docstore.QueryOptions{}); err != nil {
		t.Fatalf("post-cleanup QueryIndex err = %v, index should exist", err)
	}
}

func TestCleanupExpired_HonorsBatchLimit(t *testing.T) {
	store, mem, clk := newTestStore(t, Options{MaxExpiredPerCleanup: 2})
	ctx := context.Background()

	short := Payload{"cookie": map[string]any{"maxAge": 1_000}}
	for i := 0; i < 5; i++ {
		if err := store.Set(ctx, fmt.Sprintf("dead-%d", i), short); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	clk.Advance(time.Minute)

	removed, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want batch limit 2", removed)
	}
	if mem.Len() != 3 {
		t.Fatalf("remaining = %d, want 3", mem.Len())
	}
}

func TestCleanupExpired_AggregatesPartialFailures(t *testing.T) {
	stub := &stubClient{
		queryRows: []docstore.IndexRow{
			{ID: "sess:a", Rev: "2-x"},
			{ID: "sess:b", Rev: "1-y"},
			{ID: "sess:c", Rev: "3-z"},
		},
		bulkResults: []docstore.BulkResult{
			{ID: "sess:a"},
			{ID: "sess:b", Err: docstore.ErrConflict},
			{ID: "sess:c"},
		},
	}

	store, err := New(Options{Client: stub, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	removed, err := store.CleanupExpired(context.Background())
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	var partial *PartialCleanupError
	if !errors.As(err, &partial) {
		t.Fatalf("err = %v, want PartialCleanupError", err)
	}
	if len(partial.Failures) != 1 || partial.Failures[0].ID != "sess:b" {
		t.Fatalf("failures = %+v, want just sess:b", partial.Failures)
	}
}

func TestCleanupExpired_RoundTripFailure(t *testing.T) {
	stub := &stubClient{
		queryRows: []docstore.IndexRow{{ID: "sess:a", Rev: "2-x"}},
		bulkErr:   docstore.ErrUnavailable.WithDetails("connection refused"),
	}

	store, err := New(Options{Client: stub, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	removed, cleanupErr := store.CleanupExpired(context.Background())
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
	if !errors.Is(cleanupErr, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want store unavailable", cleanupErr)
	}
}
