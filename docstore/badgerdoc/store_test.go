package badgerdoc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(Config{
		InMemory: true,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func testDoc(id string, modified, ttl int64) *docstore.Document {
	return &docstore.Document{
		ID: id,
		Fields: map[string]any{
			"last_modified": modified,
			"ttl":           ttl,
			"session":       map[string]any{"user": "u1"},
		},
	}
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rev, err := store.Put(ctx, testDoc("sess:a", 1000, 60))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(rev, "1-") {
		t.Fatalf("rev = %q, want 1- prefix", rev)
	}

	got, err := store.Get(ctx, "sess:a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Rev != rev {
		t.Fatalf("Get rev = %q, want %q", got.Rev, rev)
	}
	if ttl, ok := got.Int64Field("ttl"); !ok || ttl != 60 {
		t.Fatalf("ttl = %d (%v), want 60", ttl, ok)
	}
}

func TestStore_PutEnforcesRevisions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("sess:a", 1000, 60)
	stale, err := store.Put(ctx, doc)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	current, _ := store.Get(ctx, "sess:a")
	if _, err := store.Put(ctx, current); err != nil {
		t.Fatalf("Put advance: %v", err)
	}

	doc.Rev = stale
	if _, err := store.Put(ctx, doc); !docstore.IsConflict(err) {
		t.Fatalf("Put stale err = %v, want conflict", err)
	}

	ghost := testDoc("sess:ghost", 1000, 60)
	ghost.Rev = "1-deadbeef"
	if _, err := store.Put(ctx, ghost); !docstore.IsConflict(err) {
		t.Fatalf("Put ghost err = %v, want conflict", err)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get(context.Background(), "sess:none"); !docstore.IsNotFound(err) {
		t.Fatalf("Get err = %v, want not found", err)
	}
}

func TestStore_RemoveEnforcesRev(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rev, err := store.Put(ctx, testDoc("sess:a", 1000, 60))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := store.Remove(ctx, "sess:a", "1-bogus"); !docstore.IsConflict(err) {
		t.Fatalf("Remove stale err = %v, want conflict", err)
	}
	if err := store.Remove(ctx, "sess:a", rev); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(ctx, "sess:a", rev); !docstore.IsNotFound(err) {
		t.Fatalf("Remove again err = %v, want not found", err)
	}
}

func TestStore_BulkWritePartialResults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	revA, err := store.Put(ctx, testDoc("sess:a", 1000, 60))
	if err != nil {
		t.Fatalf("Put sess:a: %v", err)
	}
	if _, err := store.Put(ctx, testDoc("sess:b", 1000, 60)); err != nil {
		t.Fatalf("Put sess:b: %v", err)
	}

	results, err := store.BulkWrite(ctx, []docstore.BulkOp{
		{ID: "sess:a", Rev: revA, Delete: true},
		{ID: "sess:b", Rev: "1-stale", Delete: true},
		{ID: "sess:c", Rev: "1-ghost", Delete: true},
	})
	if err != nil {
		t.Fatalf("BulkWrite: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("results[0].Err = %v, want nil", results[0].Err)
	}
	if !docstore.IsConflict(results[1].Err) {
		t.Fatalf("results[1].Err = %v, want conflict", results[1].Err)
	}
	if !docstore.IsNotFound(results[2].Err) {
		t.Fatalf("results[2].Err = %v, want not found", results[2].Err)
	}

	if _, err := store.Get(ctx, "sess:b"); err != nil {
		t.Fatalf("sess:b should survive, got err = %v", err)
	}
}

func TestStore_QueryIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000)
	store.now = func() time.Time { return now }

	def := docstore.IndexDefinition{
		Design:        "expired_sessions",
		View:          "expired",
		ModifiedField: "last_modified",
		TTLField:      "ttl",
	}

	if _, err := store.QueryIndex(ctx, def.Design, def.View, docstore.QueryOptions{}); !errors.Is(err, docstore.ErrIndexMissing) {
		t.Fatalf("QueryIndex before create err = %v, want index missing", err)
	}
	if err := store.CreateIndex(ctx, def); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := store.CreateIndex(ctx, def); err != nil {
		t.Fatalf("CreateIndex again: %v", err)
	}

	expired := testDoc("sess:old", now.UnixMilli()-120_000, 60)
	boundary := testDoc("sess:edge", now.UnixMilli()-60_000, 60)
	live := testDoc("sess:new", now.UnixMilli(), 3600)
	for _, doc := range []*docstore.Document{expired, boundary, live} {
		if _, err := store.Put(ctx, doc); err != nil {
			t.Fatalf("Put %s: %v", doc.ID, err)
		}
	}

	rows, err := store.QueryIndex(ctx, def.Design, def.View, docstore.QueryOptions{})
	if err != nil {
		t.Fatalf("QueryIndex: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "sess:old" {
		t.Fatalf("rows = %+v, want just sess:old", rows)
	}

	current, _ := store.Get(ctx, "sess:old")
	if rows[0].Rev != current.Rev {
		t.Fatalf("row rev = %q, want %q", rows[0].Rev, current.Rev)
	}
}

func TestStore_QueryIndexLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000)
	store.now = func() time.Time { return now }

	def := docstore.IndexDefinition{
		Design:        "expired_sessions",
		View:          "expired",
		ModifiedField: "last_modified",
		TTLField:      "ttl",
	}
	if err := store.CreateIndex(ctx, def); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	for _, id := range []string{"sess:1", "sess:2", "sess:3", "sess:4"} {
		if _, err := store.Put(ctx, testDoc(id, now.UnixMilli()-10_000, 1)); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	rows, err := store.QueryIndex(ctx, def.Design, def.View, docstore.QueryOptions{Limit: 2})
	if err != nil {
		t.Fatalf("QueryIndex: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	store, err := Open(Config{Dir: dir, Logger: logger})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rev, err := store.Put(ctx, testDoc("sess:a", 1000, 60))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(Config{Dir: dir, Logger: logger})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "sess:a")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Rev != rev {
		t.Fatalf("rev after reopen = %q, want %q", got.Rev, rev)
	}
}
