package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"scadenze/internal/cache"
)

func newTestKV(t *testing.T) (*SQLiteKV, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv, path
}

func TestSQLiteKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, _ := newTestKV(t)

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := kv.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := kv.Get(ctx, "k")
	if err != nil || string(got) != "two" {
		t.Fatalf("got %q (err=%v), want two", got, err)
	}

	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteKVKeysByPrefix(t *testing.T) {
	ctx := context.Background()
	kv, _ := newTestKV(t)

	for _, k := range []string{"expenses_cache_bh", "expenses_cache_at", "theme", "expenses_cachex"} {
		if err := kv.Set(ctx, k, []byte("{}")); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys, err := kv.Keys(ctx, cache.KeyPrefix)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "expenses_cache_at" || keys[1] != "expenses_cache_bh" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestSQLiteKVPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	kv, path := newTestKV(t)

	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	store := cache.NewStore(kv, cache.WithClock(func() time.Time { return now }))
	store.Put(ctx, "at_expenses", json.RawMessage(`{"expenses":[{"day":1,"expense":"Kredit","price":320}]}`))
	kv.Close()

	reopened, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.SchemaVersion() != 1 {
		t.Errorf("schema version = %d, want 1", reopened.SchemaVersion())
	}

	e, ok := cache.NewStore(reopened).Get(ctx, "at_expenses")
	if !ok {
		t.Fatal("entry lost after reopen")
	}
	if e.Timestamp != now.UnixMilli() {
		t.Fatalf("timestamp = %d, want %d", e.Timestamp, now.UnixMilli())
	}
	recs, err := e.Records()
	if err != nil || len(recs) != 1 || recs[0].Expense != "Kredit" {
		t.Fatalf("unexpected records %v (err=%v)", recs, err)
	}
}
