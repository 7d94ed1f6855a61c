package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"scadenze/internal/backend"
	"scadenze/internal/cache"
	"scadenze/internal/core"
	"scadenze/internal/source"
)

const ctlPayload = `{"expenses":[
	{"day":5,"expense":"Rent","price":500,"month":"all"},
	{"day":20,"expense":"Internet","price":45,"month":"all"},
	{"day":12,"expense":"Insurance","price":120,"month":"quarterly"}
]}`

func runCtl(t *testing.T, kv cache.KV, fetch source.FetcherFunc, args ...string) (string, error) {
	t.Helper()
	open := func(context.Context) (*backend.Runtime, error) {
		return backend.Assemble(&backend.BackendResult{KV: kv, Fetcher: fetch}, core.DefaultLocations(), nil), nil
	}
	var out bytes.Buffer
	cmd := NewRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func okFetch(context.Context, core.DataSetName) ([]byte, error) {
	return []byte(ctlPayload), nil
}

func failFetch(context.Context, core.DataSetName) ([]byte, error) {
	return nil, &source.StatusError{Code: 503}
}

func TestShowCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "extended location in a quarter month",
			args:    []string{"show", "--location", "at", "--month", "2025-03", "--day", "10"},
			want:    []string{"AT · March 2025", "Rent", "Internet", "Insurance", "165.00"},
			notWant: []string{"Could not load"},
		},
		{
			name:    "monthly location hides quarterly records",
			args:    []string{"show", "--location", "bh", "--month", "2025-03", "--day", "10"},
			want:    []string{"BH · March 2025", "Internet", "45.00"},
			notWant: []string{"Insurance"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCtl(t, cache.NewMemoryKV(), okFetch, tt.args...)
			if err != nil {
				t.Fatalf("show: %v\n%s", err, out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestShowCommandErrors(t *testing.T) {
	if _, err := runCtl(t, cache.NewMemoryKV(), okFetch, "show", "--month", "March"); err == nil {
		t.Error("expected invalid month error")
	}
	if _, err := runCtl(t, cache.NewMemoryKV(), okFetch, "show", "--location", "nowhere"); !errors.Is(err, core.ErrUnknownLocation) {
		t.Errorf("expected ErrUnknownLocation, got %v", err)
	}

	out, err := runCtl(t, cache.NewMemoryKV(), failFetch, "show")
	if err != nil {
		t.Fatalf("load failures are rendered, not returned: %v", err)
	}
	if !strings.Contains(out, "Could not load expenses") {
		t.Errorf("expected notice, got:\n%s", out)
	}
}

func TestRefreshCommand(t *testing.T) {
	kv := cache.NewMemoryKV()

	out, err := runCtl(t, kv, okFetch, "refresh", "--location", "bh")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !strings.Contains(out, "bh_expenses: FetchSucceeded (3 records)") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = runCtl(t, kv, okFetch, "refresh", "--all")
	if err != nil {
		t.Fatalf("refresh --all: %v", err)
	}
	if !strings.Contains(out, "refreshed 2 of 2") {
		t.Errorf("unexpected output %q", out)
	}

	// bh is cached now, so a failed refresh keeps the entry and reports it
	out, err = runCtl(t, kv, failFetch, "refresh", "--location", "bh")
	if err == nil || !strings.Contains(out, "FetchFailed-WithFallback") {
		t.Errorf("expected fallback failure, got %v %q", err, out)
	}

	if _, err := runCtl(t, kv, okFetch, "refresh", "--all", "--location", "at"); err == nil {
		t.Error("--all and --location should be exclusive")
	}
}

func TestCacheCommands(t *testing.T) {
	kv := cache.NewMemoryKV()
	store := cache.NewStore(kv)
	store.Put(context.Background(), "at_expenses", []byte(ctlPayload))

	expired := cache.NewStore(kv, cache.WithClock(func() time.Time { return time.Now().Add(-48 * time.Hour) }))
	expired.Put(context.Background(), "bh_expenses", []byte(ctlPayload))

	out, err := runCtl(t, kv, okFetch, "cache", "get", "at_expenses")
	if err != nil {
		t.Fatalf("cache get: %v", err)
	}
	for _, want := range []string{"expenses_cache_at_expenses", "fresh", "records:   3"} {
		if !strings.Contains(out, want) {
			t.Errorf("cache get output missing %q:\n%s", want, out)
		}
	}

	out, err = runCtl(t, kv, okFetch, "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(out, "at_expenses") || !strings.Contains(out, "bh_expenses") {
		t.Errorf("cache list = %q", out)
	}

	out, err = runCtl(t, kv, okFetch, "cache", "sweep")
	if err != nil {
		t.Fatalf("cache sweep: %v", err)
	}
	if !strings.Contains(out, "removed 1 expired entries") {
		t.Errorf("sweep output = %q", out)
	}

	if _, err := runCtl(t, kv, okFetch, "cache", "get", "bh_expenses"); err == nil {
		t.Error("swept entry should be gone")
	}
	if _, err := runCtl(t, kv, okFetch, "cache", "get", "../etc"); !errors.Is(err, core.ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}
