package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"scadenze/internal/cache"
	"scadenze/internal/core"
	"scadenze/internal/source"
)

const (
	rentPayload   = `{"expenses":[{"day":5,"expense":"Rent","price":500,"month":"all"}]}`
	cachedPayload = `{"expenses":[{"day":1,"expense":"Cached","price":10,"month":"all"}]}`
)

type stubFetcher struct {
	mu      sync.Mutex
	calls   int
	body    []byte
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *stubFetcher) Fetch(_ context.Context, _ core.DataSetName) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.body, f.err
}

func (f *stubFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// seed writes payload for name as if it had been captured at capturedAt.
func seed(t *testing.T, kv cache.KV, name core.DataSetName, payload string, capturedAt time.Time) {
	t.Helper()
	cache.NewStore(kv, cache.WithClock(clockAt(capturedAt))).Put(context.Background(), name, json.RawMessage(payload))
}

func newTestLoader(kv cache.KV, f source.Fetcher) (*Loader, *cache.Store) {
	store := cache.NewStore(kv, cache.WithClock(clockAt(testNow)))
	return NewLoader(store, f, nil), store
}

func TestLoadAbsentFetchesAndStores(t *testing.T) {
	kv := cache.NewMemoryKV()
	f := &stubFetcher{body: []byte(rentPayload)}
	l, store := newTestLoader(kv, f)
	ctx := context.Background()

	res, err := l.Load(ctx, "Y")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.State != StateFetchSucceeded {
		t.Fatalf("state = %s", res.State)
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(res.Records))
	}
	r := res.Records[0]
	if r.Day != 5 || r.Expense != "Rent" || r.Price.String() != "500" || r.Month != core.EveryMonth {
		t.Fatalf("unexpected record %+v", r)
	}

	e, ok := store.Get(ctx, "Y")
	if !ok {
		t.Fatal("expected cache entry after fetch")
	}
	if e.Timestamp != testNow.UnixMilli() {
		t.Fatalf("timestamp = %d, want %d", e.Timestamp, testNow.UnixMilli())
	}
	if !cache.IsFresh(e, testNow) {
		t.Fatal("new entry should be fresh")
	}
	if string(e.Data) != rentPayload {
		t.Fatalf("cached data = %s", e.Data)
	}
	if f.Calls() != 1 {
		t.Fatalf("fetch calls = %d", f.Calls())
	}
}

func TestLoadFreshHitSchedulesOneRefresh(t *testing.T) {
	kv := cache.NewMemoryKV()
	seed(t, kv, "A", cachedPayload, testNow.Add(-time.Hour))
	f := &stubFetcher{body: []byte(rentPayload)}
	l, store := newTestLoader(kv, f)

	res, err := l.Load(context.Background(), "A")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.State != StateCacheHitFresh {
		t.Fatalf("state = %s", res.State)
	}
	if len(res.Records) != 1 || res.Records[0].Expense != "Cached" {
		t.Fatalf("expected cached records, got %+v", res.Records)
	}
	if !res.FromCache() {
		t.Fatal("fresh hit should report FromCache")
	}

	l.Wait()
	if f.Calls() != 1 {
		t.Fatalf("expected exactly one background fetch, got %d", f.Calls())
	}

	e, ok := store.Get(context.Background(), "A")
	if !ok || string(e.Data) != rentPayload || e.Timestamp != testNow.UnixMilli() {
		t.Fatalf("background refresh should rewrite the entry, got %+v (ok=%v)", e, ok)
	}
}

func TestLoadStaleEntryFetches(t *testing.T) {
	kv := cache.NewMemoryKV()
	seed(t, kv, "X", cachedPayload, testNow.Add(-25*time.Hour))
	f := &stubFetcher{body: []byte(rentPayload)}
	l, _ := newTestLoader(kv, f)

	res, err := l.Load(context.Background(), "X")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Calls() != 1 {
		t.Fatalf("expected a network fetch, got %d calls", f.Calls())
	}
	if res.State != StateFetchSucceeded || res.Records[0].Expense != "Rent" {
		t.Fatalf("expected fetched data, got %s %+v", res.State, res.Records)
	}
}

func TestLoadForceRefreshFailureFallsBack(t *testing.T) {
	kv := cache.NewMemoryKV()
	seed(t, kv, "A", cachedPayload, testNow.Add(-time.Minute))
	f := &stubFetcher{err: errors.New("connection refused")}
	l, _ := newTestLoader(kv, f)

	res, err := l.Load(context.Background(), "A", WithForceRefresh())
	if err != nil {
		t.Fatalf("fallback should not surface an error: %v", err)
	}
	if res.State != StateFetchFailedFallback {
		t.Fatalf("state = %s", res.State)
	}
	if len(res.Records) != 1 || res.Records[0].Expense != "Cached" {
		t.Fatalf("expected cached records, got %+v", res.Records)
	}
	if f.Calls() != 1 {
		t.Fatalf("fetch calls = %d", f.Calls())
	}
}

func TestLoadStaleFailureUsesEvictedEntry(t *testing.T) {
	kv := cache.NewMemoryKV()
	captured := testNow.Add(-48 * time.Hour)
	seed(t, kv, "X", cachedPayload, captured)
	f := &stubFetcher{err: &source.StatusError{Code: http.StatusServiceUnavailable}}
	l, store := newTestLoader(kv, f)

	res, err := l.Load(context.Background(), "X")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.State != StateFetchFailedFallback {
		t.Fatalf("state = %s", res.State)
	}
	if !res.CapturedAt.Equal(time.UnixMilli(captured.UnixMilli())) {
		t.Fatalf("captured at = %v", res.CapturedAt)
	}
	if _, ok := store.Get(context.Background(), "X"); ok {
		t.Fatal("expired entry should have been evicted")
	}
}

func TestLoadFailureWithoutCache(t *testing.T) {
	f := &stubFetcher{err: &source.StatusError{Code: http.StatusNotFound}}
	l, _ := newTestLoader(cache.NewMemoryKV(), f)

	res, err := l.Load(context.Background(), "Z")
	if err == nil {
		t.Fatal("expected a visible failure")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Name != "Z" {
		t.Fatalf("expected FetchError for Z, got %v", err)
	}
	var statusErr *source.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Fatalf("expected wrapped status error, got %v", err)
	}
	if res.State != StateFetchFailedNoFallback {
		t.Fatalf("state = %s", res.State)
	}
	if res.Records == nil || len(res.Records) != 0 {
		t.Fatalf("expected empty records, got %#v", res.Records)
	}
}

func TestLoadMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing expenses", `{"items":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := cache.NewMemoryKV()
			l, store := newTestLoader(kv, &stubFetcher{body: []byte(tt.body)})

			_, err := l.Load(context.Background(), "M")
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected FetchError, got %v", err)
			}
			if _, ok := store.Get(context.Background(), "M"); ok {
				t.Fatal("malformed payload must not be cached")
			}
		})
	}
}

func TestLoadInvalidName(t *testing.T) {
	f := &stubFetcher{body: []byte(rentPayload)}
	l, _ := newTestLoader(cache.NewMemoryKV(), f)

	_, err := l.Load(context.Background(), "../etc/passwd")
	if !errors.Is(err, core.ErrInvalidName) {
		t.Fatalf("expected invalid name error, got %v", err)
	}
	if f.Calls() != 0 {
		t.Fatal("invalid names must not reach the source")
	}
}

func TestLoadInFlightReturnsCachedEntry(t *testing.T) {
	kv := cache.NewMemoryKV()
	seed(t, kv, "A", cachedPayload, testNow.Add(-time.Hour))
	f := &stubFetcher{
		body:    []byte(rentPayload),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	l, _ := newTestLoader(kv, f)
	ctx := context.Background()

	done := make(chan Result, 1)
	go func() {
		res, _ := l.Load(ctx, "A", WithForceRefresh())
		done <- res
	}()
	<-f.started

	res, err := l.Load(ctx, "A")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.State != StateCacheHitFresh || res.Records[0].Expense != "Cached" {
		t.Fatalf("expected cached entry while fetch in flight, got %s %+v", res.State, res.Records)
	}

	close(f.release)
	forced := <-done
	if forced.State != StateFetchSucceeded {
		t.Fatalf("forced load state = %s", forced.State)
	}
	l.Wait()
	if f.Calls() != 1 {
		t.Fatalf("expected a single fetch, got %d", f.Calls())
	}
}

func TestBackgroundRefreshFailureIsSilent(t *testing.T) {
	kv := cache.NewMemoryKV()
	captured := testNow.Add(-2 * time.Hour)
	seed(t, kv, "A", cachedPayload, captured)
	f := &stubFetcher{err: errors.New("timeout")}
	l, store := newTestLoader(kv, f)

	res, err := l.Load(context.Background(), "A")
	if err != nil || res.State != StateCacheHitFresh {
		t.Fatalf("unexpected result %s, %v", res.State, err)
	}
	l.Wait()

	e, ok := store.Get(context.Background(), "A")
	if !ok || e.Timestamp != captured.UnixMilli() {
		t.Fatalf("failed refresh must leave the entry untouched, got %+v", e)
	}
}

func TestCloseStopsBackgroundRefresh(t *testing.T) {
	kv := cache.NewMemoryKV()
	seed(t, kv, "A", cachedPayload, testNow.Add(-time.Hour))
	f := &stubFetcher{body: []byte(rentPayload)}
	l, _ := newTestLoader(kv, f)

	l.Close()
	if _, err := l.Load(context.Background(), "A"); err != nil {
		t.Fatalf("load: %v", err)
	}
	l.Wait()
	if f.Calls() != 0 {
		t.Fatalf("no refresh expected after Close, got %d", f.Calls())
	}
}

func TestFetchErrorMessages(t *testing.T) {
	cause := errors.New("boom")
	if got := (&FetchError{Name: "A", Err: cause}).Error(); got != "fetch A: boom" {
		t.Fatalf("FetchError = %q", got)
	}
	bg := &BackgroundRefreshError{Name: "A", Err: cause}
	if !errors.Is(bg, cause) {
		t.Fatal("BackgroundRefreshError should unwrap")
	}
}
