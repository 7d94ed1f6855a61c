package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"scadenze/internal/cache"
	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/source"
)

// State describes where a load ended up.
type State string

const (
	StateIdle                  State = "Idle"
	StateCacheHitFresh         State = "CacheHit-Fresh"
	StateCacheHitStale         State = "CacheHit-Stale"
	StateFetching              State = "Fetching"
	StateFetchSucceeded        State = "FetchSucceeded"
	StateFetchFailedFallback   State = "FetchFailed-WithFallback"
	StateFetchFailedNoFallback State = "FetchFailed-NoFallback"
)

// FetchError reports that the source could not produce a usable payload.
type FetchError struct {
	Name core.DataSetName
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Name, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// BackgroundRefreshError is a failed refresh-ahead. It is logged, never returned to callers.
type BackgroundRefreshError struct {
	Name core.DataSetName
	Err  error
}

func (e *BackgroundRefreshError) Error() string {
	return fmt.Sprintf("background refresh %s: %v", e.Name, e.Err)
}

func (e *BackgroundRefreshError) Unwrap() error { return e.Err }

// Result is what a load hands to the presentation layer.
type Result struct {
	Name    core.DataSetName
	Records []core.ExpenseRecord
	State   State
	// CapturedAt is when the returned records were fetched; zero when none.
	CapturedAt time.Time
}

// FromCache reports whether the records came from the store rather than a fetch.
func (r Result) FromCache() bool {
	switch r.State {
	case StateCacheHitFresh, StateCacheHitStale, StateFetchFailedFallback:
		return true
	default:
		return false
	}
}

type loadOptions struct {
	force bool
}

type LoadOption func(*loadOptions)

// WithForceRefresh bypasses the cache on the way in. The fallback on failure still applies.
func WithForceRefresh() LoadOption {
	return func(o *loadOptions) { o.force = true }
}

// Loader resolves a data set from the store or the source.
type Loader struct {
	store   *cache.Store
	fetcher source.Fetcher
	logger  *applog.Logger

	group singleflight.Group

	mu       sync.Mutex
	inflight map[core.DataSetName]int
	closed   bool
	bg       sync.WaitGroup
}

func NewLoader(store *cache.Store, fetcher source.Fetcher, logger *applog.Logger) *Loader {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Loader{
		store:    store,
		fetcher:  fetcher,
		logger:   logger.WithComponent(applog.ComponentLoader),
		inflight: make(map[core.DataSetName]int),
	}
}

// Load returns the records of name. A non-nil error is always a *FetchError
// and only happens when nothing could be shown; the Result is still usable
// and carries empty records in that case.
func (l *Loader) Load(ctx context.Context, name core.DataSetName, opts ...LoadOption) (Result, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := name.Validate(); err != nil {
		return Result{Name: name, State: StateFetchFailedNoFallback}, &FetchError{Name: name, Err: err}
	}

	l.transition(ctx, name, StateIdle)

	if !o.force && l.isInFlight(name) {
		if res, ok := l.fromEntry(ctx, name); ok {
			l.transition(ctx, name, res.State)
			return res, nil
		}
	}

	var stale *cache.Entry
	if !o.force {
		if e, ok := l.store.Get(ctx, name); ok {
			now := l.store.Now()
			if cache.IsFresh(e, now) {
				if records, err := e.Records(); err == nil {
					l.transition(ctx, name, StateCacheHitFresh)
					l.refreshInBackground(ctx, name)
					return Result{Name: name, Records: records, State: StateCacheHitFresh, CapturedAt: e.CapturedAt()}, nil
				}
			} else {
				l.logger.DebugContext(ctx, "Evicting expired cache entry", applog.NewFields().
					WithDataSet(name.String(), cache.Key(name)).
					WithOperation(applog.OpDelete).
					With(applog.FieldAgeMs, e.Age(now).Milliseconds()).
					ToSlice()...)
				stale = &e
			}
			l.store.Delete(ctx, name)
		}
	}

	return l.fetchForeground(ctx, name, stale)
}

func (l *Loader) fetchForeground(ctx context.Context, name core.DataSetName, stale *cache.Entry) (Result, error) {
	l.track(name)
	defer l.untrack(name)

	l.transition(ctx, name, StateFetching)
	v, err, _ := l.group.Do(string(name), func() (any, error) {
		return l.fetchAndStore(context.WithoutCancel(ctx), name)
	})
	if err == nil {
		res := v.(Result)
		l.transition(ctx, name, res.State)
		return res, nil
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		fetchErr = &FetchError{Name: name, Err: err}
	}

	if res, ok := l.fallback(ctx, name, stale); ok {
		l.logger.WarnContext(ctx, "Fetch failed, showing cached data", applog.NewFields().
			WithDataSet(name.String(), cache.Key(name)).
			WithOperation(applog.OpFallback).
			WithErrorType(applog.ErrorTypeFetch).
			WithError(fetchErr).
			ToSlice()...)
		l.transition(ctx, name, res.State)
		return res, nil
	}

	l.logger.ErrorContext(ctx, "Fetch failed with nothing cached", applog.NewFields().
		WithDataSet(name.String(), cache.Key(name)).
		WithOperation(applog.OpFetch).
		WithErrorType(applog.ErrorTypeFetch).
		WithError(fetchErr).
		ToSlice()...)
	l.transition(ctx, name, StateFetchFailedNoFallback)
	return Result{Name: name, Records: []core.ExpenseRecord{}, State: StateFetchFailedNoFallback}, fetchErr
}

// fetchAndStore fetches name, validates the body and writes it to the store.
func (l *Loader) fetchAndStore(ctx context.Context, name core.DataSetName) (Result, error) {
	body, err := l.fetcher.Fetch(ctx, name)
	if err != nil {
		return Result{}, &FetchError{Name: name, Err: err}
	}
	payload, err := core.DecodePayload(body)
	if err != nil {
		return Result{}, &FetchError{Name: name, Err: err}
	}

	l.store.Put(ctx, name, body)
	l.logger.DebugContext(ctx, "Data set fetched", applog.NewFields().
		WithDataSet(name.String(), cache.Key(name)).
		WithOperation(applog.OpFetch).
		With(applog.FieldRecords, len(payload.Expenses)).
		ToSlice()...)

	return Result{
		Name:       name,
		Records:    payload.Expenses,
		State:      StateFetchSucceeded,
		CapturedAt: l.store.Now(),
	}, nil
}

// fallback prefers whatever the store holds now, then the entry evicted earlier in this load.
func (l *Loader) fallback(ctx context.Context, name core.DataSetName, stale *cache.Entry) (Result, bool) {
	if res, ok := l.fromEntry(ctx, name); ok {
		res.State = StateFetchFailedFallback
		return res, true
	}
	if stale == nil {
		return Result{}, false
	}
	records, err := stale.Records()
	if err != nil {
		return Result{}, false
	}
	return Result{Name: name, Records: records, State: StateFetchFailedFallback, CapturedAt: stale.CapturedAt()}, true
}

// fromEntry reads the store ignoring freshness.
func (l *Loader) fromEntry(ctx context.Context, name core.DataSetName) (Result, bool) {
	e, ok := l.store.Get(ctx, name)
	if !ok {
		return Result{}, false
	}
	records, err := e.Records()
	if err != nil {
		return Result{}, false
	}
	state := StateCacheHitStale
	if cache.IsFresh(e, l.store.Now()) {
		state = StateCacheHitFresh
	}
	return Result{Name: name, Records: records, State: state, CapturedAt: e.CapturedAt()}, true
}

func (l *Loader) refreshInBackground(ctx context.Context, name core.DataSetName) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.bg.Add(1)
	l.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer l.bg.Done()
		_, err, _ := l.group.Do("refresh:"+string(name), func() (any, error) {
			return l.fetchAndStore(ctx, name)
		})
		if err != nil {
			l.logger.WarnContext(ctx, "Background refresh failed", applog.NewFields().
				WithDataSet(name.String(), cache.Key(name)).
				WithOperation(applog.OpRefresh).
				WithErrorType(applog.ErrorTypeBackgroundRefresh).
				WithError(&BackgroundRefreshError{Name: name, Err: err}).
				ToSlice()...)
		}
	}()
}

func (l *Loader) isInFlight(name core.DataSetName) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight[name] > 0
}

func (l *Loader) track(name core.DataSetName) {
	l.mu.Lock()
	l.inflight[name]++
	l.mu.Unlock()
}

func (l *Loader) untrack(name core.DataSetName) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inflight[name] <= 1 {
		delete(l.inflight, name)
		return
	}
	l.inflight[name]--
}

func (l *Loader) transition(ctx context.Context, name core.DataSetName, s State) {
	l.logger.DebugContext(ctx, "Load state", applog.NewFields().
		WithDataSet(name.String(), cache.Key(name)).
		With(applog.FieldState, string(s)).
		ToSlice()...)
}

// Wait blocks until pending background refreshes are done.
func (l *Loader) Wait() {
	l.bg.Wait()
}

// Close stops new background refreshes and waits for the running ones.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.bg.Wait()
}
