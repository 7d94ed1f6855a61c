package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
)

// Store persists fetched data sets keyed by name. Every failure is soft:
// reads degrade to a miss and writes are logged and dropped.
type Store struct {
	kv     KV
	logger *applog.Logger
	now    func() time.Time
}

type StoreOption func(*Store)

// WithClock overrides the capture clock.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *applog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

func NewStore(kv KV, opts ...StoreOption) *Store {
	s := &Store{
		kv:     kv,
		logger: applog.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(applog.ComponentCache)
	return s
}

// Get returns the persisted entry for name, or false when absent or unreadable.
func (s *Store) Get(ctx context.Context, name core.DataSetName) (Entry, bool) {
	key := Key(name)
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return Entry{}, false
	}
	if err != nil {
		s.logReadError(ctx, name, &StorageReadError{Key: key, Err: err})
		return Entry{}, false
	}
	e, err := decodeEntry(raw)
	if err != nil {
		s.logReadError(ctx, name, &StorageReadError{Key: key, Err: err})
		return Entry{}, false
	}
	return e, true
}

// Put replaces the entry for name with payload stamped at the current time.
func (s *Store) Put(ctx context.Context, name core.DataSetName, payload json.RawMessage) {
	key := Key(name)
	raw, err := encodeEntry(NewEntry(payload, s.now()))
	if err == nil {
		err = s.kv.Set(ctx, key, raw)
	}
	if err != nil {
		s.logWriteError(ctx, name, applog.OpWrite, &StorageWriteError{Key: key, Err: err})
		return
	}
	s.logger.DebugContext(ctx, "Cache entry written", applog.NewFields().
		WithDataSet(name.String(), key).
		WithOperation(applog.OpWrite).
		ToSlice()...)
}

// Delete evicts the entry for name.
func (s *Store) Delete(ctx context.Context, name core.DataSetName) {
	key := Key(name)
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logWriteError(ctx, name, applog.OpDelete, &StorageWriteError{Key: key, Err: err})
	}
}

// Names lists the data sets that currently have an entry.
func (s *Store) Names(ctx context.Context) ([]core.DataSetName, error) {
	keys, err := s.kv.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, &StorageReadError{Key: KeyPrefix + "*", Err: err}
	}
	names := make([]core.DataSetName, 0, len(keys))
	for _, k := range keys {
		names = append(names, core.DataSetName(strings.TrimPrefix(k, KeyPrefix)))
	}
	return names, nil
}

// Now is the store's clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// CleanExpired removes every entry outside the freshness window and
// returns how many were removed. Unreadable entries are removed as well.
func (s *Store) CleanExpired() int {
	ctx := context.Background()
	names, err := s.Names(ctx)
	if err != nil {
		s.logger.Warn("Cache sweep skipped", applog.NewFields().
			WithOperation(applog.OpSweep).
			WithError(err).
			ToSlice()...)
		return 0
	}

	now := s.now()
	removed := 0
	for _, name := range names {
		e, ok := s.Get(ctx, name)
		if ok && IsFresh(e, now) {
			continue
		}
		s.Delete(ctx, name)
		removed++
	}
	return removed
}

func (s *Store) logReadError(ctx context.Context, name core.DataSetName, err *StorageReadError) {
	s.logger.WarnContext(ctx, "Cache read failed, treating as miss", applog.NewFields().
		WithDataSet(name.String(), err.Key).
		WithOperation(applog.OpRead).
		WithErrorType(applog.ErrorTypeStorageRead).
		WithError(err).
		ToSlice()...)
}

func (s *Store) logWriteError(ctx context.Context, name core.DataSetName, op string, err *StorageWriteError) {
	s.logger.WarnContext(ctx, "Cache write failed", applog.NewFields().
		WithDataSet(name.String(), err.Key).
		WithOperation(op).
		WithErrorType(applog.ErrorTypeStorageWrite).
		WithError(err).
		ToSlice()...)
}
