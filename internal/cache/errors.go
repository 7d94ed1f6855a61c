package cache

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by backends for a missing key.
var ErrNotFound = errors.New("cache entry not found")

// StorageReadError wraps a backend read or decode failure.
type StorageReadError struct {
	Key string
	Err error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("read cache entry %s: %v", e.Key, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

// StorageWriteError wraps a backend write or delete failure.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write cache entry %s: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }
