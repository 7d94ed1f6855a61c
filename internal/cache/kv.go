package cache

import "context"

// KV is the key/value persistence a Store runs on.
type KV interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces any existing value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete is idempotent.
	Delete(ctx context.Context, key string) error

	// Keys lists keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
