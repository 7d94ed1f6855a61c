package cache

import (
	"context"
	"sort"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryKV keeps entries in process memory. Items never expire on their
// own; freshness is decided by the Store's readers.
type MemoryKV struct {
	items *gocache.Cache
}

var _ KV = (*MemoryKV)(nil)

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: gocache.New(gocache.NoExpiration, 0)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	b := v.([]byte)
	return append([]byte(nil), b...), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.items.Set(key, append([]byte(nil), value...), gocache.NoExpiration)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range m.items.Items() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
