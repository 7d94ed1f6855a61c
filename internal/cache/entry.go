package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"scadenze/internal/core"
)

// KeyPrefix namespaces data set entries inside the key/value backend.
const KeyPrefix = "expenses_cache_"

// Entry is the persisted form of a fetched data set. Entries are written
// wholesale and never patched.
type Entry struct {
	// Timestamp is the capture time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`

	// Data is the full fetched payload, byte for byte.
	Data json.RawMessage `json:"data"`
}

// Key derives the backend key for a data set.
func Key(name core.DataSetName) string {
	return KeyPrefix + string(name)
}

// NewEntry stamps the payload with the capture time.
func NewEntry(data json.RawMessage, capturedAt time.Time) Entry {
	return Entry{Timestamp: capturedAt.UnixMilli(), Data: data}
}

// CapturedAt returns the timestamp as a time.Time; zero if unset.
func (e Entry) CapturedAt() time.Time {
	if e.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.Timestamp)
}

// Age returns how old the entry is relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CapturedAt())
}

// Records decodes the cached payload.
func (e Entry) Records() ([]core.ExpenseRecord, error) {
	p, err := core.DecodePayload(e.Data)
	if err != nil {
		return nil, fmt.Errorf("cached payload: %w", err)
	}
	return p.Expenses, nil
}

func encodeEntry(e Entry) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(raw []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}
