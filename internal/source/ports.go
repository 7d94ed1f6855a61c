package source

import (
	"context"
	"fmt"

	"scadenze/internal/core"
)

// Fetcher retrieves the raw JSON payload of a named data set. Sources are
// read-only; implementations never write back.
type Fetcher interface {
	Fetch(ctx context.Context, name core.DataSetName) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, name core.DataSetName) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, name core.DataSetName) ([]byte, error) {
	return f(ctx, name)
}

// StatusError is returned for a non-success response from a remote source.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected status %s", e.Status)
	}
	return fmt.Sprintf("unexpected status %d", e.Code)
}
