package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"scadenze/internal/core"
	"scadenze/internal/source"
)

// Source serves data sets from JSON files in a directory, one
// <name>.json per data set.
type Source struct {
	dir string
}

var _ source.Fetcher = (*Source)(nil)

func New(dir string) *Source {
	return &Source{dir: dir}
}

func (s *Source) Fetch(ctx context.Context, name core.DataSetName) ([]byte, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, name.String()+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
