package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"scadenze/internal/core"
)

type locationsFile struct {
	Locations []core.Location `yaml:"locations"`
}

// LoadLocations reads the selectable locations from a YAML file. An empty
// path yields the built-in defaults. A missing schedule means monthly.
//
//	locations:
//	  - id: at
//	    label: AT
//	    dataset: at_expenses
//	    schedule: extended
func LoadLocations(path string) ([]core.Location, error) {
	if path == "" {
		return core.DefaultLocations(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}
	return ParseLocations(raw)
}

// ParseLocations decodes and validates a locations document.
func ParseLocations(raw []byte) ([]core.Location, error) {
	var f locationsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse locations: %w", err)
	}
	if len(f.Locations) == 0 {
		return nil, fmt.Errorf("parse locations: no locations defined")
	}

	seen := make(map[string]bool, len(f.Locations))
	for i := range f.Locations {
		loc := &f.Locations[i]
		if loc.Schedule == "" {
			loc.Schedule = core.ScheduleMonthly
		}
		if loc.Label == "" {
			loc.Label = loc.ID
		}
		if err := loc.Validate(); err != nil {
			return nil, err
		}
		if seen[loc.ID] {
			return nil, fmt.Errorf("duplicate location id %q", loc.ID)
		}
		seen[loc.ID] = true
	}
	return f.Locations, nil
}
