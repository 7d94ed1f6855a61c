package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scadenze/internal/core"
)

func TestLoadLocations_Default(t *testing.T) {
	locs, err := LoadLocations("")
	if err != nil {
		t.Fatalf("LoadLocations() error = %v", err)
	}
	if len(locs) != 2 || locs[0].DataSet != "at_expenses" || locs[0].Schedule != core.ScheduleExtended {
		t.Fatalf("unexpected defaults %+v", locs)
	}
}

func TestLoadLocations_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.yaml")
	doc := `locations:
  - id: at
    label: Austria
    dataset: at_expenses
    schedule: extended
  - id: bh
    dataset: bh_expenses
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	locs, err := LoadLocations(path)
	if err != nil {
		t.Fatalf("LoadLocations() error = %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locs))
	}
	if locs[0].Label != "Austria" || locs[0].Schedule != core.ScheduleExtended {
		t.Errorf("unexpected first location %+v", locs[0])
	}
	if locs[1].Label != "bh" || locs[1].Schedule != core.ScheduleMonthly {
		t.Errorf("defaults not applied: %+v", locs[1])
	}
}

func TestParseLocations_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not yaml", "locations: [", "parse locations"},
		{"empty", "locations: []", "no locations defined"},
		{"bad dataset", "locations:\n  - id: x\n    dataset: ../etc\n", "invalid data set name"},
		{"bad schedule", "locations:\n  - id: x\n    dataset: x\n    schedule: weekly\n", "invalid schedule"},
		{"duplicate", "locations:\n  - id: x\n    dataset: a\n  - id: x\n    dataset: b\n", "duplicate location id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLocations([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseLocations() error = %v, want %q", err, tt.want)
			}
		})
	}

	if _, err := LoadLocations("/nonexistent/locations.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
