package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ScheduleExtended honors every recurrence tag.
	ScheduleExtended Schedule = "extended"
	// ScheduleMonthly honors only "all".
	ScheduleMonthly Schedule = "monthly"
)

type (
	Schedule string

	// Location is a selectable data set shown by the month view.
	Location struct {
		ID       string      `yaml:"id" json:"id"`
		Label    string      `yaml:"label" json:"label"`
		DataSet  DataSetName `yaml:"dataset" json:"dataset"`
		Schedule Schedule    `yaml:"schedule" json:"schedule"`
	}
)

var ErrUnknownLocation = errors.New("unknown location")

func (s Schedule) IsValid() bool {
	switch s {
	case ScheduleExtended, ScheduleMonthly:
		return true
	default:
		return false
	}
}

func (l Location) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("location id cannot be empty")
	}
	if err := l.DataSet.Validate(); err != nil {
		return fmt.Errorf("location %s: %w", l.ID, err)
	}
	if !l.Schedule.IsValid() {
		return fmt.Errorf("location %s: invalid schedule %q", l.ID, l.Schedule)
	}
	return nil
}

// DefaultLocations mirrors the two data sets the board started with.
func DefaultLocations() []Location {
	return []Location{
		{ID: "at", Label: "AT", DataSet: "at_expenses", Schedule: ScheduleExtended},
		{ID: "bh", Label: "BH", DataSet: "bh_expenses", Schedule: ScheduleMonthly},
	}
}

// FindLocation returns the location with the given id.
func FindLocation(locs []Location, id string) (Location, error) {
	for _, l := range locs {
		if l.ID == id {
			return l, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %s", ErrUnknownLocation, id)
}
