// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurrence visibility.
// Each recurrence kind (every month, quarterly, named month, current month)
// has its own checker deciding whether a record shows up in a viewed month.

package services

import (
	"fmt"
	"time"

	"scadenze/internal/core"
)

// RecurrenceKind groups recurrence tags that share a visibility rule.
type RecurrenceKind string

const (
	KindEveryMonth   RecurrenceKind = "every_month"
	KindQuarterly    RecurrenceKind = "quarterly"
	KindNamedMonth   RecurrenceKind = "named_month"
	KindCurrentMonth RecurrenceKind = "current_month"
)

// VisibilityChecker is the strategy interface for recurrence visibility.
type VisibilityChecker interface {
	// IsVisible reports whether a record tagged r appears in the month of view.
	// now is the wall clock, used by tags relative to the present.
	IsVisible(r core.Recurrence, view, now time.Time) bool
}

// EveryMonthChecker shows "all" records in every month.
type EveryMonthChecker struct{}

func (EveryMonthChecker) IsVisible(_ core.Recurrence, _, _ time.Time) bool {
	return true
}

// QuarterlyChecker shows records at the end of each quarter.
type QuarterlyChecker struct{}

func (QuarterlyChecker) IsVisible(_ core.Recurrence, view, _ time.Time) bool {
	switch view.Month() {
	case time.March, time.June, time.September, time.December:
		return true
	default:
		return false
	}
}

// NamedMonthChecker shows "february"-style records once a year.
type NamedMonthChecker struct{}

func (NamedMonthChecker) IsVisible(r core.Recurrence, view, _ time.Time) bool {
	m, ok := r.MonthOf()
	return ok && view.Month() == m
}

// CurrentMonthChecker shows untagged records only in the clock's month.
type CurrentMonthChecker struct{}

func (CurrentMonthChecker) IsVisible(_ core.Recurrence, view, now time.Time) bool {
	return view.Year() == now.Year() && view.Month() == now.Month()
}

// visibilityStrategies maps recurrence kinds to their checkers.
var visibilityStrategies = map[RecurrenceKind]VisibilityChecker{
	KindEveryMonth:   EveryMonthChecker{},
	KindQuarterly:    QuarterlyChecker{},
	KindNamedMonth:   NamedMonthChecker{},
	KindCurrentMonth: CurrentMonthChecker{},
}

// KindOf classifies a recurrence tag. Unknown tags report false.
func KindOf(r core.Recurrence) (RecurrenceKind, bool) {
	n := r.Normalized()
	switch {
	case n == core.EveryMonth:
		return KindEveryMonth, true
	case n == core.Quarterly:
		return KindQuarterly, true
	case n == core.CurrentMonth:
		return KindCurrentMonth, true
	}
	if _, ok := n.MonthOf(); ok {
		return KindNamedMonth, true
	}
	return "", false
}

// GetVisibilityChecker returns the checker registered for kind.
func GetVisibilityChecker(kind RecurrenceKind) (VisibilityChecker, error) {
	checker, ok := visibilityStrategies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence kind: %s", kind)
	}
	return checker, nil
}

// IsVisible applies the location schedule and the recurrence strategy.
// A monthly schedule only honors records tagged "all".
func IsVisible(schedule core.Schedule, r core.Recurrence, view, now time.Time) bool {
	kind, ok := KindOf(r)
	if !ok {
		return false
	}
	if schedule == core.ScheduleMonthly && kind != KindEveryMonth {
		return false
	}
	checker, err := GetVisibilityChecker(kind)
	if err != nil {
		return false
	}
	return checker.IsVisible(r, view, now)
}
