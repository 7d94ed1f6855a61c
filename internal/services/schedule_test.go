package services

import (
	"testing"
	"time"

	"scadenze/internal/core"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		tag    core.Recurrence
		want   RecurrenceKind
		wantOK bool
	}{
		{"all", KindEveryMonth, true},
		{" ALL ", KindEveryMonth, true},
		{"quarterly", KindQuarterly, true},
		{"february", KindNamedMonth, true},
		{"Feb", KindNamedMonth, true},
		{"", KindCurrentMonth, true},
		{"biweekly", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.tag), func(t *testing.T) {
			got, ok := KindOf(tt.tag)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("KindOf(%q) = %q, %v; want %q, %v", tt.tag, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsVisible(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	month := func(m time.Month) time.Time { return time.Date(2025, m, 1, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		schedule core.Schedule
		tag      core.Recurrence
		view     time.Time
		want     bool
	}{
		{"all in january", core.ScheduleExtended, "all", month(time.January), true},
		{"all on monthly schedule", core.ScheduleMonthly, "all", month(time.July), true},
		{"quarterly in march", core.ScheduleExtended, "quarterly", month(time.March), true},
		{"quarterly in june", core.ScheduleExtended, "quarterly", month(time.June), true},
		{"quarterly in september", core.ScheduleExtended, "quarterly", month(time.September), true},
		{"quarterly in december", core.ScheduleExtended, "quarterly", month(time.December), true},
		{"quarterly in april", core.ScheduleExtended, "quarterly", month(time.April), false},
		{"quarterly on monthly schedule", core.ScheduleMonthly, "quarterly", month(time.March), false},
		{"february in february", core.ScheduleExtended, "february", month(time.February), true},
		{"february in march", core.ScheduleExtended, "february", month(time.March), false},
		{"named month on monthly schedule", core.ScheduleMonthly, "february", month(time.February), false},
		{"untagged in current month", core.ScheduleExtended, "", month(time.March), true},
		{"untagged next year", core.ScheduleExtended, "", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"untagged in other month", core.ScheduleExtended, "", month(time.April), false},
		{"unknown tag", core.ScheduleExtended, "sometimes", month(time.March), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVisible(tt.schedule, tt.tag, tt.view, now); got != tt.want {
				t.Errorf("IsVisible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetVisibilityChecker(t *testing.T) {
	if _, err := GetVisibilityChecker("yearly"); err == nil {
		t.Fatal("expected error for unregistered kind")
	}
	if _, err := GetVisibilityChecker(KindQuarterly); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
