package services

import (
	"time"

	"github.com/shopspring/decimal"

	"scadenze/internal/core"
)

// ViewDate selects the month being looked at and the day used to split
// past from upcoming. Zero fields default to the clock.
type ViewDate struct {
	Year  int
	Month time.Month
	Day   int
}

// Resolve fills zero fields from now and clamps the day into the month.
func (v ViewDate) Resolve(now time.Time) ViewDate {
	if v.Year == 0 {
		v.Year = now.Year()
	}
	if v.Month < time.January || v.Month > time.December {
		v.Month = now.Month()
	}
	if v.Day == 0 {
		v.Day = now.Day()
	}
	last := DaysInMonth(v.Year, v.Month)
	if v.Day < 1 {
		v.Day = 1
	}
	if v.Day > last {
		v.Day = last
	}
	return v
}

// Time returns midnight UTC of the viewed day.
func (v ViewDate) Time() time.Time {
	return time.Date(v.Year, v.Month, v.Day, 0, 0, 0, 0, time.UTC)
}

// Prev and Next navigate months keeping the day in range.
func (v ViewDate) Prev() ViewDate { return v.addMonths(-1) }
func (v ViewDate) Next() ViewDate { return v.addMonths(1) }

func (v ViewDate) addMonths(n int) ViewDate {
	first := time.Date(v.Year, v.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	out := ViewDate{Year: first.Year(), Month: first.Month(), Day: v.Day}
	if last := DaysInMonth(out.Year, out.Month); out.Day > last {
		out.Day = last
	}
	return out
}

// DaysInMonth returns the number of days of month in year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRow is one visible record of the month view.
type MonthRow struct {
	Day     int             `json:"day"`
	Expense string          `json:"expense"`
	Price   decimal.Decimal `json:"price"`
	Amount  string          `json:"amount"`
	Icon    string          `json:"icon"`
	Month   core.Recurrence `json:"month,omitempty"`
	Past    bool            `json:"past"`
}

// MonthView is the month table for a location.
type MonthView struct {
	Location      core.Location   `json:"location"`
	Date          ViewDate        `json:"date"`
	Title         string          `json:"title"`
	DaysInMonth   int             `json:"days_in_month"`
	Rows          []MonthRow      `json:"rows"`
	Remaining     decimal.Decimal `json:"remaining"`
	RemainingText string          `json:"remaining_text"`
	Skipped       int             `json:"skipped,omitempty"`
}

// BuildMonthView filters records by visibility for the viewed month and
// splits them around the viewed day. Records keep their source order.
func BuildMonthView(loc core.Location, records []core.ExpenseRecord, view ViewDate, now time.Time) MonthView {
	view = view.Resolve(now)
	viewed := view.Time()

	mv := MonthView{
		Location:    loc,
		Date:        view,
		Title:       viewed.Format("January 2006"),
		DaysInMonth: DaysInMonth(view.Year, view.Month),
		Rows:        make([]MonthRow, 0, len(records)),
		Remaining:   decimal.Zero,
	}

	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			mv.Skipped++
			continue
		}
		if !IsVisible(loc.Schedule, rec.Month, viewed, now) {
			continue
		}

		// Day 31 in a 30 day month rolls into the next month, which counts as upcoming.
		due := time.Date(view.Year, view.Month, rec.Day, 0, 0, 0, 0, time.UTC)
		past := !due.After(viewed)
		if !past {
			mv.Remaining = mv.Remaining.Add(rec.Price)
		}

		mv.Rows = append(mv.Rows, MonthRow{
			Day:     rec.Day,
			Expense: rec.Expense,
			Price:   rec.Price,
			Amount:  core.FormatAmount(rec.Price),
			Icon:    core.IconFor(rec.Expense),
			Month:   rec.Month,
			Past:    past,
		})
	}

	mv.RemainingText = core.FormatAmount(mv.Remaining)
	return mv
}

// Upcoming counts rows after the viewed day.
func (mv MonthView) Upcoming() int {
	n := 0
	for _, r := range mv.Rows {
		if !r.Past {
			n++
		}
	}
	return n
}
