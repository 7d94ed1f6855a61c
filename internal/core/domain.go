package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EveryMonth   Recurrence = "all"
	Quarterly    Recurrence = "quarterly"
	CurrentMonth Recurrence = ""
)

type (
	// DataSetName identifies a logical collection of expense records, one per location.
	DataSetName string

	// Recurrence is the "month" tag of a record: "all", "quarterly", a month name,
	// or empty for a one-off expense in the current calendar month.
	Recurrence string

	ExpenseRecord struct {
		Day     int             `json:"day"`
		Expense string          `json:"expense"`
		Price   decimal.Decimal `json:"price"`
		Month   Recurrence      `json:"month,omitempty"`
	}

	// Payload is the wire shape of a data set resource.
	Payload struct {
		Expenses []ExpenseRecord `json:"expenses"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidName      = errors.New("invalid data set name")
	ErrMissingExpenses  = errors.New("payload has no expenses list")
)

var monthsByName = func() map[string]time.Month {
	m := make(map[string]time.Month, 24)
	for mo := time.January; mo <= time.December; mo++ {
		full := strings.ToLower(mo.String())
		m[full] = mo
		m[full[:3]] = mo
	}
	return m
}()

// Validate checks the name is usable as a file name and URL path segment.
func (n DataSetName) Validate() error {
	s := string(n)
	if s == "" || strings.Contains(s, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, s)
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidName, s)
		}
	}
	return nil
}

func (n DataSetName) String() string {
	return string(n)
}

// Normalized lowercases and trims the tag.
func (r Recurrence) Normalized() Recurrence {
	return Recurrence(strings.ToLower(strings.TrimSpace(string(r))))
}

// MonthOf returns the calendar month named by the tag, accepting full
// and three-letter English names in any case.
func (r Recurrence) MonthOf() (time.Month, bool) {
	m, ok := monthsByName[string(r.Normalized())]
	return m, ok
}

func (e ExpenseRecord) Validate() error {
	if e.Day < 1 || e.Day > 31 {
		return ErrInvalidDay
	}
	if len(strings.TrimSpace(e.Expense)) == 0 {
		return ErrEmptyDescription
	}
	if e.Price.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// DecodePayload parses a raw data set body. Individual records are not
// validated here; consumers skip the ones that fail Validate.
func DecodePayload(raw []byte) (Payload, error) {
	var probe struct {
		Expenses *[]ExpenseRecord `json:"expenses"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	if probe.Expenses == nil {
		return Payload{}, ErrMissingExpenses
	}
	return Payload{Expenses: *probe.Expenses}, nil
}
