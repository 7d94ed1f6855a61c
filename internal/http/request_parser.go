package http

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"scadenze/internal/services"
)

// ViewParams holds the month page query parameters.
type ViewParams struct {
	Location string
	View     services.ViewDate
	Force    bool
}

// ParseViewParams reads location, year, month, day and refresh from the
// query. Missing or malformed numbers stay zero so the board clock fills them.
func ParseViewParams(query url.Values) ViewParams {
	p := ViewParams{
		Location: strings.TrimSpace(query.Get("location")),
		View: services.ViewDate{
			Year:  atoiOrZero(query.Get("year")),
			Month: time.Month(atoiOrZero(query.Get("month"))),
			Day:   atoiOrZero(query.Get("day")),
		},
	}
	switch strings.ToLower(strings.TrimSpace(query.Get("refresh"))) {
	case "1", "true", "yes":
		p.Force = true
	}
	return p
}

func atoiOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Query encodes the params back into a month page query string.
func (p ViewParams) Query() string {
	q := url.Values{}
	if p.Location != "" {
		q.Set("location", p.Location)
	}
	if p.View.Year != 0 {
		q.Set("year", strconv.Itoa(p.View.Year))
	}
	if p.View.Month != 0 {
		q.Set("month", strconv.Itoa(int(p.View.Month)))
	}
	if p.View.Day != 0 {
		q.Set("day", strconv.Itoa(p.View.Day))
	}
	return q.Encode()
}
