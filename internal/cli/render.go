package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"scadenze/internal/cache"
	"scadenze/internal/core"
	"scadenze/internal/services"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	pastStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	upcomingStyle = lipgloss.NewStyle()
	totalStyle    = lipgloss.NewStyle().Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// RenderMonth writes the month table, boxed and colored on a terminal.
func RenderMonth(w io.Writer, bv services.BoardView) error {
	styled := isWriterTerminal(w)
	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	amountWidth := len(bv.RemainingText)
	labelWidth := len("Remaining")
	for _, r := range bv.Rows {
		amountWidth = max(amountWidth, len(r.Amount))
		labelWidth = max(labelWidth, len(r.Expense))
	}

	var b strings.Builder
	fmt.Fprintln(&b, style(titleStyle, fmt.Sprintf("%s · %s", bv.Location.Label, bv.Title)))
	if bv.Notice != "" {
		s := noticeStyle
		if bv.LoadFailed {
			s = errorStyle
		}
		fmt.Fprintln(&b, style(s, bv.Notice))
	}
	fmt.Fprintln(&b)

	if len(bv.Rows) == 0 {
		fmt.Fprintln(&b, "No expenses this month.")
	}
	for _, r := range bv.Rows {
		line := fmt.Sprintf("%2d  %-*s  %*s", r.Day, labelWidth, r.Expense, amountWidth, r.Amount)
		s := upcomingStyle
		if r.Past {
			s = pastStyle
		} else if !styled {
			line += "  *"
		}
		fmt.Fprintln(&b, style(s, line))
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, style(totalStyle, fmt.Sprintf("    %-*s  %*s", labelWidth, "Remaining", amountWidth, bv.RemainingText)))
	if !bv.CapturedAt.IsZero() {
		fmt.Fprintf(&b, "\nupdated %s (%s)", bv.CapturedAt.UTC().Format("2006-01-02 15:04 MST"), bv.State)
	}

	out := b.String()
	if styled {
		out = boxStyle.Render(strings.TrimRight(out, "\n"))
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(out, "\n"))
	return err
}

// RenderEntry writes a cache entry summary.
func RenderEntry(w io.Writer, name core.DataSetName, e cache.Entry, now time.Time) error {
	info := describeEntry(name, e, now)
	status := "fresh"
	if !info.Fresh {
		status = "expired"
	}
	records := fmt.Sprintf("%d", info.Records)
	if info.Invalid {
		records = "unreadable payload"
	}
	_, err := fmt.Fprintf(w, "key:       %s\ncaptured:  %s\nage:       %s\nstatus:    %s\nrecords:   %s\n",
		info.Key,
		info.CapturedAt.UTC().Format(time.RFC3339),
		info.Age.Round(time.Second),
		status,
		records)
	return err
}
