package google

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type sheetRow struct {
	Day     int         `json:"day"`
	Expense string      `json:"expense"`
	Price   json.Number `json:"price"`
	Month   string      `json:"month,omitempty"`
}

type sheetPayload struct {
	Expenses []sheetRow `json:"expenses"`
}

// parseExpenseRows converts a values matrix (as returned by the Sheets API)
// into payload rows. The first row must carry the Day, Expense and Price
// headers; Month is optional. Blank rows are skipped, malformed ones too.
func parseExpenseRows(values [][]any) ([]sheetRow, error) {
	rows := make([]sheetRow, 0, len(values))
	if len(values) == 0 {
		return rows, nil
	}
	headers := toStrings(values[0])
	colDay := indexOf(headers, "Day")
	colExpense := indexOf(headers, "Expense")
	colPrice := indexOf(headers, "Price")
	colMonth := indexOf(headers, "Month")
	if colDay == -1 || colExpense == -1 || colPrice == -1 {
		missing := make([]string, 0, 3)
		if colDay == -1 {
			missing = append(missing, "Day")
		}
		if colExpense == -1 {
			missing = append(missing, "Expense")
		}
		if colPrice == -1 {
			missing = append(missing, "Price")
		}
		return nil, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	for i := 1; i < len(values); i++ {
		cols := toStrings(values[i])
		desc := safeGet(cols, colExpense)
		dayStr := safeGet(cols, colDay)
		if desc == "" && dayStr == "" {
			continue
		}
		day, err := strconv.Atoi(dayStr)
		if err != nil {
			continue
		}
		price, ok := parseAmount(safeGet(cols, colPrice))
		if !ok {
			continue
		}
		rows = append(rows, sheetRow{
			Day:     day,
			Expense: desc,
			Price:   json.Number(price.String()),
			Month:   strings.ToLower(safeGet(cols, colMonth)),
		})
	}
	return rows, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmount accepts plain numbers and decimal-comma strings ("12,50").
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
