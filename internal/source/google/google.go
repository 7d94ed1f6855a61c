package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"scadenze/internal/core"
	"scadenze/internal/source"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads data sets from a spreadsheet: one tab per data set, named
// after it, with a header row containing Day, Expense, Price and Month.
type Client struct {
	spreadsheetID string
	readRange     func(ctx context.Context, rng string) ([][]any, error)
}

var _ source.Fetcher = (*Client)(nil)

// Credentials selects how the service account is supplied; JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

// New creates a Sheets-backed source using service account credentials.
// An empty Credentials falls back to GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		spreadsheetID: spreadsheetID,
		readRange: func(ctx context.Context, rng string) ([][]any, error) {
			resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, rng).
				ValueRenderOption("UNFORMATTED_VALUE").
				Context(ctx).Do()
			if err != nil {
				return nil, err
			}
			return resp.Values, nil
		},
	}, nil
}

// newSheetsService initializes a read-only Sheets Service from service account credentials.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(creds.JSON))
	file := strings.TrimSpace(creds.File)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case len(credentialsJSON) > 0:
		slog.InfoContext(ctx, "Using inline service account credentials")
	case file != "":
		slog.InfoContext(ctx, "Reading service account credentials from file", "path", file)
		var err error
		credentialsJSON, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Fetch reads the tab named after the data set and returns it as a
// {"expenses": [...]} payload.
func (c *Client) Fetch(ctx context.Context, name core.DataSetName) ([]byte, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}
	if c.readRange == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("'%s'!A:Z", name)
	values, err := c.readRange(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	rows, err := parseExpenseRows(values)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rng, err)
	}
	return json.Marshal(sheetPayload{Expenses: rows})
}
