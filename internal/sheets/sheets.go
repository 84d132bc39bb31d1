// Package sheets exports month schedules to a Google Spreadsheet.
// Export is one-way: the spreadsheet is a report, never a source of
// truth.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"billfold/internal/core"
	applog "billfold/internal/log"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Auth comes from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_SHEET_NAME
// (default "Schedule").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Schedule"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("no Google credentials configured")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// monthRows lays out the spreadsheet block for one month: a header row,
// one row per entry, and one labeled totals row per entry kind so every
// amount stays in the amount column. The income totals row carries the
// month's closing net in the running-net column.
func monthRows(year, month int, entries []core.ScheduleEntry, totals core.MonthTotals) [][]interface{} {
	rows := make([][]interface{}, 0, len(entries)+3)
	rows = append(rows, []interface{}{"Date", "Kind", "Name", "Amount", "Running net"})
	for _, e := range entries {
		rows = append(rows, []interface{}{
			fmt.Sprintf("%04d-%02d-%02d", e.Year, e.Month, e.Day),
			string(e.Kind),
			e.Name,
			e.Amount.Dollars(),
			float64(e.RunningNet) / 100.0,
		})
	}
	label := fmt.Sprintf("%04d-%02d", year, month)
	rows = append(rows,
		[]interface{}{label, string(core.EntryObligation), "Total due", totals.TotalDue.Dollars(), ""},
		[]interface{}{label, string(core.EntryIncome), "Total income", totals.TotalIncome.Dollars(),
			float64(totals.TotalIncome.Cents-totals.TotalDue.Cents) / 100.0},
	)
	return rows
}

// ExportMonth appends the month's merged schedule to the spreadsheet,
// one row per entry plus labeled totals rows.
func (c *Client) ExportMonth(ctx context.Context, year, month int, entries []core.ScheduleEntry, totals core.MonthTotals) error {
	values := monthRows(year, month, entries, totals)

	rangeRef := fmt.Sprintf("%s!A:E", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rangeRef, &gsheet.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append schedule rows: %w", err)
	}

	slog.InfoContext(ctx, "Schedule exported to Google Sheets",
		applog.FieldComponent, applog.ComponentSheets,
		applog.FieldYear, year,
		applog.FieldMonth, month,
		"rows", len(values),
		"sheet", c.sheetName)

	return nil
}
