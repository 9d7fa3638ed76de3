// Package google exports month reports to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
)

const defaultSheetName = "Reports"

// Options configures the exporter. One of CredentialsJSON or CredentialsFile is required.
type Options struct {
	SpreadsheetID   string
	SheetName       string // base tab name; the report year is prefixed
	CredentialsJSON string
	CredentialsFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *slog.Logger
}

func componentLogger() *slog.Logger {
	return slog.Default().With(applog.FieldComponent, applog.ComponentSheets)
}

// New creates a Sheets exporter authenticated with a service account.
func New(ctx context.Context, opts Options) (*Exporter, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := loadCredentials(ctx, componentLogger(), opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newWithService(svc, opts), nil
}

func newWithService(svc *gsheet.Service, opts Options) *Exporter {
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = defaultSheetName
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		sheetBase:     base,
		logger:        componentLogger(),
	}
}

func loadCredentials(ctx context.Context, logger *slog.Logger, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		logger.InfoContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportMonth appends the report rows for d and returns the range written.
func (e *Exporter) ExportMonth(ctx context.Context, d services.Dashboard) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(e.sheetBase, d.From.Year())
	vr := &gsheet.ValueRange{Values: reportRows(d)}

	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, sheet+"!A:F", vr).
		// RAW keeps user text such as "=HYPERLINK(...)" from being evaluated
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}

	ref := sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	e.logger.InfoContext(ctx, "Exported month report",
		applog.FieldUserID, d.UserID,
		applog.FieldMonth, d.MonthKey,
		"range", ref,
		"rows", len(vr.Values))
	return ref, nil
}

// reportRows lays out one block per export: a header, a row per category,
// then total, status and progress. Amounts are written in major units.
func reportRows(d services.Dashboard) [][]any {
	rows := [][]any{{"Month", "User", "Category", "Amount", "Count", "Share %"}}
	for _, c := range d.Categories {
		rows = append(rows, []any{d.MonthKey, d.UserID, c.Name, core.Cents(c.AmountCents).Float(), c.Count, round2(c.Share)})
	}
	rows = append(rows,
		[]any{d.MonthKey, d.UserID, "Total", core.Cents(d.TotalCents).Float(), d.Count, ""},
		[]any{d.MonthKey, d.UserID, "Status", d.Status.String(), "", ""},
		[]any{d.MonthKey, d.UserID, "Progress %", round2(d.Progress), "", ""},
	)
	return rows
}

func round2(f float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 2, 64), 64)
	return v
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
