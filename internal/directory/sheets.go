package directory

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON []byte
}

// SheetsDirectory reads the roster from a Google Sheet. Every lookup fetches
// the sheet fresh; the roster is externally owned and nothing is persisted
// locally, so an edited row is visible on the next lookup.
type SheetsDirectory struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheets(ctx context.Context, cfg SheetsConfig) (*SheetsDirectory, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return &SheetsDirectory{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sheetName:     sheetName,
	}, nil
}

func (d *SheetsDirectory) Lookup(ctx context.Context, userID string) (Record, bool, error) {
	resp, err := d.svc.Spreadsheets.Values.Get(d.spreadsheetID, d.sheetName).Context(ctx).Do()
	if err != nil {
		return nil, false, fmt.Errorf("sheets values get: %w", err)
	}
	headers, rows := parseValues(resp.Values)
	rec, ok := MatchRecord(headers, rows, userID)
	return rec, ok, nil
}

func parseValues(values [][]any) ([]string, []Record) {
	if len(values) == 0 {
		return []string{}, nil
	}
	headers := make([]string, 0, len(values[0]))
	for _, cell := range values[0] {
		headers = append(headers, strings.TrimSpace(fmt.Sprint(cell)))
	}
	rows := make([]Record, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make(Record, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(raw) {
				row[header] = strings.TrimSpace(fmt.Sprint(raw[i]))
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return headers, rows
}
