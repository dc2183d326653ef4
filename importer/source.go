package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var ErrSheetsDisabled = errors.New("google sheets import is not configured")

// ReadCSV reads at most MaxRows data rows plus a header from r.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records := make([][]string, 0)
	for len(records) <= MaxRows+1 {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Sheets reads value ranges from Google Sheets.
type Sheets struct {
	svc *sheets.Service
}

// NewSheets creates a read-only Sheets client. credentialsJSON is a service
// account key; when it is nil the client relies on opts alone.
func NewSheets(ctx context.Context, credentialsJSON []byte, opts ...option.ClientOption) (*Sheets, error) {
	if credentialsJSON != nil {
		opts = append([]option.ClientOption{
			option.WithCredentialsJSON(credentialsJSON),
			option.WithScopes(sheets.SpreadsheetsReadonlyScope),
		}, opts...)
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Sheets{svc: svc}, nil
}

// Read returns the cells of readRange, such as "Sheet1!A:E". Dates come back
// as serial numbers.
func (s *Sheets) Read(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	if s == nil {
		return nil, ErrSheetsDisabled
	}
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("reading range %s: %w", readRange, err)
	}

	records := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = cellString(v)
		}
		records = append(records, record)
	}
	return records, nil
}

func cellString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// WriteTemplate writes a sample import file.
func WriteTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	err := cw.WriteAll([][]string{
		{"Date", "Category", "Description", "Amount", "Currency"},
		{"2024-01-15", "Food & Dining", "Lunch at restaurant", "25.50", "USD"},
		{"2024-01-16", "Transportation", "Gas for car", "45.00", "USD"},
		{"2024-01-17", "Shopping", "Groceries", "120.75", "USD"},
	})
	if err != nil {
		return fmt.Errorf("writing template: %w", err)
	}
	return nil
}
