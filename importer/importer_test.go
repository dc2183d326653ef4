package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/billbatista/acasinha-finance/category"
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
)

var names = category.Names(category.Defaults())

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15", day(2024, 1, 15)},
		{"2024-1-5", day(2024, 1, 5)},
		{"2024-01-15T18:30:00Z", day(2024, 1, 15)},
		{"01/15/2024", day(2024, 1, 15)},
		{"1/5/2024", day(2024, 1, 5)},
		{"15-01-2024", day(2024, 1, 15)},
		{"Jan 15, 2024", day(2024, 1, 15)},
		{"January 15, 2024", day(2024, 1, 15)},
		{"45306", day(2024, 1, 15)},
		{"45306.75", day(2024, 1, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"yesterday", "13/45/2024", "0", "-3"} {
		_, ok := parseDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseAmount(t *testing.T) {
	got, ok := parseAmount("$1,200.50")
	assert.True(t, ok)
	assert.True(t, got.Equal(decimal.RequireFromString("1200.50")))

	got, ok = parseAmount(" 25.5 USD")
	assert.True(t, ok)
	assert.True(t, got.Equal(decimal.RequireFromString("25.5")))

	for _, bad := range []string{"abc", "0", "-4", "1.2.3"} {
		_, ok := parseAmount(bad)
		assert.False(t, ok, bad)
	}
}

func TestParse(t *testing.T) {
	records := [][]string{
		{"Date", "Category", "Description", "Amount", "Currency"},
		{"2024-01-15", "food & dining", "Lunch", "25.50", "USD"},
		{"01/16/2024", "Food", "Gas", "45", ""},
		{"2024-01-17", "Groceries", "Market", "120.75", "eur"},
		{"", "", "", "", ""},
		{"someday", "Travel", "", "-1", "GBP"},
		{"2024-01-18", "Travel", "Hotel"},
	}
	p := Parse(records, names, currency.CAD)
	assert.Equal(t, 5, len(p.Rows))
	assert.Equal(t, 3, p.Valid)
	assert.Equal(t, 2, p.Invalid)
	assert.False(t, p.Truncated)

	exact := p.Rows[0]
	assert.Equal(t, 2, exact.Line)
	assert.Equal(t, "Food & Dining", exact.Category)
	assert.Equal(t, category.Exact, exact.Match.Kind)
	assert.Equal(t, currency.USD, exact.Currency)

	fuzzy := p.Rows[1]
	assert.Equal(t, "Food & Dining", fuzzy.Category)
	assert.Equal(t, category.Fuzzy, fuzzy.Match.Kind)
	assert.Equal(t, currency.CAD, fuzzy.Currency)

	fallback := p.Rows[2]
	assert.True(t, fallback.Valid)
	assert.Equal(t, category.Other, fallback.Category)
	assert.Equal(t, 1, len(fallback.Warnings))
	assert.Equal(t, currency.EUR, fallback.Currency)

	broken := p.Rows[3]
	assert.Equal(t, 6, broken.Line)
	assert.False(t, broken.Valid)
	assert.Equal(t, 3, len(broken.Errors))
	assert.Equal(t, currency.CAD, broken.Currency)
	assert.Equal(t, 1, len(broken.Warnings))

	short := p.Rows[4]
	assert.False(t, short.Valid)
	assert.Equal(t, []string{"amount is required"}, short.Errors)
}

func TestParseWithoutHeader(t *testing.T) {
	p := Parse([][]string{{"2024-02-01", "Travel", "Train", "30"}}, names, currency.USD)
	assert.Equal(t, 1, p.Valid)
	assert.Equal(t, 1, p.Rows[0].Line)

	p = Parse([][]string{{"\ufeffWhen", "Category"}, {"2024-02-01", "Travel", "Train", "30"}}, names, currency.USD)
	assert.Equal(t, 1, len(p.Rows))

	p = Parse(nil, names, currency.USD)
	assert.Equal(t, 0, len(p.Rows))
}

func TestParseRowLimit(t *testing.T) {
	records := make([][]string, 0, MaxRows+5)
	for i := range MaxRows + 5 {
		records = append(records, []string{"2024-02-01", "Travel", "Trip " + strconv.Itoa(i), "1"})
	}
	p := Parse(records, names, currency.USD)
	assert.Equal(t, MaxRows, len(p.Rows))
	assert.Equal(t, MaxRows, p.Valid)
	assert.True(t, p.Truncated)
}

func TestPreviewConversions(t *testing.T) {
	p := Parse([][]string{
		{"2024-01-15", "Shopping", "Shoes", "80", "EUR"},
		{"bad", "Shopping", "Hat", "10"},
	}, names, currency.USD)

	userID := uuid.New()
	expenses := p.Expenses(userID)
	assert.Equal(t, 1, len(expenses))
	assert.Equal(t, userID, expenses[0].UserID)
	assert.Equal(t, "Shopping", expenses[0].Category)
	assert.Equal(t, currency.EUR, expenses[0].Currency)
	assert.NoError(t, expenses[0].Validate())

	projectID := uuid.New()
	entries := p.Entries(projectID)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, projectID, entries[0].ProjectID)
	assert.Equal(t, "Shoes", entries[0].Description)
}

func TestReadCSV(t *testing.T) {
	in := "Date,Category,Description,Amount\n2024-01-15, Food & Dining,\"Lunch, with team\",25.50\n2024-01-16,Travel,Bus\n"
	records, err := ReadCSV(strings.NewReader(in))
	assert.NoError(t, err)
	assert.Equal(t, 3, len(records))
	assert.Equal(t, "Lunch, with team", records[1][2])
	assert.Equal(t, 3, len(records[2]))

	_, err = ReadCSV(strings.NewReader("a,\"b\n"))
	assert.Error(t, err)
}

func TestTemplateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteTemplate(&buf))

	records, err := ReadCSV(&buf)
	assert.NoError(t, err)
	p := Parse(records, names, currency.USD)
	assert.Equal(t, 3, p.Valid)
	assert.Equal(t, 0, p.Invalid)
}

func TestSheetsRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.Contains(r.URL.Path, "/spreadsheets/sheet-id/values/"), r.URL.Path)
		assert.Equal(t, "UNFORMATTED_VALUE", r.URL.Query().Get("valueRenderOption"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"range":          "Expenses!A1:E3",
			"majorDimension": "ROWS",
			"values": [][]any{
				{"Date", "Category", "Description", "Amount", "Currency"},
				{45306, "Food & Dining", "Lunch", 25.5, "USD"},
				{45307, "Travel", "Taxi", 12, nil},
			},
		})
	}))
	defer srv.Close()

	ctx := context.Background()
	s, err := NewSheets(ctx, nil, option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	assert.NoError(t, err)

	records, err := s.Read(ctx, "sheet-id", "Expenses!A:E")
	assert.NoError(t, err)
	assert.Equal(t, []string{"45306", "Food & Dining", "Lunch", "25.5", "USD"}, records[1])
	assert.Equal(t, "", records[2][4])

	p := Parse(records, names, currency.USD)
	assert.Equal(t, 2, p.Valid)
	assert.Equal(t, day(2024, 1, 15), p.Rows[0].Date)
}

func TestSheetsDisabled(t *testing.T) {
	var s *Sheets
	_, err := s.Read(context.Background(), "id", "A:E")
	assert.IsError(t, err, ErrSheetsDisabled)
}
