// Package importer turns spreadsheet rows into expenses or project entries.
//
// Rows are Date, Category, Description, Amount and an optional Currency, in
// that order. A leading header row is skipped when its first cell looks like
// a date heading.
package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/billbatista/acasinha-finance/category"
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/expense"
	"github.com/billbatista/acasinha-finance/project"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxRows is the most data rows a single import reads.
const MaxRows = 1000

const (
	colDate = iota
	colCategory
	colDescription
	colAmount
	colCurrency
)

var (
	headerWords = []string{"date", "day", "time", "when"}
	notAmount   = regexp.MustCompile(`[^\d.-]`)

	// Spreadsheet serial day 0.
	serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	dateLayouts = []string{
		"2006-1-2",
		time.RFC3339,
		"1/2/2006",
		"2-1-2006",
		"Jan 2, 2006",
		"January 2, 2006",
	}
)

// Row is one parsed spreadsheet row. Errors make the row invalid; warnings
// don't.
type Row struct {
	Line        int             `json:"line"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    currency.Code   `json:"currency"`
	Match       category.Match  `json:"match"`
	Valid       bool            `json:"valid"`
	Errors      []string        `json:"errors,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
}

type Preview struct {
	Rows      []Row `json:"rows"`
	Valid     int   `json:"valid"`
	Invalid   int   `json:"invalid"`
	Truncated bool  `json:"truncated"`
}

// Parse validates records against the user's category names. Rows without a
// currency, or with an unknown one, use def.
func Parse(records [][]string, categories []string, def currency.Code) Preview {
	p := Preview{Rows: make([]Row, 0, min(len(records), MaxRows))}
	start := 0
	if len(records) > 0 && isHeader(records[0]) {
		start = 1
	}

	for i := start; i < len(records); i++ {
		if blank(records[i]) {
			continue
		}
		if len(p.Rows) == MaxRows {
			p.Truncated = true
			break
		}
		row := parseRow(records[i], categories, def)
		row.Line = i + 1
		if row.Valid {
			p.Valid++
		} else {
			p.Invalid++
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

func parseRow(record []string, categories []string, def currency.Code) Row {
	row := Row{Currency: def}
	cell := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	if v := cell(colDate); v == "" {
		row.Errors = append(row.Errors, "date is required")
	} else if d, ok := parseDate(v); ok {
		row.Date = d
	} else {
		row.Errors = append(row.Errors, fmt.Sprintf("invalid date %q", v))
	}

	if v := cell(colCategory); v == "" {
		row.Errors = append(row.Errors, "category is required")
	} else {
		row.Match = category.Resolve(v, categories)
		row.Category = row.Match.Category
		if row.Match.Kind == category.Fallback {
			row.Warnings = append(row.Warnings, fmt.Sprintf("category %q not found, set to %q", v, category.Other))
		}
	}

	row.Description = cell(colDescription)
	if row.Description == "" {
		row.Errors = append(row.Errors, "description is required")
	} else if len([]rune(row.Description)) > expense.MaxDescriptionLength {
		row.Errors = append(row.Errors, "description is too long")
	}

	if v := cell(colAmount); v == "" {
		row.Errors = append(row.Errors, "amount is required")
	} else if amount, ok := parseAmount(v); ok {
		row.Amount = amount
	} else {
		row.Errors = append(row.Errors, fmt.Sprintf("invalid amount %q", v))
	}

	if v := cell(colCurrency); v != "" {
		if code, err := currency.Parse(v); err == nil {
			row.Currency = code
		} else {
			row.Warnings = append(row.Warnings, fmt.Sprintf("unknown currency %q, using %s", v, def))
		}
	}

	row.Valid = len(row.Errors) == 0
	return row
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimPrefix(record[0], "\ufeff"))
	for _, w := range headerWords {
		if strings.Contains(first, w) {
			return true
		}
	}
	return false
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseDate(s string) (time.Time, bool) {
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < 1 || serial > 2958465 {
			return time.Time{}, false
		}
		return serialEpoch.AddDate(0, 0, int(math.Floor(serial))), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseAmount(s string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(notAmount.ReplaceAllString(s, ""))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// Expenses returns the valid rows as expenses for userID.
func (p Preview) Expenses(userID uuid.UUID) []expense.Expense {
	out := make([]expense.Expense, 0, p.Valid)
	for _, r := range p.Rows {
		if !r.Valid {
			continue
		}
		out = append(out, expense.Expense{
			ID:          uuid.New(),
			UserID:      userID,
			Date:        r.Date,
			Category:    r.Category,
			Description: r.Description,
			Amount:      r.Amount,
			Currency:    r.Currency,
		})
	}
	return out
}

// Entries returns the valid rows as entries of projectID. Categories are
// dropped.
func (p Preview) Entries(projectID uuid.UUID) []project.Entry {
	out := make([]project.Entry, 0, p.Valid)
	for _, r := range p.Rows {
		if !r.Valid {
			continue
		}
		out = append(out, project.Entry{
			ID:          uuid.New(),
			ProjectID:   projectID,
			Date:        r.Date,
			Description: r.Description,
			Amount:      r.Amount,
			Currency:    r.Currency,
		})
	}
	return out
}
