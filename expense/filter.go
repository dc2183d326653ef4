package expense

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Filter struct {
	Search   string // matches description or category
	Category string
	Month    string // YYYY-MM
}

const monthLayout = "2006-01"

// Validate rejects a month that is not in YYYY-MM form.
func (f Filter) Validate() error {
	if f.Month == "" {
		return nil
	}
	if _, err := time.Parse(monthLayout, f.Month); err != nil {
		return fmt.Errorf("%w: month %q", ErrInvalidDate, f.Month)
	}
	return nil
}

// Apply returns the expenses matching f, newest first. f must be valid.
func (f Filter) Apply(expenses []Expense) []Expense {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var month time.Time
	if f.Month != "" {
		month, _ = time.Parse(monthLayout, f.Month)
	}

	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Description), search) &&
			!strings.Contains(strings.ToLower(e.Category), search) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(e.Category, f.Category) {
			continue
		}
		if !month.IsZero() && (e.Date.Year() != month.Year() || e.Date.Month() != month.Month()) {
			continue
		}
		out = append(out, e)
	}
	SortNewestFirst(out)
	return out
}

func SortNewestFirst(expenses []Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date) {
			return expenses[i].Date.After(expenses[j].Date)
		}
		return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
	})
}
