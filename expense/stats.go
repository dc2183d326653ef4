package expense

import (
	"fmt"
	"sort"
	"time"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/shopspring/decimal"
)

const topCategories = 6

// Point is one bar of a chart series.
type Point struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Stats summarizes expenses in a single reporting currency.
type Stats struct {
	Currency     currency.Code   `json:"currency"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	MonthSpent   decimal.Decimal `json:"month_spent"`
	ExpenseCount int             `json:"expense_count"`
	TopCategory  string          `json:"top_category,omitempty"`
	Categories   []Point         `json:"categories"`
	Monthly      []Point         `json:"monthly"` // last six months, oldest first
	Daily        []Point         `json:"daily"`   // last seven days, oldest first
}

// ComputeStats converts every expense into target and aggregates the totals
// the dashboard shows, relative to now.
func ComputeStats(expenses []Expense, target currency.Code, now time.Time) (Stats, error) {
	if err := target.Validate(); err != nil {
		return Stats{}, err
	}

	today := Day(now)
	thisMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	s := Stats{
		Currency:     target,
		TotalSpent:   decimal.Zero,
		MonthSpent:   decimal.Zero,
		ExpenseCount: len(expenses),
		Monthly:      make([]Point, 6),
		Daily:        make([]Point, 7),
	}
	months := make([]time.Time, 6)
	for i := range months {
		months[i] = thisMonth.AddDate(0, i-5, 0)
		s.Monthly[i] = Point{Name: months[i].Format("Jan"), Value: decimal.Zero}
	}
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = today.AddDate(0, 0, i-6)
		s.Daily[i] = Point{Name: days[i].Format("Mon"), Value: decimal.Zero}
	}

	byCategory := make(map[string]decimal.Decimal)
	for i, e := range expenses {
		amount, err := currency.Convert(e.Amount, e.Currency, target)
		if err != nil {
			return Stats{}, fmt.Errorf("expense %d: %w", i, err)
		}

		s.TotalSpent = s.TotalSpent.Add(amount)
		byCategory[e.Category] = byCategory[e.Category].Add(amount)

		date := Day(e.Date)
		for m := range months {
			if date.Year() == months[m].Year() && date.Month() == months[m].Month() {
				s.Monthly[m].Value = s.Monthly[m].Value.Add(amount)
			}
		}
		if date.Year() == thisMonth.Year() && date.Month() == thisMonth.Month() {
			s.MonthSpent = s.MonthSpent.Add(amount)
		}
		for d := range days {
			if date.Equal(days[d]) {
				s.Daily[d].Value = s.Daily[d].Value.Add(amount)
			}
		}
	}

	s.Categories = make([]Point, 0, len(byCategory))
	for name, total := range byCategory {
		s.Categories = append(s.Categories, Point{Name: name, Value: total})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if c := s.Categories[i].Value.Cmp(s.Categories[j].Value); c != 0 {
			return c > 0
		}
		return s.Categories[i].Name < s.Categories[j].Name
	})
	if len(s.Categories) > 0 {
		s.TopCategory = s.Categories[0].Name
	}
	if len(s.Categories) > topCategories {
		s.Categories = s.Categories[:topCategories]
	}
	return s, nil
}
