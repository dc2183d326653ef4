package project

import (
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Progress struct {
	Currency   currency.Code   `json:"currency"`
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"` // never negative
	Overspent  decimal.Decimal `json:"overspent"`
	Percent    decimal.Decimal `json:"percent"` // capped at 100
	OverBudget bool            `json:"over_budget"`
}

// ComputeProgress reports how much of the budget p has used, in target.
func ComputeProgress(p Project, target currency.Code) (Progress, error) {
	budget, err := currency.ConvertSigned(p.Budget, p.Currency, target)
	if err != nil {
		return Progress{}, err
	}
	spent, err := currency.ConvertSigned(p.Spent, p.Currency, target)
	if err != nil {
		return Progress{}, err
	}

	pr := Progress{
		Currency:   target,
		Budget:     budget,
		Spent:      spent,
		Remaining:  decimal.Max(budget.Sub(spent), decimal.Zero),
		Overspent:  decimal.Max(spent.Sub(budget), decimal.Zero),
		Percent:    decimal.Zero,
		OverBudget: spent.GreaterThan(budget),
	}
	if budget.IsPositive() {
		pr.Percent = decimal.Min(spent.Div(budget).Mul(hundred), hundred).Round(1)
	}
	return pr, nil
}

type Overview struct {
	Currency        currency.Code   `json:"currency"`
	Count           int             `json:"count"`
	TotalBudget     decimal.Decimal `json:"total_budget"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	Remaining       decimal.Decimal `json:"remaining"`
	OverBudgetCount int             `json:"over_budget_count"`
}

func ComputeOverview(projects []Project, target currency.Code) (Overview, error) {
	if err := target.Validate(); err != nil {
		return Overview{}, err
	}
	o := Overview{
		Currency:    target,
		Count:       len(projects),
		TotalBudget: decimal.Zero,
		TotalSpent:  decimal.Zero,
	}
	for _, p := range projects {
		pr, err := ComputeProgress(p, target)
		if err != nil {
			return Overview{}, err
		}
		o.TotalBudget = o.TotalBudget.Add(pr.Budget)
		o.TotalSpent = o.TotalSpent.Add(pr.Spent)
		if pr.OverBudget {
			o.OverBudgetCount++
		}
	}
	o.Remaining = decimal.Max(o.TotalBudget.Sub(o.TotalSpent), decimal.Zero)
	return o, nil
}
