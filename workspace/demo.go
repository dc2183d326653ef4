package workspace

import (
	"context"
	"fmt"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/expense"
	"github.com/billbatista/acasinha-finance/project"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type demoGroup struct {
	name     string
	members  []string
	expenses []demoSharedExpense
}

type demoSharedExpense struct {
	description string
	amount      string
	payer       int
}

var demoGroups = []demoGroup{
	{
		name:    "Roommates",
		members: []string{"alice@example.com", "bob@example.com"},
		expenses: []demoSharedExpense{
			{"Groceries", "51.00", 0},
		},
	},
	{
		name:    "Trip to Vegas",
		members: []string{"alice@example.com", "charlie@example.com", "diana@example.com"},
		expenses: []demoSharedExpense{
			{"Hotel Room", "300.00", 0},
			{"Dinner", "150.00", 0},
		},
	},
}

var demoExpenses = []expense.Input{
	{Date: "2024-01-15", Category: "Food & Dining", Description: "Lunch at Restaurant", Amount: decimal.RequireFromString("25.50"), Currency: "USD"},
	{Date: "2024-01-14", Category: "Transportation", Description: "Gas Station", Amount: decimal.RequireFromString("45.00"), Currency: "USD"},
	{Date: "2024-01-13", Category: "Shopping", Description: "Grocery Shopping", Amount: decimal.RequireFromString("120.75"), Currency: "USD"},
	{Date: "2024-01-12", Category: "Entertainment", Description: "Movie Tickets", Amount: decimal.RequireFromString("32.00"), Currency: "USD"},
	{Date: "2024-01-11", Category: "Bills & Utilities", Description: "Electric Bill", Amount: decimal.RequireFromString("89.25"), Currency: "USD"},
	{Date: "2024-01-10", Category: "Food & Dining", Description: "Coffee Shop", Amount: decimal.RequireFromString("1200"), Currency: "PKR"},
	{Date: "2024-01-09", Category: "Transportation", Description: "Taxi Ride", Amount: decimal.RequireFromString("15.50"), Currency: "CAD"},
	{Date: "2024-01-08", Category: "Shopping", Description: "Online Purchase", Amount: decimal.RequireFromString("85.00"), Currency: "EUR"},
}

type demoProject struct {
	input   project.Input
	entries []project.EntryInput
}

var demoProjects = []demoProject{
	{
		input: project.Input{Name: "Home Renovation", Budget: decimal.NewFromInt(5000), Currency: "USD"},
		entries: []project.EntryInput{
			{Date: "2024-01-03", Description: "Kitchen cabinets", Amount: decimal.NewFromInt(2000)},
			{Date: "2024-01-09", Description: "Flooring", Amount: decimal.NewFromInt(1250)},
		},
	},
	{
		input: project.Input{Name: "Vacation Fund", Budget: decimal.NewFromInt(2000), Currency: "USD"},
		entries: []project.EntryInput{
			{Date: "2024-01-06", Description: "Flight tickets", Amount: decimal.NewFromInt(850)},
		},
	},
	{
		input: project.Input{Name: "Emergency Fund", Budget: decimal.NewFromInt(10000), Currency: "USD"},
	},
}

// Seed fills s with the demo data for userID. Shared expenses go through the
// ledger so the balances follow the same split rules as real ones.
func Seed(ctx context.Context, s *Services, userID uuid.UUID) error {
	for _, dg := range demoGroups {
		g, err := s.Ledger.CreateGroup(ctx, userID, dg.name, currency.USD, dg.members)
		if err != nil {
			return fmt.Errorf("seeding group %s: %w", dg.name, err)
		}
		for _, e := range dg.expenses {
			_, _, err := s.Ledger.RecordSharedExpense(ctx, userID, g.ID, e.description, decimal.RequireFromString(e.amount), g.Members[e.payer].ID)
			if err != nil {
				return fmt.Errorf("seeding shared expense %s: %w", e.description, err)
			}
		}
	}

	for _, in := range demoExpenses {
		if _, err := s.Expenses.Create(ctx, userID, in); err != nil {
			return fmt.Errorf("seeding expense %s: %w", in.Description, err)
		}
	}

	for _, dp := range demoProjects {
		p, err := s.Projects.Create(ctx, userID, dp.input)
		if err != nil {
			return fmt.Errorf("seeding project %s: %w", dp.input.Name, err)
		}
		for _, in := range dp.entries {
			if _, _, err := s.Projects.AddEntry(ctx, userID, p.ID, in); err != nil {
				return fmt.Errorf("seeding project entry %s: %w", in.Description, err)
			}
		}
	}
	return nil
}
