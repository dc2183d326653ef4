// Package workspace wires the domain services for a caller. Registered users
// share the SQL-backed services; every demo session gets its own in-memory
// copy seeded with sample data.
package workspace

import (
	"context"
	"database/sql"

	"github.com/billbatista/acasinha-finance/cache"
	"github.com/billbatista/acasinha-finance/category"
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/eventlogger"
	"github.com/billbatista/acasinha-finance/expense"
	"github.com/billbatista/acasinha-finance/ledger"
	"github.com/billbatista/acasinha-finance/preference"
	"github.com/billbatista/acasinha-finance/project"
	"github.com/google/uuid"
)

type Services struct {
	Ledger      *ledger.Service
	Expenses    *expense.Service
	Projects    *project.Service
	Categories  *category.Service
	Preferences preference.Store
}

// NewPersistent builds services over db.
func NewPersistent(db *sql.DB, events eventlogger.Recorder, c cache.Cache) *Services {
	return &Services{
		Ledger:      ledger.NewService(ledger.NewRepository(db), events, c),
		Expenses:    expense.NewService(expense.NewRepository(db), events, c),
		Projects:    project.NewService(project.NewRepository(db), events),
		Categories:  category.NewService(category.NewRepository(db), events),
		Preferences: preference.NewStore(db),
	}
}

// NewMemory builds services that keep everything in process.
func NewMemory(events eventlogger.Recorder, c cache.Cache) *Services {
	return &Services{
		Ledger:      ledger.NewService(ledger.NewMemoryRepository(), events, c),
		Expenses:    expense.NewService(expense.NewMemoryRepository(), events, c),
		Projects:    project.NewService(project.NewMemoryRepository(), events),
		Categories:  category.NewService(category.NewMemoryRepository(), events),
		Preferences: preference.NewMemoryStore(),
	}
}

// Dashboard aggregates the user's expenses with their project and group
// counts.
func (s *Services) Dashboard(ctx context.Context, userID uuid.UUID, code currency.Code) (expense.Dashboard, error) {
	return s.Expenses.Dashboard(ctx, userID, code, s.Projects.Count, s.groupCount)
}

func (s *Services) groupCount(ctx context.Context, userID uuid.UUID) (int, error) {
	groups, err := s.Ledger.ListGroups(ctx, userID, "")
	if err != nil {
		return 0, err
	}
	return len(groups), nil
}
