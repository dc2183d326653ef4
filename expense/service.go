package expense

import (
	"context"
	"fmt"
	"time"

	"github.com/billbatista/acasinha-finance/cache"
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/eventlogger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	EventExpenseCreated   = "expense.created"
	EventExpenseUpdated   = "expense.updated"
	EventExpenseDeleted   = "expense.deleted"
	EventExpensesImported = "expense.imported"
)

const dashboardTTL = time.Minute

// CountFunc counts something a user owns, such as projects or groups.
type CountFunc func(ctx context.Context, userID uuid.UUID) (int, error)

type Dashboard struct {
	Stats
	ProjectCount int `json:"project_count"`
	GroupCount   int `json:"group_count"`
}

type Service struct {
	repo   Repository
	events eventlogger.Recorder
	cache  cache.Cache
	now    func() time.Time
}

func NewService(repo Repository, events eventlogger.Recorder, c cache.Cache) *Service {
	if events == nil {
		events = eventlogger.Discard
	}
	return &Service{repo: repo, events: events, cache: c, now: time.Now}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Expense, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	expenses, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return f.Apply(expenses), nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in Input) (*Expense, error) {
	e, err := in.Expense(userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}
	s.changed(ctx, userID, EventExpenseCreated, e)
	return &e, nil
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in Input) (*Expense, error) {
	current, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("fetching expense: %w", err)
	}
	if current == nil {
		return nil, ErrNotFound
	}

	e, err := in.Expense(userID)
	if err != nil {
		return nil, err
	}
	e.ID = current.ID
	e.CreatedAt = current.CreatedAt
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("updating expense: %w", err)
	}
	s.changed(ctx, userID, EventExpenseUpdated, e)
	return &e, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.changed(ctx, userID, EventExpenseDeleted, map[string]string{"expense_id": id.String()})
	return nil
}

// BulkCreate validates every expense and stores them all, or none when any is
// invalid.
func (s *Service) BulkCreate(ctx context.Context, userID uuid.UUID, expenses []Expense) (int, error) {
	for i := range expenses {
		expenses[i].UserID = userID
		if expenses[i].ID == uuid.Nil {
			expenses[i].ID = uuid.New()
		}
		if expenses[i].CreatedAt.IsZero() {
			expenses[i].CreatedAt = time.Now().UTC()
		}
		if err := expenses[i].Validate(); err != nil {
			return 0, fmt.Errorf("expense %d: %w", i+1, err)
		}
	}
	if len(expenses) == 0 {
		return 0, nil
	}
	if err := s.repo.CreateMany(ctx, expenses); err != nil {
		return 0, fmt.Errorf("importing expenses: %w", err)
	}
	s.changed(ctx, userID, EventExpensesImported, map[string]int{"count": len(expenses)})
	return len(expenses), nil
}

// Dashboard loads the user's expenses and counts concurrently and aggregates
// them in the reporting currency. Results are cached briefly per currency.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID, code currency.Code, projects, groups CountFunc) (Dashboard, error) {
	return cache.Load(ctx, s.cache, dashboardKey(userID, code), dashboardTTL, func(ctx context.Context) (Dashboard, error) {
		var (
			expenses []Expense
			d        Dashboard
		)
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			expenses, err = s.repo.List(ctx, userID)
			return err
		})
		if projects != nil {
			g.Go(func() error {
				var err error
				d.ProjectCount, err = projects(ctx, userID)
				return err
			})
		}
		if groups != nil {
			g.Go(func() error {
				var err error
				d.GroupCount, err = groups(ctx, userID)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return Dashboard{}, fmt.Errorf("loading dashboard: %w", err)
		}

		stats, err := ComputeStats(expenses, code, s.now())
		if err != nil {
			return Dashboard{}, err
		}
		d.Stats = stats
		return d, nil
	})
}

func (s *Service) changed(ctx context.Context, userID uuid.UUID, eventType string, data any) {
	keys := make([]string, 0, len(currency.Codes()))
	for _, code := range currency.Codes() {
		keys = append(keys, dashboardKey(userID, code))
	}
	cache.Invalidate(ctx, s.cache, keys...)

	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventType),
		eventlogger.WithData(data),
		eventlogger.WithActor(userID),
	))
}

func dashboardKey(userID uuid.UUID, code currency.Code) string {
	return "dashboard:" + userID.String() + ":" + string(code)
}
