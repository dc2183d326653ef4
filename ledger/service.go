package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/billbatista/acasinha-finance/cache"
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/eventlogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateGroup(ctx context.Context, g Group) error
	ListGroups(ctx context.Context, ownerID uuid.UUID) ([]Group, error)
	// GetGroup returns nil, nil when the group does not exist.
	GetGroup(ctx context.Context, groupID uuid.UUID) (*Group, error)
	RenameGroup(ctx context.Context, groupID uuid.UUID, name string) error
	AddMembers(ctx context.Context, members []Member) error
	DeleteGroup(ctx context.Context, groupID uuid.UUID) error
	// SaveSharedExpense stores the expense with its splits and applies every
	// balance change as one unit.
	SaveSharedExpense(ctx context.Context, expense SharedExpense, changes []BalanceChange) error
	SetBalances(ctx context.Context, groupID uuid.UUID, balances map[uuid.UUID]decimal.Decimal) error
}

const summaryTTL = 5 * time.Minute

type Service struct {
	repo   Repository
	events eventlogger.Recorder
	cache  cache.Cache
	locks  *groupLocks
}

func NewService(repo Repository, events eventlogger.Recorder, c cache.Cache) *Service {
	if events == nil {
		events = eventlogger.Discard
	}
	return &Service{
		repo:   repo,
		events: events,
		cache:  c,
		locks:  newGroupLocks(),
	}
}

func (s *Service) CreateGroup(ctx context.Context, ownerID uuid.UUID, name string, code currency.Code, memberRefs []string) (*Group, error) {
	g, err := NewGroup(ownerID, name, code, memberRefs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	refs := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		refs = append(refs, m.UserRef)
	}
	s.log(ownerID, EventGroupCreated, GroupCreatedEvent{
		GroupID:   g.ID,
		Name:      g.Name,
		Members:   refs,
		Currency:  g.Currency,
		CreatedAt: g.CreatedAt,
	})
	return &g, nil
}

// ListGroups returns the owner's groups, newest first, each with its shared
// expenses newest first.
func (s *Service) ListGroups(ctx context.Context, ownerID uuid.UUID, search string) ([]Group, error) {
	groups, err := s.repo.ListGroups(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}

	search = strings.ToLower(strings.TrimSpace(search))
	filtered := make([]Group, 0, len(groups))
	for _, g := range groups {
		if search != "" && !strings.Contains(strings.ToLower(g.Name), search) {
			continue
		}
		sort.SliceStable(g.Expenses, func(i, j int) bool {
			return g.Expenses[i].CreatedAt.After(g.Expenses[j].CreatedAt)
		})
		filtered = append(filtered, g)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return filtered, nil
}

func (s *Service) GetGroup(ctx context.Context, ownerID, groupID uuid.UUID) (*Group, error) {
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("fetching group: %w", err)
	}
	if g == nil || g.OwnerID != ownerID {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

func (s *Service) RenameGroup(ctx context.Context, ownerID, groupID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if _, err := s.GetGroup(ctx, ownerID, groupID); err != nil {
		return err
	}
	if err := s.repo.RenameGroup(ctx, groupID, name); err != nil {
		return fmt.Errorf("renaming group: %w", err)
	}
	s.log(ownerID, EventGroupRenamed, map[string]string{"group_id": groupID.String(), "name": name})
	return nil
}

func (s *Service) AddMembers(ctx context.Context, ownerID, groupID uuid.UUID, refs []string) ([]Member, error) {
	unlock := s.locks.lock(groupID)
	defer unlock()

	g, err := s.GetGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}
	members := NewMembers(groupID, g.Members, refs)
	if len(members) == 0 {
		return members, nil
	}
	if err := s.repo.AddMembers(ctx, members); err != nil {
		return nil, fmt.Errorf("adding members: %w", err)
	}

	cache.Invalidate(ctx, s.cache, summaryKey(groupID))
	s.log(ownerID, EventMembersAdded, map[string]any{"group_id": groupID, "members": len(members)})
	return members, nil
}

func (s *Service) DeleteGroup(ctx context.Context, ownerID, groupID uuid.UUID) error {
	unlock := s.locks.lock(groupID)
	defer unlock()

	if _, err := s.GetGroup(ctx, ownerID, groupID); err != nil {
		return err
	}
	if err := s.repo.DeleteGroup(ctx, groupID); err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}

	cache.Invalidate(ctx, s.cache, summaryKey(groupID))
	s.log(ownerID, EventGroupDeleted, map[string]string{"group_id": groupID.String()})
	return nil
}

// RecordSharedExpense plans the expense against the current group state and
// persists it with all balance changes. Mutations of one group are
// serialized.
func (s *Service) RecordSharedExpense(ctx context.Context, ownerID, groupID uuid.UUID, description string, amount decimal.Decimal, payerID uuid.UUID) (*SharedExpense, []BalanceChange, error) {
	unlock := s.locks.lock(groupID)
	defer unlock()

	g, err := s.GetGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, nil, err
	}

	expense, changes, err := Plan(*g, description, amount, payerID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.SaveSharedExpense(ctx, expense, changes); err != nil {
		return nil, nil, fmt.Errorf("saving shared expense: %w", err)
	}

	cache.Invalidate(ctx, s.cache, summaryKey(groupID))
	s.log(ownerID, EventSharedExpenseRecorded, SharedExpenseRecordedEvent{
		GroupID:     groupID,
		ExpenseID:   expense.ID,
		PaidBy:      payerID,
		Amount:      expense.Amount,
		Description: expense.Description,
		Changes:     changes,
	})
	return &expense, changes, nil
}

// Summary is served from the cache when possible. The group lock is held
// across the load and the cache fill so a write can't be followed by a stale
// fill.
func (s *Service) Summary(ctx context.Context, ownerID, groupID uuid.UUID) (Summary, error) {
	unlock := s.locks.lock(groupID)
	sum, err := cache.Load(ctx, s.cache, summaryKey(groupID), summaryTTL, func(ctx context.Context) (Summary, error) {
		g, err := s.repo.GetGroup(ctx, groupID)
		if err != nil {
			return Summary{}, fmt.Errorf("fetching group: %w", err)
		}
		if g == nil {
			return Summary{}, ErrGroupNotFound
		}
		return GroupSummary(*g), nil
	})
	unlock()
	if err != nil {
		return Summary{}, err
	}
	if sum.OwnerID != ownerID {
		return Summary{}, ErrGroupNotFound
	}
	return sum, nil
}

// Reconcile replays the group's history and rewrites stored balances that
// drifted from it. It returns the drift per member (stored minus replayed).
func (s *Service) Reconcile(ctx context.Context, ownerID, groupID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	unlock := s.locks.lock(groupID)
	defer unlock()

	g, err := s.GetGroup(ctx, ownerID, groupID)
	if err != nil {
		return nil, err
	}

	replayed := CalculateBalances(g.MemberIDs(), g.Expenses)
	drift := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range g.Members {
		if d := m.Balance.Sub(replayed[m.ID]); !d.IsZero() {
			drift[m.ID] = d
		}
	}
	if len(drift) == 0 {
		return drift, nil
	}

	if err := s.repo.SetBalances(ctx, groupID, replayed); err != nil {
		return nil, fmt.Errorf("rewriting balances: %w", err)
	}
	cache.Invalidate(ctx, s.cache, summaryKey(groupID))
	s.log(ownerID, EventBalancesReconciled, BalancesReconciledEvent{GroupID: groupID, Drift: drift})
	return drift, nil
}

func (s *Service) log(ownerID uuid.UUID, eventType string, data any) {
	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventType),
		eventlogger.WithData(data),
		eventlogger.WithActor(ownerID),
	))
}

func summaryKey(groupID uuid.UUID) string {
	return "group-summary:" + groupID.String()
}

// groupLocks hands out one mutex per group, dropped once nobody holds it.
type groupLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[uuid.UUID]*refMutex)}
}

func (l *groupLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &refMutex{}
		l.locks[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
