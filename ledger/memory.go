package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryRepository keeps groups in process memory. It backs demo sessions and
// tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	groups map[uuid.UUID]*Group
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{groups: make(map[uuid.UUID]*Group)}
}

func (r *MemoryRepository) CreateGroup(ctx context.Context, g Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := cloneGroup(g)
	r.groups[g.ID] = &c
	return nil
}

func (r *MemoryRepository) ListGroups(ctx context.Context, ownerID uuid.UUID) ([]Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups := make([]Group, 0)
	for _, g := range r.groups {
		if g.OwnerID == ownerID {
			groups = append(groups, cloneGroup(*g))
		}
	}
	return groups, nil
}

func (r *MemoryRepository) GetGroup(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[groupID]
	if !ok {
		return nil, nil
	}
	c := cloneGroup(*g)
	return &c, nil
}

func (r *MemoryRepository) RenameGroup(ctx context.Context, groupID uuid.UUID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.groups[groupID]; ok {
		g.Name = name
	}
	return nil
}

func (r *MemoryRepository) AddMembers(ctx context.Context, members []Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range members {
		g, ok := r.groups[m.GroupID]
		if !ok {
			return ErrGroupNotFound
		}
		g.Members = append(g.Members, m)
	}
	return nil
}

func (r *MemoryRepository) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, groupID)
	return nil
}

func (r *MemoryRepository) SaveSharedExpense(ctx context.Context, expense SharedExpense, changes []BalanceChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[expense.GroupID]
	if !ok {
		return ErrGroupNotFound
	}
	return g.Apply(cloneExpense(expense), changes)
}

func (r *MemoryRepository) SetBalances(ctx context.Context, groupID uuid.UUID, balances map[uuid.UUID]decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	for id, b := range balances {
		if m, ok := g.Member(id); ok {
			m.Balance = b
		}
	}
	return nil
}

func cloneGroup(g Group) Group {
	c := g
	c.Members = append([]Member(nil), g.Members...)
	c.Expenses = make([]SharedExpense, 0, len(g.Expenses))
	for _, e := range g.Expenses {
		c.Expenses = append(c.Expenses, cloneExpense(e))
	}
	return c
}

func cloneExpense(e SharedExpense) SharedExpense {
	c := e
	c.Splits = append([]Split(nil), e.Splits...)
	return c
}
