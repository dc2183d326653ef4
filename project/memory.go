package project

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]Project
	entries  map[uuid.UUID][]Entry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects: make(map[uuid.UUID]Project),
		entries:  make(map[uuid.UUID][]Entry),
	}
}

func (r *MemoryRepository) List(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Project, 0)
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, userID, id uuid.UUID) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryRepository) Create(ctx context.Context, p Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, p Project) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.projects[p.ID]
	if !ok || current.UserID != p.UserID {
		return nil, ErrNotFound
	}
	current.Name = p.Name
	current.Budget = p.Budget
	current.Currency = p.Currency
	r.projects[p.ID] = current
	return r.recompute(p.ID)
}

func (r *MemoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.UserID != userID {
		return false, nil
	}
	delete(r.projects, id)
	delete(r.entries, id)
	return true, nil
}

func (r *MemoryRepository) ListEntries(ctx context.Context, projectID uuid.UUID) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]Entry(nil), r.entries[projectID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) AddEntries(ctx context.Context, projectID uuid.UUID, entries []Entry) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[projectID]; !ok {
		return nil, ErrNotFound
	}
	for _, e := range entries {
		e.ProjectID = projectID
		r.entries[projectID] = append(r.entries[projectID], e)
	}
	return r.recompute(projectID)
}

func (r *MemoryRepository) UpdateEntry(ctx context.Context, e Entry) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries[e.ProjectID]
	for i := range entries {
		if entries[i].ID == e.ID {
			e.CreatedAt = entries[i].CreatedAt
			entries[i] = e
			return r.recompute(e.ProjectID)
		}
	}
	return nil, ErrEntryNotFound
}

func (r *MemoryRepository) DeleteEntry(ctx context.Context, projectID, entryID uuid.UUID) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries[projectID]
	for i := range entries {
		if entries[i].ID == entryID {
			r.entries[projectID] = append(entries[:i], entries[i+1:]...)
			return r.recompute(projectID)
		}
	}
	return nil, ErrEntryNotFound
}

// recompute must be called with r.mu held.
func (r *MemoryRepository) recompute(projectID uuid.UUID) (*Project, error) {
	p, ok := r.projects[projectID]
	if !ok {
		return nil, ErrNotFound
	}
	spent, err := Spent(r.entries[projectID], p.Currency)
	if err != nil {
		return nil, err
	}
	p.Spent = spent
	r.projects[projectID] = p
	return &p, nil
}
