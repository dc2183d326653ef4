package category

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
)

// Repository stores the custom categories of each user. Defaults are never
// stored.
type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]Category, error)
	Create(ctx context.Context, c Category) error
	// Delete returns false when no category with that name exists.
	Delete(ctx context.Context, userID uuid.UUID, name string) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	query := `SELECT id, user_id, name, color, created_at FROM user_categories WHERE user_id = $1 ORDER BY created_at, name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Category) error {
	query := `INSERT INTO user_categories (id, user_id, name, color, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.UserID, c.Name, c.Color, c.CreatedAt)
	return err
}

func (r *repository) Delete(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_categories WHERE user_id = $1 AND name = $2`, userID, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type MemoryRepository struct {
	mu         sync.RWMutex
	categories []Category
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) List(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, 0)
	for _, c := range r.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Create(ctx context.Context, c Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = append(r.categories, c)
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.categories {
		if c.UserID == userID && c.Name == name {
			r.categories = append(r.categories[:i], r.categories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
