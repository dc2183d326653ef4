package expense

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]Expense, error)
	// Get returns nil, nil when the user has no such expense.
	Get(ctx context.Context, userID, id uuid.UUID) (*Expense, error)
	Create(ctx context.Context, e Expense) error
	// CreateMany stores all expenses or none.
	CreateMany(ctx context.Context, expenses []Expense) error
	Update(ctx context.Context, e Expense) error
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

const selectExpense = `SELECT id, user_id, date, category, description, amount, currency, created_at FROM expenses`

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (Expense, error) {
	var e Expense
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Date,
		&e.Category,
		&e.Description,
		&e.Amount,
		&e.Currency,
		&e.CreatedAt,
	)
	return e, err
}

func (r *repository) List(ctx context.Context, userID uuid.UUID) ([]Expense, error) {
	rows, err := r.db.QueryContext(ctx, selectExpense+` WHERE user_id = $1 ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *repository) Get(ctx context.Context, userID, id uuid.UUID) (*Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, selectExpense+` WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

const insertExpense = `INSERT INTO expenses (id, user_id, date, category, description, amount, currency, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (r *repository) Create(ctx context.Context, e Expense) error {
	_, err := r.db.ExecContext(ctx, insertExpense, e.ID, e.UserID, e.Date, e.Category, e.Description, e.Amount, e.Currency, e.CreatedAt)
	return err
}

func (r *repository) CreateMany(ctx context.Context, expenses []Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertExpense)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range expenses {
		_, err := stmt.ExecContext(ctx, e.ID, e.UserID, e.Date, e.Category, e.Description, e.Amount, e.Currency, e.CreatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *repository) Update(ctx context.Context, e Expense) error {
	query := `UPDATE expenses SET date = $1, category = $2, description = $3, amount = $4, currency = $5 WHERE id = $6 AND user_id = $7`
	_, err := r.db.ExecContext(ctx, query, e.Date, e.Category, e.Description, e.Amount, e.Currency, e.ID, e.UserID)
	return err
}

func (r *repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type MemoryRepository struct {
	mu       sync.RWMutex
	expenses map[uuid.UUID]Expense
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{expenses: make(map[uuid.UUID]Expense)}
}

func (r *MemoryRepository) List(ctx context.Context, userID uuid.UUID) ([]Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Expense, 0)
	for _, e := range r.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	SortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, userID, id uuid.UUID) (*Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.expenses[id]
	if !ok || e.UserID != userID {
		return nil, nil
	}
	return &e, nil
}

func (r *MemoryRepository) Create(ctx context.Context, e Expense) error {
	return r.CreateMany(ctx, []Expense{e})
}

func (r *MemoryRepository) CreateMany(ctx context.Context, expenses []Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range expenses {
		r.expenses[e.ID] = e
	}
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, e Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.expenses[e.ID]; ok && old.UserID == e.UserID {
		r.expenses[e.ID] = e
	}
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.expenses[id]
	if !ok || e.UserID != userID {
		return false, nil
	}
	delete(r.expenses, id)
	return true, nil
}
