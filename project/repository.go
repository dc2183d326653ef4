package project

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository stores projects and their entries. Every entry mutation
// recomputes the project's spent amount from all of its entries in the same
// transaction and returns the updated project.
type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]Project, error)
	// Get returns nil, nil when the user has no such project.
	Get(ctx context.Context, userID, id uuid.UUID) (*Project, error)
	Create(ctx context.Context, p Project) error
	Update(ctx context.Context, p Project) (*Project, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)

	ListEntries(ctx context.Context, projectID uuid.UUID) ([]Entry, error)
	AddEntries(ctx context.Context, projectID uuid.UUID, entries []Entry) (*Project, error)
	UpdateEntry(ctx context.Context, e Entry) (*Project, error)
	DeleteEntry(ctx context.Context, projectID, entryID uuid.UUID) (*Project, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

const selectProject = `SELECT id, user_id, name, budget, spent, currency, created_at FROM projects`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Budget, &p.Spent, &p.Currency, &p.CreatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	rows, err := r.db.QueryContext(ctx, selectProject+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *repository) Get(ctx context.Context, userID, id uuid.UUID) (*Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, selectProject+` WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p Project) error {
	query := `INSERT INTO projects (id, user_id, name, budget, spent, currency, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.Name, p.Budget, p.Spent, p.Currency, p.CreatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, p Project) (*Project, error) {
	return r.inTx(ctx, p.ID, func(tx *sql.Tx) error {
		query := `UPDATE projects SET name = $1, budget = $2, currency = $3 WHERE id = $4 AND user_id = $5`
		res, err := tx.ExecContext(ctx, query, p.Name, p.Budget, p.Currency, p.ID, p.UserID)
		if err != nil {
			return err
		}
		return expectOne(res, ErrNotFound)
	})
}

func (r *repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const selectEntry = `SELECT id, project_id, date, description, amount, currency, created_at FROM project_entries`

func (r *repository) ListEntries(ctx context.Context, projectID uuid.UUID) ([]Entry, error) {
	return listEntries(ctx, r.db, projectID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listEntries(ctx context.Context, q querier, projectID uuid.UUID) ([]Entry, error) {
	rows, err := q.QueryContext(ctx, selectEntry+` WHERE project_id = $1 ORDER BY date DESC, created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Date, &e.Description, &e.Amount, &e.Currency, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) AddEntries(ctx context.Context, projectID uuid.UUID, entries []Entry) (*Project, error) {
	return r.inTx(ctx, projectID, func(tx *sql.Tx) error {
		query := `INSERT INTO project_entries (id, project_id, date, description, amount, currency, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
		for _, e := range entries {
			_, err := tx.ExecContext(ctx, query, e.ID, projectID, e.Date, e.Description, e.Amount, e.Currency, e.CreatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) UpdateEntry(ctx context.Context, e Entry) (*Project, error) {
	return r.inTx(ctx, e.ProjectID, func(tx *sql.Tx) error {
		query := `UPDATE project_entries SET date = $1, description = $2, amount = $3, currency = $4 WHERE id = $5 AND project_id = $6`
		res, err := tx.ExecContext(ctx, query, e.Date, e.Description, e.Amount, e.Currency, e.ID, e.ProjectID)
		if err != nil {
			return err
		}
		return expectOne(res, ErrEntryNotFound)
	})
}

func (r *repository) DeleteEntry(ctx context.Context, projectID, entryID uuid.UUID) (*Project, error) {
	return r.inTx(ctx, projectID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM project_entries WHERE id = $1 AND project_id = $2`, entryID, projectID)
		if err != nil {
			return err
		}
		return expectOne(res, ErrEntryNotFound)
	})
}

// inTx runs fn and recomputes the project's spent amount in one transaction.
func (r *repository) inTx(ctx context.Context, projectID uuid.UUID, fn func(tx *sql.Tx) error) (*Project, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return nil, err
	}

	p, err := scanProject(tx.QueryRowContext(ctx, selectProject+` WHERE id = $1`, projectID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	entries, err := listEntries(ctx, tx, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	spent, err := Spent(entries, p.Currency)
	if err != nil {
		return nil, fmt.Errorf("computing spent: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET spent = $1 WHERE id = $2`, spent, projectID); err != nil {
		return nil, err
	}
	p.Spent = spent

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
