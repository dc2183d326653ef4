package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) CreateGroup(ctx context.Context, g Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertGroup := `INSERT INTO expense_groups (id, owner_id, name, currency, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = tx.ExecContext(ctx, insertGroup, g.ID, g.OwnerID, g.Name, g.Currency, g.CreatedAt)
	if err != nil {
		return err
	}

	if err := insertMembers(ctx, tx, g.Members); err != nil {
		return err
	}

	return tx.Commit()
}

func insertMembers(ctx context.Context, tx *sql.Tx, members []Member) error {
	query := `INSERT INTO group_members (id, group_id, user_ref, balance, joined_at) VALUES ($1, $2, $3, $4, $5)`
	for _, m := range members {
		_, err := tx.ExecContext(ctx, query, m.ID, m.GroupID, m.UserRef, m.Balance, m.JoinedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) AddMembers(ctx context.Context, members []Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertMembers(ctx, tx, members); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repository) SaveSharedExpense(ctx context.Context, expense SharedExpense, changes []BalanceChange) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO shared_expenses (id, group_id, description, amount, paid_by, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = tx.ExecContext(
		ctx,
		query,
		expense.ID,
		expense.GroupID,
		expense.Description,
		expense.Amount,
		expense.PaidBy,
		expense.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, split := range expense.Splits {
		query = `INSERT INTO shared_expense_splits (expense_id, member_id, amount) VALUES ($1, $2, $3)`
		_, err = tx.ExecContext(ctx, query, split.ExpenseID, split.MemberID, split.Amount)
		if err != nil {
			return err
		}
	}

	balances, err := memberBalances(ctx, tx, expense.GroupID)
	if err != nil {
		return err
	}

	// sums stay in Go: sqlite turns balance + x into a REAL. Matching the
	// previous value catches a concurrent writer.
	for _, change := range changes {
		current, ok := balances[change.MemberID]
		if !ok {
			return fmt.Errorf("updating balance of %s: %w", change.MemberID, ErrMemberNotFound)
		}
		query = `UPDATE group_members SET balance = $1 WHERE id = $2 AND group_id = $3 AND balance = $4`
		res, err := tx.ExecContext(ctx, query, current.Add(change.Delta), change.MemberID, expense.GroupID, current)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n != 1 {
			return fmt.Errorf("updating balance of %s: %w", change.MemberID, ErrBalanceConflict)
		}
		balances[change.MemberID] = current.Add(change.Delta)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrPartialApply, err)
	}
	return nil
}

func memberBalances(ctx context.Context, tx *sql.Tx, groupID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, balance FROM group_members WHERE group_id = $1`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var (
			id      uuid.UUID
			balance decimal.Decimal
		)
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, err
		}
		balances[id] = balance
	}
	return balances, rows.Err()
}

func (r *repository) SetBalances(ctx context.Context, groupID uuid.UUID, balances map[uuid.UUID]decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for memberID, balance := range balances {
		query := `UPDATE group_members SET balance = $1 WHERE id = $2 AND group_id = $3`
		if _, err := tx.ExecContext(ctx, query, balance, memberID, groupID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *repository) RenameGroup(ctx context.Context, groupID uuid.UUID, name string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE expense_groups SET name = $1 WHERE id = $2`, name, groupID)
	return err
}

func (r *repository) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM expense_groups WHERE id = $1`, groupID)
	return err
}

func (r *repository) GetGroup(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	query := `SELECT id, owner_id, name, currency, created_at FROM expense_groups WHERE id = $1`

	var g Group
	err := r.db.QueryRowContext(ctx, query, groupID).Scan(
		&g.ID,
		&g.OwnerID,
		&g.Name,
		&g.Currency,
		&g.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := r.loadDetails(ctx, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) ListGroups(ctx context.Context, ownerID uuid.UUID) ([]Group, error) {
	query := `SELECT id, owner_id, name, currency, created_at
              FROM expense_groups
              WHERE owner_id = $1
              ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]Group, 0)
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Currency, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		if err := r.loadDetails(ctx, &groups[i]); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (r *repository) loadDetails(ctx context.Context, g *Group) error {
	members, err := r.getMembers(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("querying members: %w", err)
	}
	g.Members = members

	expenses, err := r.getSharedExpenses(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("querying shared expenses: %w", err)
	}
	g.Expenses = expenses
	return nil
}

func (r *repository) getMembers(ctx context.Context, groupID uuid.UUID) ([]Member, error) {
	query := `SELECT id, group_id, user_ref, balance, joined_at FROM group_members WHERE group_id = $1 ORDER BY joined_at, id`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserRef, &m.Balance, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *repository) getSharedExpenses(ctx context.Context, groupID uuid.UUID) ([]SharedExpense, error) {
	query := `SELECT id, group_id, description, amount, paid_by, created_at
              FROM shared_expenses
              WHERE group_id = $1
              ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]SharedExpense, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var e SharedExpense
		err := rows.Scan(
			&e.ID,
			&e.GroupID,
			&e.Description,
			&e.Amount,
			&e.PaidBy,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	splitQuery := `SELECT s.expense_id, s.member_id, s.amount
                   FROM shared_expense_splits s
                   INNER JOIN shared_expenses e ON s.expense_id = e.id
                   WHERE e.group_id = $1`

	splitRows, err := r.db.QueryContext(ctx, splitQuery, groupID)
	if err != nil {
		return nil, err
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var s Split
		if err := splitRows.Scan(&s.ExpenseID, &s.MemberID, &s.Amount); err != nil {
			return nil, err
		}
		if i, ok := index[s.ExpenseID]; ok {
			expenses[i].Splits = append(expenses[i].Splits, s)
		}
	}
	return expenses, splitRows.Err()
}
