package ledger

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/database/dbtest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := dbtest.SQLite(t)
	repo := NewRepository(db)
	owner := dbtest.User(t, db)

	g, err := NewGroup(owner, "Trip to Vegas", currency.USD, []string{"alice", "charlie", "diana"})
	assert.NoError(t, err)
	assert.NoError(t, repo.CreateGroup(ctx, g))

	for _, amount := range []string{"300", "150"} {
		current, err := repo.GetGroup(ctx, g.ID)
		assert.NoError(t, err)
		expense, changes, err := Plan(*current, "stay", dec(amount), g.Members[0].ID)
		assert.NoError(t, err)
		assert.NoError(t, repo.SaveSharedExpense(ctx, expense, changes))
	}

	got, err := repo.GetGroup(ctx, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Trip to Vegas", got.Name)
	assert.Equal(t, currency.USD, got.Currency)
	assert.Equal(t, 3, len(got.Members))
	assert.Equal(t, "alice", got.Members[0].UserRef)
	assertDecimal(t, "300", got.Members[0].Balance)
	assertDecimal(t, "-150", got.Members[1].Balance)
	assertDecimal(t, "-150", got.Members[2].Balance)
	assert.Equal(t, 2, len(got.Expenses))
	assert.Equal(t, 3, len(got.Expenses[0].Splits))

	replayed := CalculateBalances(got.MemberIDs(), got.Expenses)
	for _, m := range got.Members {
		assert.True(t, replayed[m.ID].Equal(m.Balance))
	}

	groups, err := repo.ListGroups(ctx, owner)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(groups))

	missing, err := repo.GetGroup(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Zero(t, missing)
}

func TestRepositoryFractionalBalancesStayExact(t *testing.T) {
	ctx := context.Background()
	db := dbtest.SQLite(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil, nil)
	owner := dbtest.User(t, db)

	g, err := svc.CreateGroup(ctx, owner, "Coffee", currency.USD, []string{"alice", "bob"})
	assert.NoError(t, err)
	for _, amount := range []string{"0.20", "0.40", "0.10"} {
		_, _, err := svc.RecordSharedExpense(ctx, owner, g.ID, "espresso", dec(amount), g.Members[0].ID)
		assert.NoError(t, err)
	}

	got, err := repo.GetGroup(ctx, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, "0.35", got.Members[0].Balance.String())
	assert.Equal(t, "-0.35", got.Members[1].Balance.String())

	drift, err := svc.Reconcile(ctx, owner, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(drift))
}

func TestRepositorySaveSharedExpenseRollsBack(t *testing.T) {
	ctx := context.Background()
	db := dbtest.SQLite(t)
	repo := NewRepository(db)
	owner := dbtest.User(t, db)

	g, err := NewGroup(owner, "Roommates", currency.USD, []string{"alice", "bob"})
	assert.NoError(t, err)
	assert.NoError(t, repo.CreateGroup(ctx, g))

	expense, changes, err := Plan(g, "Groceries", dec("51"), g.Members[0].ID)
	assert.NoError(t, err)
	changes = append(changes, BalanceChange{MemberID: uuid.New(), Delta: dec("1")})

	err = repo.SaveSharedExpense(ctx, expense, changes)
	assert.IsError(t, err, ErrMemberNotFound)

	got, err := repo.GetGroup(ctx, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(got.Expenses))
	for _, m := range got.Members {
		assert.True(t, m.Balance.IsZero())
	}
}

func TestRepositoryMembersRenameDelete(t *testing.T) {
	ctx := context.Background()
	db := dbtest.SQLite(t)
	repo := NewRepository(db)
	owner := dbtest.User(t, db)

	g, err := NewGroup(owner, "Flat", currency.EUR, []string{"a"})
	assert.NoError(t, err)
	assert.NoError(t, repo.CreateGroup(ctx, g))

	assert.NoError(t, repo.AddMembers(ctx, NewMembers(g.ID, g.Members, []string{"b"})))
	assert.NoError(t, repo.RenameGroup(ctx, g.ID, "House"))
	assert.NoError(t, repo.SetBalances(ctx, g.ID, map[uuid.UUID]decimal.Decimal{g.Members[0].ID: dec("2.5")}))

	got, err := repo.GetGroup(ctx, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, "House", got.Name)
	assert.Equal(t, 2, len(got.Members))
	assertDecimal(t, "2.5", got.Members[0].Balance)

	assert.NoError(t, repo.DeleteGroup(ctx, g.ID))
	var members int
	assert.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM group_members WHERE group_id = $1`, g.ID).Scan(&members))
	assert.Equal(t, 0, members)
}
