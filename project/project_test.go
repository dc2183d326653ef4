package project

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/database/dbtest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func TestInputValidation(t *testing.T) {
	p, err := Input{Name: " Home Renovation ", Budget: dec("5000")}.Project(uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, "Home Renovation", p.Name)
	assert.Equal(t, currency.USD, p.Currency)
	assert.True(t, p.Spent.IsZero())

	_, err = Input{Name: "", Budget: dec("1")}.Project(uuid.New())
	assert.IsError(t, err, ErrEmptyName)
	_, err = Input{Name: "x", Budget: decimal.Zero}.Project(uuid.New())
	assert.IsError(t, err, ErrNonPositiveBudget)
	_, err = Input{Name: "x", Budget: dec("1"), Currency: "JPY"}.Project(uuid.New())
	assert.IsError(t, err, currency.ErrUnknownCurrency)

	valid := EntryInput{Date: "2024-05-01", Description: "Tiles", Amount: dec("120"), Currency: "cad"}
	e, err := valid.Entry(uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, currency.CAD, e.Currency)

	tests := []struct {
		name   string
		modify func(in *EntryInput)
		err    error
	}{
		{"missing date", func(in *EntryInput) { in.Date = " " }, ErrMissingDate},
		{"bad date", func(in *EntryInput) { in.Date = "May 1" }, ErrInvalidDate},
		{"missing description", func(in *EntryInput) { in.Description = "" }, ErrEmptyDescription},
		{"negative amount", func(in *EntryInput) { in.Amount = dec("-3") }, ErrNonPositiveAmount},
		{"unknown currency", func(in *EntryInput) { in.Currency = "BTC" }, currency.ErrUnknownCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.modify(&in)
			_, err := in.Entry(uuid.New())
			assert.IsError(t, err, tt.err)
		})
	}
}

func TestSpent(t *testing.T) {
	entries := []Entry{
		{Amount: dec("100"), Currency: currency.USD},
		{Amount: dec("85"), Currency: currency.EUR},
		{Amount: dec("125"), Currency: currency.CAD},
	}
	spent, err := Spent(entries, currency.USD)
	assert.NoError(t, err)
	assertDecimal(t, "300", spent)

	spent, err = Spent(entries, currency.PKR)
	assert.NoError(t, err)
	assertDecimal(t, "84000", spent)

	spent, err = Spent(nil, currency.EUR)
	assert.NoError(t, err)
	assert.True(t, spent.IsZero())
}

func TestComputeProgress(t *testing.T) {
	home := Project{Name: "Home Renovation", Budget: dec("5000"), Spent: dec("3250"), Currency: currency.USD}
	pr, err := ComputeProgress(home, currency.USD)
	assert.NoError(t, err)
	assertDecimal(t, "1750", pr.Remaining)
	assertDecimal(t, "65", pr.Percent)
	assert.True(t, pr.Overspent.IsZero())
	assert.False(t, pr.OverBudget)

	pr, err = ComputeProgress(home, currency.EUR)
	assert.NoError(t, err)
	assertDecimal(t, "4250", pr.Budget)
	assertDecimal(t, "2762.5", pr.Spent)
	assertDecimal(t, "65", pr.Percent)

	over := Project{Budget: dec("100"), Spent: dec("150"), Currency: currency.USD}
	pr, err = ComputeProgress(over, currency.USD)
	assert.NoError(t, err)
	assert.True(t, pr.OverBudget)
	assertDecimal(t, "100", pr.Percent)
	assertDecimal(t, "50", pr.Overspent)
	assert.True(t, pr.Remaining.IsZero())

	third := Project{Budget: dec("3"), Spent: dec("1"), Currency: currency.USD}
	pr, err = ComputeProgress(third, currency.USD)
	assert.NoError(t, err)
	assertDecimal(t, "33.3", pr.Percent)
}

func TestComputeOverview(t *testing.T) {
	projects := []Project{
		{Name: "Home Renovation", Budget: dec("5000"), Spent: dec("3250"), Currency: currency.USD},
		{Name: "Vacation Fund", Budget: dec("2000"), Spent: dec("850"), Currency: currency.USD},
		{Name: "Emergency Fund", Budget: dec("10000"), Spent: decimal.Zero, Currency: currency.USD},
		{Name: "Laptop", Budget: dec("850"), Spent: dec("1700"), Currency: currency.EUR},
	}
	o, err := ComputeOverview(projects, currency.USD)
	assert.NoError(t, err)
	assert.Equal(t, 4, o.Count)
	assertDecimal(t, "18000", o.TotalBudget)
	assertDecimal(t, "6100", o.TotalSpent)
	assertDecimal(t, "11900", o.Remaining)
	assert.Equal(t, 1, o.OverBudgetCount)

	empty, err := ComputeOverview(nil, currency.CAD)
	assert.NoError(t, err)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, empty.Remaining.IsZero())

	_, err = ComputeOverview(nil, "GBP")
	assert.IsError(t, err, currency.ErrUnknownCurrency)
}

func testService(t *testing.T, repo Repository, userID uuid.UUID) {
	ctx := context.Background()
	svc := NewService(repo, nil)

	p, err := svc.Create(ctx, userID, Input{Name: "Kitchen", Budget: dec("500")})
	assert.NoError(t, err)

	_, p2, err := svc.AddEntry(ctx, userID, p.ID, EntryInput{Date: "2024-05-01", Description: "Paint", Amount: dec("100")})
	assert.NoError(t, err)
	assertDecimal(t, "100", p2.Spent)

	p2, err = svc.ImportEntries(ctx, userID, p.ID, []Entry{
		{Date: mustDate("2024-05-03"), Description: "Sink", Amount: dec("85"), Currency: currency.EUR},
		{Date: mustDate("2024-05-02"), Description: "Tiles", Amount: dec("125"), Currency: currency.CAD},
	})
	assert.NoError(t, err)
	assertDecimal(t, "300", p2.Spent)

	d, err := svc.Get(ctx, userID, p.ID, currency.USD)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(d.Entries))
	assert.Equal(t, "Sink", d.Entries[0].Description)
	assert.Equal(t, "Paint", d.Entries[2].Description)
	assertDecimal(t, "60", d.Progress.Percent)

	paint := d.Entries[2]
	_, p2, err = svc.UpdateEntry(ctx, userID, p.ID, paint.ID, EntryInput{Date: "2024-05-01", Description: "Paint", Amount: dec("250")})
	assert.NoError(t, err)
	assertDecimal(t, "450", p2.Spent)

	_, _, err = svc.UpdateEntry(ctx, userID, p.ID, uuid.New(), EntryInput{Date: "2024-05-01", Description: "x", Amount: dec("1")})
	assert.IsError(t, err, ErrEntryNotFound)

	p2, err = svc.Update(ctx, userID, p.ID, Input{Name: "Kitchen", Budget: dec("425"), Currency: "EUR"})
	assert.NoError(t, err)
	assert.Equal(t, currency.EUR, p2.Currency)
	assertDecimal(t, "382.5", p2.Spent)

	p2, err = svc.DeleteEntry(ctx, userID, p.ID, paint.ID)
	assert.NoError(t, err)
	assertDecimal(t, "170", p2.Spent)

	_, err = svc.DeleteEntry(ctx, userID, p.ID, paint.ID)
	assert.IsError(t, err, ErrEntryNotFound)

	_, err = svc.ImportEntries(ctx, userID, p.ID, []Entry{
		{Date: mustDate("2024-05-04"), Description: "ok", Amount: dec("1"), Currency: currency.USD},
		{Date: mustDate("2024-05-04"), Description: "", Amount: dec("1"), Currency: currency.USD},
	})
	assert.IsError(t, err, ErrEmptyDescription)
	d, err = svc.Get(ctx, userID, p.ID, currency.EUR)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(d.Entries))

	l, err := svc.List(ctx, userID, currency.EUR)
	assert.NoError(t, err)
	assert.Equal(t, 1, l.Overview.Count)
	assertDecimal(t, "170", l.Overview.TotalSpent)

	other := uuid.New()
	_, err = svc.Get(ctx, other, p.ID, currency.USD)
	assert.IsError(t, err, ErrNotFound)
	_, _, err = svc.AddEntry(ctx, other, p.ID, EntryInput{Date: "2024-05-01", Description: "x", Amount: dec("1")})
	assert.IsError(t, err, ErrNotFound)
	assert.IsError(t, svc.Delete(ctx, other, p.ID), ErrNotFound)

	n, err := svc.Count(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoError(t, svc.Delete(ctx, userID, p.ID))
	_, err = svc.Get(ctx, userID, p.ID, currency.USD)
	assert.IsError(t, err, ErrNotFound)
}

func TestServiceMemory(t *testing.T) {
	testService(t, NewMemoryRepository(), uuid.New())
}

func TestServiceSQL(t *testing.T) {
	db := dbtest.SQLite(t)
	testService(t, NewRepository(db), dbtest.User(t, db))
}
