package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/billbatista/acasinha-finance/cache"
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/eventlogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type recorder struct {
	mu     sync.Mutex
	events []eventlogger.Event
}

func (r *recorder) Log(e eventlogger.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestService() (*Service, *MemoryRepository, *recorder) {
	repo := NewMemoryRepository()
	rec := &recorder{}
	return NewService(repo, rec, cache.NewMemory(100)), repo, rec
}

func TestServiceGroupLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newTestService()
	owner := uuid.New()

	g, err := svc.CreateGroup(ctx, owner, "Trip to Vegas", currency.USD, []string{"alice", "charlie"})
	assert.NoError(t, err)

	added, err := svc.AddMembers(ctx, owner, g.ID, []string{"diana", "Alice"})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(added))

	got, err := svc.GetGroup(ctx, owner, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice", "charlie", "diana"}, []string{got.Members[0].UserRef, got.Members[1].UserRef, got.Members[2].UserRef})

	alice := got.Members[0].ID
	_, _, err = svc.RecordSharedExpense(ctx, owner, g.ID, "Hotel", dec("300"), alice)
	assert.NoError(t, err)
	_, _, err = svc.RecordSharedExpense(ctx, owner, g.ID, "Dinner", dec("150"), alice)
	assert.NoError(t, err)

	sum, err := svc.Summary(ctx, owner, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, sum.MemberCount)
	assertDecimal(t, "450", sum.TotalExpenses)
	assertDecimal(t, "300", sum.Balances[alice])
	assertDecimal(t, "-150", sum.Balances[got.Members[1].ID])
	assertDecimal(t, "-150", sum.Balances[got.Members[2].ID])

	assert.NoError(t, svc.RenameGroup(ctx, owner, g.ID, "Vegas"))
	groups, err := svc.ListGroups(ctx, owner, "veg")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(groups))
	assert.Equal(t, "Dinner", groups[0].Expenses[0].Description)

	assert.NoError(t, svc.DeleteGroup(ctx, owner, g.ID))
	_, err = svc.GetGroup(ctx, owner, g.ID)
	assert.IsError(t, err, ErrGroupNotFound)

	assert.Equal(t, []string{
		EventGroupCreated,
		EventMembersAdded,
		EventSharedExpenseRecorded,
		EventSharedExpenseRecorded,
		EventGroupRenamed,
		EventGroupDeleted,
	}, rec.types())
}

func TestServiceSummaryInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	owner := uuid.New()

	g, err := svc.CreateGroup(ctx, owner, "Roommates", currency.USD, []string{"alice", "bob"})
	assert.NoError(t, err)

	sum, err := svc.Summary(ctx, owner, g.ID)
	assert.NoError(t, err)
	assert.True(t, sum.TotalExpenses.IsZero())

	_, _, err = svc.RecordSharedExpense(ctx, owner, g.ID, "Groceries", dec("51.00"), g.Members[0].ID)
	assert.NoError(t, err)

	sum, err = svc.Summary(ctx, owner, g.ID)
	assert.NoError(t, err)
	assertDecimal(t, "51", sum.TotalExpenses)
	assertDecimal(t, "25.50", sum.Balances[g.Members[0].ID])
	assertDecimal(t, "-25.50", sum.Balances[g.Members[1].ID])
}

func TestServiceHidesOtherOwnersGroups(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	owner := uuid.New()

	g, err := svc.CreateGroup(ctx, owner, "Mine", currency.USD, []string{"a"})
	assert.NoError(t, err)

	stranger := uuid.New()
	_, err = svc.Summary(ctx, owner, g.ID)
	assert.NoError(t, err)
	_, err = svc.Summary(ctx, stranger, g.ID)
	assert.IsError(t, err, ErrGroupNotFound)
	_, _, err = svc.RecordSharedExpense(ctx, stranger, g.ID, "x", dec("1"), g.Members[0].ID)
	assert.IsError(t, err, ErrGroupNotFound)
}

func TestServiceRejectedExpenseLeavesGroupUntouched(t *testing.T) {
	ctx := context.Background()
	svc, repo, rec := newTestService()
	owner := uuid.New()

	g, err := svc.CreateGroup(ctx, owner, "Roommates", currency.USD, []string{"alice", "bob"})
	assert.NoError(t, err)

	_, _, err = svc.RecordSharedExpense(ctx, owner, g.ID, "Rent", dec("1000"), uuid.New())
	assert.IsError(t, err, ErrInvalidPayer)

	stored, err := repo.GetGroup(ctx, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(stored.Expenses))
	for _, m := range stored.Members {
		assert.True(t, m.Balance.IsZero())
	}
	assert.Equal(t, []string{EventGroupCreated}, rec.types())
}

type failingRepository struct {
	*MemoryRepository
}

func (failingRepository) SaveSharedExpense(context.Context, SharedExpense, []BalanceChange) error {
	return ErrPartialApply
}

func TestServiceSurfacesPartialApply(t *testing.T) {
	ctx := context.Background()
	repo := failingRepository{NewMemoryRepository()}
	svc := NewService(repo, nil, nil)
	owner := uuid.New()

	g, err := svc.CreateGroup(ctx, owner, "Roommates", currency.USD, []string{"alice", "bob"})
	assert.NoError(t, err)

	_, _, err = svc.RecordSharedExpense(ctx, owner, g.ID, "Rent", dec("10"), g.Members[0].ID)
	assert.True(t, errors.Is(err, ErrPartialApply))
}

func TestServiceConcurrentExpensesStayZeroSum(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	owner := uuid.New()

	g, err := svc.CreateGroup(ctx, owner, "Flat", currency.USD, []string{"a", "b", "c"})
	assert.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		payer := g.Members[i%3].ID
		wg.Go(func() {
			_, _, err := svc.RecordSharedExpense(ctx, owner, g.ID, "round", dec("10.01"), payer)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	got, err := svc.GetGroup(ctx, owner, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, 30, len(got.Expenses))
	total := decimal.Zero
	for _, m := range got.Members {
		total = total.Add(m.Balance)
	}
	assert.True(t, total.IsZero(), "sum %s", total)
}

func TestServiceReconcile(t *testing.T) {
	ctx := context.Background()
	svc, repo, rec := newTestService()
	owner := uuid.New()

	g, err := svc.CreateGroup(ctx, owner, "Roommates", currency.USD, []string{"alice", "bob"})
	assert.NoError(t, err)
	alice, bob := g.Members[0].ID, g.Members[1].ID
	_, _, err = svc.RecordSharedExpense(ctx, owner, g.ID, "Groceries", dec("51"), alice)
	assert.NoError(t, err)

	drift, err := svc.Reconcile(ctx, owner, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(drift))

	assert.NoError(t, repo.SetBalances(ctx, g.ID, map[uuid.UUID]decimal.Decimal{alice: dec("30"), bob: dec("-25.50")}))

	drift, err = svc.Reconcile(ctx, owner, g.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(drift))
	assertDecimal(t, "4.50", drift[alice])

	stored, err := repo.GetGroup(ctx, g.ID)
	assert.NoError(t, err)
	assertDecimal(t, "25.50", stored.Members[0].Balance)
	assert.Equal(t, EventBalancesReconciled, rec.types()[len(rec.types())-1])
}

// stallingRepository blocks the next GetGroup until release is closed.
type stallingRepository struct {
	*MemoryRepository
	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

func (r *stallingRepository) stallNext() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entered = make(chan struct{})
	r.release = make(chan struct{})
}

func (r *stallingRepository) GetGroup(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	r.mu.Lock()
	entered, release := r.entered, r.release
	r.entered, r.release = nil, nil
	r.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}
	return r.MemoryRepository.GetGroup(ctx, groupID)
}

func TestServiceSummaryNotOverwrittenByStaleLoad(t *testing.T) {
	ctx := context.Background()
	repo := &stallingRepository{MemoryRepository: NewMemoryRepository()}
	svc := NewService(repo, nil, cache.NewMemory(10))
	owner := uuid.New()

	g, err := svc.CreateGroup(ctx, owner, "Roommates", currency.USD, []string{"alice", "bob"})
	assert.NoError(t, err)

	repo.stallNext()
	entered, release := repo.entered, repo.release
	loaded := make(chan error)
	go func() {
		_, err := svc.Summary(ctx, owner, g.ID)
		loaded <- err
	}()
	<-entered

	recorded := make(chan error)
	go func() {
		_, _, err := svc.RecordSharedExpense(ctx, owner, g.ID, "Groceries", dec("51"), g.Members[0].ID)
		recorded <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	assert.NoError(t, <-loaded)
	assert.NoError(t, <-recorded)

	sum, err := svc.Summary(ctx, owner, g.ID)
	assert.NoError(t, err)
	assertDecimal(t, "51", sum.TotalExpenses)
	assertDecimal(t, "25.50", sum.Balances[g.Members[0].ID])
}
