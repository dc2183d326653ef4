package preference

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/database/dbtest"
	"github.com/google/uuid"
)

func testStore(t *testing.T, s Store, userID uuid.UUID) {
	ctx := context.Background()

	code, err := s.Currency(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, currency.USD, code)

	assert.NoError(t, s.SetCurrency(ctx, userID, currency.PKR))
	code, err = s.Currency(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, currency.PKR, code)

	assert.NoError(t, s.SetCurrency(ctx, userID, currency.EUR))
	code, err = s.Currency(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, currency.EUR, code)

	assert.IsError(t, s.SetCurrency(ctx, userID, "GBP"), currency.ErrUnknownCurrency)
	code, err = s.Currency(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, currency.EUR, code)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore(), uuid.New())
}

func TestSQLStore(t *testing.T) {
	db := dbtest.SQLite(t)
	testStore(t, NewStore(db), dbtest.User(t, db))
}
