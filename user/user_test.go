package user

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/billbatista/acasinha-finance/database/dbtest"
)

func TestNormalizeEmail(t *testing.T) {
	email, err := NormalizeEmail("  Ana@Example.COM ")
	assert.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)

	for _, bad := range []string{"", "ana", "@example.com", "ana@", "a na@example.com"} {
		_, err := NormalizeEmail(bad)
		assert.IsError(t, err, ErrInvalidEmail, bad)
	}
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.SQLite(t))

	u, err := repo.Register(ctx, "Ana@example.com", "s3cret")
	assert.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, err = repo.Register(ctx, "ana@example.com", "other")
	assert.IsError(t, err, ErrEmailExists)
	_, err = repo.Register(ctx, Demo.Email, "x")
	assert.IsError(t, err, ErrEmailExists)
	_, err = repo.Register(ctx, "bob@example.com", " ")
	assert.IsError(t, err, ErrBlankPassword)

	found, err := repo.GetByEmail(ctx, "ANA@example.com")
	assert.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.NoError(t, repo.VerifyPassword(found.PasswordHash, "s3cret"))
	assert.Error(t, repo.VerifyPassword(found.PasswordHash, "wrong"))

	assert.NoError(t, repo.UpdateName(ctx, u.ID, " Ana "))
	found, err = repo.GetByID(ctx, u.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Ana", found.Name)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Zero(t, missing)
}
