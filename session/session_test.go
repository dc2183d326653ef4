package session

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/billbatista/acasinha-finance/database/dbtest"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.SQLite(t)
	repo := NewRepository(db)
	userID := dbtest.User(t, db)

	s, err := repo.Create(ctx, userID)
	assert.NoError(t, err)
	assert.NotEqual(t, "", s.Token)

	found, err := repo.GetByToken(ctx, s.Token)
	assert.NoError(t, err)
	assert.Equal(t, userID, found.UserID)
	assert.Equal(t, s.Token, found.Token)

	var stored string
	assert.NoError(t, db.QueryRow(`SELECT token FROM sessions WHERE id = $1`, s.ID).Scan(&stored))
	assert.Equal(t, hashToken(s.Token), stored)

	_, err = repo.GetByToken(ctx, "nope")
	assert.IsError(t, err, ErrInvalidSession)

	expired, err := repo.Create(ctx, userID)
	assert.NoError(t, err)
	_, err = db.Exec(`UPDATE sessions SET expires_at = $1 WHERE token = $2`, time.Now().UTC().Add(-time.Hour), hashToken(expired.Token))
	assert.NoError(t, err)
	_, err = repo.GetByToken(ctx, expired.Token)
	assert.IsError(t, err, ErrExpiredSession)

	n, err := repo.DeleteExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NoError(t, repo.Delete(ctx, s.Token))
	_, err = repo.GetByToken(ctx, s.Token)
	assert.IsError(t, err, ErrInvalidSession)
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	assert.NoError(t, err)
	b, err := NewToken()
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 44, len(a))
}
