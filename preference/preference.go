// Package preference stores per-user display settings.
package preference

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/google/uuid"
)

// DefaultCurrency is the reporting currency of users that never picked one.
const DefaultCurrency = currency.USD

type Store interface {
	Currency(ctx context.Context, userID uuid.UUID) (currency.Code, error)
	SetCurrency(ctx context.Context, userID uuid.UUID, code currency.Code) error
}

type store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *store {
	return &store{db: db}
}

func (s *store) Currency(ctx context.Context, userID uuid.UUID) (currency.Code, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT currency FROM user_preferences WHERE user_id = $1`, userID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return DefaultCurrency, nil
		}
		return "", fmt.Errorf("querying preferences: %w", err)
	}
	code, err := currency.Parse(raw)
	if err != nil {
		return DefaultCurrency, nil
	}
	return code, nil
}

func (s *store) SetCurrency(ctx context.Context, userID uuid.UUID, code currency.Code) error {
	if err := code.Validate(); err != nil {
		return err
	}
	query := `
        INSERT INTO user_preferences (user_id, currency, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE SET currency = excluded.currency, updated_at = excluded.updated_at
    `
	if _, err := s.db.ExecContext(ctx, query, userID, code, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

type MemoryStore struct {
	mu    sync.RWMutex
	codes map[uuid.UUID]currency.Code
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[uuid.UUID]currency.Code)}
}

func (s *MemoryStore) Currency(ctx context.Context, userID uuid.UUID) (currency.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if code, ok := s.codes[userID]; ok {
		return code, nil
	}
	return DefaultCurrency, nil
}

func (s *MemoryStore) SetCurrency(ctx context.Context, userID uuid.UUID, code currency.Code) error {
	if err := code.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[userID] = code
	return nil
}
