package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/billbatista/acasinha-finance/cache"
	"github.com/billbatista/acasinha-finance/eventlogger"
	"github.com/billbatista/acasinha-finance/session"
	"github.com/billbatista/acasinha-finance/user"
)

// Per demo session, for dashboards and group summaries.
const demoCacheSize = 64

// Manager resolves session tokens into identities and identities into
// services.
type Manager struct {
	persistent *Services
	sessions   session.Repository
	users      user.Repository
	demos      *cache.LRU[*Services]
}

func NewManager(persistent *Services, sessions session.Repository, users user.Repository, demoTTL time.Duration, maxDemos int) *Manager {
	demos := cache.NewLRU[*Services](maxDemos, demoTTL)
	demos.OnEvict(func(token string, _ *Services) {
		slog.Debug("demo session dropped")
	})
	return &Manager{
		persistent: persistent,
		sessions:   sessions,
		users:      users,
		demos:      demos,
	}
}

func (m *Manager) Identify(ctx context.Context, token string) (*session.Identity, error) {
	if _, ok := m.demos.Get(token); ok {
		return &session.Identity{UserID: user.Demo.ID, Email: user.Demo.Email, Demo: true, Token: token}, nil
	}

	sess, err := m.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	u, err := m.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, session.ErrInvalidSession
	}
	return &session.Identity{UserID: u.ID, Email: u.Email, Token: token}, nil
}

// For returns the services that hold id's data.
func (m *Manager) For(id session.Identity) (*Services, error) {
	if !id.Demo {
		return m.persistent, nil
	}
	s, ok := m.demos.Get(id.Token)
	if !ok {
		return nil, session.ErrExpiredSession
	}
	return s, nil
}

// StartDemo creates a seeded demo workspace and returns its session token.
func (m *Manager) StartDemo(ctx context.Context) (string, error) {
	token, err := session.NewToken()
	if err != nil {
		return "", fmt.Errorf("generating demo token: %w", err)
	}
	s := NewMemory(eventlogger.Discard, cache.NewMemory(demoCacheSize))
	if err := Seed(ctx, s, user.Demo.ID); err != nil {
		return "", err
	}
	m.demos.Set(token, s)
	return token, nil
}

func (m *Manager) EndDemo(token string) {
	m.demos.Delete(token)
}

func (m *Manager) DemoCount() int {
	return m.demos.Size()
}

// Sweep drops expired demo workspaces and sessions.
func (m *Manager) Sweep(ctx context.Context) {
	demos := m.demos.CleanExpired()
	sessions, err := m.sessions.DeleteExpired(ctx)
	if err != nil {
		slog.Error("failed to delete expired sessions", "error", err)
	}
	if demos > 0 || sessions > 0 {
		slog.Info("swept expired sessions", "demos", demos, "sessions", sessions)
	}
}
