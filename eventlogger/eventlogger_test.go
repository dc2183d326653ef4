package eventlogger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/google/uuid"
)

type memoryLogger struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *memoryLogger) Save(ctx context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memoryLogger) GetByType(ctx context.Context, eventType string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestNewEventOptions(t *testing.T) {
	userID := uuid.New()
	e := NewEvent(
		WithType("group.created"),
		WithData(map[string]string{"name": "Roommates"}),
		WithActor(userID),
		WithMetadata(map[string]string{"source": "test"}),
	)

	assert.Equal(t, "group.created", e.Type)
	assert.Equal(t, userID.String(), e.Metadata["user_id"])
	assert.Equal(t, "test", e.Metadata["source"])
	assert.False(t, e.CreatedAt.IsZero())
}

func TestWorkerDrainsOnShutdown(t *testing.T) {
	logger := &memoryLogger{}
	w := NewWorker(logger, 10)
	w.Start()
	for i := 0; i < 5; i++ {
		w.Log(NewEvent(WithType("test.event")))
	}
	w.Shutdown()

	events, err := logger.GetByType(context.Background(), "test.event")
	assert.NoError(t, err)
	assert.Equal(t, 5, len(events))
}

func TestMultiLogger(t *testing.T) {
	first := &memoryLogger{}
	broken := &memoryLogger{err: errors.New("boom")}
	m := NewMultiLogger(unsupported{}, first, broken)

	err := m.Save(context.Background(), NewEvent(WithType("a")))
	assert.Error(t, err)
	assert.Equal(t, 1, len(first.events))

	events, err := m.GetByType(context.Background(), "a")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(events))
}

type unsupported struct{}

func (unsupported) Save(context.Context, Event) error { return nil }
func (unsupported) GetByType(context.Context, string) ([]Event, error) {
	return nil, ErrQueryUnsupported
}
