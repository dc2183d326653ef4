package eventlogger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID        uuid.UUID         `json:"id,omitempty"`
	Type      string            `json:"event_type,omitempty"`
	Data      any               `json:"event_data,omitempty"`
	Metadata  map[string]string `json:"event_metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type EventOption func(*Event)

func WithType(eventType string) EventOption {
	return func(e *Event) {
		e.Type = eventType
	}
}

func WithData(data any) EventOption {
	return func(e *Event) {
		e.Data = data
	}
}

func WithMetadata(metadata map[string]string) EventOption {
	return func(e *Event) {
		for k, v := range metadata {
			e.Metadata[k] = v
		}
	}
}

// WithActor records who triggered the event.
func WithActor(userID uuid.UUID) EventOption {
	return func(e *Event) {
		e.Metadata["user_id"] = userID.String()
	}
}

func NewEvent(opts ...EventOption) Event {
	e := Event{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Metadata:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

var ErrQueryUnsupported = errors.New("event logger does not support queries")

type EventLogger interface {
	Save(ctx context.Context, e Event) error
	GetByType(ctx context.Context, eventType string) ([]Event, error)
}

// Recorder accepts events without blocking the caller.
type Recorder interface {
	Log(event Event)
}

// Discard drops every event.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Log(Event) {}

// multiLogger saves to every logger and queries the first one.
type multiLogger struct {
	loggers []EventLogger
}

func NewMultiLogger(loggers ...EventLogger) EventLogger {
	return &multiLogger{loggers: loggers}
}

func (m *multiLogger) Save(ctx context.Context, e Event) error {
	var errs []error
	for _, l := range m.loggers {
		if err := l.Save(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *multiLogger) GetByType(ctx context.Context, eventType string) ([]Event, error) {
	for _, l := range m.loggers {
		events, err := l.GetByType(ctx, eventType)
		if errors.Is(err, ErrQueryUnsupported) {
			continue
		}
		return events, err
	}
	return nil, ErrQueryUnsupported
}
