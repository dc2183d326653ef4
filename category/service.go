package category

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/billbatista/acasinha-finance/eventlogger"
	"github.com/google/uuid"
)

const (
	EventCategoryAdded   = "category.added"
	EventCategoryRemoved = "category.removed"
)

type Service struct {
	repo   Repository
	events eventlogger.Recorder
}

func NewService(repo Repository, events eventlogger.Recorder) *Service {
	if events == nil {
		events = eventlogger.Discard
	}
	return &Service{repo: repo, events: events}
}

// List returns the default categories followed by the user's own.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	custom, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return append(Defaults(), custom...), nil
}

func (s *Service) Names(ctx context.Context, userID uuid.UUID) ([]string, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Names(all), nil
}

func (s *Service) Add(ctx context.Context, userID uuid.UUID, name string) (*Category, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(all, func(c Category) bool { return strings.EqualFold(c.Name, name) }) {
		return nil, ErrExists
	}

	c := Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Color:     NextColor(all),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(EventCategoryAdded),
		eventlogger.WithData(c),
		eventlogger.WithActor(userID),
	))
	return &c, nil
}

func (s *Service) Remove(ctx context.Context, userID uuid.UUID, name string) error {
	if IsDefault(name) {
		return ErrDefaultCategory
	}
	ok, err := s.repo.Delete(ctx, userID, name)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(EventCategoryRemoved),
		eventlogger.WithData(map[string]string{"name": name}),
		eventlogger.WithActor(userID),
	))
	return nil
}

// Resolve matches free-text input against the user's categories.
func (s *Service) Resolve(ctx context.Context, userID uuid.UUID, input string) (Match, error) {
	names, err := s.Names(ctx, userID)
	if err != nil {
		return Match{}, err
	}
	return Resolve(input, names), nil
}
