package project

import (
	"context"
	"fmt"
	"time"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/eventlogger"
	"github.com/google/uuid"
)

const (
	EventProjectCreated = "project.created"
	EventProjectUpdated = "project.updated"
	EventProjectDeleted = "project.deleted"
	EventEntriesChanged = "project.entries_changed"
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

// Detail is a project with its entries and progress in the reporting
// currency.
type Detail struct {
	Project
	Entries  []Entry  `json:"entries"`
	Progress Progress `json:"progress"`
}

type Listing struct {
	Projects []Detail `json:"projects"`
	Overview Overview `json:"overview"`
}

// List returns the user's projects, newest first, with the overview of all of
// them in the reporting currency.
func (s *Service) List(ctx context.Context, userID uuid.UUID, code currency.Code) (Listing, error) {
	projects, err := s.repo.List(ctx, userID)
	if err != nil {
		return Listing{}, fmt.Errorf("listing projects: %w", err)
	}
	overview, err := ComputeOverview(projects, code)
	if err != nil {
		return Listing{}, err
	}

	l := Listing{Projects: make([]Detail, 0, len(projects)), Overview: overview}
	for _, p := range projects {
		pr, err := ComputeProgress(p, code)
		if err != nil {
			return Listing{}, err
		}
		l.Projects = append(l.Projects, Detail{Project: p, Progress: pr})
	}
	return l, nil
}

func (s *Service) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	projects, err := s.repo.List(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("listing projects: %w", err)
	}
	return len(projects), nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID, code currency.Code) (*Detail, error) {
	p, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	pr, err := ComputeProgress(*p, code)
	if err != nil {
		return nil, err
	}
	return &Detail{Project: *p, Entries: entries, Progress: pr}, nil
}

func (s *Service) get(ctx context.Context, userID, id uuid.UUID) (*Project, error) {
	p, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("fetching project: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in Input) (*Project, error) {
	p, err := in.Project(userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	s.log(userID, EventProjectCreated, p)
	return &p, nil
}

// Update changes name, budget and currency. Spent is recomputed in the new
// currency.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in Input) (*Project, error) {
	if _, err := s.get(ctx, userID, id); err != nil {
		return nil, err
	}
	p, err := in.Project(userID)
	if err != nil {
		return nil, err
	}
	p.ID = id
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("updating project: %w", err)
	}
	s.log(userID, EventProjectUpdated, updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.log(userID, EventProjectDeleted, map[string]string{"project_id": id.String()})
	return nil
}

func (s *Service) AddEntry(ctx context.Context, userID, projectID uuid.UUID, in EntryInput) (*Entry, *Project, error) {
	if _, err := s.get(ctx, userID, projectID); err != nil {
		return nil, nil, err
	}
	e, err := in.Entry(projectID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.repo.AddEntries(ctx, projectID, []Entry{e})
	if err != nil {
		return nil, nil, fmt.Errorf("adding entry: %w", err)
	}
	s.entriesChanged(userID, p, "added", 1)
	return &e, p, nil
}

// ImportEntries adds all entries or none.
func (s *Service) ImportEntries(ctx context.Context, userID, projectID uuid.UUID, entries []Entry) (*Project, error) {
	if _, err := s.get(ctx, userID, projectID); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].ProjectID = projectID
		if entries[i].ID == uuid.Nil {
			entries[i].ID = uuid.New()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = time.Now().UTC()
		}
		if err := entries[i].Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
	}
	p, err := s.repo.AddEntries(ctx, projectID, entries)
	if err != nil {
		return nil, fmt.Errorf("importing entries: %w", err)
	}
	s.entriesChanged(userID, p, "imported", len(entries))
	return p, nil
}

func (s *Service) UpdateEntry(ctx context.Context, userID, projectID, entryID uuid.UUID, in EntryInput) (*Entry, *Project, error) {
	if _, err := s.get(ctx, userID, projectID); err != nil {
		return nil, nil, err
	}
	e, err := in.Entry(projectID)
	if err != nil {
		return nil, nil, err
	}
	e.ID = entryID
	p, err := s.repo.UpdateEntry(ctx, e)
	if err != nil {
		return nil, nil, fmt.Errorf("updating entry: %w", err)
	}
	s.entriesChanged(userID, p, "updated", 1)
	return &e, p, nil
}

func (s *Service) DeleteEntry(ctx context.Context, userID, projectID, entryID uuid.UUID) (*Project, error) {
	if _, err := s.get(ctx, userID, projectID); err != nil {
		return nil, err
	}
	p, err := s.repo.DeleteEntry(ctx, projectID, entryID)
	if err != nil {
		return nil, fmt.Errorf("deleting entry: %w", err)
	}
	s.entriesChanged(userID, p, "deleted", 1)
	return p, nil
}

func (s *Service) entriesChanged(userID uuid.UUID, p *Project, action string, count int) {
	s.log(userID, EventEntriesChanged, map[string]any{
		"project_id": p.ID,
		"action":     action,
		"count":      count,
		"spent":      p.Spent,
	})
}

func (s *Service) log(userID uuid.UUID, eventType string, data any) {
	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventType),
		eventlogger.WithData(data),
		eventlogger.WithActor(userID),
	))
}
