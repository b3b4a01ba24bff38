package project

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oguarni/status-point/domain/apperr"
	"github.com/oguarni/status-point/domain/policy"
	domain "github.com/oguarni/status-point/domain/project"
	"github.com/oguarni/status-point/domain/user"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 5000
)

// CreateInput carries the fields of a new project.
type CreateInput struct {
	Title       string
	Description string
	Deadline    time.Time
}

// Service manages projects on behalf of their managers and administrators.
type Service struct {
	repo domain.Repository
	now  func() time.Time
}

// NewService creates a project Service over repo.
func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create stores a new project managed by actor.
func (s *Service) Create(ctx context.Context, actor user.Actor, in CreateInput) (*domain.Project, error) {
	if err := policy.Check(actor, policy.NewProject(), policy.ActionCreate); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return nil, apperr.Invalid("title is required")
	case len(title) > maxTitleLength:
		return nil, apperr.Invalid("title is too long (maximum %d characters)", maxTitleLength)
	case len(in.Description) > maxDescriptionLength:
		return nil, apperr.Invalid("description is too long (maximum %d characters)", maxDescriptionLength)
	case in.Deadline.IsZero():
		return nil, apperr.Invalid("deadline is required")
	}

	now := s.now()
	if in.Deadline.Before(now) {
		return nil, apperr.Invalid("deadline cannot be in the past")
	}

	p := &domain.Project{
		ID:          uuid.New().String(),
		ManagerID:   actor.ID,
		Title:       title,
		Description: in.Description,
		Deadline:    in.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Persistence(err, "failed to create project")
	}
	return p, nil
}

// Get returns a project the actor manages, or any project for an admin.
func (s *Service) Get(ctx context.Context, actor user.Actor, projectID string) (*domain.Project, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.Project(p), policy.ActionRead); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the projects the actor manages.
func (s *Service) List(ctx context.Context, actor user.Actor) ([]domain.Project, error) {
	projects, err := s.repo.FindAllByManager(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to list projects")
	}
	return projects, nil
}

// Update applies a partial update. The manager never changes.
func (s *Service) Update(ctx context.Context, actor user.Actor, projectID string, patch domain.Patch) (*domain.Project, error) {
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return nil, apperr.Invalid("title cannot be empty")
		}
		if len(t) > maxTitleLength {
			return nil, apperr.Invalid("title is too long (maximum %d characters)", maxTitleLength)
		}
		patch.Title = &t
	}
	if patch.Description != nil && len(*patch.Description) > maxDescriptionLength {
		return nil, apperr.Invalid("description is too long (maximum %d characters)", maxDescriptionLength)
	}
	if patch.Deadline != nil && patch.Deadline.IsZero() {
		return nil, apperr.Invalid("deadline cannot be cleared")
	}

	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.Project(p), policy.ActionUpdate); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, projectID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NotFound("project %s not found", projectID)
		}
		return nil, apperr.Persistence(err, "failed to update project")
	}
	return updated, nil
}

// Delete removes a project together with its tasks and their history. It returns
// the owners of the removed tasks.
func (s *Service) Delete(ctx context.Context, actor user.Actor, projectID string) ([]string, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.Project(p), policy.ActionDelete); err != nil {
		return nil, err
	}

	owners, err := s.repo.Delete(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NotFound("project %s not found", projectID)
		}
		return nil, apperr.Persistence(err, "failed to delete project")
	}
	return owners, nil
}

func (s *Service) load(ctx context.Context, projectID string) (*domain.Project, error) {
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NotFound("project %s not found", projectID)
		}
		return nil, apperr.Persistence(err, "failed to load project")
	}
	return p, nil
}
