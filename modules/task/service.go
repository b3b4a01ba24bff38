package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oguarni/status-point/domain/apperr"
	"github.com/oguarni/status-point/domain/policy"
	domain "github.com/oguarni/status-point/domain/task"
	"github.com/oguarni/status-point/domain/user"
	"github.com/oguarni/status-point/modules/history"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 5000
)

// CreateInput carries the fields of a new task.
type CreateInput struct {
	Title       string
	Description string
	Priority    domain.Priority
	DueDate     *time.Time
	ProjectID   *string
	AssigneeID  *string
}

// Board is the Kanban projection of a user's tasks: one column per status.
type Board map[domain.Status][]domain.Task

// Service implements the task lifecycle: who may create, read, change, complete
// and delete a task, and the history written when its status changes.
type Service struct {
	store domain.Store
	now   func() time.Time
}

// NewService creates a task Service over store.
func NewService(store domain.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create stores a new task owned by actor with status todo.
func (s *Service) Create(ctx context.Context, actor user.Actor, in CreateInput) (*domain.Task, error) {
	if actor.ID == "" {
		return nil, apperr.Forbidden("%s: an authenticated user is required", apperr.ReasonNotAuthorized)
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := s.now()
	t := &domain.Task{
		ID:          uuid.New().String(),
		OwnerID:     actor.ID,
		ProjectID:   emptyToNil(in.ProjectID),
		AssigneeID:  emptyToNil(in.AssigneeID),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      domain.StatusTodo,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Tasks().Create(ctx, t); err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, apperr.NotFound("project %s not found", *t.ProjectID)
		}
		return nil, apperr.Persistence(err, "failed to create task")
	}
	return t, nil
}

// Get returns a task the actor owns.
func (s *Service) Get(ctx context.Context, actor user.Actor, taskID string) (*domain.Task, error) {
	t, err := load(ctx, s.store, taskID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.Task(t), policy.ActionRead); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the actor's own tasks, optionally filtered.
func (s *Service) List(ctx context.Context, actor user.Actor, f domain.Filters) ([]domain.Task, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, apperr.Invalid("status must be one of todo, in_progress, completed, blocked")
	}
	if f.Priority != nil && !f.Priority.Valid() {
		return nil, apperr.Invalid("priority must be one of low, medium, high")
	}

	tasks, err := s.store.Tasks().FindAllByOwnerWithFilters(ctx, actor.ID, f)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to list tasks")
	}
	return tasks, nil
}

// Complete marks a task completed. Completing an already completed task succeeds
// without writing history. The returned record is nil when nothing was recorded.
func (s *Service) Complete(ctx context.Context, actor user.Actor, taskID string) (*domain.Task, *domain.History, error) {
	completed := domain.StatusCompleted
	return s.mutate(ctx, actor, taskID, policy.ActionComplete, domain.Patch{Status: &completed})
}

// Update applies a partial update. A status change writes one history record.
func (s *Service) Update(ctx context.Context, actor user.Actor, taskID string, p domain.Patch) (*domain.Task, *domain.History, error) {
	if err := validatePatch(p); err != nil {
		return nil, nil, err
	}
	return s.mutate(ctx, actor, taskID, policy.ActionUpdate, p)
}

// mutate loads, authorizes, updates and records inside one transaction.
func (s *Service) mutate(ctx context.Context, actor user.Actor, taskID string, action policy.Action, p domain.Patch) (*domain.Task, *domain.History, error) {
	var (
		updated *domain.Task
		record  *domain.History
	)

	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		current, err := load(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := policy.Check(actor, policy.Task(current), action); err != nil {
			return err
		}
		if p.IsEmpty() {
			updated = current
			return nil
		}

		previous := current.Status
		updated, err = tx.Tasks().Update(ctx, taskID, p)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return apperr.NotFound("task %s not found", taskID)
			case errors.Is(err, ErrProjectNotFound):
				return apperr.NotFound("project %s not found", *p.ProjectID)
			}
			return apperr.Persistence(err, "failed to update task")
		}

		if p.Status != nil {
			rec := history.NewRecorderWithClock(tx.History(), s.now)
			record, err = rec.Record(ctx, taskID, actor.ID, &previous, *p.Status)
			if err != nil {
				return apperr.Persistence(err, "failed to record status change")
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, classify(err, "failed to update task")
	}
	return updated, record, nil
}

// Delete removes a task the actor owns. Roles grant no override here.
func (s *Service) Delete(ctx context.Context, actor user.Actor, taskID string) (bool, error) {
	var deleted bool
	err := s.store.Atomic(ctx, func(tx domain.Store) error {
		current, err := load(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := policy.Check(actor, policy.Task(current), policy.ActionDelete); err != nil {
			return err
		}
		deleted, err = tx.Tasks().Delete(ctx, taskID)
		if err != nil {
			return apperr.Persistence(err, "failed to delete task")
		}
		return nil
	})
	if err != nil {
		return false, classify(err, "failed to delete task")
	}
	return deleted, nil
}

// History returns the status transitions of a task the actor owns, newest first.
func (s *Service) History(ctx context.Context, actor user.Actor, taskID string) ([]domain.History, error) {
	t, err := load(ctx, s.store, taskID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.Task(t), policy.ActionRead); err != nil {
		return nil, err
	}

	records, err := history.NewRecorder(s.store.History()).List(ctx, taskID)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to load task history")
	}
	return records, nil
}

// Kanban groups the actor's tasks by status. Every status has a column, possibly empty.
func (s *Service) Kanban(ctx context.Context, actor user.Actor) (Board, error) {
	tasks, err := s.store.Tasks().FindAllByOwner(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to load tasks")
	}

	board := make(Board, len(domain.Statuses))
	for _, st := range domain.Statuses {
		board[st] = []domain.Task{}
	}
	for _, t := range tasks {
		board[t.Status] = append(board[t.Status], t)
	}
	return board, nil
}

func load(ctx context.Context, store domain.Store, taskID string) (*domain.Task, error) {
	t, err := store.Tasks().FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NotFound("task %s not found", taskID)
		}
		return nil, apperr.Persistence(err, "failed to load task")
	}
	return t, nil
}

// classify keeps classified errors intact and turns anything else, such as a
// failed commit, into a persistence error.
func classify(err error, msg string) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Persistence(err, "%s", msg)
}

func validateCreate(in CreateInput) error {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return apperr.Invalid("title is required")
	case len(in.Title) > maxTitleLength:
		return apperr.Invalid("title is too long (maximum %d characters)", maxTitleLength)
	case len(in.Description) > maxDescriptionLength:
		return apperr.Invalid("description is too long (maximum %d characters)", maxDescriptionLength)
	case !in.Priority.Valid():
		return apperr.Invalid("priority must be one of low, medium, high")
	}
	return nil
}

func validatePatch(p domain.Patch) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return apperr.Invalid("title cannot be empty")
		}
		if len(*p.Title) > maxTitleLength {
			return apperr.Invalid("title is too long (maximum %d characters)", maxTitleLength)
		}
	}
	if p.Description != nil && len(*p.Description) > maxDescriptionLength {
		return apperr.Invalid("description is too long (maximum %d characters)", maxDescriptionLength)
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.Invalid("status must be one of todo, in_progress, completed, blocked")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return apperr.Invalid("priority must be one of low, medium, high")
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
