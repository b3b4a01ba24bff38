package task

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when no task matches.
var ErrNotFound = errors.New("task not found")

// Repository is the storage contract for tasks.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Task, error)
	FindAllByOwner(ctx context.Context, ownerID string) ([]Task, error)
	FindAllByOwnerWithFilters(ctx context.Context, ownerID string, f Filters) ([]Task, error)
	Create(ctx context.Context, t *Task) error
	Update(ctx context.Context, id string, p Patch) (*Task, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// HistoryRepository is the append-only storage contract for status transitions.
type HistoryRepository interface {
	Create(ctx context.Context, h *History) error
	// FindByTaskID returns records newest first.
	FindByTaskID(ctx context.Context, taskID string) ([]History, error)
}

// Store groups the task-side repositories behind one transactional boundary.
type Store interface {
	Tasks() Repository
	History() HistoryRepository
	// Atomic runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Atomic(ctx context.Context, fn func(Store) error) error
}
