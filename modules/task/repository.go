package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	projectdomain "github.com/oguarni/status-point/domain/project"
	domain "github.com/oguarni/status-point/domain/task"
	"gorm.io/gorm"
)

// ErrProjectNotFound is returned when a task references a project that does not exist.
var ErrProjectNotFound = errors.New("referenced project does not exist")

// Repository handles task persistence using GORM.
type Repository struct {
	db *gorm.DB
}

var _ domain.Repository = (*Repository)(nil)

// NewRepository creates a new task Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID finds a task by ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	result := r.db.WithContext(ctx).First(&t, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, result.Error
	}
	return &t, nil
}

// FindAllByOwner returns every task owned by ownerID, newest first.
func (r *Repository) FindAllByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	return r.FindAllByOwnerWithFilters(ctx, ownerID, domain.Filters{})
}

// FindAllByOwnerWithFilters returns the owner's tasks narrowed by f, newest first.
func (r *Repository) FindAllByOwnerWithFilters(ctx context.Context, ownerID string, f domain.Filters) ([]domain.Task, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)

	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("(title LIKE ? OR description LIKE ?)", like, like)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Priority != nil {
		q = q.Where("priority = ?", *f.Priority)
	}
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}

	var tasks []domain.Task
	if err := q.Order("created_at DESC").Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create inserts a task.
func (r *Repository) Create(ctx context.Context, t *domain.Task) error {
	if t.ProjectID != nil {
		if err := r.ensureProject(ctx, *t.ProjectID); err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Create(t).Error
}

// Update applies p to the task and returns the stored result.
func (r *Repository) Update(ctx context.Context, id string, p domain.Patch) (*domain.Task, error) {
	if p.ProjectID != nil && *p.ProjectID != "" {
		if err := r.ensureProject(ctx, *p.ProjectID); err != nil {
			return nil, err
		}
	}

	cols := patchColumns(p)
	cols["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes a task and its history.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&domain.History{}).Error; err != nil {
			return fmt.Errorf("failed to delete task history: %w", err)
		}
		result := tx.Delete(&domain.Task{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (r *Repository) ensureProject(ctx context.Context, projectID string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&projectdomain.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	return nil
}

func patchColumns(p domain.Patch) map[string]any {
	cols := make(map[string]any)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.Priority != nil {
		cols["priority"] = *p.Priority
	}
	if p.DueDate != nil {
		if p.DueDate.IsZero() {
			cols["due_date"] = nil
		} else {
			cols["due_date"] = *p.DueDate
		}
	}
	if p.ProjectID != nil {
		cols["project_id"] = nullable(*p.ProjectID)
	}
	if p.AssigneeID != nil {
		cols["assignee_id"] = nullable(*p.AssigneeID)
	}
	return cols
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
