package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/oguarni/status-point/domain/project"
	"github.com/oguarni/status-point/domain/task"
	"gorm.io/gorm"
)

// Repository handles project persistence using GORM.
type Repository struct {
	db *gorm.DB
}

var _ domain.Repository = (*Repository)(nil)

// NewRepository creates a new project Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID finds a project by ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindAllByManager returns the projects managed by managerID, nearest deadline first.
func (r *Repository) FindAllByManager(ctx context.Context, managerID string) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).
		Where("manager_id = ?", managerID).
		Order("deadline ASC").
		Order("id").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Create inserts a project.
func (r *Repository) Create(ctx context.Context, p *domain.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Update applies patch to the project and returns the stored result.
func (r *Repository) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Project, error) {
	cols := map[string]any{"updated_at": time.Now()}
	if patch.Title != nil {
		cols["title"] = *patch.Title
	}
	if patch.Description != nil {
		cols["description"] = *patch.Description
	}
	if patch.Deadline != nil {
		cols["deadline"] = *patch.Deadline
	}

	result := r.db.WithContext(ctx).Model(&domain.Project{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes the project, its tasks and their history in one transaction.
func (r *Repository) Delete(ctx context.Context, id string) ([]string, error) {
	var owners []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taskIDs []string
		if err := tx.Model(&task.Task{}).Where("project_id = ?", id).Pluck("id", &taskIDs).Error; err != nil {
			return fmt.Errorf("failed to load project tasks: %w", err)
		}
		if err := tx.Model(&task.Task{}).Where("project_id = ?", id).Distinct().Order("owner_id").Pluck("owner_id", &owners).Error; err != nil {
			return fmt.Errorf("failed to load task owners: %w", err)
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&task.History{}).Error; err != nil {
				return fmt.Errorf("failed to delete task history: %w", err)
			}
		}
		if err := tx.Where("project_id = ?", id).Delete(&task.Task{}).Error; err != nil {
			return fmt.Errorf("failed to delete project tasks: %w", err)
		}

		result := tx.Delete(&domain.Project{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return owners, nil
}
