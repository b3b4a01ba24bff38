// Package history records task status transitions in an append-only log.
package history

import (
	"context"

	domain "github.com/oguarni/status-point/domain/task"
	"gorm.io/gorm"
)

// Repository stores history records using GORM.
type Repository struct {
	db *gorm.DB
}

var _ domain.HistoryRepository = (*Repository)(nil)

// NewRepository creates a new history Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create appends a record.
func (r *Repository) Create(ctx context.Context, h *domain.History) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// FindByTaskID returns the records of a task, newest first. Records created within
// the same clock tick keep insertion order through the id tie-break.
func (r *Repository) FindByTaskID(ctx context.Context, taskID string) ([]domain.History, error) {
	var records []domain.History
	result := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}
