package project

import (
	"context"
	"errors"
	"math"
	"time"
)

// UrgentWithin is how close a deadline must be for a project to count as urgent.
const UrgentWithin = 7

// ErrNotFound is returned by repositories when no project matches.
var ErrNotFound = errors.New("project not found")

// Project groups tasks under a managing user and a deadline.
type Project struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	ManagerID   string    `gorm:"index;not null;type:text" json:"manager_id"`
	Title       string    `gorm:"not null;type:text" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Deadline    time.Time `gorm:"not null" json:"deadline"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for the Project entity.
func (Project) TableName() string {
	return "projects"
}

func (p *Project) IsManagedBy(userID string) bool {
	return p.ManagerID == userID
}

// IsOverdue reports whether the deadline has passed.
func (p *Project) IsOverdue(now time.Time) bool {
	return p.Deadline.Before(now)
}

// DaysRemaining rounds the time left until the deadline up to whole days.
// It is negative once the deadline has passed.
func (p *Project) DaysRemaining(now time.Time) int {
	return int(math.Ceil(p.Deadline.Sub(now).Hours() / 24))
}

// IsUrgent reports whether the deadline falls within the next UrgentWithin days.
func (p *Project) IsUrgent(now time.Time) bool {
	days := p.DaysRemaining(now)
	return days >= 0 && days <= UrgentWithin && !p.IsOverdue(now)
}

// Patch is a partial project update. The manager is not patchable.
type Patch struct {
	Title       *string
	Description *string
	Deadline    *time.Time
}

// Repository is the storage contract for projects.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Project, error)
	FindAllByManager(ctx context.Context, managerID string) ([]Project, error)
	Create(ctx context.Context, p *Project) error
	Update(ctx context.Context, id string, patch Patch) (*Project, error)
	// Delete removes the project together with its tasks and their history and
	// returns the distinct owners of the removed tasks.
	Delete(ctx context.Context, id string) ([]string, error)
}
