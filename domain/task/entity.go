package task

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"

	// LegacyStatusPending is the open status of the older two-state vocabulary. It maps to StatusTodo.
	LegacyStatusPending = "pending"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted, StatusBlocked}

var (
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
)

// ParseStatus accepts the four canonical statuses and the legacy "pending", which becomes todo.
func ParseStatus(s string) (Status, error) {
	if s == LegacyStatusPending {
		return StatusTodo, nil
	}
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q (must be one of todo, in_progress, completed, blocked)", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// Priority is an optional task priority. The empty value means none.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts low, medium, high and the empty string.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q (must be one of low, medium, high)", ErrInvalidPriority, s)
	}
	return p, nil
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Value orders priorities for sorting: high=3, medium=2, low=1, none=0.
func (p Priority) Value() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Task represents a unit of work owned by the user who created it.
type Task struct {
	ID          string     `gorm:"primaryKey;type:text" json:"id"`
	OwnerID     string     `gorm:"index;not null;type:text" json:"owner_id"`
	ProjectID   *string    `gorm:"index;type:text" json:"project_id"`
	AssigneeID  *string    `gorm:"index;type:text" json:"assignee_id"`
	Title       string     `gorm:"not null;type:text" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      Status     `gorm:"index;not null;type:text;default:todo" json:"status"`
	Priority    Priority   `gorm:"type:text" json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

func (t *Task) IsOwnedBy(userID string) bool {
	return t.OwnerID == userID
}

func (t *Task) BelongsToProject(projectID string) bool {
	return t.ProjectID != nil && *t.ProjectID == projectID
}

// IsStandalone reports whether the task is not attached to any project.
func (t *Task) IsStandalone() bool {
	return t.ProjectID == nil
}

func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsOverdue reports whether the due date has passed and the task is still open.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now) && !t.IsCompleted()
}

// Patch is a partial update. Nil fields are left untouched.
//
// Priority set to PriorityNone clears it; ProjectID or AssigneeID pointing at ""
// detaches the task; a zero DueDate clears the due date.
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
	ProjectID   *string
	AssigneeID  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.DueDate == nil && p.ProjectID == nil && p.AssigneeID == nil
}

// Filters narrows a task listing. Zero fields do not filter.
type Filters struct {
	Search    string
	Status    *Status
	Priority  *Priority
	ProjectID *string
}
