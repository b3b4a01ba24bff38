package task

import "time"

// History is one recorded status transition. Records are append-only.
type History struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID         string    `gorm:"index;not null;type:text" json:"task_id"`
	UserID         string    `gorm:"not null;type:text" json:"user_id"`
	PreviousStatus *Status   `gorm:"type:text" json:"previous_status"`
	NewStatus      Status    `gorm:"not null;type:text" json:"new_status"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the table name for the History entity.
func (History) TableName() string {
	return "task_history"
}

func (h *History) previous() Status {
	if h.PreviousStatus == nil {
		return ""
	}
	return *h.PreviousStatus
}

// IsCompletion reports whether the transition moved the task into completed.
func (h *History) IsCompletion() bool {
	return h.NewStatus == StatusCompleted && h.previous() != StatusCompleted
}

// IsReopening reports whether a completed task was moved back to an open status.
func (h *History) IsReopening() bool {
	return h.previous() == StatusCompleted && h.NewStatus != StatusCompleted
}

func (h *History) IsBlocking() bool {
	return h.NewStatus == StatusBlocked && h.previous() != StatusBlocked
}

func (h *History) IsUnblocking() bool {
	return h.previous() == StatusBlocked && h.NewStatus != StatusBlocked
}
