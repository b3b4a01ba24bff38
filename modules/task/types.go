package task

import (
	"context"
	"time"

	domain "github.com/oguarni/status-point/domain/task"
)

// ActorRef identifies the authenticated caller on every request.
type ActorRef struct {
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	ActorRef
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProjectID   *string    `json:"project_id,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	ActorRef
	TaskID string `json:"task_id"`
}

// ListTasksRequest is the request for listing the actor's tasks.
type ListTasksRequest struct {
	ActorRef
	Search    string  `json:"search,omitempty"`
	Status    string  `json:"status,omitempty"`
	Priority  string  `json:"priority,omitempty"`
	ProjectID *string `json:"project_id,omitempty"`
}

// UpdateTaskRequest is a partial update: nil fields are left untouched.
// An empty project_id or assignee_id detaches, and a zero due_date clears it.
type UpdateTaskRequest struct {
	ActorRef
	TaskID      string     `json:"task_id"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProjectID   *string    `json:"project_id,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
}

// CompleteTaskRequest is the request for completing a task.
type CompleteTaskRequest struct {
	ActorRef
	TaskID string `json:"task_id"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	ActorRef
	TaskID string `json:"task_id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// GetHistoryRequest is the request for a task's status history.
type GetHistoryRequest struct {
	ActorRef
	TaskID string `json:"task_id"`
}

// KanbanRequest is the request for the actor's board.
type KanbanRequest struct {
	ActorRef
}

// TaskResponse is the response for a single task.
type TaskResponse struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	ProjectID    *string    `json:"project_id,omitempty"`
	AssigneeID   *string    `json:"assignee_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	IsOverdue    bool       `json:"is_overdue"`
	IsStandalone bool       `json:"is_standalone"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// MutationResponse is returned by update-task and complete-task.
// History is nil when the status did not change.
type MutationResponse struct {
	Task    TaskResponse  `json:"task"`
	History *HistoryEntry `json:"history,omitempty"`
}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// HistoryEntry is one recorded status transition.
type HistoryEntry struct {
	ID             uint      `json:"id"`
	TaskID         string    `json:"task_id"`
	UserID         string    `json:"user_id"`
	PreviousStatus *string   `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	IsCompletion   bool      `json:"is_completion"`
	IsReopening    bool      `json:"is_reopening"`
	IsBlocking     bool      `json:"is_blocking"`
	IsUnblocking   bool      `json:"is_unblocking"`
	CreatedAt      time.Time `json:"created_at"`
}

// HistoryResponse lists a task's transitions, newest first.
type HistoryResponse struct {
	TaskID  string         `json:"task_id"`
	Entries []HistoryEntry `json:"entries"`
}

// KanbanResponse has one column per status, each possibly empty.
type KanbanResponse struct {
	Todo       []TaskResponse `json:"todo"`
	InProgress []TaskResponse `json:"in_progress"`
	Completed  []TaskResponse `json:"completed"`
	Blocked    []TaskResponse `json:"blocked"`
}

// markOverdue recomputes is_overdue for a board that may have been cached earlier.
func (r *KanbanResponse) markOverdue(now time.Time) {
	for _, column := range [][]TaskResponse{r.Todo, r.InProgress, r.Completed, r.Blocked} {
		for i := range column {
			t := &column[i]
			t.IsOverdue = t.DueDate != nil && t.DueDate.Before(now) && t.Status != string(domain.StatusCompleted)
		}
	}
}

// TaskPort defines the task operations available to other modules.
type TaskPort interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error)
	GetTask(ctx context.Context, req *GetTaskRequest) (*TaskResponse, error)
	ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*MutationResponse, error)
	CompleteTask(ctx context.Context, req *CompleteTaskRequest) (*MutationResponse, error)
	DeleteTask(ctx context.Context, req *DeleteTaskRequest) error
	GetHistory(ctx context.Context, req *GetHistoryRequest) (*HistoryResponse, error)
	GetKanban(ctx context.Context, req *KanbanRequest) (*KanbanResponse, error)
}

func toTaskResponse(t *domain.Task, now time.Time) TaskResponse {
	return TaskResponse{
		ID:           t.ID,
		OwnerID:      t.OwnerID,
		ProjectID:    t.ProjectID,
		AssigneeID:   t.AssigneeID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		DueDate:      t.DueDate,
		IsOverdue:    t.IsOverdue(now),
		IsStandalone: t.IsStandalone(),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toTaskResponses(tasks []domain.Task, now time.Time) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskResponse(&tasks[i], now))
	}
	return out
}

func toHistoryEntry(h *domain.History) *HistoryEntry {
	if h == nil {
		return nil
	}
	e := &HistoryEntry{
		ID:           h.ID,
		TaskID:       h.TaskID,
		UserID:       h.UserID,
		NewStatus:    string(h.NewStatus),
		IsCompletion: h.IsCompletion(),
		IsReopening:  h.IsReopening(),
		IsBlocking:   h.IsBlocking(),
		IsUnblocking: h.IsUnblocking(),
		CreatedAt:    h.CreatedAt,
	}
	if h.PreviousStatus != nil {
		prev := string(*h.PreviousStatus)
		e.PreviousStatus = &prev
	}
	return e
}
