package api

import "time"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TaskBody is the JSON body of POST and PUT /tasks. On PUT every field is optional.
// A null or absent due_date leaves the due date untouched; send clear_due_date to remove it.
type TaskBody struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
	ProjectID    *string    `json:"project_id"`
	AssigneeID   *string    `json:"assignee_id"`
}

// ProjectBody is the JSON body of POST and PUT /projects. On PUT every field is optional.
type ProjectBody struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Module    string `json:"module"`
	RateLimit bool   `json:"rate_limit"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
