package project

import (
	"context"
	"time"

	domain "github.com/oguarni/status-point/domain/project"
)

// ActorRef identifies the authenticated caller on every request.
type ActorRef struct {
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
}

// CreateProjectRequest is the request for creating a project.
type CreateProjectRequest struct {
	ActorRef
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
}

// GetProjectRequest is the request for getting a project.
type GetProjectRequest struct {
	ActorRef
	ProjectID string `json:"project_id"`
}

// ListProjectsRequest is the request for the projects the actor manages.
type ListProjectsRequest struct {
	ActorRef
}

// UpdateProjectRequest is a partial update: nil fields are left untouched.
type UpdateProjectRequest struct {
	ActorRef
	ProjectID   string     `json:"project_id"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// DeleteProjectRequest is the request for deleting a project.
type DeleteProjectRequest struct {
	ActorRef
	ProjectID string `json:"project_id"`
}

// DeleteProjectResponse is the response for deleting a project.
type DeleteProjectResponse struct {
	Deleted bool `json:"deleted"`
}

// ProjectResponse is the response for a single project.
type ProjectResponse struct {
	ID            string    `json:"id"`
	ManagerID     string    `json:"manager_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Deadline      time.Time `json:"deadline"`
	DaysRemaining int       `json:"days_remaining"`
	IsOverdue     bool      `json:"is_overdue"`
	IsUrgent      bool      `json:"is_urgent"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListProjectsResponse is the response for listing projects.
type ListProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Total    int               `json:"total"`
}

// ProjectPort defines the project operations available to other modules.
type ProjectPort interface {
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*ProjectResponse, error)
	GetProject(ctx context.Context, req *GetProjectRequest) (*ProjectResponse, error)
	ListProjects(ctx context.Context, req *ListProjectsRequest) (*ListProjectsResponse, error)
	UpdateProject(ctx context.Context, req *UpdateProjectRequest) (*ProjectResponse, error)
	DeleteProject(ctx context.Context, req *DeleteProjectRequest) error
}

func toProjectResponse(p *domain.Project, now time.Time) ProjectResponse {
	return ProjectResponse{
		ID:            p.ID,
		ManagerID:     p.ManagerID,
		Title:         p.Title,
		Description:   p.Description,
		Deadline:      p.Deadline,
		DaysRemaining: p.DaysRemaining(now),
		IsOverdue:     p.IsOverdue(now),
		IsUrgent:      p.IsUrgent(now),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
