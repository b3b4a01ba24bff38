package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// ProjectCreatedEvent is emitted when a project is created.
type ProjectCreatedEvent struct {
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title"`
	ManagerID string    `json:"manager_id"`
	Deadline  time.Time `json:"deadline"`
}

// ProjectCreatedV1 is the typed event definition for project creation.
// Subject: events.project.v1.project-created
var ProjectCreatedV1 = helper.EventDefinition[ProjectCreatedEvent](
	"project", "ProjectCreated", "v1",
)

// ProjectDeletedEvent is emitted when a project and its tasks are deleted.
// TaskOwnerIDs lists the owners of the deleted tasks.
type ProjectDeletedEvent struct {
	ProjectID    string    `json:"project_id"`
	UserID       string    `json:"user_id"`
	TaskOwnerIDs []string  `json:"task_owner_ids,omitempty"`
	DeletedAt    time.Time `json:"deleted_at"`
}

// ProjectDeletedV1 is the typed event definition for project deletion.
// Subject: events.project.v1.project-deleted
var ProjectDeletedV1 = helper.EventDefinition[ProjectDeletedEvent](
	"project", "ProjectDeleted", "v1",
)
