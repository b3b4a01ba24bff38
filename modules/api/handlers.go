package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oguarni/status-point/modules/auth"
	"github.com/oguarni/status-point/modules/project"
	"github.com/oguarni/status-point/modules/task"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth     auth.AuthPort
	tasks    task.TaskPort
	projects project.ProjectPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, tasks task.TaskPort, projects project.ProjectPort) *Handlers {
	return &Handlers{
		auth:     authPort,
		tasks:    tasks,
		projects: projects,
	}
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: "User not authenticated",
	})
}

func taskActor(c *fiber.Ctx) (task.ActorRef, bool) {
	claims, ok := claimsFrom(c)
	if !ok {
		return task.ActorRef{}, false
	}
	return task.ActorRef{ActorID: claims.UserID, ActorRole: string(claims.Role)}, true
}

func projectActor(c *fiber.Ctx) (project.ActorRef, bool) {
	claims, ok := claimsFrom(c)
	if !ok {
		return project.ActorRef{}, false
	}
	return project.ActorRef{ActorID: claims.UserID, ActorRole: string(claims.Role)}, true
}

// Register handles self-service registration. New accounts are always collaborators.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	user, err := h.auth.Register(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	tokens, err := h.auth.Login(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(tokens)
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req auth.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	tokens, err := h.auth.Refresh(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(tokens)
}

// Me returns the authenticated user's account.
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	user, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

// CreateUser lets an administrator create an account with any role.
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	var req auth.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.ActorID = claims.UserID
	req.ActorRole = string(claims.Role)

	user, err := h.auth.CreateUser(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// CreateTask creates a task owned by the caller.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	actor, ok := taskActor(c)
	if !ok {
		return unauthenticated(c)
	}

	var body TaskBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.tasks.CreateTask(c.UserContext(), &task.CreateTaskRequest{
		ActorRef:    actor,
		Title:       deref(body.Title),
		Description: deref(body.Description),
		Priority:    deref(body.Priority),
		DueDate:     body.DueDate,
		ProjectID:   body.ProjectID,
		AssigneeID:  body.AssigneeID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListTasks lists the caller's tasks, filtered by the search, status, priority
// and project_id query parameters.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	actor, ok := taskActor(c)
	if !ok {
		return unauthenticated(c)
	}

	req := &task.ListTasksRequest{
		ActorRef: actor,
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}
	if projectID := c.Query("project_id"); projectID != "" {
		req.ProjectID = &projectID
	}

	resp, err := h.tasks.ListTasks(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// GetTask returns one task.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	actor, ok := taskActor(c)
	if !ok {
		return unauthenticated(c)
	}

	resp, err := h.tasks.GetTask(c.UserContext(), &task.GetTaskRequest{ActorRef: actor, TaskID: c.Params("id")})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// UpdateTask applies a partial update. A status change is recorded in the task's history.
// clear_due_date removes the due date.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	actor, ok := taskActor(c)
	if !ok {
		return unauthenticated(c)
	}

	var body TaskBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if body.ClearDueDate {
		if body.DueDate != nil {
			return badRequest(c, "due_date and clear_due_date cannot be combined")
		}
		// the zero time is the task patch's marker for removal
		body.DueDate = &time.Time{}
	}

	resp, err := h.tasks.UpdateTask(c.UserContext(), &task.UpdateTaskRequest{
		ActorRef:    actor,
		TaskID:      c.Params("id"),
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		DueDate:     body.DueDate,
		ProjectID:   body.ProjectID,
		AssigneeID:  body.AssigneeID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// CompleteTask marks a task completed. Completing a completed task changes nothing.
func (h *Handlers) CompleteTask(c *fiber.Ctx) error {
	actor, ok := taskActor(c)
	if !ok {
		return unauthenticated(c)
	}

	resp, err := h.tasks.CompleteTask(c.UserContext(), &task.CompleteTaskRequest{ActorRef: actor, TaskID: c.Params("id")})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// DeleteTask deletes a task the caller owns.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	actor, ok := taskActor(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.tasks.DeleteTask(c.UserContext(), &task.DeleteTaskRequest{ActorRef: actor, TaskID: c.Params("id")}); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// TaskHistory returns a task's status transitions, newest first.
func (h *Handlers) TaskHistory(c *fiber.Ctx) error {
	actor, ok := taskActor(c)
	if !ok {
		return unauthenticated(c)
	}

	resp, err := h.tasks.GetHistory(c.UserContext(), &task.GetHistoryRequest{ActorRef: actor, TaskID: c.Params("id")})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// Kanban returns the caller's tasks grouped by status.
func (h *Handlers) Kanban(c *fiber.Ctx) error {
	actor, ok := taskActor(c)
	if !ok {
		return unauthenticated(c)
	}

	resp, err := h.tasks.GetKanban(c.UserContext(), &task.KanbanRequest{ActorRef: actor})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// CreateProject creates a project managed by the caller.
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	actor, ok := projectActor(c)
	if !ok {
		return unauthenticated(c)
	}

	var body ProjectBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req := &project.CreateProjectRequest{
		ActorRef:    actor,
		Title:       deref(body.Title),
		Description: deref(body.Description),
	}
	if body.Deadline != nil {
		req.Deadline = *body.Deadline
	}

	resp, err := h.projects.CreateProject(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListProjects lists the projects the caller manages.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	actor, ok := projectActor(c)
	if !ok {
		return unauthenticated(c)
	}

	resp, err := h.projects.ListProjects(c.UserContext(), &project.ListProjectsRequest{ActorRef: actor})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// GetProject returns one project.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	actor, ok := projectActor(c)
	if !ok {
		return unauthenticated(c)
	}

	resp, err := h.projects.GetProject(c.UserContext(), &project.GetProjectRequest{ActorRef: actor, ProjectID: c.Params("id")})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// UpdateProject applies a partial update.
func (h *Handlers) UpdateProject(c *fiber.Ctx) error {
	actor, ok := projectActor(c)
	if !ok {
		return unauthenticated(c)
	}

	var body ProjectBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.projects.UpdateProject(c.UserContext(), &project.UpdateProjectRequest{
		ActorRef:    actor,
		ProjectID:   c.Params("id"),
		Title:       body.Title,
		Description: body.Description,
		Deadline:    body.Deadline,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// DeleteProject deletes a project together with its tasks and their history.
func (h *Handlers) DeleteProject(c *fiber.Ctx) error {
	actor, ok := projectActor(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.projects.DeleteProject(c.UserContext(), &project.DeleteProjectRequest{ActorRef: actor, ProjectID: c.Params("id")}); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
