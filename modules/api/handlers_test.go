package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oguarni/status-point/domain/apperr"
	domain "github.com/oguarni/status-point/domain/user"
	"github.com/oguarni/status-point/modules/auth"
	"github.com/oguarni/status-point/modules/project"
	"github.com/oguarni/status-point/modules/ratelimit"
	"github.com/oguarni/status-point/modules/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokens = map[string]domain.Claims{
	"alice-token": {UserID: "alice", Email: "alice@example.com", Role: domain.RoleCollaborator},
	"admin-token": {UserID: "root", Email: "root@example.com", Role: domain.RoleAdmin},
}

type fakeAuth struct {
	created *auth.CreateUserRequest
}

func (f *fakeAuth) Register(_ context.Context, req *auth.RegisterRequest) (*auth.UserResponse, error) {
	return &auth.UserResponse{ID: "new", Name: req.Name, Email: req.Email, Role: string(domain.RoleCollaborator)}, nil
}

func (f *fakeAuth) CreateUser(_ context.Context, req *auth.CreateUserRequest) (*auth.UserResponse, error) {
	f.created = req
	if req.ActorRole != string(domain.RoleAdmin) {
		return nil, apperr.Forbidden("only administrators can create users")
	}
	return &auth.UserResponse{ID: "u1", Email: req.Email, Role: req.Role}, nil
}

func (f *fakeAuth) Login(_ context.Context, req *auth.LoginRequest) (*auth.TokenResponse, error) {
	if req.Password != "password123" {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	return &auth.TokenResponse{AccessToken: "alice-token", RefreshToken: "r", ExpiresIn: 900, TokenType: "Bearer"}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, _ *auth.RefreshRequest) (*auth.TokenResponse, error) {
	return nil, apperr.Unauthenticated("invalid refresh token")
}

func (f *fakeAuth) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, ok := tokens[token]
	if !ok {
		return nil, apperr.Unauthenticated("invalid token")
	}
	return &claims, nil
}

func (f *fakeAuth) GetUser(_ context.Context, userID string) (*auth.UserResponse, error) {
	return &auth.UserResponse{ID: userID}, nil
}

// fakeTasks records the last request and fails with err when set.
type fakeTasks struct {
	err  error
	last any
}

func (f *fakeTasks) CreateTask(_ context.Context, req *task.CreateTaskRequest) (*task.TaskResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &task.TaskResponse{ID: "t1", OwnerID: req.ActorID, Title: req.Title, Status: "todo"}, nil
}

func (f *fakeTasks) GetTask(_ context.Context, req *task.GetTaskRequest) (*task.TaskResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &task.TaskResponse{ID: req.TaskID}, nil
}

func (f *fakeTasks) ListTasks(_ context.Context, req *task.ListTasksRequest) (*task.ListTasksResponse, error) {
	f.last = req
	return &task.ListTasksResponse{Tasks: []task.TaskResponse{}}, f.err
}

func (f *fakeTasks) UpdateTask(_ context.Context, req *task.UpdateTaskRequest) (*task.MutationResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &task.MutationResponse{Task: task.TaskResponse{ID: req.TaskID}}, nil
}

func (f *fakeTasks) CompleteTask(_ context.Context, req *task.CompleteTaskRequest) (*task.MutationResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &task.MutationResponse{Task: task.TaskResponse{ID: req.TaskID, Status: "completed"}}, nil
}

func (f *fakeTasks) DeleteTask(_ context.Context, req *task.DeleteTaskRequest) error {
	f.last = req
	return f.err
}

func (f *fakeTasks) GetHistory(_ context.Context, req *task.GetHistoryRequest) (*task.HistoryResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &task.HistoryResponse{TaskID: req.TaskID}, nil
}

func (f *fakeTasks) GetKanban(_ context.Context, req *task.KanbanRequest) (*task.KanbanResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &task.KanbanResponse{}, nil
}

type fakeProjects struct {
	last any
}

func (f *fakeProjects) CreateProject(_ context.Context, req *project.CreateProjectRequest) (*project.ProjectResponse, error) {
	f.last = req
	return &project.ProjectResponse{ID: "p1", ManagerID: req.ActorID, Title: req.Title, Deadline: req.Deadline}, nil
}

func (f *fakeProjects) GetProject(_ context.Context, req *project.GetProjectRequest) (*project.ProjectResponse, error) {
	f.last = req
	return nil, apperr.NotFound("project %s not found", req.ProjectID)
}

func (f *fakeProjects) ListProjects(_ context.Context, req *project.ListProjectsRequest) (*project.ListProjectsResponse, error) {
	f.last = req
	return &project.ListProjectsResponse{Projects: []project.ProjectResponse{}}, nil
}

func (f *fakeProjects) UpdateProject(_ context.Context, req *project.UpdateProjectRequest) (*project.ProjectResponse, error) {
	f.last = req
	return &project.ProjectResponse{ID: req.ProjectID}, nil
}

func (f *fakeProjects) DeleteProject(_ context.Context, req *project.DeleteProjectRequest) error {
	f.last = req
	return apperr.Forbidden("not the project manager")
}

type testServer struct {
	app      *fiber.App
	auth     *fakeAuth
	tasks    *fakeTasks
	projects *fakeProjects
}

func setupServer(t *testing.T, limiter *ratelimit.Middleware) *testServer {
	t.Helper()
	s := &testServer{auth: &fakeAuth{}, tasks: &fakeTasks{}, projects: &fakeProjects{}}
	s.app = newApp(NewHandlers(s.auth, s.tasks, s.projects), s.auth, limiter)
	return s
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestAuthMiddleware(t *testing.T) {
	s := setupServer(t, nil)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", fiber.StatusUnauthorized, "Authorization header is required"},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized, "Invalid authorization header format"},
		{"unknown token", "Bearer forged", fiber.StatusUnauthorized, "Invalid or expired token"},
		{"valid token", "Bearer alice-token", fiber.StatusOK, `"tasks"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := s.app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, string(body), tt.body)
		})
	}
}

func TestPublicAuthRoutes(t *testing.T) {
	s := setupServer(t, nil)

	status, body := s.do(t, "POST", "/api/v1/auth/login", "", `{"email":"alice@example.com","password":"password123"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "alice-token")

	status, _ = s.do(t, "POST", "/api/v1/auth/login", "", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do(t, "POST", "/api/v1/auth/login", "", `{"email":"alice@example.com"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, "POST", "/api/v1/auth/register", "", `{"name":"Bob","email":"bob@example.com","password":"password123","role":"admin"}`)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Contains(t, body, `"role":"collaborator"`)

	status, _ = s.do(t, "POST", "/api/v1/auth/refresh", "", `{"refresh_token":"stale"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.NotFound("task t1 not found"), fiber.StatusNotFound, "not_found"},
		{apperr.Forbidden("NotAuthorized"), fiber.StatusForbidden, "forbidden"},
		{apperr.Unauthenticated("token expired"), fiber.StatusUnauthorized, "unauthorized"},
		{apperr.Invalid("title is required"), fiber.StatusBadRequest, "bad_request"},
		{apperr.Conflict("duplicate"), fiber.StatusConflict, "conflict"},
		{apperr.Persistence(errors.New("disk I/O error"), "failed to load task"), fiber.StatusInternalServerError, "internal_error"},
		{errors.New("nats: timeout"), fiber.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.err.Error(), func(t *testing.T) {
			s := setupServer(t, nil)
			s.tasks.err = tt.err

			status, body := s.do(t, "GET", "/api/v1/tasks/t1", "alice-token", "")
			assert.Equal(t, tt.status, status)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.Equal(t, tt.code, resp.Error)
			assert.NotContains(t, resp.Message, "disk I/O", "internal details must not leak")
		})
	}
}

func TestActorComesFromToken(t *testing.T) {
	s := setupServer(t, nil)

	status, _ := s.do(t, "POST", "/api/v1/tasks", "alice-token",
		`{"title":"Write report","actor_id":"root","actor_role":"admin","due_date":"2026-11-01T00:00:00Z"}`)
	require.Equal(t, fiber.StatusCreated, status)

	req, ok := s.tasks.last.(*task.CreateTaskRequest)
	require.True(t, ok)
	assert.Equal(t, "alice", req.ActorID)
	assert.Equal(t, string(domain.RoleCollaborator), req.ActorRole)
	assert.Equal(t, "Write report", req.Title)
	require.NotNil(t, req.DueDate)
	assert.True(t, req.DueDate.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)))
}

func TestTaskRoutes(t *testing.T) {
	s := setupServer(t, nil)

	status, body := s.do(t, "PATCH", "/api/v1/tasks/t1/complete", "alice-token", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"completed"`)

	status, _ = s.do(t, "PUT", "/api/v1/tasks/t1", "alice-token", `{"status":"pending","title":"Renamed"}`)
	assert.Equal(t, fiber.StatusOK, status)
	upd := s.tasks.last.(*task.UpdateTaskRequest)
	assert.Equal(t, "t1", upd.TaskID)
	require.NotNil(t, upd.Status)
	assert.Equal(t, "pending", *upd.Status)
	assert.Nil(t, upd.Description, "absent fields stay nil")

	status, _ = s.do(t, "PUT", "/api/v1/tasks/t1", "alice-token", `not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, "GET", "/api/v1/tasks/t1/history", "alice-token", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.IsType(t, &task.GetHistoryRequest{}, s.tasks.last)

	status, _ = s.do(t, "GET", "/api/v1/tasks/kanban", "alice-token", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.IsType(t, &task.KanbanRequest{}, s.tasks.last, "kanban must not be routed as a task id")

	status, _ = s.do(t, "GET", "/api/v1/tasks?search=report&status=todo&project_id=p1", "alice-token", "")
	assert.Equal(t, fiber.StatusOK, status)
	list := s.tasks.last.(*task.ListTasksRequest)
	assert.Equal(t, "report", list.Search)
	assert.Equal(t, "todo", list.Status)
	require.NotNil(t, list.ProjectID)
	assert.Equal(t, "p1", *list.ProjectID)

	status, _ = s.do(t, "DELETE", "/api/v1/tasks/t1", "alice-token", "")
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestUpdateTaskDueDate(t *testing.T) {
	s := setupServer(t, nil)

	status, _ := s.do(t, "PUT", "/api/v1/tasks/t1", "alice-token", `{"title":"Renamed","due_date":null}`)
	assert.Equal(t, fiber.StatusOK, status)
	upd := s.tasks.last.(*task.UpdateTaskRequest)
	assert.Nil(t, upd.DueDate, "null leaves the due date untouched")

	status, _ = s.do(t, "PUT", "/api/v1/tasks/t1", "alice-token", `{"due_date":"2026-06-01T12:00:00Z"}`)
	assert.Equal(t, fiber.StatusOK, status)
	upd = s.tasks.last.(*task.UpdateTaskRequest)
	require.NotNil(t, upd.DueDate)
	assert.Equal(t, 2026, upd.DueDate.Year())

	status, _ = s.do(t, "PUT", "/api/v1/tasks/t1", "alice-token", `{"clear_due_date":true}`)
	assert.Equal(t, fiber.StatusOK, status)
	upd = s.tasks.last.(*task.UpdateTaskRequest)
	require.NotNil(t, upd.DueDate)
	assert.True(t, upd.DueDate.IsZero(), "clearing sends the removal marker")

	s.tasks.last = nil
	status, _ = s.do(t, "PUT", "/api/v1/tasks/t1", "alice-token",
		`{"clear_due_date":true,"due_date":"2026-06-01T12:00:00Z"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Nil(t, s.tasks.last)
}

func TestProjectRoutes(t *testing.T) {
	s := setupServer(t, nil)

	status, body := s.do(t, "POST", "/api/v1/projects", "admin-token",
		`{"title":"Launch","description":"Q4 launch","deadline":"2026-12-01T00:00:00Z"}`)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Contains(t, body, `"manager_id":"root"`)

	status, _ = s.do(t, "GET", "/api/v1/projects/missing", "admin-token", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(t, "DELETE", "/api/v1/projects/p1", "alice-token", "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, "PUT", "/api/v1/projects/p1", "admin-token", `{"title":"Relaunch"}`)
	assert.Equal(t, fiber.StatusOK, status)
	upd := s.projects.last.(*project.UpdateProjectRequest)
	assert.Nil(t, upd.Deadline)
	require.NotNil(t, upd.Title)
	assert.Equal(t, "Relaunch", *upd.Title)
}

func TestCreateUserUsesCallerRole(t *testing.T) {
	s := setupServer(t, nil)

	body := `{"name":"Maria","email":"maria@example.com","password":"password123","role":"manager","actor_role":"admin"}`

	status, _ := s.do(t, "POST", "/api/v1/users", "alice-token", body)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, string(domain.RoleCollaborator), s.auth.created.ActorRole)

	status, _ = s.do(t, "POST", "/api/v1/users", "admin-token", body)
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestMe(t *testing.T) {
	s := setupServer(t, nil)

	status, body := s.do(t, "GET", "/api/v1/auth/me", "alice-token", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"id":"alice"`)

	status, _ = s.do(t, "GET", "/api/v1/auth/me", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestHealth(t *testing.T) {
	s := setupServer(t, nil)

	status, body := s.do(t, "GET", "/health", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"status":"healthy"`)
}

// allowN admits the first n requests per key.
type allowN struct {
	n    int
	seen map[string]int
}

func (l *allowN) Allow(_ context.Context, key string) (*ratelimit.Result, error) {
	l.seen[key]++
	allowed := l.seen[key] <= l.n
	return &ratelimit.Result{Allowed: allowed, ResetAt: time.Now().Add(time.Minute), RetryAfter: time.Second}, nil
}

func (l *allowN) Config() ratelimit.Config {
	return ratelimit.Config{RequestsPerWindow: l.n, WindowSize: time.Minute}
}

func TestRateLimitedRoutes(t *testing.T) {
	authLimit := &allowN{n: 1, seen: map[string]int{}}
	userLimit := &allowN{n: 2, seen: map[string]int{}}
	s := setupServer(t, ratelimit.NewMiddlewareWithLimiters(authLimit, userLimit))

	login := `{"email":"alice@example.com","password":"password123"}`
	status, _ := s.do(t, "POST", "/api/v1/auth/login", "", login)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(t, "POST", "/api/v1/auth/login", "", login)
	assert.Equal(t, fiber.StatusTooManyRequests, status)

	for i := 0; i < 2; i++ {
		status, _ = s.do(t, "GET", "/api/v1/tasks", "alice-token", "")
		assert.Equal(t, fiber.StatusOK, status)
	}
	status, _ = s.do(t, "GET", "/api/v1/tasks", "alice-token", "")
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, 3, userLimit.seen["alice"], "authenticated requests are keyed by user id")

	status, _ = s.do(t, "GET", "/api/v1/tasks", "admin-token", "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, "GET", "/health", "", "")
	assert.Equal(t, fiber.StatusOK, status)
}
