// Package api serves the task tracker over HTTP.
package api

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/oguarni/status-point/modules/auth"
	"github.com/oguarni/status-point/modules/project"
	"github.com/oguarni/status-point/modules/ratelimit"
	"github.com/oguarni/status-point/modules/task"
)

// APIModule is the HTTP API module.
type APIModule struct {
	addr     string
	app      *fiber.App
	limiter  *ratelimit.Middleware
	auth     auth.AuthPort
	tasks    task.TaskPort
	projects project.ProjectPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates an APIModule listening on addr.
func NewModule(addr string) *APIModule {
	return &APIModule{addr: addr}
}

// SetRateLimiter enables per-client rate limiting.
func (m *APIModule) SetRateLimiter(limiter *ratelimit.Middleware) {
	m.limiter = limiter
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "project"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.auth = auth.NewAuthAdapter(container)
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	case "project":
		m.projects = project.NewProjectAdapter(container)
	}
}

// Start builds the Fiber app and serves it in the background.
func (m *APIModule) Start(_ context.Context) error {
	if m.auth == nil || m.tasks == nil || m.projects == nil {
		return fmt.Errorf("api dependencies not set")
	}

	m.app = newApp(NewHandlers(m.auth, m.tasks, m.projects), m.auth, m.limiter)

	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", m.addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr":       m.addr,
			"rate_limit": m.limiter != nil,
		},
	}
}

// newApp wires middleware and routes. limiter may be nil.
func newApp(h *Handlers, authPort auth.AuthPort, limiter *ratelimit.Middleware) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(HealthResponse{
			Status:    "healthy",
			Module:    "api",
			RateLimit: limiter != nil,
		})
	})

	v1 := app.Group("/api/v1")

	public := func(handler fiber.Handler) []fiber.Handler {
		if limiter == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{limiter.AuthRateLimit(), handler}
	}

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", public(h.Register)...)
	authRoutes.Post("/login", public(h.Login)...)
	authRoutes.Post("/refresh", public(h.Refresh)...)

	protected := v1.Group("", AuthMiddleware(authPort))
	if limiter != nil {
		protected.Use(limiter.UserRateLimit())
	}

	protected.Get("/auth/me", h.Me)
	protected.Post("/users", h.CreateUser)

	protected.Get("/tasks", h.ListTasks)
	protected.Post("/tasks", h.CreateTask)
	protected.Get("/tasks/kanban", h.Kanban)
	protected.Get("/tasks/:id", h.GetTask)
	protected.Put("/tasks/:id", h.UpdateTask)
	protected.Delete("/tasks/:id", h.DeleteTask)
	protected.Patch("/tasks/:id/complete", h.CompleteTask)
	protected.Get("/tasks/:id/history", h.TaskHistory)

	protected.Get("/projects", h.ListProjects)
	protected.Post("/projects", h.CreateProject)
	protected.Get("/projects/:id", h.GetProject)
	protected.Put("/projects/:id", h.UpdateProject)
	protected.Delete("/projects/:id", h.DeleteProject)

	return app
}
