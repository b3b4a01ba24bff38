// Status Point - a task and project tracker built as a modular monolith.
//
// Modules:
// - storage: SQLite database shared by the domain modules
// - auth: registration, login and JWT validation
// - task: task lifecycle, status history and Kanban board
// - project: projects and their deadlines
// - notification: user notices derived from task and project events
// - cache: optional Redis connection for Kanban caching and rate limiting
// - api: Fiber HTTP server
package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/oguarni/status-point/config"
	"github.com/oguarni/status-point/modules/api"
	"github.com/oguarni/status-point/modules/auth"
	"github.com/oguarni/status-point/modules/cache"
	"github.com/oguarni/status-point/modules/notification"
	"github.com/oguarni/status-point/modules/project"
	"github.com/oguarni/status-point/modules/ratelimit"
	"github.com/oguarni/status-point/modules/storage"
	"github.com/oguarni/status-point/modules/task"
)

func main() {
	log.Println("=== Status Point - Task and Project Tracker ===")

	cfg := config.Load()

	log.Printf("Configuration:")
	log.Printf("  HTTP Address: %s", cfg.HTTPAddr)
	log.Printf("  Database: %s", cfg.DBPath)
	if cfg.RedisEnabled() {
		log.Printf("  Redis Address: %s", cfg.RedisAddr)
	} else {
		log.Printf("  Redis: disabled (set REDIS_ADDR to enable caching and rate limiting)")
	}

	db, err := storage.Open(storage.Config{Path: cfg.DBPath, Debug: cfg.DBDebug})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	taskModule := task.NewModule(db)
	apiModule := api.NewModule(cfg.HTTPAddr)

	if cfg.RedisEnabled() {
		cacheModule := cache.NewModule(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "status-point:",
			TTL:      cfg.CacheTTL,
		})
		taskModule.SetCache(cacheModule.Cache())
		apiModule.SetRateLimiter(ratelimit.NewMiddleware(
			cacheModule.Client(),
			ratelimit.DefaultMiddlewareConfig(cfg.RateLimitRequests, cfg.RateLimitWindow),
		))
		app.Register(cacheModule)
	}

	// Order: independent modules first, then modules with dependencies
	app.Register(storage.NewModule(db, cfg.DBPath))
	app.Register(auth.NewModule(db, auth.Config{
		JWT: auth.JWTConfig{
			SecretKey:            cfg.JWTSecretKey,
			AccessTokenDuration:  cfg.JWTAccessTTL,
			RefreshTokenDuration: cfg.JWTRefreshTTL,
			Issuer:               cfg.JWTIssuer,
		},
		AdminName:     cfg.AdminName,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}))
	app.Register(notification.NewModule())
	app.Register(taskModule)
	app.Register(project.NewModule(db))
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Roles:")
	log.Println("  - admin: full access, creates users with any role")
	log.Println("  - manager: creates and manages own projects")
	log.Println("  - collaborator: manages own tasks")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost%s):", cfg.HTTPAddr)
	log.Println("  POST   /api/v1/auth/register        - Register (collaborator)")
	log.Println("  POST   /api/v1/auth/login           - Login")
	log.Println("  POST   /api/v1/auth/refresh         - Refresh tokens")
	log.Println("  GET    /api/v1/auth/me              - Current user")
	log.Println("  POST   /api/v1/users                - Create a user with a role (admin)")
	log.Println("  GET    /api/v1/tasks                - List own tasks")
	log.Println("  POST   /api/v1/tasks                - Create a task")
	log.Println("  GET    /api/v1/tasks/kanban         - Kanban board")
	log.Println("  GET    /api/v1/tasks/:id            - Get a task")
	log.Println("  PUT    /api/v1/tasks/:id            - Update a task")
	log.Println("  PATCH  /api/v1/tasks/:id/complete   - Complete a task")
	log.Println("  DELETE /api/v1/tasks/:id            - Delete a task")
	log.Println("  GET    /api/v1/tasks/:id/history    - Status history")
	log.Println("  GET    /api/v1/projects             - List managed projects")
	log.Println("  POST   /api/v1/projects             - Create a project")
	log.Println("  GET    /api/v1/projects/:id         - Get a project")
	log.Println("  PUT    /api/v1/projects/:id         - Update a project")
	log.Println("  DELETE /api/v1/projects/:id         - Delete a project and its tasks")
	log.Println("  GET    /health                      - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
