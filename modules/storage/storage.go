// Package storage opens the shared SQLite database and owns its schema.
package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/oguarni/status-point/domain/project"
	"github.com/oguarni/status-point/domain/task"
	"github.com/oguarni/status-point/domain/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config selects the database file and log verbosity.
type Config struct {
	Path  string
	Debug bool
}

// Open connects to SQLite and migrates the schema.
//
// The pool is capped at a single connection: SQLite allows one writer at a time,
// so this serializes transactions, and ":memory:" databases stay on one connection.
func Open(cfg Config) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table and rewrites legacy task statuses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&user.User{}, &project.Project{}, &task.Task{}, &task.History{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	n, err := NormalizeLegacyStatuses(db)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[storage] Migrated %d task status values: %s -> %s", n, task.LegacyStatusPending, task.StatusTodo)
	}
	return nil
}

// NormalizeLegacyStatuses maps the two-state "pending" status to todo in tasks and history.
func NormalizeLegacyStatuses(db *gorm.DB) (int64, error) {
	var migrated int64
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&task.Task{}).
			Where("status = ?", task.LegacyStatusPending).
			Update("status", task.StatusTodo)
		if res.Error != nil {
			return fmt.Errorf("failed to migrate task statuses: %w", res.Error)
		}
		migrated = res.RowsAffected

		if err := tx.Model(&task.History{}).
			Where("previous_status = ?", task.LegacyStatusPending).
			Update("previous_status", task.StatusTodo).Error; err != nil {
			return fmt.Errorf("failed to migrate history statuses: %w", err)
		}
		if err := tx.Model(&task.History{}).
			Where("new_status = ?", task.LegacyStatusPending).
			Update("new_status", task.StatusTodo).Error; err != nil {
			return fmt.Errorf("failed to migrate history statuses: %w", err)
		}
		return nil
	})
	return migrated, err
}

// StorageModule ties the database lifetime to the application.
type StorageModule struct {
	db   *gorm.DB
	path string
}

// Compile-time interface checks.
var _ mono.Module = (*StorageModule)(nil)
var _ mono.HealthCheckableModule = (*StorageModule)(nil)

// NewModule wraps an opened database.
func NewModule(db *gorm.DB, path string) *StorageModule {
	return &StorageModule{db: db, path: path}
}

// Name returns the module name.
func (m *StorageModule) Name() string {
	return "storage"
}

// DB returns the shared database handle.
func (m *StorageModule) DB() *gorm.DB {
	return m.db
}

// Start verifies the connection.
func (m *StorageModule) Start(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Printf("[storage] Module started (database: %s)", m.path)
	return nil
}

// Stop closes the database.
func (m *StorageModule) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[storage] Module stopped")
	return nil
}

// Health performs a health check on the database.
func (m *StorageModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.path,
		},
	}
}
