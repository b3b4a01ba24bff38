package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/oguarni/status-point/events"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// BoardCache stores rendered Kanban boards.
type BoardCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

// TaskModule exposes the task lifecycle as request-reply services and emits task events.
type TaskModule struct {
	service  *Service
	eventBus mono.EventBus
	cache    BoardCache
	sfGroup  singleflight.Group
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.EventConsumerModule = (*TaskModule)(nil)

// NewModule creates a TaskModule over the shared database.
func NewModule(db *gorm.DB) *TaskModule {
	return &TaskModule{
		service: NewService(NewStore(db)),
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

// SetCache enables cache-aside Kanban boards. Without it boards are always loaded from the database.
func (m *TaskModule) SetCache(c BoardCache) {
	m.cache = c
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskStatusChangedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "complete-task", json.Unmarshal, json.Marshal, m.completeTask,
	); err != nil {
		return fmt.Errorf("failed to register complete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task-history", json.Unmarshal, json.Marshal, m.getHistory,
	); err != nil {
		return fmt.Errorf("failed to register get-task-history service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-kanban", json.Unmarshal, json.Marshal, m.getKanban,
	); err != nil {
		return fmt.Errorf("failed to register get-kanban service: %w", err)
	}

	log.Printf("[task] Registered services: create-task, get-task, list-tasks, update-task, complete-task, delete-task, get-task-history, get-kanban")
	return nil
}

// RegisterEventConsumers subscribes to project deletions, which remove tasks
// outside this module.
func (m *TaskModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.ProjectDeletedV1, m.handleProjectDeleted, m); err != nil {
		return fmt.Errorf("failed to register ProjectDeleted consumer: %w", err)
	}
	log.Printf("[task] Registered event consumers: ProjectDeleted")
	return nil
}

func (m *TaskModule) Start(_ context.Context) error {
	if m.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	if m.cache == nil {
		log.Println("[task] Kanban cache disabled")
	}
	log.Println("[task] Module started")
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	log.Println("[task] Module stopped")
	return nil
}
