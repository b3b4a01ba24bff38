// Package notification turns task and project events into user-facing notices.
package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/oguarni/status-point/events"
)

// maxNotifications bounds the in-memory log; the oldest entries are dropped first.
const maxNotifications = 1000

// Notification is one notice addressed to a user.
type Notification struct {
	Recipient string    `json:"recipient"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationModule consumes domain events and records the notices they produce.
type NotificationModule struct {
	notifications []Notification
	mu            sync.RWMutex
	now           func() time.Time
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)

func NewModule() *NotificationModule {
	return &NotificationModule{
		notifications: make([]Notification, 0),
		now:           time.Now,
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskStatusChangedV1, m.handleTaskStatusChanged, m); err != nil {
		return fmt.Errorf("failed to register TaskStatusChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.ProjectCreatedV1, m.handleProjectCreated, m); err != nil {
		return fmt.Errorf("failed to register ProjectCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.ProjectDeletedV1, m.handleProjectDeleted, m); err != nil {
		return fmt.Errorf("failed to register ProjectDeleted consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: TaskCreated, TaskStatusChanged, TaskDeleted, ProjectCreated, ProjectDeleted")
	return nil
}

func (m *NotificationModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task created: %s - %s", event.TaskID, event.Title)
	m.record(event.OwnerID, "task_created", event.TaskID, fmt.Sprintf("Task '%s' created", event.Title))
	return nil
}

// handleTaskStatusChanged tells the owner when someone else moved their task.
func (m *NotificationModule) handleTaskStatusChanged(_ context.Context, event events.TaskStatusChangedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task %s: %s -> %s by user %s", event.TaskID, event.PreviousStatus, event.NewStatus, event.ChangedBy)

	kind := "task_status_changed"
	switch {
	case event.Completion:
		kind = "task_completed"
	case event.Reopening:
		kind = "task_reopened"
	}

	if event.ChangedBy != event.OwnerID {
		m.record(event.OwnerID, kind, event.TaskID,
			fmt.Sprintf("User %s moved your task from %s to %s", event.ChangedBy, event.PreviousStatus, event.NewStatus))
	}
	return nil
}

func (m *NotificationModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task deleted: %s by user %s", event.TaskID, event.UserID)
	m.record(event.UserID, "task_deleted", event.TaskID, fmt.Sprintf("Task %s deleted", event.TaskID))
	return nil
}

func (m *NotificationModule) handleProjectCreated(_ context.Context, event events.ProjectCreatedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Project created: %s - %s", event.ProjectID, event.Title)
	m.record(event.ManagerID, "project_created", event.ProjectID,
		fmt.Sprintf("Project '%s' created, due %s", event.Title, event.Deadline.Format(time.DateOnly)))
	return nil
}

func (m *NotificationModule) handleProjectDeleted(_ context.Context, event events.ProjectDeletedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Project deleted: %s by user %s", event.ProjectID, event.UserID)
	m.record(event.UserID, "project_deleted", event.ProjectID, fmt.Sprintf("Project %s and its tasks deleted", event.ProjectID))
	return nil
}

func (m *NotificationModule) record(recipient, kind, subject, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, Notification{
		Recipient: recipient,
		Type:      kind,
		Subject:   subject,
		Message:   message,
		Timestamp: m.now(),
	})
	if over := len(m.notifications) - maxNotifications; over > 0 {
		m.notifications = append(m.notifications[:0:0], m.notifications[over:]...)
	}
}

// For returns the notices addressed to recipient, oldest first.
func (m *NotificationModule) For(recipient string) []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Notification
	for _, n := range m.notifications {
		if n.Recipient == recipient {
			result = append(result, n)
		}
	}
	return result
}

func (m *NotificationModule) Start(_ context.Context) error {
	log.Println("[notification] Module started - listening for task and project events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	log.Println("[notification] Module stopped")
	return nil
}
