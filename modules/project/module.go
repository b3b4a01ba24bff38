// Package project manages projects and their deadlines.
package project

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/oguarni/status-point/events"
	"gorm.io/gorm"
)

// ProjectModule exposes project management as request-reply services.
type ProjectModule struct {
	service  *Service
	eventBus mono.EventBus
}

var _ mono.Module = (*ProjectModule)(nil)
var _ mono.ServiceProviderModule = (*ProjectModule)(nil)
var _ mono.EventEmitterModule = (*ProjectModule)(nil)

// NewModule creates a ProjectModule over the shared database.
func NewModule(db *gorm.DB) *ProjectModule {
	return &ProjectModule{
		service: NewService(NewRepository(db)),
	}
}

func (m *ProjectModule) Name() string {
	return "project"
}

func (m *ProjectModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *ProjectModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.ProjectCreatedV1.ToBase(),
		events.ProjectDeletedV1.ToBase(),
	}
}

func (m *ProjectModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-project", json.Unmarshal, json.Marshal, m.createProject,
	); err != nil {
		return fmt.Errorf("failed to register create-project service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-project", json.Unmarshal, json.Marshal, m.getProject,
	); err != nil {
		return fmt.Errorf("failed to register get-project service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-projects", json.Unmarshal, json.Marshal, m.listProjects,
	); err != nil {
		return fmt.Errorf("failed to register list-projects service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-project", json.Unmarshal, json.Marshal, m.updateProject,
	); err != nil {
		return fmt.Errorf("failed to register update-project service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-project", json.Unmarshal, json.Marshal, m.deleteProject,
	); err != nil {
		return fmt.Errorf("failed to register delete-project service: %w", err)
	}

	log.Printf("[project] Registered services: create-project, get-project, list-projects, update-project, delete-project")
	return nil
}

func (m *ProjectModule) Start(_ context.Context) error {
	if m.eventBus == nil {
		log.Println("[project] Warning: eventBus not set, events will not be published")
	}
	log.Println("[project] Module started")
	return nil
}

func (m *ProjectModule) Stop(_ context.Context) error {
	log.Println("[project] Module stopped")
	return nil
}
