package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/oguarni/status-point/domain/apperr"
)

// taskAdapter implements TaskPort over the task module's ServiceContainer.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a TaskPort for the container received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// call invokes a service and restores the error kind carried in the reply.
func (a *taskAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return apperr.Rebuild(err)
		}
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

func (a *taskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := a.call(ctx, "create-task", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) GetTask(ctx context.Context, req *GetTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := a.call(ctx, "get-task", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	var resp ListTasksResponse
	if err := a.call(ctx, "list-tasks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := a.call(ctx, "update-task", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) CompleteTask(ctx context.Context, req *CompleteTaskRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := a.call(ctx, "complete-task", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteTask deletes a task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, req *DeleteTaskRequest) error {
	var resp DeleteTaskResponse
	if err := a.call(ctx, "delete-task", req, &resp); err != nil {
		return err
	}
	if !resp.Deleted {
		return apperr.NotFound("task %s not found", req.TaskID)
	}
	return nil
}

func (a *taskAdapter) GetHistory(ctx context.Context, req *GetHistoryRequest) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := a.call(ctx, "get-task-history", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) GetKanban(ctx context.Context, req *KanbanRequest) (*KanbanResponse, error) {
	var resp KanbanResponse
	if err := a.call(ctx, "get-kanban", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
