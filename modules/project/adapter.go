package project

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/oguarni/status-point/domain/apperr"
)

type projectAdapter struct {
	container mono.ServiceContainer
}

// NewProjectAdapter creates a ProjectPort for the container received via SetDependencyServiceContainer.
func NewProjectAdapter(container mono.ServiceContainer) ProjectPort {
	if container == nil {
		panic("project adapter requires non-nil ServiceContainer")
	}
	return &projectAdapter{container: container}
}

func (a *projectAdapter) call(ctx context.Context, service string, req, resp any) error {
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

func (a *projectAdapter) CreateProject(ctx context.Context, req *CreateProjectRequest) (*ProjectResponse, error) {
	var resp ProjectResponse
	if err := a.call(ctx, "create-project", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *projectAdapter) GetProject(ctx context.Context, req *GetProjectRequest) (*ProjectResponse, error) {
	var resp ProjectResponse
	if err := a.call(ctx, "get-project", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *projectAdapter) ListProjects(ctx context.Context, req *ListProjectsRequest) (*ListProjectsResponse, error) {
	var resp ListProjectsResponse
	if err := a.call(ctx, "list-projects", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *projectAdapter) UpdateProject(ctx context.Context, req *UpdateProjectRequest) (*ProjectResponse, error) {
	var resp ProjectResponse
	if err := a.call(ctx, "update-project", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *projectAdapter) DeleteProject(ctx context.Context, req *DeleteProjectRequest) error {
	var resp DeleteProjectResponse
	if err := a.call(ctx, "delete-project", req, &resp); err != nil {
		return err
	}
	if !resp.Deleted {
		return apperr.NotFound("project %s not found", req.ProjectID)
	}
	return nil
}
