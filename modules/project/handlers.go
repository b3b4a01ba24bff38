package project

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
	"github.com/oguarni/status-point/domain/apperr"
	domain "github.com/oguarni/status-point/domain/project"
	"github.com/oguarni/status-point/domain/user"
	"github.com/oguarni/status-point/events"
)

func (m *ProjectModule) createProject(ctx context.Context, req CreateProjectRequest, _ *mono.Msg) (ProjectResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return ProjectResponse{}, err
	}

	p, err := m.service.Create(ctx, actor, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return ProjectResponse{}, err
	}
	log.Printf("[project] Created project %s managed by %s", p.ID, p.ManagerID)

	if m.eventBus != nil {
		event := events.ProjectCreatedEvent{
			ProjectID: p.ID,
			Title:     p.Title,
			ManagerID: p.ManagerID,
			Deadline:  p.Deadline,
		}
		if err := events.ProjectCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[project] Warning: failed to publish ProjectCreated event for project %s: %v", p.ID, err)
		}
	}

	return toProjectResponse(p, m.service.now()), nil
}

func (m *ProjectModule) getProject(ctx context.Context, req GetProjectRequest, _ *mono.Msg) (ProjectResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return ProjectResponse{}, err
	}
	p, err := m.service.Get(ctx, actor, req.ProjectID)
	if err != nil {
		return ProjectResponse{}, err
	}
	return toProjectResponse(p, m.service.now()), nil
}

func (m *ProjectModule) listProjects(ctx context.Context, req ListProjectsRequest, _ *mono.Msg) (ListProjectsResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return ListProjectsResponse{}, err
	}
	projects, err := m.service.List(ctx, actor)
	if err != nil {
		return ListProjectsResponse{}, err
	}

	now := m.service.now()
	resp := ListProjectsResponse{Projects: make([]ProjectResponse, 0, len(projects)), Total: len(projects)}
	for i := range projects {
		resp.Projects = append(resp.Projects, toProjectResponse(&projects[i], now))
	}
	return resp, nil
}

func (m *ProjectModule) updateProject(ctx context.Context, req UpdateProjectRequest, _ *mono.Msg) (ProjectResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return ProjectResponse{}, err
	}
	p, err := m.service.Update(ctx, actor, req.ProjectID, domain.Patch{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return ProjectResponse{}, err
	}
	return toProjectResponse(p, m.service.now()), nil
}

func (m *ProjectModule) deleteProject(ctx context.Context, req DeleteProjectRequest, _ *mono.Msg) (DeleteProjectResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return DeleteProjectResponse{}, err
	}
	owners, err := m.service.Delete(ctx, actor, req.ProjectID)
	if err != nil {
		return DeleteProjectResponse{}, err
	}
	log.Printf("[project] Deleted project %s and the tasks of %d users", req.ProjectID, len(owners))

	if m.eventBus != nil {
		event := events.ProjectDeletedEvent{
			ProjectID:    req.ProjectID,
			UserID:       actor.ID,
			TaskOwnerIDs: owners,
			DeletedAt:    m.service.now(),
		}
		if err := events.ProjectDeletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[project] Warning: failed to publish ProjectDeleted event for project %s: %v", req.ProjectID, err)
		}
	}

	return DeleteProjectResponse{Deleted: true}, nil
}

func parseActor(ref ActorRef) (user.Actor, error) {
	if ref.ActorRole == "" {
		return user.Actor{ID: ref.ActorID}, nil
	}
	role, err := user.ParseRole(ref.ActorRole)
	if err != nil {
		return user.Actor{}, apperr.Forbidden("%s: %v", apperr.ReasonNotAuthorized, err)
	}
	return user.Actor{ID: ref.ActorID, Role: role}, nil
}
