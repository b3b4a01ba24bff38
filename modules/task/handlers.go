package task

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-monolith/mono"
	"github.com/oguarni/status-point/domain/apperr"
	domain "github.com/oguarni/status-point/domain/task"
	"github.com/oguarni/status-point/domain/user"
	"github.com/oguarni/status-point/events"
)

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return TaskResponse{}, err
	}
	prio, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return TaskResponse{}, apperr.Invalid("%v", err)
	}

	t, err := m.service.Create(ctx, actor, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    prio,
		DueDate:     req.DueDate,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		return TaskResponse{}, err
	}
	log.Printf("[task] Created task %s for user %s", t.ID, t.OwnerID)

	m.invalidateBoard(ctx, t.OwnerID)
	if m.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			OwnerID:   t.OwnerID,
			ProjectID: t.ProjectID,
			CreatedAt: t.CreatedAt,
		}
		if err := events.TaskCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", t.ID, err)
		}
	}

	return toTaskResponse(t, m.service.now()), nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return TaskResponse{}, err
	}
	t, err := m.service.Get(ctx, actor, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t, m.service.now()), nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return ListTasksResponse{}, err
	}

	f := domain.Filters{Search: req.Search, ProjectID: req.ProjectID}
	if req.Status != "" {
		st, err := domain.ParseStatus(req.Status)
		if err != nil {
			return ListTasksResponse{}, apperr.Invalid("%v", err)
		}
		f.Status = &st
	}
	if req.Priority != "" {
		p, err := domain.ParsePriority(req.Priority)
		if err != nil {
			return ListTasksResponse{}, apperr.Invalid("%v", err)
		}
		f.Priority = &p
	}

	tasks, err := m.service.List(ctx, actor, f)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{
		Tasks: toTaskResponses(tasks, m.service.now()),
		Total: len(tasks),
	}, nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (MutationResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return MutationResponse{}, err
	}
	patch, err := req.toPatch()
	if err != nil {
		return MutationResponse{}, err
	}

	t, rec, err := m.service.Update(ctx, actor, req.TaskID, patch)
	if err != nil {
		return MutationResponse{}, err
	}
	m.afterMutation(ctx, t, rec)

	return MutationResponse{Task: toTaskResponse(t, m.service.now()), History: toHistoryEntry(rec)}, nil
}

// completeTask handles the complete-task service request.
func (m *TaskModule) completeTask(ctx context.Context, req CompleteTaskRequest, _ *mono.Msg) (MutationResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return MutationResponse{}, err
	}

	t, rec, err := m.service.Complete(ctx, actor, req.TaskID)
	if err != nil {
		return MutationResponse{}, err
	}
	m.afterMutation(ctx, t, rec)

	return MutationResponse{Task: toTaskResponse(t, m.service.now()), History: toHistoryEntry(rec)}, nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return DeleteTaskResponse{}, err
	}

	deleted, err := m.service.Delete(ctx, actor, req.TaskID)
	if err != nil {
		return DeleteTaskResponse{}, err
	}
	log.Printf("[task] Deleted task %s", req.TaskID)

	// only the owner can delete, so the actor's board is the affected one
	m.invalidateBoard(ctx, actor.ID)
	if m.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    req.TaskID,
			UserID:    actor.ID,
			DeletedAt: m.service.now(),
		}
		if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", req.TaskID, err)
		}
	}

	return DeleteTaskResponse{Deleted: deleted}, nil
}

// getHistory handles the get-task-history service request.
func (m *TaskModule) getHistory(ctx context.Context, req GetHistoryRequest, _ *mono.Msg) (HistoryResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return HistoryResponse{}, err
	}

	records, err := m.service.History(ctx, actor, req.TaskID)
	if err != nil {
		return HistoryResponse{}, err
	}

	resp := HistoryResponse{TaskID: req.TaskID, Entries: make([]HistoryEntry, 0, len(records))}
	for i := range records {
		resp.Entries = append(resp.Entries, *toHistoryEntry(&records[i]))
	}
	return resp, nil
}

// getKanban handles the get-kanban service request.
// Boards are served cache-aside when a cache is configured; concurrent misses
// for the same user share one database load.
func (m *TaskModule) getKanban(ctx context.Context, req KanbanRequest, _ *mono.Msg) (KanbanResponse, error) {
	actor, err := parseActor(req.ActorRef)
	if err != nil {
		return KanbanResponse{}, err
	}
	if actor.ID == "" {
		return KanbanResponse{}, apperr.Forbidden("%s: an authenticated user is required", apperr.ReasonNotAuthorized)
	}

	key := boardKey(actor.ID)
	if m.cache != nil {
		var cached KanbanResponse
		found, err := m.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[task] Cache error for board %s: %v", actor.ID, err)
		}
		if found {
			cached.markOverdue(m.service.now())
			return cached, nil
		}
	}

	// the load is shared by every waiter and outlives any one caller
	loadCtx := context.WithoutCancel(ctx)
	val, err, _ := m.sfGroup.Do(key, func() (any, error) {
		board, err := m.service.Kanban(loadCtx, actor)
		if err != nil {
			return nil, err
		}
		return toKanbanResponse(board, m.service.now()), nil
	})
	if err != nil {
		return KanbanResponse{}, err
	}
	resp := val.(KanbanResponse)

	if m.cache != nil {
		if err := m.cache.Set(ctx, key, resp); err != nil {
			log.Printf("[task] Warning: failed to cache board %s: %v", actor.ID, err)
		}
	}
	return resp, nil
}

// handleProjectDeleted drops the boards of users whose tasks went with the project.
func (m *TaskModule) handleProjectDeleted(ctx context.Context, event events.ProjectDeletedEvent, _ *mono.Msg) error {
	for _, ownerID := range event.TaskOwnerIDs {
		m.invalidateBoard(ctx, ownerID)
	}
	if len(event.TaskOwnerIDs) > 0 {
		log.Printf("[task] Invalidated %d boards after project %s was deleted", len(event.TaskOwnerIDs), event.ProjectID)
	}
	return nil
}

func (m *TaskModule) afterMutation(ctx context.Context, t *domain.Task, rec *domain.History) {
	m.invalidateBoard(ctx, t.OwnerID)
	if rec == nil || m.eventBus == nil {
		return
	}

	event := events.TaskStatusChangedEvent{
		TaskID:     t.ID,
		OwnerID:    t.OwnerID,
		ChangedBy:  rec.UserID,
		NewStatus:  string(rec.NewStatus),
		Completion: rec.IsCompletion(),
		Reopening:  rec.IsReopening(),
		ChangedAt:  rec.CreatedAt,
	}
	if rec.PreviousStatus != nil {
		event.PreviousStatus = string(*rec.PreviousStatus)
	}
	if err := events.TaskStatusChangedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskStatusChanged event for task %s: %v", t.ID, err)
	}
}

func (m *TaskModule) invalidateBoard(ctx context.Context, ownerID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, boardKey(ownerID)); err != nil {
		log.Printf("[task] Warning: failed to invalidate board %s: %v", ownerID, err)
	}
}

func boardKey(ownerID string) string {
	return "kanban:" + ownerID
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

func (req UpdateTaskRequest) toPatch() (domain.Patch, error) {
	p := domain.Patch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
	}
	if req.Status != nil {
		st, err := domain.ParseStatus(strings.TrimSpace(*req.Status))
		if err != nil {
			return domain.Patch{}, apperr.Invalid("%v", err)
		}
		p.Status = &st
	}
	if req.Priority != nil {
		prio, err := domain.ParsePriority(*req.Priority)
		if err != nil {
			return domain.Patch{}, apperr.Invalid("%v", err)
		}
		p.Priority = &prio
	}
	return p, nil
}

func toKanbanResponse(b Board, now time.Time) KanbanResponse {
	return KanbanResponse{
		Todo:       toTaskResponses(b[domain.StatusTodo], now),
		InProgress: toTaskResponses(b[domain.StatusInProgress], now),
		Completed:  toTaskResponses(b[domain.StatusCompleted], now),
		Blocked:    toTaskResponses(b[domain.StatusBlocked], now),
	}
}
