package task

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/oguarni/status-point/domain/apperr"
	"github.com/oguarni/status-point/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
		c.deletes = append(c.deletes, k)
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func setupModule(t *testing.T) (*TaskModule, *memoryCache) {
	t.Helper()
	svc, _ := setupService(t)
	m := &TaskModule{service: svc}
	c := newMemoryCache()
	m.SetCache(c)
	return m, c
}

func ref(actorID, role string) ActorRef {
	return ActorRef{ActorID: actorID, ActorRole: role}
}

func TestHandlersLifecycle(t *testing.T) {
	m, _ := setupModule(t)
	ctx := context.Background()

	created, err := m.createTask(ctx, CreateTaskRequest{ActorRef: ref("1", "colaborador"), Title: "Write report", Priority: "high"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "todo", created.Status)
	assert.Equal(t, "high", created.Priority)
	assert.True(t, created.IsStandalone)

	legacy := "pending"
	updated, err := m.updateTask(ctx, UpdateTaskRequest{ActorRef: ref("1", "collaborator"), TaskID: created.ID, Status: &legacy}, nil)
	require.NoError(t, err)
	assert.Equal(t, "todo", updated.Task.Status, "pending is accepted as todo")
	assert.Nil(t, updated.History)

	done, err := m.completeTask(ctx, CompleteTaskRequest{ActorRef: ref("3", "gestor"), TaskID: created.ID}, nil)
	require.NoError(t, err)
	require.NotNil(t, done.History)
	assert.True(t, done.History.IsCompletion)
	require.NotNil(t, done.History.PreviousStatus)
	assert.Equal(t, "todo", *done.History.PreviousStatus)

	hist, err := m.getHistory(ctx, GetHistoryRequest{ActorRef: ref("1", "collaborator"), TaskID: created.ID}, nil)
	require.NoError(t, err)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, "3", hist.Entries[0].UserID)

	_, err = m.deleteTask(ctx, DeleteTaskRequest{ActorRef: ref("3", "manager"), TaskID: created.ID}, nil)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	resp, err := m.deleteTask(ctx, DeleteTaskRequest{ActorRef: ref("1", "collaborator"), TaskID: created.ID}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Deleted)
}

func TestHandlersRejectBadInput(t *testing.T) {
	m, _ := setupModule(t)
	ctx := context.Background()

	_, err := m.createTask(ctx, CreateTaskRequest{ActorRef: ref("1", "superuser"), Title: "x"}, nil)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = m.createTask(ctx, CreateTaskRequest{ActorRef: ref("1", "collaborator"), Title: "x", Priority: "urgent"}, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	done := "done"
	_, err = m.updateTask(ctx, UpdateTaskRequest{ActorRef: ref("1", "collaborator"), TaskID: "any", Status: &done}, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = m.listTasks(ctx, ListTasksRequest{ActorRef: ref("1", "collaborator"), Status: "archived"}, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = m.getKanban(ctx, KanbanRequest{}, nil)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestKanbanCache(t *testing.T) {
	m, c := setupModule(t)
	ctx := context.Background()
	owner := ref("1", "collaborator")

	created, err := m.createTask(ctx, CreateTaskRequest{ActorRef: owner, Title: "cached"}, nil)
	require.NoError(t, err)

	board, err := m.getKanban(ctx, KanbanRequest{ActorRef: owner}, nil)
	require.NoError(t, err)
	assert.Len(t, board.Todo, 1)
	assert.NotNil(t, board.InProgress)
	assert.NotNil(t, board.Blocked)
	assert.True(t, c.has(boardKey("1")))

	// a manager completing the task invalidates the owner's board
	_, err = m.completeTask(ctx, CompleteTaskRequest{ActorRef: ref("3", "manager"), TaskID: created.ID}, nil)
	require.NoError(t, err)
	assert.False(t, c.has(boardKey("1")))

	board, err = m.getKanban(ctx, KanbanRequest{ActorRef: owner}, nil)
	require.NoError(t, err)
	assert.Empty(t, board.Todo)
	assert.Len(t, board.Completed, 1)
}

func TestProjectDeletionInvalidatesOwnerBoards(t *testing.T) {
	m, c := setupModule(t)
	ctx := context.Background()

	for _, owner := range []ActorRef{ref("1", "collaborator"), ref("2", "collaborator")} {
		_, err := m.createTask(ctx, CreateTaskRequest{ActorRef: owner, Title: "board"}, nil)
		require.NoError(t, err)
		_, err = m.getKanban(ctx, KanbanRequest{ActorRef: owner}, nil)
		require.NoError(t, err)
	}
	require.True(t, c.has(boardKey("1")))
	require.True(t, c.has(boardKey("2")))

	err := m.handleProjectDeleted(ctx, events.ProjectDeletedEvent{ProjectID: "p1", UserID: "3", TaskOwnerIDs: []string{"1"}}, nil)
	require.NoError(t, err)

	assert.False(t, c.has(boardKey("1")), "owner of deleted tasks gets a fresh board")
	assert.True(t, c.has(boardKey("2")))
}

func TestCachedBoardRecomputesOverdue(t *testing.T) {
	m, c := setupModule(t)
	ctx := context.Background()
	owner := ref("1", "collaborator")

	clock := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	m.service.now = func() time.Time { return clock }

	due := clock.Add(time.Hour)
	_, err := m.createTask(ctx, CreateTaskRequest{ActorRef: owner, Title: "due soon", DueDate: &due}, nil)
	require.NoError(t, err)

	board, err := m.getKanban(ctx, KanbanRequest{ActorRef: owner}, nil)
	require.NoError(t, err)
	require.Len(t, board.Todo, 1)
	assert.False(t, board.Todo[0].IsOverdue)
	require.True(t, c.has(boardKey("1")))

	clock = clock.Add(2 * time.Hour)
	board, err = m.getKanban(ctx, KanbanRequest{ActorRef: owner}, nil)
	require.NoError(t, err)
	require.Len(t, board.Todo, 1)
	assert.True(t, board.Todo[0].IsOverdue, "a cached board reflects the current time")
}

func TestKanbanLoadIgnoresCallerCancellation(t *testing.T) {
	m, _ := setupModule(t)
	owner := ref("1", "collaborator")

	_, err := m.createTask(context.Background(), CreateTaskRequest{ActorRef: owner, Title: "shared"}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	board, err := m.getKanban(ctx, KanbanRequest{ActorRef: owner}, nil)
	require.NoError(t, err)
	assert.Len(t, board.Todo, 1)
}

func TestListTasksFilters(t *testing.T) {
	m, _ := setupModule(t)
	ctx := context.Background()
	owner := ref("1", "collaborator")

	for _, title := range []string{"alpha", "beta", "gamma"} {
		_, err := m.createTask(ctx, CreateTaskRequest{ActorRef: owner, Title: title}, nil)
		require.NoError(t, err)
	}
	_, err := m.createTask(ctx, CreateTaskRequest{ActorRef: ref("2", "collaborator"), Title: "alpha"}, nil)
	require.NoError(t, err)

	all, err := m.listTasks(ctx, ListTasksRequest{ActorRef: owner}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	some, err := m.listTasks(ctx, ListTasksRequest{ActorRef: owner, Search: "alp", Status: "pending"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, some.Total)
	assert.Equal(t, "alpha", some.Tasks[0].Title)
}
