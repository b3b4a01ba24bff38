package history

import (
	"context"
	"fmt"
	"time"

	domain "github.com/oguarni/status-point/domain/task"
)

// Recorder appends status transitions and reads them back.
type Recorder struct {
	repo domain.HistoryRepository
	now  func() time.Time
}

// NewRecorder creates a Recorder writing to repo.
func NewRecorder(repo domain.HistoryRepository) *Recorder {
	return NewRecorderWithClock(repo, time.Now)
}

// NewRecorderWithClock creates a Recorder that timestamps records with now.
func NewRecorderWithClock(repo domain.HistoryRepository, now func() time.Time) *Recorder {
	return &Recorder{repo: repo, now: now}
}

// Record appends one transition from -> to made by actorID.
// A transition to the same status is not a transition: nothing is written and
// the returned record is nil.
func (r *Recorder) Record(ctx context.Context, taskID, actorID string, from *domain.Status, to domain.Status) (*domain.History, error) {
	if from != nil && *from == to {
		return nil, nil
	}
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, to)
	}

	h := &domain.History{
		TaskID:         taskID,
		UserID:         actorID,
		PreviousStatus: from,
		NewStatus:      to,
		CreatedAt:      r.now(),
	}
	if err := r.repo.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to record status change: %w", err)
	}
	return h, nil
}

// List returns the transitions of a task, newest first.
func (r *Recorder) List(ctx context.Context, taskID string) ([]domain.History, error) {
	records, err := r.repo.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return records, nil
}
