package history

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/oguarni/status-point/domain/task"
	"github.com/oguarni/status-point/modules/storage"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := storage.Open(storage.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func statusPtr(s domain.Status) *domain.Status { return &s }

func TestRecorder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("same status writes nothing", func(t *testing.T) {
		rec := NewRecorder(NewRepository(db))

		h, err := rec.Record(ctx, "t-same", "u1", statusPtr(domain.StatusCompleted), domain.StatusCompleted)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h != nil {
			t.Fatal("expected no record for a no-op transition")
		}

		records, err := rec.List(ctx, "t-same")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected 0 records, got %d", len(records))
		}
	})

	t.Run("first transition may have no previous status", func(t *testing.T) {
		rec := NewRecorder(NewRepository(db))

		h, err := rec.Record(ctx, "t-first", "u1", nil, domain.StatusTodo)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h == nil || h.ID == 0 {
			t.Fatal("expected a persisted record")
		}
		if h.PreviousStatus != nil {
			t.Errorf("expected nil previous status, got %v", *h.PreviousStatus)
		}
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		rec := NewRecorder(NewRepository(db))

		_, err := rec.Record(ctx, "t-bad", "u1", statusPtr(domain.StatusTodo), domain.Status("done"))
		if !errors.Is(err, domain.ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus, got %v", err)
		}
	})

	t.Run("list is newest first", func(t *testing.T) {
		rec := NewRecorder(NewRepository(db))
		base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
		tick := 0
		rec.now = func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		}

		steps := []struct{ from, to domain.Status }{
			{domain.StatusTodo, domain.StatusInProgress},
			{domain.StatusInProgress, domain.StatusBlocked},
			{domain.StatusBlocked, domain.StatusCompleted},
		}
		for _, s := range steps {
			if _, err := rec.Record(ctx, "t-order", "u1", statusPtr(s.from), s.to); err != nil {
				t.Fatalf("Record failed: %v", err)
			}
		}

		records, err := rec.List(ctx, "t-order")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		want := []domain.Status{domain.StatusCompleted, domain.StatusBlocked, domain.StatusInProgress}
		for i, r := range records {
			if r.NewStatus != want[i] {
				t.Errorf("record %d: expected %s, got %s", i, want[i], r.NewStatus)
			}
			if i > 0 && r.CreatedAt.After(records[i-1].CreatedAt) {
				t.Errorf("record %d is newer than record %d", i, i-1)
			}
		}
	})

	t.Run("identical timestamps keep insertion order reversed", func(t *testing.T) {
		rec := NewRecorder(NewRepository(db))
		fixed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		rec.now = func() time.Time { return fixed }

		if _, err := rec.Record(ctx, "t-tie", "u1", statusPtr(domain.StatusTodo), domain.StatusCompleted); err != nil {
			t.Fatal(err)
		}
		if _, err := rec.Record(ctx, "t-tie", "u2", statusPtr(domain.StatusCompleted), domain.StatusTodo); err != nil {
			t.Fatal(err)
		}

		records, err := rec.List(ctx, "t-tie")
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 2 || records[0].UserID != "u2" {
			t.Errorf("expected latest insert first, got %+v", records)
		}
	})
}
