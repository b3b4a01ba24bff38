package task

import (
	"context"

	domain "github.com/oguarni/status-point/domain/task"
	"github.com/oguarni/status-point/modules/history"
	"gorm.io/gorm"
)

// Store binds the task and history repositories to one *gorm.DB, which is either
// the shared handle or a transaction.
type Store struct {
	db *gorm.DB
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a Store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Tasks() domain.Repository {
	return NewRepository(s.db)
}

func (s *Store) History() domain.HistoryRepository {
	return history.NewRepository(s.db)
}

// Atomic runs fn inside a database transaction.
func (s *Store) Atomic(ctx context.Context, fn func(domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
