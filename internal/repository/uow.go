package repository

import (
	"context"

	"gorm.io/gorm"
)

// Gateway opens transaction-scoped units of work over one database handle.
type Gateway struct {
	db *gorm.DB
}

func NewGateway(db *gorm.DB) *Gateway {
	return &Gateway{db: db}
}

// Begin opens a transaction and returns a unit of work whose repositories
// all share it. Callers must defer Rollback immediately and call Commit
// explicitly; nothing is durable until Commit.
func (g *Gateway) Begin(ctx context.Context) (*UnitOfWork, error) {
	tx := g.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &UnitOfWork{
		tx:    tx,
		Users: NewUserRepository(tx),
		Tasks: NewTaskRepository(tx),
	}, nil
}

// UnitOfWork is one open transaction with one repository per entity type
// bound to it. Exactly one of Commit or Rollback takes effect.
type UnitOfWork struct {
	tx       *gorm.DB
	finished bool

	Users *UserRepository
	Tasks *TaskRepository
}

// Commit durably applies every write made in the scope.
func (u *UnitOfWork) Commit() error {
	if u.finished {
		return nil
	}
	u.finished = true
	return u.tx.Commit().Error
}

// Rollback discards the scope's writes. It is a no-op after Commit, so it is
// safe to defer unconditionally; an abandoned scope always rolls back.
func (u *UnitOfWork) Rollback() error {
	if u.finished {
		return nil
	}
	u.finished = true
	return u.tx.Rollback().Error
}
