package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
	"tasktracker/internal/ws"
)

// Assignment conflicts carry the exact reason back to the caller.
var (
	ErrAlreadyAssigned = errors.New("User is already assigned")
	ErrNotAssigned     = errors.New("User is not assigned")

	// ErrCompletedBeforeCreated rejects updates that would put completion
	// before creation.
	ErrCompletedBeforeCreated = errors.New("completed_at must not precede created_at")
)

// Broadcaster fans a mutation event out to live observers.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// TaskService drives task lifecycle and assignment changes, each inside one
// unit of work, and notifies observers after a successful commit.
type TaskService struct {
	gateway *repository.Gateway
	ws      Broadcaster
	log     *logrus.Logger
}

func NewTaskService(gateway *repository.Gateway, broadcaster Broadcaster, log *logrus.Logger) *TaskService {
	return &TaskService{gateway: gateway, ws: broadcaster, log: log}
}

// GetTasks returns every task as a flat list, relations not hydrated.
func (s *TaskService) GetTasks(ctx context.Context) ([]model.Task, error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	return uow.Tasks.FindAll(ctx)
}

// GetTask returns the unique task matching the filters, users hydrated.
func (s *TaskService) GetTask(ctx context.Context, filters map[string]any) (*model.Task, error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	return uow.Tasks.FindOne(ctx, filters)
}

func (s *TaskService) CreateTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	if task.Status == "" {
		task.Status = model.StatusCreated
	}

	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	created, err := uow.Tasks.Add(ctx, task)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.ws.Broadcast(ws.Event{Event: ws.EventTaskCreated, Task: created})
	return created, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID uint, fields map[string]any) (*model.Task, error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	updated, err := uow.Tasks.UpdateOne(ctx, taskID, fields)
	if err != nil {
		return nil, err
	}
	if updated.CompletedAt != nil && updated.CompletedAt.Before(updated.CreatedAt) {
		return nil, ErrCompletedBeforeCreated
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.ws.Broadcast(ws.Event{Event: ws.EventTaskUpdated, Task: updated})
	return updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, taskID uint) (*model.Task, error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	deleted, err := uow.Tasks.RemoveOne(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.ws.Broadcast(ws.Event{Event: ws.EventTaskDeleted, Task: deleted})
	return deleted, nil
}

// Assign adds the user to the task's collection. A pair that already exists
// is a conflict, never silently accepted; the join table's primary key backs
// the check under concurrency.
func (s *TaskService) Assign(ctx context.Context, taskID, userID uint) (*model.Task, error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := uow.Tasks.FindOne(ctx, map[string]any{"id": taskID}); err != nil {
		return nil, err
	}
	if _, err := uow.Users.FindOne(ctx, map[string]any{"id": userID}); err != nil {
		return nil, err
	}

	assigned, err := uow.Tasks.IsAssigned(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if assigned {
		return nil, ErrAlreadyAssigned
	}

	if err := uow.Tasks.AssignUser(ctx, taskID, userID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyAssigned
		}
		return nil, err
	}

	task, err := uow.Tasks.FindOne(ctx, map[string]any{"id": taskID})
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.ws.Broadcast(ws.Event{Event: ws.EventTaskUpdated, Task: task})
	return task, nil
}

// Unassign removes the user from the task's collection, failing when the
// pair does not exist.
func (s *TaskService) Unassign(ctx context.Context, taskID, userID uint) (*model.Task, error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := uow.Tasks.FindOne(ctx, map[string]any{"id": taskID}); err != nil {
		return nil, err
	}
	if _, err := uow.Users.FindOne(ctx, map[string]any{"id": userID}); err != nil {
		return nil, err
	}

	if err := uow.Tasks.UnassignUser(ctx, taskID, userID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrNotAssigned
		}
		return nil, err
	}

	task, err := uow.Tasks.FindOne(ctx, map[string]any{"id": taskID})
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.ws.Broadcast(ws.Event{Event: ws.EventTaskUpdated, Task: task})
	return task, nil
}
