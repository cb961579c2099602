package repository

import (
	"context"

	"gorm.io/gorm"

	"tasktracker/internal/model"
)

// TaskRepository hydrates the Users collection on single-entity reads and
// carries the join-table primitives the assignment flow is built on.
type TaskRepository struct {
	*Repository[model.Task]
}

func NewTaskRepository(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{NewRepository[model.Task](tx, "Users")}
}

// IsAssigned reports whether the (user, task) pair exists.
func (r *TaskRepository) IsAssigned(ctx context.Context, taskID, userID uint) (bool, error) {
	var count int64
	err := r.tx.WithContext(ctx).Model(&model.UserTask{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AssignUser adds the assignment row. No ON CONFLICT clause: a duplicate
// insert must fail so repeated assigns are rejected, not absorbed.
func (r *TaskRepository) AssignUser(ctx context.Context, taskID, userID uint) error {
	err := r.tx.WithContext(ctx).Exec(
		"INSERT INTO users_tasks (user_id, task_id) VALUES (?, ?)",
		userID, taskID,
	).Error
	return translate(err)
}

// UnassignUser removes the assignment row, failing with ErrConflict when the
// pair does not exist.
func (r *TaskRepository) UnassignUser(ctx context.Context, taskID, userID uint) error {
	result := r.tx.WithContext(ctx).Exec(
		"DELETE FROM users_tasks WHERE user_id = ? AND task_id = ?",
		userID, taskID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
