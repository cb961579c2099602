package model

import (
	"time"
)

// StatusCreated is the status every new task starts in.
const StatusCreated = "created"

type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Status      string     `gorm:"not null;default:'created'" json:"status"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Users []User `gorm:"many2many:users_tasks" json:"users,omitempty"`
}

// UserTask is the assignment row between a user and a task. The composite
// primary key is the uniqueness constraint: a pair can exist at most once,
// and a concurrent duplicate insert fails at the storage layer.
type UserTask struct {
	UserID uint `gorm:"primaryKey" json:"user_id"`
	TaskID uint `gorm:"primaryKey" json:"task_id"`
}

func (UserTask) TableName() string {
	return "users_tasks"
}
