package model

import (
	"github.com/lib/pq"
)

// Role names understood by the authorization engine.
const (
	RoleUser  = "user"  // default role, self-service reads only
	RoleAdmin = "admin" // full access to every operation
)

type User struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	Username string         `gorm:"uniqueIndex;not null" json:"username"`
	Password string         `gorm:"not null" json:"-"`
	Roles    pq.StringArray `gorm:"type:text[];not null" json:"roles"`

	Tasks []Task `gorm:"many2many:users_tasks" json:"tasks,omitempty"`
}
