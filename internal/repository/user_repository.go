package repository

import (
	"gorm.io/gorm"

	"tasktracker/internal/model"
)

// UserRepository hydrates the Tasks collection on single-entity reads and
// declares the password column sensitive, so a credential supplied as a
// filter is dropped before it can become a query predicate.
type UserRepository struct {
	*Repository[model.User]
}

func NewUserRepository(tx *gorm.DB) *UserRepository {
	return &UserRepository{NewRepository[model.User](tx, "Tasks", "password")}
}
