package service

import (
	"context"
	"errors"
	"time"

	"tasktracker/internal/auth"
	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

var ErrWrongPassword = errors.New("Incorrect password")

// UserService owns user lifecycle and login. The plaintext credential is
// hashed before it reaches a repository and is never used as a lookup key:
// login resolves the user by username alone and verifies the hash after.
type UserService struct {
	gateway   *repository.Gateway
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserService(gateway *repository.Gateway, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{gateway: gateway, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *UserService) Register(ctx context.Context, username, password string, roles []string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []string{model.RoleUser}
	}

	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	user, err := uow.Users.Add(ctx, &model.User{
		Username: username,
		Password: hash,
		Roles:    roles,
	})
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer uow.Rollback()

	user, err := uow.Users.FindOne(ctx, map[string]any{"username": username})
	if err != nil {
		return "", err
	}
	if !auth.VerifyPassword(password, user.Password) {
		return "", ErrWrongPassword
	}
	return auth.GenerateToken(s.jwtSecret, user.ID, user.Roles, s.tokenTTL)
}

// GetUsers returns every user as a flat list, relations not hydrated.
func (s *UserService) GetUsers(ctx context.Context) ([]model.User, error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	return uow.Users.FindAll(ctx)
}

// GetUser returns the unique user matching the filters, tasks hydrated.
func (s *UserService) GetUser(ctx context.Context, filters map[string]any) (*model.User, error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	return uow.Users.FindOne(ctx, filters)
}

func (s *UserService) UpdateUser(ctx context.Context, userID uint, fields map[string]any) (*model.User, error) {
	if plain, ok := fields["password"].(string); ok {
		hash, err := auth.HashPassword(plain)
		if err != nil {
			return nil, err
		}
		fields["password"] = hash
	}

	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	user, err := uow.Users.UpdateOne(ctx, userID, fields)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID uint) (*model.User, error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	user, err := uow.Users.RemoveOne(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}
