package services

import (
	"context"
	"fmt"

	"issue-tracker/internal/models"
	"issue-tracker/internal/repositories"
)

type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

type UserServiceImpl struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) *UserServiceImpl {
	return &UserServiceImpl{users: users}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
