package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/bookly/booklibrary-service/internal/model"
)

func (s *Service) CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	return s.repo.CreateUser(ctx, model.User{
		UserUid: uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
	})
}

func (s *Service) GetUser(ctx context.Context, userUid string) (model.User, error) {
	return s.repo.GetUser(ctx, userUid)
}

func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) UpdateUser(ctx context.Context, userUid string, req model.CreateUserRequest) (model.User, error) {
	return s.repo.UpdateUser(ctx, model.User{
		UserUid: userUid,
		Name:    req.Name,
		Email:   req.Email,
	})
}

func (s *Service) DeleteUser(ctx context.Context, userUid string) error {
	return s.repo.DeleteUser(ctx, userUid)
}
