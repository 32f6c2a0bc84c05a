package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/bookly/booklibrary-service/internal/model"
)

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, model.Book{
		BookUid: uuid.NewString(),
		Title:   req.Title,
		Author:  req.Author,
	})
}

func (s *Service) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	return s.repo.GetBook(ctx, bookUid)
}

func (s *Service) ListBooks(ctx context.Context) ([]model.Book, error) {
	return s.repo.ListBooks(ctx)
}

func (s *Service) UpdateBook(ctx context.Context, bookUid string, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.UpdateBook(ctx, model.Book{
		BookUid: bookUid,
		Title:   req.Title,
		Author:  req.Author,
	})
}

func (s *Service) DeleteBook(ctx context.Context, bookUid string) error {
	return s.repo.DeleteBook(ctx, bookUid)
}
