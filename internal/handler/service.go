package handler

import (
	"context"
	"time"

	"github.com/bookly/booklibrary-service/internal/model"
	"github.com/bookly/booklibrary-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	UpdateBook(ctx context.Context, bookUid string, req model.CreateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
}

type UserService interface {
	CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error)
	GetUser(ctx context.Context, userUid string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, userUid string, req model.CreateUserRequest) (model.User, error)
	DeleteUser(ctx context.Context, userUid string) error
}

type BorrowingService interface {
	Borrow(ctx context.Context, req model.BorrowRequest) (model.Borrowing, error)
	Return(ctx context.Context, borrowingUid string) error
	GetBorrowing(ctx context.Context, borrowingUid string) (model.Borrowing, error)
	ListBorrowings(ctx context.Context) ([]model.Borrowing, error)
	UpdateBorrowing(ctx context.Context, borrowingUid string, returnDate time.Time) (model.Borrowing, error)
}

var (
	_ BookService      = (*service.Service)(nil)
	_ UserService      = (*service.Service)(nil)
	_ BorrowingService = (*service.Service)(nil)
)
