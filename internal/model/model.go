package model

import (
	"time"
)

type Book struct {
	ID       int    `json:"-" db:"id"`
	BookUid  string `json:"id" db:"book_uid"`
	Title    string `json:"title" db:"title"`
	Author   string `json:"author" db:"author"`
	Borrowed bool   `json:"borrowed" db:"borrowed"`
}

type User struct {
	ID      int    `json:"-" db:"id"`
	UserUid string `json:"id" db:"user_uid"`
	Name    string `json:"name" db:"name"`
	Email   string `json:"email" db:"email"`
}

type Borrowing struct {
	ID             int        `json:"-" db:"id"`
	BorrowingUid   string     `json:"id" db:"borrowing_uid"`
	BookUid        string     `json:"bookId" db:"book_uid"`
	UserUid        string     `json:"userId" db:"user_uid"`
	BorrowDate     time.Time  `json:"borrowDate" db:"borrow_date"`
	ReturnDate     time.Time  `json:"returnDate" db:"return_date"`
	LastRemindedAt *time.Time `json:"-" db:"last_reminded_at"`
}

type CreateBookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
}

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type BorrowRequest struct {
	UserUid    string    `json:"userId"`
	BookUid    string    `json:"bookId"`
	BorrowDate time.Time `json:"borrowDate"`
	ReturnDate time.Time `json:"returnDate"`
}

type UpdateBorrowingRequest struct {
	ReturnDate time.Time `json:"returnDate" validate:"required"`
}
