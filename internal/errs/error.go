package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrAlreadyBorrowed means an active borrowing already references the book.
	ErrAlreadyBorrowed = errors.New("already borrowed")
	// ErrConflict means a concurrent modification was detected; the call is retryable.
	ErrConflict = errors.New("concurrent modification")
	// ErrBookGone means the book was deleted underneath an active borrowing.
	ErrBookGone = errors.New("book no longer exists")
)

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func NewValidationErrorResponse(err *ValidationError) ValidationErrorResponse {
	return ValidationErrorResponse{
		Message: err.Error(),
		Errors:  map[string]string{err.Field: err.Message},
	}
}
