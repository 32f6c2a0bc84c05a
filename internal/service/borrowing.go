package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bookly/booklibrary-service/internal/errs"
	"github.com/bookly/booklibrary-service/internal/model"
)

// Borrow creates a borrowing and flips the book's availability flag.
//
// The borrowing row is written first: it is the source of truth for
// "is borrowed", and books.borrowed is a cache derived from it. A crash
// between the two writes leaves the flag stale in the safe direction
// (Reconcile repairs it). The unique index on borrowings.book_uid
// serializes concurrent borrows of the same book.
func (s *Service) Borrow(ctx context.Context, req model.BorrowRequest) (model.Borrowing, error) {
	if req.UserUid == "" {
		return model.Borrowing{}, errs.NewValidationError("userId", "must not be empty")
	}
	if req.BookUid == "" {
		return model.Borrowing{}, errs.NewValidationError("bookId", "must not be empty")
	}
	if !req.ReturnDate.After(req.BorrowDate) {
		return model.Borrowing{}, errs.NewValidationError("returnDate", "must be greater than borrowDate")
	}

	book, err := s.repo.GetBook(ctx, req.BookUid)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Borrowing{}, errs.NewValidationError("bookId", "does not exist")
		}
		return model.Borrowing{}, errors.Wrap(err, "get book")
	}
	if _, err := s.repo.GetUser(ctx, req.UserUid); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Borrowing{}, errs.NewValidationError("userId", "does not exist")
		}
		return model.Borrowing{}, errors.Wrap(err, "get user")
	}
	if book.Borrowed {
		return model.Borrowing{}, errs.NewValidationError("bookId", "already borrowed")
	}

	borrowing, err := s.repo.CreateBorrowing(ctx, model.Borrowing{
		BorrowingUid: uuid.NewString(),
		BookUid:      req.BookUid,
		UserUid:      req.UserUid,
		BorrowDate:   req.BorrowDate,
		ReturnDate:   req.ReturnDate,
	})
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyBorrowed) {
			return model.Borrowing{}, errs.NewValidationError("bookId", "already borrowed")
		}
		return model.Borrowing{}, errors.Wrap(err, "create borrowing")
	}

	if err := s.repo.MarkBorrowed(ctx, req.BookUid); err != nil {
		// the flag was claimed between our read and the write: compensate
		// the borrowing we just created and report the conflict
		if delErr := s.repo.DeleteBorrowing(ctx, borrowing.BorrowingUid); delErr != nil {
			s.log.Error("Borrow: compensating delete failed",
				zap.String("borrowingUid", borrowing.BorrowingUid), zap.Error(delErr))
		}
		return model.Borrowing{}, err
	}

	return borrowing, nil
}

// Return deletes the borrowing and clears the book's availability flag, in
// that order: the authoritative record goes first, and a crash in between
// leaves a stale flag that Reconcile recomputes.
func (s *Service) Return(ctx context.Context, borrowingUid string) error {
	if borrowingUid == "" {
		return errs.NewValidationError("id", "must not be empty")
	}

	borrowing, err := s.repo.GetBorrowing(ctx, borrowingUid)
	if err != nil {
		return err
	}

	if _, err := s.repo.GetBook(ctx, borrowing.BookUid); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrBookGone
		}
		return errors.Wrap(err, "get book")
	}

	if err := s.repo.DeleteBorrowing(ctx, borrowingUid); err != nil {
		return errors.Wrap(err, "delete borrowing")
	}
	if err := s.repo.ClearBorrowed(ctx, borrowing.BookUid); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// book deleted since the check above; nothing left to clear
			s.log.Warn("Return: book vanished after borrowing delete",
				zap.String("bookUid", borrowing.BookUid))
			return nil
		}
		return errors.Wrap(err, "clear borrowed")
	}
	return nil
}

func (s *Service) GetBorrowing(ctx context.Context, borrowingUid string) (model.Borrowing, error) {
	return s.repo.GetBorrowing(ctx, borrowingUid)
}

func (s *Service) ListBorrowings(ctx context.Context) ([]model.Borrowing, error) {
	return s.repo.ListBorrowings(ctx)
}

// UpdateBorrowing changes the due date only.
func (s *Service) UpdateBorrowing(ctx context.Context, borrowingUid string, returnDate time.Time) (model.Borrowing, error) {
	borrowing, err := s.repo.GetBorrowing(ctx, borrowingUid)
	if err != nil {
		return model.Borrowing{}, err
	}
	if !returnDate.After(borrowing.BorrowDate) {
		return model.Borrowing{}, errs.NewValidationError("returnDate", "must be greater than borrowDate")
	}
	return s.repo.UpdateBorrowing(ctx, borrowingUid, returnDate)
}
