package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bookly/booklibrary-service/internal/model"
)

const (
	// dueSoonWindow selects borrowings due within the next day.
	dueSoonWindow = 24 * time.Hour
	// remindCooldown suppresses repeat reminders for the same borrowing.
	remindCooldown = 24 * time.Hour

	reminderSubject = "Reminder: Book return due tomorrow"
)

// RunScanner drives the due-date scan on a fixed interval until ctx is done.
func (s *Service) RunScanner(ctx context.Context, interval time.Duration) error {
	log := s.log.Named("scanner")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.ScanOnce(ctx, time.Now().UTC()); err != nil {
				log.Error("scan", zap.Error(err))
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ScanOnce walks all borrowings and sends a reminder for each one due
// within dueSoonWindow of now. Borrowings are processed independently: a
// failed lookup or send is logged and the scan moves on.
func (s *Service) ScanOnce(ctx context.Context, now time.Time) error {
	log := s.log.Named("scanner")
	borrowings, err := s.repo.ListBorrowings(ctx)
	if err != nil {
		return err
	}

	for _, borrowing := range borrowings {
		if !dueSoon(borrowing, now) {
			continue
		}
		if borrowing.LastRemindedAt != nil && now.Sub(*borrowing.LastRemindedAt) < remindCooldown {
			continue
		}

		user, err := s.repo.GetUser(ctx, borrowing.UserUid)
		if err != nil {
			log.Warn("resolve user", zap.String("borrowingUid", borrowing.BorrowingUid),
				zap.String("userUid", borrowing.UserUid), zap.Error(err))
			continue
		}
		book, err := s.repo.GetBook(ctx, borrowing.BookUid)
		if err != nil {
			log.Warn("resolve book", zap.String("borrowingUid", borrowing.BorrowingUid),
				zap.String("bookUid", borrowing.BookUid), zap.Error(err))
			continue
		}

		body := reminderBody(user.Name, book.Title, borrowing.ReturnDate)
		if err := s.notifier.Send(ctx, s.senderEmail, user.Email, reminderSubject, body); err != nil {
			log.Warn("send reminder", zap.String("borrowingUid", borrowing.BorrowingUid), zap.Error(err))
			continue
		}
		if err := s.repo.MarkReminded(ctx, borrowing.BorrowingUid, now); err != nil {
			log.Warn("mark reminded", zap.String("borrowingUid", borrowing.BorrowingUid), zap.Error(err))
		}
	}
	return nil
}

func dueSoon(borrowing model.Borrowing, now time.Time) bool {
	return now.Before(borrowing.ReturnDate) && borrowing.ReturnDate.Before(now.Add(dueSoonWindow))
}

func reminderBody(userName, bookTitle string, returnDate time.Time) string {
	return fmt.Sprintf(`Dear %s,

This is a reminder that your borrowed book %s is due back tomorrow, %s.

Please return it by the due date to avoid late fees. If you need an extension, visit your account or contact us.

Thank you,
BookLibrary`, userName, bookTitle, returnDate.Format(time.RFC1123))
}

// RunReconciler periodically recomputes books.borrowed from the set of
// active borrowings, repairing any crash-window drift.
func (s *Service) RunReconciler(ctx context.Context, interval time.Duration) error {
	log := s.log.Named("reconciler")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			repaired, err := s.Reconcile(ctx)
			if err != nil {
				log.Error("reconcile", zap.Error(err))
				continue
			}
			if repaired > 0 {
				log.Info("reconciled borrowed flags", zap.Int64("repaired", repaired))
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Service) Reconcile(ctx context.Context) (int64, error) {
	return s.repo.ReconcileBorrowedFlags(ctx)
}
