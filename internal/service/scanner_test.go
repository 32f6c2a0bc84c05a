package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/bookly/booklibrary-service/internal/errs"
	"github.com/bookly/booklibrary-service/internal/model"

	repo_mocks "github.com/bookly/booklibrary-service/internal/repository/mocks"
)

func TestService_ScanOnce_SelectsDueSoon(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	recentReminder := now.Add(-2 * time.Hour)

	borrowings := []model.Borrowing{
		{BorrowingUid: "b-due", BookUid: testBookUid, UserUid: testUserUid, ReturnDate: now.Add(12 * time.Hour)},
		{BorrowingUid: "b-far", BookUid: "bk-far", UserUid: testUserUid, ReturnDate: now.Add(36 * time.Hour)},
		{BorrowingUid: "b-past", BookUid: "bk-past", UserUid: testUserUid, ReturnDate: now.Add(-time.Hour)},
		{BorrowingUid: "b-reminded", BookUid: "bk-rem", UserUid: testUserUid, ReturnDate: now.Add(12 * time.Hour), LastRemindedAt: &recentReminder},
	}

	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	notifier := &fakeNotifier{}
	svc := newService(repo, notifier)

	repo.EXPECT().ListBorrowings(ctx).Return(borrowings, nil)
	// only the first borrowing is due soon and not recently reminded
	repo.EXPECT().GetUser(ctx, testUserUid).Return(model.User{UserUid: testUserUid, Name: "Ada Lovelace", Email: "ada@example.com"}, nil)
	repo.EXPECT().GetBook(ctx, testBookUid).Return(model.Book{BookUid: testBookUid, Title: "The Go Programming Language", Borrowed: true}, nil)
	repo.EXPECT().MarkReminded(ctx, "b-due", now).Return(nil)

	require.NoError(t, svc.ScanOnce(ctx, now))

	require.Len(t, notifier.sent, 1)
	msg := notifier.sent[0]
	require.Equal(t, senderEmail, msg.from)
	require.Equal(t, "ada@example.com", msg.to)
	require.Equal(t, "Reminder: Book return due tomorrow", msg.subject)
	require.Contains(t, msg.body, "Ada Lovelace")
	require.Contains(t, msg.body, "The Go Programming Language")
}

func TestService_ScanOnce_ContinuesPastFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	borrowings := []model.Borrowing{
		{BorrowingUid: "b-orphan", BookUid: "bk-1", UserUid: "u-gone", ReturnDate: now.Add(6 * time.Hour)},
		{BorrowingUid: "b-ok", BookUid: "bk-2", UserUid: testUserUid, ReturnDate: now.Add(6 * time.Hour)},
	}

	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	notifier := &fakeNotifier{}
	svc := newService(repo, notifier)

	repo.EXPECT().ListBorrowings(ctx).Return(borrowings, nil)
	// a missing user must not abort the scan for the rest of the batch
	repo.EXPECT().GetUser(ctx, "u-gone").Return(model.User{}, errs.ErrNotFound)
	repo.EXPECT().GetUser(ctx, testUserUid).Return(model.User{UserUid: testUserUid, Name: "Ada", Email: "ada@example.com"}, nil)
	repo.EXPECT().GetBook(ctx, "bk-2").Return(model.Book{BookUid: "bk-2", Title: "T"}, nil)
	repo.EXPECT().MarkReminded(ctx, "b-ok", now).Return(nil)

	require.NoError(t, svc.ScanOnce(ctx, now))
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "ada@example.com", notifier.sent[0].to)
}

func TestService_ScanOnce_SendFailureSkipsMarker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc := newService(repo, notifier)

	repo.EXPECT().ListBorrowings(ctx).Return([]model.Borrowing{
		{BorrowingUid: "b-due", BookUid: testBookUid, UserUid: testUserUid, ReturnDate: now.Add(12 * time.Hour)},
	}, nil)
	repo.EXPECT().GetUser(ctx, testUserUid).Return(model.User{UserUid: testUserUid, Name: "Ada", Email: "ada@example.com"}, nil)
	repo.EXPECT().GetBook(ctx, testBookUid).Return(model.Book{BookUid: testBookUid, Title: "T"}, nil)
	// no MarkReminded: the borrowing stays due for the next run

	require.NoError(t, svc.ScanOnce(ctx, now))
	require.Empty(t, notifier.sent)
}

func TestService_Reconcile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := newService(repo, &fakeNotifier{})

	repo.EXPECT().ReconcileBorrowedFlags(ctx).Return(int64(2), nil)

	repaired, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, repaired)
}
