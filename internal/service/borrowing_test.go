package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookly/booklibrary-service/internal/errs"
	"github.com/bookly/booklibrary-service/internal/model"
	"github.com/bookly/booklibrary-service/internal/service"

	repo_mocks "github.com/bookly/booklibrary-service/internal/repository/mocks"
)

type sentMessage struct {
	from, to, subject, body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, from, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{from: from, to: to, subject: subject, body: body})
	return nil
}

const (
	testBookUid = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"
	testUserUid = "0cc50854-9d97-4b30-a12f-b6e58a7b0d01"
	senderEmail = "noreply@booklibrary.io"
)

func newService(repo *repo_mocks.MockRepository, notifier *fakeNotifier) *service.Service {
	return service.NewService(repo, notifier, senderEmail, zap.NewExample().Named("test"))
}

func validBorrowRequest() model.BorrowRequest {
	borrowDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	return model.BorrowRequest{
		UserUid:    testUserUid,
		BookUid:    testBookUid,
		BorrowDate: borrowDate,
		ReturnDate: borrowDate.AddDate(0, 0, 30),
	}
}

func TestService_Borrow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := newService(repo, &fakeNotifier{})

	req := validBorrowRequest()

	repo.EXPECT().GetBook(ctx, testBookUid).Return(model.Book{BookUid: testBookUid, Title: "T", Author: "A"}, nil)
	repo.EXPECT().GetUser(ctx, testUserUid).Return(model.User{UserUid: testUserUid}, nil)
	repo.EXPECT().CreateBorrowing(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, b model.Borrowing) (model.Borrowing, error) {
			return b, nil
		})
	repo.EXPECT().MarkBorrowed(ctx, testBookUid).Return(nil)

	first, err := svc.Borrow(ctx, req)
	require.NoError(t, err)
	_, err = uuid.Parse(first.BorrowingUid)
	require.NoError(t, err)
	require.Equal(t, testBookUid, first.BookUid)
	require.Equal(t, testUserUid, first.UserUid)

	// a second borrow gets a freshly generated identifier
	otherBook := "a4f2b7c9-55d1-4f3e-8a1b-3c9f0d2e6b11"
	req2 := req
	req2.BookUid = otherBook
	repo.EXPECT().GetBook(ctx, otherBook).Return(model.Book{BookUid: otherBook}, nil)
	repo.EXPECT().GetUser(ctx, testUserUid).Return(model.User{UserUid: testUserUid}, nil)
	repo.EXPECT().CreateBorrowing(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, b model.Borrowing) (model.Borrowing, error) {
			return b, nil
		})
	repo.EXPECT().MarkBorrowed(ctx, otherBook).Return(nil)

	second, err := svc.Borrow(ctx, req2)
	require.NoError(t, err)
	require.NotEqual(t, first.BorrowingUid, second.BorrowingUid)
}

func TestService_Borrow_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var tests = []struct {
		name      string
		mutate    func(req *model.BorrowRequest)
		wantField string
	}{
		{
			name:      "empty userId",
			mutate:    func(req *model.BorrowRequest) { req.UserUid = "" },
			wantField: "userId",
		},
		{
			name:      "empty bookId",
			mutate:    func(req *model.BorrowRequest) { req.BookUid = "" },
			wantField: "bookId",
		},
		{
			name:      "returnDate before borrowDate",
			mutate:    func(req *model.BorrowRequest) { req.ReturnDate = req.BorrowDate.AddDate(0, 0, -1) },
			wantField: "returnDate",
		},
		{
			name:      "returnDate equals borrowDate",
			mutate:    func(req *model.BorrowRequest) { req.ReturnDate = req.BorrowDate },
			wantField: "returnDate",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			// no repo expectations: validation fails before any read or write
			repo := repo_mocks.NewMockRepository(c)
			svc := newService(repo, &fakeNotifier{})

			req := validBorrowRequest()
			tt.mutate(&req)

			_, err := svc.Borrow(ctx, req)
			var vErr *errs.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestService_Borrow_ReferentialChecks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("book does not exist", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		repo := repo_mocks.NewMockRepository(c)
		svc := newService(repo, &fakeNotifier{})

		repo.EXPECT().GetBook(ctx, testBookUid).Return(model.Book{}, errs.ErrNotFound)

		_, err := svc.Borrow(ctx, validBorrowRequest())
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Equal(t, "bookId", vErr.Field)
		require.Equal(t, "does not exist", vErr.Message)
	})

	t.Run("user does not exist", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		repo := repo_mocks.NewMockRepository(c)
		svc := newService(repo, &fakeNotifier{})

		repo.EXPECT().GetBook(ctx, testBookUid).Return(model.Book{BookUid: testBookUid}, nil)
		repo.EXPECT().GetUser(ctx, testUserUid).Return(model.User{}, errs.ErrNotFound)

		_, err := svc.Borrow(ctx, validBorrowRequest())
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Equal(t, "userId", vErr.Field)
	})

	t.Run("already borrowed flag", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		repo := repo_mocks.NewMockRepository(c)
		svc := newService(repo, &fakeNotifier{})

		repo.EXPECT().GetBook(ctx, testBookUid).Return(model.Book{BookUid: testBookUid, Borrowed: true}, nil)
		repo.EXPECT().GetUser(ctx, testUserUid).Return(model.User{UserUid: testUserUid}, nil)

		_, err := svc.Borrow(ctx, validBorrowRequest())
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Equal(t, "bookId", vErr.Field)
		require.Equal(t, "already borrowed", vErr.Message)
	})

	t.Run("already borrowed unique index", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		repo := repo_mocks.NewMockRepository(c)
		svc := newService(repo, &fakeNotifier{})

		// the flag read raced: it was still false, but the insert hit the
		// unique active-borrowing index
		repo.EXPECT().GetBook(ctx, testBookUid).Return(model.Book{BookUid: testBookUid}, nil)
		repo.EXPECT().GetUser(ctx, testUserUid).Return(model.User{UserUid: testUserUid}, nil)
		repo.EXPECT().CreateBorrowing(ctx, gomock.Any()).Return(model.Borrowing{}, errs.ErrAlreadyBorrowed)

		_, err := svc.Borrow(ctx, validBorrowRequest())
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Equal(t, "already borrowed", vErr.Message)
	})
}

func TestService_Borrow_ConflictCompensation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := newService(repo, &fakeNotifier{})

	var createdUid string
	repo.EXPECT().GetBook(ctx, testBookUid).Return(model.Book{BookUid: testBookUid}, nil)
	repo.EXPECT().GetUser(ctx, testUserUid).Return(model.User{UserUid: testUserUid}, nil)
	repo.EXPECT().CreateBorrowing(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, b model.Borrowing) (model.Borrowing, error) {
			createdUid = b.BorrowingUid
			return b, nil
		})
	repo.EXPECT().MarkBorrowed(ctx, testBookUid).Return(errs.ErrConflict)
	repo.EXPECT().DeleteBorrowing(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, borrowingUid string) error {
			require.Equal(t, createdUid, borrowingUid)
			return nil
		})

	_, err := svc.Borrow(ctx, validBorrowRequest())
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestService_Return(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	borrowingUid := "9a7e6d64-0318-4df6-90e6-6a7f6a4f4ecf"

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		repo := repo_mocks.NewMockRepository(c)
		svc := newService(repo, &fakeNotifier{})

		gomock.InOrder(
			repo.EXPECT().GetBorrowing(ctx, borrowingUid).
				Return(model.Borrowing{BorrowingUid: borrowingUid, BookUid: testBookUid}, nil),
			repo.EXPECT().GetBook(ctx, testBookUid).
				Return(model.Book{BookUid: testBookUid, Borrowed: true}, nil),
			// authoritative record first, cache second
			repo.EXPECT().DeleteBorrowing(ctx, borrowingUid).Return(nil),
			repo.EXPECT().ClearBorrowed(ctx, testBookUid).Return(nil),
		)

		require.NoError(t, svc.Return(ctx, borrowingUid))
	})

	t.Run("empty id", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		repo := repo_mocks.NewMockRepository(c)
		svc := newService(repo, &fakeNotifier{})

		err := svc.Return(ctx, "")
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Equal(t, "id", vErr.Field)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		repo := repo_mocks.NewMockRepository(c)
		svc := newService(repo, &fakeNotifier{})

		repo.EXPECT().GetBorrowing(ctx, borrowingUid).Return(model.Borrowing{}, errs.ErrNotFound)

		require.ErrorIs(t, svc.Return(ctx, borrowingUid), errs.ErrNotFound)
	})

	t.Run("book deleted underneath", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		repo := repo_mocks.NewMockRepository(c)
		svc := newService(repo, &fakeNotifier{})

		repo.EXPECT().GetBorrowing(ctx, borrowingUid).
			Return(model.Borrowing{BorrowingUid: borrowingUid, BookUid: testBookUid}, nil)
		repo.EXPECT().GetBook(ctx, testBookUid).Return(model.Book{}, errs.ErrNotFound)

		// the borrowing stays: surfaced as a conflict, not silent success
		require.ErrorIs(t, svc.Return(ctx, borrowingUid), errs.ErrBookGone)
	})
}
