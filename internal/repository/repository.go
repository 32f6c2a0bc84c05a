package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bookly/booklibrary-service/internal/errs"
	"github.com/bookly/booklibrary-service/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
	MarkBorrowed(ctx context.Context, bookUid string) error
	ClearBorrowed(ctx context.Context, bookUid string) error

	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUser(ctx context.Context, userUid string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, user model.User) (model.User, error)
	DeleteUser(ctx context.Context, userUid string) error

	CreateBorrowing(ctx context.Context, borrowing model.Borrowing) (model.Borrowing, error)
	GetBorrowing(ctx context.Context, borrowingUid string) (model.Borrowing, error)
	ListBorrowings(ctx context.Context) ([]model.Borrowing, error)
	UpdateBorrowing(ctx context.Context, borrowingUid string, returnDate time.Time) (model.Borrowing, error)
	DeleteBorrowing(ctx context.Context, borrowingUid string) error
	MarkReminded(ctx context.Context, borrowingUid string, at time.Time) error
	ReconcileBorrowedFlags(ctx context.Context) (int64, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName      = `books`
	usersTableName      = `users`
	borrowingsTableName = `borrowings`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("book_uid", "title", "author", "borrowed").
		Values(book.BookUid, book.Title, book.Author, false).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var created model.Book
	if err := r.db.GetContext(ctx, &created, query, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args))
		return model.Book{}, err
	}
	return created, nil
}

func (r *repository) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	query, args, err := qb.Select("id", "book_uid", "title", "author", "borrowed").
		From(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) ListBooks(ctx context.Context) ([]model.Book, error) {
	query, args, err := qb.Select("id", "book_uid", "title", "author", "borrowed").
		From(booksTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	books := make([]model.Book, 0)
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateBook never touches the borrowed flag: availability is owned by the
// borrowing lifecycle and must not be editable through a plain update.
func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		Set("title", book.Title).
		Set("author", book.Author).
		Where(sq.Eq{"book_uid": book.BookUid}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var updated model.Book
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return updated, nil
}

func (r *repository) DeleteBook(ctx context.Context, bookUid string) error {
	query, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck
		return errs.ErrNotFound
	}
	return nil
}

// MarkBorrowed is a conditional single-row write: it only succeeds if the
// flag was still unset, so a concurrent borrow that won the race surfaces
// as ErrConflict instead of silently overwriting.
func (r *repository) MarkBorrowed(ctx context.Context, bookUid string) error {
	query, args, err := qb.Update(booksTableName).
		Set("borrowed", true).
		Where(sq.Eq{"book_uid": bookUid, "borrowed": false}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck
		return errs.ErrConflict
	}
	return nil
}

func (r *repository) ClearBorrowed(ctx context.Context, bookUid string) error {
	query, args, err := qb.Update(booksTableName).
		Set("borrowed", false).
		Where(sq.Eq{"book_uid": bookUid}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	query, args, err := qb.Insert(usersTableName).
		Columns("user_uid", "name", "email").
		Values(user.UserUid, user.Name, user.Email).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var created model.User
	if err := r.db.GetContext(ctx, &created, query, args...); err != nil {
		r.log.Error("CreateUser", zap.String("q", query), zap.Any("args", args))
		return model.User{}, err
	}
	return created, nil
}

func (r *repository) GetUser(ctx context.Context, userUid string) (model.User, error) {
	query, args, err := qb.Select("id", "user_uid", "name", "email").
		From(usersTableName).
		Where(sq.Eq{"user_uid": userUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *repository) ListUsers(ctx context.Context) ([]model.User, error) {
	query, args, err := qb.Select("id", "user_uid", "name", "email").
		From(usersTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0)
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) UpdateUser(ctx context.Context, user model.User) (model.User, error) {
	query, args, err := qb.Update(usersTableName).
		Set("name", user.Name).
		Set("email", user.Email).
		Where(sq.Eq{"user_uid": user.UserUid}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var updated model.User
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return updated, nil
}

func (r *repository) DeleteUser(ctx context.Context, userUid string) error {
	query, args, err := qb.Delete(usersTableName).
		Where(sq.Eq{"user_uid": userUid}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck
		return errs.ErrNotFound
	}
	return nil
}

// CreateBorrowing relies on the unique index on book_uid: the insert of the
// authoritative record is the serialization point for concurrent borrows of
// the same book.
func (r *repository) CreateBorrowing(ctx context.Context, borrowing model.Borrowing) (model.Borrowing, error) {
	query, args, err := qb.Insert(borrowingsTableName).
		Columns("borrowing_uid", "book_uid", "user_uid", "borrow_date", "return_date").
		Values(borrowing.BorrowingUid, borrowing.BookUid, borrowing.UserUid, borrowing.BorrowDate, borrowing.ReturnDate).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}
	var created model.Borrowing
	if err := r.db.GetContext(ctx, &created, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.Borrowing{}, errs.ErrAlreadyBorrowed
		}
		r.log.Error("CreateBorrowing", zap.String("q", query), zap.Any("args", args))
		return model.Borrowing{}, err
	}
	return created, nil
}

func (r *repository) GetBorrowing(ctx context.Context, borrowingUid string) (model.Borrowing, error) {
	query, args, err := qb.Select("id", "borrowing_uid", "book_uid", "user_uid", "borrow_date", "return_date", "last_reminded_at").
		From(borrowingsTableName).
		Where(sq.Eq{"borrowing_uid": borrowingUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}
	var borrowing model.Borrowing
	if err := r.db.GetContext(ctx, &borrowing, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrowing{}, errs.ErrNotFound
		}
		return model.Borrowing{}, err
	}
	return borrowing, nil
}

func (r *repository) ListBorrowings(ctx context.Context) ([]model.Borrowing, error) {
	query, args, err := qb.Select("id", "borrowing_uid", "book_uid", "user_uid", "borrow_date", "return_date", "last_reminded_at").
		From(borrowingsTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	borrowings := make([]model.Borrowing, 0)
	if err := r.db.SelectContext(ctx, &borrowings, query, args...); err != nil {
		return nil, err
	}
	return borrowings, nil
}

func (r *repository) UpdateBorrowing(ctx context.Context, borrowingUid string, returnDate time.Time) (model.Borrowing, error) {
	query, args, err := qb.Update(borrowingsTableName).
		Set("return_date", returnDate).
		Where(sq.Eq{"borrowing_uid": borrowingUid}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}
	var updated model.Borrowing
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrowing{}, errs.ErrNotFound
		}
		return model.Borrowing{}, err
	}
	return updated, nil
}

func (r *repository) DeleteBorrowing(ctx context.Context, borrowingUid string) error {
	query, args, err := qb.Delete(borrowingsTableName).
		Where(sq.Eq{"borrowing_uid": borrowingUid}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) MarkReminded(ctx context.Context, borrowingUid string, at time.Time) error {
	query, args, err := qb.Update(borrowingsTableName).
		Set("last_reminded_at", at).
		Where(sq.Eq{"borrowing_uid": borrowingUid}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// ReconcileBorrowedFlags recomputes the availability cache from the
// authoritative borrowing rows. A crash window in borrow or return leaves
// the flag stale in exactly one direction; this repairs both.
func (r *repository) ReconcileBorrowedFlags(ctx context.Context) (int64, error) {
	q := `
update books b
    set borrowed = exists(select 1 from borrowings br where br.book_uid = b.book_uid)
where borrowed <> exists(select 1 from borrowings br where br.book_uid = b.book_uid)`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
