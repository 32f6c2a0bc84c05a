package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookly/booklibrary-service/internal/errs"
	"github.com/bookly/booklibrary-service/internal/handler"
	"github.com/bookly/booklibrary-service/internal/model"
	"github.com/bookly/booklibrary-service/pkg/validate"

	service_mocks "github.com/bookly/booklibrary-service/internal/handler/mocks"
)

func TestHandler_Borrow(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBorrowingService)

	borrowDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	returnDate := time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"userId":"0cc50854-9d97-4b30-a12f-b6e58a7b0d01","bookId":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","borrowDate":"2024-01-10T00:00:00Z","returnDate":"2024-02-09T00:00:00Z"}`,
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					Borrow(context.Background(), model.BorrowRequest{
						UserUid:    "0cc50854-9d97-4b30-a12f-b6e58a7b0d01",
						BookUid:    "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
						BorrowDate: borrowDate,
						ReturnDate: returnDate,
					}).
					Return(model.Borrowing{
						BorrowingUid: "9a7e6d64-0318-4df6-90e6-6a7f6a4f4ecf",
						BookUid:      "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
						UserUid:      "0cc50854-9d97-4b30-a12f-b6e58a7b0d01",
						BorrowDate:   borrowDate,
						ReturnDate:   returnDate,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":"9a7e6d64-0318-4df6-90e6-6a7f6a4f4ecf","bookId":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","userId":"0cc50854-9d97-4b30-a12f-b6e58a7b0d01","borrowDate":"2024-01-10T00:00:00Z","returnDate":"2024-02-09T00:00:00Z"}`,
			},
		},
		{
			name: "err. already borrowed",
			body: `{"userId":"u1","bookId":"b1","borrowDate":"2024-01-10T00:00:00Z","returnDate":"2024-02-09T00:00:00Z"}`,
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					Borrow(context.Background(), gomock.Any()).
					Return(model.Borrowing{}, errs.NewValidationError("bookId", "already borrowed"))
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"bookId: already borrowed","errors":{"bookId":"already borrowed"}}`,
			},
		},
		{
			name: "err. return date before borrow date",
			body: `{"userId":"u1","bookId":"b1","borrowDate":"2024-02-09T00:00:00Z","returnDate":"2024-01-10T00:00:00Z"}`,
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					Borrow(context.Background(), gomock.Any()).
					Return(model.Borrowing{}, errs.NewValidationError("returnDate", "must be greater than borrowDate"))
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"returnDate: must be greater than borrowDate","errors":{"returnDate":"must be greater than borrowDate"}}`,
			},
		},
		{
			name: "err. conflict",
			body: `{"userId":"u1","bookId":"b1","borrowDate":"2024-01-10T00:00:00Z","returnDate":"2024-02-09T00:00:00Z"}`,
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					Borrow(context.Background(), gomock.Any()).
					Return(model.Borrowing{}, errs.ErrConflict)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"concurrent modification"}`,
			},
		},
		{
			name: "err. internal",
			body: `{"userId":"u1","bookId":"b1","borrowDate":"2024-01-10T00:00:00Z","returnDate":"2024-02-09T00:00:00Z"}`,
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					Borrow(context.Background(), gomock.Any()).
					Return(model.Borrowing{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockBorrowingService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(nil, nil, svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/api/borrowing/borrow", h.Borrow)

			r := httptest.NewRequest(http.MethodPost, "/api/borrowing/borrow", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Return(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBorrowingService, borrowingUid string)

	var tests = []struct {
		name         string
		borrowingUid string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:         "ok",
			borrowingUid: "9a7e6d64-0318-4df6-90e6-6a7f6a4f4ecf",
			mockBehavior: func(r *service_mocks.MockBorrowingService, borrowingUid string) {
				r.EXPECT().
					Return(context.Background(), borrowingUid).
					Return(nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: ``,
			},
		},
		{
			name:         "err. not found",
			borrowingUid: "9a7e6d64-0318-4df6-90e6-6a7f6a4f4ec0",
			mockBehavior: func(r *service_mocks.MockBorrowingService, borrowingUid string) {
				r.EXPECT().
					Return(context.Background(), borrowingUid).
					Return(errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
		},
		{
			name:         "err. book deleted underneath",
			borrowingUid: "9a7e6d64-0318-4df6-90e6-6a7f6a4f4ec1",
			mockBehavior: func(r *service_mocks.MockBorrowingService, borrowingUid string) {
				r.EXPECT().
					Return(context.Background(), borrowingUid).
					Return(errs.ErrBookGone)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"book no longer exists"}`,
			},
		},
		{
			name:         "err. internal",
			borrowingUid: "9a7e6d64-0318-4df6-90e6-6a7f6a4f4ec2",
			mockBehavior: func(r *service_mocks.MockBorrowingService, borrowingUid string) {
				r.EXPECT().
					Return(context.Background(), borrowingUid).
					Return(errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockBorrowingService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(nil, nil, svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.DELETE("/api/borrowing/return/:id", h.Return)

			r := httptest.NewRequest(http.MethodDelete,
				fmt.Sprintf("/api/borrowing/return/%s", tt.borrowingUid), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.borrowingUid)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
