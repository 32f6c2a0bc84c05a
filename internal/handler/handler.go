package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	md "github.com/bookly/booklibrary-service/pkg/middleware"
	"github.com/bookly/booklibrary-service/pkg/validate"
)

type Handler struct {
	bookSvc      BookService
	userSvc      UserService
	borrowingSvc BorrowingService
	log          *zap.Logger
}

func New(bookSvc BookService, userSvc UserService, borrowingSvc BorrowingService, log *zap.Logger) *Handler {
	return &Handler{
		bookSvc:      bookSvc,
		userSvc:      userSvc,
		borrowingSvc: borrowingSvc,
		log:          log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/book", h.CreateBook)
	api.GET("/book", h.ListBooks)
	api.GET("/book/:id", h.GetBook)
	api.PUT("/book/:id", h.UpdateBook)
	api.DELETE("/book/:id", h.DeleteBook)

	api.POST("/user", h.CreateUser)
	api.GET("/user", h.ListUsers)
	api.GET("/user/:id", h.GetUser)
	api.PUT("/user/:id", h.UpdateUser)
	api.DELETE("/user/:id", h.DeleteUser)

	api.POST("/borrowing/borrow", h.Borrow)
	api.DELETE("/borrowing/return/:id", h.Return)
	api.GET("/borrowing", h.ListBorrowings)
	api.GET("/borrowing/:id", h.GetBorrowing)
	api.PUT("/borrowing/:id", h.UpdateBorrowing)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
