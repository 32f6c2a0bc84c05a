package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bookly/booklibrary-service/internal/errs"
	"github.com/bookly/booklibrary-service/internal/model"
)

func (h *Handler) Borrow(c echo.Context) error {
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	borrowing, err := h.borrowingSvc.Borrow(ctx, req)
	if err != nil {
		var vErr *errs.ValidationError
		switch {
		case errors.As(err, &vErr):
			return c.JSON(http.StatusBadRequest, errs.NewValidationErrorResponse(vErr))
		case errors.Is(err, errs.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, borrowing)
}

func (h *Handler) Return(c echo.Context) error {
	borrowingUid := c.Param("id")

	ctx := c.Request().Context()
	if err := h.borrowingSvc.Return(ctx, borrowingUid); err != nil {
		var vErr *errs.ValidationError
		switch {
		case errors.As(err, &vErr):
			return c.JSON(http.StatusBadRequest, errs.NewValidationErrorResponse(vErr))
		case errors.Is(err, errs.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, errs.ErrBookGone), errors.Is(err, errs.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) GetBorrowing(c echo.Context) error {
	borrowingUid := c.Param("id")
	if borrowingUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "empty id")
	}

	borrowing, err := h.borrowingSvc.GetBorrowing(c.Request().Context(), borrowingUid)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, borrowing)
}

func (h *Handler) ListBorrowings(c echo.Context) error {
	borrowings, err := h.borrowingSvc.ListBorrowings(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, borrowings)
}

func (h *Handler) UpdateBorrowing(c echo.Context) error {
	borrowingUid := c.Param("id")
	if borrowingUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "empty id")
	}
	var req model.UpdateBorrowingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	borrowing, err := h.borrowingSvc.UpdateBorrowing(c.Request().Context(), borrowingUid, req.ReturnDate)
	if err != nil {
		var vErr *errs.ValidationError
		switch {
		case errors.As(err, &vErr):
			return c.JSON(http.StatusBadRequest, errs.NewValidationErrorResponse(vErr))
		case errors.Is(err, errs.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, borrowing)
}
