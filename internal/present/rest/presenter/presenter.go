package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/transparence/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	slog.DebugContext(c.Request().Context(), "bad request", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.DebugContext(c.Request().Context(), "bad request", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func Unavailable(c echo.Context, err error) error {
	slog.WarnContext(c.Request().Context(), "service unavailable", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
}

func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(c.Request().Context(), "internal error", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// Error picks the response for err by its domain sentinel.
func Error(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return NotFound(c, err.Error())
	case errors.Is(err, domain.ErrMalformed), errors.Is(err, domain.ErrInvalidZone):
		return BadRequest(c, err)
	case errors.Is(err, domain.ErrNotConfigured):
		return Unavailable(c, err)
	default:
		return InternalError(c, err)
	}
}
