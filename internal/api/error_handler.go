package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Capacity violations carry dimension detail worth surfacing.
	var capErr *domain.CapacityExceededError
	if errors.As(err, &capErr) {
		return http.StatusBadRequest, capErr.Error()
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNoStopsToOptimize),
		errors.Is(err, domain.ErrMissingTarget):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrRouteNotFound):
		return http.StatusNotFound, "route not found"
	case errors.Is(err, domain.ErrStopNotFound):
		return http.StatusNotFound, "stop not found"
	case errors.Is(err, domain.ErrDriverNotFound):
		return http.StatusNotFound, "driver not found"
	case errors.Is(err, domain.ErrZoneNotFound):
		return http.StatusNotFound, "zone not found"
	case errors.Is(err, domain.ErrStateConflict),
		errors.Is(err, domain.ErrRouteNotMutable):
		return http.StatusConflict, err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
