package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JEMeyer/ai-maestro/internal/api/dto"
	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// ErrorHandlerMiddleware turns the last error a handler attached with
// c.Error into an ErrorResponse
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status, title := StatusFor(err)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "Request error",
			"error", err.Error(),
			"status", status,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)

		if c.Writer.Written() {
			return
		}

		kind := domain.Classify(err)
		var opErr *domain.OperationError
		if errors.As(err, &opErr) {
			kind = opErr.Kind
		}
		c.JSON(status, dto.ErrorResponse{
			Error:     title,
			Message:   err.Error(),
			Kind:      string(kind),
			Retryable: kind.Retryable(),
			Timestamp: time.Now(),
		})
	}
}

// StatusFor maps an error to its HTTP status and a short title.
// Client-side causes are 4xx; failed infrastructure calls are 502; anything
// else is 500.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, domain.ErrGPUNotFound), errors.Is(err, domain.ErrPartialAllocation):
		return http.StatusBadRequest, "GPU not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrDeploymentBusy):
		return http.StatusConflict, "Deployment busy"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "Invalid state"
	case errors.Is(err, domain.ErrNoCapacity):
		return http.StatusConflict, "No GPU capacity"
	case errors.Is(err, domain.ErrPortsExhausted):
		return http.StatusConflict, "No ports available"
	case errors.Is(err, domain.ErrContainerLaunch),
		errors.Is(err, domain.ErrContainerStop),
		errors.Is(err, domain.ErrRouterUpdate),
		errors.Is(err, domain.ErrUnknownServer):
		return http.StatusBadGateway, "Upstream failure"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
