package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JEMeyer/ai-maestro/internal/api/dto"
	"github.com/JEMeyer/ai-maestro/internal/domain"
)

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		path       string
		method     string
		statusCode int
	}{
		{
			name:       "GET request",
			path:       "/test",
			method:     http.MethodGet,
			statusCode: http.StatusOK,
		},
		{
			name:       "POST request",
			path:       "/api/v1/test",
			method:     http.MethodPost,
			statusCode: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(LoggingMiddleware())

			router.Handle(tt.method, tt.path, func(c *gin.Context) {
				c.Status(tt.statusCode)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.statusCode, w.Code)
		})
	}
}

func TestErrorHandlerMiddleware_NoErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlerMiddleware())

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")
}

func TestErrorHandlerMiddleware_WithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlerMiddleware())

	router.GET("/test", func(c *gin.Context) {
		_ = c.Error(errors.New("test error"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
}

func TestMiddlewareChain(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(LoggingMiddleware())
	router.Use(ErrorHandlerMiddleware())

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"missing gpu", fmt.Errorf("%w: %w", domain.ErrGPUNotFound, domain.ErrPartialAllocation), http.StatusBadRequest},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"busy", domain.ErrDeploymentBusy, http.StatusConflict},
		{"transition", domain.ErrInvalidTransition, http.StatusConflict},
		{"no capacity", domain.ErrNoCapacity, http.StatusConflict},
		{"ports", domain.ErrPortsExhausted, http.StatusConflict},
		{"launch", domain.ErrContainerLaunch, http.StatusBadGateway},
		{"stop", domain.ErrContainerStop, http.StatusBadGateway},
		{"router", domain.ErrRouterUpdate, http.StatusBadGateway},
		{"unknown server", domain.ErrUnknownServer, http.StatusBadGateway},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, title := StatusFor(domain.NewOperationError("create deployment", tt.err))
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, title)
		})
	}
}

func TestErrorHandlerMiddleware_OperationError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlerMiddleware())
	router.POST("/deployments", func(c *gin.Context) {
		_ = c.Error(domain.NewOperationError("create deployment", domain.ErrRouterUpdate))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/deployments", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "infrastructure", response.Kind)
	assert.True(t, response.Retryable)
	assert.Contains(t, response.Message, "router update failed")
}

func TestErrorHandlerMiddleware_ResponseAlreadyWritten(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlerMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusTeapot, gin.H{"message": "handled"})
		_ = c.Error(domain.ErrNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Contains(t, w.Body.String(), "handled")
}
