package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JEMeyer/ai-maestro/internal/api/dto"
	"github.com/JEMeyer/ai-maestro/internal/domain"
)

func TestGPUHandler_ListGPUs_Success(t *testing.T) {
	mockGPUs := []*domain.GPU{
		{ID: 1, ServerID: 1, DeviceID: 0, Type: domain.GPUType3090, VRAMTotal: 24, MaxWorkers: 2, CurrentWorkers: 1},
		{ID: 2, ServerID: 2, DeviceID: 0, Type: domain.GPUTypeP100, VRAMTotal: 16, MaxWorkers: 1},
	}

	mockRepo := &MockGPURepository{
		ListWithLoadFunc: func(ctx context.Context) ([]*domain.GPU, error) {
			return mockGPUs, nil
		},
	}

	handler := NewGPUHandler(mockRepo, &MockServerRepository{})
	router, w := setupGinTest()
	router.GET("/gpus", handler.ListGPUs)

	req := httptest.NewRequest(http.MethodGet, "/gpus", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.GPUListResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 2, response.Total)
	assert.Len(t, response.GPUs, 2)
	assert.Equal(t, "3090", response.GPUs[0].Type)
	assert.Equal(t, 1, response.GPUs[0].CurrentWorkers)
}

func TestGPUHandler_ListGPUs_EmptyList(t *testing.T) {
	handler := NewGPUHandler(&MockGPURepository{}, &MockServerRepository{})
	router, w := setupGinTest()
	router.GET("/gpus", handler.ListGPUs)

	req := httptest.NewRequest(http.MethodGet, "/gpus", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.GPUListResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 0, response.Total)
	assert.Len(t, response.GPUs, 0)
}

func TestGPUHandler_ListGPUs_RepositoryError(t *testing.T) {
	mockRepo := &MockGPURepository{
		ListWithLoadFunc: func(ctx context.Context) ([]*domain.GPU, error) {
			return nil, errors.New("connection refused")
		},
	}

	handler := NewGPUHandler(mockRepo, &MockServerRepository{})
	router, w := setupGinTest()
	router.GET("/gpus", handler.ListGPUs)

	req := httptest.NewRequest(http.MethodGet, "/gpus", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response dto.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Internal Server Error", response.Error)
}

func TestGPUHandler_ListServers(t *testing.T) {
	mockRepo := &MockServerRepository{
		ListFunc: func(ctx context.Context) ([]*domain.GPUServer, error) {
			return []*domain.GPUServer{
				{ID: 1, Name: "gpu-server-1", Host: "10.0.0.11", GPUCount: 4},
				{ID: 2, Name: "gpu-server-2", Host: "10.0.0.12", GPUCount: 2},
			}, nil
		},
	}

	handler := NewGPUHandler(&MockGPURepository{}, mockRepo)
	router, w := setupGinTest()
	router.GET("/servers", handler.ListServers)

	req := httptest.NewRequest(http.MethodGet, "/servers", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.ServerListResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 2, response.Total)
	assert.Equal(t, "gpu-server-2", response.Servers[1].Name)
}
