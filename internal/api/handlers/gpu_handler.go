package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JEMeyer/ai-maestro/internal/api/dto"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// GPUHandler handles GPU and server inventory requests
type GPUHandler struct {
	gpuRepo    storage.GPURepository
	serverRepo storage.ServerRepository
}

// NewGPUHandler creates a new GPU handler
func NewGPUHandler(gpuRepo storage.GPURepository, serverRepo storage.ServerRepository) *GPUHandler {
	return &GPUHandler{
		gpuRepo:    gpuRepo,
		serverRepo: serverRepo,
	}
}

// ListGPUs godoc
// @Summary List all GPUs
// @Description Get every GPU with its configured capacity and current running worker count
// @Tags gpus
// @Accept json
// @Produce json
// @Success 200 {object} dto.GPUListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/gpus [get]
func (h *GPUHandler) ListGPUs(c *gin.Context) {
	gpus, err := h.gpuRepo.ListWithLoad(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGPUListResponse(gpus))
}

// ListServers godoc
// @Summary List GPU servers
// @Description Get every GPU server known to the orchestrator
// @Tags gpus
// @Accept json
// @Produce json
// @Success 200 {object} dto.ServerListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/servers [get]
func (h *GPUHandler) ListServers(c *gin.Context) {
	servers, err := h.serverRepo.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToServerListResponse(servers))
}
