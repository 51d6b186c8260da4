package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JEMeyer/ai-maestro/internal/api/dto"
	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/orchestrator"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// DeploymentService is the part of the orchestrator the API drives
type DeploymentService interface {
	CreateDeployment(ctx context.Context, req orchestrator.CreateDeploymentRequest) (uint, error)
	MoveDeployment(ctx context.Context, id uint, targetGPUIDs []uint) error
	DeleteDeployment(ctx context.Context, id uint) error
	GetDeployment(ctx context.Context, id uint) (*orchestrator.DeploymentDetail, error)
	ListDeployments(ctx context.Context) ([]*domain.Deployment, error)
}

// DeploymentHandler handles deployment lifecycle requests
type DeploymentHandler struct {
	service DeploymentService
	events  storage.EventRepository
}

// NewDeploymentHandler creates a new deployment handler
func NewDeploymentHandler(service DeploymentService, events storage.EventRepository) *DeploymentHandler {
	return &DeploymentHandler{
		service: service,
		events:  events,
	}
}

// CreateDeployment godoc
// @Summary Create a deployment
// @Description Allocate GPUs, launch one worker per GPU and add the workers to the router
// @Tags deployments
// @Accept json
// @Produce json
// @Param request body dto.CreateDeploymentRequest true "Deployment to create"
// @Success 201 {object} dto.CreateDeploymentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/deployments [post]
func (h *DeploymentHandler) CreateDeployment(c *gin.Context) {
	var req dto.CreateDeploymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	id, err := h.service.CreateDeployment(c.Request.Context(), orchestrator.CreateDeploymentRequest{
		Name:          req.Name,
		ModelID:       req.ModelID,
		GPUType:       domain.GPUType(req.GPUType),
		WorkersPerGPU: req.WorkersPerGPU,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateDeploymentResponse{ID: id})
}

// ListDeployments godoc
// @Summary List deployments
// @Description Get every deployment including deleted ones
// @Tags deployments
// @Produce json
// @Success 200 {object} dto.DeploymentListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/deployments [get]
func (h *DeploymentHandler) ListDeployments(c *gin.Context) {
	deployments, err := h.service.ListDeployments(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeploymentListResponse(deployments))
}

// GetDeployment godoc
// @Summary Get a deployment
// @Description Get a deployment with all of its workers
// @Tags deployments
// @Produce json
// @Param id path int true "Deployment ID" example(7)
// @Success 200 {object} dto.DeploymentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/deployments/{id} [get]
func (h *DeploymentHandler) GetDeployment(c *gin.Context) {
	id, ok := deploymentID(c)
	if !ok {
		return
	}

	detail, err := h.service.GetDeployment(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeploymentResponse(detail.Deployment, detail.Workers))
}

// MoveDeployment godoc
// @Summary Move a deployment
// @Description Replace the deployment's workers with one worker on each target GPU. The router receives old and new workers together before old workers stop.
// @Tags deployments
// @Accept json
// @Produce json
// @Param id path int true "Deployment ID" example(7)
// @Param request body dto.MoveDeploymentRequest true "Target GPUs"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/deployments/{id}/move [post]
func (h *DeploymentHandler) MoveDeployment(c *gin.Context) {
	id, ok := deploymentID(c)
	if !ok {
		return
	}

	var req dto.MoveDeploymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	if err := h.service.MoveDeployment(c.Request.Context(), id, req.GPUIDs); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteDeployment godoc
// @Summary Delete a deployment
// @Description Stop every worker, remove them from the router and mark the deployment deleted
// @Tags deployments
// @Produce json
// @Param id path int true "Deployment ID" example(7)
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/deployments/{id} [delete]
func (h *DeploymentHandler) DeleteDeployment(c *gin.Context) {
	id, ok := deploymentID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteDeployment(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetDeploymentEvents godoc
// @Summary Get deployment events
// @Description Get the lifecycle journal of a deployment ordered by time
// @Tags deployments
// @Produce json
// @Param id path int true "Deployment ID" example(7)
// @Param since query string false "Only events at or after this RFC3339 time" example("2025-01-18T00:00:00Z")
// @Param limit query int false "Maximum number of events" example(100)
// @Success 200 {object} dto.EventListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/deployments/{id}/events [get]
func (h *DeploymentHandler) GetDeploymentEvents(c *gin.Context) {
	id, ok := deploymentID(c)
	if !ok {
		return
	}

	filter := storage.EventFilter{}

	if sinceStr := c.Query("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			badRequest(c, "Invalid since format", "Use RFC3339 format (e.g., 2023-01-01T00:00:00Z). Got: "+sinceStr)
			return
		}
		filter.Since = &since
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			badRequest(c, "Invalid limit", "limit must be a non-negative integer. Got: "+limitStr)
			return
		}
		filter.Limit = limit
	}

	events, err := h.events.ListByDeployment(c.Request.Context(), id, filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response := dto.ToEventListResponse(events, id)
	response.Since = filter.Since
	c.JSON(http.StatusOK, response)
}

func deploymentID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid deployment id", "Deployment id must be a positive integer. Got: "+raw)
		return 0, false
	}
	return uint(id), true
}

func badRequest(c *gin.Context, title, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:     title,
		Message:   message,
		Kind:      string(domain.KindInvalid),
		Timestamp: time.Now(),
	})
}
