package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JEMeyer/ai-maestro/internal/api/handlers"
	"github.com/JEMeyer/ai-maestro/internal/api/middleware"
	"github.com/JEMeyer/ai-maestro/internal/storage"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the services the HTTP API exposes
type Dependencies struct {
	Deployments handlers.DeploymentService
	Events      storage.EventRepository
	GPUs        storage.GPURepository
	Servers     storage.ServerRepository

	// Metrics serves /metrics when set
	Metrics http.Handler
}

// Router manages API routing and handlers
type Router struct {
	engine            *gin.Engine
	deploymentHandler *handlers.DeploymentHandler
	gpuHandler        *handlers.GPUHandler
	metrics           http.Handler
}

// NewRouter creates a new API router with all handlers initialized
func NewRouter(deps Dependencies) *Router {
	router := &Router{
		engine:            gin.New(),
		deploymentHandler: handlers.NewDeploymentHandler(deps.Deployments, deps.Events),
		gpuHandler:        handlers.NewGPUHandler(deps.GPUs, deps.Servers),
		metrics:           deps.Metrics,
	}

	router.setupMiddleware()
	router.setupRoutes()

	return router
}

// setupMiddleware configures global middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.LoggingMiddleware())
	r.engine.Use(middleware.ErrorHandlerMiddleware())
	r.engine.Use(gin.Recovery())
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
		})
	})

	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics))
	}

	// Swagger UI - serves OpenAPI documentation at /swagger/index.html
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.engine.Group("/api/v1")
	{
		deployments := v1.Group("/deployments")
		{
			deployments.POST("", r.deploymentHandler.CreateDeployment)
			deployments.GET("", r.deploymentHandler.ListDeployments)
			deployments.GET("/:id", r.deploymentHandler.GetDeployment)
			deployments.DELETE("/:id", r.deploymentHandler.DeleteDeployment)
			deployments.POST("/:id/move", r.deploymentHandler.MoveDeployment)
			deployments.GET("/:id/events", r.deploymentHandler.GetDeploymentEvents)
		}

		v1.GET("/gpus", r.gpuHandler.ListGPUs)
		v1.GET("/servers", r.gpuHandler.ListServers)
	}
}

// Engine returns the underlying Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
