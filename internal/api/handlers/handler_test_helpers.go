package handlers

import (
	"context"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/JEMeyer/ai-maestro/internal/api/middleware"
	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/orchestrator"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// MockDeploymentService implements DeploymentService for testing
type MockDeploymentService struct {
	CreateFunc func(ctx context.Context, req orchestrator.CreateDeploymentRequest) (uint, error)
	MoveFunc   func(ctx context.Context, id uint, gpuIDs []uint) error
	DeleteFunc func(ctx context.Context, id uint) error
	GetFunc    func(ctx context.Context, id uint) (*orchestrator.DeploymentDetail, error)
	ListFunc   func(ctx context.Context) ([]*domain.Deployment, error)
}

func (m *MockDeploymentService) CreateDeployment(ctx context.Context, req orchestrator.CreateDeploymentRequest) (uint, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return 1, nil
}

func (m *MockDeploymentService) MoveDeployment(ctx context.Context, id uint, gpuIDs []uint) error {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, id, gpuIDs)
	}
	return nil
}

func (m *MockDeploymentService) DeleteDeployment(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockDeploymentService) GetDeployment(ctx context.Context, id uint) (*orchestrator.DeploymentDetail, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockDeploymentService) ListDeployments(ctx context.Context) ([]*domain.Deployment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// MockGPURepository implements storage.GPURepository for testing
type MockGPURepository struct {
	ListWithLoadFunc func(ctx context.Context) ([]*domain.GPU, error)
}

func (m *MockGPURepository) Create(ctx context.Context, gpu *domain.GPU) (uint, error) {
	return 0, nil
}

func (m *MockGPURepository) ListWithLoad(ctx context.Context) ([]*domain.GPU, error) {
	if m.ListWithLoadFunc != nil {
		return m.ListWithLoadFunc(ctx)
	}
	return nil, nil
}

func (m *MockGPURepository) GetByIDs(ctx context.Context, ids []uint) ([]*domain.GPU, error) {
	return nil, nil
}

// MockServerRepository implements storage.ServerRepository for testing
type MockServerRepository struct {
	ListFunc func(ctx context.Context) ([]*domain.GPUServer, error)
}

func (m *MockServerRepository) Create(ctx context.Context, s *domain.GPUServer) (uint, error) {
	return 0, nil
}

func (m *MockServerRepository) GetByID(ctx context.Context, id uint) (*domain.GPUServer, error) {
	return nil, domain.ErrNotFound
}

func (m *MockServerRepository) List(ctx context.Context) ([]*domain.GPUServer, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// MockEventRepository implements storage.EventRepository for testing
type MockEventRepository struct {
	ListByDeploymentFunc func(ctx context.Context, deploymentID uint, filter storage.EventFilter) ([]*domain.DeploymentEvent, error)
}

func (m *MockEventRepository) Store(ctx context.Context, event *domain.DeploymentEvent) error {
	return nil
}

func (m *MockEventRepository) ListByDeployment(ctx context.Context, deploymentID uint, filter storage.EventFilter) ([]*domain.DeploymentEvent, error) {
	if m.ListByDeploymentFunc != nil {
		return m.ListByDeploymentFunc(ctx, deploymentID, filter)
	}
	return nil, nil
}

func (m *MockEventRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func setupGinTest() (*gin.Engine, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware())
	w := httptest.NewRecorder()
	return router, w
}
