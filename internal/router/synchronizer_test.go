package router

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/runtime"
	"github.com/JEMeyer/ai-maestro/internal/runtime/mocks"
)

// MockClient records every applied config
type MockClient struct {
	mu             sync.Mutex
	Calls          [][]string
	ApplyConfigErr error
}

func (m *MockClient) ApplyConfig(ctx context.Context, addrs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, addrs)
	return m.ApplyConfigErr
}

func TestPushWorkerSet_FullOverwrite(t *testing.T) {
	client := &MockClient{}
	s := NewSynchronizer(client, nil, ContainerOptions{}, nil)

	err := s.PushWorkerSet(context.Background(), []domain.WorkerAddress{
		{ServerName: "gpu-server-2", Port: 8002},
		{ServerName: "gpu-server-1", Port: 8001},
	})
	require.NoError(t, err)

	err = s.PushWorkerSet(context.Background(), []domain.WorkerAddress{
		{ServerName: "gpu-server-1", Port: 8001},
	})
	require.NoError(t, err)

	require.Len(t, client.Calls, 2)
	assert.Equal(t, []string{"gpu-server-1:8001", "gpu-server-2:8002"}, client.Calls[0])
	assert.Equal(t, []string{"gpu-server-1:8001"}, client.Calls[1])
	assert.Equal(t, []string{"gpu-server-1:8001"}, s.LastPushed())
}

func TestPushWorkerSet_Failure(t *testing.T) {
	client := &MockClient{ApplyConfigErr: errors.New("connection refused")}
	s := NewSynchronizer(client, nil, ContainerOptions{}, nil)

	err := s.PushWorkerSet(context.Background(), []domain.WorkerAddress{{ServerName: "a", Port: 1}})
	assert.ErrorIs(t, err, domain.ErrRouterUpdate)
	assert.Empty(t, s.LastPushed())
}

func TestInitialize_RecreatesRouterContainer(t *testing.T) {
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockClient(ctrl)
	s := NewSynchronizer(&MockClient{}, rt, ContainerOptions{Name: "vllm-router", Image: "vllm/vllm-openai:latest", Port: 8000}, nil)

	gomock.InOrder(
		rt.EXPECT().StopContainer(gomock.Any(), runtime.LocalServer, "vllm-router").Return(nil),
		rt.EXPECT().CreateContainer(gomock.Any(), runtime.LocalServer, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, spec runtime.ContainerSpec) (runtime.ContainerInfo, error) {
				assert.Equal(t, "vllm-router", spec.Name)
				assert.Equal(t, []int{8000}, spec.Ports)
				assert.Contains(t, spec.Env, "ROUTER_ONLY=True")
				assert.Contains(t, spec.Env, "WORKER_ADDRESSES=")
				assert.Empty(t, spec.GPUDeviceIDs)
				return runtime.ContainerInfo{ID: "r1", Name: spec.Name}, nil
			}),
		rt.EXPECT().UpdateContainer(gomock.Any(), runtime.LocalServer, "vllm-router", runtime.UpdateSpec{RestartPolicy: "unless-stopped"}).Return(nil),
	)

	require.NoError(t, s.Initialize(context.Background()))
}

func TestInitialize_CreateFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockClient(ctrl)
	s := NewSynchronizer(&MockClient{}, rt, ContainerOptions{Name: "vllm-router", Image: "img", Port: 8000}, nil)

	rt.EXPECT().StopContainer(gomock.Any(), runtime.LocalServer, "vllm-router").Return(nil)
	rt.EXPECT().CreateContainer(gomock.Any(), runtime.LocalServer, gomock.Any()).Return(runtime.ContainerInfo{}, errors.New("port in use"))

	err := s.Initialize(context.Background())
	assert.ErrorIs(t, err, domain.ErrRouterUpdate)
}

func TestInitialize_WithoutRuntime(t *testing.T) {
	s := NewSynchronizer(&MockClient{}, nil, ContainerOptions{}, nil)
	assert.ErrorIs(t, s.Initialize(context.Background()), domain.ErrRouterUpdate)
}
