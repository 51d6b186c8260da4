package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/storage/inmemory"
)

type fixedPorts struct{ total, inUse int }

func (p fixedPorts) Stats() (int, int) { return p.total, p.inUse }

func seed(t *testing.T) *inmemory.Database {
	t.Helper()
	db := inmemory.NewDatabase()
	ctx := context.Background()

	serverID, err := db.Servers().Create(ctx, &domain.GPUServer{Host: "10.0.0.1", GPUCount: 2})
	require.NoError(t, err)
	g1, err := db.GPUs().Create(ctx, &domain.GPU{ServerID: serverID, Type: domain.GPUType3090, MaxWorkers: 2})
	require.NoError(t, err)
	_, err = db.GPUs().Create(ctx, &domain.GPU{ServerID: serverID, DeviceID: 1, Type: domain.GPUTypeP100, MaxWorkers: 1})
	require.NoError(t, err)

	depID, err := db.Deployments().Create(ctx, &domain.Deployment{Name: "llama", ModelID: "meta/llama", Status: domain.DeploymentRunning})
	require.NoError(t, err)
	require.NoError(t, db.Workers().CreateBatch(ctx, []*domain.Worker{
		{DeploymentID: depID, GPUID: g1, ServerName: "gpu-server-1", Port: 8001, Status: domain.WorkerRunning},
		{DeploymentID: depID, GPUID: g1, ServerName: "gpu-server-1", Port: 8002, Status: domain.WorkerRunning},
		{DeploymentID: depID, GPUID: g1, ServerName: "gpu-server-1", Port: 8003, Status: domain.WorkerStopped},
	}))
	return db
}

func TestFleetCollector_Collect(t *testing.T) {
	c := NewFleetCollector(seed(t), fixedPorts{total: 1000, inUse: 2}, nil)

	expected := `
# HELP ai_maestro_running_workers Running workers per deployment and server.
# TYPE ai_maestro_running_workers gauge
ai_maestro_running_workers{deployment_id="1",server="gpu-server-1"} 2
# HELP ai_maestro_port_pool_in_use Ports currently assigned to workers.
# TYPE ai_maestro_port_pool_in_use gauge
ai_maestro_port_pool_in_use 2
# HELP ai_maestro_deployments Deployments by status.
# TYPE ai_maestro_deployments gauge
ai_maestro_deployments{status="running"} 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"ai_maestro_running_workers", "ai_maestro_port_pool_in_use", "ai_maestro_deployments")
	require.NoError(t, err)

	// 1 worker series, 2 gpus x 2, 1 deployment status, 2 port gauges, 1 error counter
	assert.Equal(t, 9, testutil.CollectAndCount(c))
}

func TestFleetCollector_WithoutPortStats(t *testing.T) {
	c := NewFleetCollector(inmemory.NewDatabase(), nil, nil)
	assert.Equal(t, 1, testutil.CollectAndCount(c))
}

func TestOperationMetrics_Observe(t *testing.T) {
	m := NewOperationMetrics()

	m.Observe("create", 2*time.Second, nil)
	m.Observe("create", time.Second, domain.NewOperationError("create", domain.ErrNoCapacity))
	m.Observe("delete", time.Second, errors.New("docker down"))
	m.Orphaned("gpu-server-1")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("create", "resource")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("delete", "infrastructure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orphans.WithLabelValues("gpu-server-1")))

	var nilMetrics *OperationMetrics
	assert.NotPanics(t, func() {
		nilMetrics.Observe("create", time.Second, nil)
		nilMetrics.Orphaned("x")
	})
}

func TestHandler_ServesRegistry(t *testing.T) {
	ops := NewOperationMetrics()
	ops.Observe("move", time.Second, nil)

	reg, err := NewRegistry(ops, NewFleetCollector(inmemory.NewDatabase(), fixedPorts{total: 10}, nil))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ai_maestro_operations_total{operation="move",result="success"} 1`)
	assert.Contains(t, string(body), "ai_maestro_port_pool_size 10")
	assert.Contains(t, string(body), "go_goroutines")
}
