package orchestrator_test

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/fleet"
	"github.com/JEMeyer/ai-maestro/internal/lock"
	"github.com/JEMeyer/ai-maestro/internal/orchestrator"
	"github.com/JEMeyer/ai-maestro/internal/portpool"
	"github.com/JEMeyer/ai-maestro/internal/runtime"
	"github.com/JEMeyer/ai-maestro/internal/storage/inmemory"
)

var errBoom = errors.New("boom")

// fakeFleet keeps containers in memory, keyed by server and container name
type fakeFleet struct {
	mu         sync.Mutex
	servers    []string
	containers map[string]map[string]runtime.ContainerInfo
	stops      int

	// LaunchErr, when set, decides whether a launch fails
	LaunchErr func(alloc domain.GPUAllocation) error

	// StopErr, when set, decides whether a stop fails and leaves the
	// container running
	StopErr func(w *domain.Worker) error
}

func newFakeFleet(servers ...string) *fakeFleet {
	return &fakeFleet{
		servers:    servers,
		containers: make(map[string]map[string]runtime.ContainerInfo),
	}
}

func (f *fakeFleet) Launch(_ context.Context, deploymentID uint, alloc domain.GPUAllocation) (*domain.Worker, error) {
	if f.LaunchErr != nil {
		if err := f.LaunchErr(alloc); err != nil {
			return nil, errors.Join(domain.ErrContainerLaunch, err)
		}
	}
	name := fleet.ContainerName(deploymentID, alloc.GPUID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(alloc.ServerName, name, deploymentID)
	return &domain.Worker{
		DeploymentID: deploymentID,
		GPUID:        alloc.GPUID,
		ServerName:   alloc.ServerName,
		ContainerID:  "c-" + name,
		Port:         alloc.Port,
		Status:       domain.WorkerRunning,
	}, nil
}

func (f *fakeFleet) put(server, name string, deploymentID uint) {
	if f.containers[server] == nil {
		f.containers[server] = make(map[string]runtime.ContainerInfo)
	}
	f.containers[server][name] = runtime.ContainerInfo{
		ID:    "c-" + name,
		Name:  name,
		State: "running",
		Labels: map[string]string{
			runtime.LabelManaged:    "true",
			runtime.LabelDeployment: strconv.FormatUint(uint64(deploymentID), 10),
			runtime.LabelRole:       fleet.RoleWorker,
		},
	}
}

func (f *fakeFleet) Stop(_ context.Context, w *domain.Worker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StopErr != nil {
		if err := f.StopErr(w); err != nil {
			return err
		}
	}
	f.stops++
	delete(f.containers[w.ServerName], fleet.ContainerName(w.DeploymentID, w.GPUID))
	return nil
}

func (f *fakeFleet) ListManaged(_ context.Context, server string) ([]runtime.ContainerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runtime.ContainerInfo, 0, len(f.containers[server]))
	for _, c := range f.containers[server] {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeFleet) Servers() []string {
	return f.servers
}

func (f *fakeFleet) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, cs := range f.containers {
		n += len(cs)
	}
	return n
}

// fakeRouter records every pushed address set
type fakeRouter struct {
	mu     sync.Mutex
	pushes [][]string

	// PushErr, when set, decides whether push number n (from 1) fails
	PushErr func(n int) error
}

func (r *fakeRouter) PushWorkerSet(_ context.Context, addrs []domain.WorkerAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := domain.AddressStrings(addrs)
	sort.Strings(set)
	r.pushes = append(r.pushes, set)
	if r.PushErr != nil {
		return r.PushErr(len(r.pushes))
	}
	return nil
}

func (r *fakeRouter) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pushes) == 0 {
		return nil
	}
	return r.pushes[len(r.pushes)-1]
}

func (r *fakeRouter) all() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.pushes...)
}

// recordingEmitter keeps emitted events in order
type recordingEmitter struct {
	mu     sync.Mutex
	events []domain.DeploymentEvent
}

func (e *recordingEmitter) Emit(_ context.Context, event domain.DeploymentEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) ofType(t domain.EventType) []domain.DeploymentEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.DeploymentEvent
	for _, ev := range e.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	db     *inmemory.Database
	pool   *portpool.Pool
	fleet  *fakeFleet
	router *fakeRouter
	events *recordingEmitter
	locker *lock.MemoryLocker
	gpus   []uint
	orch   *orchestrator.Orchestrator
}

// newTestEnv seeds gpu-server-1 with the given GPUs and wires an orchestrator
// over a port pool of [base, max]
func newTestEnv(t *testing.T, base, max int, opts orchestrator.Options, gpus ...domain.GPU) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := inmemory.NewDatabase()
	serverID, err := db.Servers().Create(ctx, &domain.GPUServer{Host: "10.0.0.1", GPUCount: len(gpus)})
	require.NoError(t, err)

	ids := make([]uint, 0, len(gpus))
	for i := range gpus {
		gpus[i].ServerID = serverID
		gpus[i].DeviceID = i
		id, err := db.GPUs().Create(ctx, &gpus[i])
		require.NoError(t, err)
		ids = append(ids, id)
	}

	pool, err := portpool.New(base, max)
	require.NoError(t, err)

	env := &testEnv{
		db:     db,
		pool:   pool,
		fleet:  newFakeFleet(domain.ServerNameFor(serverID)),
		router: &fakeRouter{},
		events: &recordingEmitter{},
		locker: lock.NewMemoryLocker(nil),
		gpus:   ids,
	}
	env.orch = env.build(opts)
	return env
}

// build wires a fresh orchestrator over the env's collaborators
func (e *testEnv) build(opts orchestrator.Options) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Dependencies{
		DB:     e.db,
		Ports:  e.pool,
		Fleet:  e.fleet,
		Router: e.router,
		Locker: e.locker,
		Events: e.events,
	}, opts, nil)
}

func gpu(t domain.GPUType, maxWorkers int) domain.GPU {
	return domain.GPU{Type: t, VRAMTotal: 24, MaxWorkers: maxWorkers}
}

func runningWorkers(t *testing.T, e *testEnv, deploymentID uint) []*domain.Worker {
	t.Helper()
	all, err := e.db.Workers().ListByDeployment(context.Background(), deploymentID)
	require.NoError(t, err)
	var out []*domain.Worker
	for _, w := range all {
		if w.Status == domain.WorkerRunning {
			out = append(out, w)
		}
	}
	return out
}

func addresses(workers []*domain.Worker) []string {
	out := make([]string, 0, len(workers))
	for _, w := range workers {
		out = append(out, w.Address())
	}
	return out
}

func kindOf(t *testing.T, err error) domain.ErrorKind {
	t.Helper()
	var opErr *domain.OperationError
	require.ErrorAs(t, err, &opErr)
	return opErr.Kind
}
