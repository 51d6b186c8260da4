//go:build e2e

// Package e2e drives a running orchestrator over HTTP. Start the stack with
// an inventory file and reachable GPU servers, then run
//
//	E2E_API_URL=http://localhost:3000 go test -tags e2e ./test/e2e/...
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	maxWaitDuration = 120 * time.Second
	pollInterval    = 2 * time.Second
)

type gpu struct {
	ID             uint   `json:"id"`
	Type           string `json:"type"`
	MaxWorkers     int    `json:"max_workers"`
	CurrentWorkers int    `json:"current_workers"`
}

type worker struct {
	GPUID   uint   `json:"gpu_id"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

type deployment struct {
	ID      uint      `json:"id"`
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Workers []*worker `json:"workers"`
}

type event struct {
	Type string `json:"type"`
}

func baseURL() string {
	if u := os.Getenv("E2E_API_URL"); u != "" {
		return u
	}
	return "http://localhost:3000"
}

func call(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL()+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func listGPUs(t *testing.T) []gpu {
	var resp struct {
		GPUs []gpu `json:"gpus"`
	}
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, "/api/v1/gpus", nil, &resp))
	return resp.GPUs
}

func TestHealth(t *testing.T) {
	var body map[string]any
	assert.Equal(t, http.StatusOK, call(t, http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestSwaggerDocs(t *testing.T) {
	assert.Equal(t, http.StatusOK, call(t, http.MethodGet, "/swagger/index.html", nil, nil))
}

func TestDeploymentLifecycle(t *testing.T) {
	require.Eventually(t, func() bool {
		return len(listGPUs(t)) > 0
	}, maxWaitDuration, pollInterval, "no GPUs in inventory")

	gpus := listGPUs(t)
	free := 0
	for _, g := range gpus {
		free += g.MaxWorkers - g.CurrentWorkers
	}
	if free == 0 {
		t.Skip("fleet has no free GPU capacity")
	}

	name := fmt.Sprintf("e2e-%d", time.Now().Unix())
	var created struct {
		ID uint `json:"id"`
	}
	status := call(t, http.MethodPost, "/api/v1/deployments", map[string]any{
		"name":            name,
		"model_id":        "facebook/opt-125m",
		"workers_per_gpu": 1,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotZero(t, created.ID)

	path := fmt.Sprintf("/api/v1/deployments/%d", created.ID)
	t.Cleanup(func() {
		call(t, http.MethodDelete, path, nil, nil)
	})

	var d deployment
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, path, nil, &d))
	assert.Equal(t, name, d.Name)
	assert.Equal(t, "running", d.Status)
	require.NotEmpty(t, d.Workers)
	for _, w := range d.Workers {
		assert.Equal(t, "running", w.Status)
		assert.NotEmpty(t, w.Address)
	}

	// no GPU runs more workers than its capacity
	for _, g := range listGPUs(t) {
		assert.LessOrEqual(t, g.CurrentWorkers, g.MaxWorkers, "gpu %d overbooked", g.ID)
	}

	require.Equal(t, http.StatusNoContent, call(t, http.MethodDelete, path, nil, nil))
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, path, nil, &d))
	assert.Equal(t, "deleted", d.Status)
	assert.Equal(t, http.StatusConflict, call(t, http.MethodDelete, path, nil, nil))

	require.Eventually(t, func() bool {
		var resp struct {
			Events []event `json:"events"`
		}
		if call(t, http.MethodGet, path+"/events", nil, &resp) != http.StatusOK {
			return false
		}
		types := make(map[string]bool)
		for _, e := range resp.Events {
			types[e.Type] = true
		}
		return types["created"] && types["deleted"]
	}, 30*time.Second, pollInterval, "lifecycle events were not journaled")
}

func TestUnknownDeployment(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, call(t, http.MethodGet, "/api/v1/deployments/999999", nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, http.MethodGet, "/api/v1/deployments/abc", nil, nil))
}
