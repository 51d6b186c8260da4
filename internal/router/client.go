// Package router keeps the load-balancing router's upstream list in step with
// the running workers.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client applies a complete upstream list to the router in one call
type Client interface {
	ApplyConfig(ctx context.Context, addrs []string) error
}

// ConfigRequest is the body of the router admin config call
type ConfigRequest struct {
	WorkerAddresses string `json:"worker_addresses"`
}

// HTTPClient talks to the router's admin endpoint
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a client for the router admin API at baseURL
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "router_client"),
	}
}

// ApplyConfig replaces the router's upstream list with addrs
func (c *HTTPClient) ApplyConfig(ctx context.Context, addrs []string) error {
	body, err := json.Marshal(ConfigRequest{WorkerAddresses: strings.Join(addrs, ",")})
	if err != nil {
		return fmt.Errorf("failed to marshal router config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/config", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to apply router config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("router config failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	c.logger.Debug("Router config applied", "worker_count", len(addrs))
	return nil
}
