package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// PortStats reports port pool usage
type PortStats interface {
	Stats() (total, inUse int)
}

// FleetCollector reads fleet state from the store on every scrape
type FleetCollector struct {
	store   storage.Store
	ports   PortStats
	timeout time.Duration
	logger  *slog.Logger

	runningWorkers *prometheus.Desc
	gpuWorkers     *prometheus.Desc
	gpuCapacity    *prometheus.Desc
	deployments    *prometheus.Desc
	portsTotal     *prometheus.Desc
	portsInUse     *prometheus.Desc
	scrapeErrors   prometheus.Counter
}

// NewFleetCollector creates a collector over store. ports may be nil.
func NewFleetCollector(store storage.Store, ports PortStats, logger *slog.Logger) *FleetCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &FleetCollector{
		store:   store,
		ports:   ports,
		timeout: 5 * time.Second,
		logger:  logger.With("component", "metrics"),

		runningWorkers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "running_workers"),
			"Running workers per deployment and server.",
			[]string{"deployment_id", "server"}, nil),
		gpuWorkers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "gpu", "workers"),
			"Running workers per GPU.",
			[]string{"gpu_id", "server_id", "gpu_type"}, nil),
		gpuCapacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "gpu", "max_workers"),
			"Configured worker capacity per GPU.",
			[]string{"gpu_id", "server_id", "gpu_type"}, nil),
		deployments: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "deployments"),
			"Deployments by status.",
			[]string{"status"}, nil),
		portsTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "port_pool", "size"),
			"Ports in the worker port range.",
			nil, nil),
		portsInUse: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "port_pool", "in_use"),
			"Ports currently assigned to workers.",
			nil, nil),
		scrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_errors_total",
			Help:      "Failed store reads while collecting fleet metrics.",
		}),
	}
}

// Describe implements prometheus.Collector
func (c *FleetCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runningWorkers
	ch <- c.gpuWorkers
	ch <- c.gpuCapacity
	ch <- c.deployments
	ch <- c.portsTotal
	ch <- c.portsInUse
	c.scrapeErrors.Describe(ch)
}

// Collect implements prometheus.Collector
func (c *FleetCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.collectWorkers(ctx, ch)
	c.collectGPUs(ctx, ch)
	c.collectDeployments(ctx, ch)

	if c.ports != nil {
		total, inUse := c.ports.Stats()
		ch <- prometheus.MustNewConstMetric(c.portsTotal, prometheus.GaugeValue, float64(total))
		ch <- prometheus.MustNewConstMetric(c.portsInUse, prometheus.GaugeValue, float64(inUse))
	}

	c.scrapeErrors.Collect(ch)
}

type workerKey struct {
	deploymentID uint
	server       string
}

func (c *FleetCollector) collectWorkers(ctx context.Context, ch chan<- prometheus.Metric) {
	workers, err := c.store.Workers().ListRunning(ctx)
	if err != nil {
		c.fail("running workers", err)
		return
	}

	counts := make(map[workerKey]int)
	for _, w := range workers {
		counts[workerKey{w.DeploymentID, w.ServerName}]++
	}
	for k, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.runningWorkers, prometheus.GaugeValue, float64(n),
			strconv.FormatUint(uint64(k.deploymentID), 10), k.server)
	}
}

func (c *FleetCollector) collectGPUs(ctx context.Context, ch chan<- prometheus.Metric) {
	gpus, err := c.store.GPUs().ListWithLoad(ctx)
	if err != nil {
		c.fail("gpus", err)
		return
	}

	for _, g := range gpus {
		labels := []string{
			strconv.FormatUint(uint64(g.ID), 10),
			strconv.FormatUint(uint64(g.ServerID), 10),
			string(g.Type),
		}
		ch <- prometheus.MustNewConstMetric(c.gpuWorkers, prometheus.GaugeValue, float64(g.CurrentWorkers), labels...)
		ch <- prometheus.MustNewConstMetric(c.gpuCapacity, prometheus.GaugeValue, float64(g.MaxWorkers), labels...)
	}
}

func (c *FleetCollector) collectDeployments(ctx context.Context, ch chan<- prometheus.Metric) {
	deployments, err := c.store.Deployments().List(ctx)
	if err != nil {
		c.fail("deployments", err)
		return
	}

	counts := make(map[string]int)
	for _, d := range deployments {
		counts[string(d.Status)]++
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.deployments, prometheus.GaugeValue, float64(n), status)
	}
}

func (c *FleetCollector) fail(what string, err error) {
	c.scrapeErrors.Inc()
	c.logger.Warn("Failed to read fleet state for metrics", "what", what, "error", err)
}
