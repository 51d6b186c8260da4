package config

import "time"

// Default configuration values
const (
	// API defaults
	DefaultAPIPort         = 3000
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Database defaults
	DefaultDatabaseDriver = "inmemory"
	DefaultMaxOpenConns   = 10

	// Port pool defaults
	DefaultPortBase = 8001
	DefaultPortMax  = 9000

	// Container runtime defaults
	DefaultWorkerImage        = "vllm/vllm-openai:latest"
	DefaultRuntimeCallTimeout = 60 * time.Second

	// Router defaults
	DefaultRouterContainerName = "vllm-router"
	DefaultRouterPort          = 8000
	DefaultRouterAdminURL      = "http://vllm-router:8000"
	DefaultRouterTimeout       = 10 * time.Second

	// Orchestrator defaults
	DefaultLaunchConcurrency   = 4
	DefaultCompensateOnFailure = true
	DefaultLockType            = "memory"
	DefaultLockTTL             = 5 * time.Minute

	// Message Queue defaults
	DefaultQueueType       = "inmemory"
	DefaultQueueBufferSize = 1000
	DefaultQueueWorkers    = 10
	DefaultEventsTopic     = "deployment.events"

	// Redis defaults
	DefaultRedisURL = "redis://localhost:6379"

	// Journal defaults
	DefaultJournalType           = "inmemory"
	DefaultMongoURI              = "mongodb://localhost:27017"
	DefaultMongoDatabase         = "ai_maestro"
	DefaultMongoEventsCollection = "deployment_events"
	DefaultJournalMaxConcurrent  = 10
	DefaultJournalListLimit      = 100
)
