package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Queue        QueueConfig
	Journal      JournalConfig
	PortPool     PortPoolConfig
	Runtime      RuntimeConfig
	Router       RouterConfig
	Orchestrator OrchestratorConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	GinMode         string
}

// DatabaseConfig selects and configures the persistence backend
type DatabaseConfig struct {
	Driver       string // "postgres" or "inmemory"
	URL          string
	MaxOpenConns int
	AutoMigrate  bool

	// InventoryFile is a YAML fleet description seeded into an empty store
	InventoryFile string
}

// RedisConfig holds the shared Redis connection used by the queue and the lock
type RedisConfig struct {
	URL string
}

// QueueConfig holds event bus configuration
type QueueConfig struct {
	Type        string // "inmemory" or "redis"
	BufferSize  int
	Workers     int
	EventsTopic string
}

// JournalConfig selects where lifecycle events are stored
type JournalConfig struct {
	Type          string // "inmemory" or "mongodb"
	MongoURI      string
	Database      string
	Collection    string
	MaxConcurrent int
}

// PortPoolConfig is the worker port range, inclusive on both ends
type PortPoolConfig struct {
	Base int
	Max  int
}

// RuntimeConfig configures the container runtime clients
type RuntimeConfig struct {
	// Servers maps a server name (gpu-server-N) to its docker endpoint
	Servers     map[string]string
	WorkerImage string
	CallTimeout time.Duration
}

// RouterConfig configures the router container and its admin endpoint
type RouterConfig struct {
	AdminURL      string
	ContainerName string
	Image         string
	Port          int
	Timeout       time.Duration
	Manage        bool // recreate the router container on startup
}

// OrchestratorConfig tunes the deployment workflow
type OrchestratorConfig struct {
	CompensateOnFailure bool
	LaunchConcurrency   int
	ReconcileOnStart    bool
	LockType            string // "memory" or "redis"
	LockTTL             time.Duration
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	servers, err := ParseServers(getEnv("GPU_SERVERS", ""))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("PORT", DefaultAPIPort),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", DefaultReadTimeout),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", DefaultWriteTimeout),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", DefaultIdleTimeout),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
			GinMode:         getEnv("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DATABASE_DRIVER", DefaultDatabaseDriver),
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvAsInt("DATABASE_MAX_OPEN_CONNS", DefaultMaxOpenConns),
			AutoMigrate:  getEnvAsBool("DATABASE_AUTO_MIGRATE", true),

			InventoryFile: getEnv("INVENTORY_FILE", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", DefaultRedisURL),
		},
		Queue: QueueConfig{
			Type:        getEnv("QUEUE_TYPE", DefaultQueueType),
			BufferSize:  getEnvAsInt("QUEUE_BUFFER_SIZE", DefaultQueueBufferSize),
			Workers:     getEnvAsInt("QUEUE_WORKERS", DefaultQueueWorkers),
			EventsTopic: getEnv("EVENTS_TOPIC", DefaultEventsTopic),
		},
		Journal: JournalConfig{
			Type:          getEnv("JOURNAL_TYPE", DefaultJournalType),
			MongoURI:      getEnv("MONGODB_URI", DefaultMongoURI),
			Database:      getEnv("MONGODB_DATABASE", DefaultMongoDatabase),
			Collection:    getEnv("MONGODB_EVENTS_COLLECTION", DefaultMongoEventsCollection),
			MaxConcurrent: getEnvAsInt("JOURNAL_MAX_CONCURRENT", DefaultJournalMaxConcurrent),
		},
		PortPool: PortPoolConfig{
			Base: getEnvAsInt("PORT_POOL_BASE", DefaultPortBase),
			Max:  getEnvAsInt("PORT_POOL_MAX", DefaultPortMax),
		},
		Runtime: RuntimeConfig{
			Servers:     servers,
			WorkerImage: getEnv("VLLM_IMAGE", DefaultWorkerImage),
			CallTimeout: getEnvAsDuration("RUNTIME_CALL_TIMEOUT", DefaultRuntimeCallTimeout),
		},
		Router: RouterConfig{
			AdminURL:      getEnv("ROUTER_ADMIN_URL", DefaultRouterAdminURL),
			ContainerName: getEnv("ROUTER_CONTAINER_NAME", DefaultRouterContainerName),
			Image:         getEnv("ROUTER_IMAGE", getEnv("VLLM_IMAGE", DefaultWorkerImage)),
			Port:          getEnvAsInt("ROUTER_PORT", DefaultRouterPort),
			Timeout:       getEnvAsDuration("ROUTER_TIMEOUT", DefaultRouterTimeout),
			Manage:        getEnvAsBool("ROUTER_MANAGE", false),
		},
		Orchestrator: OrchestratorConfig{
			CompensateOnFailure: getEnvAsBool("COMPENSATE_ON_FAILURE", DefaultCompensateOnFailure),
			LaunchConcurrency:   getEnvAsInt("LAUNCH_CONCURRENCY", DefaultLaunchConcurrency),
			ReconcileOnStart:    getEnvAsBool("RECONCILE_ON_START", true),
			LockType:            getEnv("LOCK_TYPE", DefaultLockType),
			LockTTL:             getEnvAsDuration("LOCK_TTL", DefaultLockTTL),
		},
	}

	return config, nil
}

// ParseServers parses "name=endpoint,name=endpoint" into a map.
// An empty string yields an empty map.
func ParseServers(raw string) (map[string]string, error) {
	servers := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return servers, nil
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, endpoint, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		endpoint = strings.TrimSpace(endpoint)
		if !ok || name == "" || endpoint == "" {
			return nil, fmt.Errorf("invalid GPU_SERVERS entry %q: expected name=endpoint", entry)
		}
		if _, dup := servers[name]; dup {
			return nil, fmt.Errorf("duplicate GPU_SERVERS entry for %q", name)
		}
		servers[name] = endpoint
	}
	return servers, nil
}

// ServerNames returns the configured server names in sorted order
func (r RuntimeConfig) ServerNames() []string {
	names := make([]string, 0, len(r.Servers))
	for name := range r.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "inmemory":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %q", c.Database.Driver)
	}

	if c.PortPool.Base <= 0 || c.PortPool.Max > 65535 || c.PortPool.Base > c.PortPool.Max {
		return fmt.Errorf("invalid port pool range: %d-%d", c.PortPool.Base, c.PortPool.Max)
	}
	if c.Server.Port >= c.PortPool.Base && c.Server.Port <= c.PortPool.Max {
		return fmt.Errorf("server port %d overlaps the worker port pool", c.Server.Port)
	}

	if c.Queue.Type != "inmemory" && c.Queue.Type != "redis" {
		return fmt.Errorf("invalid queue type: %q", c.Queue.Type)
	}
	if c.Queue.BufferSize <= 0 {
		return fmt.Errorf("invalid queue buffer size: %d", c.Queue.BufferSize)
	}

	if c.Journal.Type != "inmemory" && c.Journal.Type != "mongodb" {
		return fmt.Errorf("invalid journal type: %q", c.Journal.Type)
	}

	if c.Orchestrator.LockType != "memory" && c.Orchestrator.LockType != "redis" {
		return fmt.Errorf("invalid lock type: %q", c.Orchestrator.LockType)
	}
	if c.Orchestrator.LaunchConcurrency <= 0 {
		return fmt.Errorf("invalid launch concurrency: %d", c.Orchestrator.LaunchConcurrency)
	}

	if c.Runtime.CallTimeout <= 0 {
		return fmt.Errorf("invalid runtime call timeout: %s", c.Runtime.CallTimeout)
	}
	if c.Router.Timeout <= 0 {
		return fmt.Errorf("invalid router timeout: %s", c.Router.Timeout)
	}

	return nil
}
