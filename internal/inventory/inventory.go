// Package inventory loads the GPU server fleet from a YAML file and seeds it
// into the store.
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// Inventory is the declared hardware of the fleet
type Inventory struct {
	Servers []Server `yaml:"servers"`
}

// Server is one GPU host. Name defaults to gpu-server-<id> when empty and
// must match a runtime server name to receive workers.
type Server struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	GPUs []GPU  `yaml:"gpus"`
}

// GPU is one device on a server
type GPU struct {
	DeviceID   int            `yaml:"device_id"`
	Type       domain.GPUType `yaml:"type"`
	VRAMTotal  int            `yaml:"vram_total"`
	MaxWorkers int            `yaml:"max_workers"`
}

// Load reads and validates an inventory file
func Load(path string) (*Inventory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates an inventory document
func Parse(raw []byte) (*Inventory, error) {
	var inv Inventory
	if err := yaml.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("%w: inventory: %v", domain.ErrInvalidInput, err)
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Validate checks server names and GPU definitions
func (inv *Inventory) Validate() error {
	names := make(map[string]bool)
	for i, s := range inv.Servers {
		if s.Host == "" {
			return fmt.Errorf("%w: server %d has no host", domain.ErrInvalidInput, i)
		}
		if s.Name != "" {
			if names[s.Name] {
				return fmt.Errorf("%w: duplicate server name %q", domain.ErrInvalidInput, s.Name)
			}
			names[s.Name] = true
		}
		devices := make(map[int]bool)
		for _, g := range s.GPUs {
			if !g.Type.Valid() {
				return fmt.Errorf("%w: server %q: unknown gpu type %q", domain.ErrInvalidInput, s.Host, g.Type)
			}
			if g.MaxWorkers <= 0 {
				return fmt.Errorf("%w: server %q: gpu %d needs max_workers > 0", domain.ErrInvalidInput, s.Host, g.DeviceID)
			}
			if devices[g.DeviceID] {
				return fmt.Errorf("%w: server %q: duplicate device %d", domain.ErrInvalidInput, s.Host, g.DeviceID)
			}
			devices[g.DeviceID] = true
		}
	}
	return nil
}

// Seed inserts the inventory in one transaction. It does nothing when the
// store already has servers, so restarts keep existing ids.
func Seed(ctx context.Context, db storage.Database, inv *Inventory, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "inventory")

	existing, err := db.Servers().List(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		logger.Info("Inventory already present, skipping seed", "servers", len(existing))
		return false, nil
	}

	gpus := 0
	err = db.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		for _, s := range inv.Servers {
			serverID, err := tx.Servers().Create(ctx, &domain.GPUServer{
				Name:     s.Name,
				Host:     s.Host,
				GPUCount: len(s.GPUs),
			})
			if err != nil {
				return fmt.Errorf("create server %s: %w", s.Host, err)
			}
			for _, g := range s.GPUs {
				if _, err := tx.GPUs().Create(ctx, &domain.GPU{
					ServerID:   serverID,
					DeviceID:   g.DeviceID,
					Type:       g.Type,
					VRAMTotal:  g.VRAMTotal,
					MaxWorkers: g.MaxWorkers,
				}); err != nil {
					return fmt.Errorf("create gpu %d on %s: %w", g.DeviceID, s.Host, err)
				}
				gpus++
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.Info("Inventory seeded", "servers", len(inv.Servers), "gpus", gpus)
	return true, nil
}
