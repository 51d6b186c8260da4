// Package portpool hands out worker TCP ports from a fixed circular range.
//
// The pool is process local. After a restart the in-use set must be rebuilt
// from the persisted running workers with MarkInUse before Next is called.
package portpool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// Pool is a bounded circular range [base, max] of ports
type Pool struct {
	mu     sync.Mutex
	base   int
	max    int
	cursor int
	inUse  map[int]struct{}
}

// New creates a pool over the inclusive range [base, max]
func New(base, max int) (*Pool, error) {
	if base <= 0 || max > 65535 || base > max {
		return nil, fmt.Errorf("%w: port range %d-%d", domain.ErrInvalidInput, base, max)
	}
	return &Pool{
		base:   base,
		max:    max,
		cursor: base,
		inUse:  make(map[int]struct{}),
	}, nil
}

// Next returns the next free port at or after the cursor, wrapping to base
// after max, and marks it in use. It fails with domain.ErrPortsExhausted when
// a full cycle finds nothing free.
func (p *Pool) Next() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < p.size(); i++ {
		port := p.cursor
		p.cursor++
		if p.cursor > p.max {
			p.cursor = p.base
		}
		if _, taken := p.inUse[port]; !taken {
			p.inUse[port] = struct{}{}
			return port, nil
		}
	}
	return 0, domain.ErrPortsExhausted
}

// Release returns a port to the pool. Releasing a free or out-of-range port is a no-op.
func (p *Pool) Release(port int) {
	p.mu.Lock()
	delete(p.inUse, port)
	p.mu.Unlock()
}

// MarkInUse records a port as taken without moving the cursor.
// Used when rebuilding the pool from persisted workers.
func (p *Pool) MarkInUse(port int) error {
	if port < p.base || port > p.max {
		return fmt.Errorf("%w: port %d outside pool range %d-%d", domain.ErrInvalidInput, port, p.base, p.max)
	}
	p.mu.Lock()
	p.inUse[port] = struct{}{}
	p.mu.Unlock()
	return nil
}

// IsInUse reports whether port is currently allocated
func (p *Pool) IsInUse(port int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inUse[port]
	return ok
}

// InUse returns the allocated ports in ascending order
func (p *Pool) InUse() []int {
	p.mu.Lock()
	ports := make([]int, 0, len(p.inUse))
	for port := range p.inUse {
		ports = append(ports, port)
	}
	p.mu.Unlock()
	sort.Ints(ports)
	return ports
}

// Stats reports the pool size and how many ports are allocated
func (p *Pool) Stats() (total, inUse int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size(), len(p.inUse)
}

func (p *Pool) size() int {
	return p.max - p.base + 1
}
