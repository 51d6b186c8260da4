package orchestrator

import (
	"context"
	"log/slog"
	"sync"
)

// step is one side effect an operation performed outside its transaction,
// paired with the action that undoes it
type step struct {
	name string

	// always steps run even when compensation is disabled
	always bool

	undo func(ctx context.Context) error

	// skip runs instead of undo when compensation is disabled
	skip func(ctx context.Context)

	dropped bool
}

// saga collects the side effects of one operation so a failed operation can
// undo them in reverse order
type saga struct {
	mu     sync.Mutex
	steps  []*step
	logger *slog.Logger
}

func newSaga(logger *slog.Logger) *saga {
	return &saga{logger: logger}
}

// add records a step and returns a handle to drop it later
func (s *saga) add(st *step) *step {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, st)
	return st
}

// drop removes a step whose effect another step has taken over
func (s *saga) drop(st *step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.dropped = true
}

// dropAll drops every step recorded so far
func (s *saga) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.steps {
		st.dropped = true
	}
}

func (s *saga) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, st := range s.steps {
		if !st.dropped {
			n++
		}
	}
	return n
}

// rollback runs the recorded steps newest first and returns how many undo
// actions succeeded
func (s *saga) rollback(ctx context.Context, compensate bool) (undone int, failures []error) {
	s.mu.Lock()
	steps := make([]*step, len(s.steps))
	copy(steps, s.steps)
	s.mu.Unlock()

	for i := len(steps) - 1; i >= 0; i-- {
		st := steps[i]
		if st.dropped {
			continue
		}
		if !compensate && !st.always {
			if st.skip != nil {
				st.skip(ctx)
			}
			continue
		}
		if err := st.undo(ctx); err != nil {
			s.logger.Error("Compensation failed", "step", st.name, "error", err)
			failures = append(failures, err)
			if st.skip != nil {
				st.skip(ctx)
			}
			continue
		}
		undone++
		s.logger.Info("Compensated", "step", st.name)
	}
	return undone, failures
}
