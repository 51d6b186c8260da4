package inmemory

import (
	"context"
	"sync"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// state is one consistent snapshot of every table
type state struct {
	deployments map[uint]*domain.Deployment
	workers     map[uint]*domain.Worker
	gpus        map[uint]*domain.GPU
	servers     map[uint]*domain.GPUServer

	// seq is shared by every snapshot, so ids handed out by a rolled back
	// transaction are never reused
	seq *sequences
}

// sequences are the next id of every table. They are only advanced by
// writes, which hold the database's transaction lock.
type sequences struct {
	deployment uint
	worker     uint
	gpu        uint
	server     uint
}

func newState() *state {
	return &state{
		deployments: make(map[uint]*domain.Deployment),
		workers:     make(map[uint]*domain.Worker),
		gpus:        make(map[uint]*domain.GPU),
		servers:     make(map[uint]*domain.GPUServer),
		seq:         &sequences{deployment: 1, worker: 1, gpu: 1, server: 1},
	}
}

func (s *state) clone() *state {
	c := &state{
		deployments: make(map[uint]*domain.Deployment, len(s.deployments)),
		workers:     make(map[uint]*domain.Worker, len(s.workers)),
		gpus:        make(map[uint]*domain.GPU, len(s.gpus)),
		servers:     make(map[uint]*domain.GPUServer, len(s.servers)),
		seq:         s.seq,
	}
	for id, d := range s.deployments {
		cp := *d
		c.deployments[id] = &cp
	}
	for id, w := range s.workers {
		cp := *w
		c.workers[id] = &cp
	}
	for id, g := range s.gpus {
		cp := *g
		c.gpus[id] = &cp
	}
	for id, srv := range s.servers {
		cp := *srv
		c.servers[id] = &cp
	}
	return c
}

// runningCount returns the number of running workers on a GPU
func (s *state) runningCount(gpuID uint) int {
	n := 0
	for _, w := range s.workers {
		if w.GPUID == gpuID && w.Status == domain.WorkerRunning {
			n++
		}
	}
	return n
}

// session is an open transaction: a private copy of the state that replaces
// the committed one when the transaction succeeds.
type session struct {
	mu    sync.Mutex
	owner *Database
	state *state
}

type sessionKey struct{}

// Database is an in-memory implementation of storage.Database.
// Transactions are serialized and isolated by copy-on-write; a transaction
// started while another is open waits for it to finish.
type Database struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	state *state

	deployments *DeploymentRepository
	workers     *WorkerRepository
	gpus        *GPURepository
	servers     *ServerRepository
}

// NewDatabase creates an empty in-memory database
func NewDatabase() *Database {
	db := &Database{state: newState()}
	db.deployments = &DeploymentRepository{db: db}
	db.workers = &WorkerRepository{db: db}
	db.gpus = &GPURepository{db: db}
	db.servers = &ServerRepository{db: db}
	return db
}

func (db *Database) Deployments() storage.DeploymentRepository { return db.deployments }
func (db *Database) Workers() storage.WorkerRepository         { return db.workers }
func (db *Database) GPUs() storage.GPURepository               { return db.gpus }
func (db *Database) Servers() storage.ServerRepository         { return db.servers }

// WithinTx runs fn against a private copy of the data and publishes the copy
// only when fn returns nil. A ctx that already carries a transaction of this
// database joins it.
func (db *Database) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Store) error) error {
	if db.session(ctx) != nil {
		return fn(ctx, db)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	sess := &session{owner: db, state: db.state.clone()}
	db.mu.RUnlock()

	txCtx := context.WithValue(ctx, sessionKey{}, sess)
	if err := fn(txCtx, db); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	db.state = sess.state
	db.mu.Unlock()
	return nil
}

// Close is a no-op
func (db *Database) Close() error {
	return nil
}

// Clear removes all data
// Useful for testing
func (db *Database) Clear() {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	db.mu.Lock()
	db.state = newState()
	db.mu.Unlock()
}

func (db *Database) session(ctx context.Context) *session {
	sess, ok := ctx.Value(sessionKey{}).(*session)
	if !ok || sess.owner != db {
		return nil
	}
	return sess
}

// read runs fn against the transaction state when ctx carries one, otherwise
// against the committed state.
func (db *Database) read(ctx context.Context, fn func(st *state)) {
	if sess := db.session(ctx); sess != nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		fn(sess.state)
		return
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	fn(db.state)
}

// write runs fn inside the caller's transaction, or inside a fresh one so a
// failed write never leaves partial changes behind.
func (db *Database) write(ctx context.Context, fn func(st *state) error) error {
	if sess := db.session(ctx); sess != nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return fn(sess.state)
	}
	return db.WithinTx(ctx, func(ctx context.Context, _ storage.Store) error {
		return db.write(ctx, fn)
	})
}
