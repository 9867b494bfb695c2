package database

import (
	"sync"
)

// State is the initialization state of the document store.
type State int32

const (
	StateUninitialized State = iota
	StateMigrating
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateMigrating:
		return "migrating"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Readiness tracks uninitialized -> migrating -> ready|failed. Transitions
// only move forward; a failed or ready store never goes back to migrating.
type Readiness struct {
	mu    sync.RWMutex
	state State
	err   error
	ready chan struct{}
}

func NewReadiness() *Readiness {
	return &Readiness{ready: make(chan struct{})}
}

// BeginMigration moves from uninitialized to migrating. It reports false if
// migrations were already started.
func (r *Readiness) BeginMigration() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateUninitialized {
		return false
	}
	r.state = StateMigrating
	return true
}

// MarkReady must only be called once no migration is pending.
func (r *Readiness) MarkReady() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateMigrating {
		return
	}
	r.state = StateReady
	close(r.ready)
}

func (r *Readiness) MarkFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateReady || r.state == StateFailed {
		return
	}
	r.state = StateFailed
	r.err = err
}

func (r *Readiness) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Readiness) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

func (r *Readiness) IsReady() bool {
	return r.State() == StateReady
}

// Ready is closed once the store is ready.
func (r *Readiness) Ready() <-chan struct{} {
	return r.ready
}
