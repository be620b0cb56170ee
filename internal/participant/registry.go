package participant

import (
	"context"
	"sync"

	"github.com/thresholdwallet/mpc-core/internal/model"
)

// activeCeremony tracks one in-flight ceremony so a later coordinator-issued
// cancel request can reach it.
type activeCeremony struct {
	cancel context.CancelFunc
	kind   model.CeremonyKind
}

// Registry is the process-wide table of in-flight ceremonies: a
// mutex-guarded map keyed by CeremonyId.
type Registry struct {
	mu        sync.RWMutex
	ceremonies map[model.CeremonyId]*activeCeremony
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ceremonies: make(map[model.CeremonyId]*activeCeremony)}
}

// Start registers id as in-flight and returns a context that is cancelled
// either by the caller's ctx or by a later call to Cancel(id).
func (r *Registry) Start(ctx context.Context, id model.CeremonyId, kind model.CeremonyKind) context.Context {
	childCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.ceremonies[id] = &activeCeremony{cancel: cancel, kind: kind}
	r.mu.Unlock()

	return childCtx
}

// Finish removes id from the registry once its ceremony has reached a
// terminal state.
func (r *Registry) Finish(id model.CeremonyId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ceremonies, id)
}

// Cancel signals the ceremony identified by id to abort, if it is still
// in-flight. Returns false if no such ceremony is registered.
func (r *Registry) Cancel(id model.CeremonyId) bool {
	r.mu.RLock()
	c, ok := r.ceremonies[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	c.cancel()
	return true
}

// Active reports whether id currently names an in-flight ceremony.
func (r *Registry) Active(id model.CeremonyId) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ceremonies[id]
	return ok
}
