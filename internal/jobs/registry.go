package jobs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownJobType is returned when a persisted job row references a
// type no factory has been registered for.
var ErrUnknownJobType = errors.New("unknown job type")

// Factory rebuilds an executable Job from a persisted row. The payload
// is the JSON the job serialized when it was first submitted.
type Factory func(id uuid.UUID, payload []byte) (Job, error)

// Registry maps job types to factories so the store can turn recovered
// rows back into executable jobs. Rows persist across restarts; without
// a factory a recovered row has no execution logic attached.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register associates a job type with its factory. Registering the same
// type twice replaces the earlier factory.
func (r *Registry) Register(jobType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[jobType] = factory
}

// Resolve rebuilds a Job from its persisted form. Returns
// ErrUnknownJobType when no factory is registered for the type.
func (r *Registry) Resolve(jobType string, id uuid.UUID, payload []byte) (Job, error) {
	r.mu.RLock()
	factory, ok := r.factories[jobType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJobType, jobType)
	}

	return factory(id, payload)
}
