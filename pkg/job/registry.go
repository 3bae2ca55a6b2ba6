package job

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Performer executes a job immediately. Mailers and notifiers implement it so
// a worker can rebuild them from a descriptor.
type Performer interface {
	Name() string
	Perform(ctx context.Context, j Job) error
}

// Registry maps handler names to performers.
// All methods are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	performers map[string]Performer
}

// NewRegistry creates a registry pre-filled with performers.
func NewRegistry(performers ...Performer) *Registry {
	r := &Registry{performers: make(map[string]Performer, len(performers))}
	r.Register(performers...)
	return r
}

// Register adds performers, replacing any previous entry with the same name.
// Nil performers are ignored.
func (r *Registry) Register(performers ...Performer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range performers {
		if p == nil {
			continue
		}
		r.performers[p.Name()] = p
	}
}

// Lookup returns the performer registered under name.
func (r *Registry) Lookup(name string) (Performer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.performers[name]
	return p, ok
}

// Names returns registered handler names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.performers))
	for name := range r.performers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Perform routes j to its performer.
func (r *Registry) Perform(ctx context.Context, j Job) error {
	if err := j.Validate(); err != nil {
		return err
	}
	p, ok := r.Lookup(j.Handler)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandler, j.Handler)
	}
	return p.Perform(ctx, j)
}
