package delivery

import (
	"slices"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/job"
)

// Handler is a concrete channel implementation such as a mailer or a
// notifier class. Handlers are looked up by Name.
type Handler interface {
	Name() string
}

// Catalog is the set of handler classes known to a delivery tree. Convention
// and pattern resolvers look names up here.
// All methods are safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewCatalog creates a catalog pre-filled with handlers.
func NewCatalog(handlers ...Handler) *Catalog {
	c := &Catalog{handlers: make(map[string]Handler, len(handlers))}
	c.Register(handlers...)
	return c
}

// Register adds handlers, replacing entries with the same name.
func (c *Catalog) Register(handlers ...Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, h := range handlers {
		if h == nil {
			continue
		}
		c.handlers[h.Name()] = h
	}
}

// Unregister removes the handler registered under name.
func (c *Catalog) Unregister(name string) {
	c.mu.Lock()
	delete(c.handlers, name)
	c.mu.Unlock()
}

// Lookup returns the handler registered under name.
func (c *Catalog) Lookup(name string) (Handler, bool) {
	if c == nil || name == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	h, ok := c.handlers[name]
	return h, ok
}

// Names returns the registered names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// JobRegistry returns a job registry with every handler that can perform
// queued jobs, for use by a queue worker.
func (c *Catalog) JobRegistry() *job.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reg := job.NewRegistry()
	for _, h := range c.handlers {
		if p, ok := h.(job.Performer); ok {
			reg.Register(p)
		}
	}
	return reg
}
