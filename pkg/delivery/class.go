package delivery

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/callback"
)

// environment is shared by every class of one delivery tree.
type environment struct {
	catalog  *Catalog
	logger   *slog.Logger
	observer Observer

	mu  sync.RWMutex
	cfg Config
}

func (e *environment) config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// lineSet is an insertion-ordered map of lines.
type lineSet struct {
	order []string
	byID  map[string]*Line
}

func (s *lineSet) put(l *Line) {
	if _, ok := s.byID[l.id]; !ok {
		s.order = append(s.order, l.id)
	}
	s.byID[l.id] = l
}

func (s *lineSet) remove(id string) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
}

func (s *lineSet) list() []*Line {
	out := make([]*Line, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Class is a delivery class: a node in a tree rooted at NewBase. Subclasses
// inherit lines, declared actions and callbacks, and may change them without
// affecting their ancestors.
type Class struct {
	name   string
	parent *Class
	env    *environment

	mu        sync.RWMutex
	abstract  bool
	lines     *lineSet
	accessors map[string]struct{}
	declared  []string
	callbacks callback.Layer[*Record]
}

// BaseOption configures the root class and, through it, the whole tree.
type BaseOption func(*environment)

// WithCatalog sets the handler catalog used for name-based resolution.
func WithCatalog(c *Catalog) BaseOption {
	return func(e *environment) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithConfig sets the tree configuration.
func WithConfig(cfg Config) BaseOption {
	return func(e *environment) { e.cfg = cfg }
}

// WithLogger sets the logger used for dispatch events.
func WithLogger(l *slog.Logger) BaseOption {
	return func(e *environment) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver receives an Event for every line outcome.
func WithObserver(o Observer) BaseOption {
	return func(e *environment) { e.observer = o }
}

// ClassOption configures a subclass.
type ClassOption func(*Class)

// Abstract marks the class abstract: its lines never resolve a handler.
// The flag is not inherited.
func Abstract() ClassOption {
	return func(c *Class) { c.abstract = true }
}

// NewBase creates the root class of a delivery tree. Lines registered on
// the root are inherited by every class, but the root's own resolution is
// never used as a fallback.
func NewBase(opts ...BaseOption) *Class {
	env := &environment{
		catalog: NewCatalog(),
		logger:  slog.Default(),
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(env)
	}
	return &Class{name: "delivery.Base", env: env}
}

// Subclass creates a child class. name is fully qualified, with "." as the
// namespace separator, e.g. "admin.EventsDelivery".
func (c *Class) Subclass(name string, opts ...ClassOption) *Class {
	child := &Class{name: name, parent: c, env: c.env}
	for _, opt := range opts {
		opt(child)
	}
	return child
}

// Name returns the fully qualified class name.
func (c *Class) Name() string { return c.name }

// Parent returns the superclass, nil for the root.
func (c *Class) Parent() *Class { return c.parent }

// Catalog returns the tree's handler catalog.
func (c *Class) Catalog() *Catalog { return c.env.catalog }

// Config returns the tree configuration.
func (c *Class) Config() Config { return c.env.config() }

// SetConfig replaces the tree configuration.
func (c *Class) SetConfig(cfg Config) {
	c.env.mu.Lock()
	c.env.cfg = cfg
	c.env.mu.Unlock()
}

// IsAbstract reports the class's own abstract flag.
func (c *Class) IsAbstract() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.abstract
}

// SetAbstract changes the class's own abstract flag.
func (c *Class) SetAbstract(v bool) {
	c.mu.Lock()
	c.abstract = v
	c.mu.Unlock()
}

// IsSubclassOf reports whether c descends from other.
func (c *Class) IsSubclassOf(other *Class) bool {
	for p := c.parent; p != nil; p = p.parent {
		if p == other {
			return true
		}
	}
	return false
}

// registry returns the class's line set, copying the parent's lines on first
// use. Callers must not hold c.mu.
func (c *Class) registry() *lineSet {
	c.mu.RLock()
	set := c.lines
	c.mu.RUnlock()
	if set != nil {
		return set
	}

	var inherited []*Line
	if c.parent != nil {
		inherited = c.parent.Lines()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lines == nil {
		set := &lineSet{byID: make(map[string]*Line, len(inherited))}
		for _, l := range inherited {
			set.put(l.dupFor(c))
		}
		c.lines = set
	}
	return c.lines
}

// RegisterLine adds or replaces the line id on this class and defines its
// handler accessors here.
func (c *Class) RegisterLine(id string, kind Kind, opts ...LineOption) error {
	if id == "" {
		return fmt.Errorf("%w: line id is required", ErrConfiguration)
	}
	if kind == nil {
		return fmt.Errorf("%w: line %q needs a kind, e.g. MailerLine or NotifierLine", ErrConfiguration, id)
	}

	var o lineOptions
	for _, opt := range opts {
		opt(&o)
	}

	set := c.registry()
	c.mu.Lock()
	defer c.mu.Unlock()

	set.put(newLine(id, c, kind, o))
	if c.accessors == nil {
		c.accessors = make(map[string]struct{})
	}
	c.accessors[id] = struct{}{}
	return nil
}

// UnregisterLine removes the line id from this class. Accessors are removed
// only when this class defined them. Unknown ids are ignored.
func (c *Class) UnregisterLine(id string) {
	set := c.registry()
	c.mu.Lock()
	defer c.mu.Unlock()

	set.remove(id)
	delete(c.accessors, id)
}

// Lines returns the class's lines in registration order.
func (c *Class) Lines() []*Line {
	set := c.registry()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return set.list()
}

// LineIDs returns the line ids in registration order.
func (c *Class) LineIDs() []string {
	set := c.registry()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(set.order)
}

// Line returns the line registered under id, or nil.
func (c *Class) Line(id string) *Line {
	set := c.registry()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return set.byID[id]
}

// HasLine reports whether id is registered on this class.
func (c *Class) HasLine(id string) bool {
	return c.Line(id) != nil
}

// HasAccessors reports whether the handler accessors for id are available on
// this class, either defined here or inherited from the defining ancestor.
func (c *Class) HasAccessors(id string) bool {
	for k := c; k != nil; k = k.parent {
		k.mu.RLock()
		_, ok := k.accessors[id]
		k.mu.RUnlock()
		if ok {
			return true
		}
	}
	return false
}

// DefinesAccessors reports whether this class itself defined the accessors for id.
func (c *Class) DefinesAccessors(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.accessors[id]
	return ok
}

// SetHandler pins line id to h on this class.
func (c *Class) SetHandler(id string, h Handler) error {
	l, err := c.accessibleLine(id)
	if err != nil {
		return err
	}
	l.SetHandler(h)
	return nil
}

// SetHandlerName pins line id to a catalog name on this class.
func (c *Class) SetHandlerName(id, name string) error {
	l, err := c.accessibleLine(id)
	if err != nil {
		return err
	}
	l.SetHandlerName(name)
	return nil
}

// HandlerFor returns the resolved handler of line id, or nil.
func (c *Class) HandlerFor(id string) Handler {
	l := c.Line(id)
	if l == nil || !c.HasAccessors(id) {
		return nil
	}
	return l.Handler()
}

func (c *Class) accessibleLine(id string) (*Line, error) {
	l := c.Line(id)
	if l == nil || !c.HasAccessors(id) {
		return nil, fmt.Errorf("%w: %s on %s", ErrLineNotFound, id, c.name)
	}
	return l, nil
}

// Delivers declares actions explicitly. Declared actions are inherited.
func (c *Class) Delivers(actions ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range actions {
		if a != "" && !slices.Contains(c.declared, a) {
			c.declared = append(c.declared, a)
		}
	}
}

// Actions lists the declared actions of this class and its ancestors.
func (c *Class) Actions() []string {
	var out []string
	for k := c; k != nil; k = k.parent {
		k.mu.RLock()
		for _, a := range k.declared {
			if !slices.Contains(out, a) {
				out = append(out, a)
			}
		}
		k.mu.RUnlock()
	}
	slices.Sort(out)
	return out
}

// Declares reports whether action was declared with Delivers.
func (c *Class) Declares(action string) bool {
	for k := c; k != nil; k = k.parent {
		k.mu.RLock()
		ok := slices.Contains(k.declared, action)
		k.mu.RUnlock()
		if ok {
			return true
		}
	}
	return false
}

// Supports reports whether action is declared or at least one line can
// deliver it.
func (c *Class) Supports(action string) bool {
	if c.Declares(action) {
		return true
	}
	for _, l := range c.Lines() {
		if l.Supports(action) {
			return true
		}
	}
	return false
}

func (c *Class) String() string { return c.name }
