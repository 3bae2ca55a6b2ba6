package callback

import (
	"context"
	"slices"
)

// Kind is the position of a hook relative to the core.
type Kind uint8

const (
	Before Kind = iota + 1
	After
	Around
)

func (k Kind) String() string {
	switch k {
	case Before:
		return "before"
	case After:
		return "after"
	case Around:
		return "around"
	default:
		return "unknown"
	}
}

// Named is implemented by hook targets. NotificationName feeds Only and Except.
type Named interface {
	NotificationName() string
}

type (
	// BeforeFunc runs before the core; returning false halts.
	BeforeFunc[T Named] func(ctx context.Context, target T) bool

	// AfterFunc runs after a successful core.
	AfterFunc[T Named] func(ctx context.Context, target T)

	// AroundFunc wraps the rest of the chain; it must call next to continue.
	AroundFunc[T Named] func(ctx context.Context, target T, next func(context.Context) error) error
)

type hook[T Named] struct {
	kind   Kind
	name   string
	scope  string
	before BeforeFunc[T]
	after  AfterFunc[T]
	around AroundFunc[T]
	conds  []func(context.Context, T) bool
}

func (h *hook[T]) applies(ctx context.Context, target T) bool {
	for _, cond := range h.conds {
		if !cond(ctx, target) {
			return false
		}
	}
	return true
}

// Chain is an ordered list of hooks for any number of scopes.
// A Chain is not safe for concurrent mutation; owners guard it.
type Chain[T Named] struct {
	hooks []*hook[T]
}

// New returns an empty chain.
func New[T Named]() *Chain[T] {
	return &Chain[T]{}
}

// Clone returns an independent copy. Hooks are immutable, so they are shared.
func (c *Chain[T]) Clone() *Chain[T] {
	if c == nil {
		return New[T]()
	}
	return &Chain[T]{hooks: slices.Clone(c.hooks)}
}

// Len returns the number of hooks across all scopes.
func (c *Chain[T]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.hooks)
}

// Names lists the named hooks of kind in scope, in order.
func (c *Chain[T]) Names(scope string, kind Kind) []string {
	if c == nil {
		return nil
	}
	var names []string
	for _, h := range c.hooks {
		if h.scope == scope && h.kind == kind && h.name != "" {
			names = append(names, h.name)
		}
	}
	return names
}

// AddBefore appends a before hook. An empty name makes it unskippable.
func (c *Chain[T]) AddBefore(name string, fn BeforeFunc[T], opts ...Option[T]) error {
	if fn == nil {
		return ErrNilHook
	}
	c.add(&hook[T]{kind: Before, name: name, before: fn}, opts)
	return nil
}

// AddAfter appends an after hook.
func (c *Chain[T]) AddAfter(name string, fn AfterFunc[T], opts ...Option[T]) error {
	if fn == nil {
		return ErrNilHook
	}
	c.add(&hook[T]{kind: After, name: name, after: fn}, opts)
	return nil
}

// AddAround appends an around hook.
func (c *Chain[T]) AddAround(name string, fn AroundFunc[T], opts ...Option[T]) error {
	if fn == nil {
		return ErrNilHook
	}
	c.add(&hook[T]{kind: Around, name: name, around: fn}, opts)
	return nil
}

// Skip removes every hook of kind registered under name in the scope picked
// by opts. Only On is honoured; other options are ignored. Unknown names are
// a no-op.
func (c *Chain[T]) Skip(kind Kind, name string, opts ...Option[T]) {
	if name == "" {
		return
	}
	var cfg options[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	kept := make([]*hook[T], 0, len(c.hooks))
	for _, h := range c.hooks {
		if h.kind == kind && h.name == name && h.scope == cfg.scope {
			continue
		}
		kept = append(kept, h)
	}
	c.hooks = kept
}

func (c *Chain[T]) add(h *hook[T], opts []Option[T]) {
	var cfg options[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	h.scope = cfg.scope
	h.conds = cfg.conds
	c.hooks = append(c.hooks, h)
}

// Run executes core wrapped by the hooks of scope. completed is false when a
// before or around hook halted the run; err is the core's (or an around
// hook's) error. A hook's conditions are evaluated when the hook is reached,
// so they observe the effects of earlier hooks and of the core.
func (c *Chain[T]) Run(ctx context.Context, scope string, target T, core func(context.Context) error) (completed bool, err error) {
	var befores, afters, arounds []*hook[T]
	if c != nil {
		for _, h := range c.hooks {
			if h.scope != scope {
				continue
			}
			switch h.kind {
			case Before:
				befores = append(befores, h)
			case After:
				afters = append(afters, h)
			case Around:
				arounds = append(arounds, h)
			}
		}
	}

	for _, h := range befores {
		if h.applies(ctx, target) && !h.before(ctx, target) {
			return false, nil
		}
	}

	reached := false
	next := func(ctx context.Context) error {
		reached = true
		return core(ctx)
	}
	for i := len(arounds) - 1; i >= 0; i-- {
		h, inner := arounds[i], next
		next = func(ctx context.Context) error {
			if !h.applies(ctx, target) {
				return inner(ctx)
			}
			return h.around(ctx, target, inner)
		}
	}

	if err := next(ctx); err != nil {
		return reached, err
	}
	if !reached {
		return false, nil
	}

	for _, h := range afters {
		if h.applies(ctx, target) {
			h.after(ctx, target)
		}
	}
	return true, nil
}
