package delivery

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/job"
)

// LineOption configures a line at registration time. Options are copied to
// the line's duplicates in subclasses.
type LineOption func(*lineOptions)

type lineOptions struct {
	handler     Handler
	handlerName string
	resolver    Resolver
	pattern     string
	suffix      string
}

// WithHandler pins the line to h.
func WithHandler(h Handler) LineOption {
	return func(o *lineOptions) { o.handler = h }
}

// WithHandlerName pins the line to the catalog entry called name. An unknown
// name resolves to no handler.
func WithHandlerName(name string) LineOption {
	return func(o *lineOptions) { o.handlerName = name }
}

// WithResolver sets a custom resolver.
func WithResolver(r Resolver) LineOption {
	return func(o *lineOptions) { o.resolver = r }
}

// WithResolverPattern resolves handlers from a name pattern such as
// "{delivery_namespace}{delivery_name}Pusher".
func WithResolverPattern(pattern string) LineOption {
	return func(o *lineOptions) { o.pattern = pattern }
}

// WithSuffix changes the convention suffix, e.g. "Pusher" maps
// EventsDelivery to EventsPusher.
func WithSuffix(suffix string) LineOption {
	return func(o *lineOptions) { o.suffix = suffix }
}

// Line binds one channel to a delivery class.
type Line struct {
	id       string
	owner    *Class
	kind     Kind
	opts     lineOptions
	resolver Resolver

	mu           sync.Mutex
	explicit     Handler
	explicitName string
	cached       Handler
	resolved     bool
}

func newLine(id string, owner *Class, kind Kind, opts lineOptions) *Line {
	l := &Line{
		id:           id,
		owner:        owner,
		kind:         kind,
		opts:         opts,
		explicit:     opts.handler,
		explicitName: opts.handlerName,
	}

	switch {
	case opts.resolver != nil:
		l.resolver = opts.resolver
	case opts.pattern != "":
		l.resolver = PatternResolver(opts.pattern)
	default:
		suffix := opts.suffix
		if suffix == "" {
			suffix = kind.Suffix()
		}
		l.resolver = SuffixResolver(suffix)
	}
	return l
}

// dupFor copies the line for a subclass. Runtime overrides and caches stay
// with the original.
func (l *Line) dupFor(owner *Class) *Line {
	return newLine(l.id, owner, l.kind, l.opts)
}

// ID returns the line id.
func (l *Line) ID() string { return l.id }

// Owner returns the delivery class the line belongs to.
func (l *Line) Owner() *Class { return l.owner }

// Kind returns the line kind.
func (l *Line) Kind() Kind { return l.kind }

// Pattern returns the resolver pattern, if the line was registered with one.
func (l *Line) Pattern() string { return l.opts.pattern }

// SetHandler pins the line to h on this class.
func (l *Line) SetHandler(h Handler) {
	l.mu.Lock()
	l.explicit, l.explicitName = h, ""
	l.cached, l.resolved = nil, false
	l.mu.Unlock()
}

// SetHandlerName pins the line to a catalog name on this class.
func (l *Line) SetHandlerName(name string) {
	l.mu.Lock()
	l.explicit, l.explicitName = nil, name
	l.cached, l.resolved = nil, false
	l.mu.Unlock()
}

// Handler returns the resolved handler, or nil when the channel does not apply.
//
// Resolution order: nil for abstract owners; the explicit handler set on
// this line or the nearest ancestor line; the line resolver against this
// class; the parent's handler for the same line unless the parent is the
// root class.
func (l *Line) Handler() Handler {
	cache := l.owner.env.config().CacheClasses
	if cache {
		l.mu.Lock()
		if l.resolved {
			h := l.cached
			l.mu.Unlock()
			return h
		}
		l.mu.Unlock()
	}

	h := l.resolve()

	if cache {
		l.mu.Lock()
		l.cached, l.resolved = h, true
		l.mu.Unlock()
	}
	return h
}

func (l *Line) resolve() Handler {
	if l.owner.IsAbstract() {
		return nil
	}
	if h, ok := l.explicitHandler(); ok {
		return h
	}
	if h := l.resolver(l.owner); h != nil {
		return h
	}
	if sup := l.fallbackLine(); sup != nil {
		return sup.Handler()
	}
	return nil
}

func (l *Line) explicitHandler() (Handler, bool) {
	for line := l; line != nil; line = line.superline() {
		line.mu.Lock()
		h, name := line.explicit, line.explicitName
		line.mu.Unlock()

		if h != nil {
			return h, true
		}
		if name != "" {
			h, _ := l.owner.Catalog().Lookup(name)
			return h, true
		}
	}
	return nil, false
}

// superline is the parent's line with the same id.
func (l *Line) superline() *Line {
	parent := l.owner.parent
	if parent == nil {
		return nil
	}
	return parent.Line(l.id)
}

func (l *Line) fallbackLine() *Line {
	if l.owner.parent == nil || l.owner.parent.parent == nil {
		return nil
	}
	return l.superline()
}

// HandlerName returns the name of the resolved handler, or "".
func (l *Line) HandlerName() string {
	if h := l.Handler(); h != nil {
		return h.Name()
	}
	return ""
}

// Supports reports whether a handler is resolved and exposes action.
func (l *Line) Supports(action string) bool {
	h := l.Handler()
	return h != nil && l.kind.Supports(h, action)
}

// Notify delivers action through the line's handler, bound to params when
// there are any. sync picks immediate delivery over enqueueing. A line whose
// handler is missing or does not expose action is a no-op.
func (l *Line) Notify(ctx context.Context, action string, args job.Args, params job.Params, sync bool, opts ...job.EnqueueOption) error {
	h := l.Handler()
	if h == nil || !l.kind.Supports(h, action) {
		return nil
	}
	if len(params) > 0 {
		h = l.kind.Parameterize(h, params)
	}
	if sync {
		return l.kind.NotifyNow(ctx, h, action, args)
	}
	return l.kind.NotifyLater(ctx, h, action, args, opts...)
}
