package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/callback"
	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// ActionFunc builds the notification for one action. Returning a nil
// notification means there is nothing to send.
type ActionFunc func(ctx context.Context, n *Instance, args job.Args) (*Notification, error)

// Callback scopes.
const (
	ScopeAction  = "action"
	ScopeDeliver = "deliver"
)

// environment is shared by a root notifier and all of its subclasses.
type environment struct {
	mu     sync.RWMutex
	mode   Mode
	logger *slog.Logger
}

func (e *environment) currentMode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

// definition is the class-level state of a notifier.
type definition struct {
	name   string
	parent *definition
	env    *environment

	mu           sync.RWMutex
	driver       Driver
	async        job.Enqueuer
	defaults     Payload
	defaultsFunc func(*Instance) Payload
	actions      map[string]ActionFunc
	callbacks    callback.Layer[*Instance]
}

// Notifier is a handler class, optionally bound to params with With.
type Notifier struct {
	def    *definition
	params job.Params
}

// Option configures a root notifier.
type Option func(*Notifier)

// WithDriver sets the driver.
func WithDriver(d Driver) Option {
	return func(n *Notifier) { n.def.driver = d }
}

// WithAsyncAdapter sets the enqueuer used by NotifyLater.
func WithAsyncAdapter(e job.Enqueuer) Option {
	return func(n *Notifier) { n.def.async = e }
}

// WithDefaults sets default payload values.
func WithDefaults(p Payload) Option {
	return func(n *Notifier) { n.def.defaults = p.Clone() }
}

// WithMode sets the delivery mode shared by the notifier tree. Invalid modes
// are ignored; use SetMode to get an error.
func WithMode(m Mode) Option {
	return func(n *Notifier) {
		if _, err := ParseMode(string(m)); err == nil {
			n.def.env.mode = m
		}
	}
}

// WithConfig applies cfg. An invalid mode leaves the default in place.
func WithConfig(cfg Config) Option {
	return WithMode(Mode(cfg.Mode))
}

// WithLogger sets the logger shared by the notifier tree.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.def.env.logger = l
		}
	}
}

// New creates a root notifier class.
func New(name string, opts ...Option) *Notifier {
	n := &Notifier{def: &definition{
		name:    name,
		env:     &environment{mode: ModeNormal, logger: slog.Default()},
		actions: make(map[string]ActionFunc),
	}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subclass creates a child class inheriting everything from n.
func (n *Notifier) Subclass(name string) *Notifier {
	return &Notifier{def: &definition{
		name:    name,
		parent:  n.def,
		env:     n.def.env,
		actions: make(map[string]ActionFunc),
	}}
}

// Name returns the class name. Jobs refer to notifiers by this name.
func (n *Notifier) Name() string {
	return n.def.name
}

// Parent returns the superclass, or nil for a root notifier.
func (n *Notifier) Parent() *Notifier {
	if n.def.parent == nil {
		return nil
	}
	return &Notifier{def: n.def.parent}
}

// SetMode changes the delivery mode of the whole notifier tree.
func (n *Notifier) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	n.def.env.mu.Lock()
	n.def.env.mode = m
	n.def.env.mu.Unlock()
	return nil
}

// Mode returns the current delivery mode.
func (n *Notifier) Mode() Mode {
	return n.def.env.currentMode()
}

// SetDriver overrides the driver for this class and its subclasses.
func (n *Notifier) SetDriver(d Driver) {
	n.def.mu.Lock()
	n.def.driver = d
	n.def.mu.Unlock()
}

// Driver returns the nearest driver in the class chain.
func (n *Notifier) Driver() (Driver, error) {
	for d := n.def; d != nil; d = d.parent {
		d.mu.RLock()
		drv := d.driver
		d.mu.RUnlock()
		if drv != nil {
			return drv, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDriverMissing, n.def.name)
}

// SetAsyncAdapter overrides the async adapter for this class and its subclasses.
func (n *Notifier) SetAsyncAdapter(e job.Enqueuer) {
	n.def.mu.Lock()
	n.def.async = e
	n.def.mu.Unlock()
}

// AsyncAdapter returns the nearest async adapter in the class chain.
func (n *Notifier) AsyncAdapter() (job.Enqueuer, error) {
	for d := n.def; d != nil; d = d.parent {
		d.mu.RLock()
		a := d.async
		d.mu.RUnlock()
		if a != nil {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAsyncAdapterMissing, n.def.name)
}

// Default merges p over the inherited defaults and stores the result on this class.
func (n *Notifier) Default(p Payload) {
	merged := n.inheritedDefaults()
	maps.Copy(merged, p)

	n.def.mu.Lock()
	n.def.defaults = merged
	n.def.mu.Unlock()
}

// DefaultFunc sets a generator that replaces static defaults for this class
// and its subclasses.
func (n *Notifier) DefaultFunc(fn func(*Instance) Payload) {
	n.def.mu.Lock()
	n.def.defaultsFunc = fn
	n.def.mu.Unlock()
}

// DefaultParams returns a copy of the static defaults in effect for this class.
func (n *Notifier) DefaultParams() Payload {
	for d := n.def; d != nil; d = d.parent {
		d.mu.RLock()
		p := d.defaults
		d.mu.RUnlock()
		if p != nil {
			return p.Clone()
		}
	}
	return Payload{}
}

func (n *Notifier) inheritedDefaults() Payload {
	if n.def.parent == nil {
		return Payload{}
	}
	return (&Notifier{def: n.def.parent}).DefaultParams()
}

func (n *Notifier) defaultsGenerator() func(*Instance) Payload {
	for d := n.def; d != nil; d = d.parent {
		d.mu.RLock()
		fn := d.defaultsFunc
		d.mu.RUnlock()
		if fn != nil {
			return fn
		}
	}
	return nil
}

// Action defines or replaces an action on this class.
func (n *Notifier) Action(name string, fn ActionFunc) *Notifier {
	n.def.mu.Lock()
	n.def.actions[name] = fn
	n.def.mu.Unlock()
	return n
}

// HasAction reports whether name is defined on this class or an ancestor.
func (n *Notifier) HasAction(name string) bool {
	_, ok := n.lookupAction(name)
	return ok
}

// ActionMethods lists the actions available on this class, sorted.
func (n *Notifier) ActionMethods() []string {
	seen := make(map[string]bool)
	for d := n.def; d != nil; d = d.parent {
		d.mu.RLock()
		for name, fn := range d.actions {
			if _, decided := seen[name]; !decided {
				seen[name] = fn != nil
			}
		}
		d.mu.RUnlock()
	}
	names := make([]string, 0, len(seen))
	for name, ok := range seen {
		if ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func (n *Notifier) lookupAction(name string) (ActionFunc, bool) {
	for d := n.def; d != nil; d = d.parent {
		d.mu.RLock()
		fn, ok := d.actions[name]
		d.mu.RUnlock()
		if ok {
			return fn, fn != nil
		}
	}
	return nil, false
}

// With returns the same class bound to a frozen copy of params.
func (n *Notifier) With(params job.Params) *Notifier {
	return &Notifier{def: n.def, params: params.Clone()}
}

// Params returns a copy of the bound params.
func (n *Notifier) Params() job.Params {
	return n.params.Clone()
}

// Notification runs action with args and returns the built notification.
// A nil notification with a nil error means the action built nothing or a
// callback halted.
func (n *Notifier) Notification(ctx context.Context, action string, args job.Args) (*Notification, error) {
	fn, ok := n.lookupAction(action)
	if !ok {
		return nil, fmt.Errorf("%w: %s#%s", job.ErrUnknownAction, n.def.name, action)
	}

	inst := &Instance{notifier: n, action: action, args: args}
	var built *Notification
	completed, err := n.chain().Run(ctx, ScopeAction, inst, func(ctx context.Context) error {
		var err error
		built, err = fn(ctx, inst, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !completed {
		n.logger().LogAttrs(ctx, slog.LevelDebug, "notification action halted by callback",
			logger.HandlerName(n.def.name),
			logger.Action(action),
		)
		return nil, nil
	}
	return built, nil
}

// Perform implements job.Performer: it delivers the payload carried by j
// now. Jobs without a payload are rebuilt by running the action first.
func (n *Notifier) Perform(ctx context.Context, j job.Job) error {
	bound := n.With(j.Params)
	if j.Payload != nil {
		inst := &Instance{notifier: bound, action: j.Action, args: j.Args}
		inst.result = &Notification{Payload: Payload(j.Payload), instance: inst}
		return inst.result.NotifyNow(ctx)
	}
	notif, err := bound.Notification(ctx, j.Action, j.Args)
	if err != nil || notif == nil {
		return err
	}
	return notif.NotifyNow(ctx)
}

func (n *Notifier) logger() *slog.Logger {
	return n.def.env.logger
}
