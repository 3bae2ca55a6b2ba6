package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/callback"
	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// ActionFunc builds the message for one action. A nil message means there
// is nothing to send.
type ActionFunc func(ctx context.Context, m *Instance, args job.Args) (*Message, error)

type definition struct {
	name   string
	parent *definition
	logger *slog.Logger

	mu        sync.RWMutex
	sender    email.EmailSender
	async     job.Enqueuer
	defaults  *Defaults
	actions   map[string]ActionFunc
	callbacks callback.Layer[*Instance]
}

// Mailer is a mailer class, optionally bound to params with With.
type Mailer struct {
	def    *definition
	params job.Params
}

// Option configures a root mailer.
type Option func(*Mailer)

// WithSender sets the email sender.
func WithSender(s email.EmailSender) Option {
	return func(m *Mailer) { m.def.sender = s }
}

// WithAsyncAdapter sets the enqueuer used by DeliverLater.
func WithAsyncAdapter(e job.Enqueuer) Option {
	return func(m *Mailer) { m.def.async = e }
}

// WithDefaults sets message defaults.
func WithDefaults(d Defaults) Option {
	return func(m *Mailer) {
		merged := Defaults{}.merge(d)
		m.def.defaults = &merged
	}
}

// WithLogger sets the logger shared by the mailer tree.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.def.logger = l
		}
	}
}

// New creates a root mailer class.
func New(name string, opts ...Option) *Mailer {
	m := &Mailer{def: &definition{
		name:    name,
		logger:  slog.Default(),
		actions: make(map[string]ActionFunc),
	}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subclass creates a child class inheriting sender, adapter, defaults,
// actions and callbacks from m.
func (m *Mailer) Subclass(name string) *Mailer {
	return &Mailer{def: &definition{
		name:    name,
		parent:  m.def,
		logger:  m.def.logger,
		actions: make(map[string]ActionFunc),
	}}
}

// Name returns the class name. Jobs refer to mailers by this name.
func (m *Mailer) Name() string { return m.def.name }

// Parent returns the superclass, or nil for a root mailer.
func (m *Mailer) Parent() *Mailer {
	if m.def.parent == nil {
		return nil
	}
	return &Mailer{def: m.def.parent}
}

// SetSender overrides the sender for this class and its subclasses.
func (m *Mailer) SetSender(s email.EmailSender) {
	m.def.mu.Lock()
	m.def.sender = s
	m.def.mu.Unlock()
}

// Sender returns the nearest sender in the class chain.
func (m *Mailer) Sender() (email.EmailSender, error) {
	for d := m.def; d != nil; d = d.parent {
		d.mu.RLock()
		s := d.sender
		d.mu.RUnlock()
		if s != nil {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSenderMissing, m.def.name)
}

// SetAsyncAdapter overrides the async adapter for this class and its subclasses.
func (m *Mailer) SetAsyncAdapter(e job.Enqueuer) {
	m.def.mu.Lock()
	m.def.async = e
	m.def.mu.Unlock()
}

// AsyncAdapter returns the nearest async adapter in the class chain.
func (m *Mailer) AsyncAdapter() (job.Enqueuer, error) {
	for d := m.def; d != nil; d = d.parent {
		d.mu.RLock()
		a := d.async
		d.mu.RUnlock()
		if a != nil {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAsyncAdapterMissing, m.def.name)
}

// Default merges d over the inherited defaults and stores the result on this class.
func (m *Mailer) Default(d Defaults) {
	merged := m.inheritedDefaults().merge(d)
	m.def.mu.Lock()
	m.def.defaults = &merged
	m.def.mu.Unlock()
}

// DefaultValues returns the defaults in effect for this class.
func (m *Mailer) DefaultValues() Defaults {
	for d := m.def; d != nil; d = d.parent {
		d.mu.RLock()
		p := d.defaults
		d.mu.RUnlock()
		if p != nil {
			return Defaults{}.merge(*p)
		}
	}
	return Defaults{}
}

func (m *Mailer) inheritedDefaults() Defaults {
	if m.def.parent == nil {
		return Defaults{}
	}
	return (&Mailer{def: m.def.parent}).DefaultValues()
}

// Action defines or replaces an action on this class. A nil fn hides an
// inherited action.
func (m *Mailer) Action(name string, fn ActionFunc) *Mailer {
	m.def.mu.Lock()
	m.def.actions[name] = fn
	m.def.mu.Unlock()
	return m
}

// HasAction reports whether name is a public action of this class or an ancestor.
func (m *Mailer) HasAction(name string) bool {
	_, ok := m.lookupAction(name)
	return ok
}

// ActionMethods lists the available actions, sorted.
func (m *Mailer) ActionMethods() []string {
	seen := make(map[string]bool)
	for d := m.def; d != nil; d = d.parent {
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

func (m *Mailer) lookupAction(name string) (ActionFunc, bool) {
	for d := m.def; d != nil; d = d.parent {
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
func (m *Mailer) With(params job.Params) *Mailer {
	return &Mailer{def: m.def, params: params.Clone()}
}

// Params returns a copy of the bound params.
func (m *Mailer) Params() job.Params {
	return maps.Clone(m.params)
}

// Mail returns a lazy delivery for action. Nothing runs until the message
// is requested or delivered now; DeliverLater never builds it in-process.
func (m *Mailer) Mail(action string, args job.Args) *MessageDelivery {
	return &MessageDelivery{mailer: m, action: action, args: args}
}

// Perform implements job.Performer.
func (m *Mailer) Perform(ctx context.Context, j job.Job) error {
	if !m.HasAction(j.Action) {
		return fmt.Errorf("%w: %s#%s", job.ErrUnknownAction, m.def.name, j.Action)
	}
	return m.With(j.Params).Mail(j.Action, j.Args).DeliverNow(ctx)
}

func (m *Mailer) build(ctx context.Context, action string, args job.Args) (*Message, error) {
	fn, ok := m.lookupAction(action)
	if !ok {
		return nil, fmt.Errorf("%w: %s#%s", job.ErrUnknownAction, m.def.name, action)
	}

	inst := &Instance{mailer: m, action: action, args: args}
	var msg *Message
	completed, err := m.chain().Run(ctx, "", inst, func(ctx context.Context) error {
		var err error
		msg, err = fn(ctx, inst, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !completed || msg == nil {
		if !completed {
			m.def.logger.LogAttrs(ctx, slog.LevelDebug, "mailer action halted by callback",
				logger.HandlerName(m.def.name),
				logger.Action(action),
			)
		}
		return nil, nil
	}

	m.DefaultValues().apply(msg)
	if msg.To == "" {
		return nil, fmt.Errorf("%w: %s#%s", ErrRecipientRequired, m.def.name, action)
	}
	return msg, nil
}

// Instance is the per-call receiver handed to actions and callbacks.
type Instance struct {
	mailer *Mailer
	action string
	args   job.Args
}

// NotificationName returns the action being run.
func (i *Instance) NotificationName() string { return i.action }

// Mailer returns the (possibly parameterized) mailer class.
func (i *Instance) Mailer() *Mailer { return i.mailer }

// Params returns the params bound with With.
func (i *Instance) Params() job.Params { return i.mailer.Params() }

// Args returns the action arguments.
func (i *Instance) Args() job.Args { return i.args }
