package delivery

import (
	"context"

	"github.com/dmitrymomot/notifykit/pkg/callback"
)

// CallbackOption scopes and filters a notify callback.
type CallbackOption = callback.Option[*Record]

// On binds the callback to a single line instead of the whole dispatch.
func On(lineID string) CallbackOption { return callback.On[*Record](lineID) }

// Only runs the callback for the listed actions.
func Only(actions ...string) CallbackOption { return callback.Only[*Record](actions...) }

// Except skips the callback for the listed actions.
func Except(actions ...string) CallbackOption { return callback.Except[*Record](actions...) }

// If runs the callback when pred holds.
func If(pred func(context.Context, *Record) bool) CallbackOption { return callback.If(pred) }

// Unless runs the callback when pred does not hold.
func Unless(pred func(context.Context, *Record) bool) CallbackOption { return callback.Unless(pred) }

// BeforeNotify registers a hook run before delivery. Returning false halts
// the dispatch, or the line when the hook is bound with On.
func (c *Class) BeforeNotify(name string, fn callback.BeforeFunc[*Record], opts ...CallbackOption) error {
	return c.mutateChain(func(ch *callback.Chain[*Record]) error {
		return ch.AddBefore(name, fn, opts...)
	})
}

// AfterNotify registers a hook run after a delivery that was neither halted
// nor failed.
func (c *Class) AfterNotify(name string, fn callback.AfterFunc[*Record], opts ...CallbackOption) error {
	return c.mutateChain(func(ch *callback.Chain[*Record]) error {
		return ch.AddAfter(name, fn, opts...)
	})
}

// AroundNotify registers a hook wrapping delivery. The first registered
// around hook is the outermost. Not calling next halts.
func (c *Class) AroundNotify(name string, fn callback.AroundFunc[*Record], opts ...CallbackOption) error {
	return c.mutateChain(func(ch *callback.Chain[*Record]) error {
		return ch.AddAround(name, fn, opts...)
	})
}

// SkipBeforeNotify removes a named before hook from this class. Pass On to
// target a line-scoped hook.
func (c *Class) SkipBeforeNotify(name string, opts ...CallbackOption) {
	c.skip(callback.Before, name, opts)
}

// SkipAfterNotify removes a named after hook from this class.
func (c *Class) SkipAfterNotify(name string, opts ...CallbackOption) {
	c.skip(callback.After, name, opts)
}

// SkipAroundNotify removes a named around hook from this class.
func (c *Class) SkipAroundNotify(name string, opts ...CallbackOption) {
	c.skip(callback.Around, name, opts)
}

// CallbackNames lists the named hooks of kind in scope ("" for the global
// scope), in run order.
func (c *Class) CallbackNames(scope string, kind callback.Kind) []string {
	return c.chain().Names(scope, kind)
}

func (c *Class) skip(kind callback.Kind, name string, opts []CallbackOption) {
	_ = c.mutateChain(func(ch *callback.Chain[*Record]) error {
		ch.Skip(kind, name, opts...)
		return nil
	})
}

// chain returns the effective chain: the parent's chain with this class's
// registrations and skips replayed on top.
func (c *Class) chain() *callback.Chain[*Record] {
	var inherited *callback.Chain[*Record]
	if c.parent != nil {
		inherited = c.parent.chain()
	}
	return c.callbacks.Resolve(inherited)
}

func (c *Class) mutateChain(fn func(*callback.Chain[*Record]) error) error {
	return c.callbacks.Apply(fn)
}
