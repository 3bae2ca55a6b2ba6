package callback

import (
	"context"
	"slices"
)

// Option configures where and when a hook applies.
type Option[T Named] func(*options[T])

type options[T Named] struct {
	scope string
	conds []func(context.Context, T) bool
}

// On binds the hook to scope. The default scope is "".
func On[T Named](scope string) Option[T] {
	return func(o *options[T]) {
		o.scope = scope
	}
}

// Only runs the hook for the listed notification names.
func Only[T Named](names ...string) Option[T] {
	return func(o *options[T]) {
		o.conds = append(o.conds, func(_ context.Context, t T) bool {
			return slices.Contains(names, t.NotificationName())
		})
	}
}

// Except skips the hook for the listed notification names.
func Except[T Named](names ...string) Option[T] {
	return func(o *options[T]) {
		o.conds = append(o.conds, func(_ context.Context, t T) bool {
			return !slices.Contains(names, t.NotificationName())
		})
	}
}

// If runs the hook only when pred returns true.
func If[T Named](pred func(context.Context, T) bool) Option[T] {
	return func(o *options[T]) {
		if pred != nil {
			o.conds = append(o.conds, pred)
		}
	}
}

// Unless runs the hook only when pred returns false.
func Unless[T Named](pred func(context.Context, T) bool) Option[T] {
	return func(o *options[T]) {
		if pred != nil {
			o.conds = append(o.conds, func(ctx context.Context, t T) bool { return !pred(ctx, t) })
		}
	}
}
