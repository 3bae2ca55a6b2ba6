// Package callback runs ordered before, after and around hooks around a core
// function, grouped by scope.
//
// Deliveries use it for the global "notify" scope and one scope per line;
// notifiers use it for the "action" and "deliver" scopes. Each class keeps a
// Layer with its own registrations and skips; its effective Chain is the
// parent's chain with the layer replayed on top. Hooks added to an ancestor
// later still reach every subclass, and skipping in a subclass never
// affects the parent.
//
// Run semantics for one scope:
//
//   - before hooks run in registration order; one returning false halts the
//     run, and nothing else executes
//   - around hooks nest, the first registered being the outermost; a hook
//     that returns without calling next halts the run and after hooks are
//     skipped
//   - after hooks run in registration order, only when nothing halted and the
//     core returned no error
//
// Hooks can be filtered with Only and Except, matched against the target's
// NotificationName, and with If and Unless predicates. All filters must pass.
// Filters are evaluated when the hook is reached, after earlier hooks (and,
// for after hooks, the core) have run.
package callback
