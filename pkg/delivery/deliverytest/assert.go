package deliverytest

import (
	"fmt"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/job"
)

// Match narrows the dispatches an assertion counts.
type Match func(*matcher)

type matcher struct {
	params   job.Params
	args     []any
	kwargs   map[string]any
	sync     *bool
	count    int
	atLeast  bool
	hasCount bool
}

// WithParams requires the bound params to contain params.
func WithParams(params job.Params) Match {
	return func(m *matcher) { m.params = params }
}

// WithArgs requires the leading positional arguments to equal args.
// job.Kwargs values require matching keyword arguments instead.
func WithArgs(args ...any) Match {
	return func(m *matcher) {
		a := job.NewArgs(args...)
		m.args, m.kwargs = a.Positional, a.Keywords
	}
}

// Synchronously requires NotifyNow dispatches.
func Synchronously() Match {
	return func(m *matcher) { v := true; m.sync = &v }
}

// Later requires Notify dispatches.
func Later() Match {
	return func(m *matcher) { v := false; m.sync = &v }
}

// Times requires exactly n matching dispatches. The default is once.
func Times(n int) Match {
	return func(m *matcher) { m.count, m.atLeast, m.hasCount = n, false, true }
}

// AtLeast requires n or more matching dispatches.
func AtLeast(n int) Match {
	return func(m *matcher) { m.count, m.atLeast, m.hasCount = n, true, true }
}

func (m *matcher) matches(t delivery.Tracked) bool {
	if m.sync != nil && t.Sync != *m.sync {
		return false
	}
	for k, v := range m.params {
		got, ok := t.Params[k]
		if !ok || !assert.ObjectsAreEqual(v, got) {
			return false
		}
	}
	if len(m.args) > len(t.Args.Positional) {
		return false
	}
	for i, v := range m.args {
		if !assert.ObjectsAreEqual(v, t.Args.Positional[i]) {
			return false
		}
	}
	for k, v := range m.kwargs {
		got, ok := t.Args.Keywords[k]
		if !ok || !assert.ObjectsAreEqual(v, got) {
			return false
		}
	}
	return true
}

// AssertDelivered checks that class dispatched action the expected number
// of times. A nil class matches any class; an empty action matches any action.
func AssertDelivered(t assert.TestingT, r *Recorder, class *delivery.Class, action string, opts ...Match) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	m := &matcher{count: 1}
	for _, opt := range opts {
		opt(m)
	}

	all := r.Deliveries()
	n := 0
	for _, d := range all {
		if class != nil && d.Class != class {
			continue
		}
		if action != "" && d.Notification != action {
			continue
		}
		if m.matches(d) {
			n++
		}
	}

	if (m.atLeast && n >= m.count) || (!m.atLeast && n == m.count) {
		return true
	}

	quantifier := "exactly"
	if m.atLeast {
		quantifier = "at least"
	}
	return assert.Fail(t, "unexpected deliveries",
		"expected %s %d %s, got %d matching of %d total: %s",
		quantifier, m.count, describe(class, action), n, len(all), summary(all))
}

// AssertDeliveries checks the total number of dispatches.
func AssertDeliveries(t assert.TestingT, r *Recorder, count int) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	return assert.Equal(t, count, r.Len(), "expected %d deliveries, got %d", count, r.Len())
}

// AssertNoDeliveries checks that nothing was dispatched.
func AssertNoDeliveries(t assert.TestingT, r *Recorder) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	return AssertDeliveries(t, r, 0)
}

func describe(class *delivery.Class, action string) string {
	name := "any delivery"
	if class != nil {
		name = class.Name()
	}
	if action == "" {
		return name
	}
	return name + "#" + action
}

func summary(all []delivery.Tracked) string {
	out := make([]string, 0, len(all))
	for _, d := range all {
		out = append(out, fmt.Sprintf("%s#%s(sync=%t)", d.Class.Name(), d.Notification, d.Sync))
	}
	return fmt.Sprint(out)
}
