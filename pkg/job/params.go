package job

import "maps"

// Params are the keyword parameters bound to a handler with With.
type Params map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty, non-nil map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Get returns the value stored under key.
func (p Params) Get(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// String returns the value under key if it is a string.
func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Kwargs marks keyword arguments inside a variadic argument list.
//
//	delivery.Notify(ctx, "invited", user, job.Kwargs{"role": "admin"})
type Kwargs map[string]any
