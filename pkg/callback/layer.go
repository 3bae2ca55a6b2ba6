package callback

import "sync"

// Layer holds the hook registrations and skips made on one class of a
// hierarchy. The effective chain of a class is its parent's effective chain
// with the layer replayed in order, so hooks added to an ancestor at any
// time reach every descendant. The zero value is ready to use and safe for
// concurrent use.
type Layer[T Named] struct {
	mu  sync.RWMutex
	ops []func(*Chain[T]) error
}

// Apply records op. It is validated against an empty chain first; an op that
// fails there is returned and not recorded.
func (l *Layer[T]) Apply(op func(*Chain[T]) error) error {
	if err := op(New[T]()); err != nil {
		return err
	}
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
	return nil
}

// Resolve returns a new chain: parent followed by the layer's operations.
// parent is not modified and may be nil.
func (l *Layer[T]) Resolve(parent *Chain[T]) *Chain[T] {
	out := parent.Clone()
	if l == nil {
		return out
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, op := range l.ops {
		// ops were validated in Apply.
		_ = op(out)
	}
	return out
}

// Len returns the number of recorded operations.
func (l *Layer[T]) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ops)
}
