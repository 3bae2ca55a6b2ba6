package notifier

import (
	"context"
	"maps"
)

// Payload is the notification content handed to a driver. The only required
// key is "body"; every other key is driver specific.
type Payload map[string]any

// Body returns the "body" value when it is a string.
func (p Payload) Body() string {
	s, _ := p["body"].(string)
	return s
}

// Clone returns a shallow copy; a nil receiver yields an empty map.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	maps.Copy(out, p)
	return out
}

func (p Payload) hasBody() bool {
	switch v := p["body"].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []byte:
		return len(v) > 0
	default:
		return true
	}
}

// Driver sends a built payload to its transport.
type Driver interface {
	Deliver(ctx context.Context, payload Payload) error
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(ctx context.Context, payload Payload) error

// Deliver calls f.
func (f DriverFunc) Deliver(ctx context.Context, payload Payload) error {
	return f(ctx, payload)
}
