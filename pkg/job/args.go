package job

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Args carries the positional and keyword arguments of an action call.
type Args struct {
	Positional []any          `json:"positional,omitempty"`
	Keywords   map[string]any `json:"keywords,omitempty"`
}

// NewArgs splits values into positional and keyword arguments.
// Every Kwargs value is merged into Keywords (later keys win); all other
// values stay positional in their original order.
func NewArgs(values ...any) Args {
	var a Args
	for _, v := range values {
		switch kw := v.(type) {
		case Kwargs:
			if a.Keywords == nil {
				a.Keywords = make(map[string]any, len(kw))
			}
			maps.Copy(a.Keywords, kw)
		default:
			a.Positional = append(a.Positional, v)
		}
	}
	return a
}

// Len reports the number of positional arguments.
func (a Args) Len() int {
	return len(a.Positional)
}

// At returns the positional argument at index i.
func (a Args) At(i int) (any, bool) {
	if i < 0 || i >= len(a.Positional) {
		return nil, false
	}
	return a.Positional[i], true
}

// Keyword returns the keyword argument stored under name.
func (a Args) Keyword(name string) (any, bool) {
	v, ok := a.Keywords[name]
	return v, ok
}

// Clone copies both argument lists so the result can be mutated safely.
func (a Args) Clone() Args {
	out := Args{}
	if a.Positional != nil {
		out.Positional = append([]any(nil), a.Positional...)
	}
	if a.Keywords != nil {
		out.Keywords = maps.Clone(a.Keywords)
	}
	return out
}

// Decode converts the positional argument at index i into dst through JSON.
// It works both for in-process values and for values restored from a queue.
func (a Args) Decode(i int, dst any) error {
	v, ok := a.At(i)
	if !ok {
		return fmt.Errorf("%w: %d of %d", ErrArgumentOutOfRange, i, a.Len())
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("job: encode argument %d: %w", i, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("job: decode argument %d into %T: %w", i, dst, err)
	}
	return nil
}
