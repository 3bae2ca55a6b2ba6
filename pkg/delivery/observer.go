package delivery

import (
	"context"
	"time"
)

// Outcome of a line (or of the whole dispatch, when Event.Line is empty).
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeEnqueued  Outcome = "enqueued"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeHalted    Outcome = "halted"
	OutcomeFailed    Outcome = "failed"
	OutcomeRecorded  Outcome = "recorded"
)

// Event is reported to the Observer once per line and once per halted or
// recorded dispatch.
type Event struct {
	Class    string
	Line     string
	Handler  string
	Action   string
	Sync     bool
	Outcome  Outcome
	Duration time.Duration
	Err      error
}

// Observer receives dispatch events. It is called synchronously and must
// not block.
type Observer interface {
	Observe(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, e Event)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, e Event) { f(ctx, e) }
