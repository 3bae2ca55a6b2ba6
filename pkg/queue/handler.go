package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

type (
	// Handler processes the payload of tasks whose name matches Name.
	Handler interface {
		Name() string
		Handle(ctx context.Context, payload json.RawMessage) error
	}

	// TaskHandlerFunc handles a decoded payload of type T.
	TaskHandlerFunc[T any] func(ctx context.Context, payload T) error
)

// NewTaskHandler creates a handler named after T, matching tasks enqueued with a T payload.
func NewTaskHandler[T any](handler TaskHandlerFunc[T]) Handler {
	var payload T
	return &taskHandler[T]{
		name:    qualifiedStructName(payload),
		handler: handler,
	}
}

// NewNamedTaskHandler creates a handler for tasks enqueued WithTaskName(name).
func NewNamedTaskHandler[T any](name string, handler TaskHandlerFunc[T]) Handler {
	return &taskHandler[T]{
		name:    name,
		handler: handler,
	}
}

type taskHandler[T any] struct {
	name    string
	handler TaskHandlerFunc[T]
}

func (h *taskHandler[T]) Name() string {
	return h.name
}

func (h *taskHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("decode %s payload: %w", h.name, err)
	}
	return h.handler(ctx, t)
}
