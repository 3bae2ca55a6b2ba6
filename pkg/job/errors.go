package job

import "errors"

var (
	// ErrEnqueuerNil is returned when an adapter is built without an enqueuer.
	ErrEnqueuerNil = errors.New("job: enqueuer cannot be nil")

	// ErrRegistryNil is returned when an adapter or task handler is built without a registry.
	ErrRegistryNil = errors.New("job: registry cannot be nil")

	// ErrUnknownHandler is returned when a job names a handler missing from the registry.
	ErrUnknownHandler = errors.New("job: unknown handler")

	// ErrUnknownAction is returned when a handler does not expose the requested action.
	ErrUnknownAction = errors.New("job: unknown action")

	// ErrInvalidJob is returned when a job lacks a handler or an action name.
	ErrInvalidJob = errors.New("job: handler and action are required")

	// ErrArgumentOutOfRange is returned when a positional argument index does not exist.
	ErrArgumentOutOfRange = errors.New("job: argument index out of range")
)
