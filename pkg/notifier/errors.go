package notifier

import "errors"

var (
	// ErrBodyRequired is returned when a notification payload lacks a non-empty body.
	ErrBodyRequired = errors.New("notifier: notification body must be present")

	// ErrDriverMissing is returned by NotifyNow when no driver is set in the notifier chain.
	ErrDriverMissing = errors.New("notifier: driver not found, set one with WithDriver or SetDriver")

	// ErrAsyncAdapterMissing is returned by NotifyLater when no async adapter is configured.
	ErrAsyncAdapterMissing = errors.New("notifier: async adapter not found")

	// ErrInvalidMode is returned for an unsupported delivery mode.
	ErrInvalidMode = errors.New("notifier: unsupported delivery mode")
)
