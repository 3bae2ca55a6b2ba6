package delivery

import "errors"

var (
	// ErrConfiguration is returned when a line is registered without a kind or an id.
	ErrConfiguration = errors.New("delivery: invalid line configuration")

	// ErrUndeclaredAction is returned in strict mode for actions missing from Delivers,
	// and by Action when nothing can deliver the requested action.
	ErrUndeclaredAction = errors.New("delivery: undeclared action")

	// ErrLineNotFound is returned when an operation names an unregistered line.
	ErrLineNotFound = errors.New("delivery: line not found")

	// ErrUnknownKind is returned by a manifest that names an unsupported line kind.
	ErrUnknownKind = errors.New("delivery: unknown line kind")

	// ErrHandlerKind is returned when a line kind is asked to deliver through a
	// handler of another kind.
	ErrHandlerKind = errors.New("delivery: handler does not match line kind")

	// ErrInvalidManifest is returned for structurally invalid manifests.
	ErrInvalidManifest = errors.New("delivery: invalid manifest")
)
