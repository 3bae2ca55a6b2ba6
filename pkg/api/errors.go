package api

import "errors"

var (
	// ErrStart indicates that the server failed to start.
	ErrStart = errors.New("api: failed to start HTTP server")
	// ErrShutdown indicates that graceful shutdown failed.
	ErrShutdown = errors.New("api: failed to shut down HTTP server gracefully")

	errUnknownDelivery = errors.New("unknown delivery")
	errBadRequest      = errors.New("bad request")
)
